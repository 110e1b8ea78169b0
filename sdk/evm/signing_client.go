package evm

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"

	"github.com/bjoernek/multi-chain-voting/sdk"
	"github.com/bjoernek/multi-chain-voting/types"
)

// SigningClient wraps a remote signing service with the key and signature handling needed to
// sign ledger transactions.
type SigningClient struct {
	service sdk.SigningService
}

func NewSigningClient(service sdk.SigningService) *SigningClient {
	return &SigningClient{service: service}
}

// PublicKey returns the service's SEC1 encoded public key.
func (c *SigningClient) PublicKey(ctx context.Context) ([]byte, error) {
	pub, err := c.service.PublicKey(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch public key: %w", err)
	}

	return pub, nil
}

// DeriveAddress returns the ledger address of the service's key.
func (c *SigningClient) DeriveAddress(ctx context.Context) (common.Address, error) {
	pub, err := c.PublicKey(ctx)
	if err != nil {
		return common.Address{}, err
	}

	return AddressFromPublicKey(pub)
}

// PublicKeyAndSignature fetches the public key and a signature over digest concurrently. The
// signature is returned without a recovery id.
func (c *SigningClient) PublicKeyAndSignature(ctx context.Context, digest common.Hash) ([]byte, types.Signature, error) {
	var (
		pub []byte
		raw []byte
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		pub, err = c.PublicKey(gctx)

		return err
	})
	g.Go(func() error {
		var err error
		raw, err = c.service.Sign(gctx, digest)
		if err != nil {
			return fmt.Errorf("failed to sign digest: %w", err)
		}

		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, types.Signature{}, err
	}

	if len(raw) != types.CompactSignatureLength {
		return nil, types.Signature{}, fmt.Errorf("signing service returned %d bytes, expected %d", len(raw), types.CompactSignatureLength)
	}

	sig, err := types.NewSignatureFromBytes(raw)
	if err != nil {
		return nil, types.Signature{}, err
	}

	return pub, sig, nil
}
