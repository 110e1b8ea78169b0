package voting

import (
	"context"
	"crypto/ecdsa"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/bjoernek/multi-chain-voting/sdk"
	"github.com/bjoernek/multi-chain-voting/types"
)

var (
	_ sdk.SigningService = &PrivateKeySigner{}
	_ sdk.SigningService = &RemoteSigner{}
)

// PrivateKeySigner signs digests with a local private key. Meant for development networks and
// tests where no remote signing service is available.
type PrivateKeySigner struct {
	pk *ecdsa.PrivateKey
}

// NewPrivateKeySigner creates a new PrivateKeySigner.
func NewPrivateKeySigner(pk *ecdsa.PrivateKey) *PrivateKeySigner {
	return &PrivateKeySigner{pk: pk}
}

// NewPrivateKeySignerFromHex creates a PrivateKeySigner from a hex encoded key, with or without
// the 0x prefix.
func NewPrivateKeySignerFromHex(key string) (*PrivateKeySigner, error) {
	if len(key) >= 2 && key[:2] == "0x" {
		key = key[2:]
	}

	pk, err := crypto.HexToECDSA(key)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}

	return NewPrivateKeySigner(pk), nil
}

// PublicKey returns the uncompressed public key.
func (s *PrivateKeySigner) PublicKey(context.Context) ([]byte, error) {
	return crypto.FromECDSAPub(&s.pk.PublicKey), nil
}

// Sign signs the digest as is, without any message prefix, and drops the recovery id.
func (s *PrivateKeySigner) Sign(_ context.Context, digest [32]byte) ([]byte, error) {
	sig, err := crypto.Sign(digest[:], s.pk)
	if err != nil {
		return nil, err
	}

	return sig[:types.CompactSignatureLength], nil
}

// RemoteSigner talks to a remote signing service over JSON-RPC. The service derives the key
// from a key id and a derivation path and exposes signer_publicKey and signer_signDigest.
type RemoteSigner struct {
	client         *rpc.Client
	keyID          string
	derivationPath []string
}

// NewRemoteSigner dials the signing service at url.
func NewRemoteSigner(ctx context.Context, url, keyID string, derivationPath []string) (*RemoteSigner, error) {
	client, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to dial signing service: %w", err)
	}

	return &RemoteSigner{client: client, keyID: keyID, derivationPath: derivationPath}, nil
}

// Close closes the connection to the signing service.
func (s *RemoteSigner) Close() {
	s.client.Close()
}

func (s *RemoteSigner) PublicKey(ctx context.Context) ([]byte, error) {
	var pub hexutil.Bytes
	if err := s.client.CallContext(ctx, &pub, "signer_publicKey", s.keyID, s.derivationPath); err != nil {
		return nil, fmt.Errorf("signer_publicKey: %w", err)
	}

	return pub, nil
}

func (s *RemoteSigner) Sign(ctx context.Context, digest [32]byte) ([]byte, error) {
	var sig hexutil.Bytes
	if err := s.client.CallContext(ctx, &sig, "signer_signDigest", s.keyID, s.derivationPath, hexutil.Bytes(digest[:])); err != nil {
		return nil, fmt.Errorf("signer_signDigest: %w", err)
	}

	return sig, nil
}
