package types //nolint:revive,nolintlint // allow pkg name 'types'

import (
	"crypto/ecdsa"
	"fmt"
	"slices"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

const (
	// SignatureComponentSize defines the size of each signature component (R and S) in bytes.
	SignatureComponentSize = 32

	// CompactSignatureLength is the length of an (r‖s) signature as returned by a signing
	// service. It carries no recovery id.
	CompactSignatureLength = 2 * SignatureComponentSize

	// SignatureBytesLength defines the length of the signature in bytes after summing the byte
	// values of R, S, and V.
	SignatureBytesLength = CompactSignatureLength + 1

	// SignatureVOffset defines the offset to adjust the recovery id (v) if needed.
	SignatureVOffset = 27
)

// Signature represents an ECDSA signature over a 32 byte digest.
type Signature struct {
	R common.Hash
	S common.Hash
	V uint8
}

// NewSignatureFromBytes creates a new Signature from a byte slice of concatenated R, S and
// optionally V values. A 64 byte input leaves V at zero; callers that need the recovery id must
// determine it separately.
func NewSignatureFromBytes(sig []byte) (Signature, error) {
	switch len(sig) {
	case CompactSignatureLength:
		return Signature{
			R: common.BytesToHash(sig[:SignatureComponentSize]),
			S: common.BytesToHash(sig[SignatureComponentSize:CompactSignatureLength]),
		}, nil
	case SignatureBytesLength:
		return Signature{
			R: common.BytesToHash(sig[:SignatureComponentSize]),
			S: common.BytesToHash(sig[SignatureComponentSize:CompactSignatureLength]),
			V: sig[CompactSignatureLength],
		}, nil
	default:
		return Signature{}, fmt.Errorf("invalid signature length: %d", len(sig))
	}
}

// WithRecoveryID returns a copy of the signature with V set to the given parity.
func (s Signature) WithRecoveryID(parity uint8) Signature {
	s.V = parity

	return s
}

// ToBytes returns the 65 byte representation of the signature.
func (s Signature) ToBytes() []byte {
	return slices.Concat(
		s.R.Bytes(),
		s.S.Bytes(),
		[]byte{s.V},
	)
}

// Recover returns the address recovered from the signature and the message hash
func (s Signature) Recover(hash common.Hash) (common.Address, error) {
	pubKey, err := s.RecoverPublicKey(hash)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to recover public key: %w", err)
	}

	return crypto.PubkeyToAddress(*pubKey), nil
}

// RecoverPublicKey returns the public key recovered from the signature and the message hash
func (s Signature) RecoverPublicKey(hash common.Hash) (*ecdsa.PublicKey, error) {
	sig := s.ToBytes()

	// Ethereum signatures may carry 27 or 28, crypto.SigToPub expects 0 or 1.
	if sig[SignatureBytesLength-1] > 1 {
		sig[SignatureBytesLength-1] -= SignatureVOffset
	}

	return crypto.SigToPub(hash.Bytes(), sig)
}
