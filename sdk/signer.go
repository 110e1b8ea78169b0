package sdk

import "context"

// SigningService is a remote signer holding secp256k1 key material. It never exposes the
// private key.
//
// Implementations fail closed: an error aborts the calling operation and partial results are
// never returned.
type SigningService interface {
	// PublicKey returns the SEC1 encoded public key, compressed or uncompressed.
	PublicKey(ctx context.Context) ([]byte, error)

	// Sign returns the 64 byte (r||s) signature of digest. The recovery id is not returned.
	Sign(ctx context.Context, digest [32]byte) ([]byte, error)
}
