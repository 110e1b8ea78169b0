package testutils

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"math/big"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Note: should only be used for testing purposes
type ECDSASigner struct {
	Key *ecdsa.PrivateKey

	// Compressed makes PublicKey return the 33 byte form.
	Compressed bool
	// HighS makes Sign return the high-s twin of each signature.
	HighS bool
	// SignWith signs with another key than the one returned by PublicKey.
	SignWith *ecdsa.PrivateKey
	// SignErr and PublicKeyErr make the respective call fail.
	SignErr      error
	PublicKeyErr error

	signCalls atomic.Int64
}

func NewECDSASigner() *ECDSASigner {
	key, _ := crypto.GenerateKey()
	return &ECDSASigner{Key: key}
}

func (s *ECDSASigner) Address() common.Address {
	return crypto.PubkeyToAddress(s.Key.PublicKey)
}

// SignCalls returns how many signatures were requested.
func (s *ECDSASigner) SignCalls() int64 {
	return s.signCalls.Load()
}

func (s *ECDSASigner) PublicKey(context.Context) ([]byte, error) {
	if s.PublicKeyErr != nil {
		return nil, s.PublicKeyErr
	}
	if s.Compressed {
		return crypto.CompressPubkey(&s.Key.PublicKey), nil
	}

	return crypto.FromECDSAPub(&s.Key.PublicKey), nil
}

func (s *ECDSASigner) Sign(_ context.Context, digest [32]byte) ([]byte, error) {
	s.signCalls.Add(1)
	if s.SignErr != nil {
		return nil, s.SignErr
	}

	key := s.Key
	if s.SignWith != nil {
		key = s.SignWith
	}

	sig, err := crypto.Sign(digest[:], key)
	if err != nil {
		return nil, err
	}
	if len(sig) != 65 {
		return nil, errors.New("unexpected signature length")
	}

	rs := sig[:64]
	if s.HighS {
		n := crypto.S256().Params().N
		high := new(big.Int).Sub(n, new(big.Int).SetBytes(rs[32:]))
		copy(rs[32:], common.LeftPadBytes(high.Bytes(), 32))
	}

	return rs, nil
}
