package evm

import (
	"bytes"
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"

	"github.com/bjoernek/multi-chain-voting/internal/utils/safecast"
	sdkerrors "github.com/bjoernek/multi-chain-voting/sdk/errors"
	"github.com/bjoernek/multi-chain-voting/types"
)

// recoveryIDCandidates bounds the parity search: a secp256k1 recovery id for a low-s signature
// is either 0 or 1.
const recoveryIDCandidates = 2

var (
	secp256k1N     = crypto.S256().Params().N
	secp256k1HalfN = new(big.Int).Rsh(secp256k1N, 1)
)

// dynamicFeeFields is the narrowed form of a SignRequest.
type dynamicFeeFields struct {
	chainID uint64
	nonce   uint64
	gas     uint64
	tip     *uint256.Int
	feeCap  *uint256.Int
	value   *uint256.Int
	to      common.Address
	data    []byte
}

// TransactionBuilder builds EIP-1559 transactions and signs them with a remote signing service.
type TransactionBuilder struct {
	signer *SigningClient
}

func NewTransactionBuilder(signer *SigningClient) *TransactionBuilder {
	return &TransactionBuilder{signer: signer}
}

// BuildAndSign signs the transaction described by req and returns its 0x prefixed lowercase hex
// wire encoding.
func (b *TransactionBuilder) BuildAndSign(ctx context.Context, req types.SignRequest) (string, error) {
	fields, err := narrow(req)
	if err != nil {
		return "", err
	}

	tx := fields.transaction()
	txSigner := gethtypes.LatestSignerForChainID(tx.ChainId())
	hash := txSigner.Hash(tx)

	pub, sig, err := b.signer.PublicKeyAndSignature(ctx, hash)
	if err != nil {
		return "", err
	}

	sig = normalizeS(sig)

	parity, err := RecoverParity(hash, sig, pub)
	if err != nil {
		return "", err
	}

	signed, err := tx.WithSignature(txSigner, sig.WithRecoveryID(parity).ToBytes())
	if err != nil {
		return "", fmt.Errorf("failed to assemble signed transaction: %w", err)
	}

	raw, err := signed.MarshalBinary()
	if err != nil {
		return "", fmt.Errorf("failed to encode signed transaction: %w", err)
	}

	return EncodeHex(raw), nil
}

// SigningHash returns the digest that is signed for req:
// keccak256(0x02 || rlp([chainId, nonce, tip, feeCap, gas, to, value, data, accessList])).
func SigningHash(req types.SignRequest) (common.Hash, error) {
	fields, err := narrow(req)
	if err != nil {
		return common.Hash{}, err
	}
	tx := fields.transaction()

	return gethtypes.LatestSignerForChainID(tx.ChainId()).Hash(tx), nil
}

// RecoverParity returns the recovery id that makes sig recover to pub over hash. Both candidate
// values are tried. A miss means the signing service signed with a different key or returned a
// corrupt signature, and is reported as sdkerrors.ErrParityNotFound.
func RecoverParity(hash common.Hash, sig types.Signature, pub []byte) (uint8, error) {
	key, err := ParsePublicKey(pub)
	if err != nil {
		return 0, fmt.Errorf("failed to parse public key: %w", err)
	}
	want := crypto.FromECDSAPub(key)

	for parity := range uint8(recoveryIDCandidates) {
		recovered, err := crypto.Ecrecover(hash.Bytes(), sig.WithRecoveryID(parity).ToBytes())
		if err != nil {
			continue
		}
		if bytes.Equal(recovered, want) {
			return parity, nil
		}
	}

	return 0, sdkerrors.ErrParityNotFound
}

// normalizeS maps a high-s signature onto its low-s equivalent. Both verify against the same
// key but the ledger only accepts the low-s form.
func normalizeS(sig types.Signature) types.Signature {
	s := sig.S.Big()
	if s.Cmp(secp256k1HalfN) <= 0 {
		return sig
	}
	sig.S = common.BigToHash(new(big.Int).Sub(secp256k1N, s))

	return sig
}

func narrow(req types.SignRequest) (dynamicFeeFields, error) {
	var (
		fields dynamicFeeFields
		err    error
	)

	if fields.chainID, err = narrowUint64("chainId", req.ChainID); err != nil {
		return fields, err
	}
	if fields.nonce, err = narrowUint64("nonce", req.Nonce); err != nil {
		return fields, err
	}
	if fields.gas, err = narrowUint64("gas", req.Gas); err != nil {
		return fields, err
	}
	if fields.tip, err = narrowUint256("maxPriorityFeePerGas", req.MaxPriorityFeePerGas); err != nil {
		return fields, err
	}
	if fields.feeCap, err = narrowUint256("maxFeePerGas", req.MaxFeePerGas); err != nil {
		return fields, err
	}
	if fields.value, err = narrowUint256("value", req.Value); err != nil {
		return fields, err
	}
	fields.to = req.To
	fields.data = req.Data

	return fields, nil
}

func narrowUint64(field string, v *big.Int) (uint64, error) {
	n, err := safecast.BigToUint64(v)
	if err != nil {
		return 0, sdkerrors.NewNarrowingError(field, v.String(), 64)
	}

	return n, nil
}

func narrowUint256(field string, v *big.Int) (*uint256.Int, error) {
	n, err := safecast.BigToUint256(v)
	if err != nil {
		return nil, sdkerrors.NewNarrowingError(field, v.String(), 256)
	}

	return n, nil
}

func (f dynamicFeeFields) transaction() *gethtypes.Transaction {
	to := f.to

	return gethtypes.NewTx(&gethtypes.DynamicFeeTx{
		ChainID:   new(big.Int).SetUint64(f.chainID),
		Nonce:     f.nonce,
		GasTipCap: f.tip.ToBig(),
		GasFeeCap: f.feeCap.ToBig(),
		Gas:       f.gas,
		To:        &to,
		Value:     f.value.ToBig(),
		Data:      f.data,
	})
}
