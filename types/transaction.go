package types //nolint:revive,nolintlint // allow pkg name 'types'

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// SignRequest fully determines an unsigned EIP-1559 transaction. It is never persisted.
//
// All numeric fields are arbitrary precision and must be non-negative and fit the wire widths
// (uint64 for chain id, gas and nonce, 256 bits for fees and value).
type SignRequest struct {
	ChainID              *big.Int
	To                   common.Address
	Gas                  *big.Int
	MaxFeePerGas         *big.Int
	MaxPriorityFeePerGas *big.Int
	Value                *big.Int
	Nonce                *big.Int
	Data                 []byte
}

// SendStatus is the status a provider reported for an eth_sendRawTransaction call.
type SendStatus string

const (
	SendStatusOk                SendStatus = "Ok"
	SendStatusNonceTooLow       SendStatus = "NonceTooLow"
	SendStatusNonceTooHigh      SendStatus = "NonceTooHigh"
	SendStatusInsufficientFunds SendStatus = "InsufficientFunds"
)

// SendResult is the outcome of a raw transaction broadcast through one provider, or the agreed
// outcome of all providers. Exactly one of Status or Err is set.
type SendResult struct {
	Status SendStatus `json:"status,omitempty"`
	// TxHash is only set with SendStatusOk, and only when the provider returned one.
	TxHash string `json:"txHash,omitempty"`
	Err    string `json:"error,omitempty"`
}

// Equal reports whether two results describe the same outcome.
func (r SendResult) Equal(o SendResult) bool {
	return r.Status == o.Status && strings.EqualFold(r.TxHash, o.TxHash) && r.Err == o.Err
}

// String returns a compact representation used in logs and error messages.
func (r SendResult) String() string {
	switch {
	case r.Err != "":
		return "Err(" + r.Err + ")"
	case r.TxHash != "":
		return fmt.Sprintf("%s(%s)", r.Status, r.TxHash)
	default:
		return string(r.Status)
	}
}

// ProviderSendResult pairs a provider with the result it returned.
type ProviderSendResult struct {
	Provider string     `json:"provider"`
	Result   SendResult `json:"result"`
}

// MultiSendResult is returned by a multi-provider aggregator. When all providers agree,
// Consistent is set; otherwise Inconsistent lists every provider's answer.
type MultiSendResult struct {
	Consistent   *SendResult          `json:"consistent,omitempty"`
	Inconsistent []ProviderSendResult `json:"inconsistent,omitempty"`
}

// IsConsistent reports whether all providers agreed on the outcome.
func (m MultiSendResult) IsConsistent() bool {
	return m.Consistent != nil
}
