package sdkerrors

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bjoernek/multi-chain-voting/types"
)

// ErrParityNotFound is returned when neither recovery parity reproduces the signing service's
// public key. It signals an integrity failure of the signing service.
var ErrParityNotFound = errors.New("failed to recover the parity bit from the signature")

// RPCError is a JSON-RPC error carried in a response envelope.
type RPCError struct {
	Method  string
	Code    int64
	Message string
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("JSON-RPC error calling %s, code %d: %s", e.Method, e.Code, e.Message)
}

func NewRPCError(method string, code int64, message string) *RPCError {
	return &RPCError{Method: method, Code: code, Message: message}
}

// EnvelopeError is returned when a JSON-RPC response can not be interpreted: malformed JSON, a
// missing result or a result of the wrong shape.
type EnvelopeError struct {
	Method string
	Reason string
}

func (e *EnvelopeError) Error() string {
	return fmt.Sprintf("invalid JSON-RPC response for %s: %s", e.Method, e.Reason)
}

func NewEnvelopeError(method, reason string) *EnvelopeError {
	return &EnvelopeError{Method: method, Reason: reason}
}

// BroadcastRejectedError is returned when all providers agreed that the transaction was
// rejected.
type BroadcastRejectedError struct {
	Result types.SendResult
}

func (e *BroadcastRejectedError) Error() string {
	return "transaction rejected by providers: " + e.Result.String()
}

func NewBroadcastRejectedError(result types.SendResult) *BroadcastRejectedError {
	return &BroadcastRejectedError{Result: result}
}

// InconsistentBroadcastError is returned when providers disagree on the outcome of a broadcast.
// The transaction may or may not have been accepted.
type InconsistentBroadcastError struct {
	RawTx   string
	Results []types.ProviderSendResult
}

func (e *InconsistentBroadcastError) Error() string {
	parts := make([]string, 0, len(e.Results))
	for _, r := range e.Results {
		parts = append(parts, r.Provider+": "+r.Result.String())
	}

	return fmt.Sprintf("inconsistent broadcast result for %s: %s", e.RawTx, strings.Join(parts, ", "))
}

func NewInconsistentBroadcastError(rawTx string, results []types.ProviderSendResult) *InconsistentBroadcastError {
	return &InconsistentBroadcastError{RawTx: rawTx, Results: results}
}

// NarrowingError is returned when a sign request field does not fit its wire encoding width.
type NarrowingError struct {
	Field string
	Value string
	Bits  int
}

func (e *NarrowingError) Error() string {
	return fmt.Sprintf("field %s value %s does not fit in %d bits", e.Field, e.Value, e.Bits)
}

func NewNarrowingError(field, value string, bits int) *NarrowingError {
	return &NarrowingError{Field: field, Value: value, Bits: bits}
}

// ResponseTooLargeError is returned when a provider response exceeds the response budget.
type ResponseTooLargeError struct {
	Limit int64
}

func (e *ResponseTooLargeError) Error() string {
	return fmt.Sprintf("response exceeds the budget of %d bytes", e.Limit)
}

func NewResponseTooLargeError(limit int64) *ResponseTooLargeError {
	return &ResponseTooLargeError{Limit: limit}
}
