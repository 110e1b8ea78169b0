package api

import (
	"errors"

	"github.com/ethereum/go-ethereum/rpc"

	voting "github.com/bjoernek/multi-chain-voting"
	"github.com/bjoernek/multi-chain-voting/sdk/evm"
)

// JSON-RPC error codes of business errors. Any other failure is reported with the server
// default code.
const (
	CodeInvalidParams       = -32602
	CodeMissingIdentity     = -32001
	CodeProposalNotFound    = -32004
	CodeProposalClosed      = -32010
	CodeAlreadyVoted        = -32011
	CodeAlreadyExecuted     = -32012
	CodeAddressUnresolvable = -32013
)

var ErrMissingIdentity = errors.New("missing caller identity")

// Error is a JSON-RPC error with an application code.
type Error struct {
	Code    int
	Message string
}

var _ rpc.Error = (*Error)(nil)

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) ErrorCode() int {
	return e.Code
}

var sentinels = []struct {
	code int
	err  error
}{
	{CodeMissingIdentity, ErrMissingIdentity},
	{CodeProposalNotFound, voting.ErrProposalNotFound},
	{CodeProposalClosed, voting.ErrProposalClosed},
	{CodeAlreadyVoted, voting.ErrAlreadyVoted},
	{CodeAlreadyExecuted, voting.ErrProposalAlreadyExecuted},
}

// toRPCError attaches an application code to business errors.
func toRPCError(err error) error {
	if err == nil {
		return nil
	}

	for _, s := range sentinels {
		if errors.Is(err, s.err) {
			return &Error{Code: s.code, Message: err.Error()}
		}
	}

	var (
		resolutionErr *voting.AddressResolutionError
		amountErr     *voting.InvalidAmountError
	)
	switch {
	case errors.As(err, &resolutionErr):
		return &Error{Code: CodeAddressUnresolvable, Message: err.Error()}
	case errors.As(err, &amountErr), errors.Is(err, evm.ErrInvalidAddress), errors.Is(err, evm.ErrInvalidChecksum):
		return &Error{Code: CodeInvalidParams, Message: err.Error()}
	default:
		return err
	}
}

// fromRPCError maps application codes back onto the business errors so callers can use
// errors.Is.
func fromRPCError(err error) error {
	var rpcErr rpc.Error
	if !errors.As(err, &rpcErr) {
		return err
	}

	for _, s := range sentinels {
		if rpcErr.ErrorCode() == s.code {
			return s.err
		}
	}

	return err
}
