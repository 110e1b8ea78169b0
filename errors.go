package voting

import (
	"fmt"

	"github.com/bjoernek/multi-chain-voting/store"
)

// Business errors. They are returned to the caller and never leave partial state behind.
var (
	ErrProposalNotFound        = store.ErrProposalNotFound
	ErrProposalClosed          = store.ErrProposalClosed
	ErrAlreadyVoted            = store.ErrAlreadyVoted
	ErrProposalAlreadyExecuted = store.ErrProposalAlreadyExecuted
)

// AddressResolutionError is returned when a caller identity can not be mapped to a ledger
// address.
type AddressResolutionError struct {
	Identity string
	Err      error
}

func (e *AddressResolutionError) Error() string {
	return fmt.Sprintf("failed to resolve address of %s: %v", e.Identity, e.Err)
}

func (e *AddressResolutionError) Unwrap() error {
	return e.Err
}

func NewAddressResolutionError(identity string, err error) *AddressResolutionError {
	return &AddressResolutionError{Identity: identity, Err: err}
}

// ExecutionFailedError is returned when a proposal was claimed for execution but its
// transaction could not be submitted. The proposal stays executed without a transaction hash
// and needs operator reconciliation.
type ExecutionFailedError struct {
	ProposalID uint64
	Err        error
}

func (e *ExecutionFailedError) Error() string {
	return fmt.Sprintf("proposal %d is marked executed but its transaction failed: %v", e.ProposalID, e.Err)
}

func (e *ExecutionFailedError) Unwrap() error {
	return e.Err
}

func NewExecutionFailedError(id uint64, err error) *ExecutionFailedError {
	return &ExecutionFailedError{ProposalID: id, Err: err}
}

// InvalidAmountError is returned when a transfer amount is negative or missing.
type InvalidAmountError struct {
	Amount string
}

func (e *InvalidAmountError) Error() string {
	return "invalid transfer amount: " + e.Amount
}

func NewInvalidAmountError(amount string) *InvalidAmountError {
	return &InvalidAmountError{Amount: amount}
}
