package store

import "errors"

var (
	ErrProposalNotFound        = errors.New("proposal not found")
	ErrProposalClosed          = errors.New("proposal is closed")
	ErrAlreadyVoted            = errors.New("already voted on this proposal")
	ErrProposalAlreadyExecuted = errors.New("proposal already executed")
	ErrVoteNotFound            = errors.New("vote not found")
)
