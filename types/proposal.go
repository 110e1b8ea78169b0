package types //nolint:revive,nolintlint // allow pkg name 'types'

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// ProposalState is the lifecycle state of a proposal. States only move forward:
// Open -> Closed -> Executed.
type ProposalState string

const (
	// StateOpen accepts votes until the end time elapses.
	StateOpen ProposalState = "Open"
	// StateClosed no longer accepts votes and waits for execution.
	StateClosed ProposalState = "Closed"
	// StateExecuted is terminal. The outcome transaction has been claimed for submission.
	StateExecuted ProposalState = "Executed"
)

// Proposal is a governance proposal voted on with balances read from the external ledger.
type Proposal struct {
	ID               uint64    `json:"id"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	ProposalType     string    `json:"proposalType"`
	Submitter        string    `json:"submitter"`
	SubmitterAddress string    `json:"submitterAddress"`
	StartTime        time.Time `json:"startTime"`
	EndTime          time.Time `json:"endTime"`

	// SnapshotBlock is the ledger-native hex block tag returned by eth_blockNumber at creation.
	// Every vote on this proposal reads balances at this tag.
	SnapshotBlock  string `json:"snapshotBlock"`
	SnapshotHeight uint64 `json:"snapshotHeight"`

	IsOpen     bool     `json:"isOpen"`
	IsExecuted bool     `json:"isExecuted"`
	YesWeight  *big.Int `json:"yesWeight"`
	NoWeight   *big.Int `json:"noWeight"`
	TxHash     string   `json:"txHash,omitempty"`
}

// State derives the lifecycle state from the proposal flags.
func (p *Proposal) State() ProposalState {
	switch {
	case p.IsExecuted:
		return StateExecuted
	case p.IsOpen:
		return StateOpen
	default:
		return StateClosed
	}
}

// AcceptsVotesAt reports whether a vote cast at the given time may be counted. A proposal
// stops accepting votes once its end time is reached even if it has not been swept yet, so a
// zero duration proposal never accepts a vote.
func (p *Proposal) AcceptsVotesAt(now time.Time) bool {
	return p.IsOpen && now.Before(p.EndTime)
}

// ExpiredAt reports whether the voting window has elapsed at the given time.
func (p *Proposal) ExpiredAt(now time.Time) bool {
	return !now.Before(p.EndTime)
}

// TotalWeight returns the sum of the yes and no weights.
func (p *Proposal) TotalWeight() *big.Int {
	return new(big.Int).Add(weightOrZero(p.YesWeight), weightOrZero(p.NoWeight))
}

// Clone returns a deep copy of the proposal so callers can not mutate the stored weights.
func (p *Proposal) Clone() Proposal {
	out := *p
	out.YesWeight = new(big.Int).Set(weightOrZero(p.YesWeight))
	out.NoWeight = new(big.Int).Set(weightOrZero(p.NoWeight))

	return out
}

// VoteRecord is the single vote of a resolved ledger address on a proposal.
type VoteRecord struct {
	ProposalID uint64         `json:"proposalId"`
	Voter      common.Address `json:"voter"`
	Choice     bool           `json:"choice"`
	Weight     *big.Int       `json:"weight,omitempty"`
	CastAt     time.Time      `json:"castAt"`
}

func weightOrZero(w *big.Int) *big.Int {
	if w == nil {
		return new(big.Int)
	}

	return w
}
