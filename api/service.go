// Package api exposes the governance engine over JSON-RPC in the "governance" namespace.
package api

import (
	"context"

	voting "github.com/bjoernek/multi-chain-voting"
	"github.com/bjoernek/multi-chain-voting/types"
)

const Namespace = "governance"

// Service is the receiver of the governance_* JSON-RPC methods. Token transfers from the
// coordinator address are not part of it; Engine.Transfer is only reachable in process.
type Service struct {
	engine *voting.Engine
}

func NewService(engine *voting.Engine) *Service {
	return &Service{engine: engine}
}

// SubmitProposal creates a proposal voting for durationSeconds and returns its id.
func (s *Service) SubmitProposal(
	ctx context.Context, title, description, proposalType string, durationSeconds uint64,
) (uint64, error) {
	caller, err := IdentityFrom(ctx)
	if err != nil {
		return 0, toRPCError(err)
	}

	id, err := s.engine.Submit(ctx, caller, title, description, proposalType, types.Seconds(durationSeconds).Duration)

	return id, toRPCError(err)
}

func (s *Service) GetProposals() []types.Proposal {
	return s.engine.GetProposals()
}

func (s *Service) GetProposal(id uint64) (types.Proposal, error) {
	p, err := s.engine.GetProposal(id)

	return p, toRPCError(err)
}

func (s *Service) GetVotes(id uint64) ([]types.VoteRecord, error) {
	votes, err := s.engine.GetVotes(id)

	return votes, toRPCError(err)
}

// VoteOnProposal votes yes (true) or no (false) with the caller's snapshot balance.
func (s *Service) VoteOnProposal(ctx context.Context, id uint64, choice bool) error {
	caller, err := IdentityFrom(ctx)
	if err != nil {
		return toRPCError(err)
	}

	return toRPCError(s.engine.Vote(ctx, caller, id, choice))
}

// ExecuteProposal submits the outcome of the proposal and returns the transaction hash.
func (s *Service) ExecuteProposal(ctx context.Context, id uint64) (string, error) {
	txHash, err := s.engine.Execute(ctx, id)

	return txHash, toRPCError(err)
}

func (s *Service) GetEthAddress(ctx context.Context) (string, error) {
	addr, err := s.engine.GetEthAddress(ctx)

	return addr, toRPCError(err)
}

func (s *Service) GetMyEthBalance(ctx context.Context) (string, error) {
	caller, err := IdentityFrom(ctx)
	if err != nil {
		return "", toRPCError(err)
	}

	balance, err := s.engine.GetMyEthBalance(ctx, caller)

	return balance, toRPCError(err)
}

func (s *Service) ClearClosedProposals() (int, error) {
	n, err := s.engine.ClearClosedProposals()

	return n, toRPCError(err)
}

func (s *Service) ClearProposalById(id uint64) error { //nolint:revive,stylecheck // method name is part of the API
	return toRPCError(s.engine.ClearProposalByID(id))
}
