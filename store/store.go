// Package store keeps governance proposals and their vote records.
//
// Every read and write goes through a single mutex, so check-and-insert sequences run as one
// critical section. Mutations are written to badger before they are applied in memory, and the
// in-memory state is rebuilt from badger on Open.
package store

import (
	"fmt"
	"maps"
	"math/big"
	"slices"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/ethereum/go-ethereum/common"

	"github.com/bjoernek/multi-chain-voting/types"
)

// Store is the process-wide owner of proposals and vote records. Callers only ever receive
// copies.
type Store struct {
	mu        sync.Mutex
	db        *badger.DB
	proposals map[uint64]*types.Proposal
	votes     map[uint64]map[common.Address]types.VoteRecord
	nextID    uint64
}

// Open opens the store. Without a data directory the store lives in memory only.
func Open(opts ...Option) (*Store, error) {
	cfg := defaultOptions()
	for _, opt := range opts {
		opt(&cfg)
	}

	db, err := badger.Open(cfg.badgerOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to open badger: %w", err)
	}

	s := &Store{
		db:        db,
		proposals: make(map[uint64]*types.Proposal),
		votes:     make(map[uint64]map[common.Address]types.VoteRecord),
		nextID:    1,
	}
	if err := s.load(); err != nil {
		_ = db.Close()

		return nil, err
	}

	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Create assigns the next sequential id to p and inserts it.
func (s *Store) Create(p types.Proposal) (types.Proposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p = p.Clone()
	p.ID = s.nextID

	if err := s.db.Update(func(txn *badger.Txn) error {
		if err := putProposal(txn, &p); err != nil {
			return err
		}

		return putNextID(txn, p.ID+1)
	}); err != nil {
		return types.Proposal{}, fmt.Errorf("failed to persist proposal: %w", err)
	}

	s.proposals[p.ID] = &p
	s.nextID = p.ID + 1

	return p.Clone(), nil
}

// Get returns a copy of the proposal.
func (s *Store) Get(id uint64) (types.Proposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.proposals[id]
	if !ok {
		return types.Proposal{}, ErrProposalNotFound
	}

	return p.Clone(), nil
}

// List returns copies of all proposals ordered by id.
func (s *Store) List() []types.Proposal {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := slices.Sorted(maps.Keys(s.proposals))
	out := make([]types.Proposal, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.proposals[id].Clone())
	}

	return out
}

// Votes returns the vote records of a proposal ordered by voter address.
func (s *Store) Votes(id uint64) ([]types.VoteRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.proposals[id]; !ok {
		return nil, ErrProposalNotFound
	}

	records := s.votes[id]
	voters := slices.SortedFunc(maps.Keys(records), func(a, b common.Address) int {
		return a.Cmp(b)
	})
	out := make([]types.VoteRecord, 0, len(voters))
	for _, v := range voters {
		out = append(out, cloneVote(records[v]))
	}

	return out, nil
}

// InsertVote records a vote if the proposal accepts votes at now and the voter has not voted on
// it yet. The checks and the insertion happen in one critical section.
func (s *Store) InsertVote(rec types.VoteRecord, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.proposals[rec.ProposalID]
	if !ok {
		return ErrProposalNotFound
	}
	if !p.AcceptsVotesAt(now) {
		return ErrProposalClosed
	}
	if _, voted := s.votes[rec.ProposalID][rec.Voter]; voted {
		return ErrAlreadyVoted
	}

	rec = cloneVote(rec)
	if err := s.db.Update(func(txn *badger.Txn) error {
		return putVote(txn, &rec)
	}); err != nil {
		return fmt.Errorf("failed to persist vote: %w", err)
	}

	if s.votes[rec.ProposalID] == nil {
		s.votes[rec.ProposalID] = make(map[common.Address]types.VoteRecord)
	}
	s.votes[rec.ProposalID][rec.Voter] = rec

	return nil
}

// RemoveVote deletes a vote record that never carried weight.
func (s *Store) RemoveVote(id uint64, voter common.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.votes[id][voter]; !ok {
		return ErrVoteNotFound
	}

	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(voteKey(id, voter))
	}); err != nil {
		return fmt.Errorf("failed to delete vote: %w", err)
	}

	delete(s.votes[id], voter)

	return nil
}

// AddWeight adds weight to the tally of an existing vote and records the weight on the vote.
// The tally is updated even if the proposal closed after the vote was inserted.
func (s *Store) AddWeight(id uint64, voter common.Address, weight *big.Int) (types.Proposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.proposals[id]
	if !ok {
		return types.Proposal{}, ErrProposalNotFound
	}
	rec, ok := s.votes[id][voter]
	if !ok {
		return types.Proposal{}, ErrVoteNotFound
	}

	updated := p.Clone()
	if rec.Choice {
		updated.YesWeight.Add(updated.YesWeight, weight)
	} else {
		updated.NoWeight.Add(updated.NoWeight, weight)
	}
	rec.Weight = new(big.Int).Set(weight)

	if err := s.db.Update(func(txn *badger.Txn) error {
		if err := putProposal(txn, &updated); err != nil {
			return err
		}

		return putVote(txn, &rec)
	}); err != nil {
		return types.Proposal{}, fmt.Errorf("failed to persist tally: %w", err)
	}

	s.proposals[id] = &updated
	s.votes[id][voter] = rec

	return updated.Clone(), nil
}

// ClaimExecution marks the proposal executed and closed unless it is already executed. It is
// the only transition into the executed state.
func (s *Store) ClaimExecution(id uint64) (types.Proposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.proposals[id]
	if !ok {
		return types.Proposal{}, ErrProposalNotFound
	}
	if p.IsExecuted {
		return types.Proposal{}, ErrProposalAlreadyExecuted
	}

	updated := p.Clone()
	updated.IsExecuted = true
	updated.IsOpen = false

	if err := s.update(&updated); err != nil {
		return types.Proposal{}, err
	}

	return updated.Clone(), nil
}

// SetTxHash records the execution transaction hash. The hash is set at most once.
func (s *Store) SetTxHash(id uint64, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.proposals[id]
	if !ok {
		return ErrProposalNotFound
	}
	if p.TxHash != "" {
		return fmt.Errorf("proposal %d already has transaction %s", id, p.TxHash)
	}

	updated := p.Clone()
	updated.TxHash = hash

	return s.update(&updated)
}

// CloseExpired closes every open proposal whose end time has passed at now and returns their
// ids in ascending order. It never marks a proposal executed.
func (s *Store) CloseExpired(now time.Time) ([]uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var closed []*types.Proposal
	for _, id := range slices.Sorted(maps.Keys(s.proposals)) {
		p := s.proposals[id]
		if p.IsOpen && p.ExpiredAt(now) {
			updated := p.Clone()
			updated.IsOpen = false
			closed = append(closed, &updated)
		}
	}
	if len(closed) == 0 {
		return nil, nil
	}

	if err := s.db.Update(func(txn *badger.Txn) error {
		for _, p := range closed {
			if err := putProposal(txn, p); err != nil {
				return err
			}
		}

		return nil
	}); err != nil {
		return nil, fmt.Errorf("failed to persist closed proposals: %w", err)
	}

	ids := make([]uint64, 0, len(closed))
	for _, p := range closed {
		s.proposals[p.ID] = p
		ids = append(ids, p.ID)
	}

	return ids, nil
}

// PendingExecution returns, in ascending order, the ids of closed proposals that have not been
// claimed for execution yet.
func (s *Store) PendingExecution() []uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ids []uint64
	for _, id := range slices.Sorted(maps.Keys(s.proposals)) {
		if p := s.proposals[id]; !p.IsOpen && !p.IsExecuted {
			ids = append(ids, id)
		}
	}

	return ids
}

// ClearClosed removes every proposal that is not open, together with its vote records, and
// returns how many proposals were removed.
func (s *Store) ClearClosed() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ids []uint64
	for id, p := range s.proposals {
		if !p.IsOpen {
			ids = append(ids, id)
		}
	}
	if err := s.remove(ids...); err != nil {
		return 0, err
	}

	return len(ids), nil
}

// Remove removes one proposal and its vote records regardless of its state.
func (s *Store) Remove(id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.proposals[id]; !ok {
		return ErrProposalNotFound
	}

	return s.remove(id)
}

// remove deletes proposals and their votes. The caller holds the mutex.
func (s *Store) remove(ids ...uint64) error {
	if len(ids) == 0 {
		return nil
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	for _, id := range ids {
		if err := wb.Delete(proposalKey(id)); err != nil {
			return fmt.Errorf("failed to delete proposal %d: %w", id, err)
		}
		for voter := range s.votes[id] {
			if err := wb.Delete(voteKey(id, voter)); err != nil {
				return fmt.Errorf("failed to delete vote of proposal %d: %w", id, err)
			}
		}
	}
	if err := wb.Flush(); err != nil {
		return fmt.Errorf("failed to delete proposals: %w", err)
	}

	for _, id := range ids {
		delete(s.proposals, id)
		delete(s.votes, id)
	}

	return nil
}

// update persists and applies a modified proposal. The caller holds the mutex.
func (s *Store) update(p *types.Proposal) error {
	if err := s.db.Update(func(txn *badger.Txn) error {
		return putProposal(txn, p)
	}); err != nil {
		return fmt.Errorf("failed to persist proposal %d: %w", p.ID, err)
	}
	s.proposals[p.ID] = p

	return nil
}

func cloneVote(rec types.VoteRecord) types.VoteRecord {
	if rec.Weight != nil {
		rec.Weight = new(big.Int).Set(rec.Weight)
	}

	return rec
}
