package store

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/ethereum/go-ethereum/common"

	"github.com/bjoernek/multi-chain-voting/types"
)

var (
	proposalPrefix = []byte("proposal/")
	votePrefix     = []byte("vote/")
	nextIDKey      = []byte("meta/next_id")
)

// proposalKey orders proposals by id under byte-wise key order.
func proposalKey(id uint64) []byte {
	return binary.BigEndian.AppendUint64(append([]byte{}, proposalPrefix...), id)
}

func voteKey(id uint64, voter common.Address) []byte {
	key := binary.BigEndian.AppendUint64(append([]byte{}, votePrefix...), id)

	return append(key, voter.Bytes()...)
}

func putProposal(txn *badger.Txn, p *types.Proposal) error {
	val, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode proposal %d: %w", p.ID, err)
	}

	return txn.Set(proposalKey(p.ID), val)
}

func putVote(txn *badger.Txn, rec *types.VoteRecord) error {
	val, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode vote: %w", err)
	}

	return txn.Set(voteKey(rec.ProposalID, rec.Voter), val)
}

func putNextID(txn *badger.Txn, id uint64) error {
	return txn.Set(nextIDKey, binary.BigEndian.AppendUint64(nil, id))
}

// load rebuilds the in-memory state from badger.
func (s *Store) load() error {
	return s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(nextIDKey)
		switch {
		case errors.Is(err, badger.ErrKeyNotFound):
		case err != nil:
			return fmt.Errorf("failed to read next id: %w", err)
		default:
			val, err := item.ValueCopy(nil)
			if err != nil {
				return fmt.Errorf("failed to read next id: %w", err)
			}
			if len(val) != 8 {
				return fmt.Errorf("invalid next id record of %d bytes", len(val))
			}
			s.nextID = binary.BigEndian.Uint64(val)
		}

		if err := iteratePrefix(txn, proposalPrefix, func(val []byte) error {
			var p types.Proposal
			if err := json.Unmarshal(val, &p); err != nil {
				return fmt.Errorf("failed to decode proposal: %w", err)
			}
			s.proposals[p.ID] = &p

			return nil
		}); err != nil {
			return err
		}

		return iteratePrefix(txn, votePrefix, func(val []byte) error {
			var rec types.VoteRecord
			if err := json.Unmarshal(val, &rec); err != nil {
				return fmt.Errorf("failed to decode vote: %w", err)
			}
			if s.votes[rec.ProposalID] == nil {
				s.votes[rec.ProposalID] = make(map[common.Address]types.VoteRecord)
			}
			s.votes[rec.ProposalID][rec.Voter] = rec

			return nil
		})
	})
}

func iteratePrefix(txn *badger.Txn, prefix []byte, fn func(val []byte) error) error {
	it := txn.NewIterator(badger.DefaultIteratorOptions)
	defer it.Close()

	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		if err := it.Item().Value(fn); err != nil {
			return err
		}
	}

	return nil
}
