package voting

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/bjoernek/multi-chain-voting/internal/testutils/evmsim"
	sdkerrors "github.com/bjoernek/multi-chain-voting/sdk/errors"
	"github.com/bjoernek/multi-chain-voting/sdk/evm"
	"github.com/bjoernek/multi-chain-voting/sdk/mocks"
	"github.com/bjoernek/multi-chain-voting/store"
	"github.com/bjoernek/multi-chain-voting/types"
)

func TestEngine_Submit(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 1)

	first := f.submit(t, time.Hour)
	second := f.submit(t, time.Hour)
	assert.Equal(t, uint64(1), first)
	assert.Equal(t, uint64(2), second)

	p, err := f.engine.GetProposal(first)
	require.NoError(t, err)
	assert.Equal(t, "Raise the cap", p.Title)
	assert.Equal(t, "parameter", p.ProposalType)
	assert.Equal(t, "alice", p.Submitter)
	assert.Equal(t, aliceAddr.Hex(), p.SubmitterAddress)
	assert.Equal(t, "0x64", p.SnapshotBlock)
	assert.Equal(t, uint64(evmsim.DefaultHeight), p.SnapshotHeight)
	assert.Equal(t, f.clock.Now(), p.StartTime)
	assert.Equal(t, f.clock.Now().Add(time.Hour), p.EndTime)
	assert.Equal(t, types.StateOpen, p.State())
	assert.Equal(t, 0, p.TotalWeight().Sign())

	assert.InDelta(t, 2, testutil.ToFloat64(f.engine.metrics.proposalsSubmitted), 0)
}

func TestEngine_Submit_UnresolvedSubmitter(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 1)

	id, err := f.engine.Submit(f.ctx, "mallory", "title", "description", "text", time.Hour)
	require.NoError(t, err)

	p, err := f.engine.GetProposal(id)
	require.NoError(t, err)
	assert.Equal(t, "mallory", p.Submitter)
	assert.Empty(t, p.SubmitterAddress)
}

func TestEngine_Submit_NegativeDuration(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 1)

	id := f.submit(t, -time.Minute)

	p, err := f.engine.GetProposal(id)
	require.NoError(t, err)
	assert.Equal(t, p.StartTime, p.EndTime)
}

func TestEngine_Submit_BlockNumberFailure(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 1)
	f.primary().BlockErr = "header not found"

	_, err := f.engine.Submit(f.ctx, "alice", "title", "description", "text", time.Hour)
	require.Error(t, err)

	var rpcErr *sdkerrors.RPCError
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, "eth_blockNumber", rpcErr.Method)
	assert.Contains(t, err.Error(), "failed to read block number")
	assert.Empty(t, f.engine.GetProposals())
}

func TestEngine_Vote(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 1)
	f.setBalance(aliceAddr, 100)
	f.setBalance(bobAddr, 40)

	id := f.submit(t, time.Hour)

	require.NoError(t, f.engine.Vote(f.ctx, "alice", id, true))

	proposals := f.engine.GetProposals()
	require.Len(t, proposals, 1)
	assert.Equal(t, big.NewInt(100), proposals[0].YesWeight)
	assert.Equal(t, 0, proposals[0].NoWeight.Sign())

	require.NoError(t, f.engine.Vote(f.ctx, "bob", id, false))

	p, err := f.engine.GetProposal(id)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(100), p.YesWeight)
	assert.Equal(t, big.NewInt(40), p.NoWeight)

	votes, err := f.engine.GetVotes(id)
	require.NoError(t, err)
	require.Len(t, votes, 2)
	for _, v := range votes {
		switch v.Voter {
		case aliceAddr:
			assert.True(t, v.Choice)
			assert.Equal(t, big.NewInt(100), v.Weight)
		case bobAddr:
			assert.False(t, v.Choice)
			assert.Equal(t, big.NewInt(40), v.Weight)
		default:
			t.Fatalf("unexpected voter %s", v.Voter.Hex())
		}
	}

	assert.InDelta(t, 1, testutil.ToFloat64(f.engine.metrics.votesCast.WithLabelValues("yes")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(f.engine.metrics.votesCast.WithLabelValues("no")), 0)
}

func TestEngine_Vote_UsesSnapshotBalance(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 1)
	f.setBalance(aliceAddr, 100)

	id := f.submit(t, time.Hour)

	// Funds moved after the snapshot must not change the weight.
	f.primary().Mine(5)
	f.setBalance(aliceAddr, 500)

	require.NoError(t, f.engine.Vote(f.ctx, "alice", id, true))

	p, err := f.engine.GetProposal(id)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(100), p.YesWeight)
	assert.Equal(t, []string{"0x64"}, f.primary().CallTags())

	balance, err := f.engine.GetMyEthBalance(f.ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "500", balance)
}

func TestEngine_Vote_Rejected(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		setup      func(t *testing.T, f *fixture) uint64
		caller     string
		wantErr    error
		wantReason string
	}{
		{
			name:       "unknown proposal",
			setup:      func(*testing.T, *fixture) uint64 { return 42 },
			caller:     "alice",
			wantErr:    ErrProposalNotFound,
			wantReason: "not_found",
		},
		{
			name: "zero duration",
			setup: func(t *testing.T, f *fixture) uint64 {
				return f.submit(t, 0)
			},
			caller:     "alice",
			wantErr:    ErrProposalClosed,
			wantReason: "closed",
		},
		{
			name: "window elapsed before the sweep",
			setup: func(t *testing.T, f *fixture) uint64 {
				id := f.submit(t, time.Hour)
				f.clock.Advance(time.Hour)

				return id
			},
			caller:     "alice",
			wantErr:    ErrProposalClosed,
			wantReason: "closed",
		},
		{
			name: "executed",
			setup: func(t *testing.T, f *fixture) uint64 {
				id := f.submit(t, time.Hour)
				_, err := f.engine.Execute(f.ctx, id)
				require.NoError(t, err)

				return id
			},
			caller:     "alice",
			wantErr:    ErrProposalClosed,
			wantReason: "closed",
		},
		{
			name: "second vote of the same identity",
			setup: func(t *testing.T, f *fixture) uint64 {
				id := f.submit(t, time.Hour)
				require.NoError(t, f.engine.Vote(f.ctx, "alice", id, true))

				return id
			},
			caller:     "alice",
			wantErr:    ErrAlreadyVoted,
			wantReason: "already_voted",
		},
		{
			name: "second identity linked to the same address",
			setup: func(t *testing.T, f *fixture) uint64 {
				id := f.submit(t, time.Hour)
				require.NoError(t, f.engine.Vote(f.ctx, "bob", id, true))

				return id
			},
			caller:     "carol",
			wantErr:    ErrAlreadyVoted,
			wantReason: "already_voted",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t, 1)
			f.setBalance(aliceAddr, 10)
			f.setBalance(bobAddr, 10)
			id := tt.setup(t, f)

			before, _ := f.engine.GetProposal(id)

			err := f.engine.Vote(f.ctx, tt.caller, id, false)
			require.ErrorIs(t, err, tt.wantErr)

			after, _ := f.engine.GetProposal(id)
			assert.Equal(t, before.TotalWeight().String(), after.TotalWeight().String())
			assert.InDelta(t, 1, testutil.ToFloat64(f.engine.metrics.votesRejected.WithLabelValues(tt.wantReason)), 0)
		})
	}
}

func TestEngine_Vote_UnresolvedIdentity(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 1)
	id := f.submit(t, time.Hour)

	err := f.engine.Vote(f.ctx, "mallory", id, true)

	var resolutionErr *AddressResolutionError
	require.ErrorAs(t, err, &resolutionErr)
	assert.Equal(t, "mallory", resolutionErr.Identity)

	votes, err := f.engine.GetVotes(id)
	require.NoError(t, err)
	assert.Empty(t, votes)
	assert.Empty(t, f.primary().CallTags())
}

func TestEngine_Vote_ResolverFailure(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 1)
	id := f.submit(t, time.Hour)

	directoryErr := errors.New("directory offline")
	resolver := mocks.NewAddressResolver(t)
	resolver.EXPECT().Resolve(mock.Anything, "alice").Return(common.Address{}, directoryErr).Once()

	engine := NewEngine(f.store, resolver, f.gateway, f.signer, WithClock(f.clock.Now))
	err := engine.Vote(f.ctx, "alice", id, true)

	var resolutionErr *AddressResolutionError
	require.ErrorAs(t, err, &resolutionErr)
	require.ErrorIs(t, err, directoryErr)
	assert.Equal(t, "alice", resolutionErr.Identity)

	votes, err := engine.GetVotes(id)
	require.NoError(t, err)
	assert.Empty(t, votes)
}

func TestEngine_Vote_BalanceFailureRollsBack(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 1)
	f.setBalance(aliceAddr, 100)
	id := f.submit(t, time.Hour)

	f.primary().CallErr = "missing trie node"

	err := f.engine.Vote(f.ctx, "alice", id, true)
	require.Error(t, err)

	var rpcErr *sdkerrors.RPCError
	require.ErrorAs(t, err, &rpcErr)
	assert.Contains(t, err.Error(), "failed to read balance of "+aliceAddr.Hex()+" at block 0x64")

	votes, err := f.engine.GetVotes(id)
	require.NoError(t, err)
	assert.Empty(t, votes)

	f.primary().CallErr = ""
	require.NoError(t, f.engine.Vote(f.ctx, "alice", id, true))

	p, err := f.engine.GetProposal(id)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(100), p.YesWeight)
}

func TestEngine_Vote_Concurrent(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 1)
	f.setBalance(aliceAddr, 7)
	id := f.submit(t, time.Hour)

	const callers = 16

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		rejected  int
	)
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := f.engine.Vote(f.ctx, "alice", id, true)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, ErrAlreadyVoted):
				rejected++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, callers-1, rejected)

	p, err := f.engine.GetProposal(id)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(7), p.YesWeight)
}

func TestEngine_Execute(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 2)
	f.setBalance(aliceAddr, 75)
	f.setBalance(bobAddr, 25)
	id := f.submit(t, time.Hour)
	require.NoError(t, f.engine.Vote(f.ctx, "alice", id, true))
	require.NoError(t, f.engine.Vote(f.ctx, "bob", id, false))

	txHash, err := f.engine.Execute(f.ctx, id)
	require.NoError(t, err)

	for _, l := range f.ledgers {
		pool := l.Pool()
		require.Len(t, pool, 1)
		assert.Equal(t, pool[0].Hash().Hex(), txHash)
	}

	tx := f.primary().Pool()[0]
	sender, err := gethtypes.Sender(gethtypes.LatestSignerForChainID(tx.ChainId()), tx)
	require.NoError(t, err)
	assert.Equal(t, f.signer.Address(), sender)
	assert.Equal(t, big.NewInt(evmsim.SimulatedChainID), tx.ChainId())
	assert.Equal(t, uint64(0), tx.Nonce())
	assert.Equal(t, uint64(80000), tx.Gas())
	assert.Equal(t, contractAddr, *tx.To())
	assert.Equal(t, 0, tx.Value().Sign())

	gotID, summary := decodeExecuteProposal(t, tx.Data())
	assert.Equal(t, new(big.Int).SetUint64(id), gotID)
	assert.Equal(t, `proposal 1 "Raise the cap": 75% yes (yes 75, no 25)`, summary)

	p, err := f.engine.GetProposal(id)
	require.NoError(t, err)
	assert.Equal(t, types.StateExecuted, p.State())
	assert.False(t, p.IsOpen)
	assert.Equal(t, txHash, p.TxHash)

	assert.InDelta(t, 1, testutil.ToFloat64(f.engine.metrics.executions.WithLabelValues("submitted")), 0)
}

func TestEngine_Execute_ZeroWeight(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 1)
	id := f.submit(t, time.Hour)

	txHash, err := f.engine.Execute(f.ctx, id)
	require.NoError(t, err)
	require.NotEmpty(t, txHash)

	pool := f.primary().Pool()
	require.Len(t, pool, 1)
	_, summary := decodeExecuteProposal(t, pool[0].Data())
	assert.Contains(t, summary, ": 0% yes")
}

func TestEngine_Execute_AtMostOnce(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 1)
	id := f.submit(t, time.Hour)

	_, err := f.engine.Execute(f.ctx, id)
	require.NoError(t, err)
	signCalls := f.signer.SignCalls()

	_, err = f.engine.Execute(f.ctx, id)
	require.ErrorIs(t, err, ErrProposalAlreadyExecuted)

	_, err = f.engine.Execute(f.ctx, 99)
	require.ErrorIs(t, err, ErrProposalNotFound)

	assert.Len(t, f.primary().Pool(), 1)
	assert.Equal(t, signCalls, f.signer.SignCalls())
	assert.InDelta(t, 1, testutil.ToFloat64(f.engine.metrics.executions.WithLabelValues("already_executed")), 0)
}

func TestEngine_Execute_Concurrent(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 1)
	id := f.submit(t, time.Hour)

	const callers = 8

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		hashes []string
		errs   []error
	)
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			txHash, err := f.engine.Execute(f.ctx, id)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)

				return
			}
			hashes = append(hashes, txHash)
		}()
	}
	wg.Wait()

	require.Len(t, hashes, 1)
	require.Len(t, errs, callers-1)
	for _, err := range errs {
		require.ErrorIs(t, err, ErrProposalAlreadyExecuted)
	}

	pool := f.primary().Pool()
	require.Len(t, pool, 1)
	assert.Equal(t, pool[0].Hash().Hex(), hashes[0])
	assert.Equal(t, int64(1), f.signer.SignCalls())
}

func TestEngine_Execute_InconsistentBroadcast(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 2)
	f.ledgers[1].SendErr = "internal error"
	id := f.submit(t, time.Hour)

	txHash, err := f.engine.Execute(f.ctx, id)
	require.Error(t, err)
	assert.Empty(t, txHash)

	var execErr *ExecutionFailedError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, id, execErr.ProposalID)

	var inconsistent *sdkerrors.InconsistentBroadcastError
	require.ErrorAs(t, err, &inconsistent)
	require.Len(t, inconsistent.Results, 2)

	p, err := f.engine.GetProposal(id)
	require.NoError(t, err)
	assert.True(t, p.IsExecuted)
	assert.False(t, p.IsOpen)
	assert.Empty(t, p.TxHash)

	_, err = f.engine.Execute(f.ctx, id)
	require.ErrorIs(t, err, ErrProposalAlreadyExecuted)
	assert.InDelta(t, 1, testutil.ToFloat64(f.engine.metrics.executions.WithLabelValues("failed")), 0)
}

func TestEngine_Execute_Rejected(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 1)
	f.primary().SendErr = "insufficient funds for gas * price + value"
	id := f.submit(t, time.Hour)

	_, err := f.engine.Execute(f.ctx, id)

	var rejected *sdkerrors.BroadcastRejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, types.SendStatusInsufficientFunds, rejected.Result.Status)
}

func TestEngine_Execute_SigningFailure(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 1)
	f.signer.SignErr = errors.New("key is disabled")
	id := f.submit(t, time.Hour)

	_, err := f.engine.Execute(f.ctx, id)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "key is disabled")

	p, err := f.engine.GetProposal(id)
	require.NoError(t, err)
	assert.True(t, p.IsExecuted)
	assert.Empty(t, p.TxHash)
	assert.Empty(t, f.primary().Pool())
}

func TestEngine_CloseExpired(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 1)
	first := f.submit(t, time.Hour)
	second := f.submit(t, time.Hour)
	third := f.submit(t, 2*time.Hour)

	ids, err := f.engine.CloseExpired(f.ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)

	f.clock.Advance(90 * time.Minute)

	ids, err = f.engine.CloseExpired(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, []uint64{first, second}, ids)
	f.engine.Wait()

	for _, id := range []uint64{first, second} {
		p, err := f.engine.GetProposal(id)
		require.NoError(t, err)
		assert.Equal(t, types.StateExecuted, p.State())
		assert.NotEmpty(t, p.TxHash)
	}

	open, err := f.engine.GetProposal(third)
	require.NoError(t, err)
	assert.Equal(t, types.StateOpen, open.State())

	pool := f.primary().Pool()
	require.Len(t, pool, 2)
	assert.ElementsMatch(t, []uint64{0, 1}, []uint64{pool[0].Nonce(), pool[1].Nonce()})
	assert.InDelta(t, 2, testutil.ToFloat64(f.engine.metrics.proposalsClosed), 0)

	// The sweep never closes a proposal twice.
	ids, err = f.engine.CloseExpired(f.ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestEngine_CloseExpired_FailuresAreIndependent(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 1)
	f.primary().SendErr = "nonce too low: next nonce 9, tx nonce 0"
	first := f.submit(t, time.Minute)
	second := f.submit(t, time.Minute)
	f.clock.Advance(time.Minute)

	ids, err := f.engine.CloseExpired(f.ctx)
	require.NoError(t, err)
	require.Equal(t, []uint64{first, second}, ids)
	f.engine.Wait()

	for _, id := range ids {
		p, err := f.engine.GetProposal(id)
		require.NoError(t, err)
		assert.True(t, p.IsExecuted)
		assert.Empty(t, p.TxHash)
	}
	assert.Equal(t, int64(2), f.signer.SignCalls())
	assert.InDelta(t, 2, testutil.ToFloat64(f.engine.metrics.executions.WithLabelValues("failed")), 0)
}

func TestEngine_CloseExpired_SurvivesCancellation(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 1)
	id := f.submit(t, time.Minute)
	f.clock.Advance(time.Minute)

	ctx, cancel := context.WithCancel(f.ctx)
	ids, err := f.engine.CloseExpired(ctx)
	cancel()
	require.NoError(t, err)
	require.Equal(t, []uint64{id}, ids)
	f.engine.Wait()

	p, err := f.engine.GetProposal(id)
	require.NoError(t, err)
	assert.NotEmpty(t, p.TxHash)
}

func TestEngine_CloseExpired_ResumesAfterRestart(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 1)
	dir := t.TempDir()
	params := DefaultTxParams()
	params.ChainID = big.NewInt(evmsim.SimulatedChainID)
	resolver := StaticResolver{"alice": aliceAddr}

	before, err := store.Open(store.WithDataDir(dir))
	require.NoError(t, err)
	engine := NewEngine(before, resolver, f.gateway, f.signer, WithClock(f.clock.Now), WithTxParams(params))
	id, err := engine.Submit(f.ctx, "alice", "Raise the cap", "", "parameter", time.Minute)
	require.NoError(t, err)
	f.clock.Advance(time.Minute)

	// The process stops after the sweep closed the proposal but before its execution started.
	closed, err := before.CloseExpired(f.clock.Now())
	require.NoError(t, err)
	require.Equal(t, []uint64{id}, closed)
	require.NoError(t, before.Close())

	after, err := store.Open(store.WithDataDir(dir))
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, after.Close()) })
	engine = NewEngine(after, resolver, f.gateway, f.signer, WithClock(f.clock.Now), WithTxParams(params))

	p, err := engine.GetProposal(id)
	require.NoError(t, err)
	require.Equal(t, types.StateClosed, p.State())

	ids, err := engine.CloseExpired(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, []uint64{id}, ids)
	engine.Wait()

	p, err = engine.GetProposal(id)
	require.NoError(t, err)
	assert.Equal(t, types.StateExecuted, p.State())
	assert.NotEmpty(t, p.TxHash)
	assert.Len(t, f.primary().Pool(), 1)

	ids, err = engine.CloseExpired(f.ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestEngine_Run(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 1)
	id := f.submit(t, time.Minute)

	ctx, cancel := context.WithCancel(f.ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		f.engine.Run(ctx, 10*time.Millisecond)
	}()

	f.clock.Advance(time.Minute)

	require.Eventually(t, func() bool {
		p, err := f.engine.GetProposal(id)

		return err == nil && p.TxHash != ""
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	<-done
	f.engine.Wait()
	assert.Len(t, f.primary().Pool(), 1)
}

func TestEngine_Run_StopsOnCancel(t *testing.T) {
	// Not parallel: goleak inspects every goroutine of the process.
	f := newFixture(t, 1)
	ignore := goleak.IgnoreCurrent()

	ctx, cancel := context.WithCancel(f.ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		f.engine.Run(ctx, time.Millisecond)
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()
	<-done

	goleak.VerifyNone(t, ignore)
}

func TestEngine_Clear(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 1)
	open := f.submit(t, time.Hour)
	closed := f.submit(t, 0)
	executed := f.submit(t, time.Hour)
	_, err := f.engine.Execute(f.ctx, executed)
	require.NoError(t, err)

	_, err = f.engine.CloseExpired(f.ctx)
	require.NoError(t, err)
	f.engine.Wait()

	n, err := f.engine.ClearClosedProposals()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	proposals := f.engine.GetProposals()
	require.Len(t, proposals, 1)
	assert.Equal(t, open, proposals[0].ID)

	_, err = f.engine.GetProposal(closed)
	require.ErrorIs(t, err, ErrProposalNotFound)

	require.NoError(t, f.engine.ClearProposalByID(open))
	assert.Empty(t, f.engine.GetProposals())
	require.ErrorIs(t, f.engine.ClearProposalByID(open), ErrProposalNotFound)

	// Ids are never reused after removal.
	assert.Equal(t, uint64(4), f.submit(t, time.Hour))
	assert.InDelta(t, 3, testutil.ToFloat64(f.engine.metrics.proposalsCleared), 0)
}

func TestEngine_GetEthAddress(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 1)

	addr, err := f.engine.GetEthAddress(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, f.signer.Address().Hex(), addr)

	f.signer.PublicKeyErr = errors.New("unavailable")
	_, err = f.engine.GetEthAddress(f.ctx)
	require.ErrorContains(t, err, "unavailable")
}

func TestEngine_GetMyEthBalance(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 1)
	f.setBalance(bobAddr, 1234)

	balance, err := f.engine.GetMyEthBalance(f.ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, "1234", balance)

	balance, err = f.engine.GetMyEthBalance(f.ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "0", balance)

	_, err = f.engine.GetMyEthBalance(f.ctx, "mallory")
	var resolutionErr *AddressResolutionError
	require.ErrorAs(t, err, &resolutionErr)
	assert.Equal(t, []string{evm.BlockLatest, evm.BlockLatest}, f.primary().CallTags())
}

func TestEngine_Transfer(t *testing.T) {
	t.Parallel()

	recipient := common.HexToAddress("0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359")

	tests := []struct {
		name    string
		to      string
		amount  *big.Int
		wantErr string
	}{
		{
			name:   "success",
			to:     recipient.Hex(),
			amount: big.NewInt(250),
		},
		{
			name:    "negative amount",
			to:      recipient.Hex(),
			amount:  big.NewInt(-1),
			wantErr: "invalid transfer amount: -1",
		},
		{
			name:    "missing amount",
			to:      recipient.Hex(),
			wantErr: "invalid transfer amount: <nil>",
		},
		{
			name:    "invalid recipient",
			to:      "0x1234",
			amount:  big.NewInt(1),
			wantErr: evm.ErrInvalidAddress.Error(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t, 1)

			txHash, err := f.engine.Transfer(f.ctx, tt.to, tt.amount)
			if tt.wantErr != "" {
				require.ErrorContains(t, err, tt.wantErr)
				assert.Empty(t, f.primary().Pool())

				return
			}
			require.NoError(t, err)

			pool := f.primary().Pool()
			require.Len(t, pool, 1)
			assert.Equal(t, pool[0].Hash().Hex(), txHash)

			contract, err := evm.DefaultContract()
			require.NoError(t, err)
			method, err := contract.Method(evm.MethodTransfer)
			require.NoError(t, err)
			data := pool[0].Data()
			require.Equal(t, method.ID, data[:4])

			args, err := method.Inputs.Unpack(data[4:])
			require.NoError(t, err)
			require.Len(t, args, 2)
			assert.Equal(t, recipient, args[0])
			assert.Equal(t, "250", args[1].(*big.Int).String())
		})
	}
}

func TestEngine_NoncesFollowPool(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 1)
	f.primary().SetNonce(f.signer.Address(), 5)

	_, err := f.engine.Transfer(f.ctx, bobAddr.Hex(), big.NewInt(1))
	require.NoError(t, err)
	_, err = f.engine.Transfer(f.ctx, bobAddr.Hex(), big.NewInt(1))
	require.NoError(t, err)

	pool := f.primary().Pool()
	require.Len(t, pool, 2)
	assert.Equal(t, uint64(5), pool[0].Nonce())
	assert.Equal(t, uint64(6), pool[1].Nonce())
}
