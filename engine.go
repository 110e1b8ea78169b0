// Package voting coordinates token weighted governance proposals whose outcome is executed as a
// transaction on an Ethereum-like ledger.
package voting

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"github.com/bjoernek/multi-chain-voting/sdk"
	"github.com/bjoernek/multi-chain-voting/sdk/evm"
	"github.com/bjoernek/multi-chain-voting/store"
	"github.com/bjoernek/multi-chain-voting/types"
)

// blockPending reads the nonce including transactions still in the pool.
const blockPending = "pending"

// TxParams are the fee and gas parameters of transactions sent by the engine.
type TxParams struct {
	ChainID              *big.Int
	GasLimit             *big.Int
	MaxFeePerGas         *big.Int
	MaxPriorityFeePerGas *big.Int
}

// DefaultTxParams targets Sepolia with the gas settings of the governance contract.
func DefaultTxParams() TxParams {
	return TxParams{
		ChainID:              big.NewInt(11155111),
		GasLimit:             big.NewInt(80000),
		MaxFeePerGas:         big.NewInt(156083066522),
		MaxPriorityFeePerGas: big.NewInt(3000000000),
	}
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces the wall clock used for voting windows.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithMetrics records engine activity in m.
func WithMetrics(m *Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithTxParams overrides the transaction parameters.
func WithTxParams(p TxParams) Option {
	return func(e *Engine) {
		e.txParams = p
	}
}

// Engine owns the proposal state machine: Open -> Closed -> Executed.
//
// Vote counting and execution claims are decided by the store under its mutex. The engine never
// holds that mutex across a remote call, so state read before a remote call may be stale
// afterwards.
type Engine struct {
	store    *store.Store
	resolver sdk.AddressResolver
	gateway  *evm.Gateway
	signer   *evm.SigningClient
	builder  *evm.TransactionBuilder
	metrics  *Metrics
	txParams TxParams
	now      func() time.Time

	// sendMu serializes nonce reads and broadcasts of the coordinator account.
	sendMu sync.Mutex
	// executions tracks executions queued by CloseExpired.
	executions sync.WaitGroup
	queueMu    sync.Mutex
	queued     map[uint64]struct{}
}

func NewEngine(
	st *store.Store,
	resolver sdk.AddressResolver,
	gateway *evm.Gateway,
	signing sdk.SigningService,
	opts ...Option,
) *Engine {
	signer := evm.NewSigningClient(signing)
	e := &Engine{
		store:    st,
		resolver: resolver,
		gateway:  gateway,
		signer:   signer,
		builder:  evm.NewTransactionBuilder(signer),
		metrics:  NewMetrics(nil),
		txParams: DefaultTxParams(),
		now:      time.Now,
		queued:   make(map[uint64]struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Submit creates an open proposal and returns its id. The submitter address is resolved on a
// best-effort basis; only a failure to read the block height fails the call.
func (e *Engine) Submit(
	ctx context.Context, caller, title, description, kind string, duration time.Duration,
) (uint64, error) {
	lggr := sdk.LoggerFrom(ctx)

	submitterAddress := ""
	if addr, err := e.resolver.Resolve(ctx, caller); err != nil {
		lggr.Warnf("Could not resolve address of submitter %s: %v", caller, err)
	} else {
		submitterAddress = addr.Hex()
	}

	height, tag, err := e.gateway.ReadBlockNumber(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read block number: %w", err)
	}

	now := e.now()
	p, err := e.store.Create(types.Proposal{
		Title:            title,
		Description:      description,
		ProposalType:     kind,
		Submitter:        caller,
		SubmitterAddress: submitterAddress,
		StartTime:        now,
		EndTime:          now.Add(max(duration, 0)),
		SnapshotBlock:    tag,
		SnapshotHeight:   height,
		IsOpen:           true,
		YesWeight:        new(big.Int),
		NoWeight:         new(big.Int),
	})
	if err != nil {
		return 0, err
	}

	e.metrics.proposalsSubmitted.Inc()
	lggr.Infof("Proposal %d submitted by %s, snapshot block %s, voting ends %s", p.ID, caller, tag, p.EndTime.Format(time.RFC3339))

	return p.ID, nil
}

// Vote counts the caller's vote with the caller's token balance at the proposal's snapshot
// block. Each resolved address votes at most once per proposal.
//
// The vote record is inserted before the balance is read and the weight is added after the
// read. An Execute that claims the proposal in between builds its summary without this vote's
// weight, while the weight still lands on the stored tally afterwards. The on-chain summary can
// therefore under-count votes cast right before execution.
func (e *Engine) Vote(ctx context.Context, caller string, id uint64, choice bool) error {
	lggr := sdk.LoggerFrom(ctx)

	p, err := e.store.Get(id)
	if err != nil {
		return e.rejectVote(err)
	}
	if !p.AcceptsVotesAt(e.now()) {
		return e.rejectVote(ErrProposalClosed)
	}

	voter, err := e.resolver.Resolve(ctx, caller)
	if err != nil {
		return e.rejectVote(NewAddressResolutionError(caller, err))
	}

	// The proposal may have closed or been voted on while the address was resolved, so the store
	// checks again while inserting.
	if err = e.store.InsertVote(types.VoteRecord{
		ProposalID: id,
		Voter:      voter,
		Choice:     choice,
		CastAt:     e.now(),
	}, e.now()); err != nil {
		return e.rejectVote(err)
	}

	balance, err := e.gateway.BalanceOf(ctx, voter, p.SnapshotBlock)
	if err != nil {
		if rbErr := e.store.RemoveVote(id, voter); rbErr != nil {
			lggr.Errorf("Failed to roll back vote of %s on proposal %d: %v", voter, id, rbErr)
		}

		return e.rejectVote(fmt.Errorf("failed to read balance of %s at block %s: %w", voter.Hex(), p.SnapshotBlock, err))
	}

	if _, err = e.store.AddWeight(id, voter, balance); err != nil {
		return e.rejectVote(err)
	}

	e.metrics.votesCast.WithLabelValues(choiceLabel(choice)).Inc()
	lggr.Infof("Counted %s vote of %s on proposal %d with weight %s", choiceLabel(choice), voter.Hex(), id, balance)

	return nil
}

// Execute claims the proposal for execution and submits its outcome to the ledger. The claim
// happens before any remote call, so concurrent calls for one id submit at most one transaction.
// A failure after the claim leaves the proposal executed without a transaction hash.
func (e *Engine) Execute(ctx context.Context, id uint64) (string, error) {
	lggr := sdk.LoggerFrom(ctx)
	opID := "execute-" + uuid.New().String()[:8]

	p, err := e.store.ClaimExecution(id)
	if err != nil {
		e.metrics.executions.WithLabelValues(reasonLabel(err)).Inc()

		return "", err
	}

	summary := Summarize(p)
	lggr.Infof("[%s] Executing proposal %d: %s", opID, id, summary)

	txHash, err := e.sendTransaction(ctx, evm.ContractCall{
		Function: evm.MethodExecuteProposal,
		Args:     []any{new(big.Int).SetUint64(p.ID), summary},
	})
	if err != nil {
		e.metrics.executions.WithLabelValues("failed").Inc()
		lggr.Errorf("[%s] Proposal %d is marked executed without a transaction and needs reconciliation: %v", opID, id, err)

		return "", NewExecutionFailedError(id, err)
	}

	if err = e.store.SetTxHash(id, txHash); err != nil {
		lggr.Errorf("[%s] Transaction %s of proposal %d was submitted but not recorded: %v", opID, txHash, id, err)

		return txHash, fmt.Errorf("failed to record transaction %s: %w", txHash, err)
	}

	e.metrics.executions.WithLabelValues("submitted").Inc()
	lggr.Infof("[%s] Proposal %d executed in transaction %s", opID, id, txHash)

	return txHash, nil
}

// CloseExpired closes every open proposal whose voting window has elapsed, then queues one
// execution for every closed proposal that has not been claimed yet and is not already queued.
// This includes proposals closed by an earlier sweep whose execution never started, e.g.
// before a restart. It returns the queued ids in ascending order.
//
// Queued executions run independently of each other and of ctx cancellation; Wait blocks
// until they are done.
func (e *Engine) CloseExpired(ctx context.Context) ([]uint64, error) {
	closed, err := e.store.CloseExpired(e.now())
	if err != nil {
		return nil, err
	}
	e.metrics.proposalsClosed.Add(float64(len(closed)))

	lggr := sdk.LoggerFrom(ctx)
	execCtx := context.WithoutCancel(ctx)
	var ids []uint64
	for _, id := range e.store.PendingExecution() {
		if !e.enqueue(id) {
			continue
		}
		ids = append(ids, id)

		e.executions.Add(1)
		go func() {
			defer e.executions.Done()
			defer e.dequeue(id)

			_, err := e.Execute(execCtx, id)
			switch {
			case errors.Is(err, ErrProposalAlreadyExecuted):
				lggr.Debugf("Expired proposal %d was executed by another caller", id)
			case err != nil:
				lggr.Errorf("Execution of expired proposal %d failed: %v", id, err)
			}
		}()
	}

	return ids, nil
}

// enqueue reports whether id was not queued and marks it queued.
func (e *Engine) enqueue(id uint64) bool {
	e.queueMu.Lock()
	defer e.queueMu.Unlock()

	if _, ok := e.queued[id]; ok {
		return false
	}
	e.queued[id] = struct{}{}

	return true
}

func (e *Engine) dequeue(id uint64) {
	e.queueMu.Lock()
	defer e.queueMu.Unlock()

	delete(e.queued, id)
}

// Run sweeps expired proposals once right away and then every interval until ctx is done.
func (e *Engine) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	e.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.sweep(ctx)
		}
	}
}

func (e *Engine) sweep(ctx context.Context) {
	lggr := sdk.LoggerFrom(ctx)

	ids, err := e.CloseExpired(ctx)
	if err != nil {
		lggr.Errorf("Failed to close expired proposals: %v", err)
	} else if len(ids) > 0 {
		lggr.Infof("Queued execution of closed proposals %v", ids)
	}
}

// Wait blocks until all executions queued by CloseExpired have finished.
func (e *Engine) Wait() {
	e.executions.Wait()
}

// ClearClosedProposals removes every proposal that is not open and returns how many were
// removed.
func (e *Engine) ClearClosedProposals() (int, error) {
	n, err := e.store.ClearClosed()
	if err != nil {
		return 0, err
	}
	e.metrics.proposalsCleared.Add(float64(n))

	return n, nil
}

// ClearProposalByID removes one proposal regardless of its state.
func (e *Engine) ClearProposalByID(id uint64) error {
	if err := e.store.Remove(id); err != nil {
		return err
	}
	e.metrics.proposalsCleared.Inc()

	return nil
}

// GetProposals returns all proposals ordered by id.
func (e *Engine) GetProposals() []types.Proposal {
	return e.store.List()
}

func (e *Engine) GetProposal(id uint64) (types.Proposal, error) {
	return e.store.Get(id)
}

func (e *Engine) GetVotes(id uint64) ([]types.VoteRecord, error) {
	return e.store.Votes(id)
}

// GetEthAddress returns the checksummed ledger address of the coordinator's signing key.
func (e *Engine) GetEthAddress(ctx context.Context) (string, error) {
	addr, err := e.signer.DeriveAddress(ctx)
	if err != nil {
		return "", err
	}

	return evm.FormatAddress(addr), nil
}

// GetMyEthBalance returns the caller's current token balance as a decimal string.
func (e *Engine) GetMyEthBalance(ctx context.Context, caller string) (string, error) {
	addr, err := e.resolver.Resolve(ctx, caller)
	if err != nil {
		return "", NewAddressResolutionError(caller, err)
	}

	balance, err := e.gateway.BalanceOf(ctx, addr, evm.BlockLatest)
	if err != nil {
		return "", err
	}

	return balance.String(), nil
}

// Transfer sends amount tokens from the coordinator address to the given address and returns
// the transaction hash.
func (e *Engine) Transfer(ctx context.Context, to string, amount *big.Int) (string, error) {
	if amount == nil || amount.Sign() < 0 {
		return "", NewInvalidAmountError(fmt.Sprint(amount))
	}

	recipient, err := evm.ParseAddress(to)
	if err != nil {
		return "", err
	}

	txHash, err := e.sendTransaction(ctx, evm.ContractCall{
		Function: evm.MethodTransfer,
		Args:     []any{recipient, amount},
	})
	if err != nil {
		return "", err
	}
	sdk.LoggerFrom(ctx).Infof("Transferred %s tokens to %s in transaction %s", amount, recipient.Hex(), txHash)

	return txHash, nil
}

// sendTransaction signs a call to the governance contract with the coordinator key and
// broadcasts it.
func (e *Engine) sendTransaction(ctx context.Context, call evm.ContractCall) (string, error) {
	data, err := e.gateway.Calldata(call)
	if err != nil {
		return "", err
	}

	from, err := e.signer.DeriveAddress(ctx)
	if err != nil {
		return "", err
	}

	e.sendMu.Lock()
	defer e.sendMu.Unlock()

	nonce, err := e.gateway.ReadTransactionCount(ctx, from, blockPending)
	if err != nil {
		return "", fmt.Errorf("failed to read nonce of %s: %w", from.Hex(), err)
	}

	rawTx, err := e.builder.BuildAndSign(ctx, e.signRequest(e.gateway.ContractAddress(), nonce, data))
	if err != nil {
		return "", fmt.Errorf("failed to sign transaction: %w", err)
	}

	return e.gateway.Submit(ctx, rawTx)
}

func (e *Engine) signRequest(to common.Address, nonce uint64, data []byte) types.SignRequest {
	return types.SignRequest{
		ChainID:              e.txParams.ChainID,
		To:                   to,
		Gas:                  e.txParams.GasLimit,
		MaxFeePerGas:         e.txParams.MaxFeePerGas,
		MaxPriorityFeePerGas: e.txParams.MaxPriorityFeePerGas,
		Value:                new(big.Int),
		Nonce:                new(big.Int).SetUint64(nonce),
		Data:                 data,
	}
}

func (e *Engine) rejectVote(err error) error {
	e.metrics.votesRejected.WithLabelValues(reasonLabel(err)).Inc()

	return err
}

func reasonLabel(err error) string {
	var resolutionErr *AddressResolutionError

	switch {
	case errors.Is(err, ErrProposalNotFound):
		return "not_found"
	case errors.Is(err, ErrProposalClosed):
		return "closed"
	case errors.Is(err, ErrAlreadyVoted):
		return "already_voted"
	case errors.Is(err, ErrProposalAlreadyExecuted):
		return "already_executed"
	case errors.As(err, &resolutionErr):
		return "unresolved"
	default:
		return "error"
	}
}
