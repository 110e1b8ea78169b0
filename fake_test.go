package voting

import (
	"context"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/bjoernek/multi-chain-voting/internal/testutils"
	"github.com/bjoernek/multi-chain-voting/internal/testutils/evmsim"
	"github.com/bjoernek/multi-chain-voting/sdk"
	"github.com/bjoernek/multi-chain-voting/sdk/evm"
	"github.com/bjoernek/multi-chain-voting/sdk/evm/aggregator"
	"github.com/bjoernek/multi-chain-voting/store"
)

var (
	aliceAddr    = common.HexToAddress("0x00000000000000000000000000000000000A11CE")
	bobAddr      = common.HexToAddress("0x0000000000000000000000000000000000000B0B")
	contractAddr = common.HexToAddress("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")
)

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
}

// fixture wires an Engine to simulated ledgers served over HTTP.
type fixture struct {
	ctx      context.Context
	engine   *Engine
	gateway  *evm.Gateway
	ledgers  []*evmsim.Ledger
	signer   *testutils.ECDSASigner
	clock    *fakeClock
	store    *store.Store
	registry *prometheus.Registry
}

// newFixture starts n ledgers; the first one serves reads. alice and bob resolve to fixed
// addresses, carol shares bob's address and mallory is unknown.
func newFixture(t *testing.T, n int) *fixture {
	t.Helper()

	ctx := sdk.ContextWithLogger(context.Background(), zaptest.NewLogger(t).Sugar())

	ledgers := make([]*evmsim.Ledger, 0, n)
	providers := make([]aggregator.Provider, 0, n)
	for range n {
		ledger := evmsim.NewLedger()
		ledgers = append(ledgers, ledger)
		providers = append(providers, aggregator.Provider{URL: ledger.Serve(t)})
	}

	agg, err := aggregator.New(ctx, providers)
	require.NoError(t, err)
	t.Cleanup(agg.Close)

	st, err := store.Open()
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, st.Close()) })

	resolver := StaticResolver{
		"alice": aliceAddr,
		"bob":   bobAddr,
		"carol": bobAddr,
	}

	contract, err := evm.DefaultContract()
	require.NoError(t, err)

	params := DefaultTxParams()
	params.ChainID = big.NewInt(evmsim.SimulatedChainID)

	f := &fixture{
		ctx:      ctx,
		ledgers:  ledgers,
		signer:   testutils.NewECDSASigner(),
		clock:    newFakeClock(),
		store:    st,
		registry: prometheus.NewRegistry(),
	}
	f.gateway = evm.NewGateway(agg, contract, contractAddr)
	f.engine = NewEngine(st, resolver, f.gateway, f.signer,
		WithClock(f.clock.Now),
		WithTxParams(params),
		WithMetrics(NewMetrics(f.registry)),
	)

	return f
}

// primary is the ledger serving reads.
func (f *fixture) primary() *evmsim.Ledger {
	return f.ledgers[0]
}

// setBalance sets the balance of account on every ledger from the current height on.
func (f *fixture) setBalance(account common.Address, balance int64) {
	for _, l := range f.ledgers {
		l.SetBalance(account, l.Height(), big.NewInt(balance))
	}
}

func (f *fixture) submit(t *testing.T, duration time.Duration) uint64 {
	t.Helper()

	id, err := f.engine.Submit(f.ctx, "alice", "Raise the cap", "Raise the treasury cap", "parameter", duration)
	require.NoError(t, err)

	return id
}

// decodeExecuteProposal unpacks the arguments of an executeProposal calldata.
func decodeExecuteProposal(t *testing.T, data []byte) (*big.Int, string) {
	t.Helper()

	contract, err := evm.DefaultContract()
	require.NoError(t, err)
	method, err := contract.Method(evm.MethodExecuteProposal)
	require.NoError(t, err)
	require.Equal(t, method.ID, data[:4])

	args, err := method.Inputs.Unpack(data[4:])
	require.NoError(t, err)
	require.Len(t, args, 2)

	id, ok := args[0].(*big.Int)
	require.True(t, ok)
	summary, ok := args[1].(string)
	require.True(t, ok)

	return id, summary
}
