package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	voting "github.com/bjoernek/multi-chain-voting"
	"github.com/bjoernek/multi-chain-voting/internal/testutils"
	"github.com/bjoernek/multi-chain-voting/internal/testutils/evmsim"
	"github.com/bjoernek/multi-chain-voting/sdk/evm"
	"github.com/bjoernek/multi-chain-voting/sdk/evm/aggregator"
	"github.com/bjoernek/multi-chain-voting/store"
)

var aliceAddr = common.HexToAddress("0x00000000000000000000000000000000000A11CE")

type apiFixture struct {
	url    string
	ledger *evmsim.Ledger
	signer *testutils.ECDSASigner
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	ctx := context.Background()
	ledger := evmsim.NewLedger()

	agg, err := aggregator.New(ctx, []aggregator.Provider{{Name: "sim", URL: ledger.Serve(t)}})
	require.NoError(t, err)
	t.Cleanup(agg.Close)

	st, err := store.Open()
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, st.Close()) })

	contract, err := evm.DefaultContract()
	require.NoError(t, err)

	params := voting.DefaultTxParams()
	params.ChainID = big.NewInt(evmsim.SimulatedChainID)

	registry := prometheus.NewRegistry()
	signer := testutils.NewECDSASigner()
	engine := voting.NewEngine(
		st,
		voting.StaticResolver{"alice": aliceAddr},
		evm.NewGateway(agg, contract, common.HexToAddress("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")),
		signer,
		voting.WithTxParams(params),
		voting.WithMetrics(voting.NewMetrics(registry)),
	)

	handler, err := NewHandler(NewService(engine), zaptest.NewLogger(t).Sugar(), registry)
	require.NoError(t, err)
	server := httptest.NewServer(handler)
	t.Cleanup(func() {
		server.Close()
		handler.Close()
	})

	return &apiFixture{url: server.URL, ledger: ledger, signer: signer}
}

func (f *apiFixture) dial(t *testing.T, identity string) *Client {
	t.Helper()

	client, err := Dial(context.Background(), f.url, identity)
	require.NoError(t, err)
	t.Cleanup(client.Close)

	return client
}

func TestAPI_Lifecycle(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t)
	f.ledger.SetBalance(aliceAddr, evmsim.DefaultHeight, big.NewInt(100))
	ctx := context.Background()
	alice := f.dial(t, "alice")

	id, err := alice.SubmitProposal(ctx, "Raise the cap", "Raise the treasury cap", "parameter", 3600)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), id)

	require.NoError(t, alice.VoteOnProposal(ctx, id, true))
	require.ErrorIs(t, alice.VoteOnProposal(ctx, id, false), voting.ErrAlreadyVoted)

	proposals, err := alice.GetProposals(ctx)
	require.NoError(t, err)
	require.Len(t, proposals, 1)
	assert.Equal(t, "100", proposals[0].YesWeight.String())
	assert.Equal(t, "0", proposals[0].NoWeight.String())
	assert.Equal(t, aliceAddr.Hex(), proposals[0].SubmitterAddress)

	votes, err := alice.GetVotes(ctx, id)
	require.NoError(t, err)
	require.Len(t, votes, 1)
	assert.Equal(t, aliceAddr, votes[0].Voter)

	balance, err := alice.GetMyEthBalance(ctx)
	require.NoError(t, err)
	assert.Equal(t, "100", balance)

	txHash, err := alice.ExecuteProposal(ctx, id)
	require.NoError(t, err)
	require.Len(t, f.ledger.Pool(), 1)
	assert.Equal(t, f.ledger.Pool()[0].Hash().Hex(), txHash)

	_, err = alice.ExecuteProposal(ctx, id)
	require.ErrorIs(t, err, voting.ErrProposalAlreadyExecuted)

	p, err := alice.GetProposal(ctx, id)
	require.NoError(t, err)
	assert.True(t, p.IsExecuted)
	assert.Equal(t, txHash, p.TxHash)

	n, err := alice.ClearClosedProposals(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = alice.GetProposal(ctx, id)
	require.ErrorIs(t, err, voting.ErrProposalNotFound)
}

func TestAPI_Errors(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t)
	ctx := context.Background()
	alice := f.dial(t, "alice")
	anonymous := f.dial(t, "")
	mallory := f.dial(t, "mallory")

	closed, err := alice.SubmitProposal(ctx, "closed", "", "text", 0)
	require.NoError(t, err)

	_, err = anonymous.SubmitProposal(ctx, "title", "", "text", 60)
	require.ErrorIs(t, err, ErrMissingIdentity)

	require.ErrorIs(t, alice.VoteOnProposal(ctx, 42, true), voting.ErrProposalNotFound)
	require.ErrorIs(t, alice.VoteOnProposal(ctx, closed, true), voting.ErrProposalClosed)
	require.ErrorIs(t, alice.ClearProposalByID(ctx, 42), voting.ErrProposalNotFound)

	err = mallory.VoteOnProposal(ctx, closed, true)
	require.ErrorIs(t, err, voting.ErrProposalClosed)

	open, err := alice.SubmitProposal(ctx, "open", "", "text", 3600)
	require.NoError(t, err)

	err = mallory.VoteOnProposal(ctx, open, true)
	var rpcErr rpc.Error
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, CodeAddressUnresolvable, rpcErr.ErrorCode())

	require.NoError(t, alice.ClearProposalByID(ctx, open))
}

func TestAPI_GetEthAddress(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t)
	client := f.dial(t, "")

	addr, err := client.GetEthAddress(context.Background())
	require.NoError(t, err)
	assert.Equal(t, f.signer.Address().Hex(), addr)
}

func TestAPI_TransferIsNotExposed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		identity string
	}{
		{name: "anonymous", identity: ""},
		{name: "member", identity: "alice"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newAPIFixture(t)
			f.ledger.SetBalance(f.signer.Address(), evmsim.DefaultHeight, big.NewInt(1000))

			var opts []rpc.ClientOption
			if tt.identity != "" {
				opts = append(opts, rpc.WithHeader(IdentityHeader, tt.identity))
			}
			client, err := rpc.DialOptions(context.Background(), f.url, opts...)
			require.NoError(t, err)
			t.Cleanup(client.Close)

			var txHash string
			err = client.CallContext(context.Background(), &txHash, Namespace+"_transfer", aliceAddr.Hex(), "5")

			var rpcErr rpc.Error
			require.ErrorAs(t, err, &rpcErr)
			assert.Equal(t, -32601, rpcErr.ErrorCode())
			assert.Empty(t, txHash)
			assert.Empty(t, f.ledger.Pool())
		})
	}
}

func TestAPI_HTTPRoutes(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t)
	alice := f.dial(t, "alice")
	_, err := alice.SubmitProposal(context.Background(), "title", "", "text", 60)
	require.NoError(t, err)

	tests := []struct {
		name         string
		path         string
		wantContains string
	}{
		{name: "health", path: "/healthz", wantContains: `"status":"ok"`},
		{name: "metrics", path: "/metrics", wantContains: "governor_proposals_submitted_total 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, f.url+tt.path, nil)
			require.NoError(t, err)
			req.Header.Set(requestIDHeader, "req-1")

			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, "req-1", resp.Header.Get(requestIDHeader))
			assert.Contains(t, string(body), tt.wantContains)
		})
	}
}

func TestToRPCError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{name: "not found", err: voting.ErrProposalNotFound, wantCode: CodeProposalNotFound},
		{name: "wrapped closed", err: fmt.Errorf("vote: %w", voting.ErrProposalClosed), wantCode: CodeProposalClosed},
		{name: "already voted", err: voting.ErrAlreadyVoted, wantCode: CodeAlreadyVoted},
		{name: "already executed", err: voting.ErrProposalAlreadyExecuted, wantCode: CodeAlreadyExecuted},
		{name: "missing identity", err: ErrMissingIdentity, wantCode: CodeMissingIdentity},
		{name: "unresolved", err: voting.NewAddressResolutionError("bob", errors.New("unknown")), wantCode: CodeAddressUnresolvable},
		{name: "invalid amount", err: voting.NewInvalidAmountError("-1"), wantCode: CodeInvalidParams},
		{name: "invalid address", err: fmt.Errorf("%w: %q", evm.ErrInvalidAddress, "0x1"), wantCode: CodeInvalidParams},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := toRPCError(tt.err)

			var apiErr *Error
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.wantCode, apiErr.ErrorCode())
			assert.Equal(t, tt.err.Error(), apiErr.Error())
		})
	}

	require.NoError(t, toRPCError(nil))

	other := errors.New("signing service unavailable")
	assert.Same(t, other, toRPCError(other))
}
