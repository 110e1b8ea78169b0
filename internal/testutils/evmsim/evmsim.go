// package evmsim implements a simulated EVM ledger provider for testing purposes.
//
// The ledger serves the subset of the eth JSON-RPC namespace the governor uses over a real HTTP
// server backed by a go-ethereum rpc.Server.
package evmsim

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/big"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	gethTypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/stretchr/testify/require"

	abiutils "github.com/bjoernek/multi-chain-voting/internal/utils/abi"
)

const (
	// SimulatedChainID is the chain ID used for the simulated ledger.
	SimulatedChainID = 1337

	// DefaultHeight is the block height the ledger starts at.
	DefaultHeight = 100
)

// balanceOfSelector is the 4 byte selector of balanceOf(address).
var balanceOfSelector = []byte{0x70, 0xa0, 0x82, 0x31}

// CallArgs is the transaction object of an eth_call request.
type CallArgs struct {
	To   *common.Address `json:"to"`
	Data hexutil.Bytes   `json:"data"`
}

// Ledger is an in-memory ledger with token balances, account nonces and a transaction pool.
type Ledger struct {
	mu       sync.Mutex
	height   uint64
	balances map[common.Address]map[uint64]*big.Int
	nonces   map[common.Address]uint64
	pool     []*gethTypes.Transaction
	callTags []string

	// BlockErr, when set, is returned as the JSON-RPC error of eth_blockNumber.
	BlockErr string
	// SendErr, when set, is returned as the JSON-RPC error of eth_sendRawTransaction.
	SendErr string
	// CallErr, when set, is returned as the JSON-RPC error of eth_call.
	CallErr string
}

func NewLedger() *Ledger {
	return &Ledger{
		height:   DefaultHeight,
		balances: make(map[common.Address]map[uint64]*big.Int),
		nonces:   make(map[common.Address]uint64),
	}
}

// Serve starts an HTTP JSON-RPC server for the ledger and returns its URL. The server is closed
// when the test ends.
func (l *Ledger) Serve(t *testing.T) string {
	t.Helper()

	server := rpc.NewServer()
	require.NoError(t, server.RegisterName("eth", &ethService{ledger: l}))

	ts := httptest.NewServer(server)
	t.Cleanup(func() {
		ts.Close()
		server.Stop()
	})

	return ts.URL
}

// SetBalance sets the token balance of account from the given height on.
func (l *Ledger) SetBalance(account common.Address, height uint64, balance *big.Int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.balances[account] == nil {
		l.balances[account] = make(map[uint64]*big.Int)
	}
	l.balances[account][height] = new(big.Int).Set(balance)
}

// Mine advances the block height by n.
func (l *Ledger) Mine(n uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.height += n
}

// Height returns the current block height.
func (l *Ledger) Height() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.height
}

// SetNonce sets the next nonce of account.
func (l *Ledger) SetNonce(account common.Address, nonce uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.nonces[account] = nonce
}

// Pool returns the transactions accepted by eth_sendRawTransaction.
func (l *Ledger) Pool() []*gethTypes.Transaction {
	l.mu.Lock()
	defer l.mu.Unlock()

	return append([]*gethTypes.Transaction(nil), l.pool...)
}

// CallTags returns the block tags of all eth_call requests.
func (l *Ledger) CallTags() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	return append([]string(nil), l.callTags...)
}

// balanceAt returns the most recent balance set at or below height.
func (l *Ledger) balanceAt(account common.Address, height uint64) *big.Int {
	balance := new(big.Int)
	best := uint64(0)
	found := false
	for h, b := range l.balances[account] {
		if h <= height && (!found || h >= best) {
			balance, best, found = b, h, true
		}
	}

	return new(big.Int).Set(balance)
}

func (l *Ledger) resolveTag(tag string) (uint64, error) {
	switch tag {
	case "latest", "pending", "safe", "finalized", "":
		return l.height, nil
	case "earliest":
		return 0, nil
	default:
		return hexutil.DecodeUint64(tag)
	}
}

type ethService struct {
	ledger *Ledger
}

func (s *ethService) BlockNumber() (hexutil.Uint64, error) {
	s.ledger.mu.Lock()
	defer s.ledger.mu.Unlock()

	if s.ledger.BlockErr != "" {
		return 0, errors.New(s.ledger.BlockErr)
	}

	return hexutil.Uint64(s.ledger.height), nil
}

func (s *ethService) ChainId() *hexutil.Big { //nolint:revive,stylecheck // matches eth_chainId
	return (*hexutil.Big)(big.NewInt(SimulatedChainID))
}

func (s *ethService) Call(_ context.Context, args CallArgs, tag string) (hexutil.Bytes, error) {
	l := s.ledger
	l.mu.Lock()
	defer l.mu.Unlock()

	l.callTags = append(l.callTags, tag)
	if l.CallErr != "" {
		return nil, errors.New(l.CallErr)
	}

	height, err := l.resolveTag(tag)
	if err != nil {
		return nil, fmt.Errorf("invalid block tag %q", tag)
	}
	if len(args.Data) != 4+32 || !bytes.Equal(args.Data[:4], balanceOfSelector) {
		return nil, errors.New("execution reverted")
	}

	account := common.BytesToAddress(args.Data[4:])

	return abiutils.EncodeUint256(l.balanceAt(account, height))
}

func (s *ethService) GetTransactionCount(_ context.Context, account common.Address, _ string) (hexutil.Uint64, error) {
	s.ledger.mu.Lock()
	defer s.ledger.mu.Unlock()

	return hexutil.Uint64(s.ledger.nonces[account]), nil
}

func (s *ethService) SendRawTransaction(_ context.Context, raw hexutil.Bytes) (common.Hash, error) {
	l := s.ledger
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.SendErr != "" {
		return common.Hash{}, errors.New(l.SendErr)
	}

	tx := new(gethTypes.Transaction)
	if err := tx.UnmarshalBinary(raw); err != nil {
		return common.Hash{}, fmt.Errorf("rlp: %w", err)
	}

	sender, err := gethTypes.Sender(gethTypes.LatestSignerForChainID(tx.ChainId()), tx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("invalid sender: %w", err)
	}

	for _, pooled := range l.pool {
		if pooled.Hash() == tx.Hash() {
			return common.Hash{}, errors.New("already known")
		}
	}

	switch next := l.nonces[sender]; {
	case tx.Nonce() < next:
		return common.Hash{}, fmt.Errorf("nonce too low: next nonce %d, tx nonce %d", next, tx.Nonce())
	case tx.Nonce() > next:
		return common.Hash{}, fmt.Errorf("nonce too high: next nonce %d, tx nonce %d", next, tx.Nonce())
	}

	l.nonces[sender]++
	l.pool = append(l.pool, tx)

	return tx.Hash(), nil
}
