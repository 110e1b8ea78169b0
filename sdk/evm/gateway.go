package evm

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/bjoernek/multi-chain-voting/sdk"
	sdkerrors "github.com/bjoernek/multi-chain-voting/sdk/errors"
	"github.com/bjoernek/multi-chain-voting/types"
)

const (
	// DefaultMaxResponseBytes is the response size budget of a single provider read.
	DefaultMaxResponseBytes int64 = 2048

	BlockLatest = "latest"
)

// GatewayOption configures a Gateway.
type GatewayOption func(*Gateway)

// WithMaxResponseBytes overrides the response size budget of reads.
func WithMaxResponseBytes(n int64) GatewayOption {
	return func(g *Gateway) {
		g.maxResponseBytes = n
	}
}

// Gateway issues ledger reads and broadcasts through a multi-provider aggregator. It holds no
// proposal state.
type Gateway struct {
	aggregator       sdk.RPCAggregator
	contract         *Contract
	contractAddress  common.Address
	maxResponseBytes int64

	requestID atomic.Uint64
}

func NewGateway(
	aggregator sdk.RPCAggregator,
	contract *Contract,
	contractAddress common.Address,
	opts ...GatewayOption,
) *Gateway {
	g := &Gateway{
		aggregator:       aggregator,
		contract:         contract,
		contractAddress:  contractAddress,
		maxResponseBytes: DefaultMaxResponseBytes,
	}
	for _, opt := range opts {
		opt(g)
	}

	return g
}

// ContractAddress returns the address of the contract calls are sent to.
func (g *Gateway) ContractAddress() common.Address {
	return g.contractAddress
}

// Calldata encodes a call to the gateway's contract.
func (g *Gateway) Calldata(call ContractCall) ([]byte, error) {
	return g.contract.EncodeCall(call)
}

// Read executes call with eth_call at the given block tag and decodes its return values.
func (g *Gateway) Read(ctx context.Context, call ContractCall, block string) ([]any, error) {
	data, err := g.contract.EncodeCall(call)
	if err != nil {
		return nil, err
	}

	result, err := g.request(ctx, "eth_call", callParams{
		To:   g.contractAddress.Hex(),
		Data: EncodeHex(data),
	}, block)
	if err != nil {
		return nil, err
	}

	var encoded string
	if err = json.Unmarshal(result, &encoded); err != nil {
		return nil, sdkerrors.NewEnvelopeError("eth_call", "result is not a string")
	}
	ret, err := DecodeHex(encoded)
	if err != nil {
		return nil, sdkerrors.NewEnvelopeError("eth_call", fmt.Sprintf("result is not hex: %v", err))
	}

	return g.contract.DecodeResult(call.Function, ret)
}

// BalanceOf returns the token balance of account at the given block tag.
func (g *Gateway) BalanceOf(ctx context.Context, account common.Address, block string) (*big.Int, error) {
	out, err := g.Read(ctx, ContractCall{Function: MethodBalanceOf, Args: []any{account}}, block)
	if err != nil {
		return nil, err
	}

	if len(out) != 1 {
		return nil, fmt.Errorf("balanceOf returned %d values", len(out))
	}
	balance, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("balanceOf returned %T", out[0])
	}

	return balance, nil
}

// ReadBlockNumber returns the current block height together with the hex tag returned by the
// provider. The tag is kept verbatim for later snapshot reads.
func (g *Gateway) ReadBlockNumber(ctx context.Context) (uint64, string, error) {
	tag, err := g.readQuantity(ctx, "eth_blockNumber")
	if err != nil {
		return 0, "", err
	}

	height, err := hexutil.DecodeUint64(tag)
	if err != nil {
		return 0, "", sdkerrors.NewEnvelopeError("eth_blockNumber", fmt.Sprintf("invalid quantity %q", tag))
	}

	return height, tag, nil
}

// ReadTransactionCount returns the nonce of account at the given block tag.
func (g *Gateway) ReadTransactionCount(ctx context.Context, account common.Address, block string) (uint64, error) {
	quantity, err := g.readQuantity(ctx, "eth_getTransactionCount", account.Hex(), block)
	if err != nil {
		return 0, err
	}

	count, err := hexutil.DecodeUint64(quantity)
	if err != nil {
		return 0, sdkerrors.NewEnvelopeError("eth_getTransactionCount", fmt.Sprintf("invalid quantity %q", quantity))
	}

	return count, nil
}

// Submit broadcasts a signed transaction and returns its hash. Only an outcome all providers
// agree on is accepted; a disagreement is returned as an *sdkerrors.InconsistentBroadcastError
// and must be reconciled by an operator.
func (g *Gateway) Submit(ctx context.Context, rawTx string) (string, error) {
	res, err := g.aggregator.SendRawTransaction(ctx, rawTx)
	if err != nil {
		return "", fmt.Errorf("failed to broadcast transaction: %w", err)
	}

	if !res.IsConsistent() {
		return "", sdkerrors.NewInconsistentBroadcastError(rawTx, res.Inconsistent)
	}

	outcome := *res.Consistent
	if outcome.Err != "" || outcome.Status != types.SendStatusOk {
		return "", sdkerrors.NewBroadcastRejectedError(outcome)
	}

	if outcome.TxHash != "" {
		return outcome.TxHash, nil
	}

	raw, err := DecodeHex(rawTx)
	if err != nil {
		return "", fmt.Errorf("failed to decode raw transaction: %w", err)
	}

	return crypto.Keccak256Hash(raw).Hex(), nil
}

func (g *Gateway) readQuantity(ctx context.Context, method string, params ...any) (string, error) {
	result, err := g.request(ctx, method, params...)
	if err != nil {
		return "", err
	}

	var quantity string
	if err = json.Unmarshal(result, &quantity); err != nil {
		return "", sdkerrors.NewEnvelopeError(method, "result is not a string")
	}

	return quantity, nil
}

// request sends one JSON-RPC request through a single provider and returns the raw result.
func (g *Gateway) request(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
	payload, err := encodeRequest(g.requestID.Add(1), method, params...)
	if err != nil {
		return nil, err
	}

	body, err := g.aggregator.Request(ctx, payload, g.maxResponseBytes)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", method, err)
	}

	var resp jsonRPCResponse
	if err = json.Unmarshal(body, &resp); err != nil {
		return nil, sdkerrors.NewEnvelopeError(method, fmt.Sprintf("malformed JSON: %v", err))
	}
	if resp.Error != nil {
		return nil, sdkerrors.NewRPCError(method, resp.Error.Code, resp.Error.Message)
	}
	if !resp.hasResult() {
		return nil, sdkerrors.NewEnvelopeError(method, "missing result")
	}

	return resp.Result, nil
}
