// Package aggregator implements sdk.RPCAggregator over several independent HTTP JSON-RPC
// providers.
package aggregator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rpc"
	"golang.org/x/sync/errgroup"

	"github.com/bjoernek/multi-chain-voting/sdk"
	sdkerrors "github.com/bjoernek/multi-chain-voting/sdk/errors"
	"github.com/bjoernek/multi-chain-voting/types"
)

const defaultHTTPTimeout = 30 * time.Second

// Provider is an upstream JSON-RPC endpoint.
type Provider struct {
	Name string
	URL  string
}

type provider struct {
	Provider
	client *rpc.Client
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithHTTPClient sets the HTTP client used for every provider.
func WithHTTPClient(hc *http.Client) Option {
	return func(a *Aggregator) {
		if hc != nil {
			a.httpClient = hc
		}
	}
}

// Aggregator sends reads to the primary provider and broadcasts transactions to all providers.
// A broadcast outcome is consistent only if every provider reported the same result.
type Aggregator struct {
	providers  []provider
	httpClient *http.Client
}

var _ sdk.RPCAggregator = (*Aggregator)(nil)

// New dials every provider. The first provider is the primary used for reads.
func New(ctx context.Context, providers []Provider, opts ...Option) (*Aggregator, error) {
	if len(providers) == 0 {
		return nil, errors.New("at least one provider is required")
	}

	a := &Aggregator{
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(a)
	}

	for i, p := range providers {
		if p.Name == "" {
			p.Name = fmt.Sprintf("provider-%d", i)
		}

		client, err := rpc.DialOptions(ctx, p.URL, rpc.WithHTTPClient(a.httpClient))
		if err != nil {
			a.Close()

			return nil, fmt.Errorf("failed to dial provider %s: %w", p.Name, err)
		}
		a.providers = append(a.providers, provider{Provider: p, client: client})
	}

	return a, nil
}

// Close releases the provider clients.
func (a *Aggregator) Close() {
	for _, p := range a.providers {
		p.client.Close()
	}
}

// Providers returns the configured providers in order.
func (a *Aggregator) Providers() []Provider {
	out := make([]Provider, 0, len(a.providers))
	for _, p := range a.providers {
		out = append(out, p.Provider)
	}

	return out
}

// Request posts payload to the primary provider and returns the raw response body. A body larger
// than maxResponseBytes is rejected with an *sdkerrors.ResponseTooLargeError.
func (a *Aggregator) Request(ctx context.Context, payload []byte, maxResponseBytes int64) ([]byte, error) {
	primary := a.providers[0]

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, primary.URL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request on %s: %w", primary.Name, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading response from %s: %w", primary.Name, err)
	}
	if int64(len(body)) > maxResponseBytes {
		return nil, sdkerrors.NewResponseTooLargeError(maxResponseBytes)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from %s: %s", resp.StatusCode, primary.Name, string(body))
	}

	return body, nil
}

// SendRawTransaction broadcasts rawTx to every provider concurrently and compares their answers.
func (a *Aggregator) SendRawTransaction(ctx context.Context, rawTx string) (types.MultiSendResult, error) {
	raw, err := hexutil.Decode(rawTx)
	if err != nil {
		return types.MultiSendResult{}, fmt.Errorf("invalid raw transaction: %w", err)
	}
	localHash := crypto.Keccak256Hash(raw)
	lggr := sdk.LoggerFrom(ctx)

	results := make([]types.ProviderSendResult, len(a.providers))

	// Provider failures are results, not errors, so the group never cancels.
	var g errgroup.Group
	for i, p := range a.providers {
		g.Go(func() error {
			var hash common.Hash
			callErr := p.client.CallContext(ctx, &hash, "eth_sendRawTransaction", rawTx)
			result := classify(hash, callErr, localHash)
			lggr.Debugf("Provider %s answered eth_sendRawTransaction with %s", p.Name, result)
			results[i] = types.ProviderSendResult{Provider: p.Name, Result: result}

			return nil
		})
	}
	_ = g.Wait()

	return combine(results), nil
}

// classify maps a provider answer onto a send result. Ok results always carry the transaction
// hash, falling back to the locally computed one when the provider reported the transaction as
// already known.
func classify(hash common.Hash, err error, localHash common.Hash) types.SendResult {
	if err == nil {
		if hash == (common.Hash{}) {
			hash = localHash
		}

		return types.SendResult{Status: types.SendStatusOk, TxHash: hash.Hex()}
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "already known"):
		return types.SendResult{Status: types.SendStatusOk, TxHash: localHash.Hex()}
	case strings.Contains(msg, "nonce too low"):
		return types.SendResult{Status: types.SendStatusNonceTooLow}
	case strings.Contains(msg, "nonce too high"):
		return types.SendResult{Status: types.SendStatusNonceTooHigh}
	case strings.Contains(msg, "insufficient funds"):
		return types.SendResult{Status: types.SendStatusInsufficientFunds}
	default:
		return types.SendResult{Err: err.Error()}
	}
}

func combine(results []types.ProviderSendResult) types.MultiSendResult {
	first := results[0].Result
	for _, r := range results[1:] {
		if !r.Result.Equal(first) {
			return types.MultiSendResult{Inconsistent: results}
		}
	}

	return types.MultiSendResult{Consistent: &first}
}
