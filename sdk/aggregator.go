package sdk

import (
	"context"

	"github.com/bjoernek/multi-chain-voting/types"
)

// RPCAggregator fans ledger requests out to independent providers.
//
// The aggregator owns provider selection and quorum. Callers treat a consistent answer as
// authoritative and an inconsistent one as a failure that needs external reconciliation.
type RPCAggregator interface {
	// Request sends a raw JSON-RPC payload to a single provider and returns the raw response
	// body. Responses larger than maxResponseBytes are rejected.
	Request(ctx context.Context, payload []byte, maxResponseBytes int64) ([]byte, error)

	// SendRawTransaction broadcasts a 0x prefixed signed transaction to every provider.
	SendRawTransaction(ctx context.Context, rawTx string) (types.MultiSendResult, error)
}
