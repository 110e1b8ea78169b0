package voting

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/bjoernek/multi-chain-voting/sdk"
	"github.com/bjoernek/multi-chain-voting/sdk/evm"
)

var _ sdk.AddressResolver = StaticResolver{}

// StaticResolver resolves identities from a fixed map. It stands in for an identity service
// that links caller identities to ledger addresses.
type StaticResolver map[string]common.Address

// NewStaticResolver builds a StaticResolver from "identity=address" pairs.
func NewStaticResolver(pairs map[string]string) (StaticResolver, error) {
	r := make(StaticResolver, len(pairs))
	for identity, address := range pairs {
		addr, err := evm.ParseAddress(strings.TrimSpace(address))
		if err != nil {
			return nil, fmt.Errorf("identity %s: %w", identity, err)
		}
		r[identity] = addr
	}

	return r, nil
}

func (r StaticResolver) Resolve(_ context.Context, identity string) (common.Address, error) {
	addr, ok := r[identity]
	if !ok {
		return common.Address{}, fmt.Errorf("no address linked to identity %q", identity)
	}

	return addr, nil
}
