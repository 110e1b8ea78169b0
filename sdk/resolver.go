package sdk

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
)

// AddressResolver maps a caller identity to the ledger address linked to it.
type AddressResolver interface {
	Resolve(ctx context.Context, identity string) (common.Address, error)
}
