// Package safecast converts arbitrary precision integers to the fixed widths of the wire
// encodings, failing instead of truncating.
package safecast

import (
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
)

// BigToUint64 converts a big.Int to uint64. A nil value converts to zero.
func BigToUint64(value *big.Int) (uint64, error) {
	if value == nil {
		return 0, nil
	}

	if value.Sign() < 0 {
		return 0, fmt.Errorf("value %s is negative, cannot convert to uint64", value)
	}

	if !value.IsUint64() {
		return 0, fmt.Errorf("value %s exceeds uint64 range", value)
	}

	return value.Uint64(), nil
}

// BigToUint256 converts a big.Int to a 256 bit word. A nil value converts to zero.
func BigToUint256(value *big.Int) (*uint256.Int, error) {
	if value == nil {
		return new(uint256.Int), nil
	}

	if value.Sign() < 0 {
		return nil, fmt.Errorf("value %s is negative, cannot convert to uint256", value)
	}

	n, overflow := uint256.FromBig(value)
	if overflow {
		return nil, fmt.Errorf("value %s exceeds uint256 range", value)
	}

	return n, nil
}
