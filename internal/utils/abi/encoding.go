package abi

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Encode packs values as the tuple described by the solidity type names, without a method
// selector.
func Encode(typeNames []string, values ...any) ([]byte, error) {
	args, err := arguments(typeNames)
	if err != nil {
		return nil, err
	}

	return args.Pack(values...)
}

// Decode unpacks data as the tuple described by the solidity type names.
func Decode(typeNames []string, data []byte) ([]any, error) {
	args, err := arguments(typeNames)
	if err != nil {
		return nil, err
	}

	return args.Unpack(data)
}

// EncodeUint256 returns the 32 byte big-endian word of v, as returned by a balanceOf call.
func EncodeUint256(v *big.Int) ([]byte, error) {
	return Encode([]string{"uint256"}, v)
}

func arguments(typeNames []string) (abi.Arguments, error) {
	args := make(abi.Arguments, 0, len(typeNames))
	for i, name := range typeNames {
		typ, err := abi.NewType(name, "", nil)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		args = append(args, abi.Argument{Type: typ})
	}

	return args, nil
}
