package evm

import (
	"bytes"
	_ "embed"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const (
	MethodBalanceOf       = "balanceOf"
	MethodTransfer        = "transfer(address,uint256)"
	MethodExecuteProposal = "executeProposal"
)

//go:embed contract.json
var governanceABIJSON []byte

var (
	defaultContractOnce sync.Once
	defaultContract     *Contract
	errDefaultContract  error
)

// ContractCall is a call to a contract function. Function is either the bare function name, when
// the contract has a single function of that name, or the full signature such as
// "transfer(address,uint256)".
type ContractCall struct {
	Function string
	Args     []any
}

// Contract is the static ABI table used to encode calls and decode their results.
type Contract struct {
	abi abi.ABI
}

// NewContract parses a contract ABI in its JSON form.
func NewContract(abiJSON []byte) (*Contract, error) {
	parsed, err := abi.JSON(bytes.NewReader(abiJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to parse contract ABI: %w", err)
	}

	return &Contract{abi: parsed}, nil
}

// DefaultContract returns the governance contract ABI embedded in the binary. The ABI is parsed
// once.
func DefaultContract() (*Contract, error) {
	defaultContractOnce.Do(func() {
		defaultContract, errDefaultContract = NewContract(governanceABIJSON)
	})

	return defaultContract, errDefaultContract
}

// Method resolves a function by its name or by its full signature. A name that matches several
// overloads is rejected with the list of signatures to pick from.
func (c *Contract) Method(function string) (abi.Method, error) {
	var matches []abi.Method
	for _, m := range c.abi.Methods {
		if m.RawName == function {
			matches = append(matches, m)
		}
	}

	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		for _, m := range c.abi.Methods {
			if m.Sig == function {
				return m, nil
			}
		}

		return abi.Method{}, fmt.Errorf("function not found: %s", function)
	default:
		sigs := make([]string, 0, len(matches))
		for _, m := range matches {
			sigs = append(sigs, m.Sig)
		}
		slices.Sort(sigs)

		return abi.Method{}, fmt.Errorf("found %d function overloads for %s, use one of: %s",
			len(matches), function, strings.Join(sigs, ", "))
	}
}

// EncodeCall returns the calldata of a call: the 4 byte selector followed by the ABI encoded
// arguments.
func (c *Contract) EncodeCall(call ContractCall) ([]byte, error) {
	m, err := c.Method(call.Function)
	if err != nil {
		return nil, err
	}

	args, err := m.Inputs.Pack(call.Args...)
	if err != nil {
		return nil, fmt.Errorf("failed to encode arguments of %s: %w", m.Sig, err)
	}

	return append(slices.Clone(m.ID), args...), nil
}

// DecodeResult decodes the return data of a call into the function's declared output types.
func (c *Contract) DecodeResult(function string, data []byte) ([]any, error) {
	m, err := c.Method(function)
	if err != nil {
		return nil, err
	}

	out, err := m.Outputs.Unpack(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode result of %s: %w", m.Sig, err)
	}

	return out, nil
}
