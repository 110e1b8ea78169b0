package evm

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	abiutils "github.com/bjoernek/multi-chain-voting/internal/utils/abi"
)

func TestContract_Method(t *testing.T) {
	t.Parallel()

	contract, err := DefaultContract()
	require.NoError(t, err)

	tests := []struct {
		name    string
		give    string
		wantSig string
		wantErr string
	}{
		{name: "by name", give: MethodBalanceOf, wantSig: "balanceOf(address)"},
		{name: "by signature", give: MethodTransfer, wantSig: "transfer(address,uint256)"},
		{name: "by signature of overload", give: "transfer(address,uint256,bytes)", wantSig: "transfer(address,uint256,bytes)"},
		{
			name:    "ambiguous overload",
			give:    "transfer",
			wantErr: "found 2 function overloads for transfer, use one of: transfer(address,uint256), transfer(address,uint256,bytes)",
		},
		{name: "unknown", give: "mint", wantErr: "function not found: mint"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			m, err := contract.Method(tt.give)
			if tt.wantErr != "" {
				require.EqualError(t, err, tt.wantErr)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantSig, m.Sig)
		})
	}
}

func TestContract_EncodeCall(t *testing.T) {
	t.Parallel()

	contract, err := DefaultContract()
	require.NoError(t, err)

	addr := common.HexToAddress("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")

	data, err := contract.EncodeCall(ContractCall{Function: MethodBalanceOf, Args: []any{addr}})
	require.NoError(t, err)
	assert.Equal(t, "0x70a08231000000000000000000000000"+"5aaeb6053f3e94c9b9a09f33669435e7ef1beaed", EncodeHex(data))

	data, err = contract.EncodeCall(ContractCall{Function: MethodTransfer, Args: []any{addr, big.NewInt(30)}})
	require.NoError(t, err)
	assert.Equal(t, "0xa9059cbb", EncodeHex(data[:4]))
	assert.Len(t, data, 4+2*32)

	_, err = contract.EncodeCall(ContractCall{Function: MethodBalanceOf, Args: []any{"not an address"}})
	require.ErrorContains(t, err, "failed to encode arguments of balanceOf(address)")
}

func TestContract_DecodeResult(t *testing.T) {
	t.Parallel()

	contract, err := DefaultContract()
	require.NoError(t, err)

	encoded, err := abiutils.EncodeUint256(big.NewInt(100))
	require.NoError(t, err)

	out, err := contract.DecodeResult(MethodBalanceOf, encoded)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "100", out[0].(*big.Int).String())

	_, err = contract.DecodeResult(MethodBalanceOf, []byte{0x01})
	require.ErrorContains(t, err, "failed to decode result of balanceOf(address)")

	out, err = contract.DecodeResult(MethodExecuteProposal, nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}
