package chaintest

import (
	cselectors "github.com/smartcontractkit/chain-selectors"
)

var (
	Chain1EVMID = cselectors.GETH_TESTNET.EvmChainID // 1337
	Chain1Name  = cselectors.GETH_TESTNET.Name

	Chain2EVMID = cselectors.ETHEREUM_TESTNET_SEPOLIA.EvmChainID // 11155111
	Chain2Name  = cselectors.ETHEREUM_TESTNET_SEPOLIA.Name

	// TestInvalidEVMID is an EVM chain id that doesn't exist.
	TestInvalidEVMID uint64 = 999999999
)
