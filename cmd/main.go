package main

import (
	"fmt"
	"os"

	"github.com/bjoernek/multi-chain-voting/cmd/governor"
)

func main() {
	rootCmd := governor.BuildGovernorCmd()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
