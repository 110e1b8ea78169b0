// Package governor implements the governor command line: the daemon and a client for its
// JSON-RPC API.
package governor

import (
	"os"

	"github.com/spf13/cobra"
)

const (
	defaultEndpoint = "http://127.0.0.1:8080"
	identityEnv     = "GOVERNOR_IDENTITY"
)

type clientFlags struct {
	endpoint string
	identity string
}

func BuildGovernorCmd() *cobra.Command {
	var flags clientFlags

	cmd := cobra.Command{
		Use:           "governor",
		Short:         "Token weighted governance with on-chain execution",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&flags.endpoint, "endpoint", defaultEndpoint, "JSON-RPC endpoint of the governor daemon")
	cmd.PersistentFlags().StringVar(&flags.identity, "identity", os.Getenv(identityEnv), "Caller identity sent with every request")

	cmd.AddCommand(buildServeCmd())
	cmd.AddCommand(buildSubmitCmd(&flags))
	cmd.AddCommand(buildProposalsCmd(&flags))
	cmd.AddCommand(buildVoteCmd(&flags))
	cmd.AddCommand(buildExecuteCmd(&flags))
	cmd.AddCommand(buildAddressCmd(&flags))
	cmd.AddCommand(buildBalanceCmd(&flags))
	cmd.AddCommand(buildClearCmd(&flags))

	return &cmd
}
