package governor

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cast"
	"github.com/spf13/cobra"

	"github.com/bjoernek/multi-chain-voting/api"
	"github.com/bjoernek/multi-chain-voting/types"
)

// withClient dials the daemon for the duration of one command.
func withClient(cmd *cobra.Command, flags *clientFlags, fn func(*api.Client) error) error {
	client, err := api.Dial(cmd.Context(), flags.endpoint, flags.identity)
	if err != nil {
		return err
	}
	defer client.Close()

	return fn(client)
}

func buildSubmitCmd(flags *clientFlags) *cobra.Command {
	var (
		title        string
		description  string
		proposalType string
		duration     string
	)

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a proposal",
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := types.ParseDuration(duration)
			if err != nil {
				return fmt.Errorf("invalid duration: %w", err)
			}

			return withClient(cmd, flags, func(client *api.Client) error {
				id, err := client.SubmitProposal(cmd.Context(), title, description, proposalType, uint64(d.Seconds()))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Submitted proposal %d\n", id)

				return nil
			})
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Proposal title")
	cmd.Flags().StringVar(&description, "description", "", "Proposal description")
	cmd.Flags().StringVar(&proposalType, "type", "text", "Proposal type")
	cmd.Flags().StringVar(&duration, "duration", "24h", "Voting window, as a duration or a number of seconds")
	_ = cmd.MarkFlagRequired("title")

	return cmd
}

func buildProposalsCmd(flags *clientFlags) *cobra.Command {
	var (
		id        string
		withVotes bool
	)

	cmd := &cobra.Command{
		Use:   "proposals",
		Short: "List proposals as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withClient(cmd, flags, func(client *api.Client) error {
				if id == "" {
					proposals, err := client.GetProposals(cmd.Context())
					if err != nil {
						return err
					}

					return printJSON(cmd, proposals)
				}

				proposalID, err := parseID(id)
				if err != nil {
					return err
				}
				p, err := client.GetProposal(cmd.Context(), proposalID)
				if err != nil {
					return err
				}
				if !withVotes {
					return printJSON(cmd, p)
				}

				votes, err := client.GetVotes(cmd.Context(), proposalID)
				if err != nil {
					return err
				}

				return printJSON(cmd, struct {
					types.Proposal
					Votes []types.VoteRecord `json:"votes"`
				}{p, votes})
			})
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "Only show this proposal")
	cmd.Flags().BoolVar(&withVotes, "votes", false, "Include the votes of the proposal selected with --id")

	return cmd
}

func buildVoteCmd(flags *clientFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "vote <id> <yes|no>",
		Short: "Vote on a proposal with your balance at its snapshot block",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			choice, err := parseChoice(args[1])
			if err != nil {
				return err
			}

			return withClient(cmd, flags, func(client *api.Client) error {
				if err := client.VoteOnProposal(cmd.Context(), id, choice); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Voted %s on proposal %d\n", args[1], id)

				return nil
			})
		},
	}
}

func buildExecuteCmd(flags *clientFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "execute <id>",
		Short: "Execute a proposal and submit its outcome to the ledger",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			return withClient(cmd, flags, func(client *api.Client) error {
				txHash, err := client.ExecuteProposal(cmd.Context(), id)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Proposal %d executed in transaction %s\n", id, txHash)

				return nil
			})
		},
	}
}

func buildAddressCmd(flags *clientFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "address",
		Short: "Show the ledger address of the coordinator",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withClient(cmd, flags, func(client *api.Client) error {
				addr, err := client.GetEthAddress(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), addr)

				return nil
			})
		},
	}
}

func buildBalanceCmd(flags *clientFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "balance",
		Short: "Show your current token balance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withClient(cmd, flags, func(client *api.Client) error {
				balance, err := client.GetMyEthBalance(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), balance)

				return nil
			})
		},
	}
}

func buildClearCmd(flags *clientFlags) *cobra.Command {
	var id string

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove all closed proposals, or one proposal with --id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withClient(cmd, flags, func(client *api.Client) error {
				if id == "" {
					n, err := client.ClearClosedProposals(cmd.Context())
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Removed %d proposals\n", n)

					return nil
				}

				proposalID, err := parseID(id)
				if err != nil {
					return err
				}
				if err := client.ClearProposalByID(cmd.Context(), proposalID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed proposal %d\n", proposalID)

				return nil
			})
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "Remove only this proposal, regardless of its state")

	return cmd
}

func parseID(s string) (uint64, error) {
	id, err := cast.ToUint64E(s)
	if err != nil {
		return 0, fmt.Errorf("invalid proposal id %q: %w", s, err)
	}

	return id, nil
}

// parseChoice accepts yes/no as well as the boolean spellings understood by cast.
func parseChoice(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "y":
		return true, nil
	case "no", "n":
		return false, nil
	}

	choice, err := cast.ToBoolE(s)
	if err != nil {
		return false, fmt.Errorf("invalid choice %q, use yes or no", s)
	}

	return choice, nil
}

func printJSON(cmd *cobra.Command, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(b))

	return nil
}
