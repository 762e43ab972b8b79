package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/soup/internal/wire"
)

// AskCmd returns the ask command
func AskCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask a yes/no question (costs one query)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			player, err := requireIdentity()
			if err != nil {
				return err
			}
			return wire.Default().SessionAdapter(cmd.OutOrStdout()).Ask(NewContext(), player, strings.Join(args, " "))
		},
	}
}

// SolveCmd returns the solve command
func SolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "solve <explanation>",
		Short: "Submit a full solution attempt",
		Long: `Submit a full explanation of the truth.

Solve attempts do not spend query budget, but the cooldown still applies.
A correct solve earns a bonus that shrinks as the shared completeness grows.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			player, err := requireIdentity()
			if err != nil {
				return err
			}
			return wire.Default().SessionAdapter(cmd.OutOrStdout()).Solve(NewContext(), player, strings.Join(args, " "))
		},
	}
}

// SkipCmd returns the skip command
func SkipCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "skip",
		Short: "End the game and reveal the truth (administrator only)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			player, err := requireIdentity()
			if err != nil {
				return err
			}
			return wire.Default().SessionAdapter(cmd.OutOrStdout()).Skip(NewContext(), player)
		},
	}
}
