package cli

import (
	"github.com/spf13/cobra"

	"github.com/example/soup/internal/app"
	"github.com/example/soup/internal/wire"
)

// StatusCmd returns the status command
func StatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the puzzle, game status, evidence and recent transcript",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return wire.Default().SessionAdapter(cmd.OutOrStdout()).Status(NewContext())
		},
	}
}

// RosterCmd returns the roster command
func RosterCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "roster",
		Short: "List players by score with their online state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return wire.Default().GameAdapter(cmd.OutOrStdout()).Roster(NewContext())
		},
	}
}

// HeartbeatCmd returns the heartbeat command
func HeartbeatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "heartbeat",
		Short: "Send one liveness pulse",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			player, err := requireIdentity()
			if err != nil {
				return err
			}
			return wire.Default().SessionAdapter(cmd.OutOrStdout()).Heartbeat(NewContext(), player)
		},
	}
}

// LogCmd returns the log command
func LogCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show this client's system log (most recent first)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return wire.Default().GameAdapter(cmd.OutOrStdout()).Log(NewContext(), limit)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", app.DefaultLogLimit, "Number of lines to show")
	return cmd
}
