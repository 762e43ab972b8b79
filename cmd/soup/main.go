package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/example/soup/internal/cli"
	"github.com/example/soup/internal/version"
	"github.com/example/soup/internal/wire"
)

func main() {
	var home string

	rootCmd := &cobra.Command{
		Use:     "soup",
		Short:   "soup - shared lateral-thinking puzzle sessions",
		Version: version.String(),
		Long: `soup is a client for leaderless multiplayer "turtle soup" puzzles.
Players share one mystery, ask yes/no questions of an oracle and race to
explain the truth. There is no server: every client coordinates through a
shared document store.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if home != "" {
				wire.SetDir(home)
			}
			return cli.LoadIdentity()
		},
	}
	rootCmd.PersistentFlags().StringVar(&home, "home", "", "Config and state directory (default $SOUP_HOME or ~/.soup)")

	// Session commands
	rootCmd.AddCommand(cli.JoinCmd())
	rootCmd.AddCommand(cli.AskCmd())
	rootCmd.AddCommand(cli.SolveCmd())
	rootCmd.AddCommand(cli.SkipCmd())
	rootCmd.AddCommand(cli.HeartbeatCmd())
	rootCmd.AddCommand(cli.PlayCmd())

	// Puzzle lifecycle
	rootCmd.AddCommand(cli.RegenerateCmd())
	rootCmd.AddCommand(cli.NewGameCmd())

	// Views
	rootCmd.AddCommand(cli.StatusCmd())
	rootCmd.AddCommand(cli.RosterCmd())
	rootCmd.AddCommand(cli.LogCmd())
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println(version.String())
		},
	})

	err := rootCmd.Execute()
	if d := wire.Loaded(); d != nil {
		d.Close()
	}
	if err != nil {
		cli.Explain(os.Stderr, err)
		os.Exit(1)
	}
}
