package cli

import (
	"github.com/spf13/cobra"

	cliadapter "github.com/example/soup/internal/adapters/cli"
	"github.com/example/soup/internal/wire"
)

// RegenerateCmd returns the regenerate command
func RegenerateCmd() *cobra.Command {
	var opts cliadapter.RegenerateOptions

	cmd := &cobra.Command{
		Use:   "regenerate",
		Short: "Generate and install a new puzzle",
		Long: `Clear the session and ask the oracle for a new puzzle.

While a game is in progress only the administrator may regenerate (when one is
configured). Once the game is finished anyone may. Only one regeneration runs
at a time; a lock older than 60 seconds is ignored.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			player, err := requireIdentity()
			if err != nil {
				return err
			}
			return wire.Default().GameAdapter(cmd.OutOrStdout()).Regenerate(NewContext(), player, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Theme, "theme", "", "Theme hint for the new puzzle")
	cmd.Flags().StringVar(&opts.Genre, "genre", "", "Genre: honkaku or henkaku")
	cmd.Flags().StringVar(&opts.Difficulty, "difficulty", "", "Difficulty: easy, medium or hard")
	return cmd
}

// NewGameCmd returns the new-game command
func NewGameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "new-game",
		Short: "Reset scores, evidence and transcript without a new puzzle",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			player, err := requireIdentity()
			if err != nil {
				return err
			}
			return wire.Default().GameAdapter(cmd.OutOrStdout()).NewGame(NewContext(), player)
		},
	}
}
