package cli

import (
	"github.com/spf13/cobra"

	cliadapter "github.com/example/soup/internal/adapters/cli"
	"github.com/example/soup/internal/config"
	"github.com/example/soup/internal/ctxutil"
	"github.com/example/soup/internal/wire"
)

// JoinCmd returns the join command
func JoinCmd() *cobra.Command {
	var passcode string

	cmd := &cobra.Command{
		Use:   "join <name>",
		Short: "Join the shared session under a display name",
		Long: `Register this client in the shared session.

The first join creates a local identity (~/.soup/identity.json) that stays
stable across restarts; later joins only change the display name. A name held
by another online player is refused.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := wire.Default()
			if err := checkPasscode(svc.Config, passcode); err != nil {
				return err
			}
			player, err := joinAs(args[0])
			if err != nil {
				return err
			}
			return svc.SessionAdapter(cmd.OutOrStdout()).Join(ctxutil.WithActor(cmd.Context(), player.ID, player.Name), player)
		},
	}

	cmd.Flags().StringVar(&passcode, "passcode", "", "Access passcode, when the session requires one")
	return cmd
}

// joinAs loads or creates the local identity under name and stores it globally.
func joinAs(name string) (cliadapter.Player, error) {
	dir, err := wire.Dir()
	if err != nil {
		return cliadapter.Player{}, err
	}
	id, err := config.LoadOrCreateIdentity(dir, name)
	if err != nil {
		return cliadapter.Player{}, err
	}
	setIdentity(id)
	return cliadapter.Player{ID: id.PlayerID, Name: id.Name}, nil
}
