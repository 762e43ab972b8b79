package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/example/soup/internal/ports/primary"
)

// GameAdapter is a thin adapter for puzzle lifecycle, roster and system log commands.
type GameAdapter struct {
	regen    primary.RegenerationService
	presence primary.PresenceService
	log      primary.LogService
	out      io.Writer
}

// NewGameAdapter creates a new GameAdapter with the given services.
func NewGameAdapter(regen primary.RegenerationService, presence primary.PresenceService, log primary.LogService, out io.Writer) *GameAdapter {
	return &GameAdapter{
		regen:    regen,
		presence: presence,
		log:      log,
		out:      out,
	}
}

// RegenerateOptions are the optional hints for a new puzzle.
type RegenerateOptions struct {
	Theme      string
	Genre      string
	Difficulty string
}

// Regenerate generates and installs a new puzzle.
func (a *GameAdapter) Regenerate(ctx context.Context, p Player, opts RegenerateOptions) error {
	fmt.Fprintln(a.out, dimColor.Sprint("GENERATING NEW PUZZLE..."))
	resp, err := a.regen.Regenerate(ctx, primary.RegenerateRequest{
		PlayerID:   p.ID,
		PlayerName: p.Name,
		Theme:      opts.Theme,
		Genre:      opts.Genre,
		Difficulty: opts.Difficulty,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s NEW PUZZLE LOADED: %s\n", okColor.Sprint("✓"), titleColor.Sprint(resp.Puzzle.Title))
	fmt.Fprintln(a.out, resp.Puzzle.Surface)
	return nil
}

// NewGame resets the session without generating a new puzzle.
func (a *GameAdapter) NewGame(ctx context.Context, p Player) error {
	if err := a.regen.NewGame(ctx, primary.NewGameRequest{PlayerID: p.ID, PlayerName: p.Name}); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s NEW GAME INITIALIZED. GOOD LUCK.\n", okColor.Sprint("✓"))
	return nil
}

// Roster prints players by score with their online state.
func (a *GameAdapter) Roster(ctx context.Context) error {
	roster, err := a.presence.Roster(ctx)
	if err != nil {
		return fmt.Errorf("failed to load roster: %w", err)
	}
	if len(roster) == 0 {
		fmt.Fprintln(a.out, "No players yet")
		return nil
	}

	fmt.Fprintf(a.out, "\n%-3s %-20s %-7s %-7s %s\n", "", "NAME", "SCORE", "BUDGET", "STATE")
	fmt.Fprintln(a.out, "────────────────────────────────────────────────────")
	for _, r := range roster {
		marker := dimColor.Sprint("○")
		state := dimColor.Sprint("offline")
		if r.Online {
			marker = okColor.Sprint("●")
			state = okColor.Sprint("online")
		}
		fmt.Fprintf(a.out, "%-3s %-20s %-7d %-7d %s\n", marker, r.Name, r.Score, r.QueryBudget, state)
	}
	fmt.Fprintln(a.out)
	return nil
}

// Log prints the most recent system log lines.
func (a *GameAdapter) Log(ctx context.Context, limit int) error {
	lines, err := a.log.Recent(ctx, limit)
	if err != nil {
		return err
	}
	if len(lines) == 0 {
		fmt.Fprintln(a.out, "System log is empty")
		return nil
	}
	for _, l := range lines {
		switch l.Level {
		case "error":
			fmt.Fprintln(a.out, errColor.Sprint(l.String()))
		case "warn":
			fmt.Fprintln(a.out, warnColor.Sprint(l.String()))
		default:
			fmt.Fprintln(a.out, l.String())
		}
	}
	return nil
}
