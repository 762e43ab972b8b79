// Package cli provides thin CLI adapters that translate between CLI concerns
// and application services. Adapters handle argument parsing, output formatting,
// but delegate business logic to services.
package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/example/soup/internal/core/submission"
	"github.com/example/soup/internal/ports/primary"
)

var (
	okColor     = color.New(color.FgGreen)
	errColor    = color.New(color.FgRed)
	warnColor   = color.New(color.FgYellow)
	oracleColor = color.New(color.FgCyan)
	dimColor    = color.New(color.Faint)
	titleColor  = color.New(color.FgHiMagenta, color.Bold)
)

// Player identifies the local player for adapter calls.
type Player struct {
	ID   string
	Name string
}

// SessionAdapter is a thin adapter that translates CLI operations to session service calls.
// It depends only on the primary port interfaces, enabling easy testing with mocks.
type SessionAdapter struct {
	session primary.SessionService
	out     io.Writer
}

// NewSessionAdapter creates a new SessionAdapter with the given service.
func NewSessionAdapter(session primary.SessionService, out io.Writer) *SessionAdapter {
	return &SessionAdapter{
		session: session,
		out:     out,
	}
}

// Join registers the player in the shared session.
func (a *SessionAdapter) Join(ctx context.Context, p Player) error {
	resp, err := a.session.Join(ctx, primary.JoinRequest{PlayerID: p.ID, Name: p.Name})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s Connected as %s (budget %d, score %d)\n",
		okColor.Sprint("✓"), resp.Player.Name, resp.Player.QueryBudget, resp.Player.Score)
	return nil
}

// Heartbeat sends one liveness pulse.
func (a *SessionAdapter) Heartbeat(ctx context.Context, p Player) error {
	resp, err := a.session.Heartbeat(ctx, primary.HeartbeatRequest{PlayerID: p.ID, Name: p.Name})
	if err != nil {
		return err
	}
	if resp.Restored {
		fmt.Fprintln(a.out, warnColor.Sprint("CONNECTION RESTORED."))
	}
	return nil
}

// Ask submits a yes/no question.
func (a *SessionAdapter) Ask(ctx context.Context, p Player, text string) error {
	return a.submit(ctx, p, text, string(submission.ModeQuery))
}

// Solve submits a full solution attempt.
func (a *SessionAdapter) Solve(ctx context.Context, p Player, text string) error {
	return a.submit(ctx, p, text, string(submission.ModeSolve))
}

// Skip ends the game and reveals the truth.
func (a *SessionAdapter) Skip(ctx context.Context, p Player) error {
	return a.submit(ctx, p, submission.SkipCommand, "")
}

func (a *SessionAdapter) submit(ctx context.Context, p Player, text, mode string) error {
	resp, err := a.session.Submit(ctx, primary.SubmitRequest{PlayerID: p.ID, Input: text, Mode: mode})
	if err != nil {
		return err
	}
	a.printResult(resp)
	return nil
}

func (a *SessionAdapter) printResult(resp *primary.SubmitResponse) {
	switch {
	case resp.Skipped:
		fmt.Fprintln(a.out, warnColor.Sprint(">> [OVERRIDE] FORCE SKIP DETECTED. REVEALING TRUTH..."))
	case resp.Filtered:
		fmt.Fprintln(a.out, errColor.Sprint(orDefault(resp.FlavorText, ">> [REJECTED] Query violates protocol.")))
		return
	default:
		label := resp.Answer
		if label == "" {
			label = "INCORRECT"
			if resp.Correct {
				label = "CORRECT"
			}
		}
		fmt.Fprintf(a.out, "%s %s\n", oracleColor.Sprintf("[%s]", label), resp.FlavorText)
		if len(resp.Missing) > 0 {
			fmt.Fprintf(a.out, "  missing: %s\n", strings.Join(resp.Missing, "; "))
		}
		if resp.ScoreDelta > 0 {
			fmt.Fprintf(a.out, "  %s\n", okColor.Sprintf("+%d PTS", resp.ScoreDelta))
		}
		if resp.Evidence != "" {
			fmt.Fprintf(a.out, "  %s %s\n", warnColor.Sprint("EVIDENCE:"), resp.Evidence)
		}
		fmt.Fprintf(a.out, "  completeness: %d%%\n", resp.Completeness)
	}
	if resp.Finished {
		fmt.Fprintf(a.out, "%s %s\n", titleColor.Sprint("CASE CLOSED BY"), resp.Winner)
	}
}

// Status prints the shared session snapshot.
func (a *SessionAdapter) Status(ctx context.Context) error {
	state, err := a.session.State(ctx)
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}

	p := state.Puzzle
	title := p.Title
	if p.Demo {
		title += " (demo)"
	}
	fmt.Fprintf(a.out, "\n%s\n", titleColor.Sprint(title))
	fmt.Fprintf(a.out, "%s\n", p.Surface)
	if p.Genre != "" || p.Difficulty != "" {
		fmt.Fprintf(a.out, "%s\n", dimColor.Sprintf("genre: %s  death: %t  difficulty: %s", orDefault(p.Genre, "-"), p.HasDeath, orDefault(p.Difficulty, "-")))
	}

	fmt.Fprintf(a.out, "\nStatus:       %s\n", state.Status.Status)
	fmt.Fprintf(a.out, "Completeness: %d%%\n", state.Status.Completeness)
	if state.Status.Winner != "" {
		fmt.Fprintf(a.out, "Winner:       %s\n", state.Status.Winner)
	}
	if p.Truth != "" {
		fmt.Fprintf(a.out, "Truth:        %s\n", p.Truth)
	}
	if state.Lock.Held {
		note := ""
		if state.Lock.Stale {
			note = " (stale)"
		}
		fmt.Fprintf(a.out, "Generation:   %s\n", warnColor.Sprintf("locked by %s%s", state.Lock.Holder, note))
	}

	if len(state.Evidence) > 0 {
		fmt.Fprintln(a.out, "\nEvidence:")
		for i, e := range state.Evidence {
			fmt.Fprintf(a.out, "  %d. %s %s\n", i+1, e.Text, dimColor.Sprintf("(%s)", e.UnlockedBy))
		}
	}

	if len(state.Transcript) > 0 {
		fmt.Fprintln(a.out, "\nTranscript:")
		for _, t := range state.Transcript {
			a.PrintEntry(t)
		}
	}
	fmt.Fprintln(a.out)
	return nil
}

// PrintEntry prints one transcript line.
func (a *SessionAdapter) PrintEntry(t *primary.TranscriptEntry) {
	stamp := dimColor.Sprint(t.CreatedAt.Format("15:04:05"))
	text := t.Text
	switch {
	case t.Status == submission.EntryFailed:
		text = errColor.Sprintf("%s [failed]", t.Text)
	case t.Status == submission.EntryPending:
		text = dimColor.Sprintf("%s ...", t.Text)
	case t.Tone == submission.ToneError:
		text = errColor.Sprint(t.Text)
	case t.Tone == submission.ToneSuccess:
		text = okColor.Sprint(t.Text)
	case t.Kind == submission.KindAI:
		text = oracleColor.Sprint(t.Text)
	}
	fmt.Fprintf(a.out, "  %s %-10s %s\n", stamp, t.Sender, text)
}

// PrintChange prints one shared-state change notification.
func (a *SessionAdapter) PrintChange(e primary.ChangeEvent) {
	verb := "updated"
	if e.Deleted {
		verb = "cleared"
	}
	fmt.Fprintf(a.out, "%s\n", dimColor.Sprintf("* %s %s (%s)", e.Kind, verb, time.Now().Format("15:04:05")))
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
