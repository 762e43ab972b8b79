package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	cliadapter "github.com/example/soup/internal/adapters/cli"
	"github.com/example/soup/internal/adapters/persistence"
	"github.com/example/soup/internal/core/submission"
	"github.com/example/soup/internal/ctxutil"
	"github.com/example/soup/internal/ports/primary"
	"github.com/example/soup/internal/wire"
)

// replAction is one parsed line of interactive input.
type replAction struct {
	Command string // ask, solve, skip, status, roster, log, regen, new, help, quit
	Arg     string
}

// parseLine maps a REPL line to an action. Plain text is a question.
func parseLine(line string) (replAction, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return replAction{}, false
	}
	if submission.IsReservedCommand(line) {
		return replAction{Command: "skip"}, true
	}
	if !strings.HasPrefix(line, "/") {
		return replAction{Command: "ask", Arg: line}, true
	}

	word, rest, _ := strings.Cut(line[1:], " ")
	rest = strings.TrimSpace(rest)
	switch strings.ToLower(word) {
	case "ask", "q":
		return replAction{Command: "ask", Arg: rest}, true
	case "solve", "s":
		return replAction{Command: "solve", Arg: rest}, true
	case "status":
		return replAction{Command: "status"}, true
	case "roster", "who":
		return replAction{Command: "roster"}, true
	case "log":
		return replAction{Command: "log"}, true
	case "regen", "regenerate":
		return replAction{Command: "regen", Arg: rest}, true
	case "new", "new-game":
		return replAction{Command: "new"}, true
	case "quit", "exit":
		return replAction{Command: "quit"}, true
	default:
		return replAction{Command: "help"}, true
	}
}

const replHelp = `Commands:
  <text>            ask a yes/no question
  /solve <text>     submit a solution attempt
  /skip             end the game (administrator)
  /status /roster /log
  /regen [theme]    generate a new puzzle
  /new              reset the session
  /quit`

// lockedWriter serializes writes from the REPL, watcher and heartbeat loops.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

// PlayCmd returns the play command
func PlayCmd() *cobra.Command {
	var (
		passcode    string
		name        string
		metricsAddr string
	)

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Interactive session: live transcript, heartbeat and line input",
		Long: `Join the session and play interactively.

Keeps this player online with a periodic heartbeat, prints transcript entries
from every client as they land, and reads questions from standard input.
Type /help for commands.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := wire.Default()
			if err := checkPasscode(svc.Config, passcode); err != nil {
				return err
			}

			var player cliadapter.Player
			var err error
			if name != "" {
				player, err = joinAs(name)
			} else {
				player, err = requireIdentity()
			}
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			ctx = ctxutil.WithActor(ctx, player.ID, player.Name)

			out := &lockedWriter{w: cmd.OutOrStdout()}
			session := svc.SessionAdapter(out)
			game := svc.GameAdapter(out)

			if err := session.Join(ctx, player); err != nil {
				return err
			}
			if err := session.Status(ctx); err != nil {
				return err
			}

			if metricsAddr != "" {
				srv := &http.Server{Addr: metricsAddr, Handler: metricsMux(svc), ReadHeaderTimeout: 5 * time.Second}
				go func() {
					if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						svc.Logger.Warn("metrics server stopped", "addr", metricsAddr, "error", err)
					}
				}()
				defer srv.Shutdown(context.Background())
			}

			var wg sync.WaitGroup
			wg.Add(2)
			go func() {
				defer wg.Done()
				heartbeatLoop(ctx, session, player, svc.Config.Game.HeartbeatInterval, svc.Logger.Warn)
			}()
			go func() {
				defer wg.Done()
				watchTranscript(ctx, svc.Session, session, svc.Logger.Warn)
			}()

			err = readLoop(ctx, cmd.InOrStdin(), out, session, game, player)
			stop()
			wg.Wait()
			return err
		},
	}

	cmd.Flags().StringVar(&passcode, "passcode", "", "Access passcode, when the session requires one")
	cmd.Flags().StringVar(&name, "name", "", "Join under this display name first")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9100)")
	return cmd
}

func metricsMux(svc *wire.Services) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", svc.Metrics.Handler())
	return mux
}

func heartbeatLoop(ctx context.Context, session *cliadapter.SessionAdapter, player cliadapter.Player, interval time.Duration, warn func(string, ...any)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := session.Heartbeat(ctx, player); err != nil && ctx.Err() == nil {
				warn("heartbeat failed", "error", err)
			}
		}
	}
}

// watchTranscript prints transcript entries that landed since the last print.
func watchTranscript(ctx context.Context, svc primary.SessionService, session *cliadapter.SessionAdapter, warn func(string, ...any)) {
	seen := make(map[string]string)
	if state, err := svc.State(ctx); err == nil {
		for _, t := range state.Transcript {
			seen[t.ID] = t.Status
		}
	}

	err := svc.Watch(ctx, func(e primary.ChangeEvent) {
		switch e.Kind {
		case persistence.KindTranscript:
		case persistence.KindPuzzle, persistence.KindStatus:
			session.PrintChange(e)
			return
		default:
			return
		}
		state, err := svc.State(ctx)
		if err != nil {
			warn("failed to refresh transcript", "error", err)
			return
		}
		for _, t := range state.Transcript {
			if t.Status == submission.EntryPending {
				continue
			}
			if status, ok := seen[t.ID]; ok && status == t.Status {
				continue
			}
			seen[t.ID] = t.Status
			session.PrintEntry(t)
		}
	})
	if err != nil && ctx.Err() == nil {
		warn("change feed stopped", "error", err)
	}
}

func readLoop(ctx context.Context, in io.Reader, out io.Writer, session *cliadapter.SessionAdapter, game *cliadapter.GameAdapter, player cliadapter.Player) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		fmt.Fprint(out, "> ")
		var line string
		select {
		case <-ctx.Done():
			fmt.Fprintln(out)
			return nil
		case l, ok := <-lines:
			if !ok {
				return nil
			}
			line = l
		}

		action, ok := parseLine(line)
		if !ok {
			continue
		}
		var err error
		switch action.Command {
		case "ask":
			err = session.Ask(ctx, player, action.Arg)
		case "solve":
			err = session.Solve(ctx, player, action.Arg)
		case "skip":
			err = session.Skip(ctx, player)
		case "status":
			err = session.Status(ctx)
		case "roster":
			err = game.Roster(ctx)
		case "log":
			err = game.Log(ctx, 0)
		case "regen":
			err = game.Regenerate(ctx, player, cliadapter.RegenerateOptions{Theme: action.Arg})
		case "new":
			err = game.NewGame(ctx, player)
		case "quit":
			return nil
		default:
			fmt.Fprintln(out, replHelp)
		}
		if err != nil {
			Explain(out, err)
		}
	}
}
