// Package cli provides CLI commands for the soup client.
package cli

import (
	gocontext "context"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"

	cliadapter "github.com/example/soup/internal/adapters/cli"
	"github.com/example/soup/internal/app"
	"github.com/example/soup/internal/config"
	"github.com/example/soup/internal/ctxutil"
	"github.com/example/soup/internal/oracle"
	"github.com/example/soup/internal/wire"
)

// ErrAccessDenied is returned when the configured passcode is not supplied.
var ErrAccessDenied = errors.New("ACCESS DENIED")

// globalIdentity stores the local player identity for the current CLI invocation.
// Set once at startup by LoadIdentity().
var globalIdentity *config.Identity

// LoadIdentity reads the local identity and stores it globally.
// Should be called once at CLI startup in PersistentPreRun. A missing identity
// is not an error here; commands that need one call requireIdentity.
func LoadIdentity() error {
	dir, err := wire.Dir()
	if err != nil {
		return err
	}
	id, err := config.LoadIdentity(dir)
	if errors.Is(err, config.ErrNoIdentity) {
		return nil
	}
	if err != nil {
		return err
	}
	globalIdentity = id
	return nil
}

// NewContext creates a context.Background() with the local player embedded.
// CLI commands should use this instead of context.Background() directly.
func NewContext() gocontext.Context {
	ctx := gocontext.Background()
	if globalIdentity != nil {
		return ctxutil.WithActor(ctx, globalIdentity.PlayerID, globalIdentity.Name)
	}
	return ctx
}

func requireIdentity() (cliadapter.Player, error) {
	if globalIdentity == nil {
		return cliadapter.Player{}, config.ErrNoIdentity
	}
	return cliadapter.Player{ID: globalIdentity.PlayerID, Name: globalIdentity.Name}, nil
}

func setIdentity(id *config.Identity) {
	globalIdentity = id
}

// checkPasscode enforces the access gate when a passcode is configured.
func checkPasscode(cfg *config.Config, supplied string) error {
	if cfg.Game.Passcode == "" {
		return nil
	}
	if subtle.ConstantTimeCompare([]byte(cfg.Game.Passcode), []byte(supplied)) != 1 {
		return ErrAccessDenied
	}
	return nil
}

// Explain renders err for a player: local denials in yellow, oracle failures
// and everything else in red.
func Explain(w io.Writer, err error) {
	var denied *app.DeniedError
	switch {
	case errors.As(err, &denied):
		fmt.Fprintf(w, "%s %s\n", color.New(color.FgYellow).Sprint("DENIED:"), denied.Reason)
	case errors.Is(err, oracle.ErrGatewayFailure):
		fmt.Fprintf(w, "%s %v\n", color.New(color.FgRed).Sprint("TRANSMISSION ERROR:"), err)
	case errors.Is(err, config.ErrNoIdentity):
		fmt.Fprintln(w, err)
	default:
		fmt.Fprintf(w, "%s %v\n", color.New(color.FgRed).Sprint("ERROR:"), err)
	}
}
