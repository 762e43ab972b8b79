package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/fatih/color"

	cliadapter "github.com/example/soup/internal/adapters/cli"
	"github.com/example/soup/internal/app"
	"github.com/example/soup/internal/config"
	"github.com/example/soup/internal/oracle"
)

func init() {
	color.NoColor = true
}

func TestParseLine(t *testing.T) {
	tests := []struct {
		line   string
		want   replAction
		wantOK bool
	}{
		{"", replAction{}, false},
		{"   ", replAction{}, false},
		{"Was he alone?", replAction{Command: "ask", Arg: "Was he alone?"}, true},
		{"/ask  Was it night? ", replAction{Command: "ask", Arg: "Was it night?"}, true},
		{"/solve He ate his friend.", replAction{Command: "solve", Arg: "He ate his friend."}, true},
		{"/S short form", replAction{Command: "solve", Arg: "short form"}, true},
		{"/skip", replAction{Command: "skip"}, true},
		{"  /SKIP ", replAction{Command: "skip"}, true},
		{"/status", replAction{Command: "status"}, true},
		{"/who", replAction{Command: "roster"}, true},
		{"/log", replAction{Command: "log"}, true},
		{"/regen sea", replAction{Command: "regen", Arg: "sea"}, true},
		{"/new", replAction{Command: "new"}, true},
		{"/quit", replAction{Command: "quit"}, true},
		{"/dance", replAction{Command: "help"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, ok := parseLine(tt.line)
			if ok != tt.wantOK {
				t.Fatalf("parseLine(%q) ok = %v, want %v", tt.line, ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("parseLine(%q) = %+v, want %+v", tt.line, got, tt.want)
			}
		})
	}
}

func TestCheckPasscode(t *testing.T) {
	cfg := config.Default(t.TempDir())
	if err := checkPasscode(cfg, ""); err != nil {
		t.Errorf("no passcode configured should allow, got %v", err)
	}

	cfg.Game.Passcode = "8888"
	if err := checkPasscode(cfg, "8888"); err != nil {
		t.Errorf("correct passcode should allow, got %v", err)
	}
	if err := checkPasscode(cfg, "1234"); !errors.Is(err, ErrAccessDenied) {
		t.Errorf("expected ErrAccessDenied, got %v", err)
	}
}

func TestExplain(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"denied", fmt.Errorf("wrapped: %w", &app.DeniedError{Reason: "COOLDOWN ACTIVE. PLEASE WAIT 3s"}), "DENIED: COOLDOWN ACTIVE. PLEASE WAIT 3s"},
		{"gateway", fmt.Errorf("submission failed: %w", oracle.ErrGatewayFailure), "TRANSMISSION ERROR:"},
		{"no identity", config.ErrNoIdentity, "soup join"},
		{"other", errors.New("disk full"), "ERROR: disk full"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			Explain(&out, tt.err)
			if !strings.Contains(out.String(), tt.want) {
				t.Errorf("Explain() = %q, want it to contain %q", out.String(), tt.want)
			}
		})
	}
}

func TestRequireIdentity(t *testing.T) {
	setIdentity(nil)
	if _, err := requireIdentity(); !errors.Is(err, config.ErrNoIdentity) {
		t.Fatalf("expected ErrNoIdentity, got %v", err)
	}

	setIdentity(&config.Identity{PlayerID: "p1", Name: "Alice"})
	defer setIdentity(nil)
	p, err := requireIdentity()
	if err != nil {
		t.Fatalf("requireIdentity failed: %v", err)
	}
	if p != (cliadapter.Player{ID: "p1", Name: "Alice"}) {
		t.Errorf("unexpected player %+v", p)
	}
	if ctx := NewContext(); ctx == context.Background() {
		t.Error("expected actor to be attached to the context")
	}
}
