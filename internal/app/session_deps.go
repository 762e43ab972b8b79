package app

import (
	"context"
	"errors"
	"time"

	"github.com/example/soup/internal/core/presence"
	"github.com/example/soup/internal/ctxutil"
	"github.com/example/soup/internal/ports/primary"
	"github.com/example/soup/internal/ports/secondary"
)

// ErrValidationDenied is matched by every local rejection.
var ErrValidationDenied = errors.New("validation denied")

// DeniedError is a local rejection that never reached the oracle.
type DeniedError struct {
	Reason string
}

func (e *DeniedError) Error() string { return e.Reason }

// Unwrap lets errors.Is match ErrValidationDenied.
func (e *DeniedError) Unwrap() error { return ErrValidationDenied }

func denied(reason string) error {
	return &DeniedError{Reason: reason}
}

// SessionRepos groups the shared-state repositories one client works against.
type SessionRepos struct {
	Players    secondary.PlayerRepository
	Puzzle     secondary.PuzzleRepository
	Status     secondary.StatusRepository
	Lock       secondary.LockRepository
	Evidence   secondary.EvidenceRepository
	Transcript secondary.TranscriptRepository
}

// SessionConfig holds the per-client session settings.
type SessionConfig struct {
	AdminID        string
	Persona        string
	PresenceWindow time.Duration
	// Now overrides the clock. Defaults to time.Now.
	Now func() time.Time
}

func (c SessionConfig) withDefaults() SessionConfig {
	if c.PresenceWindow <= 0 {
		c.PresenceWindow = presence.DefaultWindow
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

// withActor scopes ctx to the player unless an actor is already set.
func withActor(ctx context.Context, id, name string) context.Context {
	if ctxutil.ActorFromContext(ctx) != "" {
		return ctx
	}
	return ctxutil.WithActor(ctx, id, name)
}

func recordToPlayer(r *secondary.PlayerRecord) *primary.Player {
	return &primary.Player{
		ID:          r.ID,
		Name:        r.Name,
		Score:       r.Score,
		QueryBudget: r.QueryBudget,
		LastQueryAt: r.LastQueryAt,
		LastSeenAt:  r.LastSeenAt,
	}
}

func recordsToPresence(records []*secondary.PlayerRecord) []presence.Player {
	players := make([]presence.Player, len(records))
	for i, r := range records {
		players[i] = presence.Player{
			ID:         r.ID,
			Name:       r.Name,
			Score:      r.Score,
			Budget:     r.QueryBudget,
			LastSeenAt: r.LastSeenAt,
		}
	}
	return players
}

func membersToRoster(members []presence.Member) []*primary.RosterEntry {
	roster := make([]*primary.RosterEntry, len(members))
	for i, m := range members {
		roster[i] = &primary.RosterEntry{
			PlayerID:    m.ID,
			Name:        m.Name,
			Score:       m.Score,
			QueryBudget: m.Budget,
			LastSeenAt:  m.LastSeenAt,
			Online:      m.Online,
		}
	}
	return roster
}
