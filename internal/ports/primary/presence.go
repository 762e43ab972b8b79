package primary

import (
	"context"
	"time"
)

// PresenceService defines the primary port for the roster projection.
type PresenceService interface {
	// Roster lists players by score with their online flag.
	Roster(ctx context.Context) ([]*RosterEntry, error)
}

// RosterEntry represents one roster line at the port boundary.
type RosterEntry struct {
	PlayerID    string
	Name        string
	Score       int
	QueryBudget int
	LastSeenAt  time.Time
	Online      bool
}
