package primary

import (
	"context"
	"time"
)

// SessionService defines the primary port for one client's view of the shared session.
type SessionService interface {
	// Join registers the player under a display name not held by another online player.
	Join(ctx context.Context, req JoinRequest) (*JoinResponse, error)

	// Heartbeat refreshes the player's liveness, re-registering a missing record.
	Heartbeat(ctx context.Context, req HeartbeatRequest) (*HeartbeatResponse, error)

	// Submit runs one query, solve attempt or reserved command end-to-end.
	Submit(ctx context.Context, req SubmitRequest) (*SubmitResponse, error)

	// State returns a snapshot of the shared session.
	State(ctx context.Context) (*SessionState, error)

	// Watch delivers shared-state changes to fn until ctx is done.
	Watch(ctx context.Context, fn func(ChangeEvent)) error
}

// JoinRequest contains parameters for joining the session.
type JoinRequest struct {
	PlayerID string
	Name     string
}

// JoinResponse contains the registered player.
type JoinResponse struct {
	Player *Player
}

// HeartbeatRequest contains parameters for a liveness pulse.
type HeartbeatRequest struct {
	PlayerID string
	Name     string
}

// HeartbeatResponse reports whether the player record had to be recreated.
type HeartbeatResponse struct {
	Restored bool
}

// SubmitRequest contains parameters for a submission.
type SubmitRequest struct {
	PlayerID string
	Input    string
	Mode     string // QUERY or SOLVE
}

// SubmitResponse describes the outcome of a submission that reached the oracle
// or ran a reserved command.
type SubmitResponse struct {
	State        string // APPLIED for judged submissions and commands
	EntryID      string
	Answer       string
	FlavorText   string
	Filtered     bool
	Correct      bool
	Accuracy     int
	Missing      []string
	ScoreDelta   int
	Completeness int
	Evidence     string
	Finished     bool
	Winner       string
	Skipped      bool
}

// SessionState is a snapshot of the shared session.
// The puzzle truth is only populated once the game is finished.
type SessionState struct {
	Puzzle     *Puzzle
	Status     *GameStatus
	Lock       *GenerationLock
	Evidence   []*Evidence
	Transcript []*TranscriptEntry
	Roster     []*RosterEntry
}

// Player represents a player at the port boundary.
type Player struct {
	ID          string
	Name        string
	Score       int
	QueryBudget int
	LastQueryAt time.Time
	LastSeenAt  time.Time
}

// Puzzle represents the active mystery at the port boundary.
type Puzzle struct {
	Title       string
	Surface     string
	Truth       string
	Genre       string
	HasDeath    bool
	Difficulty  string
	GeneratedBy string
	GeneratedAt time.Time
	Demo        bool
}

// GameStatus represents the game status at the port boundary.
type GameStatus struct {
	Status       string
	Completeness int
	Winner       string
	UpdatedAt    time.Time
}

// GenerationLock represents the regeneration lock at the port boundary.
type GenerationLock struct {
	Held       bool
	Holder     string
	AcquiredAt time.Time
	Stale      bool
}

// Evidence represents an evidence item at the port boundary.
type Evidence struct {
	ID         string
	Text       string
	UnlockedBy string
}

// TranscriptEntry represents a transcript entry at the port boundary.
type TranscriptEntry struct {
	ID        string
	Text      string
	Sender    string
	SenderID  string
	Kind      string
	Status    string
	Tone      string
	CreatedAt time.Time
}

// ChangeEvent is one shared-state change observed by Watch.
type ChangeEvent struct {
	Key     string
	Kind    string // player, puzzle, status, lock, evidence, transcript
	Deleted bool
}
