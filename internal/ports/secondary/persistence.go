// Package secondary defines the secondary ports (driven adapters) for the application.
// These are the interfaces through which the application drives external systems.
package secondary

import (
	"context"
	"time"
)

// PlayerRepository defines the secondary port for player ledger records.
type PlayerRepository interface {
	// Get retrieves a player by ID, or ErrNotFound.
	Get(ctx context.Context, id string) (*PlayerRecord, error)

	// List retrieves every known player.
	List(ctx context.Context) ([]*PlayerRecord, error)

	// Register writes a fresh player record, replacing any existing one.
	Register(ctx context.Context, player *PlayerRecord) error

	// Heartbeat refreshes the liveness time of a player, recreating the record
	// with default budget and zero score when it is missing.
	// Reports whether the record had to be recreated.
	Heartbeat(ctx context.Context, id, name string, now time.Time) (bool, error)

	// ApplyVerdict adds scoreDelta and, when consumeQuery is set, spends one unit
	// of budget and restarts the cooldown at now. Read-modify-write, not atomic.
	ApplyVerdict(ctx context.Context, id string, scoreDelta int, consumeQuery bool, now time.Time) (*PlayerRecord, error)

	// Reset restores score, budget and cooldown to their defaults.
	Reset(ctx context.Context, id string) error
}

// PlayerRecord represents a player as stored in the document store.
type PlayerRecord struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Score       int       `json:"score"`
	QueryBudget int       `json:"query_budget"`
	LastQueryAt time.Time `json:"last_query_at"`
	LastSeenAt  time.Time `json:"last_seen_at"`
	JoinedAt    time.Time `json:"joined_at"`
}

// PuzzleRepository defines the secondary port for the puzzle singleton.
type PuzzleRepository interface {
	// Get retrieves the installed puzzle, or ErrNotFound when none is installed.
	Get(ctx context.Context) (*PuzzleRecord, error)

	// Install replaces the puzzle wholesale.
	Install(ctx context.Context, puzzle *PuzzleRecord) error
}

// PuzzleRecord represents the active mystery as stored.
type PuzzleRecord struct {
	Title       string     `json:"title"`
	Surface     string     `json:"surface"`
	Truth       string     `json:"truth"`
	Tags        PuzzleTags `json:"tags"`
	GeneratedBy string     `json:"generated_by"`
	GeneratedAt time.Time  `json:"generated_at"`
}

// PuzzleTags is the optional puzzle classification.
type PuzzleTags struct {
	Genre      string `json:"genre,omitempty"`
	HasDeath   bool   `json:"has_death"`
	Difficulty string `json:"difficulty,omitempty"`
}

// StatusRepository defines the secondary port for the game status singleton.
type StatusRepository interface {
	// Get retrieves the status, returning the initial PLAYING state when unset.
	Get(ctx context.Context) (*StatusRecord, error)

	// SetCompleteness writes the completeness value.
	SetCompleteness(ctx context.Context, value int, now time.Time) error

	// Finish marks the game FINISHED with winner.
	Finish(ctx context.Context, winner string, now time.Time) error

	// Reset restores {PLAYING, completeness 0, no winner}.
	Reset(ctx context.Context, now time.Time) error
}

// StatusRecord represents the game status as stored.
type StatusRecord struct {
	Status       string    `json:"status"`
	Completeness int       `json:"completeness"`
	Winner       string    `json:"winner"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// LockRepository defines the secondary port for the generation lock singleton.
// The lock is advisory: Acquire does not check the current holder.
type LockRepository interface {
	// Get retrieves the lock, returning a released lock when unset.
	Get(ctx context.Context) (*LockRecord, error)

	// Acquire writes held=true with holder and acquisition time.
	Acquire(ctx context.Context, holder string, now time.Time) error

	// Release writes held=false.
	Release(ctx context.Context) error
}

// LockRecord represents the generation lock as stored.
type LockRecord struct {
	Held       bool      `json:"held"`
	Holder     string    `json:"holder"`
	AcquiredAt time.Time `json:"acquired_at"`
}

// EvidenceRepository defines the secondary port for the evidence collection.
type EvidenceRepository interface {
	// Append adds an evidence item and returns its ID.
	Append(ctx context.Context, item *EvidenceRecord) (string, error)

	// List retrieves all evidence in unlock order.
	List(ctx context.Context) ([]*EvidenceRecord, error)

	// Clear removes all evidence.
	Clear(ctx context.Context) error
}

// EvidenceRecord represents one evidence item as stored.
type EvidenceRecord struct {
	ID         string    `json:"-"`
	Text       string    `json:"text"`
	UnlockedBy string    `json:"unlocked_by"`
	CreatedAt  time.Time `json:"created_at"`
}

// TranscriptRepository defines the secondary port for the transcript collection.
type TranscriptRepository interface {
	// Append adds an entry and returns its ID.
	Append(ctx context.Context, entry *TranscriptRecord) (string, error)

	// SetStatus moves an entry to a new lifecycle status.
	SetStatus(ctx context.Context, id, status string) error

	// Recent retrieves the last limit entries in append order (all when limit <= 0).
	Recent(ctx context.Context, limit int) ([]*TranscriptRecord, error)

	// Clear removes all entries.
	Clear(ctx context.Context) error
}

// TranscriptRecord represents one transcript entry as stored.
type TranscriptRecord struct {
	ID        string    `json:"-"`
	Text      string    `json:"text"`
	Sender    string    `json:"sender"`
	SenderID  string    `json:"sender_id"`
	Kind      string    `json:"kind"`
	Status    string    `json:"status,omitempty"`
	Tone      string    `json:"tone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ChangeFeed defines the secondary port for observing shared-state changes.
type ChangeFeed interface {
	// Watch delivers changes to fn in commit order until ctx is done. It blocks.
	Watch(ctx context.Context, fn func(ChangeRecord)) error
}

// ChangeRecord is one observed change, classified by the entity it touched.
type ChangeRecord struct {
	Key     string
	Kind    string // player, puzzle, status, lock, evidence, transcript
	Deleted bool
}
