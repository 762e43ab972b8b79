// Package effects defines effect types as data structures representing I/O operations.
// This is the foundation of the Functional Core / Imperative Shell pattern.
// Effects are pure data - they describe what should happen, not how.
package effects

import "time"

// Effect is the base interface for all effects.
// Effects represent I/O operations as data that can be interpreted by the shell.
type Effect interface {
	// EffectType returns a string identifier for the effect type.
	EffectType() string
}

// LogEffect represents a line for the rolling system log.
type LogEffect struct {
	Level   string
	Message string
	Fields  map[string]any
}

func (e LogEffect) EffectType() string { return "log" }

// PersistEffect represents a write against the shared session state.
type PersistEffect struct {
	Entity    string // e.g., "player", "status", "evidence", "transcript"
	Operation string // e.g., "apply_verdict", "set_completeness", "append"
	Data      any    // One of the *Data payloads below
}

func (e PersistEffect) EffectType() string { return "persist" }

// Entity names understood by the executor.
const (
	EntityPlayer     = "player"
	EntityStatus     = "status"
	EntityEvidence   = "evidence"
	EntityTranscript = "transcript"
)

// Operation names understood by the executor.
const (
	OpApplyVerdict    = "apply_verdict"
	OpSetCompleteness = "set_completeness"
	OpFinish          = "finish"
	OpAppend          = "append"
	OpSetStatus       = "set_status"
)

// PlayerVerdictData settles a judged submission on one player record.
type PlayerVerdictData struct {
	PlayerID     string
	ScoreDelta   int
	ConsumeQuery bool
	At           time.Time
}

// CompletenessData carries the clamped completeness to store.
type CompletenessData struct {
	Value int
	At    time.Time
}

// FinishData ends the game with a winner label.
type FinishData struct {
	Winner string
	At     time.Time
}

// EvidenceData appends one evidence item.
type EvidenceData struct {
	Text       string
	UnlockedBy string
	At         time.Time
}

// TranscriptData appends one transcript entry.
type TranscriptData struct {
	Text     string
	Sender   string
	SenderID string
	Kind     string
	Status   string
	Tone     string
	At       time.Time
}

// TranscriptStatusData moves an existing transcript entry to a new lifecycle status.
type TranscriptStatusData struct {
	EntryID string
	Status  string
}

// CompositeEffect holds multiple effects to be executed in sequence.
type CompositeEffect struct {
	Effects []Effect
}

func (e CompositeEffect) EffectType() string { return "composite" }

// NoEffect represents an operation that produces no side effects.
type NoEffect struct{}

func (e NoEffect) EffectType() string { return "none" }
