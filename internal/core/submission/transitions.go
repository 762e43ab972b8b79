// Package submission contains the pure business logic for judging a player's
// submission: gates, the submission lifecycle and the verdict planner.
// This is part of the Functional Core - no I/O, only pure functions.
package submission

import "strings"

// Mode is how a submission is judged.
type Mode string

const (
	// ModeQuery is a yes/no question. It costs one unit of budget once judged.
	ModeQuery Mode = "QUERY"
	// ModeSolve is an attempt at the full truth.
	ModeSolve Mode = "SOLVE"
)

// ParseMode converts user input into a Mode.
func ParseMode(s string) (Mode, bool) {
	switch Mode(strings.ToUpper(strings.TrimSpace(s))) {
	case ModeQuery:
		return ModeQuery, true
	case ModeSolve:
		return ModeSolve, true
	default:
		return "", false
	}
}

// State represents the lifecycle of one submission.
type State string

const (
	StateCreated          State = "CREATED"
	StateOptimisticPosted State = "OPTIMISTIC_POSTED"
	StateJudged           State = "JUDGED"
	StateApplied          State = "APPLIED"
	StateFailed           State = "FAILED"
	// StateDenied is reached when a local gate rejects the submission before any I/O.
	StateDenied State = "DENIED"
)

var transitions = map[State][]State{
	StateCreated:          {StateOptimisticPosted, StateDenied},
	StateOptimisticPosted: {StateJudged, StateFailed},
	StateJudged:           {StateApplied, StateFailed},
}

// CanTransition reports whether a submission may move from one state to another.
func CanTransition(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is possible.
func IsTerminal(s State) bool {
	return len(transitions[s]) == 0
}

// Transcript entry kinds.
const (
	KindQuestion = "question"
	KindAttempt  = "attempt"
	KindSystem   = "system"
	KindAI       = "ai"
)

// Transcript entry lifecycle statuses.
const (
	EntryPending  = "pending"
	EntryResolved = "resolved"
	EntryFailed   = "failed"
)

// Reply tones.
const (
	ToneInfo    = "info"
	ToneSuccess = "success"
	ToneError   = "error"
)

// OracleSender is the display name attached to oracle replies.
const OracleSender = "CORE_AI"

// OracleSenderID identifies oracle replies in the transcript.
const OracleSenderID = "AI"

// SystemSender identifies coordinator-authored transcript entries.
const SystemSender = "SYSTEM"

// KindFor returns the transcript kind used for a submission in mode m.
func KindFor(m Mode) string {
	if m == ModeSolve {
		return KindAttempt
	}
	return KindQuestion
}
