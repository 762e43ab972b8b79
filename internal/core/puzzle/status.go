package puzzle

import "time"

// Status represents the state of the game.
type Status string

const (
	StatusPlaying  Status = "PLAYING"
	StatusFinished Status = "FINISHED"
)

// MaxCompleteness is the completeness value at which the game is won.
const MaxCompleteness = 100

// GameState is the core view of the game status singleton.
type GameState struct {
	Status       Status
	Completeness int
	Winner       string
	UpdatedAt    time.Time
}

// InitialState returns the status installed alongside every new puzzle.
func InitialState(now time.Time) GameState {
	return GameState{
		Status:       StatusPlaying,
		Completeness: 0,
		UpdatedAt:    now,
	}
}

// ClampCompleteness returns the completeness to store after a verdict reported
// `reported`. The stored value never decreases and stays within [0, 100].
func ClampCompleteness(stored, reported int) int {
	next := stored
	if reported > next {
		next = reported
	}
	if next < 0 {
		return 0
	}
	if next > MaxCompleteness {
		return MaxCompleteness
	}
	return next
}

// ShouldFinish reports whether a verdict ends the game.
func ShouldFinish(isCorrect bool, completeness int) bool {
	return isCorrect || completeness >= MaxCompleteness
}

// Finish returns the state after the game ended with winner.
func Finish(s GameState, winner string, now time.Time) GameState {
	s.Status = StatusFinished
	s.Winner = winner
	s.UpdatedAt = now
	return s
}
