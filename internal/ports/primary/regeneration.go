package primary

import "context"

// RegenerationService defines the primary port for puzzle lifecycle operations.
type RegenerationService interface {
	// Regenerate takes the generation lock, clears the session and installs a new puzzle.
	Regenerate(ctx context.Context, req RegenerateRequest) (*RegenerateResponse, error)

	// NewGame clears the session and resets the status without a new puzzle.
	NewGame(ctx context.Context, req NewGameRequest) error
}

// RegenerateRequest contains parameters for regenerating the puzzle.
type RegenerateRequest struct {
	PlayerID   string
	PlayerName string
	Theme      string
	Genre      string
	Difficulty string
}

// RegenerateResponse contains the installed puzzle (truth redacted).
type RegenerateResponse struct {
	Puzzle *Puzzle
	// Shared is true when the call joined a regeneration already in flight in this process.
	Shared bool
}

// NewGameRequest contains parameters for resetting the session.
type NewGameRequest struct {
	PlayerID   string
	PlayerName string
}
