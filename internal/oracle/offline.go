package oracle

import (
	"context"

	"github.com/example/soup/internal/core/puzzle"
	"github.com/example/soup/internal/core/submission"
	"github.com/example/soup/internal/ports/secondary"
)

// Offline is a deterministic oracle used when no API key is configured.
// It never confirms anything, so the game stays playable but unwinnable
// by deduction alone.
type Offline struct{}

var _ secondary.Oracle = Offline{}

// Judge answers every question as irrelevant and rejects every theory.
func (Offline) Judge(ctx context.Context, req *secondary.JudgeRequest) (*secondary.Verdict, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if submission.Mode(req.Mode) == submission.ModeSolve {
		return &secondary.Verdict{
			FlavorText:   ">> OFFLINE ORACLE: THEORY NOT CONFIRMED.",
			Completeness: req.Completeness,
		}, nil
	}
	return &secondary.Verdict{
		Answer:       "Irrelevant",
		FlavorText:   ">> OFFLINE ORACLE: NO DATA.",
		Completeness: req.Completeness,
	}, nil
}

// Generate returns the built-in demo puzzle.
func (Offline) Generate(ctx context.Context, _ *secondary.GenerateRequest) (*secondary.GeneratedPuzzle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &secondary.GeneratedPuzzle{
		Title:   puzzle.Demo.Title,
		Surface: puzzle.Demo.Surface,
		Truth:   puzzle.Demo.Truth,
		Tags: secondary.PuzzleTags{
			Genre:      puzzle.Demo.Tags.Genre,
			HasDeath:   puzzle.Demo.Tags.HasDeath,
			Difficulty: puzzle.Demo.Tags.Difficulty,
		},
	}, nil
}
