package oracle

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/example/soup/internal/core/puzzle"
	"github.com/example/soup/internal/core/submission"
	"github.com/example/soup/internal/ports/secondary"
)

var schemaValidate = validator.New()

// filterProbe reads only the filter flag so a filtered reply can skip the mode schema.
type filterProbe struct {
	IsFiltered bool   `json:"is_filtered"`
	FlavorText string `json:"flavor_text"`
}

// queryVerdict is the wire schema for a QUERY judgment.
type queryVerdict struct {
	Answer       *string `json:"answer" validate:"required,oneof=Yes No Irrelevant Partially"`
	FlavorText   string  `json:"flavor_text"`
	ScoreDelta   *int    `json:"score_delta" validate:"required,gte=0,lte=7"`
	NewEvidence  *string `json:"new_evidence"`
	Completeness *int    `json:"completeness_percent" validate:"required,gte=0,lte=100"`
}

// solveVerdict is the wire schema for a SOLVE judgment.
type solveVerdict struct {
	IsCorrect       *bool    `json:"is_correct" validate:"required"`
	Accuracy        *int     `json:"accuracy_percent" validate:"required,gte=0,lte=100"`
	ScoreDelta      *int     `json:"score_delta" validate:"required,oneof=0 8 9 10"`
	FlavorText      string   `json:"flavor_text"`
	MissingElements []string `json:"missing_elements"`
	Completeness    *int     `json:"completeness_percent" validate:"required,gte=0,lte=100"`
}

// generatedPuzzle is the wire schema for a new puzzle.
type generatedPuzzle struct {
	Title   string      `json:"title" validate:"required"`
	Surface string      `json:"soup_surface" validate:"required"`
	Truth   string      `json:"soup_base" validate:"required"`
	Tags    *puzzleTags `json:"tags" validate:"required"`
}

type puzzleTags struct {
	Genre      string `json:"genre"`
	HasDeath   bool   `json:"has_death"`
	Difficulty string `json:"difficulty"`
}

// StripFences removes markdown code fences some models wrap JSON in.
func StripFences(raw string) string {
	s := strings.ReplaceAll(raw, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

// DecodeVerdict parses and validates a judgment for the given mode.
func DecodeVerdict(mode, raw string) (*secondary.Verdict, error) {
	body := []byte(StripFences(raw))

	var probe filterProbe
	if err := json.Unmarshal(body, &probe); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidResponse, err)
	}
	if probe.IsFiltered {
		return &secondary.Verdict{IsFiltered: true, FlavorText: probe.FlavorText}, nil
	}

	if submission.Mode(mode) == submission.ModeSolve {
		var w solveVerdict
		if err := decodeStrict(body, &w); err != nil {
			return nil, err
		}
		return &secondary.Verdict{
			FlavorText:      w.FlavorText,
			ScoreDelta:      *w.ScoreDelta,
			Completeness:    *w.Completeness,
			IsCorrect:       *w.IsCorrect,
			Accuracy:        *w.Accuracy,
			MissingElements: w.MissingElements,
		}, nil
	}

	var w queryVerdict
	if err := json.Unmarshal(body, &w); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidResponse, err)
	}
	if w.Answer != nil {
		canonical := canonicalAnswer(*w.Answer)
		w.Answer = &canonical
	}
	if err := schemaValidate.Struct(&w); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidResponse, err)
	}
	v := &secondary.Verdict{
		Answer:       *w.Answer,
		FlavorText:   w.FlavorText,
		ScoreDelta:   *w.ScoreDelta,
		Completeness: *w.Completeness,
	}
	if w.NewEvidence != nil {
		v.NewEvidence = strings.TrimSpace(*w.NewEvidence)
	}
	return v, nil
}

// DecodePuzzle parses and validates a generated puzzle.
func DecodePuzzle(raw string) (*secondary.GeneratedPuzzle, error) {
	var w generatedPuzzle
	if err := decodeStrict([]byte(StripFences(raw)), &w); err != nil {
		return nil, err
	}
	return &secondary.GeneratedPuzzle{
		Title:   strings.TrimSpace(w.Title),
		Surface: strings.TrimSpace(w.Surface),
		Truth:   strings.TrimSpace(w.Truth),
		Tags: secondary.PuzzleTags{
			Genre:      normalizeGenre(w.Tags.Genre),
			HasDeath:   w.Tags.HasDeath,
			Difficulty: normalizeDifficulty(w.Tags.Difficulty),
		},
	}, nil
}

func decodeStrict(body []byte, dst any) error {
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidResponse, err)
	}
	if err := schemaValidate.Struct(dst); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidResponse, err)
	}
	return nil
}

func canonicalAnswer(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes":
		return "Yes"
	case "no":
		return "No"
	case "irrelevant":
		return "Irrelevant"
	case "partially":
		return "Partially"
	default:
		return s
	}
}

func normalizeGenre(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(puzzle.GenreHonkaku), "本格":
		return string(puzzle.GenreHonkaku)
	case string(puzzle.GenreHenkaku), "变格":
		return string(puzzle.GenreHenkaku)
	default:
		return ""
	}
}

func normalizeDifficulty(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "easy", "易":
		return "easy"
	case "medium", "中":
		return "medium"
	case "hard", "难":
		return "hard"
	default:
		return ""
	}
}
