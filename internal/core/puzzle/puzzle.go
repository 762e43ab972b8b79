package puzzle

import (
	"fmt"
	"strings"
	"time"
)

// Genre classifies how a puzzle's truth relates to the real world.
type Genre string

const (
	// GenreHonkaku puzzles are grounded in realistic logic.
	GenreHonkaku Genre = "honkaku"
	// GenreHenkaku puzzles may involve the supernatural.
	GenreHenkaku Genre = "henkaku"
)

// Tags carries the optional puzzle classification.
type Tags struct {
	Genre      string
	HasDeath   bool
	Difficulty string
}

// Puzzle is the core view of the active mystery.
type Puzzle struct {
	Title       string
	Surface     string
	Truth       string
	Tags        Tags
	GeneratedBy string
	GeneratedAt time.Time
}

// Options steers puzzle generation.
type Options struct {
	Theme      string
	Genre      string
	Difficulty string
}

// ValidateOptions checks generation options. Empty fields mean "any".
func ValidateOptions(opts Options) error {
	switch strings.ToLower(opts.Genre) {
	case "", string(GenreHonkaku), string(GenreHenkaku):
	default:
		return fmt.Errorf("unknown genre %q (want honkaku or henkaku)", opts.Genre)
	}
	switch strings.ToLower(opts.Difficulty) {
	case "", "easy", "medium", "hard":
	default:
		return fmt.Errorf("unknown difficulty %q (want easy, medium or hard)", opts.Difficulty)
	}
	return nil
}

// Redacted returns a copy of p without the truth. The truth only leaves the
// coordinator once the game is finished.
func Redacted(p Puzzle, status Status) Puzzle {
	if status != StatusFinished {
		p.Truth = ""
	}
	return p
}

// TagsLine renders the tags as a single system log line.
func TagsLine(t Tags) string {
	death := "NO"
	if t.HasDeath {
		death = "YES"
	}
	return fmt.Sprintf("TAGS: %s / DEATH:%s / %s",
		strings.ToUpper(orUnknown(t.Genre)), death, strings.ToUpper(orUnknown(t.Difficulty)))
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

// Demo is served when no puzzle has been installed yet.
var Demo = Puzzle{
	Title:   "The Seagull Soup",
	Surface: "A man walks into a seaside restaurant and orders seagull soup. After one sip he puts down his spoon, walks out and ends his life.",
	Truth: "Years ago the man was shipwrecked with companions. Stranded and starving, one of them made 'seagull soup' to keep him alive. " +
		"Tasting real seagull soup today, he realized it was nothing like what he ate back then: the soup on the island had been made from the remains of a companion who had died. " +
		"Unable to bear the guilt, he took his own life.",
	Tags: Tags{
		Genre:      string(GenreHonkaku),
		HasDeath:   true,
		Difficulty: "medium",
	},
	GeneratedBy: "SYSTEM",
}
