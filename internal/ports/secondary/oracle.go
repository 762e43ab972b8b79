package secondary

import "context"

// Oracle defines the secondary port for the external judging and generation service.
type Oracle interface {
	// Judge returns a validated verdict for one submission.
	// A filtered verdict is a successful result, not an error.
	Judge(ctx context.Context, req *JudgeRequest) (*Verdict, error)

	// Generate returns a validated new puzzle.
	Generate(ctx context.Context, req *GenerateRequest) (*GeneratedPuzzle, error)
}

// OracleMessage is one role-tagged history message.
type OracleMessage struct {
	Role    string
	Content string
}

// JudgeRequest carries everything the oracle needs to judge a submission.
type JudgeRequest struct {
	Surface      string
	Truth        string
	Input        string
	Mode         string // QUERY or SOLVE
	History      []OracleMessage
	Evidence     []string
	Completeness int
	Persona      string
}

// Verdict is the structured judgment for one submission.
type Verdict struct {
	Answer          string
	FlavorText      string
	ScoreDelta      int
	NewEvidence     string
	Completeness    int
	IsFiltered      bool
	IsCorrect       bool
	Accuracy        int
	MissingElements []string
}

// GenerateRequest carries the options for a new puzzle.
type GenerateRequest struct {
	Theme      string
	Genre      string
	Difficulty string
	Persona    string
}

// GeneratedPuzzle is the oracle's new puzzle before installation.
type GeneratedPuzzle struct {
	Title   string
	Surface string
	Truth   string
	Tags    PuzzleTags
}
