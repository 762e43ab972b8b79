package submission

import (
	"fmt"
	"strings"
	"time"

	"github.com/example/soup/internal/core/ledger"
	"github.com/example/soup/internal/core/puzzle"
)

// SkipCommand forces the current game to end without judging.
const SkipCommand = "/skip"

// GuardResult represents the outcome of a guard evaluation.
type GuardResult struct {
	Allowed bool
	Reason  string
}

// Error returns the guard result as an error if not allowed, nil otherwise.
func (r GuardResult) Error() error {
	if r.Allowed {
		return nil
	}
	return fmt.Errorf("%s", r.Reason)
}

// IsReservedCommand reports whether input is the skip command.
func IsReservedCommand(input string) bool {
	return strings.EqualFold(strings.TrimSpace(input), SkipCommand)
}

// SubmitContext provides the context needed to gate a judged submission.
// All values are pre-fetched by the caller.
type SubmitContext struct {
	PlayerID    string
	Input       string
	Mode        Mode
	GameStatus  puzzle.Status
	Budget      int
	LastQueryAt time.Time
	Now         time.Time
}

// CanSubmit evaluates whether a submission may be sent to the oracle.
// Rules (checked in order):
//   - input must not be blank
//   - the game must still be PLAYING
//   - the cooldown window applies to every mode
//   - QUERY mode needs a positive budget
func CanSubmit(ctx SubmitContext) GuardResult {
	if strings.TrimSpace(ctx.Input) == "" {
		return GuardResult{Allowed: false, Reason: "EMPTY TRANSMISSION. NOTHING TO SEND."}
	}
	if ctx.GameStatus == puzzle.StatusFinished {
		return GuardResult{Allowed: false, Reason: "CASE CLOSED. WAIT FOR A NEW PUZZLE."}
	}

	res := ledger.CanSubmit(ledger.SubmitContext{
		PlayerID:      ctx.PlayerID,
		Budget:        ctx.Budget,
		LastQueryAt:   ctx.LastQueryAt,
		ChargesBudget: ctx.Mode == ModeQuery,
		Now:           ctx.Now,
	})
	return GuardResult{Allowed: res.Allowed, Reason: res.Reason}
}

// SkipContext provides the context needed to evaluate the skip command.
type SkipContext struct {
	RequesterID string
	AdminID     string
}

// CanSkip evaluates whether the requester may force the game to end.
// With no administrator configured anyone may.
func CanSkip(ctx SkipContext) GuardResult {
	if !puzzle.IsAdmin(ctx.RequesterID, ctx.AdminID) {
		return GuardResult{Allowed: false, Reason: "ACCESS DENIED: ADMIN PRIVILEGES REQUIRED"}
	}
	return GuardResult{Allowed: true}
}

// SkipWinnerLabel is the synthetic winner recorded when a game is skipped.
func SkipWinnerLabel(name string) string {
	return fmt.Sprintf("%s (SKIPPED)", name)
}
