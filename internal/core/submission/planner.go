package submission

import (
	"fmt"
	"strings"
	"time"

	"github.com/example/soup/internal/core/effects"
	"github.com/example/soup/internal/core/puzzle"
)

// Verdict is the core view of a validated oracle judgment.
type Verdict struct {
	Answer          string // QUERY only: Yes, No, Irrelevant, Partially
	FlavorText      string
	ScoreDelta      int
	NewEvidence     string
	Completeness    int
	IsFiltered      bool
	IsCorrect       bool // SOLVE only
	Accuracy        int  // SOLVE only
	MissingElements []string
}

// VerdictPlanInput contains everything needed to plan the effects of a verdict.
// All values are pre-fetched by the caller - no I/O in the planner.
type VerdictPlanInput struct {
	PlayerID           string
	PlayerName         string
	Mode               Mode
	EntryID            string // the optimistic transcript entry
	Verdict            Verdict
	StoredCompleteness int
	Truth              string
	Now                time.Time
}

// VerdictPlan represents the planned effects of one judged submission.
type VerdictPlan struct {
	Filtered            bool
	ScoreDelta          int
	Completeness        int
	CompletenessChanged bool
	Finished            bool
	Winner              string

	ResolveOp   effects.PersistEffect
	StatusOps   []effects.PersistEffect
	PlayerOps   []effects.PersistEffect
	EvidenceOps []effects.PersistEffect
	ReplyOp     effects.PersistEffect
	FinishOps   []effects.PersistEffect
	LogOps      []effects.LogEffect
}

// Effects returns all effects as a flat slice in execution order.
func (p VerdictPlan) Effects() []effects.Effect {
	result := make([]effects.Effect, 0, 2+len(p.StatusOps)+len(p.PlayerOps)+len(p.EvidenceOps)+len(p.FinishOps)+len(p.LogOps))
	result = append(result, p.ResolveOp)
	for _, e := range p.StatusOps {
		result = append(result, e)
	}
	for _, e := range p.PlayerOps {
		result = append(result, e)
	}
	for _, e := range p.EvidenceOps {
		result = append(result, e)
	}
	result = append(result, p.ReplyOp)
	for _, e := range p.FinishOps {
		result = append(result, e)
	}
	for _, e := range p.LogOps {
		result = append(result, e)
	}
	return result
}

// SolveBonus applies the early-solve multiplier 2 - completeness/100 to base,
// rounding up. completeness is the value stored before the verdict.
func SolveBonus(base, completeness int) int {
	if base <= 0 {
		return 0
	}
	if completeness < 0 {
		completeness = 0
	}
	if completeness > puzzle.MaxCompleteness {
		completeness = puzzle.MaxCompleteness
	}
	return (base*(200-completeness) + 99) / 100
}

// PlanVerdict creates the plan for applying a successful oracle verdict.
// This is a pure function - all input data must be pre-fetched.
func PlanVerdict(input VerdictPlanInput) VerdictPlan {
	v := input.Verdict
	plan := VerdictPlan{
		Completeness: input.StoredCompleteness,
	}

	plan.ResolveOp = effects.PersistEffect{
		Entity:    effects.EntityTranscript,
		Operation: effects.OpSetStatus,
		Data:      effects.TranscriptStatusData{EntryID: input.EntryID, Status: EntryResolved},
	}

	// Filtered input: the call succeeded, so a query is still charged, but
	// score, evidence and completeness stay put.
	if v.IsFiltered {
		plan.Filtered = true
		if input.Mode == ModeQuery {
			plan.PlayerOps = append(plan.PlayerOps, chargeQuery(input.PlayerID, input.Now))
		}
		text := v.FlavorText
		if strings.TrimSpace(text) == "" {
			text = ">> [REJECTED] Query violates protocol."
		}
		plan.ReplyOp = replyEffect(text, ToneError, input.Now)
		plan.LogOps = append(plan.LogOps, effects.LogEffect{
			Level:   "warn",
			Message: fmt.Sprintf("INPUT FROM %s REJECTED BY FILTER", input.PlayerName),
		})
		return plan
	}

	// 1. Completeness: monotonic clamp against the stored value
	plan.Completeness = puzzle.ClampCompleteness(input.StoredCompleteness, v.Completeness)
	if plan.Completeness != input.StoredCompleteness {
		plan.CompletenessChanged = true
		plan.StatusOps = append(plan.StatusOps, effects.PersistEffect{
			Entity:    effects.EntityStatus,
			Operation: effects.OpSetCompleteness,
			Data:      effects.CompletenessData{Value: plan.Completeness, At: input.Now},
		})
	}

	// 2. Score: incorrect solves never score; correct solves earn the bonus
	delta := v.ScoreDelta
	if delta < 0 {
		delta = 0
	}
	if input.Mode == ModeSolve {
		if v.IsCorrect {
			delta = SolveBonus(delta, input.StoredCompleteness)
		} else {
			delta = 0
		}
	}
	plan.ScoreDelta = delta

	consume := input.Mode == ModeQuery
	if delta > 0 || consume {
		plan.PlayerOps = append(plan.PlayerOps, effects.PersistEffect{
			Entity:    effects.EntityPlayer,
			Operation: effects.OpApplyVerdict,
			Data: effects.PlayerVerdictData{
				PlayerID:     input.PlayerID,
				ScoreDelta:   delta,
				ConsumeQuery: consume,
				At:           input.Now,
			},
		})
	}
	if delta > 0 {
		plan.LogOps = append(plan.LogOps, effects.LogEffect{
			Level:   "info",
			Message: fmt.Sprintf("%s +%d PTS [%s]", input.PlayerName, delta, scoreLabel(input.Mode, v)),
		})
	}

	// 3. Evidence
	evidence := strings.TrimSpace(v.NewEvidence)
	if input.Mode == ModeSolve {
		evidence = ""
		if v.IsCorrect {
			evidence = "TRUTH REVEALED: " + input.Truth
		}
	}
	if evidence != "" {
		plan.EvidenceOps = append(plan.EvidenceOps, effects.PersistEffect{
			Entity:    effects.EntityEvidence,
			Operation: effects.OpAppend,
			Data:      effects.EvidenceData{Text: evidence, UnlockedBy: input.PlayerName, At: input.Now},
		})
		plan.LogOps = append(plan.LogOps, effects.LogEffect{
			Level:   "info",
			Message: fmt.Sprintf("EVIDENCE UNLOCKED BY %s", input.PlayerName),
		})
	}

	// 4. Oracle reply
	plan.ReplyOp = replyEffect(v.FlavorText, replyTone(input.Mode, v), input.Now)

	// 5. Win detection
	if puzzle.ShouldFinish(input.Mode == ModeSolve && v.IsCorrect, plan.Completeness) {
		plan.Finished = true
		plan.Winner = input.PlayerName
		plan.FinishOps = append(plan.FinishOps, effects.PersistEffect{
			Entity:    effects.EntityStatus,
			Operation: effects.OpFinish,
			Data:      effects.FinishData{Winner: input.PlayerName, At: input.Now},
		})
		plan.LogOps = append(plan.LogOps, effects.LogEffect{
			Level:   "info",
			Message: fmt.Sprintf("CASE CLOSED BY %s (COMPLETENESS: %d%%)", input.PlayerName, plan.Completeness),
		})
	}

	return plan
}

// chargeQuery spends one query and restarts the cooldown.
func chargeQuery(playerID string, now time.Time) effects.PersistEffect {
	return effects.PersistEffect{
		Entity:    effects.EntityPlayer,
		Operation: effects.OpApplyVerdict,
		Data: effects.PlayerVerdictData{
			PlayerID:     playerID,
			ConsumeQuery: true,
			At:           now,
		},
	}
}

func replyEffect(text, tone string, now time.Time) effects.PersistEffect {
	return effects.PersistEffect{
		Entity:    effects.EntityTranscript,
		Operation: effects.OpAppend,
		Data: effects.TranscriptData{
			Text:     text,
			Sender:   OracleSender,
			SenderID: OracleSenderID,
			Kind:     KindAI,
			Status:   EntryResolved,
			Tone:     tone,
			At:       now,
		},
	}
}

func replyTone(m Mode, v Verdict) string {
	if m == ModeSolve {
		if v.IsCorrect {
			return ToneSuccess
		}
		return ToneError
	}
	return ToneInfo
}

func scoreLabel(m Mode, v Verdict) string {
	if v.Answer != "" {
		return v.Answer
	}
	if m == ModeSolve && v.IsCorrect {
		return "SOLVED"
	}
	return "QUERY"
}

// SkipPlan represents the planned effects of a /skip command.
type SkipPlan struct {
	Allowed bool
	Winner  string

	FinishOps []effects.PersistEffect
	ReplyOp   effects.PersistEffect
	LogOps    []effects.LogEffect
}

// Effects returns all effects as a flat slice in execution order.
func (p SkipPlan) Effects() []effects.Effect {
	result := make([]effects.Effect, 0, len(p.FinishOps)+1+len(p.LogOps))
	for _, e := range p.FinishOps {
		result = append(result, e)
	}
	result = append(result, p.ReplyOp)
	for _, e := range p.LogOps {
		result = append(result, e)
	}
	return result
}

// PlanSkip creates the plan for a /skip command given the guard outcome.
// A denied skip only posts a rejection notice; the status is untouched.
func PlanSkip(guard GuardResult, playerName string, now time.Time) SkipPlan {
	if !guard.Allowed {
		return SkipPlan{
			ReplyOp: systemNotice(fmt.Sprintf("> COMMAND REJECTED: UNAUTHORIZED USER [%s]", playerName), now),
			LogOps: []effects.LogEffect{{
				Level:   "warn",
				Message: "ACCESS DENIED: /skip REQUIRES ADMIN PRIVILEGES.",
			}},
		}
	}

	winner := SkipWinnerLabel(playerName)
	return SkipPlan{
		Allowed: true,
		Winner:  winner,
		FinishOps: []effects.PersistEffect{{
			Entity:    effects.EntityStatus,
			Operation: effects.OpFinish,
			Data:      effects.FinishData{Winner: winner, At: now},
		}},
		ReplyOp: systemNotice(">> [OVERRIDE] FORCE SKIP DETECTED. REVEALING TRUTH...", now),
		LogOps: []effects.LogEffect{{
			Level:   "info",
			Message: fmt.Sprintf("%s EXECUTED /skip. TRUTH REVEALED.", playerName),
		}},
	}
}

func systemNotice(text string, now time.Time) effects.PersistEffect {
	return effects.PersistEffect{
		Entity:    effects.EntityTranscript,
		Operation: effects.OpAppend,
		Data: effects.TranscriptData{
			Text:     text,
			Sender:   SystemSender,
			SenderID: SystemSender,
			Kind:     KindSystem,
			Status:   EntryResolved,
			Tone:     ToneError,
			At:       now,
		},
	}
}
