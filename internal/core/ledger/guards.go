// Package ledger contains the pure business logic for the per-player resource ledger.
// This is part of the Functional Core - no I/O, only pure functions.
package ledger

import (
	"fmt"
	"time"
)

const (
	// DefaultQueryBudget is the number of QUERY submissions a player starts with.
	DefaultQueryBudget = 10

	// CooldownWindow is the minimum gap between two submissions by one player,
	// measured from the last successfully judged QUERY.
	CooldownWindow = 10 * time.Second
)

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

// SubmitContext provides the ledger state needed to gate a submission.
// Populated by the caller from the player record; no I/O in the guard.
type SubmitContext struct {
	PlayerID      string
	Budget        int
	LastQueryAt   time.Time // zero when the player never completed a query
	ChargesBudget bool      // true for QUERY mode
	Now           time.Time
}

// CanSubmit evaluates the cooldown and budget gates.
// Rule: no submission within CooldownWindow of the last successful query.
// Rule: budget-charging submissions need a positive budget.
func CanSubmit(ctx SubmitContext) GuardResult {
	if remaining := CooldownRemaining(ctx.LastQueryAt, ctx.Now); remaining > 0 {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("COOLDOWN ACTIVE. PLEASE WAIT %ds", ceilSeconds(remaining)),
		}
	}
	if ctx.ChargesBudget && ctx.Budget <= 0 {
		return GuardResult{
			Allowed: false,
			Reason:  "SANITY DEPLETED. CANNOT QUERY.",
		}
	}
	return GuardResult{Allowed: true}
}

// CooldownRemaining returns how long the player still has to wait, or zero.
func CooldownRemaining(lastQueryAt, now time.Time) time.Duration {
	if lastQueryAt.IsZero() {
		return 0
	}
	elapsed := now.Sub(lastQueryAt)
	if elapsed >= CooldownWindow {
		return 0
	}
	return CooldownWindow - elapsed
}

// ConsumeQuery returns the budget after one query has been charged.
// The budget never goes below zero.
func ConsumeQuery(budget int) int {
	if budget <= 0 {
		return 0
	}
	return budget - 1
}

// ClampBudget keeps a stored budget within [0, DefaultQueryBudget].
func ClampBudget(budget int) int {
	switch {
	case budget < 0:
		return 0
	case budget > DefaultQueryBudget:
		return DefaultQueryBudget
	default:
		return budget
	}
}

// ApplyScoreDelta adds a non-negative delta to a score.
// Negative deltas are ignored: scores only move up outside of an explicit reset.
func ApplyScoreDelta(score, delta int) int {
	if delta <= 0 {
		return score
	}
	return score + delta
}

func ceilSeconds(d time.Duration) int {
	secs := int(d / time.Second)
	if d%time.Second != 0 {
		secs++
	}
	return secs
}
