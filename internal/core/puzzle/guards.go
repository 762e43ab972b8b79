// Package puzzle contains the pure business logic for the puzzle lifecycle,
// the game status singleton and the generation lock.
// This is part of the Functional Core - no I/O, only pure functions.
package puzzle

import (
	"fmt"
	"time"
)

// LockTimeout is how long a held generation lock is honored before it is
// considered abandoned.
const LockTimeout = 60 * time.Second

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

// LockState is the guard view of the generation lock.
type LockState struct {
	Held       bool
	Holder     string
	AcquiredAt time.Time
}

// IsLockStale reports whether a held lock has outlived LockTimeout at now.
func IsLockStale(lock LockState, now time.Time) bool {
	return now.Sub(lock.AcquiredAt) > LockTimeout
}

// IsLockActive reports whether the lock currently excludes regeneration.
func IsLockActive(lock LockState, now time.Time) bool {
	return lock.Held && !IsLockStale(lock, now)
}

// RegenerateContext provides the context needed to evaluate a regeneration request.
type RegenerateContext struct {
	RequesterID   string
	RequesterName string
	AdminID       string // empty when no administrator is configured
	Status        Status
	Lock          LockState
	Now           time.Time
}

// CanRegenerate evaluates whether a regeneration may start.
// Rules (checked in order):
//   - an active (held, non-stale) lock refuses with the holder's name
//   - while PLAYING with an administrator configured, only the administrator may regenerate
func CanRegenerate(ctx RegenerateContext) GuardResult {
	if IsLockActive(ctx.Lock, ctx.Now) {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("GENERATION LOCKED BY %s", ctx.Lock.Holder),
		}
	}
	if !IsPrivileged(ctx.RequesterID, ctx.AdminID, ctx.Status) {
		return GuardResult{
			Allowed: false,
			Reason:  "ACCESS DENIED: ONLY THE ADMINISTRATOR MAY RESET AN ACTIVE GAME",
		}
	}
	return GuardResult{Allowed: true}
}

// ResetContext provides the context needed to evaluate a new-game reset.
type ResetContext struct {
	RequesterID string
	AdminID     string
	Status      Status
}

// CanReset evaluates whether the session may be reset without regeneration.
// Same authorization as regeneration; the lock is not consulted.
func CanReset(ctx ResetContext) GuardResult {
	if !IsPrivileged(ctx.RequesterID, ctx.AdminID, ctx.Status) {
		return GuardResult{
			Allowed: false,
			Reason:  "ACCESS DENIED: ONLY THE ADMINISTRATOR MAY RESET AN ACTIVE GAME",
		}
	}
	return GuardResult{Allowed: true}
}

// IsPrivileged reports whether requesterID may perform a privileged lifecycle
// action given the current status. Once a game is FINISHED anyone may.
func IsPrivileged(requesterID, adminID string, status Status) bool {
	if status == StatusFinished {
		return true
	}
	return IsAdmin(requesterID, adminID)
}

// IsAdmin reports whether requesterID holds the administrator role.
// With no administrator configured, every player does.
func IsAdmin(requesterID, adminID string) bool {
	return adminID == "" || requesterID == adminID
}
