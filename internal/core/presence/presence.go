// Package presence derives online status and the roster from liveness pulses.
// This is part of the Functional Core - no I/O, only pure functions.
package presence

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// DefaultWindow is how long after its last pulse a player still counts as online.
const DefaultWindow = 90 * time.Second

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

// Player is the presence view of a player record.
type Player struct {
	ID         string
	Name       string
	Score      int
	Budget     int
	LastSeenAt time.Time
}

// Member is one roster line.
type Member struct {
	Player
	Online bool
}

// IsOnline reports whether lastSeen falls within window of now.
func IsOnline(lastSeen, now time.Time, window time.Duration) bool {
	if lastSeen.IsZero() {
		return false
	}
	return now.Sub(lastSeen) < window
}

// Roster projects players into a roster ordered by score (desc), then name.
func Roster(players []Player, now time.Time, window time.Duration) []Member {
	members := make([]Member, 0, len(players))
	for _, p := range players {
		members = append(members, Member{Player: p, Online: IsOnline(p.LastSeenAt, now, window)})
	}
	sort.SliceStable(members, func(i, j int) bool {
		if members[i].Score != members[j].Score {
			return members[i].Score > members[j].Score
		}
		return strings.ToLower(members[i].Name) < strings.ToLower(members[j].Name)
	})
	return members
}

// Online filters a roster down to online members.
func Online(members []Member) []Member {
	var result []Member
	for _, m := range members {
		if m.Online {
			result = append(result, m)
		}
	}
	return result
}

// ClaimContext provides the context needed to evaluate a display-name claim.
type ClaimContext struct {
	PlayerID string
	Name     string
	Players  []Player
	Now      time.Time
	Window   time.Duration
}

// CanClaimName evaluates whether a player may take a display name.
// Rule: the name must not be held (case-insensitive) by another online player.
func CanClaimName(ctx ClaimContext) GuardResult {
	name := strings.TrimSpace(ctx.Name)
	if name == "" {
		return GuardResult{Allowed: false, Reason: "IDENTIFIER REQUIRED"}
	}
	for _, p := range ctx.Players {
		if p.ID == ctx.PlayerID {
			continue
		}
		if !IsOnline(p.LastSeenAt, ctx.Now, ctx.Window) {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(p.Name), name) {
			return GuardResult{
				Allowed: false,
				Reason:  fmt.Sprintf("IDENTIFIER %q IS ALREADY ACTIVE", name),
			}
		}
	}
	return GuardResult{Allowed: true}
}
