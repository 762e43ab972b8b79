package ledger

import "time"

// Entry is the ledger view of one player.
type Entry struct {
	Score       int
	Budget      int
	LastQueryAt time.Time
}

// InitialEntry returns the ledger state for a freshly registered player.
// Also used when a liveness pulse finds the record missing and re-registers it.
func InitialEntry() Entry {
	return Entry{
		Score:  0,
		Budget: DefaultQueryBudget,
	}
}

// SettleVerdict applies a judged submission to a ledger entry.
// consumeQuery is true only for a successfully judged QUERY: it spends one unit
// of budget and restarts the cooldown at now.
func SettleVerdict(e Entry, scoreDelta int, consumeQuery bool, now time.Time) Entry {
	e.Score = ApplyScoreDelta(e.Score, scoreDelta)
	if consumeQuery {
		e.Budget = ConsumeQuery(ClampBudget(e.Budget))
		e.LastQueryAt = now
	}
	return e
}
