package submission

// HistoryLimit bounds how many transcript entries are sent to the oracle.
const HistoryLimit = 20

// Roles used in the oracle message list.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// HistoryEntry is the transcript view needed to build oracle history.
type HistoryEntry struct {
	Text     string
	SenderID string
	Status   string
}

// HistoryMessage is one role-tagged message of oracle history.
type HistoryMessage struct {
	Role    string
	Content string
}

// BuildHistory selects the last HistoryLimit entries that are neither pending
// nor failed and maps them to oracle roles. Entries must be in append order.
func BuildHistory(entries []HistoryEntry) []HistoryMessage {
	settled := make([]HistoryEntry, 0, len(entries))
	for _, e := range entries {
		if e.Status == EntryPending || e.Status == EntryFailed {
			continue
		}
		settled = append(settled, e)
	}
	if len(settled) > HistoryLimit {
		settled = settled[len(settled)-HistoryLimit:]
	}

	msgs := make([]HistoryMessage, 0, len(settled))
	for _, e := range settled {
		role := RoleUser
		if e.SenderID == OracleSenderID {
			role = RoleAssistant
		}
		msgs = append(msgs, HistoryMessage{Role: role, Content: e.Text})
	}
	return msgs
}
