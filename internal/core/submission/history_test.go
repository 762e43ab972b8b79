package submission

import (
	"fmt"
	"testing"
)

func TestBuildHistory_FiltersAndMapsRoles(t *testing.T) {
	entries := []HistoryEntry{
		{Text: "Did he know the victim?", SenderID: "p1", Status: EntryResolved},
		{Text: "Yes.", SenderID: OracleSenderID, Status: EntryResolved},
		{Text: "in flight", SenderID: "p2", Status: EntryPending},
		{Text: "broken", SenderID: "p2", Status: EntryFailed},
		{Text: "Case opened.", SenderID: SystemSender},
	}

	got := BuildHistory(entries)

	want := []HistoryMessage{
		{Role: RoleUser, Content: "Did he know the victim?"},
		{Role: RoleAssistant, Content: "Yes."},
		{Role: RoleUser, Content: "Case opened."},
	}
	if len(got) != len(want) {
		t.Fatalf("BuildHistory() returned %d messages, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("message %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestBuildHistory_KeepsMostRecent(t *testing.T) {
	var entries []HistoryEntry
	for i := 0; i < 30; i++ {
		entries = append(entries, HistoryEntry{Text: fmt.Sprintf("q%d", i), SenderID: "p1", Status: EntryResolved})
	}

	got := BuildHistory(entries)

	if len(got) != HistoryLimit {
		t.Fatalf("BuildHistory() returned %d messages, want %d", len(got), HistoryLimit)
	}
	if got[0].Content != "q10" || got[HistoryLimit-1].Content != "q29" {
		t.Errorf("unexpected window: first=%q last=%q", got[0].Content, got[HistoryLimit-1].Content)
	}
}
