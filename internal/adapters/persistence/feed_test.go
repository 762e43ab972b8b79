package persistence

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/soup/internal/adapters/memstore"
	"github.com/example/soup/internal/ports/secondary"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"room/puzzle", KindPuzzle},
		{"room/status", KindStatus},
		{"room/lock", KindLock},
		{"players/p1", KindPlayer},
		{"evidence/00000000000000000001", KindEvidence},
		{"transcript/00000000000000000001", KindTranscript},
		{"room/other", ""},
		{"elsewhere/x", ""},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.key))
		})
	}
}

func TestChangeFeed_Watch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	store := memstore.New()
	defer store.Close()
	feed := NewChangeFeed(store)

	var mu sync.Mutex
	var got []secondary.ChangeRecord
	done := make(chan error, 1)
	go func() {
		done <- feed.Watch(ctx, func(c secondary.ChangeRecord) {
			mu.Lock()
			got = append(got, c)
			mu.Unlock()
		})
	}()
	require.Eventually(t, func() bool { return store.Subscribers() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, NewLockRepository(store).Acquire(ctx, "Alice", t0))
	_, err := NewEvidenceRepository(store).Append(ctx, &secondary.EvidenceRecord{Text: "fact"})
	require.NoError(t, err)
	require.NoError(t, NewEvidenceRepository(store).Clear(ctx))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 3
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	assert.Equal(t, KindLock, got[0].Kind)
	assert.Equal(t, KindEvidence, got[1].Kind)
	assert.False(t, got[1].Deleted)
	assert.True(t, got[2].Deleted)
	mu.Unlock()

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}
