package persistence

import (
	"context"
	"strings"

	"github.com/example/soup/internal/ports/secondary"
)

// Change kinds reported by the feed.
const (
	KindPlayer     = "player"
	KindPuzzle     = "puzzle"
	KindStatus     = "status"
	KindLock       = "lock"
	KindEvidence   = "evidence"
	KindTranscript = "transcript"
)

// ChangeFeed implements secondary.ChangeFeed over a DocumentStore subscription.
type ChangeFeed struct {
	store secondary.DocumentStore
}

var _ secondary.ChangeFeed = (*ChangeFeed)(nil)

// NewChangeFeed creates a new ChangeFeed.
func NewChangeFeed(store secondary.DocumentStore) *ChangeFeed {
	return &ChangeFeed{store: store}
}

// Watch subscribes to every session key and classifies each change.
// Keys outside the session layout are dropped.
func (f *ChangeFeed) Watch(ctx context.Context, fn func(secondary.ChangeRecord)) error {
	return f.store.Subscribe(ctx, WatchPrefixes, func(c secondary.Change) {
		kind := KindOf(c.Key)
		if kind == "" {
			return
		}
		fn(secondary.ChangeRecord{Key: c.Key, Kind: kind, Deleted: c.Deleted})
	})
}

// KindOf classifies a store key, returning "" for keys outside the session layout.
func KindOf(key string) string {
	switch key {
	case PuzzleKey:
		return KindPuzzle
	case StatusKey:
		return KindStatus
	case LockKey:
		return KindLock
	}
	switch {
	case strings.HasPrefix(key, PlayersCollection+"/"):
		return KindPlayer
	case strings.HasPrefix(key, EvidenceCollection+"/"):
		return KindEvidence
	case strings.HasPrefix(key, TranscriptCollection+"/"):
		return KindTranscript
	default:
		return ""
	}
}
