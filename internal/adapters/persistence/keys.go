// Package persistence contains adapters that implement the typed secondary
// repositories on top of a DocumentStore.
package persistence

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/example/soup/internal/ports/secondary"
)

// Document layout shared by every client.
const (
	PlayersCollection    = "players"
	EvidenceCollection   = "evidence"
	TranscriptCollection = "transcript"

	PuzzleKey = "room/puzzle"
	StatusKey = "room/status"
	LockKey   = "room/lock"
)

// WatchPrefixes covers every key of the shared session.
var WatchPrefixes = []string{"room/", PlayersCollection + "/", EvidenceCollection + "/", TranscriptCollection + "/"}

func getJSON(ctx context.Context, store secondary.DocumentStore, key string, v any) error {
	raw, err := store.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return nil
}

func setJSON(ctx context.Context, store secondary.DocumentStore, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return store.Set(ctx, key, raw)
}

func appendJSON(ctx context.Context, store secondary.DocumentStore, collection string, v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to encode %s entry: %w", collection, err)
	}
	return store.Append(ctx, collection, raw)
}
