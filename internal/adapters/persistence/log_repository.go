package persistence

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/example/soup/internal/adapters/document"
	"github.com/example/soup/internal/ports/secondary"
)

// EvidenceRepository implements secondary.EvidenceRepository over a DocumentStore.
type EvidenceRepository struct {
	store secondary.DocumentStore
}

var _ secondary.EvidenceRepository = (*EvidenceRepository)(nil)

// NewEvidenceRepository creates a new EvidenceRepository.
func NewEvidenceRepository(store secondary.DocumentStore) *EvidenceRepository {
	return &EvidenceRepository{store: store}
}

// Append adds an evidence item.
func (r *EvidenceRepository) Append(ctx context.Context, item *secondary.EvidenceRecord) (string, error) {
	id, err := appendJSON(ctx, r.store, EvidenceCollection, item)
	if err != nil {
		return "", err
	}
	item.ID = id
	return id, nil
}

// List retrieves all evidence in unlock order.
func (r *EvidenceRepository) List(ctx context.Context) ([]*secondary.EvidenceRecord, error) {
	entries, err := r.store.List(ctx, EvidenceCollection, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list evidence: %w", err)
	}
	items := make([]*secondary.EvidenceRecord, 0, len(entries))
	for _, e := range entries {
		var item secondary.EvidenceRecord
		if err := json.Unmarshal(e.Value, &item); err != nil {
			return nil, fmt.Errorf("failed to decode evidence %s: %w", e.ID, err)
		}
		item.ID = e.ID
		items = append(items, &item)
	}
	return items, nil
}

// Clear removes all evidence.
func (r *EvidenceRepository) Clear(ctx context.Context) error {
	return r.store.Clear(ctx, EvidenceCollection)
}

// TranscriptRepository implements secondary.TranscriptRepository over a DocumentStore.
type TranscriptRepository struct {
	store secondary.DocumentStore
}

var _ secondary.TranscriptRepository = (*TranscriptRepository)(nil)

// NewTranscriptRepository creates a new TranscriptRepository.
func NewTranscriptRepository(store secondary.DocumentStore) *TranscriptRepository {
	return &TranscriptRepository{store: store}
}

// Append adds a transcript entry.
func (r *TranscriptRepository) Append(ctx context.Context, entry *secondary.TranscriptRecord) (string, error) {
	id, err := appendJSON(ctx, r.store, TranscriptCollection, entry)
	if err != nil {
		return "", err
	}
	entry.ID = id
	return id, nil
}

// SetStatus moves an entry to a new lifecycle status.
func (r *TranscriptRepository) SetStatus(ctx context.Context, id, status string) error {
	return r.store.Update(ctx, document.Key(TranscriptCollection, id), map[string]any{"status": status})
}

// Recent retrieves the last limit entries in append order.
func (r *TranscriptRepository) Recent(ctx context.Context, limit int) ([]*secondary.TranscriptRecord, error) {
	entries, err := r.store.List(ctx, TranscriptCollection, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list transcript: %w", err)
	}
	out := make([]*secondary.TranscriptRecord, 0, len(entries))
	for _, e := range entries {
		var entry secondary.TranscriptRecord
		if err := json.Unmarshal(e.Value, &entry); err != nil {
			return nil, fmt.Errorf("failed to decode transcript entry %s: %w", e.ID, err)
		}
		entry.ID = e.ID
		out = append(out, &entry)
	}
	return out, nil
}

// Clear removes all entries.
func (r *TranscriptRepository) Clear(ctx context.Context) error {
	return r.store.Clear(ctx, TranscriptCollection)
}
