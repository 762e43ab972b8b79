package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/example/soup/internal/core/puzzle"
	"github.com/example/soup/internal/ports/secondary"
)

// PuzzleRepository implements secondary.PuzzleRepository over a DocumentStore.
type PuzzleRepository struct {
	store secondary.DocumentStore
}

var _ secondary.PuzzleRepository = (*PuzzleRepository)(nil)

// NewPuzzleRepository creates a new PuzzleRepository.
func NewPuzzleRepository(store secondary.DocumentStore) *PuzzleRepository {
	return &PuzzleRepository{store: store}
}

// Get retrieves the installed puzzle.
func (r *PuzzleRepository) Get(ctx context.Context) (*secondary.PuzzleRecord, error) {
	var p secondary.PuzzleRecord
	if err := getJSON(ctx, r.store, PuzzleKey, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Install replaces the puzzle wholesale.
func (r *PuzzleRepository) Install(ctx context.Context, p *secondary.PuzzleRecord) error {
	return setJSON(ctx, r.store, PuzzleKey, p)
}

// StatusRepository implements secondary.StatusRepository over a DocumentStore.
type StatusRepository struct {
	store secondary.DocumentStore
}

var _ secondary.StatusRepository = (*StatusRepository)(nil)

// NewStatusRepository creates a new StatusRepository.
func NewStatusRepository(store secondary.DocumentStore) *StatusRepository {
	return &StatusRepository{store: store}
}

// Get retrieves the status, defaulting to PLAYING/0 when unset.
func (r *StatusRepository) Get(ctx context.Context) (*secondary.StatusRecord, error) {
	var s secondary.StatusRecord
	err := getJSON(ctx, r.store, StatusKey, &s)
	if errors.Is(err, secondary.ErrNotFound) {
		return &secondary.StatusRecord{Status: string(puzzle.StatusPlaying)}, nil
	}
	if err != nil {
		return nil, err
	}
	if s.Status == "" {
		s.Status = string(puzzle.StatusPlaying)
	}
	return &s, nil
}

// SetCompleteness writes the completeness value.
func (r *StatusRepository) SetCompleteness(ctx context.Context, value int, now time.Time) error {
	_, err := r.store.Merge(ctx, StatusKey,
		map[string]any{"completeness": value, "updated_at": now},
		map[string]any{"status": string(puzzle.StatusPlaying), "winner": ""})
	return err
}

// Finish marks the game FINISHED with winner.
func (r *StatusRepository) Finish(ctx context.Context, winner string, now time.Time) error {
	_, err := r.store.Merge(ctx, StatusKey,
		map[string]any{"status": string(puzzle.StatusFinished), "winner": winner, "updated_at": now},
		map[string]any{"completeness": 0})
	return err
}

// Reset restores the initial status.
func (r *StatusRepository) Reset(ctx context.Context, now time.Time) error {
	initial := puzzle.InitialState(now)
	return setJSON(ctx, r.store, StatusKey, &secondary.StatusRecord{
		Status:       string(initial.Status),
		Completeness: initial.Completeness,
		Winner:       initial.Winner,
		UpdatedAt:    initial.UpdatedAt,
	})
}

// LockRepository implements secondary.LockRepository over a DocumentStore.
type LockRepository struct {
	store secondary.DocumentStore
}

var _ secondary.LockRepository = (*LockRepository)(nil)

// NewLockRepository creates a new LockRepository.
func NewLockRepository(store secondary.DocumentStore) *LockRepository {
	return &LockRepository{store: store}
}

// Get retrieves the lock, defaulting to released when unset.
func (r *LockRepository) Get(ctx context.Context) (*secondary.LockRecord, error) {
	var l secondary.LockRecord
	err := getJSON(ctx, r.store, LockKey, &l)
	if errors.Is(err, secondary.ErrNotFound) {
		return &secondary.LockRecord{}, nil
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// Acquire writes held=true. It does not check the current holder.
func (r *LockRepository) Acquire(ctx context.Context, holder string, now time.Time) error {
	return setJSON(ctx, r.store, LockKey, &secondary.LockRecord{
		Held:       true,
		Holder:     holder,
		AcquiredAt: now,
	})
}

// Release writes held=false, keeping the last holder for display.
func (r *LockRepository) Release(ctx context.Context) error {
	_, err := r.store.Merge(ctx, LockKey, map[string]any{"held": false}, nil)
	return err
}
