package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/example/soup/internal/adapters/document"
	"github.com/example/soup/internal/core/ledger"
	"github.com/example/soup/internal/ports/secondary"
)

// PlayerRepository implements secondary.PlayerRepository over a DocumentStore.
type PlayerRepository struct {
	store secondary.DocumentStore
}

var _ secondary.PlayerRepository = (*PlayerRepository)(nil)

// NewPlayerRepository creates a new PlayerRepository.
func NewPlayerRepository(store secondary.DocumentStore) *PlayerRepository {
	return &PlayerRepository{store: store}
}

func playerKey(id string) string {
	return document.Key(PlayersCollection, id)
}

// Get retrieves a player by ID.
func (r *PlayerRepository) Get(ctx context.Context, id string) (*secondary.PlayerRecord, error) {
	var p secondary.PlayerRecord
	if err := getJSON(ctx, r.store, playerKey(id), &p); err != nil {
		return nil, err
	}
	p.QueryBudget = ledger.ClampBudget(p.QueryBudget)
	return &p, nil
}

// List retrieves every known player.
func (r *PlayerRepository) List(ctx context.Context) ([]*secondary.PlayerRecord, error) {
	entries, err := r.store.List(ctx, PlayersCollection, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}
	players := make([]*secondary.PlayerRecord, 0, len(entries))
	for _, e := range entries {
		var p secondary.PlayerRecord
		if err := json.Unmarshal(e.Value, &p); err != nil {
			return nil, fmt.Errorf("failed to decode player %s: %w", e.ID, err)
		}
		if p.ID == "" {
			p.ID = e.ID
		}
		p.QueryBudget = ledger.ClampBudget(p.QueryBudget)
		players = append(players, &p)
	}
	return players, nil
}

// Register writes a fresh player record.
func (r *PlayerRepository) Register(ctx context.Context, player *secondary.PlayerRecord) error {
	return setJSON(ctx, r.store, playerKey(player.ID), player)
}

// Heartbeat refreshes liveness, recreating a missing record with defaults.
func (r *PlayerRepository) Heartbeat(ctx context.Context, id, name string, now time.Time) (bool, error) {
	initial := ledger.InitialEntry()
	created, err := r.store.Merge(ctx, playerKey(id),
		map[string]any{"last_seen_at": now},
		map[string]any{
			"id":            id,
			"name":          name,
			"score":         initial.Score,
			"query_budget":  initial.Budget,
			"last_query_at": time.Time{},
			"joined_at":     now,
		})
	if err != nil {
		return false, fmt.Errorf("failed to refresh player %s: %w", id, err)
	}
	return created, nil
}

// ApplyVerdict settles a judged submission on the player record.
func (r *PlayerRepository) ApplyVerdict(ctx context.Context, id string, scoreDelta int, consumeQuery bool, now time.Time) (*secondary.PlayerRecord, error) {
	p, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	next := ledger.SettleVerdict(ledger.Entry{
		Score:       p.Score,
		Budget:      p.QueryBudget,
		LastQueryAt: p.LastQueryAt,
	}, scoreDelta, consumeQuery, now)

	if err := r.store.Update(ctx, playerKey(id), map[string]any{
		"score":         next.Score,
		"query_budget":  next.Budget,
		"last_query_at": next.LastQueryAt,
	}); err != nil {
		return nil, err
	}
	p.Score = next.Score
	p.QueryBudget = next.Budget
	p.LastQueryAt = next.LastQueryAt
	return p, nil
}

// Reset restores score, budget and cooldown to their defaults.
func (r *PlayerRepository) Reset(ctx context.Context, id string) error {
	initial := ledger.InitialEntry()
	return r.store.Update(ctx, playerKey(id), map[string]any{
		"score":         initial.Score,
		"query_budget":  initial.Budget,
		"last_query_at": time.Time{},
	})
}
