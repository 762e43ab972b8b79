// Package sqlite contains SQLite implementations of repository interfaces.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/soup/internal/ctxutil"
	"github.com/example/soup/internal/ports/secondary"
)

// DefaultRetention is how many lines the system log keeps per actor.
const DefaultRetention = 10

// SystemLogRepository implements secondary.SystemLog with SQLite.
// Lines are scoped to the actor found in the context and pruned on write.
type SystemLogRepository struct {
	db        *sql.DB
	retention int
	now       func() time.Time
}

var _ secondary.SystemLog = (*SystemLogRepository)(nil)

// NewSystemLogRepository creates a new SQLite system log repository.
func NewSystemLogRepository(db *sql.DB) *SystemLogRepository {
	return &SystemLogRepository{
		db:        db,
		retention: DefaultRetention,
		now:       time.Now,
	}
}

// Record appends a line and prunes the actor's log to the retention bound.
func (r *SystemLogRepository) Record(ctx context.Context, level, message string) error {
	actorID := ctxutil.ActorFromContext(ctx)
	if level == "" {
		level = "info"
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin system log write: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO system_log (actor_id, level, message, created_at) VALUES (?, ?, ?, ?)`,
		actorID, level, message, r.now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to create system log entry: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`DELETE FROM system_log WHERE actor_id = ? AND id NOT IN (
			SELECT id FROM system_log WHERE actor_id = ? ORDER BY id DESC LIMIT ?
		)`,
		actorID, actorID, r.retention,
	)
	if err != nil {
		return fmt.Errorf("failed to prune system log: %w", err)
	}

	return tx.Commit()
}

// Recent returns up to limit entries for the actor, most recent first.
func (r *SystemLogRepository) Recent(ctx context.Context, limit int) ([]*secondary.SystemLogRecord, error) {
	if limit <= 0 || limit > r.retention {
		limit = r.retention
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, actor_id, level, message, created_at FROM system_log WHERE actor_id = ? ORDER BY id DESC LIMIT ?`,
		ctxutil.ActorFromContext(ctx), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list system log: %w", err)
	}
	defer rows.Close()

	var records []*secondary.SystemLogRecord
	for rows.Next() {
		rec := &secondary.SystemLogRecord{}
		if err := rows.Scan(&rec.ID, &rec.ActorID, &rec.Level, &rec.Message, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan system log entry: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
