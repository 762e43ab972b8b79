package secondary

import (
	"context"
	"time"
)

// SystemLog defines the interface for the client's rolling audit trail.
// Implementations keep only the most recent entries.
type SystemLog interface {
	// Record appends a line.
	Record(ctx context.Context, level, message string) error

	// Recent returns up to limit entries, most recent first.
	Recent(ctx context.Context, limit int) ([]*SystemLogRecord, error)
}

// SystemLogRecord represents one system log line as stored.
type SystemLogRecord struct {
	ID        int64
	ActorID   string
	Level     string
	Message   string
	CreatedAt time.Time
}
