package primary

import (
	"context"
	"time"
)

// LogService defines the primary port for the client's rolling system log.
type LogService interface {
	// Recent retrieves up to limit system log lines, most recent first.
	Recent(ctx context.Context, limit int) ([]*LogLine, error)
}

// LogLine represents a system log line at the port boundary.
type LogLine struct {
	Level     string
	Message   string
	CreatedAt time.Time
}

// String renders the line as "[HH:MM:SS] MESSAGE".
func (l LogLine) String() string {
	return "[" + l.CreatedAt.Format("15:04:05") + "] " + l.Message
}
