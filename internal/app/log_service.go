package app

import (
	"context"
	"fmt"

	"github.com/example/soup/internal/ports/primary"
	"github.com/example/soup/internal/ports/secondary"
)

// DefaultLogLimit is the number of lines Recent returns when no limit is given.
const DefaultLogLimit = 10

// LogServiceImpl implements the LogService interface.
type LogServiceImpl struct {
	systemLog secondary.SystemLog
}

var _ primary.LogService = (*LogServiceImpl)(nil)

// NewLogService creates a new LogService with injected dependencies.
func NewLogService(systemLog secondary.SystemLog) *LogServiceImpl {
	return &LogServiceImpl{
		systemLog: systemLog,
	}
}

// Recent retrieves up to limit system log lines, most recent first.
func (s *LogServiceImpl) Recent(ctx context.Context, limit int) ([]*primary.LogLine, error) {
	if limit <= 0 {
		limit = DefaultLogLimit
	}
	records, err := s.systemLog.Recent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to read system log: %w", err)
	}

	lines := make([]*primary.LogLine, len(records))
	for i, r := range records {
		lines[i] = &primary.LogLine{
			Level:     r.Level,
			Message:   r.Message,
			CreatedAt: r.CreatedAt,
		}
	}
	return lines, nil
}
