package app

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogService_Recent(t *testing.T) {
	ctx := context.Background()
	log := &mockSystemLog{}
	for i := 1; i <= 12; i++ {
		require.NoError(t, log.Record(ctx, "info", fmt.Sprintf("line %d", i)))
	}
	svc := NewLogService(log)

	lines, err := svc.Recent(ctx, 3)
	require.NoError(t, err)
	require.Len(t, lines, 3)
	assert.Equal(t, "line 12", lines[0].Message)
	assert.Equal(t, "line 10", lines[2].Message)

	lines, err = svc.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, lines, DefaultLogLimit)
}
