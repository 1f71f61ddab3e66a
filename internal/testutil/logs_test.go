package testutil

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogRecorder_CapturesRecords(t *testing.T) {
	rec := NewLogRecorder()
	logger := rec.Logger().With("conn", "abc")

	logger.Info("connection opened", "store", "memory")
	logger.Debug("operation complete", "op", "execute")

	records := rec.Records(t)
	require.Len(t, records, 2)
	assert.Equal(t, "connection opened", records[0][slog.MessageKey])
	assert.Equal(t, "INFO", records[0][slog.LevelKey])
	assert.Equal(t, "abc", records[0]["conn"])
	assert.Equal(t, "memory", records[0]["store"])
	assert.Equal(t, "DEBUG", records[1][slog.LevelKey])

	assert.Equal(t, []string{"connection opened", "operation complete"}, rec.Messages(t))
}

func TestLogRecorder_Empty(t *testing.T) {
	rec := NewLogRecorder()
	assert.Empty(t, rec.Records(t))
	assert.Empty(t, rec.Messages(t))
}
