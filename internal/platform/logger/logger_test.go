package logger_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/phrazzld/tempo/internal/config"
	"github.com/phrazzld/tempo/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name  string
		input string
		level slog.Level
		ok    bool
	}{
		{"debug", "debug", slog.LevelDebug, true},
		{"upper case", "WARN", slog.LevelWarn, true},
		{"info", "info", slog.LevelInfo, true},
		{"error", "error", slog.LevelError, true},
		{"unknown", "verbose", slog.LevelInfo, false},
		{"empty", "", slog.LevelInfo, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			level, ok := logger.ParseLevel(tt.input)
			assert.Equal(t, tt.level, level)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestNew_FiltersByLevel(t *testing.T) {
	buf := &logger.Buffer{}
	l := logger.New(buf, "warn")

	l.Info("dropped")
	l.Warn("kept", "task_id", "t-1")

	entries, err := buf.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "kept", entries[0]["msg"])
	assert.Equal(t, "WARN", entries[0]["level"])
	assert.Equal(t, "t-1", entries[0]["task_id"])
}

func TestSetup_WritesRotatedFile(t *testing.T) {
	original := slog.Default()
	defer slog.SetDefault(original)

	path := filepath.Join(t.TempDir(), "tempo.log")
	l, closer, err := logger.Setup(config.ServerConfig{
		LogLevel:      "debug",
		LogFile:       path,
		LogMaxSizeMB:  1,
		LogMaxBackups: 1,
	})
	require.NoError(t, err)
	require.NotNil(t, l)

	l.Debug("timer started", "task_id", "t-42")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	line := strings.TrimSpace(string(data))
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(line), &entry))
	assert.Equal(t, "timer started", entry["msg"])
	assert.Equal(t, "t-42", entry["task_id"])
	assert.Same(t, l, slog.Default())
}

func TestSetup_NoFile(t *testing.T) {
	original := slog.Default()
	defer slog.SetDefault(original)

	l, closer, err := logger.Setup(config.ServerConfig{LogLevel: "info"})
	require.NoError(t, err)
	assert.NotNil(t, l)
	assert.NoError(t, closer.Close())
}

func TestContextLogger(t *testing.T) {
	l, buf := logger.NewTestLogger(t)

	assert.Same(t, slog.Default(), logger.FromContext(context.Background()))
	assert.Same(t, l, logger.FromContextOrDefault(context.Background(), l))

	ctx := logger.WithLogger(context.Background(), l)
	assert.Same(t, l, logger.FromContext(ctx))

	ctx = logger.WithRequestID(ctx, "req-1")
	logger.FromContext(ctx).Info("handled")

	entry := logger.RequireEntry(t, buf, "handled")
	assert.Equal(t, "req-1", entry["request_id"])
}

func TestBuffer_Find(t *testing.T) {
	l, buf := logger.NewTestLogger(t)
	l.Debug("tick skipped")
	l.Warn("session sync failed", "session_id", "s-1")

	entry, ok := buf.Find("session sync failed")
	require.True(t, ok)
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "s-1", entry["session_id"])

	_, ok = buf.Find("never logged")
	assert.False(t, ok)

	entries, err := buf.Entries()
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}
