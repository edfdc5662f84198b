package logger

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daystart-app/daystart-api/internal/config"
)

func TestSetupLogLevels(t *testing.T) {
	// Setup replaces the process default logger; restore it afterwards.
	original := slog.Default()
	t.Cleanup(func() { slog.SetDefault(original) })

	tests := []struct {
		configured string
		debugOn    bool
		warnOn     bool
	}{
		{"debug", true, true},
		{"info", false, true},
		{"WARN", false, true},
		{"error", false, false},
		{"not-a-level", false, true}, // falls back to info
	}

	for _, tc := range tests {
		t.Run(tc.configured, func(t *testing.T) {
			log, err := Setup(config.ServerConfig{LogLevel: tc.configured})
			require.NoError(t, err)

			ctx := context.Background()
			assert.Equal(t, tc.debugOn, log.Enabled(ctx, slog.LevelDebug))
			assert.Equal(t, tc.warnOn, log.Enabled(ctx, slog.LevelWarn))
		})
	}
}

func TestContextLogger(t *testing.T) {
	buf, log, cleanup := SetupTestLogger(t, nil)
	defer cleanup()

	scoped := log.With("trace_id", "abc123")
	ctx := WithLogger(context.Background(), scoped)

	FromContext(ctx).Info("handling request")

	entries, err := buf.GetLogEntries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "handling request", entries[0]["msg"])
	assert.Equal(t, "abc123", entries[0]["trace_id"])

	// Without a context logger, FromContextOrDefault prefers the given
	// component logger over the process default.
	def := log.With("component", "job_store")
	buf.Reset()
	FromContextOrDefault(context.Background(), def).Info("store call")

	entries, err = buf.GetLogEntries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "job_store", entries[0]["component"])

	// A context logger wins over the component default.
	buf.Reset()
	FromContextOrDefault(ctx, def).Info("request-scoped store call")

	entries, err = buf.GetLogEntries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "abc123", entries[0]["trace_id"])

	assert.Nil(t, WithLogger(context.Background(), nil).Value(loggerKey))
}
