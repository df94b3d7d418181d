package logger

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// TestParseLogLevel verifies mapping from strings to zapcore.Level and handling of unknown values.
func TestParseLogLevel(t *testing.T) {
	t.Parallel()

	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		" INFO ":  zapcore.InfoLevel,
		"":        zapcore.InfoLevel,
		"warn":    zapcore.WarnLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
	}
	for s, lvl := range cases {
		got, ok := ParseLogLevel(s)
		require.True(t, ok, s)
		require.Equal(t, lvl, got)
	}

	_, ok := ParseLogLevel("verbose")
	require.False(t, ok)
}

// TestContextHelpers checks the context logger carries names and fields into every entry.
func TestContextHelpers(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	ctx := ToContext(context.Background(), zap.New(core).Sugar())

	ctx = WithName(ctx, "allotment")
	ctx = WithKV(ctx, "actor", "warden@hostel-pc")
	ctx = WithFields(ctx, "group_id", "g1", "rank", 3)

	InfoKV(ctx, "Turn started", "deadline", "12:05")
	DebugKV(ctx, "Queued group")
	ErrorKV(ctx, "Commit failed", "error", "locked")

	entries := logs.All()
	require.Len(t, entries, 3)

	first := entries[0]
	require.Equal(t, "allotment", first.LoggerName)
	require.Equal(t, "Turn started", first.Message)
	require.Equal(t, map[string]any{
		"actor":    "warden@hostel-pc",
		"group_id": "g1",
		"rank":     int64(3),
		"deadline": "12:05",
	}, first.ContextMap())

	require.Equal(t, zapcore.ErrorLevel, entries[2].Level)
}

// TestFromContext_FallsBackToGlobal returns the global logger for bare contexts.
func TestFromContext_FallsBackToGlobal(t *testing.T) {
	t.Parallel()

	require.Same(t, global, FromContext(context.Background()))
	require.Same(t, global, FromContext(nil)) //nolint:staticcheck // Nil context is handled on purpose.
}

// TestNew_WritesConsoleLines checks the console encoder output format.
func TestNew_WritesConsoleLines(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	l := New(zapcore.InfoLevel, zapcore.AddSync(&buf)).Named("allotment-server")
	l.Debugw("hidden")
	l.Infow("Allotment run started", "queue_size", 3)
	require.NoError(t, l.Sync())

	out := buf.String()
	require.NotContains(t, out, "hidden")
	require.Contains(t, out, "INFO, allotment-server, Allotment run started")
	require.Contains(t, out, `{"queue_size": 3}`)
}

// TestSetLevelFromString rejects unknown levels without changing the current one.
func TestSetLevelFromString(t *testing.T) {
	t.Parallel()

	require.Error(t, SetLevelFromString("verbose"))
	require.Equal(t, zapcore.InfoLevel, defaultLevel.Level())
}
