package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"", zapcore.WarnLevel},
		{"debug", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestNewWithSinkFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewWithSink("warn", false, zapcore.AddSync(&buf))
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown", zap.String("file", "jeeves.ttl"))
	require.NoError(t, logger.Sync())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "shown", entry["msg"])
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "jeeves.ttl", entry["file"])
}

func TestNewWithSinkVerbose(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewWithSink("error", true, zapcore.AddSync(&buf))
	require.NoError(t, err)

	logger.Debug("details")
	assert.Contains(t, buf.String(), "details")
}

func TestNewRejectsBadLevel(t *testing.T) {
	_, err := New("chatty", false)
	assert.Error(t, err)
}

func TestGetNamesCategory(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	Get(zap.New(core), CategoryGraph).Info("loaded")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "graph", logs.All()[0].LoggerName)

	assert.NotPanics(t, func() { Get(nil, CategoryQuery).Info("dropped") })
}

func TestTimer(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)

	elapsed := StartTimer(logger, "evaluate").Stop(zap.Int("facts", 3))
	assert.GreaterOrEqual(t, elapsed, time.Duration(0))

	entries := logs.TakeAll()
	require.Len(t, entries, 1)
	assert.Equal(t, "evaluate completed", entries[0].Message)
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, int64(3), entries[0].ContextMap()["facts"])
}

func TestTimerThreshold(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)

	timer := StartTimer(logger, "load")
	time.Sleep(2 * time.Millisecond)
	timer.StopWithThreshold(time.Nanosecond)

	StartTimer(logger, "load").StopWithThreshold(time.Hour)

	entries := logs.TakeAll()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	assert.Equal(t, "load was slow", entries[0].Message)
	assert.Equal(t, zapcore.DebugLevel, entries[1].Level)

	assert.NotPanics(t, func() { StartTimer(nil, "noop").Stop() })
}
