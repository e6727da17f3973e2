package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newJSONLogger(buf *bytes.Buffer, level LogLevel) *ConversationLogger {
	return NewLogger(&LoggerConfig{Level: level, Format: "json", Output: buf})
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()

	var out []map[string]any

	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}

		entry := map[string]any{}
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		out = append(out, entry)
	}

	return out
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    LogLevel
		wantErr bool
	}{
		{in: "", want: LogLevelInfo},
		{in: "debug", want: LogLevelDebug},
		{in: "INFO", want: LogLevelInfo},
		{in: "warning", want: LogLevelWarn},
		{in: "warn", want: LogLevelWarn},
		{in: "error", want: LogLevelError},
		{in: "verbose", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConversationLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer

	l := newJSONLogger(&buf, LogLevelWarn)
	l.Debug("hidden")
	l.Info("hidden")
	l.Warn("shown")
	l.Error("shown too")

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 2)
	assert.Equal(t, "WARN", entries[0]["level"])
	assert.Equal(t, "ERROR", entries[1]["level"])
}

func TestConversationLogger_ContextAttributes(t *testing.T) {
	var buf bytes.Buffer

	base := newJSONLogger(&buf, LogLevelDebug)
	l := base.WithComponent("engine").WithRun("run-1").WithAgent("jasper").With("round", 3)

	l.Info("turn finished", "deliveries", 3)
	base.Info("plain")

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 2)

	assert.Equal(t, "engine", entries[0]["component"])
	assert.Equal(t, "run-1", entries[0]["run_id"])
	assert.Equal(t, "jasper", entries[0]["agent_id"])
	assert.EqualValues(t, 3, entries[0]["round"])
	assert.EqualValues(t, 3, entries[0]["deliveries"])

	assert.NotContains(t, entries[1], "component")
	assert.NotContains(t, entries[1], "round")
}

func TestConversationLogger_LogInferenceCall(t *testing.T) {
	var buf bytes.Buffer

	l := newJSONLogger(&buf, LogLevelInfo)
	l.LogInferenceCall("ruby", "granite3.3:2b", time.Second, true, nil)
	l.LogInferenceCall("ruby", "granite3.3:2b", time.Second, false, errors.New("timeout"))

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1, "successful calls log at debug level")
	assert.Equal(t, "Inference call failed", entries[0]["msg"])
	assert.Equal(t, "timeout", entries[0]["error"])
	assert.Equal(t, "ruby", entries[0]["agent"])
}

func TestConversationLogger_TextFormat(t *testing.T) {
	var buf bytes.Buffer

	l := NewLogger(&LoggerConfig{Level: LogLevelDebug, Output: &buf, Component: "cli"})
	l.LogRound(2, 4, time.Millisecond)

	out := buf.String()
	assert.Contains(t, out, "msg=\"Round completed\"")
	assert.Contains(t, out, "component=cli")
	assert.Contains(t, out, "round=2")
	assert.Contains(t, out, "turns=4")
}

func TestLogLevel_String(t *testing.T) {
	assert.Equal(t, "DEBUG", LogLevelDebug.String())
	assert.Equal(t, "ERROR", LogLevelError.String())
}

func TestNoOpLogger(_ *testing.T) {
	var l Logger = NoOpLogger{}
	l.Debug("x")
	l.Error("y", "k", "v")
}

func TestSlogAdapter(t *testing.T) {
	var buf bytes.Buffer

	l := NewSlogAdapter(slog.New(slog.NewTextHandler(&buf, nil)))
	l.Info("Backend reachable", "provider", "ollama")
	l.Debug("filtered by the handler level")

	assert.Contains(t, buf.String(), "provider=ollama")
	assert.NotContains(t, buf.String(), "filtered")
}
