package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LogLevelDebug, ParseLevel("debug"))
	assert.Equal(t, LogLevelWarn, ParseLevel("WARN"))
	assert.Equal(t, LogLevelWarn, ParseLevel("warning"))
	assert.Equal(t, LogLevelError, ParseLevel(" error "))
	assert.Equal(t, LogLevelInfo, ParseLevel("info"))
	assert.Equal(t, LogLevelInfo, ParseLevel("bogus"))
	assert.Equal(t, LogLevelInfo, ParseLevel(""))
}

func TestNewJSONLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&Config{Level: LogLevelDebug, Format: "json", Output: &buf})

	logger.Info("pipeline.started", "pipeline", "qa", "tools", 3)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "pipeline.started", entry["msg"])
	assert.Equal(t, "qa", entry["pipeline"])
	assert.EqualValues(t, 3, entry["tools"])
}

func TestNewTextLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&Config{Level: LogLevelWarn, Format: "text", Output: &buf})

	logger.Debug("hidden")
	logger.Info("hidden too")
	logger.Warn("visible")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "visible")
}

func TestLogLevelString(t *testing.T) {
	assert.Equal(t, "DEBUG", LogLevelDebug.String())
	assert.Equal(t, "INFO", LogLevelInfo.String())
	assert.Equal(t, "WARN", LogLevelWarn.String())
	assert.Equal(t, "ERROR", LogLevelError.String())
	assert.Equal(t, "UNKNOWN", LogLevel(99).String())
}

func TestNoOpLogger(t *testing.T) {
	var logger Logger = NoOpLogger{}
	// Must accept any arguments without side effects.
	logger.Debug("msg", "k", "v")
	logger.Info("msg")
	logger.Warn("msg", "odd")
	logger.Error("msg", "k", strings.Repeat("x", 10))
}
