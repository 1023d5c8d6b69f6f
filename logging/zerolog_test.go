package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZerologAdapterFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerologAdapter(zerolog.New(&buf))

	logger.Info("tool.call.success", "tool", "search", "duration_ms", 12)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "tool.call.success", entry["message"])
	assert.Equal(t, "search", entry["tool"])
	assert.EqualValues(t, 12, entry["duration_ms"])
	assert.Equal(t, "info", entry["level"])
}

func TestZerologAdapterDanglingKey(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerologAdapter(zerolog.New(&buf))

	logger.Warn("odd.args", "k", "v", "dangling")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "v", entry["k"])
	assert.Equal(t, "dangling", entry["arg"])
}

func TestZerologAdapterNonStringKey(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerologAdapter(zerolog.New(&buf))

	logger.Error("bad.key", 42, "value")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "value", entry["42"])
}
