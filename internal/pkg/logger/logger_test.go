package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Init(Config{Level: "info", Format: "json", Output: &buf}))

	WithRunID("run-1").Info("child started")
	require.NoError(t, Sync())

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "child started", entry["msg"])
	assert.Equal(t, "run-1", entry["run_id"])
	assert.Contains(t, entry, "timestamp")
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Init(Config{Level: "warn", Format: "json", Output: &buf}))

	Info("hidden")
	Debug("hidden")
	assert.Zero(t, buf.Len())
	assert.False(t, IsDebug())

	Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestInvalidLevelFallsBackToWarn(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Init(Config{Level: "loud", Format: "console", Output: &buf}))

	Info("hidden")
	assert.Zero(t, buf.Len())

	Error("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestDebugLevel(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Init(Config{Level: "debug", Output: &buf}))
	assert.True(t, IsDebug())
}
