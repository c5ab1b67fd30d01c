package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZerologLoggerMethods(t *testing.T) {
	assert.NoError(t, os.Setenv("APP_ENV", "dev"))
	defer func() { assert.NoError(t, os.Unsetenv("APP_ENV")) }()
	l := NewZerologLogger("test")
	if l == nil {
		t.Fatalf("nil logger")
	}
	l.Debugf("debug %d", 1)
	l.Debugw("debug", map[string]any{"k": 1})
	l.Infof("info %s", "test")
	l.Warnf("warn")
	l.Errorf("error")
}

func TestZerologLoggerComponentField(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)
	require.NoError(t, SetLevel("debug"))

	var buf bytes.Buffer
	l := NewWithWriter(&buf, "clock")
	l.Debugw("unit dispatched", map[string]any{"unit": "F1-0"})

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "clock", line["component"])
	assert.Equal(t, "F1-0", line["unit"])
	assert.Equal(t, "debug", line["level"])
}

func TestSetLevel(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)
	require.NoError(t, SetLevel("warn"))

	var buf bytes.Buffer
	l := NewWithWriter(&buf, "x")
	l.Infof("hidden")
	assert.Zero(t, buf.Len())
	l.Warnf("shown")
	assert.NotZero(t, buf.Len())

	assert.Error(t, SetLevel("loud"))
}

func TestWithAddsField(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "clock").With("run_id", "r-1")
	l.Infof("started")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "r-1", line["run_id"])
	assert.Equal(t, "started", line["message"])
}

func TestDebugwSkippedAboveDebug(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)
	require.NoError(t, SetLevel("info"))
	var buf bytes.Buffer
	NewWithWriter(&buf, "x").Debugw("hidden", map[string]any{"k": 1})
	assert.Zero(t, buf.Len())
}
