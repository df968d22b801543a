package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekisa-team/yoloexport/internal/env"
)

func TestNew_Development(t *testing.T) {
	var buf bytes.Buffer
	log := New(env.Development, WithOutput(&buf))

	log.Info("export finished", "format", "coreml")
	log.Debug("hidden")

	out := buf.String()
	assert.Contains(t, out, "export finished")
	assert.Contains(t, out, "format=coreml")
	assert.NotContains(t, out, "hidden")
	assert.NotContains(t, out, "\x1b[", "non-terminal output must not be colored")
}

func TestNew_ProductionJSON(t *testing.T) {
	var buf bytes.Buffer
	log := New(env.Production, WithOutput(&buf), WithLevel(slog.LevelDebug))

	log.Debug("probe", "key", "value")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "probe", rec["msg"])
	assert.Equal(t, "value", rec["key"])
}

func TestNew_LogToFile(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "logs", "yoloexport.log")

	log := New(env.Development, WithOutput(&buf), WithLogToFile(true), WithLogFile(path))
	log.With("run", 1).Warn("toolkit slow")

	assert.Contains(t, buf.String(), "toolkit slow")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	line := strings.TrimSpace(string(data))

	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &rec))
	assert.Equal(t, "toolkit slow", rec["msg"])
	assert.Equal(t, float64(1), rec["run"])
}

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("debug")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)

	level, err = ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, level)

	_, err = ParseLevel("loud")
	assert.Error(t, err)
}
