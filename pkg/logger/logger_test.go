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
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLevel(tt.in))
		})
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := newWithWriter(&buf, Config{Level: "warn"})

	log.Debug("debug line")
	log.Info("info line")
	log.Warn("warn line")
	log.Error("error line")

	out := buf.String()
	assert.NotContains(t, out, "debug line")
	assert.NotContains(t, out, "info line")
	assert.Contains(t, out, "warn line")
	assert.Contains(t, out, "error line")
}

func TestJSONRecordCarriesComponentAndFields(t *testing.T) {
	var buf bytes.Buffer
	log := newWithWriter(&buf, Config{Level: "info", Format: "json"}).
		Named("lcu").
		With("port", 54321)

	log.Info("session established", "scheme", "https")

	var record map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "session established", record["msg"])
	assert.Equal(t, "lcu", record["component"])
	assert.Equal(t, float64(54321), record["port"])
	assert.Equal(t, "https", record["scheme"])
}

func TestSecretIsRedacted(t *testing.T) {
	var buf bytes.Buffer
	log := newWithWriter(&buf, Config{Level: "info"})

	log.Info("discovered", "token", Secret("hunter2"), "empty", Secret(""))

	out := buf.String()
	assert.NotContains(t, out, "hunter2")
	assert.Contains(t, out, "token=[redacted]")
}

func TestFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keeper.log")

	log := New(Config{Level: "debug", Output: path, Format: "text"})
	log.Debug("written to file")

	data, err := os.ReadFile(path) // nolint:gosec
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "written to file"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestOpenOutputFailure(t *testing.T) {
	_, err := openOutput(filepath.Join(t.TempDir(), "missing", "dir", "x.log"))
	assert.Error(t, err)

	// New falls back to stderr instead of failing.
	assert.NotNil(t, New(Config{Output: filepath.Join(t.TempDir(), "missing", "x.log")}))
}

func TestDefaultAndNoop(t *testing.T) {
	assert.NotNil(t, Default())

	log := Noop()
	log.Error("nothing happens")
	assert.NotNil(t, log.With("k", "v").Named("x"))
}
