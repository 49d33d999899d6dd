package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: "info"}, &buf)
	l.Debug("hidden")
	l.Info("summary generated", "chars", 1200)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "summary generated", rec["msg"])
	assert.EqualValues(t, 1200, rec["chars"])
}

func TestNewText(t *testing.T) {
	var buf bytes.Buffer
	New(Config{Level: "debug", Format: "text"}, &buf).Debug("query", "q", "Atomic Habits")
	assert.Contains(t, buf.String(), `q="Atomic Habits"`)
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "booksum.log")
	l, closer, err := Open(Config{Level: "info", File: path})
	require.NoError(t, err)
	l.Info("hello")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello")
}
