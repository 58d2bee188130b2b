package logging

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
	tests := map[string]LogLevel{
		"debug":   DEBUG,
		" INFO ":  INFO,
		"warning": WARN,
		"error":   ERROR,
		"verbose": INFO,
		"":        INFO,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestNewLogger_SharedSinkAndLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(Config{Level: WARN, JSONFormat: true}, &buf)
	require.NoError(t, err)

	logger.Slog().Info("dropped")
	logger.Slog().Warn("slate locked", "slate_id", "week-3")
	logger.Logrus().WithField("game_id", "g1").Error("analysis failed")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var first, second map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	assert.Equal(t, "slate locked", first["msg"])
	assert.Equal(t, "week-3", first["slate_id"])
	assert.Equal(t, "analysis failed", second["msg"])
	assert.Equal(t, "g1", second["game_id"])
}

func TestRotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "slatewise.log")
	logger, err := NewLogger(Config{Level: INFO, OutputFile: path, MaxSize: 256, MaxBackups: 2}, &bytes.Buffer{})
	require.NoError(t, err)
	defer logger.Close()

	for i := 0; i < 40; i++ {
		logger.Slog().Info("game analyzed", "game_id", i, "path", "heuristic")
	}

	_, err = os.Stat(path)
	assert.NoError(t, err)
	_, err = os.Stat(path + ".1")
	assert.NoError(t, err)
	_, err = os.Stat(path + ".2")
	assert.NoError(t, err)
	_, err = os.Stat(path + ".3")
	assert.True(t, os.IsNotExist(err), "only MaxBackups backups are kept")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.LessOrEqual(t, info.Size(), int64(256))
}

func TestInitialize_SetsSlogDefault(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	logger, err := Initialize(ConfigFor("debug", "text", ""))
	require.NoError(t, err)
	assert.Same(t, logger.Slog(), slog.Default())
	assert.NoError(t, Close())
}
