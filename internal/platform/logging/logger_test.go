package logging

import (
	"bytes"
	"errors"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	cases := map[string]Level{
		"debug":   LevelDebug,
		" WARN ":  LevelWarn,
		"warning": LevelWarn,
		"error":   LevelError,
		"":        LevelInfo,
		"verbose": LevelInfo,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestJSONFields(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewJSONTo(&buf, LevelInfo)

	logger.Debug("hidden")
	logger.With("game_id", "42").Info("cycle complete", "plays", 3, "error", errors.New("boom"), "dangling")
	require.NoError(t, logger.Sync())

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var entry map[string]interface{}
	require.NoError(t, sonic.Unmarshal(lines[0], &entry))
	assert.Equal(t, "cycle complete", entry["msg"])
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "42", entry["game_id"])
	assert.EqualValues(t, 3, entry["plays"])
	assert.Equal(t, "boom", entry["error"])
	assert.Contains(t, entry, "dangling")
}

func TestNilLoggerUsesDefault(t *testing.T) {
	var l *Logger
	assert.NotPanics(t, func() {
		l.Info("nothing")
		_ = l.With("k", "v")
		_ = l.Sync()
	})
}
