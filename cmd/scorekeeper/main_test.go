package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/dugout/internal/platform/logging"
	"github.com/fortuna/dugout/internal/scorekeeping"
)

func TestSplitGames(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"1", "2"}, splitGames(" 1, ,2,"))
	assert.Empty(t, splitGames(""))
}

func TestConsoleReporterPrintsJSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	r := &consoleReporter{log: logging.NewNop(), out: &buf, compact: true}
	require.NoError(t, r.OnGameProcessed(&scorekeeping.Data{GameID: "42"}, false))
	assert.Contains(t, buf.String(), `"gameId":"42"`)
	assert.True(t, strings.HasSuffix(buf.String(), "\n"))
}
