package publisher

import (
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/dugout/internal/plays"
	"github.com/fortuna/dugout/internal/tweet"
)

func ip(n int) *int { return &n }

func TestNewPlayMessage(t *testing.T) {
	t.Parallel()

	e := plays.NewEvent("abc123", 4, ip(2), plays.HalfTop, "Smith,Jo homered to left field, RBI.", "", "", "", nil, plays.DefaultHeuristics())
	st := plays.DerivedState{AwayScore: ip(1), HomeScore: ip(0), OutsAfterPlay: ip(1)}
	game := tweet.GameState{AwayName: "River Hawks", HomeName: "Lakers"}

	msg := NewPlayMessage("42", e, st, game, tweet.Options{Tag: "#dugout"})
	assert.Equal(t, TypePlay, msg.Type)
	assert.Equal(t, "abc123", msg.Key)
	assert.Equal(t, 1, msg.RunsScored)
	assert.Equal(t, "home_run", msg.Outcome)
	assert.Contains(t, msg.Post, "Jo Smith homered")
	assert.Contains(t, msg.Post, "River Hawks 1, Lakers 0")

	data, err := sonic.Marshal(msg)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"half":"top"`)
	assert.Contains(t, string(data), `"gameId":"42"`)
}

func TestNewFinalMessage(t *testing.T) {
	t.Parallel()

	game := tweet.GameState{AwayName: "River Hawks", HomeName: "Lakers", AwayScore: ip(1), HomeScore: ip(3), Status: "Final", Completed: true}
	msg := NewFinalMessage("42", game, tweet.Options{})
	assert.Equal(t, TypeFinal, msg.Type)
	assert.Equal(t, "Final\n\nRiver Hawks 1, Lakers 3", msg.Post)
	assert.Empty(t, msg.Key)
}
