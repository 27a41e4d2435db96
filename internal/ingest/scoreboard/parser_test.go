package scoreboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/dugout/internal/plays"
)

const cardsHTML = `<html><body>
<div class="game" data-game-id="5012">
  <div class="team team--away"><span class="team__name">River Hawks</span><span class="team__score">1</span></div>
  <div class="team team--home"><span class="team__name">Lakers</span><span class="team__score">3</span></div>
  <span class="status">Bot 7th</span>
  <div class="situation" data-outs="2" data-count="3-2" data-bases="1,3">
    <span class="batter">Goldstein,Cade</span><span class="pitcher">Arm,Lefty</span>
  </div>
</div>
<div class="game" data-game-id="5013">
  <div class="team team--away"><span class="team__name">Owls</span><span class="team__score">4</span></div>
  <div class="team team--home"><span class="team__name">Bears</span><span class="team__score">4</span></div>
  <span class="status">Final/10</span>
</div>
<div class="game" data-game-id="5014">
  <div class="team team--away"><span class="team__name">Owls</span></div>
  <span class="status">7:05 PM</span>
</div>
</body></html>`

func TestParseCards(t *testing.T) {
	t.Parallel()

	games, err := ParseHTML(cardsHTML)
	require.NoError(t, err)
	require.Len(t, games, 2)

	live := games[0]
	assert.Equal(t, "5012", live.GameID)
	assert.Equal(t, "River Hawks", live.AwayName)
	assert.Equal(t, "Lakers", live.HomeName)
	require.NotNil(t, live.AwayScore)
	require.NotNil(t, live.HomeScore)
	assert.Equal(t, 1, *live.AwayScore)
	assert.Equal(t, 3, *live.HomeScore)
	require.NotNil(t, live.Inning)
	assert.Equal(t, 7, *live.Inning)
	assert.Equal(t, plays.HalfBottom, live.Half)
	require.NotNil(t, live.Outs)
	assert.Equal(t, 2, *live.Outs)
	assert.Equal(t, &plays.Count{Balls: 3, Strikes: 2}, live.Count)
	assert.Equal(t, [3]bool{true, false, true}, live.Bases)
	assert.Equal(t, "Goldstein,Cade", live.Batter)
	assert.False(t, live.Completed)

	final := games[1]
	assert.True(t, final.Completed)
	require.NotNil(t, final.Inning)
	assert.Equal(t, 10, *final.Inning)
	assert.Nil(t, final.Outs)

	got, ok := Find(games, "5013")
	assert.True(t, ok)
	assert.Equal(t, "Bears", got.HomeName)
	_, ok = Find(games, "nope")
	assert.False(t, ok)
}

func TestParseScoreLineFallback(t *testing.T) {
	t.Parallel()

	games, err := ParseHTML(`<div class="scorebox" id="g9">River Hawks 2 - 5 Lakers <span class="status">Mid 4th</span></div>`)
	require.NoError(t, err)
	require.Len(t, games, 1)

	g := games[0]
	assert.Equal(t, "g9", g.GameID)
	assert.Equal(t, "River Hawks", g.AwayName)
	assert.Equal(t, "Lakers", g.HomeName)
	assert.Equal(t, 2, *g.AwayScore)
	assert.Equal(t, 5, *g.HomeScore)
	assert.Equal(t, plays.HalfTop, g.Half)
	assert.Equal(t, 4, *g.Inning)
}

func TestApplyStatus(t *testing.T) {
	t.Parallel()

	cases := []struct {
		status    string
		inning    int
		half      plays.Half
		completed bool
	}{
		{"Top 1st", 1, plays.HalfTop, false},
		{"Bottom of the 9th", 9, plays.HalfBottom, false},
		{"End 3rd", 3, plays.HalfBottom, false},
		{"Final", 0, "", true},
		{"FINAL/12", 12, "", true},
		{"Delayed", 0, "", false},
	}
	for _, tc := range cases {
		g := Summary{Status: tc.status}
		applyStatus(&g)
		assert.Equal(t, tc.completed, g.Completed, tc.status)
		assert.Equal(t, tc.half, g.Half, tc.status)
		if tc.inning == 0 {
			assert.Nil(t, g.Inning, tc.status)
		} else {
			require.NotNil(t, g.Inning, tc.status)
			assert.Equal(t, tc.inning, *g.Inning, tc.status)
		}
	}
}
