package ingest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/dugout/internal/cache"
	"github.com/fortuna/dugout/internal/config"
	"github.com/fortuna/dugout/internal/platform/logging"
	"github.com/fortuna/dugout/internal/plays"
	"github.com/fortuna/dugout/internal/reconciliation"
	"github.com/fortuna/dugout/internal/scorekeeping"
)

const livePayload = `<game>
<section title="1st Inning Play-by-play"><![CDATA[
<table>
<tr><th>Play</th><th>Outs</th></tr>
<tr><td>Top of the 1st</td></tr>
<tr><td>Kelly,Rowan struck out swinging.</td><td>1</td></tr>
<tr><td>Smith,Jo homered to left field, RBI.</td><td>1</td></tr>
<tr><td>Bottom of the 1st</td></tr>
<tr><td>Goldstein,Cade singled to right field.</td><td>0</td></tr>
</table>
]]></section>
</game>`

const boardHTML = `<div data-game-id="42">
<div class="team--away"><span class="team__name">River Hawks</span><span class="team__score">1</span></div>
<div class="team--home"><span class="team__name">Lakers</span><span class="team__score">0</span></div>
<span class="status">Bot 1st</span>
<div class="situation" data-outs="0"></div>
</div>`

type fakeGames struct {
	calls   atomic.Int32
	payload string
	err     error
}

func (f *fakeGames) FetchGame(context.Context, string) ([]byte, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return []byte(f.payload), nil
}

type fakeBoard struct {
	html string
}

func (f fakeBoard) FetchScoreboard(context.Context) (string, error) { return f.html, nil }

func TestLiveSnapshot(t *testing.T) {
	t.Parallel()

	games := &fakeGames{payload: livePayload}
	li := NewLiveIngester(games, fakeBoard{html: boardHTML}, cache.NewMemoryCache(), time.Minute, plays.DefaultHeuristics(), logging.NewNop())

	feed, err := li.Snapshot(context.Background(), "42")
	require.NoError(t, err)

	require.NotNil(t, feed.Summary)
	assert.Equal(t, "River Hawks", feed.Summary.AwayName)
	require.Len(t, feed.Events, 3)
	assert.Equal(t, plays.HalfTop, feed.Events[0].Half)
	assert.Equal(t, plays.HalfBottom, feed.Events[2].Half)

	hr := feed.State[feed.Events[1].Key]
	require.NotNil(t, hr.AwayScore)
	assert.Equal(t, 1, *hr.AwayScore)
	k := feed.State[feed.Events[0].Key]
	require.NotNil(t, k.AwayScore)
	assert.Equal(t, 0, *k.AwayScore)

	assert.Equal(t, reconciliation.StateInSync, feed.Reconciliation.State)
	assert.Equal(t, 1, feed.Reconciliation.AwayRuns)
	assert.Empty(t, feed.Reconciliation.Warnings)

	state := feed.GameState()
	assert.Equal(t, "Lakers", state.HomeName)
	assert.False(t, feed.Completed())

	got, ok := feed.Find(feed.Events[2].Key)
	assert.True(t, ok)
	assert.Contains(t, got.Text, "Goldstein")

	again, err := li.Snapshot(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, int32(1), games.calls.Load())
	for i := range feed.Events {
		assert.Equal(t, feed.Events[i].Key, again.Events[i].Key)
	}
}

func TestLiveSnapshotWithoutScoreboard(t *testing.T) {
	t.Parallel()

	li := NewLiveIngester(&fakeGames{payload: livePayload}, nil, nil, 0, plays.DefaultHeuristics(), nil)
	feed, err := li.Snapshot(context.Background(), "42")
	require.NoError(t, err)
	assert.Nil(t, feed.Summary)
	assert.Len(t, feed.Events, 3)
	assert.Nil(t, feed.State[feed.Events[0].Key].AwayScore)
	assert.Equal(t, "", feed.GameState().AwayName)
}

func TestLiveSnapshotUpstreamFailure(t *testing.T) {
	t.Parallel()

	games := &fakeGames{err: errors.Wrap(ErrUpstream, "status 503")}
	li := NewLiveIngester(games, fakeBoard{html: boardHTML}, nil, 0, plays.DefaultHeuristics(), nil)
	_, err := li.Snapshot(context.Background(), "42")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUpstream)
}

type fakeFinal struct {
	box string

	mu      sync.Mutex
	fetched []int
}

func (f *fakeFinal) FetchBox(context.Context, string) ([]byte, error) {
	return []byte(f.box), nil
}

func (f *fakeFinal) FetchInning(_ context.Context, _ string, inning int) ([]byte, error) {
	f.mu.Lock()
	f.fetched = append(f.fetched, inning)
	f.mu.Unlock()

	title := fmt.Sprintf("%d Inning Play-by-play", inning)
	if inning%2 == 0 {
		title = ""
	}
	return []byte(fmt.Sprintf(`<inning><section title="%s"><table>
<tr><th>Play</th></tr>
<tr><td>Top of the %d</td></tr>
<tr><td>Kelly,Rowan grounded out to ss (1-1 BK).</td></tr>
<tr><td>Bottom of the %d</td></tr>
<tr><td>Goldstein,Cade flied out to cf (0-0).</td></tr>
</table></section></inning>`, title, inning, inning)), nil
}

func lineScoreHTML(innings int) string {
	var b strings.Builder
	b.WriteString(`<h3>Line Score</h3><table><tr><th></th>`)
	for i := 1; i <= innings; i++ {
		fmt.Fprintf(&b, "<th>%d</th>", i)
	}
	b.WriteString(`<th>R</th><th>H</th><th>E</th></tr>`)
	for _, team := range []string{"River Hawks", "Lakers"} {
		fmt.Fprintf(&b, "<tr><td>%s</td>", team)
		for i := 1; i <= innings; i++ {
			b.WriteString("<td>0</td>")
		}
		b.WriteString("<td>0</td><td>0</td><td>0</td></tr>")
	}
	b.WriteString("</table>")
	return b.String()
}

type fakeCards struct {
	calls atomic.Int32
}

func (f *fakeCards) FetchLineScore(context.Context, string) (*scorekeeping.LineTotals, error) {
	f.calls.Add(1)
	zero := 0
	return &scorekeeping.LineTotals{
		AwayName: "River Hawks", HomeName: "Lakers",
		Away: scorekeeping.LineScore{Runs: &zero}, Home: scorekeeping.LineScore{Runs: &zero},
	}, nil
}

func TestFinalBundleExtraInnings(t *testing.T) {
	t.Parallel()

	src := &fakeFinal{box: lineScoreHTML(10)}
	cards := &fakeCards{}
	fi := NewFinalIngester(src, cards, 3, plays.DefaultHeuristics(), logging.NewNop())

	b, err := fi.Bundle(context.Background(), "42")
	require.NoError(t, err)
	require.NotNil(t, b.LineScore)
	require.Len(t, b.Innings, 10)
	for i, s := range b.Innings {
		n := plays.SectionInning(s.Title)
		require.NotNil(t, n)
		assert.Equal(t, i+1, *n)
	}
	assert.ElementsMatch(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, src.fetched)
	assert.Equal(t, int32(0), cards.calls.Load())

	data, err := fi.Scorekeeping(context.Background(), "42")
	require.NoError(t, err)
	assert.Len(t, data.Plays, 20)
	assert.Equal(t, "River Hawks", data.Away.Name)
}

func TestFinalBundleScorecardFallback(t *testing.T) {
	t.Parallel()

	src := &fakeFinal{box: `<h3>Notes</h3><table><tr><td>Rain delay</td></tr></table>`}
	cards := &fakeCards{}
	fi := NewFinalIngester(src, cards, 4, plays.DefaultHeuristics(), nil)

	b, err := fi.Bundle(context.Background(), "42")
	require.NoError(t, err)
	assert.Nil(t, b.LineScore)
	require.NotNil(t, b.Totals)
	assert.Equal(t, "Lakers", b.Totals.HomeName)
	assert.Equal(t, int32(1), cards.calls.Load())
	assert.Len(t, src.fetched, 9)
}

func TestSourcesWithoutScoreboard(t *testing.T) {
	t.Parallel()

	s := NewSources(config.SourcesConfig{StatsBaseURL: "https://stats.example.edu", FetchConcurrency: 2}, logging.NewNop())
	defer s.Close()

	assert.Nil(t, s.Board)
	assert.Equal(t, "https://stats.example.edu/games/7/stats.xml", s.Stats.GameURL("7"))
	assert.Nil(t, s.Live(nil, plays.DefaultHeuristics()).board)
	assert.Equal(t, 2, s.Final(plays.DefaultHeuristics()).concurrency)
}
