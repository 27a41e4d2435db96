package scorecard

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/dugout/internal/ingest/fetch"
)

func TestParseLineScoreColumns(t *testing.T) {
	t.Parallel()

	text := "Official Scorecard\n\n" +
		"Team         1    2    3    R    H    E\n" +
		"River Hawks  0    1    0    1    5    1\n" +
		"Lakers       2    0    1    3    8    0\n"

	got := ParseLineScore(text)
	require.NotNil(t, got)
	assert.Equal(t, "River Hawks", got.AwayName)
	assert.Equal(t, "Lakers", got.HomeName)
	assert.Equal(t, 1, *got.Away.Runs)
	assert.Equal(t, 8, *got.Home.Hits)
	require.Len(t, got.Home.Innings, 3)
	assert.Equal(t, 2, *got.Home.Innings[0])
}

func TestParseLineScoreLines(t *testing.T) {
	t.Parallel()

	text := "Box Score Final\n" +
		"River Hawks 0 0 1 0 0 0 0 0 0 1 5 1\n" +
		"Lakers 0 2 0 0 1 0 0 0 x 3 8 0\n" +
		"Attendance 1200\n"

	got := ParseLineScore(text)
	require.NotNil(t, got)
	assert.Equal(t, "River Hawks", got.AwayName)
	assert.Equal(t, "Lakers", got.HomeName)
	require.Len(t, got.Home.Innings, 9)
	assert.Nil(t, got.Home.Innings[8])
	assert.Equal(t, 3, *got.Home.Runs)
	assert.Equal(t, 0, *got.Home.Errors)
}

func TestParseLineScoreMissing(t *testing.T) {
	t.Parallel()
	assert.Nil(t, ParseLineScore("no scores here\njust words"))
}

func TestExtractTextRejectsGarbage(t *testing.T) {
	t.Parallel()

	_, err := ExtractText([]byte("not a pdf"))
	assert.ErrorIs(t, err, fetch.ErrDecode)
}

type stubGetter struct {
	url string
	err error
}

func (s *stubGetter) Get(_ context.Context, url string) ([]byte, error) {
	s.url = url
	return nil, s.err
}

func TestFetchPropagatesUpstreamErrors(t *testing.T) {
	t.Parallel()

	g := &stubGetter{err: errors.Wrap(fetch.ErrUpstream, "status 500")}
	c := New("https://stats.example.edu", g)
	_, err := c.FetchLineScore(context.Background(), "42")
	assert.ErrorIs(t, err, fetch.ErrUpstream)
	assert.Equal(t, "https://stats.example.edu/games/42/scorecard.pdf", g.url)
}
