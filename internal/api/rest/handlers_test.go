package rest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"unicode/utf8"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/dugout/internal/ingest"
	"github.com/fortuna/dugout/internal/ingest/scoreboard"
	"github.com/fortuna/dugout/internal/platform/logging"
	"github.com/fortuna/dugout/internal/plays"
	"github.com/fortuna/dugout/internal/scorekeeping"
	"github.com/fortuna/dugout/internal/store"
	"github.com/fortuna/dugout/internal/tweet"
)

func ip(n int) *int { return &n }

type fakeLive struct {
	feed *ingest.LiveFeed
	err  error
}

func (f fakeLive) Snapshot(context.Context, string) (*ingest.LiveFeed, error) {
	return f.feed, f.err
}

type fakeFinal struct {
	data *scorekeeping.Data
	err  error
}

func (f fakeFinal) Scorekeeping(context.Context, string) (*scorekeeping.Data, error) {
	return f.data, f.err
}

type fakeArchive struct {
	saved map[string]*scorekeeping.Data
}

func (a *fakeArchive) Save(_ context.Context, d *scorekeeping.Data) error {
	a.saved[d.GameID] = d
	return nil
}

func (a *fakeArchive) Get(_ context.Context, gameID string) (*scorekeeping.Data, error) {
	d, ok := a.saved[gameID]
	if !ok {
		return nil, errors.Wrapf(store.ErrNotFound, "game %s", gameID)
	}
	return d, nil
}

func liveFeed() *ingest.LiveFeed {
	h := plays.DefaultHeuristics()
	e1 := plays.NewEvent("k1", 1, ip(1), plays.HalfTop, "Kelly,Rowan struck out swinging.", "", "", "", ip(0), h)
	e2 := plays.NewEvent("k2", 2, ip(1), plays.HalfTop, "Smith,Jo homered to left field, RBI.", "", "", "", ip(1), h)
	return &ingest.LiveFeed{
		GameID: "42",
		Summary: &scoreboard.Summary{
			GameID: "42", AwayName: "River Hawks", HomeName: "Lakers",
			AwayScore: ip(1), HomeScore: ip(0), Status: "Top 1st",
		},
		Events: []plays.Event{e1, e2},
		State: map[string]plays.DerivedState{
			"k1": {AwayScore: ip(0), HomeScore: ip(0), OutsAfterPlay: ip(1)},
			"k2": {AwayScore: ip(1), HomeScore: ip(0), OutsAfterPlay: ip(1)},
		},
	}
}

func newTestRouter(live LiveSource, final FinalSource, archive Archive) http.Handler {
	return NewRouter(NewHandler(live, final, archive, tweet.Options{Tag: "#dugout"}, logging.NewNop()), logging.NewNop())
}

func get(t *testing.T, h http.Handler, path string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	var body map[string]interface{}
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return rec, body
}

func TestHealth(t *testing.T) {
	t.Parallel()

	rec, body := get(t, newTestRouter(fakeLive{}, fakeFinal{}, nil), "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", body["status"])
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
}

func TestRequestIDIsEchoed(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	newTestRouter(fakeLive{}, fakeFinal{}, nil).ServeHTTP(rec, req)
	assert.Equal(t, "req-123", rec.Header().Get(RequestIDHeader))
}

func TestGetPlays(t *testing.T) {
	t.Parallel()

	rec, body := get(t, newTestRouter(fakeLive{feed: liveFeed()}, fakeFinal{}, nil), "/api/v1/games/42/plays")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "42", body["gameId"])

	list, ok := body["plays"].([]interface{})
	require.True(t, ok)
	require.Len(t, list, 2)
	second := list[1].(map[string]interface{})
	assert.Equal(t, "k2", second["key"])
	assert.Equal(t, "top", second["half"])
	state := second["state"].(map[string]interface{})
	assert.EqualValues(t, 1, state["awayScore"])
}

func TestGetPlaysUpstreamError(t *testing.T) {
	t.Parallel()

	live := fakeLive{err: errors.Wrap(ingest.ErrUpstream, "status 503")}
	rec, body := get(t, newTestRouter(live, fakeFinal{}, nil), "/api/v1/games/42/plays")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "Failed to fetch live plays", body["error"])
	assert.EqualValues(t, http.StatusBadGateway, body["status"])
	assert.Contains(t, body["details"], "status 503")
}

func TestGetPlayTweet(t *testing.T) {
	t.Parallel()

	h := newTestRouter(fakeLive{feed: liveFeed()}, fakeFinal{}, nil)

	rec, body := get(t, h, "/api/v1/games/42/plays/k2/tweet")
	require.Equal(t, http.StatusOK, rec.Code)
	text := body["text"].(string)
	assert.Contains(t, text, "Top 1 | 1 Out")
	assert.Contains(t, text, "Jo Smith homered")
	assert.Contains(t, text, "#dugout")
	assert.EqualValues(t, tweet.DefaultMaxLength, body["maxLength"])

	rec, body = get(t, h, "/api/v1/games/42/plays/k2/tweet?max=30")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.LessOrEqual(t, utf8.RuneCountInString(body["text"].(string)), 30)

	rec, _ = get(t, h, "/api/v1/games/42/plays/k2/tweet?max=zero")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = get(t, h, "/api/v1/games/42/plays/missing/tweet")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestScorekeepingAndArchive(t *testing.T) {
	t.Parallel()

	data := &scorekeeping.Data{GameID: "42", Away: scorekeeping.TeamSnapshot{Name: "River Hawks"}, Warnings: []string{}}
	archive := &fakeArchive{saved: map[string]*scorekeeping.Data{}}
	h := newTestRouter(fakeLive{}, fakeFinal{data: data}, archive)

	rec, _ := get(t, h, "/api/v1/games/42/archive")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, body := get(t, h, "/api/v1/games/42/scorekeeping")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "42", body["gameId"])
	assert.Empty(t, archive.saved)

	rec, _ = get(t, h, "/api/v1/games/42/scorekeeping?archive=true")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, archive.saved, "42")

	rec, body = get(t, h, "/api/v1/games/42/archive")
	require.Equal(t, http.StatusOK, rec.Code)
	away := body["away"].(map[string]interface{})
	assert.Equal(t, "River Hawks", away["name"])
}

func TestArchiveNotConfigured(t *testing.T) {
	t.Parallel()

	rec, _ := get(t, newTestRouter(fakeLive{}, fakeFinal{}, nil), "/api/v1/games/42/archive")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRecoveryMiddleware(t *testing.T) {
	t.Parallel()

	h := RecoveryMiddleware(logging.NewNop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestUnknownRoute(t *testing.T) {
	t.Parallel()

	rec, body := get(t, newTestRouter(fakeLive{}, fakeFinal{}, nil), "/api/v1/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Route not found", body["error"])
}
