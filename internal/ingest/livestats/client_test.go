package livestats

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/dugout/internal/ingest/fetch"
)

func TestURLs(t *testing.T) {
	t.Parallel()

	c := New("https://stats.example.edu/", nil)
	assert.Equal(t, "https://stats.example.edu/games/g%201/stats.xml", c.GameURL("g 1"))
	assert.Equal(t, "https://stats.example.edu/games/42/innings/7.xml", c.InningURL("42", 7))
	assert.Equal(t, "https://stats.example.edu/games/42/boxscore.html", c.BoxURL("42"))
}

func TestFetch(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/games/42/stats.xml":
			_, _ = w.Write([]byte(`<game><section title="1st Inning Play-by-play"/></game>`))
		case "/games/42/innings/3.xml":
			_, _ = w.Write([]byte(`<inning n="3"/>`))
		case "/games/42/boxscore.html":
			_, _ = w.Write([]byte(`<html></html>`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	c := New(srv.URL, fetch.NewClient())
	ctx := context.Background()

	game, err := c.FetchGame(ctx, "42")
	require.NoError(t, err)
	assert.Contains(t, string(game), "Play-by-play")

	inning, err := c.FetchInning(ctx, "42", 3)
	require.NoError(t, err)
	assert.Equal(t, `<inning n="3"/>`, string(inning))

	box, err := c.FetchBox(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, `<html></html>`, string(box))

	_, err = c.FetchInning(ctx, "42", 11)
	assert.ErrorIs(t, err, fetch.ErrUpstream)
}
