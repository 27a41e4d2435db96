// Package livestats fetches game payloads from the live-stats service.
package livestats

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/fortuna/dugout/internal/ingest/fetch"
)

// Getter is the HTTP capability the client needs.
type Getter interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// Client builds live-stats URLs for a game and fetches them.
type Client struct {
	baseURL string
	http    Getter
}

// New creates a client rooted at baseURL. A nil getter uses fetch.NewClient.
func New(baseURL string, getter Getter) *Client {
	if getter == nil {
		getter = fetch.NewClient()
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: getter}
}

// GameURL is the live payload of a game: every section, play-by-play
// included, as an XML envelope.
func (c *Client) GameURL(gameID string) string {
	return fmt.Sprintf("%s/games/%s/stats.xml", c.baseURL, url.PathEscape(gameID))
}

// InningURL is one inning's play-by-play page.
func (c *Client) InningURL(gameID string, inning int) string {
	return fmt.Sprintf("%s/games/%s/innings/%d.xml", c.baseURL, url.PathEscape(gameID), inning)
}

// BoxURL is the box score page.
func (c *Client) BoxURL(gameID string) string {
	return fmt.Sprintf("%s/games/%s/boxscore.html", c.baseURL, url.PathEscape(gameID))
}

// FetchGame returns the raw live payload.
func (c *Client) FetchGame(ctx context.Context, gameID string) ([]byte, error) {
	return c.http.Get(ctx, c.GameURL(gameID))
}

// FetchInning returns the raw payload of one inning.
func (c *Client) FetchInning(ctx context.Context, gameID string, inning int) ([]byte, error) {
	return c.http.Get(ctx, c.InningURL(gameID, inning))
}

// FetchBox returns the box score HTML.
func (c *Client) FetchBox(ctx context.Context, gameID string) ([]byte, error) {
	return c.http.Get(ctx, c.BoxURL(gameID))
}
