// Package scoreboard scrapes the JS-rendered score aggregator for live game
// summaries.
package scoreboard

import (
	"context"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/cockroachdb/errors"

	"github.com/fortuna/dugout/internal/ingest/fetch"
	"github.com/fortuna/dugout/internal/platform/logging"
)

const (
	// UserAgent for the headless browser
	UserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	// MinRequestInterval to prevent rate limiting
	MinRequestInterval = 2 * time.Second

	renderTimeout = 30 * time.Second
)

// Client renders the aggregator page in headless Chrome.
type Client struct {
	url string
	log *logging.Logger

	mu          sync.Mutex
	lastRequest time.Time
	interval    time.Duration

	allocCtx context.Context
	cancel   context.CancelFunc
}

// NewClient creates a scraper for the scoreboard at url.
func NewClient(url string, log *logging.Logger) *Client {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(UserAgent),
	)

	allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), opts...)

	return &Client{
		url:      url,
		log:      log,
		interval: MinRequestInterval,
		allocCtx: allocCtx,
		cancel:   cancel,
	}
}

// Close releases the browser allocator.
func (c *Client) Close() {
	if c.cancel != nil {
		c.cancel()
	}
}

// FetchScoreboard returns the rendered page HTML. Calls are spaced at least
// MinRequestInterval apart.
func (c *Client) FetchScoreboard(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.lastRequest.IsZero() {
		if wait := c.interval - time.Since(c.lastRequest); wait > 0 {
			c.log.Debug("scoreboard rate limit", "wait", wait)
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return "", errors.Mark(ctx.Err(), fetch.ErrUpstream)
			}
		}
	}

	html, err := c.render(ctx)
	c.lastRequest = time.Now()
	return html, err
}

func (c *Client) render(ctx context.Context) (string, error) {
	browserCtx, cancel := chromedp.NewContext(c.allocCtx)
	defer cancel()

	browserCtx, cancel = context.WithTimeout(browserCtx, renderTimeout)
	defer cancel()

	// Stop rendering when the caller gives up.
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var html string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(c.url),
		chromedp.WaitVisible(`body`, chromedp.ByQuery),
		chromedp.Sleep(time.Second),
		chromedp.OuterHTML(`html`, &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", errors.Mark(errors.Wrapf(err, "render %s", c.url), fetch.ErrUpstream)
	}
	if html == "" {
		return "", errors.Wrapf(fetch.ErrUpstream, "render %s: empty document", c.url)
	}
	return html, nil
}
