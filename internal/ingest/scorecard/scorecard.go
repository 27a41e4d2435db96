// Package scorecard recovers line score totals from the printable PDF
// scorecard when the box score page has none.
package scorecard

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"regexp"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/ledongthuc/pdf"

	"github.com/fortuna/dugout/internal/ingest/fetch"
	"github.com/fortuna/dugout/internal/scorekeeping"
	"github.com/fortuna/dugout/internal/table"
	"github.com/fortuna/dugout/internal/textutil"
)

// Getter is the HTTP capability the client needs.
type Getter interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// Client downloads scorecards.
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

// URL is the scorecard location for a game.
func (c *Client) URL(gameID string) string {
	return fmt.Sprintf("%s/games/%s/scorecard.pdf", c.baseURL, url.PathEscape(gameID))
}

// FetchText downloads the scorecard and returns its plain text.
func (c *Client) FetchText(ctx context.Context, gameID string) (string, error) {
	data, err := c.http.Get(ctx, c.URL(gameID))
	if err != nil {
		return "", err
	}
	return ExtractText(data)
}

// FetchLineScore downloads the scorecard and parses its line score. A
// scorecard without one yields nil and no error.
func (c *Client) FetchLineScore(ctx context.Context, gameID string) (*scorekeeping.LineTotals, error) {
	text, err := c.FetchText(ctx, gameID)
	if err != nil {
		return nil, err
	}
	return ParseLineScore(text), nil
}

// ExtractText returns the plain text of a PDF document.
func ExtractText(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", errors.Mark(errors.Wrap(err, "open scorecard pdf"), fetch.ErrDecode)
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", errors.Mark(errors.Wrap(err, "extract scorecard text"), fetch.ErrDecode)
	}
	out, err := io.ReadAll(plain)
	if err != nil {
		return "", errors.Mark(errors.Wrap(err, "read scorecard text"), fetch.ErrDecode)
	}
	return string(out), nil
}

// lineRe matches "Team 0 1 0 0 2 0 0 0 x 3 8 1": a name, inning cells, then
// R H E.
var lineRe = regexp.MustCompile(`^([A-Za-z][A-Za-z .'&-]*?)\s+((?:(?:\d+|[xX-])\s+)+)(\d+)\s+(\d+)\s+(\d+)$`)

// ParseLineScore finds the away and home line score rows in scorecard text.
// Column-aligned text is read as a table; otherwise the first two lines
// shaped like a line score row are used.
func ParseLineScore(text string) *scorekeeping.LineTotals {
	for _, t := range table.FromText(text) {
		if t.HeaderIndex("R") < 0 || t.HeaderIndex("E") < 0 || t.HeaderIndex("1") < 0 {
			continue
		}
		away, home, awayName, homeName := scorekeeping.ParseLineScore(&t)
		if away != nil && home != nil && away.Runs != nil && home.Runs != nil {
			return &scorekeeping.LineTotals{AwayName: awayName, HomeName: homeName, Away: *away, Home: *home}
		}
	}

	var rows []scorekeeping.LineScore
	var names []string
	for _, line := range strings.Split(text, "\n") {
		m := lineRe.FindStringSubmatch(textutil.Clean(line))
		if m == nil {
			continue
		}
		ls := scorekeeping.LineScore{Innings: []*int{}}
		for _, cell := range strings.Fields(m[2]) {
			ls.Innings = append(ls.Innings, intPtr(cell))
		}
		ls.Runs, ls.Hits, ls.Errors = intPtr(m[3]), intPtr(m[4]), intPtr(m[5])
		rows = append(rows, ls)
		names = append(names, strings.TrimSpace(m[1]))
		if len(rows) == 2 {
			return &scorekeeping.LineTotals{AwayName: names[0], HomeName: names[1], Away: rows[0], Home: rows[1]}
		}
	}
	return nil
}

func intPtr(s string) *int {
	n, ok := textutil.ToInt(s)
	if !ok {
		return nil
	}
	return &n
}
