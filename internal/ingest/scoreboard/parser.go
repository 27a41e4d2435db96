package scoreboard

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/cockroachdb/errors"

	"github.com/fortuna/dugout/internal/ingest/fetch"
	"github.com/fortuna/dugout/internal/plays"
	"github.com/fortuna/dugout/internal/textutil"
)

// Summary is one game as the aggregator shows it.
type Summary struct {
	GameID    string       `json:"gameId"`
	AwayName  string       `json:"awayName"`
	HomeName  string       `json:"homeName"`
	AwayScore *int         `json:"awayScore"`
	HomeScore *int         `json:"homeScore"`
	Status    string       `json:"status"`
	Inning    *int         `json:"inning"`
	Half      plays.Half   `json:"half"`
	Outs      *int         `json:"outs"`
	Count     *plays.Count `json:"count"`
	Bases     [3]bool      `json:"bases"`
	Batter    string       `json:"batter,omitempty"`
	Pitcher   string       `json:"pitcher,omitempty"`
	Completed bool         `json:"completed"`
}

var (
	statusInningRe = regexp.MustCompile(`(?i)^(top|bot|bottom|mid|middle|end)\w*\.?\s+(?:of\s+(?:the\s+)?)?(\d+)`)
	finalRe        = regexp.MustCompile(`(?i)^final(?:\s*/\s*(\d+))?`)
	countRe        = regexp.MustCompile(`^(\d)\s*-\s*(\d)$`)
	scoreLineRe    = regexp.MustCompile(`([A-Z][\w .'&-]*?)\s+(\d+)\s*-\s*(\d+)\s+([A-Z][\w .'&-]*)`)
)

// ParseHTML parses a rendered scoreboard page.
func ParseHTML(html string) ([]Summary, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "parse scoreboard html"), fetch.ErrDecode)
	}
	return Parse(doc), nil
}

// Parse extracts game summaries. Game cards carrying data-game-id are read
// first; pages without them fall back to "Away 1 - 3 Home" score lines.
func Parse(doc *goquery.Document) []Summary {
	var games []Summary

	doc.Find("[data-game-id]").Each(func(_ int, s *goquery.Selection) {
		if g, ok := parseCard(s); ok {
			games = append(games, g)
		}
	})

	if len(games) == 0 {
		doc.Find("div[class*='score']").Each(func(_ int, s *goquery.Selection) {
			if g, ok := parseScoreLine(s); ok {
				games = append(games, g)
			}
		})
	}
	return games
}

// Find returns the summary for gameID.
func Find(games []Summary, gameID string) (Summary, bool) {
	for _, g := range games {
		if g.GameID == gameID {
			return g, true
		}
	}
	return Summary{}, false
}

func parseCard(s *goquery.Selection) (Summary, bool) {
	g := Summary{GameID: strings.TrimSpace(s.AttrOr("data-game-id", ""))}

	away := s.Find(".team--away, [data-side='away']").First()
	home := s.Find(".team--home, [data-side='home']").First()
	g.AwayName = textutil.Clean(away.Find(".team__name, .name").First().Text())
	g.HomeName = textutil.Clean(home.Find(".team__name, .name").First().Text())
	g.AwayScore = intText(away.Find(".team__score, .score").First().Text())
	g.HomeScore = intText(home.Find(".team__score, .score").First().Text())

	g.Status = textutil.Clean(s.Find(".status").First().Text())
	applyStatus(&g)

	situation := s.Find(".situation").First()
	if situation.Length() > 0 {
		g.Outs = intText(situation.AttrOr("data-outs", ""))
		if m := countRe.FindStringSubmatch(strings.TrimSpace(situation.AttrOr("data-count", ""))); m != nil {
			balls, _ := strconv.Atoi(m[1])
			strikes, _ := strconv.Atoi(m[2])
			g.Count = &plays.Count{Balls: balls, Strikes: strikes}
		}
		for _, b := range strings.Split(situation.AttrOr("data-bases", ""), ",") {
			if n, ok := textutil.ToInt(b); ok && n >= 1 && n <= 3 {
				g.Bases[n-1] = true
			}
		}
		g.Batter = textutil.Clean(situation.Find(".batter").First().Text())
		g.Pitcher = textutil.Clean(situation.Find(".pitcher").First().Text())
	}

	if g.GameID == "" || g.AwayName == "" || g.HomeName == "" {
		return Summary{}, false
	}
	return g, true
}

func parseScoreLine(s *goquery.Selection) (Summary, bool) {
	status := textutil.Clean(s.Find(".status").First().Text())
	text := textutil.Clean(s.Text())
	if status != "" {
		text = strings.TrimSpace(strings.Replace(text, status, "", 1))
	}
	m := scoreLineRe.FindStringSubmatch(text)
	if m == nil {
		return Summary{}, false
	}
	g := Summary{
		AwayName:  strings.TrimSpace(m[1]),
		HomeName:  strings.TrimSpace(m[4]),
		AwayScore: intText(m[2]),
		HomeScore: intText(m[3]),
	}
	g.GameID = s.AttrOr("id", textutil.Slugify(g.AwayName+" at "+g.HomeName))
	g.Status = status
	applyStatus(&g)
	return g, true
}

// applyStatus derives inning, half and completion from the status text.
func applyStatus(g *Summary) {
	if m := finalRe.FindStringSubmatch(g.Status); m != nil {
		g.Completed = true
		if m[1] != "" {
			g.Inning = intText(m[1])
		}
		return
	}
	m := statusInningRe.FindStringSubmatch(g.Status)
	if m == nil {
		return
	}
	g.Inning = intText(m[2])
	switch strings.ToLower(m[1]) {
	case "top", "mid", "middle":
		g.Half = plays.HalfTop
	default:
		g.Half = plays.HalfBottom
	}
}

func intText(s string) *int {
	n, ok := textutil.ToInt(s)
	if !ok {
		return nil
	}
	return &n
}
