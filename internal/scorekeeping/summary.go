package scorekeeping

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/fortuna/dugout/internal/plays"
	"github.com/fortuna/dugout/internal/table"
	"github.com/fortuna/dugout/internal/textutil"
)

var (
	summaryInningRe = regexp.MustCompile(`(?i)^\s*(top|bot(?:tom)?|t|b)?[\s.]*(\d+)`)
	commaLeadNameRe = regexp.MustCompile(`^([A-Z][A-Za-z'\-]+,\s?[A-Z][A-Za-z'\-\.]+)`)
	spaceLeadNameRe = regexp.MustCompile(`^([A-Z][A-Za-z'\-\.]+ [A-Z][A-Za-z'\-]+)\s+[a-z]`)
	runnerRe        = regexp.MustCompile(`([A-Z][A-Za-z'\-]+,\s?[A-Z][A-Za-z'\-]+) (?:scored|advanced|stole|out at)`)
)

// SummaryEntry is one row of the scoring summary.
type SummaryEntry struct {
	Index    int
	Inning   *int
	Half     plays.Half
	Text     string
	Decision string
	Batter   string
	Pitcher  string
	Runs     int
}

// ParseScoringSummary reads the scoring summary table. Every entry is a
// run-producing play, so its run estimate is never below one.
func ParseScoringSummary(t *table.Table, awayName, homeName string, h plays.Heuristics) []SummaryEntry {
	if t == nil {
		return nil
	}

	var out []SummaryEntry
	for _, r := range t.Rows {
		if r.Empty() {
			continue
		}

		inningCell := r.Text("Inning", "Inn", "Inn.", "Period")
		text := textutil.Clean(r.Text("Play", "Scoring Play", "Play Description", "Description"))
		if text == "" {
			inningCell = r.FirstText()
			text = longestProse(r.Texts())
		}
		if text == "" {
			continue
		}

		e := SummaryEntry{
			Index:    len(out),
			Text:     text,
			Decision: textutil.Clean(r.Text("Scoring", "Dec", "Scoring Decision", "SC")),
			Batter:   textutil.Clean(r.Text("Batter")),
			Pitcher:  textutil.Clean(r.Text("Pitcher")),
		}
		if m := summaryInningRe.FindStringSubmatch(inningCell); m != nil {
			if n, err := strconv.Atoi(m[2]); err == nil {
				e.Inning = &n
			}
			switch strings.ToLower(m[1]) {
			case "top", "t":
				e.Half = plays.HalfTop
			case "bot", "bottom", "b":
				e.Half = plays.HalfBottom
			}
		}
		if !e.Half.Known() {
			e.Half = halfFromTeam(r.Text("Team", "Tm"), awayName, homeName)
		}
		if e.Batter == "" {
			e.Batter = leadingName(text)
		}

		res := plays.ClassifyWithDecision(text, e.Decision)
		e.Runs = max(plays.EstimateRuns(text, res.Outcome, h), 1)
		out = append(out, e)
	}
	return out
}

func halfFromTeam(team, awayName, homeName string) plays.Half {
	team = textutil.NormalizeKey(team)
	switch {
	case team == "":
		return ""
	case team == textutil.NormalizeKey(awayName):
		return plays.HalfTop
	case team == textutil.NormalizeKey(homeName):
		return plays.HalfBottom
	}
	return ""
}

// leadingName returns the person a play sentence starts with, if any.
func leadingName(text string) string {
	if m := commaLeadNameRe.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	if m := spaceLeadNameRe.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return ""
}

// runnerNames returns the base runners a play sentence mentions.
func runnerNames(text string) []string {
	var out []string
	for _, m := range runnerRe.FindAllStringSubmatch(text, -1) {
		out = append(out, m[1])
	}
	return out
}

func longestProse(cells []string) string {
	best := ""
	for _, c := range cells {
		if textutil.LooksLikeProse(c) && len(c) > len(best) {
			best = c
		}
	}
	return best
}
