package plays

import (
	"crypto/sha1"
	"encoding/hex"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/fortuna/dugout/internal/table"
	"github.com/fortuna/dugout/internal/textutil"
)

var (
	sectionInningRe = regexp.MustCompile(`(?i)(\d+)(?:st|nd|rd|th)?\s+inning`)
	halfMarkerRe    = regexp.MustCompile(`(?i)^(top|bottom) of (?:the )?(\d+)`)
	inningSummaryRe = regexp.MustCompile(`(?i)^inning summary:`)
	numericRe       = regexp.MustCompile(`^[\d\s.\-]+$`)

	substitutionRe = regexp.MustCompile(`(?i)\bpinch[- ](?:ran|hit|hitting|running|hitter|runner)\b|\bto (?:p|c|1b|2b|3b|ss|lf|cf|rf|dh|pr|ph)\s+for\b|\bsubstitution\b|\bSUB\b|\bnow pitching\b|\binto the game\b|\bdefensive (?:sub|substitution|change)\b`)
)

// Column aliases for the play-by-play header row.
var (
	playHeaders     = []string{"Play", "Play Description", "Description", "Text"}
	decisionHeaders = []string{"Scoring", "Dec", "Scoring Decision", "SC"}
	batterHeaders   = []string{"Batter", "AB"}
	pitcherHeaders  = []string{"Pitcher", "P"}
	outsHeaders     = []string{"Outs", "Out"}
)

// IsPlayByPlay reports whether a section title names a play-by-play section.
func IsPlayByPlay(title string) bool {
	t := strings.ToLower(title)
	return strings.Contains(t, "play-by-play") || strings.Contains(t, "play by play")
}

// SectionInning reads "3rd Inning" style titles.
func SectionInning(title string) *int {
	m := sectionInningRe.FindStringSubmatch(title)
	if m == nil {
		return nil
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return nil
	}
	return &n
}

// IsSubstitution reports whether a play sentence describes a lineup change.
func IsSubstitution(text, decision string) bool {
	if substitutionRe.MatchString(text) {
		return true
	}
	return strings.EqualFold(strings.TrimSpace(decision), "SUB")
}

// rowFields are the values a play row is reduced to.
type rowFields struct {
	text     string
	decision string
	batter   string
	pitcher  string
	outs     *int
}

// Extract walks every play-by-play section in order and returns the plays
// it finds. Keys depend only on row content, so re-extracting an unchanged
// payload yields the same keys.
func Extract(sections []table.Section, h Heuristics) []Event {
	var events []Event
	occurrences := make(map[string]int)

	for _, section := range sections {
		if !IsPlayByPlay(section.Title) {
			continue
		}
		inning := SectionInning(section.Title)
		var half Half

		for _, tbl := range section.Tables {
			for _, row := range tbl.Rows {
				first := row.FirstText()
				if m := halfMarkerRe.FindStringSubmatch(first); m != nil {
					half = Half(strings.ToLower(m[1]))
					if n, err := strconv.Atoi(m[2]); err == nil {
						inning = &n
					}
					continue
				}
				if inningSummaryRe.MatchString(first) || isPlaceholder(tbl, row) {
					continue
				}

				f := extractFields(row)
				if f.text == "" {
					continue
				}

				sig := signature(inning, half, f)
				occurrences[sig]++

				events = append(events, NewEvent(
					eventKey(sig, occurrences[sig]),
					len(events)+1,
					copyInt(inning),
					half,
					f.text, f.decision, f.batter, f.pitcher, f.outs,
					h,
				))
			}
		}
	}

	return events
}

// NewEvent builds a fully parsed event from raw row values.
func NewEvent(key string, order int, inning *int, half Half, text, decision, batter, pitcher string, outs *int, h Heuristics) Event {
	result := ClassifyWithDecision(text, decision)
	sub := IsSubstitution(text, decision)
	runs := 0
	if !sub {
		runs = EstimateRuns(text, result.Outcome, h)
	}

	return Event{
		Key:            key,
		Order:          order,
		Inning:         inning,
		Half:           half,
		Text:           text,
		Decision:       decision,
		Batter:         optional(batter),
		Pitcher:        optional(pitcher),
		Outs:           outs,
		IsSubstitution: sub,
		Result:         result,
		RunsScored:     runs,
		IsScoring:      runs > 0,
		Pitches:        ParsePitches(text),
		Scoring:        ResolveFielding(text, decision),
	}
}

func extractFields(row table.Row) rowFields {
	if row.Aligned() {
		f := rowFields{
			text:     textutil.Clean(row.Text(playHeaders...)),
			decision: textutil.Clean(row.Text(decisionHeaders...)),
			batter:   textutil.Clean(row.Text(batterHeaders...)),
			pitcher:  textutil.Clean(row.Text(pitcherHeaders...)),
		}
		if v, ok := row.Lookup(outsHeaders...); ok {
			if n, ok := v.Int(); ok {
				f.outs = &n
			}
		}
		if consistent(f, row) {
			return f
		}
	}
	return scanPositional(row.Texts())
}

// consistent rejects header-extracted values that cannot be right: numeric
// play text, play text equal to the batter, or text shorter than a prose
// first cell it should have contained.
func consistent(f rowFields, row table.Row) bool {
	if f.text == "" || numericRe.MatchString(f.text) {
		return false
	}
	if f.batter != "" && strings.EqualFold(f.text, f.batter) {
		return false
	}
	first := row.FirstText()
	if len(f.text) < len(first) && textutil.LooksLikeProse(first) {
		return false
	}
	return true
}

// rowScan is the working state of the positional fallback.
type rowScan struct {
	cells []string
	out   rowFields
}

// scanStep consumes cells from the scan.
type scanStep func(*rowScan)

var scanSteps = []scanStep{
	stripTrailingOuts,
	dropActionCode,
	takePlayText,
	takePeople,
	joinLeftovers,
}

func scanPositional(raw []string) rowFields {
	s := &rowScan{}
	for _, c := range raw {
		if c = textutil.Clean(c); c != "" {
			s.cells = append(s.cells, c)
		}
	}
	for _, step := range scanSteps {
		step(s)
	}
	return s.out
}

func stripTrailingOuts(s *rowScan) {
	if len(s.cells) < 2 {
		return
	}
	last := s.cells[len(s.cells)-1]
	if len(last) == 1 && last[0] >= '0' && last[0] <= '3' {
		n := int(last[0] - '0')
		s.out.outs = &n
		s.cells = s.cells[:len(s.cells)-1]
	}
}

func dropActionCode(s *rowScan) {
	if len(s.cells) < 2 || !isActionCode(s.cells[0]) {
		return
	}
	if textutil.LooksLikeProse(s.cells[1]) {
		s.cells = s.cells[1:]
	}
}

func takePlayText(s *rowScan) {
	if len(s.cells) == 0 {
		return
	}
	s.out.text = s.cells[0]
	s.cells = s.cells[1:]
}

func takePeople(s *rowScan) {
	n := len(s.cells)
	switch {
	case n >= 2 && textutil.LooksLikeName(s.cells[n-1]) && textutil.LooksLikeName(s.cells[n-2]):
		s.out.batter = s.cells[n-2]
		s.out.pitcher = s.cells[n-1]
		s.cells = s.cells[:n-2]
	case n >= 1 && textutil.LooksLikeName(s.cells[n-1]):
		s.out.pitcher = s.cells[n-1]
		s.cells = s.cells[:n-1]
	}
}

func joinLeftovers(s *rowScan) {
	s.out.decision = strings.Join(s.cells, " ")
	s.cells = nil
}

func isActionCode(c string) bool {
	if len(c) > 4 || strings.ContainsRune(c, ' ') {
		return false
	}
	hasLetter := false
	for _, r := range c {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsLetter(r) {
			hasLetter = true
		}
	}
	return hasLetter
}

// isPlaceholder catches repeated header rows and blank rows.
func isPlaceholder(tbl table.Table, row table.Row) bool {
	if row.Empty() {
		return true
	}
	texts := row.Texts()
	if len(texts) != len(tbl.Headers) {
		return false
	}
	for i, h := range tbl.Headers {
		if !strings.EqualFold(texts[i], h) {
			return false
		}
	}
	return true
}

func signature(inning *int, half Half, f rowFields) string {
	inn := ""
	if inning != nil {
		inn = strconv.Itoa(*inning)
	}
	outs := ""
	if f.outs != nil {
		outs = strconv.Itoa(*f.outs)
	}
	return strings.Join([]string{
		inn,
		string(half),
		textutil.NormalizeKey(f.text),
		textutil.NormalizeKey(f.batter),
		textutil.NormalizeKey(f.pitcher),
		outs,
		textutil.NormalizeKey(f.decision),
	}, "|")
}

func eventKey(sig string, occurrence int) string {
	sum := sha1.Sum([]byte(sig + "#" + strconv.Itoa(occurrence)))
	return hex.EncodeToString(sum[:])[:16]
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func copyInt(p *int) *int {
	if p == nil {
		return nil
	}
	n := *p
	return &n
}
