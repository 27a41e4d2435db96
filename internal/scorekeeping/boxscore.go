package scorekeeping

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/fortuna/dugout/internal/plays"
	"github.com/fortuna/dugout/internal/table"
	"github.com/fortuna/dugout/internal/textutil"
)

var (
	inningHeaderRe     = regexp.MustCompile(`^\d{1,2}$`)
	nameAnnotationRe   = regexp.MustCompile(`\s*\(\s*(W|L|S|SV|BS|H)\b[^)]*\)\s*`)
	decisionCellRe     = regexp.MustCompile(`(?i)^(W|L|S|SV|BS|H|ND)(?:\s*[,(]?\s*\d+-\d+\)?)?$`)
	trailingPositionRe = regexp.MustCompile(`\s+((?:p|c|1b|2b|3b|ss|lf|cf|rf|dh|ph|pr)(?:/(?:p|c|1b|2b|3b|ss|lf|cf|rf|dh|ph|pr))*)$`)
	totalsRe           = regexp.MustCompile(`(?i)^totals?\b`)
)

// headerWords show up as names when a header row leaks into the body.
var headerWords = map[string]bool{
	"player": true, "players": true, "name": true, "batter": true, "batters": true,
	"hitters": true, "pitcher": true, "pitchers": true,
}

func skipName(name string) bool {
	return name == "" || totalsRe.MatchString(name) || headerWords[strings.ToLower(name)]
}

// ParseLineScore reads the away and home rows of a line score table. A
// missing or unreadable table yields nils.
func ParseLineScore(t *table.Table) (away, home *LineScore, awayName, homeName string) {
	if t == nil {
		return nil, nil, "", ""
	}

	var rows []table.Row
	for _, r := range t.Rows {
		if !r.Empty() {
			rows = append(rows, r)
		}
	}
	if len(rows) < 2 {
		return nil, nil, "", ""
	}

	parse := func(r table.Row) (*LineScore, string) {
		ls := &LineScore{Innings: []*int{}}
		name := r.Cell(0).Text()

		if r.Aligned() {
			for _, h := range t.Headers {
				if inningHeaderRe.MatchString(h) {
					v, _ := r.Lookup(h)
					ls.Innings = append(ls.Innings, cellInt(v))
				}
			}
			ls.Runs = lookupInt(r, "R", "Runs")
			ls.Hits = lookupInt(r, "H", "Hits")
			ls.Errors = lookupInt(r, "E", "Errors")
			return ls, name
		}

		// positional: name, innings..., R, H, E
		cells := r.Cells
		if len(cells) < 4 {
			return ls, name
		}
		for _, c := range cells[1 : len(cells)-3] {
			ls.Innings = append(ls.Innings, cellInt(c))
		}
		n := len(cells)
		ls.Runs, ls.Hits, ls.Errors = cellInt(cells[n-3]), cellInt(cells[n-2]), cellInt(cells[n-1])
		return ls, name
	}

	away, awayName = parse(rows[0])
	home, homeName = parse(rows[1])
	return away, home, awayName, homeName
}

// ParseBatting reads a batting box, registering every batter under side.
func ParseBatting(t *table.Table, side plays.Side, reg *Registry) []BattingLine {
	if t == nil {
		return nil
	}

	var out []BattingLine
	for _, r := range t.Rows {
		name := r.Text("Player", "Name", "Batter", "Hitter")
		if name == "" {
			name = firstWordy(r)
		}
		if skipName(name) {
			continue
		}

		position := r.Text("Pos", "Position")
		if m := trailingPositionRe.FindStringSubmatch(name); m != nil {
			if position == "" {
				position = m[1]
			}
			name = strings.TrimSpace(name[:len(name)-len(m[0])])
		}

		p := reg.Register(side, name, r.Text("#", "No", "No.", "Num", "Jersey"), position)
		if p == nil {
			continue
		}

		out = append(out, BattingLine{
			Player:   PlayerRef{ID: p.ID, Name: p.Name},
			Position: strings.ToUpper(position),
			AB:       lookupInt(r, "AB"),
			R:        lookupInt(r, "R"),
			H:        lookupInt(r, "H"),
			RBI:      lookupInt(r, "RBI"),
			BB:       lookupInt(r, "BB"),
			SO:       lookupInt(r, "SO", "K"),
			LOB:      lookupInt(r, "LOB"),
		})
	}
	return out
}

// pitchingColumns is the fixed order of the counted columns after the
// optional decision column.
const pitchingColumns = 10

// ParsePitching reads a pitching box positionally: name, an optional
// decision code, then IP H R ER BB SO WP BK HBP BF, then whatever trailing
// columns the source happens to include.
func ParsePitching(t *table.Table, side plays.Side, reg *Registry, h plays.Heuristics) []PitchingLine {
	if t == nil {
		return nil
	}

	var out []PitchingLine
	for _, r := range t.Rows {
		texts := r.Texts()
		nameIdx := -1
		for i, c := range texts {
			if strings.IndexFunc(c, isLetter) >= 0 && !decisionCellRe.MatchString(c) {
				nameIdx = i
				break
			}
		}
		if nameIdx < 0 || skipName(texts[nameIdx]) {
			continue
		}

		rawName := texts[nameIdx]
		line := PitchingLine{}
		if m := nameAnnotationRe.FindStringSubmatch(rawName); m != nil {
			line.Decision = strings.ToUpper(m[1])
			rawName = nameAnnotationRe.ReplaceAllString(rawName, " ")
		}
		rawName = strings.TrimSpace(rawName)
		if m := trailingPositionRe.FindStringSubmatch(rawName); m != nil {
			rawName = strings.TrimSpace(rawName[:len(rawName)-len(m[0])])
		}

		jersey := ""
		if nameIdx > 0 {
			if _, ok := textutil.ToInt(texts[nameIdx-1]); ok {
				jersey = texts[nameIdx-1]
			}
		}
		p := reg.Register(side, rawName, jersey, "P")
		if p == nil {
			continue
		}
		line.Player = PlayerRef{ID: p.ID, Name: p.Name}

		vals := texts[nameIdx+1:]
		if len(vals) > 0 && (vals[0] == "" || decisionCellRe.MatchString(vals[0])) && len(vals) > pitchingColumns {
			if d := decisionCode(vals[0]); d != "" {
				line.Decision = d
			}
			vals = vals[1:]
		}

		fixed := vals
		if len(fixed) > pitchingColumns {
			fixed = fixed[:pitchingColumns]
		}
		fields := []**int{&line.H, &line.R, &line.ER, &line.BB, &line.SO, &line.WP, &line.BK, &line.HBP, &line.BF}
		for i, v := range fixed {
			if i == 0 {
				if v != "" {
					ip := v
					line.IP = &ip
				}
				continue
			}
			*fields[i-1] = parseInt(v)
		}

		if len(vals) > pitchingColumns {
			applyTrailing(&line, vals[pitchingColumns:], h)
		}
		out = append(out, line)
	}
	return out
}

// trailingRule interprets the columns after BF. Each rule either claims the
// values or reports no match.
type trailingRule func(vals []string, h plays.Heuristics) (pitches, strikes *int, era *float64, ok bool)

var trailingRules = []trailingRule{
	pitchesStrikesERA,
	pitchesStrikes,
	eraOnly,
}

func applyTrailing(line *PitchingLine, vals []string, h plays.Heuristics) {
	var kept []string
	for _, v := range vals {
		if v != "" {
			kept = append(kept, v)
		}
	}
	for _, rule := range trailingRules {
		if pitches, strikes, era, ok := rule(kept, h); ok {
			line.Pitches, line.Strikes, line.ERA = pitches, strikes, era
			return
		}
	}
}

func pitchesStrikesERA(vals []string, h plays.Heuristics) (*int, *int, *float64, bool) {
	n := len(vals)
	if n < 3 {
		return nil, nil, nil, false
	}
	p, okP := strictInt(vals[n-3])
	s, okS := strictInt(vals[n-2])
	era, okE := textutil.ToFloat(vals[n-1])
	if !okP || !okS || !okE || !strings.Contains(vals[n-1], ".") {
		return nil, nil, nil, false
	}
	if p < s || p > h.MaxPitchCount {
		return nil, nil, nil, false
	}
	return &p, &s, &era, true
}

func pitchesStrikes(vals []string, h plays.Heuristics) (*int, *int, *float64, bool) {
	n := len(vals)
	if n < 2 {
		return nil, nil, nil, false
	}
	p, okP := strictInt(vals[n-2])
	s, okS := strictInt(vals[n-1])
	if !okP || !okS || p < s || p > h.MaxPitchCount {
		return nil, nil, nil, false
	}
	return &p, &s, nil, true
}

func eraOnly(vals []string, h plays.Heuristics) (*int, *int, *float64, bool) {
	if len(vals) != 1 {
		return nil, nil, nil, false
	}
	era, ok := textutil.ToFloat(vals[0])
	if !ok || era < 0 || era > h.MaxERA {
		return nil, nil, nil, false
	}
	return nil, nil, &era, true
}

// InningsToOuts converts baseball innings notation ("6.2") to outs.
func InningsToOuts(ip string) (int, bool) {
	ip = strings.TrimSpace(ip)
	whole, frac, _ := strings.Cut(ip, ".")
	w, err := strconv.Atoi(whole)
	if err != nil || w < 0 {
		return 0, false
	}
	f := 0
	if frac != "" {
		f, err = strconv.Atoi(frac)
		if err != nil || f < 0 || f > 2 {
			return 0, false
		}
	}
	return w*3 + f, true
}

// ComputeERA returns earned runs per nine innings, rounded to two places.
func ComputeERA(er int, ip string) (float64, bool) {
	outs, ok := InningsToOuts(ip)
	if !ok || outs == 0 {
		return 0, false
	}
	era := float64(er) * 27 / float64(outs)
	return math.Round(era*100) / 100, true
}

func decisionCode(cell string) string {
	m := decisionCellRe.FindStringSubmatch(strings.TrimSpace(cell))
	if m == nil {
		return ""
	}
	return strings.ToUpper(m[1])
}

func firstWordy(r table.Row) string {
	for _, c := range r.Cells {
		if c.Kind() == table.KindString && strings.IndexFunc(c.Text(), isLetter) >= 0 {
			return c.Text()
		}
	}
	return ""
}

func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func lookupInt(r table.Row, names ...string) *int {
	v, ok := r.Lookup(names...)
	if !ok {
		return nil
	}
	return cellInt(v)
}

func cellInt(v table.Value) *int {
	n, ok := v.Int()
	if !ok {
		return nil
	}
	return &n
}

func parseInt(s string) *int {
	n, ok := textutil.ToInt(s)
	if !ok {
		return nil
	}
	return &n
}

func strictInt(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	return n, err == nil
}
