package plays

import (
	"regexp"
	"strconv"
	"strings"
)

// LocationSource records where a play's fielding credit came from.
type LocationSource string

const (
	LocationText      LocationSource = "text"
	LocationScorecard LocationSource = "scorecard"
	LocationNone      LocationSource = "none"
)

// positions are the standard defensive position abbreviations, 1-9.
var positions = [...]string{"", "P", "C", "1B", "2B", "3B", "SS", "LF", "CF", "RF"}

// PositionName returns the abbreviation for a fielder code, or "".
func PositionName(code int) string {
	if code < 1 || code >= len(positions) {
		return ""
	}
	return positions[code]
}

// Fielding is the batted-ball credit of a play.
type Fielding struct {
	FielderCodes []int          `json:"fielderCodes"`
	Locations    []string       `json:"locations"`
	Source       LocationSource `json:"locationSource"`
	Confidence   float64        `json:"locationConfidence"`
}

// ScoringContext is the parsed scoring decision plus resolved fielding.
type ScoringContext struct {
	Decision string `json:"decision"`
	PlayCode string `json:"playCode"`
	RBI      *int   `json:"rbi"`
	Fielding
}

var (
	decisionRBIRe   = regexp.MustCompile(`(?i)^(\d+)RBI$`)
	decisionCodeRe  = regexp.MustCompile(`^([A-Z]+)([1-9](?:-?[1-9])*)?$`)
	decisionDigitRe = regexp.MustCompile(`^[1-9](?:-?[1-9])*$`)
	decisionLeadRe  = regexp.MustCompile(`^([1-9]B)([1-9](?:-?[1-9])*)?$`)

	textLocationRe = regexp.MustCompile(`(?i)\b(?:to|by|through)\s+(?:the\s+)?(left[\s-]center(?:\s+field)?|right[\s-]center(?:\s+field)?|left\s+field|center\s+field|centerfield|right\s+field|left|center|right|shortstop|third\s+base(?:man)?|second\s+base(?:man)?|first\s+base(?:man)?|pitcher|catcher|lf|cf|rf|ss|3b|2b|1b|p|c)\b`)
	notBattedRe    = regexp.MustCompile(`(?i)^\s+(?:for|side)\b`)
	runnerMoveRe   = regexp.MustCompile(`(?i)\b(?:advanced|advances|advancing|moved\s+up|went|taken)\s*$`)
)

// locationCodes is keyed by the normalized phrase with any trailing
// " field" removed.
var locationCodes = map[string][]int{
	"left center":    {7, 8},
	"right center":   {8, 9},
	"left":           {7},
	"lf":             {7},
	"center":         {8},
	"centerfield":    {8},
	"cf":             {8},
	"right":          {9},
	"rf":             {9},
	"shortstop":      {6},
	"ss":             {6},
	"third base":     {5},
	"third baseman":  {5},
	"3b":             {5},
	"second base":    {4},
	"second baseman": {4},
	"2b":             {4},
	"first base":     {3},
	"first baseman":  {3},
	"1b":             {3},
	"pitcher":        {1},
	"p":              {1},
	"catcher":        {2},
	"c":              {2},
}

// ParseDecision reads scoring shorthand such as "HR 9 1RBI", "F8" or
// "6-3". Unrecognized tokens are ignored.
func ParseDecision(decision string) ScoringContext {
	sc := ScoringContext{
		Decision: strings.TrimSpace(decision),
		Fielding: Fielding{FielderCodes: []int{}, Locations: []string{}, Source: LocationNone},
	}

	for _, tok := range strings.Fields(strings.ToUpper(decision)) {
		tok = strings.Trim(tok, ",;.")
		switch {
		case tok == "RBI":
			if sc.RBI == nil {
				one := 1
				sc.RBI = &one
			}
		case decisionRBIRe.MatchString(tok):
			n, _ := strconv.Atoi(decisionRBIRe.FindStringSubmatch(tok)[1])
			sc.RBI = &n
		case decisionDigitRe.MatchString(tok):
			sc.FielderCodes = append(sc.FielderCodes, digits(tok)...)
		case sc.PlayCode == "" && decisionLeadRe.MatchString(tok):
			m := decisionLeadRe.FindStringSubmatch(tok)
			sc.PlayCode = m[1]
			sc.FielderCodes = append(sc.FielderCodes, digits(m[2])...)
		case sc.PlayCode == "" && decisionCodeRe.MatchString(tok):
			m := decisionCodeRe.FindStringSubmatch(tok)
			sc.PlayCode = m[1]
			sc.FielderCodes = append(sc.FielderCodes, digits(m[2])...)
		}
	}

	sc.Locations = locationNames(sc.FielderCodes)
	if len(sc.FielderCodes) > 0 {
		sc.Source = LocationScorecard
		sc.Confidence = 0.9
	}
	return sc
}

// TextLocation finds the batted-ball location in the first clause of a play
// sentence ("singled to right field", "reached on an error by ss").
func TextLocation(text string) []int {
	clause := text
	if idx := strings.Index(clause, ";"); idx >= 0 {
		clause = clause[:idx]
	}

	for _, loc := range textLocationRe.FindAllStringSubmatchIndex(clause, -1) {
		// "X to p for Y" is a substitution; "the left side" names no fielder
		if notBattedRe.MatchString(clause[loc[1]:]) {
			continue
		}
		// "advanced to 2b" is a runner moving, not a batted ball
		if runnerMoveRe.MatchString(clause[:loc[0]]) {
			continue
		}
		phrase := strings.ToLower(clause[loc[2]:loc[3]])
		phrase = strings.Join(strings.FieldsFunc(phrase, func(r rune) bool { return r == ' ' || r == '-' }), " ")
		phrase = strings.TrimSuffix(phrase, " field")
		if codes, ok := locationCodes[phrase]; ok {
			return append([]int(nil), codes...)
		}
	}
	return nil
}

// ResolveFielding combines the scoring shorthand with the play text. The
// text wins whenever it names a location.
func ResolveFielding(text, decision string) ScoringContext {
	sc := ParseDecision(decision)
	if codes := TextLocation(text); len(codes) > 0 {
		sc.FielderCodes = codes
		sc.Locations = locationNames(codes)
		sc.Source = LocationText
		sc.Confidence = 1
	}
	return sc
}

func digits(s string) []int {
	var out []int
	for _, r := range s {
		if r >= '1' && r <= '9' {
			out = append(out, int(r-'0'))
		}
	}
	return out
}

func locationNames(codes []int) []string {
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		if name := PositionName(c); name != "" {
			out = append(out, name)
		}
	}
	return out
}
