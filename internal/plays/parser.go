// Package plays turns free-text play-by-play rows into structured plays:
// outcome classification, pitch sequences, fielding credit, stable keys and
// the score/outs state derived from a live snapshot.
package plays

import (
	"regexp"
	"strconv"
	"strings"
)

// Outcome is the fixed classification of a play's result.
type Outcome string

const (
	OutcomeSingle          Outcome = "single"
	OutcomeDouble          Outcome = "double"
	OutcomeTriple          Outcome = "triple"
	OutcomeHomeRun         Outcome = "home_run"
	OutcomeWalk            Outcome = "walk"
	OutcomeIntentionalWalk Outcome = "intentional_walk"
	OutcomeHitByPitch      Outcome = "hit_by_pitch"
	OutcomeStrikeout       Outcome = "strikeout"
	OutcomeGroundOut       Outcome = "ground_out"
	OutcomeFlyOut          Outcome = "fly_out"
	OutcomeLineOut         Outcome = "line_out"
	OutcomeFoulOut         Outcome = "foul_out"
	OutcomeSacrifice       Outcome = "sacrifice"
	OutcomeFielderChoice   Outcome = "fielder_choice"
	OutcomeReachedOnError  Outcome = "reached_on_error"
	OutcomeStolenBase      Outcome = "stolen_base"
	OutcomeCaughtStealing  Outcome = "caught_stealing"
	OutcomePickoff         Outcome = "pickoff"
	OutcomeWildPitch       Outcome = "wild_pitch"
	OutcomePassedBall      Outcome = "passed_ball"
	OutcomeBalk            Outcome = "balk"
	OutcomeOther           Outcome = "other"
)

// Tags detected independently of the outcome.
const (
	TagDoublePlay = "double_play"
	TagTriplePlay = "triple_play"
	TagRunScored  = "run_scored"
	TagRBI        = "rbi"
)

// Result is the classification of one play sentence.
type Result struct {
	Outcome Outcome  `json:"outcome"`
	Tags    []string `json:"tags"`
}

// HasTag reports whether tag is present.
func (r Result) HasTag(tag string) bool {
	for _, t := range r.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// IsHit reports whether the outcome is a base hit.
func (r Result) IsHit() bool {
	switch r.Outcome {
	case OutcomeSingle, OutcomeDouble, OutcomeTriple, OutcomeHomeRun:
		return true
	}
	return false
}

type outcomeMatcher struct {
	outcome Outcome
	re      *regexp.Regexp
}

func ci(pattern string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)` + pattern)
}

// Order matters: extra-base hits are tried before singles and "triple play"
// or "double play" never reach the hit matchers because those require a
// verb form.
var outcomeMatchers = []outcomeMatcher{
	{OutcomeHomeRun, ci(`\bhomered\b|\bhome run\b|\bgrand slam\b|\bhomers\b`)},
	{OutcomeTriple, ci(`\btripled\b|\btriple (?:to|down|into|off|up)\b`)},
	{OutcomeDouble, ci(`\bdoubled\b|\bground[- ]rule double\b|\bdouble (?:to|down|into|off|up)\b`)},
	{OutcomeSingle, ci(`\bsingled\b|\b(?:infield|bunt) single\b|\bsingle (?:to|up|through|down|off)\b`)},
	{OutcomeIntentionalWalk, ci(`\bintentionally walked\b|\bintentional walk\b|\bIBB\b`)},
	{OutcomeWalk, ci(`\bwalked\b|\bwalks\b|\bbase on balls\b`)},
	{OutcomeHitByPitch, ci(`\bhit by (?:a )?pitch\b|\bHBP\b`)},
	{OutcomeStrikeout, ci(`\bstruck out\b|\bstrikes out\b|\bstrikeout\b`)},
	{OutcomeSacrifice, ci(`\bsacrifice\b|\bSAC\b|\bSF\b`)},
	{OutcomeFielderChoice, ci(`\bfielder'?s choice\b|\bFC\b`)},
	{OutcomeReachedOnError, ci(`\breached (?:first |second |third )?on (?:an? )?(?:throwing |fielding |catcher'?s? )?error\b|\breached on E\d\b`)},
	{OutcomeFoulOut, ci(`\bfoul(?:ed)? out\b|\bfouled (?:up|into)\b|\bfoul pop\b`)},
	{OutcomeGroundOut, ci(`\bgrounded (?:out|into)\b|\bgrounds? out\b|\bgrounded to\b`)},
	{OutcomeLineOut, ci(`\blined (?:out|into)\b|\blines? out\b`)},
	{OutcomeFlyOut, ci(`\bflied (?:out|into)\b|\bflies out\b|\bpopped (?:up|out|into)\b|\binfield fly\b`)},
	{OutcomeCaughtStealing, ci(`\bcaught stealing\b`)},
	{OutcomePickoff, ci(`\bpicked off\b|\bpickoff\b`)},
	{OutcomeStolenBase, ci(`\bstole\b|\bsteals\b|\bstolen base\b`)},
	{OutcomeWildPitch, ci(`\bwild pitch\b`)},
	{OutcomePassedBall, ci(`\bpassed ball\b`)},
	{OutcomeBalk, ci(`\bbalk\b`)},
}

var (
	doublePlayRe = ci(`\bdouble play\b|\bDP\b`)
	triplePlayRe = ci(`\btriple play\b|\bTP\b`)
	runScoredRe  = ci(`\bscored\b|\bscores\b|\bhomered\b|\bhome run\b|\bstole home\b`)
	rbiRe        = ci(`\bRBI\b|\dRBI\b`)
	rbiCountRe   = ci(`(\d+)\s*RBI\b`)
	scoredRe     = ci(`\bscored\b|\bscores\b|\bstole home\b`)

	outAtRe      = ci(`\bout at (?:first|second|third|home|1b|2b|3b|the plate)\b`)
	outKeywordRe = ci(`\bout\b|\bpopped up\b|\bcaught stealing\b|\bpicked off\b|\binfield fly\b|\bsacrifice\b|\bsac\b|\bfielder'?s choice\b`)
)

// decisionOutcomes maps scoring shorthand play codes to outcomes.
var decisionOutcomes = map[string]Outcome{
	"HR": OutcomeHomeRun, "3B": OutcomeTriple, "2B": OutcomeDouble, "1B": OutcomeSingle,
	"IBB": OutcomeIntentionalWalk, "BB": OutcomeWalk, "HBP": OutcomeHitByPitch, "HP": OutcomeHitByPitch,
	"K": OutcomeStrikeout, "KS": OutcomeStrikeout, "KL": OutcomeStrikeout,
	"SF": OutcomeSacrifice, "SH": OutcomeSacrifice, "SAC": OutcomeSacrifice,
	"FC": OutcomeFielderChoice, "E": OutcomeReachedOnError,
	"FO": OutcomeFoulOut, "G": OutcomeGroundOut, "L": OutcomeLineOut, "F": OutcomeFlyOut, "P": OutcomeFlyOut,
	"CS": OutcomeCaughtStealing, "PO": OutcomePickoff, "SB": OutcomeStolenBase,
	"WP": OutcomeWildPitch, "PB": OutcomePassedBall, "BK": OutcomeBalk,
}

// Classify maps a play sentence to an outcome and tag set. Tags are detected
// independently of the ordered outcome match and the outcome itself is
// recorded as the first tag. Text that matches nothing is OutcomeOther.
func Classify(text string) Result {
	return ClassifyWithDecision(text, "")
}

// ClassifyWithDecision is Classify with the scoring shorthand as a fallback
// when the sentence alone is unclassifiable.
func ClassifyWithDecision(text, decision string) Result {
	outcome := OutcomeOther
	for _, m := range outcomeMatchers {
		if m.re.MatchString(text) {
			outcome = m.outcome
			break
		}
	}
	if outcome == OutcomeOther {
		if code := ParseDecision(decision).PlayCode; code != "" {
			if o, ok := decisionOutcomes[code]; ok {
				outcome = o
			}
		}
	}

	var tags []string
	if outcome != OutcomeOther {
		tags = append(tags, string(outcome))
	}
	if doublePlayRe.MatchString(text) {
		tags = append(tags, TagDoublePlay)
	}
	if triplePlayRe.MatchString(text) {
		tags = append(tags, TagTriplePlay)
	}
	if runScoredRe.MatchString(text) {
		tags = append(tags, TagRunScored)
	}
	if rbiRe.MatchString(text) || rbiRe.MatchString(decision) {
		tags = append(tags, TagRBI)
	}
	if tags == nil {
		tags = []string{}
	}

	return Result{Outcome: outcome, Tags: tags}
}

// EstimateRuns returns the largest of three run estimates: "scored"
// mentions, an explicit RBI count, and the home-run default.
func EstimateRuns(text string, outcome Outcome, h Heuristics) int {
	runs := len(scoredRe.FindAllString(text, -1))

	if m := rbiCountRe.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > runs {
			runs = n
		}
	} else if rbiRe.MatchString(text) && runs < 1 {
		runs = 1
	}

	if outcome == OutcomeHomeRun && h.DefaultHomeRunRuns > runs {
		runs = h.DefaultHomeRunRuns
	}
	return runs
}

// EstimateOuts guesses how many outs a single play recorded.
func EstimateOuts(text string) int {
	lower := strings.ToLower(text)
	switch {
	case triplePlayRe.MatchString(lower):
		return 3
	case doublePlayRe.MatchString(lower):
		return 2
	}
	if n := len(outAtRe.FindAllString(lower, -1)); n > 0 {
		return n
	}
	if outKeywordRe.MatchString(lower) {
		return 1
	}
	return 0
}

// Heuristics holds the tunable thresholds of the best-effort estimators.
type Heuristics struct {
	DefaultHomeRunRuns int     `yaml:"default_home_run_runs" validate:"gte=0,lte=4"`
	MaxPitchCount      int     `yaml:"max_pitch_count" validate:"gte=1"`
	MaxERA             float64 `yaml:"max_era" validate:"gt=0"`
}

// DefaultHeuristics returns the stock thresholds.
func DefaultHeuristics() Heuristics {
	return Heuristics{DefaultHomeRunRuns: 1, MaxPitchCount: 250, MaxERA: 30}
}
