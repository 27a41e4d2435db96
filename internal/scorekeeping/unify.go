package scorekeeping

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fortuna/dugout/internal/plays"
	"github.com/fortuna/dugout/internal/textutil"
)

var (
	toPitcherRe        = regexp.MustCompile(`(?i)^(.+?) to p for (.+?)\.?$`)
	locationLanguageRe = regexp.MustCompile(`(?i)\b(?:left|center|right)[\s-]*(?:field|center)?\b|\bshortstop\b|\b(?:lf|cf|rf|ss|1b|2b|3b)\b|\bfirst base(?:man)?\b|\bsecond base(?:man)?\b|\bthird base(?:man)?\b`)
)

// Metrics tracks unification statistics.
type Metrics struct {
	Unifications    int
	TextMatches     int
	FieldMatches    int
	Orphans         int
	LastUnification time.Time
}

// Unifier merges the play-by-play and scoring-summary timelines of a final
// game into one play list.
type Unifier struct {
	heuristics plays.Heuristics

	mu      sync.Mutex
	metrics Metrics
}

// NewUnifier creates a unifier with the given estimator thresholds.
func NewUnifier(h plays.Heuristics) *Unifier {
	return &Unifier{heuristics: h}
}

// GetMetrics returns a copy of the current counters.
func (u *Unifier) GetMetrics() Metrics {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.metrics
}

// unified pairs an output play with the event the state deriver sees.
type unified struct {
	play  Play
	event plays.Event
}

// Unify builds the canonical record. It never fails: anything missing
// upstream becomes nil fields plus a warning.
func (u *Unifier) Unify(b Bundle) *Data {
	data := &Data{GameID: b.GameID, Plays: []Play{}, Warnings: []string{}}
	reg := NewRegistry()

	u.buildTeams(data, b, reg)

	events := plays.Extract(b.Innings, u.heuristics)
	if len(events) == 0 {
		data.Warnings = append(data.Warnings, "no play-by-play rows found")
	}
	list := u.fromEvents(events, data, reg)

	entries := ParseScoringSummary(b.ScoringSummary, data.Away.Name, data.Home.Name, u.heuristics)
	if b.ScoringSummary == nil {
		data.Warnings = append(data.Warnings, "scoring summary unavailable")
	}
	orphans, textMatches, fieldMatches := u.reconcile(list, entries, data, reg)
	for _, o := range orphans {
		list = placeOrphan(list, o)
	}

	u.applyDerivedState(list, data)
	for _, item := range list {
		data.Plays = append(data.Plays, item.play)
	}

	derivePitching(data)
	data.Decisions = collectDecisions(data)
	data.Players = reg.Players()

	u.mu.Lock()
	u.metrics.Unifications++
	u.metrics.TextMatches += textMatches
	u.metrics.FieldMatches += fieldMatches
	u.metrics.Orphans += len(orphans)
	u.metrics.LastUnification = time.Now()
	u.mu.Unlock()

	return data
}

func (u *Unifier) buildTeams(data *Data, b Bundle, reg *Registry) {
	away, home, awayName, homeName := ParseLineScore(b.LineScore)
	if away == nil && b.Totals != nil {
		away, home = &b.Totals.Away, &b.Totals.Home
		awayName, homeName = b.Totals.AwayName, b.Totals.HomeName
	}
	if away == nil {
		data.Warnings = append(data.Warnings, "line score unavailable")
	}

	data.Away = TeamSnapshot{Side: plays.SideAway, Name: firstNonEmpty(b.AwayName, awayName), LineScore: away}
	data.Home = TeamSnapshot{Side: plays.SideHome, Name: firstNonEmpty(b.HomeName, homeName), LineScore: home}

	data.Away.Batting = ParseBatting(b.AwayBatting, plays.SideAway, reg)
	data.Home.Batting = ParseBatting(b.HomeBatting, plays.SideHome, reg)
	data.Away.Pitching = ParsePitching(b.AwayPitching, plays.SideAway, reg, u.heuristics)
	data.Home.Pitching = ParsePitching(b.HomePitching, plays.SideHome, reg, u.heuristics)

	if b.AwayBatting == nil || b.HomeBatting == nil {
		data.Warnings = append(data.Warnings, "batting box incomplete")
	}
	if b.AwayPitching == nil || b.HomePitching == nil {
		data.Warnings = append(data.Warnings, "pitching box incomplete")
	}
}

// fromEvents converts play-by-play events, filling batter and pitcher
// references. The pitcher of record for each fielding side follows
// "X to p for Y" substitutions.
func (u *Unifier) fromEvents(events []plays.Event, data *Data, reg *Registry) []unified {
	current := make(map[plays.Side]string)
	out := make([]unified, 0, len(events))

	for _, e := range events {
		side := e.Half.Side()
		fielding := opponent(side)

		if e.IsSubstitution {
			if m := toPitcherRe.FindStringSubmatch(e.Text); m != nil && fielding != "" {
				current[fielding] = m[1]
			}
		}

		batter := deref(e.Batter)
		if batter == "" && !e.IsSubstitution {
			batter = leadingName(e.Text)
		}
		pitcher := deref(e.Pitcher)
		if pitcher != "" {
			current[fielding] = pitcher
		} else if !e.IsSubstitution {
			pitcher = current[fielding]
		}

		p := Play{
			ID:             e.Key,
			Source:         SourcePlayByPlay,
			Inning:         e.Inning,
			Half:           e.Half,
			Order:          intPtr(e.Order),
			Side:           side,
			Team:           teamName(data, side),
			Text:           e.Text,
			Batter:         reg.Ref(side, batter),
			Pitcher:        reg.Ref(fielding, pitcher),
			IsSubstitution: e.IsSubstitution,
			Pitches:        e.Pitches,
			Result: PlayResult{
				Outcome:    e.Result.Outcome,
				Tags:       e.Result.Tags,
				RunsScored: e.RunsScored,
				IsScoring:  e.IsScoring,
			},
			Scoring:  e.Scoring,
			Fielding: e.Scoring.Fielding,
		}
		for _, runner := range runnerNames(e.Text) {
			reg.Register(side, runner, "", "")
		}
		out = append(out, unified{play: p, event: e})
	}
	return out
}

// reconcile matches each scoring summary entry to an unconsumed
// play-by-play play of the same half-inning: first by normalized text,
// then by batter, pitcher and runs. Matches are merged in place; the rest
// come back as standalone plays.
func (u *Unifier) reconcile(list []unified, entries []SummaryEntry, data *Data, reg *Registry) ([]unified, int, int) {
	consumed := make(map[int]bool)
	var orphans []unified
	textMatches, fieldMatches := 0, 0

	for _, entry := range entries {
		idx := matchByText(list, entry, consumed)
		if idx >= 0 {
			textMatches++
		} else if idx = matchByFields(list, entry, consumed); idx >= 0 {
			fieldMatches++
		}

		if idx >= 0 {
			consumed[idx] = true
			mergeSummary(&list[idx].play, entry, reg)
			list[idx].event.RunsScored = list[idx].play.Result.RunsScored
			list[idx].event.IsScoring = list[idx].play.Result.IsScoring
			continue
		}

		o := u.orphan(entry, data, reg)
		data.Warnings = append(data.Warnings, fmt.Sprintf("scoring summary play not found in play-by-play (%s): %s", halfLabel(entry.Inning, entry.Half), entry.Text))
		if o.play.Fielding.Source == plays.LocationNone && locationLanguageRe.MatchString(entry.Text) {
			data.Warnings = append(data.Warnings, fmt.Sprintf("fielding location not parsed from scoring summary play: %s", entry.Text))
		}
		orphans = append(orphans, o)
	}
	return orphans, textMatches, fieldMatches
}

func candidate(item unified, entry SummaryEntry, consumed map[int]bool, i int) bool {
	if consumed[i] || item.play.IsSubstitution {
		return false
	}
	if entry.Inning != nil && item.play.Inning != nil && *entry.Inning != *item.play.Inning {
		return false
	}
	if entry.Half.Known() && item.play.Half.Known() && entry.Half != item.play.Half {
		return false
	}
	return true
}

func matchByText(list []unified, entry SummaryEntry, consumed map[int]bool) int {
	want := comparableText(entry.Text)
	for i, item := range list {
		if candidate(item, entry, consumed, i) && comparableText(item.play.Text) == want {
			return i
		}
	}
	return -1
}

// matchByFields requires the same batter and run count. The pitcher must
// agree only when both sides name one.
func matchByFields(list []unified, entry SummaryEntry, consumed map[int]bool) int {
	batter := textutil.NormalizeName(entry.Batter)
	if batter == "" {
		return -1
	}
	pitcher := textutil.NormalizeName(entry.Pitcher)

	for i, item := range list {
		if !candidate(item, entry, consumed, i) {
			continue
		}
		if item.play.Batter == nil || textutil.NormalizeName(item.play.Batter.Name) != batter {
			continue
		}
		if max(item.play.Result.RunsScored, 1) != entry.Runs {
			continue
		}
		if pitcher != "" && item.play.Pitcher != nil && textutil.NormalizeName(item.play.Pitcher.Name) != pitcher {
			continue
		}
		return i
	}
	return -1
}

func mergeSummary(p *Play, entry SummaryEntry, reg *Registry) {
	p.MergedFromSummary = true

	decision := p.Scoring.Decision
	if decision == "" {
		decision = entry.Decision
	}
	sc := plays.ResolveFielding(p.Text, decision)
	if sc.Source == plays.LocationNone {
		if alt := plays.ResolveFielding(entry.Text, decision); alt.Source != plays.LocationNone {
			sc = alt
		}
	}
	p.Scoring = sc
	p.Fielding = sc.Fielding

	if p.Batter == nil && entry.Batter != "" {
		p.Batter = reg.Ref(p.Side, entry.Batter)
	}
	if p.Pitcher == nil && entry.Pitcher != "" {
		p.Pitcher = reg.Ref(opponent(p.Side), entry.Pitcher)
	}
	if !p.Result.IsScoring {
		p.Result.IsScoring = true
		p.Result.RunsScored = entry.Runs
	}
}

func (u *Unifier) orphan(entry SummaryEntry, data *Data, reg *Registry) unified {
	side := entry.Half.Side()
	sum := sha1.Sum([]byte(strconv.Itoa(entry.Index) + "|" + textutil.NormalizeKey(entry.Text)))
	id := "ss-" + hex.EncodeToString(sum[:])[:13]

	e := plays.NewEvent(id, 0, entry.Inning, entry.Half, entry.Text, entry.Decision, entry.Batter, entry.Pitcher, nil, u.heuristics)
	runs := max(e.RunsScored, entry.Runs)
	e.RunsScored = runs
	e.IsScoring = runs > 0

	p := Play{
		ID:      id,
		Source:  SourceScoringSummary,
		Inning:  entry.Inning,
		Half:    entry.Half,
		Side:    side,
		Team:    teamName(data, side),
		Text:    entry.Text,
		Batter:  reg.Ref(side, entry.Batter),
		Pitcher: reg.Ref(opponent(side), entry.Pitcher),
		Pitches: e.Pitches,
		Result: PlayResult{
			Outcome:    e.Result.Outcome,
			Tags:       e.Result.Tags,
			RunsScored: runs,
			IsScoring:  runs > 0,
		},
		Scoring:  e.Scoring,
		Fielding: e.Scoring.Fielding,
	}
	return unified{play: p, event: e}
}

// placeOrphan inserts o into its half-inning ahead of the play that closes
// the half when that play records an out, otherwise after the half's last
// play. A half with no plays takes o after the last earlier play. Unknown
// innings go last.
func placeOrphan(list []unified, o unified) []unified {
	pos := len(list)
	if o.play.Inning != nil {
		target := halfRank(*o.play.Inning, o.play.Half)
		pos = 0
		closing := -1
		for i, item := range list {
			if item.play.Inning == nil {
				continue
			}
			rank := halfRank(*item.play.Inning, item.play.Half)
			if rank <= target {
				pos = i + 1
			}
			if rank == target && !item.play.IsSubstitution {
				closing = i
			}
		}
		if closing >= 0 && plays.EstimateOuts(list[closing].play.Text) > 0 {
			pos = closing
		}
	}

	return slices.Insert(list, pos, o)
}

func halfRank(inning int, half plays.Half) int {
	if half == plays.HalfTop {
		return inning * 2
	}
	return inning*2 + 1
}

// applyDerivedState anchors the score pass to the final line score totals.
func (u *Unifier) applyDerivedState(list []unified, data *Data) {
	snap := plays.Snapshot{}
	if data.Away.LineScore != nil && data.Home.LineScore != nil {
		snap.AwayScore = data.Away.LineScore.Runs
		snap.HomeScore = data.Home.LineScore.Runs
	}

	events := make([]plays.Event, len(list))
	for i, item := range list {
		events[i] = item.event
	}
	state := plays.Derive(events, snap)

	for i := range list {
		s := state[list[i].play.ID]
		list[i].play.AwayScore = s.AwayScore
		list[i].play.HomeScore = s.HomeScore
		list[i].play.Result.OutsAfterPlay = s.OutsAfterPlay
	}
}

// derivePitching fills pitches from play pitch sequences and ERA from
// earned runs and innings when the box omits them.
func derivePitching(data *Data) {
	pitchCounts := make(map[string]int)
	for _, p := range data.Plays {
		if p.Pitcher != nil && p.Source == SourcePlayByPlay {
			pitchCounts[p.Pitcher.ID] += p.Pitches.NumPitches()
		}
	}

	for _, team := range []*TeamSnapshot{&data.Away, &data.Home} {
		for i := range team.Pitching {
			line := &team.Pitching[i]
			if line.Pitches == nil {
				if n := pitchCounts[line.Player.ID]; n > 0 {
					line.Pitches = intPtr(n)
					line.PitchesDerived = true
				}
			}
			if line.ERA == nil && line.ER != nil && line.IP != nil {
				if era, ok := ComputeERA(*line.ER, *line.IP); ok {
					line.ERA = &era
					line.ERADerived = true
				}
			}
		}
	}
}

func collectDecisions(data *Data) Decisions {
	var d Decisions
	for _, team := range []*TeamSnapshot{&data.Away, &data.Home} {
		for _, line := range team.Pitching {
			ref := line.Player
			switch line.Decision {
			case "W":
				d.Win = &ref
			case "L":
				d.Loss = &ref
			case "S", "SV":
				d.Save = &ref
			}
		}
	}
	return d
}

func comparableText(s string) string {
	return strings.TrimRight(textutil.NormalizeKey(textutil.ReformatNames(s)), ". ")
}

func halfLabel(inning *int, half plays.Half) string {
	label := half.Label()
	if label == "" {
		label = "?"
	}
	if inning == nil {
		return label + " ?"
	}
	return fmt.Sprintf("%s %d", label, *inning)
}

func opponent(side plays.Side) plays.Side {
	switch side {
	case plays.SideAway:
		return plays.SideHome
	case plays.SideHome:
		return plays.SideAway
	}
	return ""
}

func teamName(data *Data, side plays.Side) string {
	switch side {
	case plays.SideAway:
		return data.Away.Name
	case plays.SideHome:
		return data.Home.Name
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func intPtr(n int) *int { return &n }
