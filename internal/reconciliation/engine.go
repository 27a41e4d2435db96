// Package reconciliation cross-checks the score aggregator against the
// live-stats play feed.
package reconciliation

import (
	"fmt"
	"sync"
	"time"

	"github.com/fortuna/dugout/internal/ingest/scoreboard"
	"github.com/fortuna/dugout/internal/plays"
)

// GameState is how the two sources relate for one game.
type GameState string

const (
	StatePreGame          GameState = "pre_game"
	StateInSync           GameState = "in_sync"
	StateFeedBehind       GameState = "feed_behind"
	StateAggregatorBehind GameState = "aggregator_behind"
	StateFinal            GameState = "final"
	StateConflict         GameState = "conflict"
	StateUnknown          GameState = "unknown"
)

// Report is the outcome of one reconciliation.
type Report struct {
	State    GameState `json:"state"`
	AwayRuns int       `json:"awayRuns"`
	HomeRuns int       `json:"homeRuns"`
	Warnings []string  `json:"warnings,omitempty"`
}

// Metrics tracks reconciliation statistics
type Metrics struct {
	TotalReconciliations int       `json:"total_reconciliations"`
	Conflicts            int       `json:"conflicts"`
	FeedBehind           int       `json:"feed_behind"`
	AggregatorBehind     int       `json:"aggregator_behind"`
	LastReconciliation   time.Time `json:"last_reconciliation"`
}

// Engine reconciles the two live sources.
type Engine struct {
	mu      sync.Mutex
	metrics Metrics
	now     func() time.Time
}

// NewEngine creates a new reconciliation engine
func NewEngine() *Engine {
	return &Engine{now: time.Now}
}

// Reconcile compares the aggregator summary with the play feed. A nil
// summary yields StateUnknown.
func (e *Engine) Reconcile(summary *scoreboard.Summary, events []plays.Event) Report {
	var r Report
	for _, ev := range events {
		if ev.IsSubstitution {
			continue
		}
		switch ev.Half.Side() {
		case plays.SideAway:
			r.AwayRuns += ev.RunsScored
		case plays.SideHome:
			r.HomeRuns += ev.RunsScored
		}
	}

	r.State = determineState(summary, events, &r)

	e.mu.Lock()
	e.metrics.TotalReconciliations++
	e.metrics.LastReconciliation = e.now()
	switch r.State {
	case StateConflict:
		e.metrics.Conflicts++
	case StateFeedBehind:
		e.metrics.FeedBehind++
	case StateAggregatorBehind:
		e.metrics.AggregatorBehind++
	}
	e.mu.Unlock()

	return r
}

// determineState analyzes both sources to determine game state
func determineState(summary *scoreboard.Summary, events []plays.Event, r *Report) GameState {
	if summary == nil {
		return StateUnknown
	}

	if hasConflict(summary, r) {
		return StateConflict
	}

	last, ok := lastPlay(events)
	if summary.Completed {
		if ok && last.Inning != nil && *last.Inning < 9 {
			r.Warnings = append(r.Warnings, fmt.Sprintf("aggregator reports final but feed ends in inning %d", *last.Inning))
			return StateFeedBehind
		}
		return StateFinal
	}

	if !ok {
		if summary.Inning != nil {
			r.Warnings = append(r.Warnings, "aggregator reports play in progress but feed has no plays")
			return StateFeedBehind
		}
		return StatePreGame
	}

	switch cmp := compareProgress(summary.Inning, summary.Half, last.Inning, last.Half); {
	case cmp > 0:
		r.Warnings = append(r.Warnings, fmt.Sprintf("feed is at %s, aggregator at %s",
			progressLabel(last.Inning, last.Half), progressLabel(summary.Inning, summary.Half)))
		return StateFeedBehind
	case cmp < 0:
		r.Warnings = append(r.Warnings, fmt.Sprintf("aggregator is at %s, feed at %s",
			progressLabel(summary.Inning, summary.Half), progressLabel(last.Inning, last.Half)))
		return StateAggregatorBehind
	}
	return StateInSync
}

// hasConflict reports runs in the feed that the aggregator score cannot
// hold.
func hasConflict(summary *scoreboard.Summary, r *Report) bool {
	conflict := false
	if summary.AwayScore != nil && r.AwayRuns > *summary.AwayScore {
		r.Warnings = append(r.Warnings, fmt.Sprintf("feed has %d away runs, aggregator score is %d", r.AwayRuns, *summary.AwayScore))
		conflict = true
	}
	if summary.HomeScore != nil && r.HomeRuns > *summary.HomeScore {
		r.Warnings = append(r.Warnings, fmt.Sprintf("feed has %d home runs, aggregator score is %d", r.HomeRuns, *summary.HomeScore))
		conflict = true
	}
	return conflict
}

func lastPlay(events []plays.Event) (plays.Event, bool) {
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].Inning != nil && events[i].Half.Known() {
			return events[i], true
		}
	}
	return plays.Event{}, false
}

// compareProgress orders two (inning, half) positions. Unknown positions
// compare equal.
func compareProgress(aInning *int, aHalf plays.Half, bInning *int, bHalf plays.Half) int {
	if aInning == nil || bInning == nil || !aHalf.Known() || !bHalf.Known() {
		return 0
	}
	a := *aInning*2 + halfIndex(aHalf)
	b := *bInning*2 + halfIndex(bHalf)
	switch {
	case a > b:
		return 1
	case a < b:
		return -1
	}
	return 0
}

func halfIndex(h plays.Half) int {
	if h == plays.HalfBottom {
		return 1
	}
	return 0
}

func progressLabel(inning *int, half plays.Half) string {
	if inning == nil || !half.Known() {
		return "unknown"
	}
	return fmt.Sprintf("%s %d", half.Label(), *inning)
}

// GetMetrics returns current reconciliation metrics
func (e *Engine) GetMetrics() Metrics {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.metrics
}

// ResetMetrics clears all metrics
func (e *Engine) ResetMetrics() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.metrics = Metrics{}
}
