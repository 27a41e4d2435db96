package reconciliation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/dugout/internal/ingest/scoreboard"
	"github.com/fortuna/dugout/internal/plays"
)

func intp(n int) *int { return &n }

func ev(inning int, half plays.Half, runs int) plays.Event {
	return plays.Event{Inning: intp(inning), Half: half, RunsScored: runs}
}

func TestReconcile(t *testing.T) {
	t.Parallel()

	feed := []plays.Event{
		ev(1, plays.HalfTop, 1),
		ev(1, plays.HalfBottom, 0),
		ev(2, plays.HalfTop, 2),
	}

	cases := []struct {
		name     string
		summary  *scoreboard.Summary
		events   []plays.Event
		want     GameState
		warnings int
	}{
		{"no summary", nil, feed, StateUnknown, 0},
		{
			"in sync",
			&scoreboard.Summary{AwayScore: intp(3), HomeScore: intp(0), Inning: intp(2), Half: plays.HalfTop},
			feed, StateInSync, 0,
		},
		{
			"feed behind",
			&scoreboard.Summary{AwayScore: intp(3), HomeScore: intp(1), Inning: intp(2), Half: plays.HalfBottom},
			feed, StateFeedBehind, 1,
		},
		{
			"aggregator behind",
			&scoreboard.Summary{AwayScore: intp(3), HomeScore: intp(0), Inning: intp(1), Half: plays.HalfBottom},
			feed, StateAggregatorBehind, 1,
		},
		{
			"runs exceed score",
			&scoreboard.Summary{AwayScore: intp(1), HomeScore: intp(0), Inning: intp(2), Half: plays.HalfTop},
			feed, StateConflict, 1,
		},
		{
			"final",
			&scoreboard.Summary{AwayScore: intp(3), HomeScore: intp(0), Completed: true},
			append([]plays.Event{}, ev(9, plays.HalfBottom, 0)), StateFinal, 0,
		},
		{
			"final but feed short",
			&scoreboard.Summary{AwayScore: intp(3), HomeScore: intp(0), Completed: true},
			feed, StateFeedBehind, 1,
		},
		{"pre game", &scoreboard.Summary{}, nil, StatePreGame, 0},
		{"started without plays", &scoreboard.Summary{Inning: intp(1), Half: plays.HalfTop}, nil, StateFeedBehind, 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			r := NewEngine().Reconcile(tc.summary, tc.events)
			assert.Equal(t, tc.want, r.State)
			assert.Len(t, r.Warnings, tc.warnings)
		})
	}
}

func TestReconcileSkipsSubstitutions(t *testing.T) {
	t.Parallel()

	events := []plays.Event{
		ev(1, plays.HalfTop, 2),
		{Inning: intp(1), Half: plays.HalfTop, RunsScored: 5, IsSubstitution: true},
		ev(1, plays.HalfBottom, 1),
	}
	r := NewEngine().Reconcile(nil, events)
	assert.Equal(t, 2, r.AwayRuns)
	assert.Equal(t, 1, r.HomeRuns)
}

func TestMetrics(t *testing.T) {
	t.Parallel()

	e := NewEngine()
	e.Reconcile(&scoreboard.Summary{AwayScore: intp(0), HomeScore: intp(0)}, []plays.Event{ev(1, plays.HalfTop, 1)})
	e.Reconcile(nil, nil)

	m := e.GetMetrics()
	require.Equal(t, 2, m.TotalReconciliations)
	assert.Equal(t, 1, m.Conflicts)
	assert.False(t, m.LastReconciliation.IsZero())

	e.ResetMetrics()
	assert.Zero(t, e.GetMetrics().TotalReconciliations)
}
