package plays

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/dugout/internal/table"
)

func row(cells ...string) []table.Value {
	out := make([]table.Value, len(cells))
	for i, c := range cells {
		out[i] = table.Parse(c)
	}
	return out
}

func inningSection(title string, rows ...[]table.Value) table.Section {
	return table.Section{
		Title:  title,
		Tables: []table.Table{table.New([]string{"Play", "Batter", "Pitcher", "Outs"}, rows)},
	}
}

func firstInning() []table.Section {
	return []table.Section{
		{Title: "Box Score", Tables: []table.Table{table.New([]string{"Player"}, [][]table.Value{row("Kelly,Rowan")})}},
		inningSection("1st Inning Play-by-play",
			row("Top of the 1st", "", "", ""),
			row("Kelly,Rowan struck out swinging (1-2 BKSS).", "Kelly,Rowan", "Ace,Sam", "0"),
			row("Goldstein,Cade struck out swinging (1-2 BKSS).", "Goldstein,Cade", "Ace,Sam", "1"),
			row("Barrett,Drey homered to left field, RBI (2-1 BKB).", "Barrett,Drey", "Ace,Sam", "2"),
			row("Lee,Al grounded out to ss.", "Lee,Al", "Ace,Sam", "2"),
			row("Inning Summary: 1 Run, 1 Hit, 0 Errors, 0 LOB", "", "", ""),
			row("Bottom of the 1st", "", "", ""),
			row("Smith,Jo walked (3-1 BBKBB).", "Smith,Jo", "Arm,Lou", "0"),
		),
	}
}

func TestExtractWalksPlayByPlaySections(t *testing.T) {
	t.Parallel()

	events := Extract(firstInning(), DefaultHeuristics())
	require.Len(t, events, 5)

	for i, e := range events {
		assert.Equal(t, i+1, e.Order)
		require.NotNil(t, e.Inning)
		assert.Equal(t, 1, *e.Inning)
		assert.Len(t, e.Key, 16)
	}

	assert.Equal(t, HalfTop, events[0].Half)
	assert.Equal(t, HalfBottom, events[4].Half)
	assert.Equal(t, OutcomeHomeRun, events[2].Result.Outcome)
	assert.Equal(t, 1, events[2].RunsScored)
	assert.True(t, events[2].IsScoring)
	require.NotNil(t, events[2].Batter)
	assert.Equal(t, "Barrett,Drey", *events[2].Batter)
	require.NotNil(t, events[1].Outs)
	assert.Equal(t, 1, *events[1].Outs)
}

func TestExtractKeysAreIdempotent(t *testing.T) {
	t.Parallel()

	keys := func() []string {
		var out []string
		for _, e := range Extract(firstInning(), DefaultHeuristics()) {
			out = append(out, e.Key)
		}
		return out
	}
	assert.Equal(t, keys(), keys())
}

func TestExtractDisambiguatesDuplicateText(t *testing.T) {
	t.Parallel()

	sections := []table.Section{inningSection("2nd Inning Play-by-play",
		row("Top of the 2nd", "", "", ""),
		row("Kelly,Rowan struck out looking.", "Kelly,Rowan", "Ace,Sam", "0"),
		row("Kelly,Rowan struck out looking.", "Kelly,Rowan", "Ace,Sam", "1"),
		row("Kelly,Rowan struck out looking.", "Kelly,Rowan", "Ace,Sam", "1"),
	)}

	events := Extract(sections, DefaultHeuristics())
	require.Len(t, events, 3)
	assert.NotEqual(t, events[0].Key, events[1].Key, "different outs")
	assert.NotEqual(t, events[1].Key, events[2].Key, "same signature, second occurrence")
	assert.NotEqual(t, events[0].Key, events[2].Key)
}

func TestExtractSectionInningFallback(t *testing.T) {
	t.Parallel()

	sections := []table.Section{inningSection("3rd Inning Play-by-play",
		row("Kelly,Rowan singled to center field.", "Kelly,Rowan", "Ace,Sam", "0"),
	)}
	events := Extract(sections, DefaultHeuristics())
	require.Len(t, events, 1)
	require.NotNil(t, events[0].Inning)
	assert.Equal(t, 3, *events[0].Inning)
	assert.False(t, events[0].Half.Known())
}

func TestExtractMalformedRowFallback(t *testing.T) {
	t.Parallel()

	// the play column holds the outs value, so the row is scanned positionally
	tbl := table.New([]string{"Play", "Outs"}, [][]table.Value{
		row("KS", "Kelly,Rowan struck out swinging.", "Kelly,Rowan", "Ace,Sam", "2"),
		row("1B", "Goldstein,Cade singled to center field.", "Goldstein,Cade", "Ace,Sam", "2"),
	})
	sections := []table.Section{{Title: "4th Inning Play-by-play", Tables: []table.Table{tbl}}}

	events := Extract(sections, DefaultHeuristics())
	require.Len(t, events, 2)

	e := events[0]
	assert.Equal(t, "Kelly,Rowan struck out swinging.", e.Text)
	require.NotNil(t, e.Batter)
	assert.Equal(t, "Kelly,Rowan", *e.Batter)
	require.NotNil(t, e.Pitcher)
	assert.Equal(t, "Ace,Sam", *e.Pitcher)
	require.NotNil(t, e.Outs)
	assert.Equal(t, 2, *e.Outs)
	assert.Equal(t, "", e.Decision)

	assert.Equal(t, "Goldstein,Cade singled to center field.", events[1].Text)
}

func TestScanPositionalSteps(t *testing.T) {
	t.Parallel()

	f := scanPositional([]string{"Kelly,Rowan doubled, 2 RBI.", "2B 7 2RBI", "Ace,Sam", "1"})
	assert.Equal(t, "Kelly,Rowan doubled, 2 RBI.", f.text)
	assert.Equal(t, "Ace,Sam", f.pitcher)
	assert.Equal(t, "", f.batter)
	assert.Equal(t, "2B 7 2RBI", f.decision)
	require.NotNil(t, f.outs)
	assert.Equal(t, 1, *f.outs)
}

func TestExtractFlagsSubstitutions(t *testing.T) {
	t.Parallel()

	sections := []table.Section{inningSection("5th Inning Play-by-play",
		row("Top of the 5th", "", "", ""),
		row("Smith,Jo to p for Jones,Sam.", "", "", ""),
		row("Lee,Al pinch hit for Kelly,Rowan.", "", "", ""),
		row("Lee,Al singled to left field, RBI; Moss,Ty scored.", "Lee,Al", "Smith,Jo", "1"),
	)}
	events := Extract(sections, DefaultHeuristics())
	require.Len(t, events, 3)
	assert.True(t, events[0].IsSubstitution)
	assert.True(t, events[1].IsSubstitution)
	assert.False(t, events[2].IsSubstitution)
	assert.Zero(t, events[0].RunsScored)
	assert.False(t, events[0].IsScoring)
}
