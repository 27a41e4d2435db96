package tweet

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"github.com/fortuna/dugout/internal/plays"
)

func ip(n int) *int { return &n }

func game() GameState {
	return GameState{AwayName: "River Hawks", HomeName: "Lakers", AwayScore: ip(1), HomeScore: ip(3)}
}

func TestInningLabel(t *testing.T) {
	t.Parallel()

	cases := []struct {
		inning *int
		half   plays.Half
		outs   *int
		sub    bool
		want   string
	}{
		{ip(3), plays.HalfTop, ip(1), false, "Top 3"},
		{ip(3), plays.HalfTop, ip(3), false, "Mid 3"},
		{ip(3), plays.HalfBottom, ip(3), false, "End 3"},
		{ip(3), plays.HalfBottom, ip(3), true, "Bottom 3"},
		{ip(3), plays.HalfBottom, nil, false, "Bottom 3"},
		{nil, plays.HalfTop, ip(1), false, ""},
		{ip(3), "", ip(1), false, ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, InningLabel(tc.inning, tc.half, tc.outs, tc.sub))
	}
}

func TestFormatPlayThirdOutLabels(t *testing.T) {
	t.Parallel()

	top := FormatPlay(PlayInput{
		Inning: ip(4), Half: plays.HalfTop, Text: "Kelly,Rowan struck out swinging.",
		State: plays.DerivedState{AwayScore: ip(1), HomeScore: ip(3), OutsAfterPlay: ip(3)},
		Game:  game(),
	}, Options{})
	assert.Contains(t, top, "Mid 4")
	assert.NotContains(t, top, "Outs")
	assert.Contains(t, top, "Rowan Kelly struck out swinging.")

	bottom := FormatPlay(PlayInput{
		Inning: ip(4), Half: plays.HalfBottom, Text: "Smith,Jo grounded out to ss.",
		State: plays.DerivedState{AwayScore: ip(1), HomeScore: ip(3), OutsAfterPlay: ip(3)},
		Game:  game(),
	}, Options{})
	assert.Contains(t, bottom, "End 4")
	assert.NotContains(t, bottom, "Outs")
}

func TestFormatPlayLayout(t *testing.T) {
	t.Parallel()

	got := FormatPlay(PlayInput{
		Inning: ip(2), Half: plays.HalfBottom,
		Text:  "Goldstein,Cade singled to right field, RBI (3-2 BKSBFB); Kelly,Rowan scored.",
		State: plays.DerivedState{AwayScore: ip(1), HomeScore: ip(2), OutsAfterPlay: ip(1)},
		Game:  game(),
	}, Options{Tag: "#GoLakers"})

	want := "Bottom 2 | 1 Out\n\n" +
		"Cade Goldstein singled to right field, RBI (3-2 BKSBFB); Rowan Kelly scored.\n\n" +
		"River Hawks 1, Lakers 2\n\n" +
		"#GoLakers"
	assert.Equal(t, want, got)
}

func TestFormatPlayFallsBackToGameScore(t *testing.T) {
	t.Parallel()

	got := FormatPlay(PlayInput{Inning: ip(1), Half: plays.HalfTop, Text: "Kelly,Rowan walked.", Game: game()}, Options{})
	assert.Contains(t, got, "River Hawks 1, Lakers 3")
	assert.True(t, strings.HasPrefix(got, "Top 1\n\n"))
}

func TestFormatFinal(t *testing.T) {
	t.Parallel()

	g := game()
	g.Completed = true
	assert.Equal(t, "Final\n\nRiver Hawks 1, Lakers 3", FormatFinal(g, Options{}))

	g.Inning = ip(10)
	assert.True(t, strings.HasPrefix(FormatFinal(g, Options{}), "Final/10\n\n"))
}

func TestLengthBound(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("Kelly,Rowan fouled off another pitch. ", 40)
	for _, max := range []int{1, 2, 20, 57, 140, 280} {
		got := FormatPlay(PlayInput{
			Inning: ip(9), Half: plays.HalfBottom, Text: long,
			State: plays.DerivedState{AwayScore: ip(1), HomeScore: ip(3), OutsAfterPlay: ip(2)},
			Game:  game(),
		}, Options{MaxLength: max, Tag: "#tag"})
		assert.LessOrEqual(t, utf8.RuneCountInString(got), max)
		assert.True(t, strings.HasSuffix(got, "…"))

		final := FormatFinal(game(), Options{MaxLength: max, Tag: strings.Repeat("#x ", 100)})
		assert.LessOrEqual(t, utf8.RuneCountInString(final), max)
	}

	def := FormatPlay(PlayInput{Text: long}, Options{})
	assert.Equal(t, DefaultMaxLength, utf8.RuneCountInString(def))
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "abcd…", Truncate("abcdefgh", 5))
	assert.Equal(t, "", Truncate("abc", 0))
}
