package textutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClean(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Top of the 1st", Clean("  Top&nbsp;of \n the 1st "))
	assert.Equal(t, "A & B", Clean("A &amp; B"))
	assert.Equal(t, "", Clean(""))
}

func TestToInt(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want int
		ok   bool
	}{
		{"3", 3, true},
		{" 4 ", 4, true},
		{"5.0", 5, true},
		{"5.1", 0, false},
		{"", 0, false},
		{"-", 0, false},
	}
	for _, tc := range cases {
		got, ok := ToInt(tc.in)
		assert.Equal(t, tc.ok, ok, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestToFloat(t *testing.T) {
	t.Parallel()

	got, ok := ToFloat(" 2.25 ")
	require.True(t, ok)
	assert.InDelta(t, 2.25, got, 1e-9)

	_, ok = ToFloat("N/A")
	assert.False(t, ok)
}

func TestFormatName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Rowan Kelly", FormatName("Kelly,Rowan"))
	assert.Equal(t, "Rowan Kelly", FormatName("KELLY, Rowan"))
	assert.Equal(t, "Rowan Kelly", FormatName("Rowan Kelly"))
	assert.Equal(t, "Rowan Kelly", FormatName(FormatName("Kelly,Rowan")))
	assert.Equal(t, "", FormatName("   "))
}

func TestDisplayName(t *testing.T) {
	t.Parallel()

	assert.Nil(t, DisplayName(nil))

	raw := "Kelly,Rowan"
	got := DisplayName(&raw)
	require.NotNil(t, got)
	assert.Equal(t, "Rowan Kelly", *got)
}

func TestNormalizeName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "rowan kelly", NormalizeName("Kelly,Rowan"))
	assert.Equal(t, NormalizeName("KELLY, Rowan"), NormalizeName("Rowan Kelly"))
	assert.Equal(t, "jt oneil", NormalizeName("J.T. O'Neil"))
}

func TestSlugify(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "rowan-kelly", Slugify("Rowan Kelly"))
	assert.Equal(t, "j-t-o-neil", Slugify("J.T. O'Neil"))
}

func TestReformatNames(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{
			"Goldstein,Cade singled to right field, RBI (3-2 BKSBFB); Kelly,Rowan scored.",
			"Cade Goldstein singled to right field, RBI (3-2 BKSBFB); Rowan Kelly scored.",
		},
		{"Rowan KELLY struck out looking.", "Rowan Kelly struck out looking."},
		{"Cade Goldstein doubled, 2 RBI; HBP earlier.", "Cade Goldstein doubled, 2 RBI; HBP earlier."},
		{"Smith,John to p for Jones,Sam.", "John Smith to p for Sam Jones."},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ReformatNames(tc.in))
	}
}

func TestLooksLikeName(t *testing.T) {
	t.Parallel()

	assert.True(t, LooksLikeName("Kelly,Rowan"))
	assert.True(t, LooksLikeName("Rowan Kelly"))
	assert.False(t, LooksLikeName("struck out swinging"))
	assert.False(t, LooksLikeName("2"))
	assert.False(t, LooksLikeName("KL"))
}

func TestLooksLikeProse(t *testing.T) {
	t.Parallel()

	assert.True(t, LooksLikeProse("Kelly,Rowan struck out swinging."))
	assert.False(t, LooksLikeProse("Rowan Kelly"))
	assert.False(t, LooksLikeProse("KS"))
}
