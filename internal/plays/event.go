package plays

import (
	"github.com/bytedance/sonic"
)

// Half is the half of an inning. The zero value means unknown.
type Half string

const (
	HalfTop    Half = "top"
	HalfBottom Half = "bottom"
)

// Known reports whether the half was determined.
func (h Half) Known() bool { return h == HalfTop || h == HalfBottom }

// Label is the capitalized form used in display text.
func (h Half) Label() string {
	switch h {
	case HalfTop:
		return "Top"
	case HalfBottom:
		return "Bottom"
	}
	return ""
}

// Side is the batting side for the half: top is the visitors.
func (h Half) Side() Side {
	switch h {
	case HalfTop:
		return SideAway
	case HalfBottom:
		return SideHome
	}
	return ""
}

func (h Half) MarshalJSON() ([]byte, error) {
	if !h.Known() {
		return []byte("null"), nil
	}
	return sonic.Marshal(string(h))
}

func (h *Half) UnmarshalJSON(data []byte) error {
	var s *string
	if err := sonic.Unmarshal(data, &s); err != nil {
		return err
	}
	*h = ""
	if s != nil {
		*h = Half(*s)
	}
	return nil
}

// Side identifies a team within a game.
type Side string

const (
	SideAway Side = "away"
	SideHome Side = "home"
)

// Event is one play extracted from the live play-by-play feed.
type Event struct {
	Key            string         `json:"key"`
	Order          int            `json:"order"`
	Inning         *int           `json:"inning"`
	Half           Half           `json:"half"`
	Text           string         `json:"text"`
	Decision       string         `json:"decision,omitempty"`
	Batter         *string        `json:"batter"`
	Pitcher        *string        `json:"pitcher"`
	Outs           *int           `json:"outs"`
	IsSubstitution bool           `json:"isSubstitution"`
	Result         Result         `json:"result"`
	RunsScored     int            `json:"runsScored"`
	IsScoring      bool           `json:"isScoring"`
	Pitches        PitchContext   `json:"pitches"`
	Scoring        ScoringContext `json:"scoring"`
}

// SameHalf reports whether both events belong to the same half-inning.
func (e Event) SameHalf(other Event) bool {
	return intEqual(e.Inning, other.Inning) && e.Half == other.Half
}

// InningLabel is the inning number or zero when unknown.
func (e Event) InningLabel() int {
	if e.Inning == nil {
		return 0
	}
	return *e.Inning
}

// DerivedState is the game state immediately after a play resolved.
type DerivedState struct {
	AwayScore     *int `json:"awayScore"`
	HomeScore     *int `json:"homeScore"`
	OutsAfterPlay *int `json:"outsAfterPlay"`
}

// Snapshot is the live summary the derivation is anchored to: the state
// after the most recent play.
type Snapshot struct {
	AwayScore *int
	HomeScore *int
	Outs      *int
}

func intEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func intPtr(n int) *int { return &n }
