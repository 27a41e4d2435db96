// Package scorekeeping rebuilds the canonical record of a final game from
// its box score, scoring summary and per-inning play-by-play pages.
package scorekeeping

import (
	"github.com/fortuna/dugout/internal/plays"
	"github.com/fortuna/dugout/internal/table"
)

// Source tags where a unified play came from.
type Source string

const (
	SourcePlayByPlay     Source = "play_by_play"
	SourceScoringSummary Source = "scoring_summary"
)

// PlayerRef points at a registry entry.
type PlayerRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// PlayResult is the parsed outcome plus what the play did to the game.
type PlayResult struct {
	Outcome       plays.Outcome `json:"outcome"`
	Tags          []string      `json:"tags"`
	RunsScored    int           `json:"runsScored"`
	IsScoring     bool          `json:"isScoring"`
	OutsAfterPlay *int          `json:"outsAfterPlay"`
}

// Play is one entry of the unified play list.
type Play struct {
	ID                string               `json:"id"`
	Source            Source               `json:"source"`
	MergedFromSummary bool                 `json:"mergedFromSummary"`
	Inning            *int                 `json:"inning"`
	Half              plays.Half           `json:"half"`
	Order             *int                 `json:"order"`
	Side              plays.Side           `json:"side,omitempty"`
	Team              string               `json:"team,omitempty"`
	Text              string               `json:"text"`
	Batter            *PlayerRef           `json:"batter"`
	Pitcher           *PlayerRef           `json:"pitcher"`
	IsSubstitution    bool                 `json:"isSubstitution"`
	Pitches           plays.PitchContext   `json:"pitches"`
	Result            PlayResult           `json:"result"`
	Scoring           plays.ScoringContext `json:"scoring"`
	Fielding          plays.Fielding       `json:"fielding"`
	AwayScore         *int                 `json:"awayScore"`
	HomeScore         *int                 `json:"homeScore"`
}

// Player is an identity-resolved person.
type Player struct {
	ID             string       `json:"id"`
	Name           string       `json:"name"`
	NormalizedName string       `json:"normalizedName"`
	Sides          []plays.Side `json:"sides"`
	Jerseys        []string     `json:"jerseys"`
	Positions      []string     `json:"positions"`
}

// LineScore is runs per inning plus the R/H/E totals.
type LineScore struct {
	Innings []*int `json:"innings"`
	Runs    *int   `json:"runs"`
	Hits    *int   `json:"hits"`
	Errors  *int   `json:"errors"`
}

// BattingLine is one row of a batting box.
type BattingLine struct {
	Player   PlayerRef `json:"player"`
	Position string    `json:"position,omitempty"`
	AB       *int      `json:"ab"`
	R        *int      `json:"r"`
	H        *int      `json:"h"`
	RBI      *int      `json:"rbi"`
	BB       *int      `json:"bb"`
	SO       *int      `json:"so"`
	LOB      *int      `json:"lob"`
}

// PitchingLine is one row of a pitching box. Pitches and ERA may be
// derived when the box omits them.
type PitchingLine struct {
	Player         PlayerRef `json:"player"`
	Decision       string    `json:"decision,omitempty"`
	IP             *string   `json:"ip"`
	H              *int      `json:"h"`
	R              *int      `json:"r"`
	ER             *int      `json:"er"`
	BB             *int      `json:"bb"`
	SO             *int      `json:"so"`
	WP             *int      `json:"wp"`
	BK             *int      `json:"bk"`
	HBP            *int      `json:"hbp"`
	BF             *int      `json:"bf"`
	Pitches        *int      `json:"pitches"`
	Strikes        *int      `json:"strikes"`
	ERA            *float64  `json:"era"`
	PitchesDerived bool      `json:"pitchesDerived"`
	ERADerived     bool      `json:"eraDerived"`
}

// TeamSnapshot is everything known about one side.
type TeamSnapshot struct {
	Side      plays.Side     `json:"side"`
	Name      string         `json:"name"`
	LineScore *LineScore     `json:"lineScore"`
	Batting   []BattingLine  `json:"batting"`
	Pitching  []PitchingLine `json:"pitching"`
}

// Decisions are the pitchers of record.
type Decisions struct {
	Win  *PlayerRef `json:"win"`
	Loss *PlayerRef `json:"loss"`
	Save *PlayerRef `json:"save"`
}

// Data is the canonical scorekeeping record of a final game.
type Data struct {
	GameID    string       `json:"gameId"`
	Away      TeamSnapshot `json:"away"`
	Home      TeamSnapshot `json:"home"`
	Players   []Player     `json:"players"`
	Decisions Decisions    `json:"decisions"`
	Plays     []Play       `json:"plays"`
	Warnings  []string     `json:"warnings"`
}

// Team returns the snapshot for side.
func (d *Data) Team(side plays.Side) *TeamSnapshot {
	if side == plays.SideHome {
		return &d.Home
	}
	return &d.Away
}

// LineTotals are R/H/E totals recovered outside the box page (the PDF
// scorecard).
type LineTotals struct {
	AwayName string
	HomeName string
	Away     LineScore
	Home     LineScore
}

// Bundle is the fetched material of one final game.
type Bundle struct {
	GameID         string
	AwayName       string
	HomeName       string
	LineScore      *table.Table
	AwayBatting    *table.Table
	HomeBatting    *table.Table
	AwayPitching   *table.Table
	HomePitching   *table.Table
	ScoringSummary *table.Table
	Innings        []table.Section
	Totals         *LineTotals
}
