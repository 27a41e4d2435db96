package scorekeeping

import (
	"strings"

	"github.com/fortuna/dugout/internal/plays"
	"github.com/fortuna/dugout/internal/table"
)

// BundleFromSections sorts the tables of a box score page into a Bundle.
// Tables are recognized by their headers: a line score has numbered inning
// columns plus R/H/E, batting boxes have AB, pitching boxes have IP. The
// first batting and pitching tables belong to the visitors.
func BundleFromSections(gameID string, box []table.Section, innings []table.Section) Bundle {
	b := Bundle{GameID: gameID}
	var batting, pitching []*table.Table
	var boxInnings []table.Section

	for si := range box {
		section := &box[si]
		if plays.IsPlayByPlay(section.Title) {
			boxInnings = append(boxInnings, *section)
			continue
		}
		for ti := range section.Tables {
			t := &section.Tables[ti]
			switch {
			case isScoringSummary(section.Title, t):
				if b.ScoringSummary == nil {
					b.ScoringSummary = t
				}
			case isLineScore(t):
				if b.LineScore == nil {
					b.LineScore = t
				}
			case t.HeaderIndex("IP") >= 0:
				pitching = append(pitching, t)
			case t.HeaderIndex("AB") >= 0:
				batting = append(batting, t)
			}
		}
	}

	if len(batting) > 0 {
		b.AwayBatting = batting[0]
	}
	if len(batting) > 1 {
		b.HomeBatting = batting[1]
	}
	if len(pitching) > 0 {
		b.AwayPitching = pitching[0]
	}
	if len(pitching) > 1 {
		b.HomePitching = pitching[1]
	}

	b.Innings = innings
	if len(b.Innings) == 0 {
		b.Innings = boxInnings
	}
	return b
}

func isScoringSummary(title string, t *table.Table) bool {
	if strings.Contains(strings.ToLower(title), "scoring") {
		return true
	}
	return t.HasHeader("scoring play")
}

func isLineScore(t *table.Table) bool {
	if t.HeaderIndex("R") < 0 || t.HeaderIndex("H") < 0 || t.HeaderIndex("E") < 0 {
		return false
	}
	return t.HeaderIndex("1") >= 0
}
