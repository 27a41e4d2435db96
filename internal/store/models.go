package store

import (
	"database/sql"
	"time"

	"github.com/lib/pq"

	"github.com/fortuna/dugout/internal/scorekeeping"
)

// GameRecord is a row of archived_games.
type GameRecord struct {
	GameID       string        `db:"game_id"`
	AwayName     string        `db:"away_name"`
	HomeName     string        `db:"home_name"`
	AwayRuns     sql.NullInt32 `db:"away_runs"`
	HomeRuns     sql.NullInt32 `db:"home_runs"`
	PlayCount    int           `db:"play_count"`
	WarningCount int           `db:"warning_count"`
	Payload      []byte        `db:"payload"`
	ArchivedAt   time.Time     `db:"archived_at"`
}

// PlayRecord is a row of archived_plays.
type PlayRecord struct {
	GameID        string         `db:"game_id" json:"gameId"`
	Seq           int            `db:"seq" json:"seq"`
	PlayID        string         `db:"play_id" json:"playId"`
	Source        string         `db:"source" json:"source"`
	Inning        sql.NullInt32  `db:"inning" json:"-"`
	Half          sql.NullString `db:"half" json:"-"`
	Text          string         `db:"text" json:"text"`
	Outcome       string         `db:"outcome" json:"outcome"`
	Tags          pq.StringArray `db:"tags" json:"tags"`
	RunsScored    int            `db:"runs_scored" json:"runsScored"`
	AwayScore     sql.NullInt32  `db:"away_score" json:"-"`
	HomeScore     sql.NullInt32  `db:"home_score" json:"-"`
	OutsAfterPlay sql.NullInt32  `db:"outs_after_play" json:"-"`
	BatterID      sql.NullString `db:"batter_id" json:"-"`
	PitcherID     sql.NullString `db:"pitcher_id" json:"-"`
}

func newGameRecord(data *scorekeeping.Data, payload []byte) GameRecord {
	return GameRecord{
		GameID:       data.GameID,
		AwayName:     data.Away.Name,
		HomeName:     data.Home.Name,
		AwayRuns:     runs(data.Away.LineScore),
		HomeRuns:     runs(data.Home.LineScore),
		PlayCount:    len(data.Plays),
		WarningCount: len(data.Warnings),
		Payload:      payload,
	}
}

func newPlayRecords(data *scorekeeping.Data) []PlayRecord {
	out := make([]PlayRecord, 0, len(data.Plays))
	for i, p := range data.Plays {
		tags := pq.StringArray(p.Result.Tags)
		if tags == nil {
			tags = pq.StringArray{}
		}
		rec := PlayRecord{
			GameID:        data.GameID,
			Seq:           i + 1,
			PlayID:        p.ID,
			Source:        string(p.Source),
			Inning:        nullInt(p.Inning),
			Text:          p.Text,
			Outcome:       string(p.Result.Outcome),
			Tags:          tags,
			RunsScored:    p.Result.RunsScored,
			AwayScore:     nullInt(p.AwayScore),
			HomeScore:     nullInt(p.HomeScore),
			OutsAfterPlay: nullInt(p.Result.OutsAfterPlay),
		}
		if p.Half.Known() {
			rec.Half = sql.NullString{String: string(p.Half), Valid: true}
		}
		if p.Batter != nil {
			rec.BatterID = sql.NullString{String: p.Batter.ID, Valid: true}
		}
		if p.Pitcher != nil {
			rec.PitcherID = sql.NullString{String: p.Pitcher.ID, Valid: true}
		}
		out = append(out, rec)
	}
	return out
}

func runs(ls *scorekeeping.LineScore) sql.NullInt32 {
	if ls == nil {
		return sql.NullInt32{}
	}
	return nullInt(ls.Runs)
}

func nullInt(p *int) sql.NullInt32 {
	if p == nil {
		return sql.NullInt32{}
	}
	return sql.NullInt32{Int32: int32(*p), Valid: true}
}
