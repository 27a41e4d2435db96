package store

import (
	"context"
	"database/sql"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"

	"github.com/fortuna/dugout/internal/scorekeeping"
)

// ArchiveRepository stores unified final games.
type ArchiveRepository struct {
	db *Database
}

// NewArchiveRepository creates an archive repository.
func NewArchiveRepository(db *Database) *ArchiveRepository {
	return &ArchiveRepository{db: db}
}

const upsertGameQuery = `
	INSERT INTO archived_games (game_id, away_name, home_name, away_runs, home_runs, play_count, warning_count, payload, archived_at)
	VALUES (:game_id, :away_name, :home_name, :away_runs, :home_runs, :play_count, :warning_count, :payload, NOW())
	ON CONFLICT (game_id) DO UPDATE SET
		away_name = EXCLUDED.away_name,
		home_name = EXCLUDED.home_name,
		away_runs = EXCLUDED.away_runs,
		home_runs = EXCLUDED.home_runs,
		play_count = EXCLUDED.play_count,
		warning_count = EXCLUDED.warning_count,
		payload = EXCLUDED.payload,
		archived_at = NOW()
`

const insertPlayQuery = `
	INSERT INTO archived_plays (game_id, seq, play_id, source, inning, half, text, outcome, tags,
		runs_scored, away_score, home_score, outs_after_play, batter_id, pitcher_id)
	VALUES (:game_id, :seq, :play_id, :source, :inning, :half, :text, :outcome, :tags,
		:runs_scored, :away_score, :home_score, :outs_after_play, :batter_id, :pitcher_id)
`

// Save replaces the archive of data.GameID: the game row with the full JSON
// payload and one row per play, in one transaction.
func (r *ArchiveRepository) Save(ctx context.Context, data *scorekeeping.Data) error {
	if data == nil || data.GameID == "" {
		return errors.New("archive requires a game id")
	}

	payload, err := sonic.Marshal(data)
	if err != nil {
		return errors.Wrap(err, "encode archive payload")
	}

	tx, err := r.db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin archive tx")
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.NamedExecContext(ctx, upsertGameQuery, newGameRecord(data, payload)); err != nil {
		return errors.Wrapf(err, "upsert archived game %s", data.GameID)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM archived_plays WHERE game_id = $1`, data.GameID); err != nil {
		return errors.Wrapf(err, "clear archived plays %s", data.GameID)
	}
	for _, rec := range newPlayRecords(data) {
		if _, err := tx.NamedExecContext(ctx, insertPlayQuery, rec); err != nil {
			return errors.Wrapf(err, "insert archived play %s#%d", data.GameID, rec.Seq)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "commit archive tx")
	}
	return nil
}

// Get loads the archived unified data of gameID.
func (r *ArchiveRepository) Get(ctx context.Context, gameID string) (*scorekeeping.Data, error) {
	var rec GameRecord
	err := r.db.conn.GetContext(ctx, &rec, `
		SELECT game_id, away_name, home_name, away_runs, home_runs, play_count, warning_count, payload, archived_at
		FROM archived_games
		WHERE game_id = $1
	`, gameID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrapf(ErrNotFound, "game %s", gameID)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "query archived game %s", gameID)
	}

	var data scorekeeping.Data
	if err := sonic.Unmarshal(rec.Payload, &data); err != nil {
		return nil, errors.Wrapf(err, "decode archived game %s", gameID)
	}
	return &data, nil
}

// ListPlays returns the archived play rows of gameID in play order,
// optionally only those carrying tag.
func (r *ArchiveRepository) ListPlays(ctx context.Context, gameID, tag string) ([]PlayRecord, error) {
	query := `
		SELECT game_id, seq, play_id, source, inning, half, text, outcome, tags,
			runs_scored, away_score, home_score, outs_after_play, batter_id, pitcher_id
		FROM archived_plays
		WHERE game_id = $1 AND ($2 = '' OR $2 = ANY(tags))
		ORDER BY seq
	`
	var out []PlayRecord
	if err := r.db.conn.SelectContext(ctx, &out, query, gameID, tag); err != nil {
		return nil, errors.Wrapf(err, "query archived plays %s", gameID)
	}
	return out, nil
}
