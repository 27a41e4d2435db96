// Package backfill unifies completed games in bulk and archives them.
package backfill

import (
	"context"

	"github.com/fortuna/dugout/internal/scorekeeping"
)

// JobSpec describes the work to be performed by the runner.
type JobSpec struct {
	GameIDs []string
	DryRun  bool
}

// FinalSource produces unified final games.
type FinalSource interface {
	Scorekeeping(ctx context.Context, gameID string) (*scorekeeping.Data, error)
}

// Archive persists unified final games.
type Archive interface {
	Save(ctx context.Context, data *scorekeeping.Data) error
}

// Reporter receives lifecycle callbacks from the runner.
type Reporter interface {
	OnJobStart(spec JobSpec)
	OnGameProcessed(data *scorekeeping.Data, archived bool) error
	OnProgress(message string, current int, total int)
	OnJobComplete(processed int)
	OnJobError(err error)
}
