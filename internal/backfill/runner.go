package backfill

import (
	"context"
	"fmt"

	"github.com/cockroachdb/errors"
)

// Runner executes backfill specs.
type Runner struct {
	final   FinalSource
	archive Archive
}

// NewRunner constructs a runner. archive may be nil, which makes every job
// a dry run.
func NewRunner(final FinalSource, archive Archive) *Runner {
	return &Runner{final: final, archive: archive}
}

// Run executes the job spec, reporting progress via the Reporter if provided.
// It stops at the first failing game.
func (r *Runner) Run(ctx context.Context, spec JobSpec, reporter Reporter) error {
	if reporter != nil {
		reporter.OnJobStart(spec)
	}

	if len(spec.GameIDs) == 0 {
		err := errors.New("no game IDs provided")
		if reporter != nil {
			reporter.OnJobError(err)
		}
		return err
	}

	archive := r.archive != nil && !spec.DryRun
	total := len(spec.GameIDs)
	for idx, gameID := range spec.GameIDs {
		if err := ctx.Err(); err != nil {
			return err
		}

		if reporter != nil {
			reporter.OnProgress(fmt.Sprintf("Processing game %s", gameID), idx, total)
		}

		if err := r.runGame(ctx, gameID, archive, reporter); err != nil {
			if reporter != nil {
				reporter.OnJobError(err)
			}
			return err
		}

		if reporter != nil {
			reporter.OnProgress(fmt.Sprintf("Game %s complete", gameID), idx+1, total)
		}
	}

	if reporter != nil {
		reporter.OnJobComplete(total)
	}
	return nil
}

func (r *Runner) runGame(ctx context.Context, gameID string, archive bool, reporter Reporter) error {
	data, err := r.final.Scorekeeping(ctx, gameID)
	if err != nil {
		return errors.Wrapf(err, "game %s", gameID)
	}

	if archive {
		if err := r.archive.Save(ctx, data); err != nil {
			return errors.Wrapf(err, "archive game %s", gameID)
		}
	}

	if reporter != nil {
		return reporter.OnGameProcessed(data, archive)
	}
	return nil
}
