package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/fortuna/dugout/internal/platform/logging"
	"github.com/fortuna/dugout/internal/plays"
	"github.com/fortuna/dugout/internal/scorekeeping"
	"github.com/fortuna/dugout/internal/table"
	"github.com/fortuna/dugout/internal/workpool"
)

// regulationInnings is fetched when the box has no readable line score.
const regulationInnings = 9

// FinalSource fetches the pages of a completed game.
type FinalSource interface {
	FetchBox(ctx context.Context, gameID string) ([]byte, error)
	FetchInning(ctx context.Context, gameID string, inning int) ([]byte, error)
}

// LineScoreSource recovers line score totals from elsewhere.
type LineScoreSource interface {
	FetchLineScore(ctx context.Context, gameID string) (*scorekeeping.LineTotals, error)
}

// FinalIngester assembles final-game bundles and unifies them.
type FinalIngester struct {
	stats       FinalSource
	cards       LineScoreSource
	concurrency int
	unifier     *scorekeeping.Unifier
	log         *logging.Logger
}

// NewFinalIngester creates a final ingester. cards may be nil.
func NewFinalIngester(stats FinalSource, cards LineScoreSource, concurrency int, h plays.Heuristics, log *logging.Logger) *FinalIngester {
	return &FinalIngester{
		stats:       stats,
		cards:       cards,
		concurrency: concurrency,
		unifier:     scorekeeping.NewUnifier(h),
		log:         log,
	}
}

// Unifier exposes the unifier and its metrics.
func (fi *FinalIngester) Unifier() *scorekeeping.Unifier {
	return fi.unifier
}

// Bundle fetches the box page and every inning page, inning pages in
// parallel, and assembles them in inning order. When the box page has no
// line score the PDF scorecard is consulted.
func (fi *FinalIngester) Bundle(ctx context.Context, gameID string) (scorekeeping.Bundle, error) {
	box, err := fi.stats.FetchBox(ctx, gameID)
	if err != nil {
		return scorekeeping.Bundle{}, errors.Wrapf(err, "fetch box score for %s", gameID)
	}
	boxSections, err := table.ParseHTML(string(box))
	if err != nil {
		return scorekeeping.Bundle{}, errors.Mark(errors.Wrapf(err, "decode box score for %s", gameID), ErrDecode)
	}
	partial := scorekeeping.BundleFromSections(gameID, boxSections, nil)

	innings := make([]int, inningCount(partial.LineScore))
	for i := range innings {
		innings[i] = i + 1
	}

	pages, err := workpool.Map(ctx, fi.concurrency, innings, func(ctx context.Context, inning int) ([]table.Section, error) {
		data, err := fi.stats.FetchInning(ctx, gameID, inning)
		if err != nil {
			return nil, errors.Wrapf(err, "fetch inning %d of %s", inning, gameID)
		}
		sections, err := table.ParseSectionsXML(data)
		if err != nil {
			return nil, errors.Mark(errors.Wrapf(err, "decode inning %d of %s", inning, gameID), ErrDecode)
		}
		return inningSections(inning, sections), nil
	})
	if err != nil {
		return scorekeeping.Bundle{}, err
	}

	var inningPages []table.Section
	for _, p := range pages {
		inningPages = append(inningPages, p...)
	}

	bundle := scorekeeping.BundleFromSections(gameID, boxSections, inningPages)
	if bundle.LineScore == nil && fi.cards != nil {
		totals, err := fi.cards.FetchLineScore(ctx, gameID)
		if err != nil {
			fi.log.Warn("scorecard line score unavailable", "game_id", gameID, "error", err)
		} else {
			bundle.Totals = totals
		}
	}
	return bundle, nil
}

// Scorekeeping fetches the bundle and unifies it.
func (fi *FinalIngester) Scorekeeping(ctx context.Context, gameID string) (*scorekeeping.Data, error) {
	start := time.Now()

	bundle, err := fi.Bundle(ctx, gameID)
	if err != nil {
		return nil, err
	}
	data := fi.unifier.Unify(bundle)

	fi.log.Info("scorekeeping unified",
		"game_id", gameID,
		"plays", len(data.Plays),
		"players", len(data.Players),
		"warnings", len(data.Warnings),
		"duration", time.Since(start))
	return data, nil
}

// inningCount counts numbered inning columns, at least regulation.
func inningCount(lineScore *table.Table) int {
	if lineScore == nil {
		return regulationInnings
	}
	n := 0
	for i := 1; lineScore.HeaderIndex(fmt.Sprint(i)) >= 0; i++ {
		n = i
	}
	return max(n, regulationInnings)
}

// inningSections titles untitled inning page sections so the extractor
// recognizes them and knows their inning.
func inningSections(inning int, sections []table.Section) []table.Section {
	out := make([]table.Section, 0, len(sections))
	for _, s := range sections {
		if len(s.Tables) == 0 {
			continue
		}
		if !plays.IsPlayByPlay(s.Title) {
			s.Title = fmt.Sprintf("%d Inning Play-by-play", inning)
		}
		out = append(out, s)
	}
	return out
}
