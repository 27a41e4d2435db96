// Package ingest turns upstream payloads into play feeds: the live feed
// behind the API and posting daemon, and the final bundle behind the
// scorekeeping view.
package ingest

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"golang.org/x/sync/errgroup"

	"github.com/fortuna/dugout/internal/cache"
	"github.com/fortuna/dugout/internal/ingest/fetch"
	"github.com/fortuna/dugout/internal/ingest/scoreboard"
	"github.com/fortuna/dugout/internal/platform/logging"
	"github.com/fortuna/dugout/internal/plays"
	"github.com/fortuna/dugout/internal/reconciliation"
	"github.com/fortuna/dugout/internal/table"
	"github.com/fortuna/dugout/internal/tweet"
)

var (
	// ErrUpstream marks network failures and non-2xx responses.
	ErrUpstream = fetch.ErrUpstream
	// ErrDecode marks payloads that could not be decoded.
	ErrDecode = fetch.ErrDecode
)

// GameSource fetches the live-stats payload of a game.
type GameSource interface {
	FetchGame(ctx context.Context, gameID string) ([]byte, error)
}

// ScoreboardSource fetches the aggregator page.
type ScoreboardSource interface {
	FetchScoreboard(ctx context.Context) (string, error)
}

// LiveFeed is one snapshot of a game in progress.
type LiveFeed struct {
	GameID         string                        `json:"gameId"`
	Summary        *scoreboard.Summary           `json:"summary"`
	Events         []plays.Event                 `json:"events"`
	State          map[string]plays.DerivedState `json:"state"`
	Reconciliation reconciliation.Report         `json:"reconciliation"`
	FetchedAt      time.Time                     `json:"fetchedAt"`
}

// Completed reports whether the aggregator lists the game as final.
func (f *LiveFeed) Completed() bool {
	return f != nil && f.Summary != nil && f.Summary.Completed
}

// GameState is the summary in the shape the post formatter reads.
func (f *LiveFeed) GameState() tweet.GameState {
	if f == nil || f.Summary == nil {
		return tweet.GameState{}
	}
	s := f.Summary
	return tweet.GameState{
		AwayName:  s.AwayName,
		HomeName:  s.HomeName,
		AwayScore: s.AwayScore,
		HomeScore: s.HomeScore,
		Status:    s.Status,
		Inning:    s.Inning,
		Half:      s.Half,
		Outs:      s.Outs,
		Count:     s.Count,
		Completed: s.Completed,
	}
}

// Find returns the event with key.
func (f *LiveFeed) Find(key string) (plays.Event, bool) {
	if f == nil {
		return plays.Event{}, false
	}
	for _, e := range f.Events {
		if e.Key == key {
			return e, true
		}
	}
	return plays.Event{}, false
}

// LiveIngester builds live feeds. The stats payload and the aggregator page
// are fetched concurrently, each behind the TTL cache.
type LiveIngester struct {
	games      GameSource
	board      ScoreboardSource
	cache      cache.Store
	ttl        time.Duration
	heuristics plays.Heuristics
	reconciler *reconciliation.Engine
	log        *logging.Logger
	now        func() time.Time
}

// NewLiveIngester creates a live ingester. board and store may be nil.
func NewLiveIngester(games GameSource, board ScoreboardSource, store cache.Store, ttl time.Duration, h plays.Heuristics, log *logging.Logger) *LiveIngester {
	return &LiveIngester{
		games:      games,
		board:      board,
		cache:      store,
		ttl:        ttl,
		heuristics: h,
		reconciler: reconciliation.NewEngine(),
		log:        log,
		now:        time.Now,
	}
}

// Reconciler exposes the cross-source checker and its metrics.
func (li *LiveIngester) Reconciler() *reconciliation.Engine {
	return li.reconciler
}

// Snapshot fetches and derives the current feed of gameID.
func (li *LiveIngester) Snapshot(ctx context.Context, gameID string) (*LiveFeed, error) {
	var payload, page []byte

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		payload, err = cache.Fetch(gctx, li.cache, "live:payload:"+gameID, li.ttl, func(ctx context.Context) ([]byte, error) {
			return li.games.FetchGame(ctx, gameID)
		})
		return errors.Wrapf(err, "fetch live payload for %s", gameID)
	})
	if li.board != nil {
		g.Go(func() error {
			var err error
			page, err = cache.Fetch(gctx, li.cache, "live:scoreboard", li.ttl, func(ctx context.Context) ([]byte, error) {
				html, err := li.board.FetchScoreboard(ctx)
				return []byte(html), err
			})
			return errors.Wrap(err, "fetch scoreboard")
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sections, err := table.ParseSectionsXML(payload)
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "decode live payload for %s", gameID), ErrDecode)
	}

	feed := &LiveFeed{GameID: gameID, FetchedAt: li.now()}
	if page != nil {
		games, err := scoreboard.ParseHTML(string(page))
		if err != nil {
			return nil, err
		}
		if s, ok := scoreboard.Find(games, gameID); ok {
			feed.Summary = &s
		}
	}

	feed.Events = plays.Extract(sections, li.heuristics)

	var snap plays.Snapshot
	if feed.Summary != nil {
		snap = plays.Snapshot{AwayScore: feed.Summary.AwayScore, HomeScore: feed.Summary.HomeScore, Outs: feed.Summary.Outs}
	}
	feed.State = plays.Derive(feed.Events, snap)

	feed.Reconciliation = li.reconciler.Reconcile(feed.Summary, feed.Events)
	if len(feed.Reconciliation.Warnings) > 0 {
		li.log.Warn("live sources disagree",
			"game_id", gameID,
			"state", feed.Reconciliation.State,
			"warnings", feed.Reconciliation.Warnings)
	}

	li.log.Debug("live snapshot", "game_id", gameID, "events", len(feed.Events), "summary", feed.Summary != nil)
	return feed, nil
}
