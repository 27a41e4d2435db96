package ingest

import (
	"github.com/fortuna/dugout/internal/cache"
	"github.com/fortuna/dugout/internal/config"
	"github.com/fortuna/dugout/internal/ingest/fetch"
	"github.com/fortuna/dugout/internal/ingest/livestats"
	"github.com/fortuna/dugout/internal/ingest/scoreboard"
	"github.com/fortuna/dugout/internal/ingest/scorecard"
	"github.com/fortuna/dugout/internal/platform/logging"
	"github.com/fortuna/dugout/internal/plays"
)

// Sources holds the upstream clients a process talks to.
type Sources struct {
	Stats *livestats.Client
	Cards *scorecard.Client
	Board *scoreboard.Client

	cfg config.SourcesConfig
	log *logging.Logger
}

// NewSources builds the clients described by cfg. The scoreboard scraper is
// only started when a scoreboard URL is configured.
func NewSources(cfg config.SourcesConfig, log *logging.Logger) *Sources {
	client := fetch.NewClient()
	s := &Sources{
		Stats: livestats.New(cfg.StatsBaseURL, client),
		Cards: scorecard.New(cfg.StatsBaseURL, client),
		cfg:   cfg,
		log:   log,
	}
	if cfg.ScoreboardURL != "" {
		s.Board = scoreboard.NewClient(cfg.ScoreboardURL, log)
	}
	return s
}

// Live builds a live ingester over store, which may be nil.
func (s *Sources) Live(store cache.Store, h plays.Heuristics) *LiveIngester {
	var board ScoreboardSource
	if s.Board != nil {
		board = s.Board
	}
	return NewLiveIngester(s.Stats, board, store, s.cfg.CacheTTL, h, s.log)
}

// Final builds a final ingester with the PDF scorecard fallback.
func (s *Sources) Final(h plays.Heuristics) *FinalIngester {
	return NewFinalIngester(s.Stats, s.Cards, s.cfg.FetchConcurrency, h, s.log)
}

// Close releases the headless browser, if any.
func (s *Sources) Close() {
	if s.Board != nil {
		s.Board.Close()
	}
}
