// Package scheduler polls tracked games and fans new plays out to the live
// stream and websocket clients.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/fortuna/dugout/internal/ingest"
	"github.com/fortuna/dugout/internal/platform/logging"
	"github.com/fortuna/dugout/internal/publisher"
	"github.com/fortuna/dugout/internal/tweet"
	"github.com/fortuna/dugout/internal/workpool"
)

// LiveSource produces live feeds.
type LiveSource interface {
	Snapshot(ctx context.Context, gameID string) (*ingest.LiveFeed, error)
}

// StreamPublisher appends messages to the durable stream.
type StreamPublisher interface {
	PublishPlay(ctx context.Context, msg publisher.PlayMessage) error
	PublishFinal(ctx context.Context, msg publisher.PlayMessage) error
}

// Broadcaster pushes messages to connected clients.
type Broadcaster interface {
	BroadcastPlay(msg publisher.PlayMessage) error
}

// Config holds scheduler configuration
type Config struct {
	PollInterval time.Duration // Default: 20s
	TrackedGames []string
	MaxRetries   int           // Default: 3
	RetryDelay   time.Duration // Default: 5s
	Concurrency  int           // Default: 4
	Tweet        tweet.Options
}

// DefaultConfig returns default scheduler configuration
func DefaultConfig() *Config {
	return &Config{
		PollInterval: 20 * time.Second,
		MaxRetries:   3,
		RetryDelay:   5 * time.Second,
		Concurrency:  4,
		Tweet:        tweet.Options{MaxLength: tweet.DefaultMaxLength},
	}
}

// Metrics counts scheduler activity.
type Metrics struct {
	Polls           int64 `json:"polls"`
	FailedPolls     int64 `json:"failed_polls"`
	PlaysPublished  int64 `json:"plays_published"`
	FinalsPublished int64 `json:"finals_published"`
	PublishErrors   int64 `json:"publish_errors"`
}

// Orchestrator polls tracked games on an interval.
type Orchestrator struct {
	live   LiveSource
	stream StreamPublisher
	hub    Broadcaster
	config *Config
	log    *logging.Logger
	cancel context.CancelFunc

	mu      sync.Mutex
	seen    map[string]map[string]bool
	finals  map[string]bool
	metrics Metrics
}

// NewOrchestrator creates a new scheduler orchestrator. stream and hub may
// be nil.
func NewOrchestrator(live LiveSource, stream StreamPublisher, hub Broadcaster, config *Config, log *logging.Logger) *Orchestrator {
	if config == nil {
		config = DefaultConfig()
	}
	return &Orchestrator{
		live:   live,
		stream: stream,
		hub:    hub,
		config: config,
		log:    log,
		seen:   make(map[string]map[string]bool),
		finals: make(map[string]bool),
	}
}

// Start polls until ctx is cancelled or Stop is called.
func (o *Orchestrator) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	o.mu.Lock()
	o.cancel = cancel
	o.mu.Unlock()

	o.log.Info("scheduler started",
		"interval", o.config.PollInterval.String(),
		"games", len(o.config.TrackedGames))

	ticker := time.NewTicker(o.config.PollInterval)
	defer ticker.Stop()

	// Run immediately on start
	o.PollOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			o.log.Info("scheduler stopped")
			return
		case <-ticker.C:
			o.PollOnce(ctx)
		}
	}
}

// Stop gracefully stops the scheduler
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.cancel != nil {
		o.cancel()
	}
}

// PollOnce polls every tracked game once. Games whose final was already
// published are skipped.
func (o *Orchestrator) PollOnce(ctx context.Context) {
	var games []string
	o.mu.Lock()
	for _, id := range o.config.TrackedGames {
		if !o.finals[id] {
			games = append(games, id)
		}
	}
	o.mu.Unlock()
	if len(games) == 0 {
		return
	}

	size := max(o.config.Concurrency, 1)
	_, _ = workpool.Map(ctx, size, games, func(ctx context.Context, id string) (struct{}, error) {
		if err := o.pollGameWithRetry(ctx, id); err != nil {
			o.log.Error("poll failed", "game_id", id, "error", err)
		}
		return struct{}{}, nil
	})
}

// pollGameWithRetry polls one game with retry logic
func (o *Orchestrator) pollGameWithRetry(ctx context.Context, gameID string) error {
	attempts := max(o.config.MaxRetries, 1)

	var feed *ingest.LiveFeed
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		feed, err = o.live.Snapshot(ctx, gameID)
		if err == nil {
			break
		}

		o.log.Warn("poll attempt failed", "game_id", gameID, "attempt", attempt, "max", attempts, "error", err)
		if attempt < attempts {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(o.config.RetryDelay):
			}
		}
	}

	o.mu.Lock()
	o.metrics.Polls++
	if err != nil {
		o.metrics.FailedPolls++
	}
	o.mu.Unlock()
	if err != nil {
		return errors.Wrapf(err, "all %d attempts failed", attempts)
	}

	o.publish(ctx, feed)
	return nil
}

// publish sends events not seen before and, once, the final score. An
// event is only marked seen after the stream accepted it.
func (o *Orchestrator) publish(ctx context.Context, feed *ingest.LiveFeed) {
	game := feed.GameState()
	published := 0

	for _, e := range feed.Events {
		if o.wasSeen(feed.GameID, e.Key) {
			continue
		}
		msg := publisher.NewPlayMessage(feed.GameID, e, feed.State[e.Key], game, o.config.Tweet)
		if !o.send(ctx, msg, false) {
			continue
		}
		o.markSeen(feed.GameID, e.Key)
		published++
	}

	final := false
	if feed.Completed() {
		msg := publisher.NewFinalMessage(feed.GameID, game, o.config.Tweet)
		if o.send(ctx, msg, true) {
			o.mu.Lock()
			o.finals[feed.GameID] = true
			o.mu.Unlock()
			final = true
		}
	}

	o.mu.Lock()
	o.metrics.PlaysPublished += int64(published)
	if final {
		o.metrics.FinalsPublished++
	}
	o.mu.Unlock()

	if published > 0 || final {
		o.log.Info("published game update", "game_id", feed.GameID, "plays", published, "final", final)
	}
}

func (o *Orchestrator) send(ctx context.Context, msg publisher.PlayMessage, final bool) bool {
	if o.stream != nil {
		var err error
		if final {
			err = o.stream.PublishFinal(ctx, msg)
		} else {
			err = o.stream.PublishPlay(ctx, msg)
		}
		if err != nil {
			o.mu.Lock()
			o.metrics.PublishErrors++
			o.mu.Unlock()
			o.log.Warn("stream publish failed", "game_id", msg.GameID, "key", msg.Key, "error", err)
			return false
		}
	}
	if o.hub != nil {
		if err := o.hub.BroadcastPlay(msg); err != nil {
			o.log.Warn("broadcast failed", "game_id", msg.GameID, "key", msg.Key, "error", err)
		}
	}
	return true
}

func (o *Orchestrator) wasSeen(gameID, key string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.seen[gameID][key]
}

func (o *Orchestrator) markSeen(gameID, key string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.seen[gameID] == nil {
		o.seen[gameID] = make(map[string]bool)
	}
	o.seen[gameID][key] = true
}

// GetMetrics returns a copy of the counters.
func (o *Orchestrator) GetMetrics() Metrics {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.metrics
}

// GetStatus returns current scheduler status
func (o *Orchestrator) GetStatus() map[string]interface{} {
	o.mu.Lock()
	defer o.mu.Unlock()

	finals := make([]string, 0, len(o.finals))
	for id := range o.finals {
		finals = append(finals, id)
	}
	return map[string]interface{}{
		"poll_interval": o.config.PollInterval.String(),
		"tracked_games": o.config.TrackedGames,
		"final_games":   finals,
		"metrics":       o.metrics,
	}
}
