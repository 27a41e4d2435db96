package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/cockroachdb/errors"

	"github.com/fortuna/dugout/internal/cache"
	"github.com/fortuna/dugout/internal/config"
	"github.com/fortuna/dugout/internal/ingest"
	"github.com/fortuna/dugout/internal/platform/logging"
	"github.com/fortuna/dugout/internal/poster"
	"github.com/fortuna/dugout/internal/tweet"
)

const (
	appName    = "dugout-playbot"
	appVersion = "1.0.0"
)

func main() {
	var (
		configPath = flag.String("config", "", "YAML config file (defaults to $DUGOUT_CONFIG)")
		gameID     = flag.String("game", "", "Game ID to follow")
		once       = flag.Bool("once", false, "Run a single polling cycle and exit")
		dryRun     = flag.Bool("dry-run", false, "Log posts instead of publishing them")
	)
	flag.Parse()

	if *gameID == "" {
		logging.NewJSONTo(os.Stderr, logging.LevelInfo).Error("specify --game")
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.NewJSONTo(os.Stderr, logging.LevelInfo).Error("load config", "error", err)
		os.Exit(1)
	}

	logger := logging.NewJSON(logging.ParseLevel(cfg.LogLevel)).With("game_id", *gameID)
	logging.SetDefault(logger)
	defer func() { _ = logger.Sync() }()

	logger.Info("starting", "app", appName, "version", appVersion, "once", *once, "dry_run", *dryRun)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	p, err := newPoster(cfg.Posting, *dryRun, logger)
	if err != nil {
		logger.Error("create poster", "error", err)
		os.Exit(1)
	}

	sources := ingest.NewSources(cfg.Sources, logger)
	defer sources.Close()

	daemon := poster.NewDaemon(
		*gameID,
		sources.Live(cache.NewMemoryCache(), cfg.Heuristics),
		p,
		poster.NewStateFile(cfg.Posting.StateDir),
		tweet.Options{MaxLength: cfg.Posting.MaxLength, Tag: cfg.Posting.Tag},
		cfg.Posting.FinalGrace,
		logger,
	)

	err = daemon.Run(ctx, cfg.Polling.Interval, *once)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("playbot stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("playbot stopped")
}

// newPoster falls back to a dry run when no Telegram credentials are set.
func newPoster(cfg config.PostingConfig, dryRun bool, logger *logging.Logger) (poster.Poster, error) {
	if dryRun {
		return poster.NewLogPoster(logger), nil
	}
	p, err := poster.NewTelegramPoster(cfg.TelegramToken, cfg.TelegramChatID)
	if errors.Is(err, poster.ErrNotConfigured) {
		logger.Warn("telegram not configured, posting to log")
		return poster.NewLogPoster(logger), nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}
