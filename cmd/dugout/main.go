package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fortuna/dugout/internal/api/rest"
	"github.com/fortuna/dugout/internal/api/websocket"
	"github.com/fortuna/dugout/internal/cache"
	"github.com/fortuna/dugout/internal/config"
	"github.com/fortuna/dugout/internal/ingest"
	"github.com/fortuna/dugout/internal/platform/logging"
	"github.com/fortuna/dugout/internal/publisher"
	"github.com/fortuna/dugout/internal/scheduler"
	"github.com/fortuna/dugout/internal/store"
	"github.com/fortuna/dugout/internal/tweet"
)

const (
	serviceName    = "dugout"
	serviceVersion = "1.0.0"

	maxConnectAttempts = 30
	connectRetryDelay  = 2 * time.Second
)

func main() {
	configPath := flag.String("config", "", "YAML config file (defaults to $DUGOUT_CONFIG)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.NewJSON(logging.LevelInfo).Error("load config", "error", err)
		os.Exit(1)
	}

	logger := logging.NewJSON(logging.ParseLevel(cfg.LogLevel))
	logging.SetDefault(logger)
	defer func() { _ = logger.Sync() }()

	logger.Info("starting service", "service", serviceName, "version", serviceVersion)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize Redis client with retry logic
	redisCache, err := connectRedis(cfg.RedisURL, logger)
	if err != nil {
		logger.Error("connect redis", "attempts", maxConnectAttempts, "error", err)
		os.Exit(1)
	}
	defer redisCache.Close()
	logger.Info("connected to redis")

	streamPublisher := publisher.NewRedisStreamPublisher(redisCache.Client())

	// Archive is optional
	var archive rest.Archive
	if cfg.DatabaseURL != "" {
		db, err := store.NewDatabase(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			logger.Error("connect database", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		if err := db.RunMigrations(ctx); err != nil {
			logger.Error("run migrations", "error", err)
			os.Exit(1)
		}
		archive = store.NewArchiveRepository(db)
		logger.Info("archive enabled")
	}

	sources := ingest.NewSources(cfg.Sources, logger)
	defer sources.Close()

	live := sources.Live(redisCache, cfg.Heuristics)
	final := sources.Final(cfg.Heuristics)
	opts := tweet.Options{MaxLength: cfg.Posting.MaxLength, Tag: cfg.Posting.Tag}

	// WebSocket server
	wsServer := websocket.NewServer(logger)
	go func() {
		logger.Info("websocket server listening", "port", cfg.WSPort)
		if err := wsServer.Start(cfg.WSPort); err != nil {
			logger.Warn("websocket server stopped", "error", err)
		}
	}()

	// Scheduler
	sched := scheduler.NewOrchestrator(live, streamPublisher, wsServer, &scheduler.Config{
		PollInterval: cfg.Polling.Interval,
		TrackedGames: cfg.Polling.TrackedGames,
		MaxRetries:   cfg.Polling.MaxRetries,
		RetryDelay:   cfg.Polling.RetryDelay,
		Concurrency:  cfg.Sources.FetchConcurrency,
		Tweet:        opts,
	}, logger)
	if len(cfg.Polling.TrackedGames) > 0 {
		go sched.Start(ctx)
	} else {
		logger.Info("no tracked games, live polling disabled")
	}

	// REST API server
	handler := rest.NewHandler(live, final, archive, opts, logger)
	restServer := rest.NewServer(cfg.RESTPort, handler, logger)
	go func() {
		logger.Info("rest server listening", "port", cfg.RESTPort)
		if err := restServer.Start(); err != nil {
			logger.Warn("rest server stopped", "error", err)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutting down")

	cancel()
	sched.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := restServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("rest server shutdown", "error", err)
	}
	if err := wsServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("websocket server shutdown", "error", err)
	}

	logger.Info("stopped", "metrics", sched.GetMetrics())
}

func connectRedis(url string, logger *logging.Logger) (*cache.RedisCache, error) {
	var err error
	for i := 1; i <= maxConnectAttempts; i++ {
		var rc *cache.RedisCache
		rc, err = cache.NewRedisCache(url)
		if err == nil {
			return rc, nil
		}
		if i < maxConnectAttempts {
			logger.Warn("redis connection attempt failed", "attempt", i, "max", maxConnectAttempts, "error", err)
			time.Sleep(connectRetryDelay)
		}
	}
	return nil, err
}
