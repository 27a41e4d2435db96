package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"

	"github.com/fortuna/dugout/internal/backfill"
	"github.com/fortuna/dugout/internal/config"
	"github.com/fortuna/dugout/internal/ingest"
	"github.com/fortuna/dugout/internal/platform/logging"
	"github.com/fortuna/dugout/internal/scorekeeping"
	"github.com/fortuna/dugout/internal/store"
)

const (
	appName    = "dugout-scorekeeper"
	appVersion = "1.0.0"
)

func main() {
	var (
		configPath = flag.String("config", "", "YAML config file (defaults to $DUGOUT_CONFIG)")
		games      = flag.String("game", "", "Comma-separated game IDs to unify")
		archive    = flag.Bool("archive", false, "Save unified games to the archive database")
		compact    = flag.Bool("compact", false, "Print one JSON document per line")
	)
	flag.Parse()

	logger := logging.NewJSONTo(os.Stderr, logging.LevelInfo)

	ids := splitGames(*games)
	if len(ids) == 0 {
		logger.Error("specify --game")
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("load config", "error", err)
		os.Exit(1)
	}
	logger = logging.NewJSONTo(os.Stderr, logging.ParseLevel(cfg.LogLevel))
	logging.SetDefault(logger)
	logger.Info("starting", "app", appName, "version", appVersion, "games", len(ids))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, ids, *archive, *compact, logger); err != nil {
		logger.Error("scorekeeping failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, ids []string, archive, compact bool, logger *logging.Logger) error {
	sources := ingest.NewSources(cfg.Sources, logger)
	defer sources.Close()

	var repo backfill.Archive
	if archive {
		if cfg.DatabaseURL == "" {
			return errors.New("--archive needs DATABASE_URL")
		}
		db, err := store.NewDatabase(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.RunMigrations(ctx); err != nil {
			return err
		}
		repo = store.NewArchiveRepository(db)
	}

	runner := backfill.NewRunner(sources.Final(cfg.Heuristics), repo)
	reporter := &consoleReporter{log: logger, out: os.Stdout, compact: compact}
	return runner.Run(ctx, backfill.JobSpec{GameIDs: ids, DryRun: !archive}, reporter)
}

type consoleReporter struct {
	log     *logging.Logger
	out     io.Writer
	compact bool
}

func (c *consoleReporter) OnJobStart(spec backfill.JobSpec) {
	c.log.Info("starting job", "games", len(spec.GameIDs), "dry_run", spec.DryRun)
}

func (c *consoleReporter) OnGameProcessed(data *scorekeeping.Data, archived bool) error {
	c.log.Info("processed game",
		"game_id", data.GameID,
		"plays", len(data.Plays),
		"warnings", len(data.Warnings),
		"archived", archived)
	return printData(c.out, data, c.compact)
}

func (c *consoleReporter) OnProgress(message string, current int, total int) {
	c.log.Debug(message, "current", current, "total", total)
}

func (c *consoleReporter) OnJobComplete(processed int) {
	c.log.Info("job complete", "games", processed)
}

func (c *consoleReporter) OnJobError(err error) {
	c.log.Error("job error", "error", err)
}

func printData(w io.Writer, data *scorekeeping.Data, compact bool) error {
	var out []byte
	var err error
	if compact {
		out, err = sonic.Marshal(data)
	} else {
		out, err = sonic.ConfigStd.MarshalIndent(data, "", "  ")
	}
	if err != nil {
		return errors.Wrap(err, "encode scorekeeping data")
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

func splitGames(raw string) []string {
	var ids []string
	for _, id := range strings.Split(raw, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
