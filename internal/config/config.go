// Package config loads service configuration from .env, an optional YAML
// file and the environment, in that order of precedence (lowest first).
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/fortuna/dugout/internal/plays"
)

// EnvConfigPath names the variable consulted when Load gets an empty path.
const EnvConfigPath = "DUGOUT_CONFIG"

// Config is the full service configuration.
type Config struct {
	RESTPort    string `yaml:"rest_port" validate:"required,numeric"`
	WSPort      string `yaml:"ws_port" validate:"required,numeric"`
	RedisURL    string `yaml:"redis_url" validate:"required"`
	DatabaseURL string `yaml:"database_url"`
	LogLevel    string `yaml:"log_level" validate:"oneof=debug info warn error"`

	Sources    SourcesConfig    `yaml:"sources"`
	Polling    PollingConfig    `yaml:"polling"`
	Posting    PostingConfig    `yaml:"posting"`
	Heuristics plays.Heuristics `yaml:"heuristics"`
}

// SourcesConfig locates the upstream feeds.
type SourcesConfig struct {
	StatsBaseURL     string        `yaml:"stats_base_url" validate:"required,url"`
	ScoreboardURL    string        `yaml:"scoreboard_url" validate:"omitempty,url"`
	FetchConcurrency int           `yaml:"fetch_concurrency" validate:"min=1,max=32"`
	CacheTTL         time.Duration `yaml:"cache_ttl" validate:"min=0"`
}

// PollingConfig drives the live scheduler.
type PollingConfig struct {
	Interval     time.Duration `yaml:"interval" validate:"min=1s"`
	TrackedGames []string      `yaml:"tracked_games"`
	MaxRetries   int           `yaml:"max_retries" validate:"min=0"`
	RetryDelay   time.Duration `yaml:"retry_delay" validate:"min=0"`
}

// PostingConfig drives the posting daemon.
type PostingConfig struct {
	TelegramToken  string        `yaml:"telegram_token"`
	TelegramChatID int64         `yaml:"telegram_chat_id"`
	MaxLength      int           `yaml:"max_length" validate:"min=20,max=4000"`
	Tag            string        `yaml:"tag"`
	StateDir       string        `yaml:"state_dir" validate:"required"`
	FinalGrace     time.Duration `yaml:"final_grace" validate:"min=0"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		RESTPort:    "8080",
		WSPort:      "8081",
		RedisURL:    "redis://localhost:6379",
		DatabaseURL: "",
		LogLevel:    "info",
		Sources: SourcesConfig{
			StatsBaseURL:     "https://stats.example.edu",
			FetchConcurrency: 4,
			CacheTTL:         15 * time.Second,
		},
		Polling: PollingConfig{
			Interval:   20 * time.Second,
			MaxRetries: 3,
			RetryDelay: 5 * time.Second,
		},
		Posting: PostingConfig{
			MaxLength:  280,
			StateDir:   "state",
			FinalGrace: 2 * time.Minute,
		},
		Heuristics: plays.DefaultHeuristics(),
	}
}

// Load builds the configuration. A missing .env file is ignored; a missing
// YAML file is an error only when a path was given explicitly.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = os.Getenv(EnvConfigPath)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, errors.Wrapf(err, "parse config file %s", path)
			}
		case explicit || !os.IsNotExist(err):
			return Config{}, errors.Wrapf(err, "read config file %s", path)
		}
	}

	if err := applyEnv(&cfg, os.Getenv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks field constraints.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(err, "invalid configuration")
	}
	return nil
}

func applyEnv(cfg *Config, getenv func(string) string) error {
	setString := func(key string, dst *string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) error {
		v := strings.TrimSpace(getenv(key))
		if v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrapf(err, "%s", key)
		}
		*dst = n
		return nil
	}
	setDuration := func(key string, dst *time.Duration) error {
		v := strings.TrimSpace(getenv(key))
		if v == "" {
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return errors.Wrapf(err, "%s", key)
		}
		*dst = d
		return nil
	}

	setString("REST_PORT", &cfg.RESTPort)
	setString("WS_PORT", &cfg.WSPort)
	setString("REDIS_URL", &cfg.RedisURL)
	setString("DATABASE_URL", &cfg.DatabaseURL)
	setString("LOG_LEVEL", &cfg.LogLevel)
	setString("STATS_BASE_URL", &cfg.Sources.StatsBaseURL)
	setString("SCOREBOARD_URL", &cfg.Sources.ScoreboardURL)
	setString("TELEGRAM_TOKEN", &cfg.Posting.TelegramToken)
	setString("TWEET_TAG", &cfg.Posting.Tag)
	setString("STATE_DIR", &cfg.Posting.StateDir)

	if err := setInt("FETCH_CONCURRENCY", &cfg.Sources.FetchConcurrency); err != nil {
		return err
	}
	if err := setInt("TWEET_MAX_LENGTH", &cfg.Posting.MaxLength); err != nil {
		return err
	}
	if err := setDuration("CACHE_TTL", &cfg.Sources.CacheTTL); err != nil {
		return err
	}
	if err := setDuration("POLL_INTERVAL", &cfg.Polling.Interval); err != nil {
		return err
	}
	if v := strings.TrimSpace(getenv("TELEGRAM_CHAT_ID")); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return errors.Wrap(err, "TELEGRAM_CHAT_ID")
		}
		cfg.Posting.TelegramChatID = id
	}
	if v := strings.TrimSpace(getenv("TRACKED_GAMES")); v != "" {
		cfg.Polling.TrackedGames = splitList(v)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
