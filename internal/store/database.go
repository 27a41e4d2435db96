// Package store archives unified final games in Postgres.
package store

import (
	"context"
	"embed"
	"io/fs"
	"sort"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/fortuna/dugout/internal/platform/logging"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// ErrNotFound is returned when no archived game matches.
var ErrNotFound = errors.New("archived game not found")

// Database represents the archive PostgreSQL connection
type Database struct {
	conn *sqlx.DB
	log  *logging.Logger
}

// NewDatabase connects to the archive database.
func NewDatabase(ctx context.Context, dsn string, log *logging.Logger) (*Database, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "connect to database")
	}

	// Configure connection pool
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)
	db.SetConnMaxIdleTime(10 * time.Minute)

	return &Database{conn: db, log: log}, nil
}

// Close closes the database connection
func (db *Database) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}

// DB returns the underlying connection.
func (db *Database) DB() *sqlx.DB {
	return db.conn
}

// HealthCheck pings the database.
func (db *Database) HealthCheck(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// Migrations lists the embedded migration files in apply order.
func Migrations() ([]string, error) {
	names, err := fs.Glob(migrationFiles, "migrations/*.sql")
	if err != nil {
		return nil, errors.Wrap(err, "list migrations")
	}
	sort.Strings(names)
	return names, nil
}

// RunMigrations applies every migration not yet recorded in
// schema_migrations, each in its own transaction.
func (db *Database) RunMigrations(ctx context.Context) error {
	if err := db.createMigrationsTable(ctx); err != nil {
		return errors.Wrap(err, "create migrations table")
	}

	names, err := Migrations()
	if err != nil {
		return err
	}
	for _, name := range names {
		if err := db.runMigration(ctx, name); err != nil {
			return errors.Wrapf(err, "run migration %s", name)
		}
	}
	return nil
}

// createMigrationsTable creates a table to track which migrations have been run
func (db *Database) createMigrationsTable(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version VARCHAR(255) PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`
	_, err := db.conn.ExecContext(ctx, query)
	return err
}

func (db *Database) runMigration(ctx context.Context, name string) error {
	var exists bool
	if err := db.conn.GetContext(ctx, &exists, "SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)", name); err != nil {
		return err
	}
	if exists {
		db.log.Debug("migration already applied", "version", name)
		return nil
	}

	content, err := migrationFiles.ReadFile(name)
	if err != nil {
		return errors.Wrap(err, "read migration")
	}

	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, string(content)); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_migrations (version) VALUES ($1)", name); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	db.log.Info("migration applied", "version", name)
	return nil
}
