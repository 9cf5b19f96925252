package shared

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/mattn/go-sqlite3"
)

// Querier runs the connectivity probe. Favorites stores satisfy it through [QuerierFunc].
type Querier interface {
	Probe(ctx context.Context) error
}

// QuerierFunc adapts a ping function such as a store's Ping method to [Querier].
type QuerierFunc func(ctx context.Context) error

func (f QuerierFunc) Probe(ctx context.Context) error { return f(ctx) }

// CheckConnection runs a single SELECT 1 against the store.
//
// Failure is returned as [ErrDatabaseConnection] wrapping the cause; success is logged. There is no retry.
func CheckConnection(ctx context.Context, q Querier, logger *log.Logger) error {
	if err := q.Probe(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrDatabaseConnection, err)
	}
	if logger != nil {
		logger.Info("database connection established")
	}
	return nil
}

// NewDatabase opens a connection to a SQLite database at the specified path.
// The path can be ":memory:" for an in-memory database.
// Returns an open database connection or an error if connection fails.
func NewDatabase(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// ConfigureDatabase sets connection pool settings for the database.
func ConfigureDatabase(db *sql.DB, maxOpenConns, maxIdleConns int) {
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
}

// NewPostgresPool creates a pgx pool for url sized from cfg. The pool connects lazily; use [CheckConnection] to
// verify it.
func NewPostgresPool(ctx context.Context, cfg DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid database url: %v", ErrInvalidConfig, err)
	}
	if cfg.MaxOpenConns > 0 {
		poolConfig.MaxConns = int32(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		poolConfig.MinConns = int32(min(cfg.MaxIdleConns, cfg.MaxOpenConns))
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	return pool, nil
}
