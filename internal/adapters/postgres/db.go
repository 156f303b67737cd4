package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/prxgr4mmer/price-delta-service/internal/config"
	"github.com/prxgr4mmer/price-delta-service/internal/domain"
)

// defaultMigrationsPath holds the schema of the coin_deltas, latest_entries
// and coins tables
const defaultMigrationsPath = "file://migrations"

// DB is the pgx pool shared by every JSONB document collection
type DB struct {
	Pool           *pgxpool.Pool
	config         config.DatabaseConfig
	logger         *slog.Logger
	migrationsPath string
}

// NewDB opens the pool backing the document collections and checks it is
// reachable. The schema is applied separately by Migrate.
func NewDB(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*DB, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxOpenConns)
	poolConfig.MinConns = int32(cfg.MaxIdleConns)
	poolConfig.MaxConnLifetime = cfg.ConnMaxLifetime
	poolConfig.MaxConnIdleTime = cfg.ConnMaxIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	path := cfg.MigrationsPath
	if path == "" {
		path = defaultMigrationsPath
	}

	logger.Info("document store connected",
		"backend", "postgres",
		"max_conns", cfg.MaxOpenConns,
		"min_conns", cfg.MaxIdleConns,
		"migrations", path,
	)

	return &DB{
		Pool:           pool,
		config:         cfg,
		logger:         logger.With("component", "postgres"),
		migrationsPath: path,
	}, nil
}

// Migrate creates or upgrades the collection tables. An up-to-date schema is
// not an error.
func (db *DB) Migrate() error {
	db.logger.Info("running database migrations", "path", db.migrationsPath)

	m, err := migrate.New(db.migrationsPath, db.config.URL)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	db.logger.Info("migrations completed",
		"version", version,
		"dirty", dirty,
	)

	return nil
}

// Close releases the pool. Stores built on db must not be used afterwards.
func (db *DB) Close() {
	db.logger.Info("closing document store connection")
	db.Pool.Close()
}

// Ping reports ErrStoreUnavailable when the database cannot be reached
func (db *DB) Ping(ctx context.Context) error {
	if err := db.Pool.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}
