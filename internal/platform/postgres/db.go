// Package postgres opens a pgx pool and exposes it as database/sql.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"pricetrends/internal/platform/config"
)

const dialTimeout = 5 * time.Second

// Open connects to cfg.URL and pings once. The returned *sql.DB draws its
// connections from a pgx pool.
func Open(ctx context.Context, cfg config.PostgresConfig, logger *slog.Logger) (*sql.DB, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("postgres: DATABASE_URL is not set")
	}
	pc, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse postgres URL: %w", err)
	}
	pc.ConnConfig.RuntimeParams["application_name"] = "pricetrends"

	ctx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()
	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	db := stdlib.OpenDBFromPool(pool)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		pool.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}
	if logger != nil {
		logger.InfoContext(ctx, "connected to postgres", "table", cfg.Table)
	}
	return db, nil
}
