package store

import (
	"context"
	"fmt"
	"log/slog"

	"pricetrends/internal/platform/config"
	"pricetrends/internal/platform/mongo"
	"pricetrends/internal/platform/postgres"
	"pricetrends/internal/pricing/models"
)

// Source is implemented by every document source in this package.
type Source interface {
	Fetch(ctx context.Context) ([]models.RawRecord, error)
}

// Opened is a connected source plus its lifecycle hooks.
type Opened struct {
	Source Source
	Health func(ctx context.Context) error
	Close  func(ctx context.Context) error
}

func noop(context.Context) error { return nil }

// Open connects the source selected by cfg.Source.
func Open(ctx context.Context, cfg config.Server, logger *slog.Logger) (*Opened, error) {
	switch cfg.Source {
	case config.SourceMongo:
		client, err := mongo.Connect(ctx, cfg.Mongo)
		if err != nil {
			return nil, err
		}
		logger.InfoContext(ctx, "connected to mongo",
			"database", cfg.Mongo.Database,
			"collection", cfg.Mongo.Collection,
		)
		return &Opened{
			Source: NewMongoSource(client.Collection()),
			Health: client.Health,
			Close:  client.Close,
		}, nil
	case config.SourcePostgres:
		db, err := postgres.Open(ctx, cfg.Postgres, logger)
		if err != nil {
			return nil, err
		}
		src := NewPostgresSource(db, cfg.Postgres.Table)
		if err := src.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
		return &Opened{
			Source: src,
			Health: db.PingContext,
			Close:  func(context.Context) error { return db.Close() },
		}, nil
	case config.SourceFile:
		if cfg.File.Path == "" {
			return nil, fmt.Errorf("file source: PRICING_FILE is not set")
		}
		logger.InfoContext(ctx, "reading pricing documents from file", "path", cfg.File.Path)
		return &Opened{Source: NewFileSource(cfg.File.Path), Health: noop, Close: noop}, nil
	default:
		return nil, fmt.Errorf("unknown pricing source %q", cfg.Source)
	}
}
