// Package mongo connects to the document store holding pricing workflows.
package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"pricetrends/internal/platform/config"
)

// Client wraps the driver client together with the configured collection.
type Client struct {
	*mongo.Client
	cfg config.MongoConfig
}

// Connect dials cfg.URI and verifies the primary is reachable.
func Connect(ctx context.Context, cfg config.MongoConfig) (*Client, error) {
	opts := options.Client().ApplyURI(cfg.URI).SetAppName("pricetrends")
	if cfg.Timeout > 0 {
		opts.SetConnectTimeout(cfg.Timeout).SetServerSelectionTimeout(cfg.Timeout)
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping failed: %w", err)
	}
	return &Client{Client: client, cfg: cfg}, nil
}

// Collection returns the configured pricing collection.
func (c *Client) Collection() *mongo.Collection {
	return c.Database(c.cfg.Database).Collection(c.cfg.Collection)
}

// Health checks if the primary is reachable.
func (c *Client) Health(ctx context.Context) error {
	return c.Ping(ctx, readpref.Primary())
}

// Close disconnects the client.
func (c *Client) Close(ctx context.Context) error {
	return c.Disconnect(ctx)
}
