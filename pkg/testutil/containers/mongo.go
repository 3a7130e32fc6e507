//go:build integration

package containers

import (
	"context"
	"testing"

	"github.com/testcontainers/testcontainers-go"
	tcmongo "github.com/testcontainers/testcontainers-go/modules/mongodb"

	"pricetrends/internal/platform/config"
	platformmongo "pricetrends/internal/platform/mongo"
)

// MongoContainer is a throwaway MongoDB reached through the platform client.
type MongoContainer struct {
	Container testcontainers.Container
	URI       string
	Client    *platformmongo.Client
}

// NewMongoContainer starts mongo:7.
func NewMongoContainer(t *testing.T) *MongoContainer {
	t.Helper()
	ctx := context.Background()

	container, err := tcmongo.Run(ctx, "mongo:7")
	if err != nil {
		t.Fatalf("failed to start mongo container: %v", err)
	}
	uri, err := container.ConnectionString(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to get mongo connection string: %v", err)
	}

	client, err := platformmongo.Connect(ctx, config.MongoConfig{URI: uri})
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to connect to mongo: %v", err)
	}
	return &MongoContainer{Container: container, URI: uri, Client: client}
}

// DropDatabase removes a database between tests.
func (m *MongoContainer) DropDatabase(ctx context.Context, name string) error {
	return m.Client.Database(name).Drop(ctx)
}
