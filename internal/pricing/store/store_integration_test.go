//go:build integration

package store_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"pricetrends/internal/pricing/models"
	"pricetrends/internal/pricing/normalize"
	"pricetrends/internal/pricing/store"
	"pricetrends/pkg/platform/tx"
	"pricetrends/pkg/testutil/containers"
)

const (
	testDatabase   = "master-catalogue"
	testCollection = "test-temp"
	testTable      = "pricing_documents"
)

func documents() []models.RawRecord {
	return []models.RawRecord{
		{
			models.FieldTimestamp:         []any{time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC), time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)},
			models.FieldApprovalTimestamp: []any{time.Date(2024, 1, 1, 14, 0, 0, 0, time.UTC)},
			models.FieldEstBOM:            map[string]any{models.FieldMiscellaneous: "freight"},
		},
		{
			models.FieldTimestamp: []any{"2024-01-03 11:00:00"},
		},
	}
}

func assertNormalizes(s *suite.Suite, docs []models.RawRecord) {
	records, skipped, err := normalize.NormalizeAll(docs)
	s.Require().NoError(err)
	s.Equal(0, skipped)
	s.Require().Len(records, 2)
	s.Equal(time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC), records[0].CreatedAt)
	s.Require().NotNil(records[0].Approval)
	s.Equal(time.Date(2024, 1, 1, 14, 0, 0, 0, time.UTC), *records[0].Approval)
	bom, ok := records[0].EstBOM.(map[string]any)
	s.Require().True(ok)
	s.Equal("freight", bom[models.FieldMiscellaneous])
	s.Nil(records[1].Approval)
}

// =============================================================================
// MongoDB
// =============================================================================

type MongoSourceSuite struct {
	suite.Suite
	mongo  *containers.MongoContainer
	source *store.MongoSource
}

func TestMongoSourceSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(MongoSourceSuite))
}

func (s *MongoSourceSuite) SetupSuite() {
	s.mongo = containers.GetManager().GetMongo(s.T())
	s.source = store.NewMongoSource(s.mongo.Client.Database(testDatabase).Collection(testCollection))
}

func (s *MongoSourceSuite) SetupTest() {
	s.Require().NoError(s.mongo.DropDatabase(context.Background(), testDatabase))
}

func (s *MongoSourceSuite) TestFetchRoundTrip() {
	ctx := context.Background()
	s.Require().NoError(s.source.Insert(ctx, documents()))

	docs, err := s.source.Fetch(ctx)

	s.Require().NoError(err)
	s.Require().Len(docs, 2)
	for _, d := range docs {
		_, hasID := d["_id"]
		s.False(hasID, "_id is projected out")
	}
	assertNormalizes(&s.Suite, docs)
}

func (s *MongoSourceSuite) TestFetchEmptyCollection() {
	docs, err := s.source.Fetch(context.Background())

	s.Require().NoError(err)
	s.Empty(docs)
}

// =============================================================================
// PostgreSQL
// =============================================================================

type PostgresSourceSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	source   *store.PostgresSource
}

func TestPostgresSourceSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresSourceSuite))
}

func (s *PostgresSourceSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.source = store.NewPostgresSource(s.postgres.DB, testTable)
	s.Require().NoError(s.source.EnsureSchema(context.Background()))
}

func (s *PostgresSourceSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), testTable))
}

func (s *PostgresSourceSuite) TestFetchRoundTrip() {
	ctx := context.Background()
	s.Require().NoError(s.source.Insert(ctx, documents()))

	docs, err := s.source.Fetch(ctx)

	s.Require().NoError(err)
	assertNormalizes(&s.Suite, docs)
}

func (s *PostgresSourceSuite) TestImportExport() {
	ctx := context.Background()
	export := `{"timestamp": ["2024-01-01 09:00:00"], "approvalTimestamp": [{"$date": "2024-01-01T12:00:00Z"}]}
{"timestamp": ["2024-01-02 10:00:00"]}
`

	n, err := store.Import(ctx, s.source, strings.NewReader(export))

	s.Require().NoError(err)
	s.Equal(2, n)
	docs, err := s.source.Fetch(ctx)
	s.Require().NoError(err)
	s.Len(docs, 2)
}

func (s *PostgresSourceSuite) TestInsertJoinsCallerTransaction() {
	ctx := context.Background()
	outer, err := s.postgres.DB.BeginTx(ctx, nil)
	s.Require().NoError(err)

	s.Require().NoError(s.source.Insert(tx.WithTx(ctx, outer), documents()))
	s.Require().NoError(outer.Rollback())

	docs, err := s.source.Fetch(ctx)
	s.Require().NoError(err)
	s.Empty(docs, "rolled back rows are not visible")
}

func (s *PostgresSourceSuite) TestEnsureSchemaIsIdempotent() {
	s.NoError(s.source.EnsureSchema(context.Background()))
}
