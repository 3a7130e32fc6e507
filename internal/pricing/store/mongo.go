package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"pricetrends/internal/pricing/models"
	"pricetrends/pkg/platform/sentinel"
)

// MongoSource reads every document of one collection, without _id.
type MongoSource struct {
	coll *mongo.Collection
}

// NewMongoSource reads from coll.
func NewMongoSource(coll *mongo.Collection) *MongoSource {
	return &MongoSource{coll: coll}
}

func (s *MongoSource) Fetch(ctx context.Context) ([]models.RawRecord, error) {
	opts := options.Find().SetProjection(bson.D{{Key: "_id", Value: 0}})
	cur, err := s.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, wrapMongoErr("find pricing documents", err)
	}
	defer cur.Close(ctx)

	var out []models.RawRecord
	for cur.Next(ctx) {
		var doc bson.M
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode pricing document: %w: %w", sentinel.ErrMalformed, err)
		}
		out = append(out, documentFromBSON(doc))
	}
	if err := cur.Err(); err != nil {
		return nil, wrapMongoErr("iterate pricing documents", err)
	}
	return out, nil
}

// Insert seeds the collection in one InsertMany call.
func (s *MongoSource) Insert(ctx context.Context, docs []models.RawRecord) error {
	if len(docs) == 0 {
		return nil
	}
	batch := make([]any, len(docs))
	for i, d := range docs {
		batch[i] = bson.M(d)
	}
	if _, err := s.coll.InsertMany(ctx, batch); err != nil {
		return wrapMongoErr("insert pricing documents", err)
	}
	return nil
}

func wrapMongoErr(op string, err error) error {
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) || errors.Is(err, mongo.ErrClientDisconnected) {
		return fmt.Errorf("%s: %w: %w", op, sentinel.ErrUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
