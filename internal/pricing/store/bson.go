package store

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"pricetrends/internal/pricing/models"
)

// fromBSON reduces driver types to the plain values the normalizer reads.
// Dates come back as UTC instants; normalization keeps their wall clock.
func fromBSON(v any) any {
	switch x := v.(type) {
	case primitive.DateTime:
		return x.Time().UTC()
	case primitive.Timestamp:
		return time.Unix(int64(x.T), 0).UTC()
	case primitive.A:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = fromBSON(e)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = fromBSON(e)
		}
		return out
	case bson.D:
		out := make(map[string]any, len(x))
		for _, e := range x {
			out[e.Key] = fromBSON(e.Value)
		}
		return out
	case bson.M:
		return mapFromBSON(x)
	case map[string]any:
		return mapFromBSON(x)
	case primitive.ObjectID:
		return x.Hex()
	case primitive.Decimal128:
		return x.String()
	case primitive.Null, primitive.Undefined:
		return nil
	default:
		return v
	}
}

// Nested documents stay map[string]any so extractors can type-assert them.
func mapFromBSON(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = fromBSON(v)
	}
	return out
}

func documentFromBSON(m bson.M) models.RawRecord {
	return models.RawRecord(mapFromBSON(m))
}
