package store

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/araddon/dateparse"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"pricetrends/internal/pricing/models"
	"pricetrends/pkg/platform/sentinel"
)

//go:embed document.schema.json
var documentSchemaJSON []byte

var (
	schemaOnce     sync.Once
	documentSchema *jsonschema.Schema
	schemaErr      error
)

func loadSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("document.schema.json", bytes.NewReader(documentSchemaJSON)); err != nil {
			schemaErr = fmt.Errorf("add schema: %w", err)
			return
		}
		documentSchema, schemaErr = compiler.Compile("document.schema.json")
	})
	return documentSchema, schemaErr
}

// decodeDocument parses one JSON document, checks it against the document
// schema and unwraps extended JSON values.
func decodeDocument(body []byte) (models.RawRecord, error) {
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, fmt.Errorf("%w: %w", sentinel.ErrMalformed, err)
	}
	schema, err := loadSchema()
	if err != nil {
		return nil, err
	}
	if err := schema.Validate(v); err != nil {
		return nil, fmt.Errorf("%w: %w", sentinel.ErrMalformed, err)
	}
	unwrapped, err := fromExtendedJSON(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", sentinel.ErrMalformed, err)
	}
	doc, ok := unwrapped.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: document is %T", sentinel.ErrMalformed, unwrapped)
	}
	delete(doc, "_id")
	return models.RawRecord(doc), nil
}

// fromExtendedJSON replaces {"$date": ...}, {"$oid": ...} and numeric
// wrappers, as written by mongoexport, with plain values.
func fromExtendedJSON(v any) (any, error) {
	switch x := v.(type) {
	case map[string]any:
		if len(x) == 1 {
			for k, inner := range x {
				switch k {
				case "$date":
					return extendedDate(inner)
				case "$oid":
					return fmt.Sprint(inner), nil
				case "$numberLong", "$numberInt", "$numberDouble", "$numberDecimal":
					return strconv.ParseFloat(fmt.Sprint(inner), 64)
				}
			}
		}
		out := make(map[string]any, len(x))
		for k, e := range x {
			u, err := fromExtendedJSON(e)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			out[k] = u
		}
		return out, nil
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			u, err := fromExtendedJSON(e)
			if err != nil {
				return nil, fmt.Errorf("entry %d: %w", i, err)
			}
			out[i] = u
		}
		return out, nil
	default:
		return v, nil
	}
}

// extendedDate returns the UTC instant of a $date, the same reading the Mongo
// source gives a stored date. An offset in the string moves the wall clock,
// unlike plain timestamp strings, whose offset the normalizer discards.
func extendedDate(v any) (time.Time, error) {
	switch x := v.(type) {
	case string:
		t, err := dateparse.ParseAny(x)
		if err != nil {
			return time.Time{}, fmt.Errorf("$date %q: %w", x, err)
		}
		return t.UTC(), nil
	case float64:
		return time.UnixMilli(int64(x)).UTC(), nil
	case map[string]any:
		ms, err := strconv.ParseInt(fmt.Sprint(x["$numberLong"]), 10, 64)
		if err != nil {
			return time.Time{}, fmt.Errorf("$date.$numberLong: %w", err)
		}
		return time.UnixMilli(ms).UTC(), nil
	default:
		return time.Time{}, fmt.Errorf("$date has type %T", v)
	}
}

// toExtendedJSON is the inverse used when writing documents as JSON.
func toExtendedJSON(v any) any {
	switch x := v.(type) {
	case time.Time:
		return map[string]any{"$date": x.UTC().Format(time.RFC3339Nano)}
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = toExtendedJSON(e)
		}
		return out
	case models.RawRecord:
		return toExtendedJSON(map[string]any(x))
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = toExtendedJSON(e)
		}
		return out
	case []time.Time:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = toExtendedJSON(e)
		}
		return out
	default:
		return v
	}
}
