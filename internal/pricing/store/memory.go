// Package store holds the pricing document sources: MongoDB (the system of
// record), a PostgreSQL JSONB mirror, JSON/NDJSON exports and an in-memory
// fixture. Every source returns plain Go values: strings, time.Time, []any and
// map[string]any.
package store

import (
	"context"
	"maps"
	"sync"

	"pricetrends/internal/pricing/models"
)

// InMemorySource serves a fixed document set.
type InMemorySource struct {
	mu   sync.RWMutex
	docs []models.RawRecord
}

// NewInMemory returns a source over docs.
func NewInMemory(docs ...models.RawRecord) *InMemorySource {
	return &InMemorySource{docs: docs}
}

// Add appends documents.
func (s *InMemorySource) Add(docs ...models.RawRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = append(s.docs, docs...)
}

func (s *InMemorySource) Insert(ctx context.Context, docs []models.RawRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.Add(docs...)
	return nil
}

// Fetch returns shallow copies so callers cannot rewrite stored documents.
func (s *InMemorySource) Fetch(ctx context.Context) ([]models.RawRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.RawRecord, 0, len(s.docs))
	for _, d := range s.docs {
		out = append(out, maps.Clone(d))
	}
	return out, nil
}
