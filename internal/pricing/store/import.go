package store

import (
	"context"
	"errors"
	"fmt"
	"io"

	"pricetrends/internal/pricing/models"
)

// ErrReadOnly is returned when importing into a source that cannot store
// documents, such as a file export.
var ErrReadOnly = errors.New("source is read-only")

// Writer is implemented by sources that accept imported documents.
type Writer interface {
	Insert(ctx context.Context, docs []models.RawRecord) error
}

// Import reads a JSON or NDJSON export from r and inserts every document into
// dst. Nothing is written unless the whole export passes the schema.
func Import(ctx context.Context, dst Source, r io.Reader) (int, error) {
	w, ok := dst.(Writer)
	if !ok {
		return 0, fmt.Errorf("import into %T: %w", dst, ErrReadOnly)
	}
	docs, err := ReadDocuments(ctx, r)
	if err != nil {
		return 0, fmt.Errorf("read export: %w", err)
	}
	if err := w.Insert(ctx, docs); err != nil {
		return 0, fmt.Errorf("insert %d documents: %w", len(docs), err)
	}
	return len(docs), nil
}
