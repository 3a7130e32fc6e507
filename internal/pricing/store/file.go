package store

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"pricetrends/internal/pricing/models"
	"pricetrends/pkg/platform/sentinel"
)

// FileSource reads a JSON array or newline-delimited JSON export.
type FileSource struct {
	path string
}

// NewFileSource reads the export at path on every Fetch.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

func (s *FileSource) Fetch(ctx context.Context) ([]models.RawRecord, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("open %s: %w: %w", s.path, sentinel.ErrNotFound, err)
		}
		return nil, fmt.Errorf("open %s: %w", s.path, err)
	}
	defer f.Close()
	return ReadDocuments(ctx, f)
}

// ReadDocuments decodes a JSON array of documents or a stream of documents.
// Any document that fails the schema aborts the read.
func ReadDocuments(ctx context.Context, r io.Reader) ([]models.RawRecord, error) {
	br := bufio.NewReader(r)
	first, err := firstNonSpace(br)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, err
	}

	var bodies []json.RawMessage
	dec := json.NewDecoder(br)
	if first == '[' {
		if err := dec.Decode(&bodies); err != nil {
			return nil, fmt.Errorf("%w: %w", sentinel.ErrMalformed, err)
		}
	} else {
		for {
			var body json.RawMessage
			err := dec.Decode(&body)
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				return nil, fmt.Errorf("document %d: %w: %w", len(bodies), sentinel.ErrMalformed, err)
			}
			bodies = append(bodies, body)
		}
	}

	out := make([]models.RawRecord, 0, len(bodies))
	for i, body := range bodies {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		doc, err := decodeDocument(bytes.TrimSpace(body))
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", i, err)
		}
		out = append(out, doc)
	}
	return out, nil
}

func firstNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		}
		return b, br.UnreadByte()
	}
}
