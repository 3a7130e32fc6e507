package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"pricetrends/internal/pricing/models"
	"pricetrends/pkg/platform/sentinel"
	"pricetrends/pkg/platform/tx"
)

// PostgresSource reads pricing documents mirrored into a JSONB table.
type PostgresSource struct {
	db    *sql.DB
	table string
}

// NewPostgresSource reads from table through db.
func NewPostgresSource(db *sql.DB, table string) *PostgresSource {
	return &PostgresSource{db: db, table: table}
}

// EnsureSchema creates the document table if it does not exist.
func (s *PostgresSource) EnsureSchema(ctx context.Context) error {
	table := pq.QuoteIdentifier(s.table)
	query := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	id BIGSERIAL PRIMARY KEY,
	doc JSONB NOT NULL,
	imported_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`, table)
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("ensure %s: %w", s.table, err)
	}
	return nil
}

// Insert stores documents in one transaction. When ctx carries a transaction
// (tx.WithTx) the rows join it and the caller commits. Times are written in
// the extended JSON {"$date": ...} form so they read back as timestamps.
func (s *PostgresSource) Insert(ctx context.Context, docs []models.RawRecord) error {
	if len(docs) == 0 {
		return nil
	}
	if outer, ok := tx.From(ctx); ok {
		return s.insert(ctx, outer, docs)
	}

	t, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert: %w", err)
	}
	defer func() { _ = t.Rollback() }()
	if err := s.insert(ctx, t, docs); err != nil {
		return err
	}
	return t.Commit()
}

func (s *PostgresSource) insert(ctx context.Context, t *sql.Tx, docs []models.RawRecord) error {
	stmt, err := t.PrepareContext(ctx, fmt.Sprintf(`INSERT INTO %s (doc) VALUES ($1)`, pq.QuoteIdentifier(s.table)))
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, d := range docs {
		body, err := json.Marshal(toExtendedJSON(map[string]any(d)))
		if err != nil {
			return fmt.Errorf("encode document %d: %w", i, err)
		}
		if _, err := stmt.ExecContext(ctx, body); err != nil {
			return fmt.Errorf("insert document %d: %w", i, err)
		}
	}
	return nil
}

func (s *PostgresSource) Fetch(ctx context.Context) ([]models.RawRecord, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`SELECT doc FROM %s ORDER BY id`, pq.QuoteIdentifier(s.table)))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("query %s: %w: %w", s.table, sentinel.ErrUnavailable, err)
		}
		return nil, fmt.Errorf("query %s: %w", s.table, err)
	}
	defer rows.Close()

	var out []models.RawRecord
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		doc, err := decodeDocument(body)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", s.table, err)
	}
	return out, nil
}
