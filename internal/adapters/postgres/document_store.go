package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/prxgr4mmer/price-delta-service/internal/domain"
	"github.com/prxgr4mmer/price-delta-service/internal/ports"
)

// DocumentStore implements ports.DocumentStore on a JSONB table.
// Every collection is its own table with an (id, body, created_at, updated_at) layout.
type DocumentStore[T any] struct {
	db    *DB
	table string
}

// NewDocumentStore creates a PostgreSQL backed collection
func NewDocumentStore[T any](db *DB, collection string) *DocumentStore[T] {
	return &DocumentStore[T]{
		db:    db,
		table: pgx.Identifier{collection}.Sanitize(),
	}
}

// FindOne returns the document stored under id
func (s *DocumentStore[T]) FindOne(ctx context.Context, id string) (T, error) {
	var doc T

	query := fmt.Sprintf(`SELECT body FROM %s WHERE id = $1`, s.table)

	var body []byte
	err := s.db.Pool.QueryRow(ctx, query, id).Scan(&body)
	if errors.Is(err, pgx.ErrNoRows) {
		return doc, domain.ErrDocumentNotFound
	}
	if err != nil {
		return doc, fmt.Errorf("failed to query %s: %w", s.table, err)
	}

	if err := json.Unmarshal(body, &doc); err != nil {
		return doc, fmt.Errorf("failed to decode document %s in %s: %w", id, s.table, err)
	}

	return doc, nil
}

// Save replaces or inserts the document stored under id
func (s *DocumentStore[T]) Save(ctx context.Context, id string, doc T) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode document %s: %w", id, err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, body, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())
		ON CONFLICT (id) DO UPDATE
		SET body = EXCLUDED.body, updated_at = NOW()
	`, s.table)

	if _, err := s.db.Pool.Exec(ctx, query, id, body); err != nil {
		return fmt.Errorf("failed to save document %s in %s: %w", id, s.table, err)
	}

	return nil
}

// Insert stores the document under a fresh id
func (s *DocumentStore[T]) Insert(ctx context.Context, doc T) (string, error) {
	body, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("failed to encode document: %w", err)
	}

	id := uuid.NewString()
	query := fmt.Sprintf(`
		INSERT INTO %s (id, body, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())
	`, s.table)

	if _, err := s.db.Pool.Exec(ctx, query, id, body); err != nil {
		return "", fmt.Errorf("failed to insert document in %s: %w", s.table, err)
	}

	return id, nil
}

// Ping checks if the database is reachable
func (s *DocumentStore[T]) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Ensure DocumentStore implements ports.DocumentStore
var _ ports.DocumentStore[domain.PriceHistory] = (*DocumentStore[domain.PriceHistory])(nil)
