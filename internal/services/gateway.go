package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/prxgr4mmer/price-delta-service/internal/domain"
	"github.com/prxgr4mmer/price-delta-service/internal/ports"
)

// Gateway wraps a document store with best-effort semantics: lookups that
// fail for any reason report absence, and failed writes are logged and dropped.
type Gateway[T any] struct {
	store      ports.DocumentStore[T]
	collection string
	logger     *slog.Logger
}

// NewGateway creates a best-effort gateway over a collection
func NewGateway[T any](store ports.DocumentStore[T], collection string, logger *slog.Logger) *Gateway[T] {
	return &Gateway[T]{
		store:      store,
		collection: collection,
		logger:     logger.With("component", "gateway", "collection", collection),
	}
}

// FindOne returns the document stored under id, if it can be read
func (g *Gateway[T]) FindOne(ctx context.Context, id string) (T, bool) {
	doc, err := g.store.FindOne(ctx, id)
	if err == nil {
		return doc, true
	}

	if errors.Is(err, domain.ErrDocumentNotFound) {
		g.logger.Debug("no document found", "id", id)
	} else {
		g.logger.Warn("could not read document", "id", id, "error", err)
	}

	var zero T
	return zero, false
}

// Save upserts the document under id. Failures are logged.
func (g *Gateway[T]) Save(ctx context.Context, id string, doc T) bool {
	if err := g.store.Save(ctx, id, doc); err != nil {
		g.logger.Error("failed to save document", "id", id, "error", err)
		return false
	}
	return true
}

// Insert appends a new document. Failures are logged.
func (g *Gateway[T]) Insert(ctx context.Context, doc T) bool {
	id, err := g.store.Insert(ctx, doc)
	if err != nil {
		g.logger.Error("failed to insert document", "error", err)
		return false
	}
	g.logger.Debug("document inserted", "id", id)
	return true
}

// Ping checks the backing store
func (g *Gateway[T]) Ping(ctx context.Context) error {
	return g.store.Ping(ctx)
}
