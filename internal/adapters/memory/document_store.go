package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/prxgr4mmer/price-delta-service/internal/domain"
	"github.com/prxgr4mmer/price-delta-service/internal/ports"
)

// DocumentStore keeps JSON encoded documents in memory
type DocumentStore[T any] struct {
	collection string

	mu    sync.RWMutex
	docs  map[string][]byte
	order []string
}

// NewDocumentStore creates an empty in-memory collection
func NewDocumentStore[T any](collection string) *DocumentStore[T] {
	return &DocumentStore[T]{
		collection: collection,
		docs:       make(map[string][]byte),
	}
}

// FindOne returns the document stored under id
func (s *DocumentStore[T]) FindOne(ctx context.Context, id string) (T, error) {
	var doc T

	s.mu.RLock()
	raw, ok := s.docs[id]
	s.mu.RUnlock()

	if !ok {
		return doc, domain.ErrDocumentNotFound
	}

	if err := json.Unmarshal(raw, &doc); err != nil {
		return doc, fmt.Errorf("failed to decode %s/%s: %w", s.collection, id, err)
	}

	return doc, nil
}

// Save replaces or inserts the document stored under id
func (s *DocumentStore[T]) Save(ctx context.Context, id string, doc T) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode %s/%s: %w", s.collection, id, err)
	}

	s.put(id, raw)
	return nil
}

// Insert stores the document under a fresh id
func (s *DocumentStore[T]) Insert(ctx context.Context, doc T) (string, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("failed to encode %s document: %w", s.collection, err)
	}

	id := uuid.NewString()
	s.put(id, raw)
	return id, nil
}

// Ping always succeeds
func (s *DocumentStore[T]) Ping(ctx context.Context) error {
	return nil
}

// The methods below are not part of ports.DocumentStore. They let tests
// inspect the collection, or plant documents that do not decode.

// PutRaw stores raw bytes under id, bypassing encoding
func (s *DocumentStore[T]) PutRaw(id string, raw []byte) {
	s.put(id, raw)
}

// IDs returns the stored ids in insertion order
func (s *DocumentStore[T]) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// All returns every decodable document keyed by id
func (s *DocumentStore[T]) All() map[string]T {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]T, len(s.docs))
	for id, raw := range s.docs {
		var doc T
		if err := json.Unmarshal(raw, &doc); err == nil {
			out[id] = doc
		}
	}
	return out
}

// Len returns the number of stored documents
func (s *DocumentStore[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

func (s *DocumentStore[T]) put(id string, raw []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.docs[id]; !exists {
		s.order = append(s.order, id)
	}
	s.docs[id] = raw
}

// Ensure DocumentStore implements ports.DocumentStore
var _ ports.DocumentStore[domain.Snapshot] = (*DocumentStore[domain.Snapshot])(nil)
