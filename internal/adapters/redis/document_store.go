package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/prxgr4mmer/price-delta-service/internal/config"
	"github.com/prxgr4mmer/price-delta-service/internal/domain"
	"github.com/prxgr4mmer/price-delta-service/internal/ports"
)

// NewClient connects to Redis and checks the connection
func NewClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return client, nil
}

// DocumentStore implements ports.DocumentStore with one string key per document.
// Inserted documents are also indexed in a sorted set scored by insertion time.
type DocumentStore[T any] struct {
	client     redis.UniversalClient
	collection string
	now        func() time.Time
}

// NewDocumentStore creates a Redis backed collection
func NewDocumentStore[T any](client redis.UniversalClient, collection string) *DocumentStore[T] {
	return &DocumentStore[T]{
		client:     client,
		collection: collection,
		now:        time.Now,
	}
}

func (s *DocumentStore[T]) key(id string) string { return fmt.Sprintf("%s:%s", s.collection, id) }
func (s *DocumentStore[T]) indexKey() string     { return s.collection }

// FindOne returns the document stored under id
func (s *DocumentStore[T]) FindOne(ctx context.Context, id string) (T, error) {
	var doc T

	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return doc, domain.ErrDocumentNotFound
	}
	if err != nil {
		return doc, fmt.Errorf("failed to get %s from redis: %w", s.key(id), err)
	}

	if err := json.Unmarshal(data, &doc); err != nil {
		return doc, fmt.Errorf("failed to decode %s: %w", s.key(id), err)
	}

	return doc, nil
}

// Save replaces or inserts the document stored under id
func (s *DocumentStore[T]) Save(ctx context.Context, id string, doc T) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", s.key(id), err)
	}

	if err := s.client.Set(ctx, s.key(id), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to set %s in redis: %w", s.key(id), err)
	}

	return nil
}

// Insert stores the document under a fresh id
func (s *DocumentStore[T]) Insert(ctx context.Context, doc T) (string, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("failed to encode %s document: %w", s.collection, err)
	}

	id := uuid.NewString()

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.key(id), data, 0)
	pipe.ZAdd(ctx, s.indexKey(), redis.Z{
		Score:  float64(s.now().UnixMilli()),
		Member: id,
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("failed to insert %s document in redis: %w", s.collection, err)
	}

	return id, nil
}

// Ping checks if Redis is reachable
func (s *DocumentStore[T]) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}

// Ensure DocumentStore implements ports.DocumentStore
var _ ports.DocumentStore[domain.AssetRecord] = (*DocumentStore[domain.AssetRecord])(nil)
