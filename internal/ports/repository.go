package ports

import (
	"context"

	"github.com/prxgr4mmer/price-delta-service/internal/domain"
)

// Collection names of the persisted documents
const (
	CollectionDeltas  = "coin_deltas"
	CollectionHistory = "latest_entries"
	CollectionAssets  = "coins"
)

// DocumentStore defines the contract for a keyed document collection
type DocumentStore[T any] interface {
	// FindOne returns the document stored under id, or domain.ErrDocumentNotFound
	FindOne(ctx context.Context, id string) (T, error)

	// Save replaces or inserts the document stored under id
	Save(ctx context.Context, id string, doc T) error

	// Insert always stores a new document and returns its generated id
	Insert(ctx context.Context, doc T) (string, error)

	// Ping checks if the backing store is reachable
	Ping(ctx context.Context) error
}

// DeltaStore holds the append-only series of raw deltas
type DeltaStore = DocumentStore[domain.Snapshot]

// HistoryStore holds one bounded price history per asset
type HistoryStore = DocumentStore[domain.PriceHistory]

// AssetStore holds the registry of every asset ever observed
type AssetStore = DocumentStore[domain.AssetRecord]
