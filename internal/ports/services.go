package ports

import (
	"context"
	"time"

	"github.com/prxgr4mmer/price-delta-service/internal/domain"
)

// HistoryService defines the contract for per-asset price histories
type HistoryService interface {
	// Record appends every asset of the delta to its stored history.
	// Assets without a stored history are skipped and returned.
	Record(ctx context.Context, delta domain.Snapshot) (updated, skipped []string)

	// GetHistory returns the stored history of an asset
	GetHistory(ctx context.Context, id string) (*domain.PriceHistory, error)
}

// RegistryService defines the contract for the asset registry
type RegistryService interface {
	// Seed creates a registry entry for every asset id not yet registered
	Seed(ctx context.Context, assets map[string]string) (created []string)

	// GetAsset returns the registry entry of an asset
	GetAsset(ctx context.Context, id string) (*domain.AssetRecord, error)
}

// MetricsService defines the contract for operational metrics
type MetricsService interface {
	// GetMetrics returns current operational metrics
	GetMetrics(ctx context.Context) (*Metrics, error)

	// RecordPollSuccess records a successful poll cycle.
	// deltaWritten reports whether a non-empty delta was persisted.
	RecordPollSuccess(duration time.Duration, deltaSize, cachedAssets int, deltaWritten bool)

	// RecordPollError records a failed poll cycle
	RecordPollError(duration time.Duration)

	// RecordHistoryUpdates records the outcome of history updates
	RecordHistoryUpdates(updated, skipped int)

	// RecordDirectoryRefresh records a provider directory reload
	RecordDirectoryRefresh(success bool, seeded int)

	// GetLastPollTime returns the time of the last poll
	GetLastPollTime() *time.Time
}

// PollerService defines the contract for one orchestration cycle
type PollerService interface {
	// PollPrices fetches prices, persists what changed and rotates the cache
	PollPrices(ctx context.Context) error
}

// CacheReader exposes the last fetched snapshot
type CacheReader interface {
	// Latest returns a copy of the cached snapshot
	Latest() domain.Snapshot
}

// DirectoryReader exposes the provider directory currently in use
type DirectoryReader interface {
	// Directory returns the active provider directory
	Directory() *domain.ProviderDirectory
}

// Pinger reports whether a backing dependency is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// Metrics represents operational metrics
type Metrics struct {
	Uptime             float64    `json:"uptime_seconds"`
	CachedAssets       int        `json:"cached_assets"`
	LastPollTime       *time.Time `json:"last_poll_time,omitempty"`
	LastPollDuration   float64    `json:"last_poll_duration_ms"`
	PollSuccessCount   int64      `json:"poll_success_count"`
	PollErrorCount     int64      `json:"poll_error_count"`
	DeltasWritten      int64      `json:"deltas_written"`
	HistoriesUpdated   int64      `json:"histories_updated"`
	HistoriesSkipped   int64      `json:"histories_skipped"`
	DirectoryRefreshes int64      `json:"directory_refreshes"`
	StoreStatus        string     `json:"store_status"`
}

// HealthStatus represents the health of the service
type HealthStatus struct {
	Status    string            `json:"status"`
	Store     string            `json:"store"`
	Providers map[string]string `json:"providers"`
}
