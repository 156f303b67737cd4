package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/prxgr4mmer/price-delta-service/internal/domain"
	"github.com/prxgr4mmer/price-delta-service/internal/ports"
)

// TrackerConfig holds the cycle settings of the tracker
type TrackerConfig struct {
	// RefreshEvery reloads the provider directory every N cycles, starting with the first
	RefreshEvery int
	// FetchConcurrency bounds the number of providers fetched at once
	FetchConcurrency int
}

// TrackerService implements the ports.PollerService interface.
// It owns the cached snapshot and is its only writer.
type TrackerService struct {
	quotes      ports.QuoteSource
	directories ports.DirectorySource
	registry    ports.RegistryService
	history     ports.HistoryService
	deltas      *Gateway[domain.Snapshot]
	metrics     ports.MetricsService
	clock       ports.Clock
	cfg         TrackerConfig
	logger      *slog.Logger

	mu        sync.RWMutex
	cache     domain.Snapshot
	directory *domain.ProviderDirectory
	cycles    int
}

// NewTrackerService creates a tracker starting from an already loaded directory
func NewTrackerService(
	quotes ports.QuoteSource,
	directories ports.DirectorySource,
	directory *domain.ProviderDirectory,
	registry ports.RegistryService,
	history ports.HistoryService,
	deltas *Gateway[domain.Snapshot],
	metrics ports.MetricsService,
	clock ports.Clock,
	cfg TrackerConfig,
	logger *slog.Logger,
) *TrackerService {
	if cfg.RefreshEvery < 1 {
		cfg.RefreshEvery = 1
	}
	if cfg.FetchConcurrency < 1 {
		cfg.FetchConcurrency = 1
	}

	return &TrackerService{
		quotes:      quotes,
		directories: directories,
		registry:    registry,
		history:     history,
		deltas:      deltas,
		metrics:     metrics,
		clock:       clock,
		cfg:         cfg,
		logger:      logger.With("component", "tracker_service"),
		cache:       domain.NewSnapshot(0),
		directory:   directory,
	}
}

// PollPrices runs one cycle: fetch, diff against the cache, persist the delta
// and update histories, then rotate the cache to the full snapshot.
func (s *TrackerService) PollPrices(ctx context.Context) error {
	start := time.Now()

	if s.cycles%s.cfg.RefreshEvery == 0 {
		s.refreshDirectory(ctx)
	}
	s.cycles++

	directory := s.Directory()
	if directory == nil || len(directory.Providers) == 0 {
		s.metrics.RecordPollError(time.Since(start))
		return fmt.Errorf("failed to poll prices: %w", domain.ErrProviderNotFound)
	}

	snapshot, err := s.fetch(ctx, directory)
	if err != nil {
		s.metrics.RecordPollError(time.Since(start))
		s.logger.Error("failed to fetch prices, keeping cached snapshot", "error", err)
		return fmt.Errorf("failed to fetch prices: %w", err)
	}

	delta := domain.ComputeDelta(s.Latest(), snapshot, directory.ReferenceCurrency)

	written := false
	if !delta.IsEmpty() {
		written = s.deltas.Insert(ctx, delta)

		updated, skipped := s.history.Record(ctx, delta)
		s.metrics.RecordHistoryUpdates(len(updated), len(skipped))
	}

	s.mu.Lock()
	s.cache = snapshot
	s.mu.Unlock()

	duration := time.Since(start)
	s.metrics.RecordPollSuccess(duration, delta.Len(), snapshot.Len(), written)

	s.logger.Info("poll completed",
		"assets", snapshot.Len(),
		"changed", delta.Len(),
		"duration_ms", duration.Milliseconds(),
	)

	return nil
}

// Latest returns a copy of the cached snapshot
func (s *TrackerService) Latest() domain.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cache.Clone()
}

// Directory returns the provider directory in use
func (s *TrackerService) Directory() *domain.ProviderDirectory {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.directory
}

func (s *TrackerService) refreshDirectory(ctx context.Context) {
	directory, err := s.directories.Load()
	if err != nil {
		s.logger.Warn("failed to reload provider directory, keeping previous", "error", err)
		s.metrics.RecordDirectoryRefresh(false, 0)
		return
	}

	s.mu.Lock()
	s.directory = directory
	s.mu.Unlock()

	created := s.registry.Seed(ctx, directory.Assets())
	s.metrics.RecordDirectoryRefresh(true, len(created))

	s.logger.Debug("provider directory reloaded",
		"providers", directory.Names(),
		"seeded", len(created),
	)
}

// fetch queries every provider and merges the results in provider name order.
// The first provider to report an asset wins.
func (s *TrackerService) fetch(ctx context.Context, directory *domain.ProviderDirectory) (domain.Snapshot, error) {
	names := directory.Names()
	results := make([]map[string]domain.Asset, len(names))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.FetchConcurrency)

	for i, name := range names {
		provider := directory.Providers[name]
		g.Go(func() error {
			assets, err := s.quotes.FetchPrices(gctx, provider)
			if err != nil {
				return fmt.Errorf("provider %s: %w", name, err)
			}
			results[i] = assets
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return domain.Snapshot{}, err
	}

	snapshot := domain.NewSnapshot(s.clock.Now().UnixMilli())
	for _, assets := range results {
		for id, asset := range assets {
			if _, exists := snapshot.Coins[id]; exists {
				continue
			}
			snapshot.Coins[id] = asset
		}
	}

	return snapshot, nil
}

// Ensure TrackerService implements the poller and cache contracts
var (
	_ ports.PollerService   = (*TrackerService)(nil)
	_ ports.CacheReader     = (*TrackerService)(nil)
	_ ports.DirectoryReader = (*TrackerService)(nil)
)
