package services

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/prxgr4mmer/price-delta-service/internal/ports"
)

const namespace = "price_delta"

// MetricsService implements the ports.MetricsService interface.
// Counters are kept both as Prometheus collectors and as plain values for /status.
type MetricsService struct {
	store     ports.Pinger
	startTime time.Time
	logger    *slog.Logger

	polls          *prometheus.CounterVec
	pollDuration   prometheus.Histogram
	cachedAssets   prometheus.Gauge
	deltaAssets    prometheus.Histogram
	deltasWritten  prometheus.Counter
	historyUpdates *prometheus.CounterVec
	refreshes      *prometheus.CounterVec
	seededAssets   prometheus.Counter
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec

	mu                 sync.RWMutex
	lastPollTime       *time.Time
	lastPollDuration   time.Duration
	lastCachedAssets   int
	pollSuccessCount   int64
	pollErrorCount     int64
	deltasWrittenCount int64
	historiesUpdated   int64
	historiesSkipped   int64
	directoryRefreshes int64
}

// NewMetricsService creates a new metrics service and registers its collectors
func NewMetricsService(store ports.Pinger, registerer prometheus.Registerer, logger *slog.Logger) *MetricsService {
	m := &MetricsService{
		store:     store,
		startTime: time.Now(),
		logger:    logger.With("component", "metrics_service"),

		polls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "poller",
			Name:      "cycles_total",
			Help:      "Total number of poll cycles by result.",
		}, []string{"result"}),
		pollDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "poller",
			Name:      "cycle_duration_seconds",
			Help:      "Duration of poll cycles.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
		cachedAssets: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "assets",
			Help:      "Number of assets in the cached snapshot.",
		}),
		deltaAssets: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "poller",
			Name:      "delta_assets",
			Help:      "Number of changed assets per cycle.",
			Buckets:   prometheus.LinearBuckets(0, 5, 10),
		}),
		deltasWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "deltas_written_total",
			Help:      "Total number of non-empty deltas inserted.",
		}),
		historyUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "history",
			Name:      "updates_total",
			Help:      "History updates by outcome.",
		}, []string{"outcome"}),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "directory",
			Name:      "refreshes_total",
			Help:      "Provider directory reloads by result.",
		}, []string{"result"}),
		seededAssets: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "registry",
			Name:      "seeded_assets_total",
			Help:      "Assets added to the registry.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		}, []string{"method", "path", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		}, []string{"method", "path"}),
	}

	registerer.MustRegister(
		m.polls,
		m.pollDuration,
		m.cachedAssets,
		m.deltaAssets,
		m.deltasWritten,
		m.historyUpdates,
		m.refreshes,
		m.seededAssets,
		m.httpRequests,
		m.httpDuration,
	)

	return m
}

// GetMetrics returns current operational metrics
func (m *MetricsService) GetMetrics(ctx context.Context) (*ports.Metrics, error) {
	m.mu.RLock()
	metrics := &ports.Metrics{
		Uptime:             time.Since(m.startTime).Seconds(),
		CachedAssets:       m.lastCachedAssets,
		LastPollTime:       m.lastPollTime,
		LastPollDuration:   float64(m.lastPollDuration.Milliseconds()),
		PollSuccessCount:   m.pollSuccessCount,
		PollErrorCount:     m.pollErrorCount,
		DeltasWritten:      m.deltasWrittenCount,
		HistoriesUpdated:   m.historiesUpdated,
		HistoriesSkipped:   m.historiesSkipped,
		DirectoryRefreshes: m.directoryRefreshes,
	}
	m.mu.RUnlock()

	metrics.StoreStatus = "healthy"
	if err := m.store.Ping(ctx); err != nil {
		m.logger.Warn("store ping failed", "error", err)
		metrics.StoreStatus = "unhealthy"
	}

	return metrics, nil
}

// RecordPollSuccess records a successful poll cycle
func (m *MetricsService) RecordPollSuccess(duration time.Duration, deltaSize, cachedAssets int, deltaWritten bool) {
	m.polls.WithLabelValues("success").Inc()
	m.pollDuration.Observe(duration.Seconds())
	m.deltaAssets.Observe(float64(deltaSize))
	m.cachedAssets.Set(float64(cachedAssets))
	if deltaWritten {
		m.deltasWritten.Inc()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	m.lastPollTime = &now
	m.lastPollDuration = duration
	m.lastCachedAssets = cachedAssets
	m.pollSuccessCount++
	if deltaWritten {
		m.deltasWrittenCount++
	}
}

// RecordPollError records a failed poll cycle
func (m *MetricsService) RecordPollError(duration time.Duration) {
	m.polls.WithLabelValues("error").Inc()
	m.pollDuration.Observe(duration.Seconds())

	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	m.lastPollTime = &now
	m.lastPollDuration = duration
	m.pollErrorCount++
}

// RecordHistoryUpdates records the outcome of history updates
func (m *MetricsService) RecordHistoryUpdates(updated, skipped int) {
	m.historyUpdates.WithLabelValues("updated").Add(float64(updated))
	m.historyUpdates.WithLabelValues("skipped").Add(float64(skipped))

	m.mu.Lock()
	defer m.mu.Unlock()
	m.historiesUpdated += int64(updated)
	m.historiesSkipped += int64(skipped)
}

// RecordDirectoryRefresh records a provider directory reload
func (m *MetricsService) RecordDirectoryRefresh(success bool, seeded int) {
	result := "success"
	if !success {
		result = "error"
	}
	m.refreshes.WithLabelValues(result).Inc()
	m.seededAssets.Add(float64(seeded))

	if !success {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.directoryRefreshes++
}

// ObserveRequest records a handled HTTP request
func (m *MetricsService) ObserveRequest(method, path string, status int, duration time.Duration) {
	m.httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// GetLastPollTime returns the time of the last poll
func (m *MetricsService) GetLastPollTime() *time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastPollTime
}

// Ensure MetricsService implements ports.MetricsService
var _ ports.MetricsService = (*MetricsService)(nil)
