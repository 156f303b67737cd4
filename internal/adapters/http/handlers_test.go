package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpAdapter "github.com/prxgr4mmer/price-delta-service/internal/adapters/http"
	"github.com/prxgr4mmer/price-delta-service/internal/domain"
	"github.com/prxgr4mmer/price-delta-service/internal/ports"
)

// Mock implementations for testing

type mockHistoryService struct {
	histories map[string]*domain.PriceHistory
}

func (m *mockHistoryService) Record(ctx context.Context, delta domain.Snapshot) ([]string, []string) {
	return nil, nil
}

func (m *mockHistoryService) GetHistory(ctx context.Context, id string) (*domain.PriceHistory, error) {
	if err := domain.ValidateAssetID(id); err != nil {
		return nil, err
	}
	h, ok := m.histories[id]
	if !ok {
		return nil, domain.ErrHistoryNotFound
	}
	return h, nil
}

type mockRegistryService struct {
	records map[string]*domain.AssetRecord
}

func (m *mockRegistryService) Seed(ctx context.Context, assets map[string]string) []string {
	return nil
}

func (m *mockRegistryService) GetAsset(ctx context.Context, id string) (*domain.AssetRecord, error) {
	r, ok := m.records[id]
	if !ok {
		return nil, domain.ErrAssetNotFound
	}
	return r, nil
}

type mockMetricsService struct{}

func (m *mockMetricsService) GetMetrics(ctx context.Context) (*ports.Metrics, error) {
	return &ports.Metrics{
		Uptime:           3600,
		CachedAssets:     2,
		PollSuccessCount: 100,
		PollErrorCount:   2,
		DeltasWritten:    40,
		StoreStatus:      "healthy",
	}, nil
}

func (m *mockMetricsService) RecordPollSuccess(time.Duration, int, int, bool) {}
func (m *mockMetricsService) RecordPollError(duration time.Duration)          {}
func (m *mockMetricsService) RecordHistoryUpdates(updated, skipped int)       {}
func (m *mockMetricsService) RecordDirectoryRefresh(success bool, seeded int) {}
func (m *mockMetricsService) GetLastPollTime() *time.Time                     { return nil }

type mockCache struct {
	snapshot domain.Snapshot
}

func (m *mockCache) Latest() domain.Snapshot { return m.snapshot.Clone() }

type mockDirectory struct {
	dir *domain.ProviderDirectory
}

func (m *mockDirectory) Directory() *domain.ProviderDirectory { return m.dir }

type mockQuoteSource struct {
	pingErr error
}

func (m *mockQuoteSource) FetchPrices(ctx context.Context, p domain.Provider) (map[string]domain.Asset, error) {
	return nil, nil
}

func (m *mockQuoteSource) Ping(ctx context.Context, p domain.Provider) error {
	return m.pingErr
}

type mockStore struct {
	pingErr error
}

func (m *mockStore) Ping(ctx context.Context) error { return m.pingErr }

type mockObserver struct {
	paths []string
}

func (m *mockObserver) ObserveRequest(method, path string, status int, duration time.Duration) {
	m.paths = append(m.paths, path)
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestDeps() httpAdapter.Dependencies {
	snapshot := domain.NewSnapshot(1700000000000)
	snapshot.Coins["bitcoin"] = domain.Asset{ID: "bitcoin", Symbol: "btc", Prices: map[string]float64{"usd": 64250.5, "eur": 59000}}
	snapshot.Coins["ethereum"] = domain.Asset{ID: "ethereum", Symbol: "eth", Prices: map[string]float64{"usd": 0.1}}

	return httpAdapter.Dependencies{
		History: &mockHistoryService{histories: map[string]*domain.PriceHistory{
			"bitcoin": {
				ID:        "bitcoin",
				Symbol:    "btc",
				Prices:    []map[string]float64{{"usd": 64000}, {"usd": 64250.5}},
				UpdatedAt: 1700000000000,
			},
		}},
		Registry: &mockRegistryService{records: map[string]*domain.AssetRecord{
			"bitcoin": {ID: "bitcoin", Symbol: "btc", CreatedAt: 1600000000000},
		}},
		Metrics: &mockMetricsService{},
		Cache:   &mockCache{snapshot: snapshot},
		Directory: &mockDirectory{dir: &domain.ProviderDirectory{
			ReferenceCurrency: "usd",
			Providers: map[string]domain.Provider{
				"coingecko": {Name: "coingecko"},
			},
		}},
		Quotes: &mockQuoteSource{},
		Store:  &mockStore{},
	}
}

func serve(t *testing.T, deps httpAdapter.Dependencies, path string) *httptest.ResponseRecorder {
	t.Helper()

	router := httpAdapter.NewRouter(httpAdapter.NewHandler(deps, newTestLogger()), nil, nil, newTestLogger())
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandler_Health(t *testing.T) {
	t.Run("returns healthy status", func(t *testing.T) {
		rec := serve(t, newTestDeps(), "/health")

		assert.Equal(t, http.StatusOK, rec.Code)

		var response ports.HealthStatus
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
		assert.Equal(t, "healthy", response.Status)
		assert.Equal(t, "healthy", response.Store)
		assert.Equal(t, map[string]string{"coingecko": "healthy"}, response.Providers)
	})

	t.Run("returns degraded when a provider is down", func(t *testing.T) {
		deps := newTestDeps()
		deps.Quotes = &mockQuoteSource{pingErr: domain.ErrQuoteSourceUnavailable}

		rec := serve(t, deps, "/health")

		var response ports.HealthStatus
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
		assert.Equal(t, "degraded", response.Status)
		assert.Equal(t, "unhealthy", response.Providers["coingecko"])
	})

	t.Run("returns degraded when the store is down", func(t *testing.T) {
		deps := newTestDeps()
		deps.Store = &mockStore{pingErr: errors.New("dial tcp: refused")}

		rec := serve(t, deps, "/health")

		var response ports.HealthStatus
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
		assert.Equal(t, "degraded", response.Status)
		assert.Equal(t, "unhealthy", response.Store)
	})
}

func TestHandler_GetPrices(t *testing.T) {
	rec := serve(t, newTestDeps(), "/prices")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var response httpAdapter.PricesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, int64(1700000000000), response.CreatedAt)
	assert.Equal(t, "usd", response.ReferenceCurrency)
	require.Len(t, response.Coins, 2)
	assert.Equal(t, "bitcoin", response.Coins[0].ID)
	assert.Equal(t, "64250.5", response.Coins[0].Prices["usd"])
	assert.Equal(t, "59000", response.Coins[0].Prices["eur"])
	assert.Equal(t, "0.1", response.Coins[1].Prices["usd"])
}

func TestHandler_GetPricesEmptyCache(t *testing.T) {
	deps := newTestDeps()
	deps.Cache = &mockCache{snapshot: domain.NewSnapshot(0)}

	rec := serve(t, deps, "/prices")

	require.Equal(t, http.StatusOK, rec.Code)
	var response httpAdapter.PricesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Empty(t, response.Coins)
}

func TestHandler_GetHistory(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantCode   string
	}{
		{name: "stored history", path: "/history/bitcoin", wantStatus: http.StatusOK},
		{name: "missing history", path: "/history/dogecoin", wantStatus: http.StatusNotFound, wantCode: "HISTORY_NOT_FOUND"},
		{name: "invalid id", path: "/history/BAD_ID", wantStatus: http.StatusBadRequest, wantCode: "INVALID_ASSET_ID"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, newTestDeps(), tt.path)
			assert.Equal(t, tt.wantStatus, rec.Code)

			if tt.wantCode != "" {
				var response httpAdapter.ErrorResponse
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
				assert.Equal(t, tt.wantCode, response.Code)
				return
			}

			var response httpAdapter.HistoryResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
			assert.Equal(t, "btc", response.Symbol)
			assert.Equal(t, []map[string]string{{"usd": "64000"}, {"usd": "64250.5"}}, response.Prices)
		})
	}
}

func TestHandler_GetAsset(t *testing.T) {
	rec := serve(t, newTestDeps(), "/assets/bitcoin")
	require.Equal(t, http.StatusOK, rec.Code)

	var record domain.AssetRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &record))
	assert.Equal(t, domain.AssetRecord{ID: "bitcoin", Symbol: "btc", CreatedAt: 1600000000000}, record)

	rec = serve(t, newTestDeps(), "/assets/solana")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_Status(t *testing.T) {
	rec := serve(t, newTestDeps(), "/status")
	require.Equal(t, http.StatusOK, rec.Code)

	var metrics ports.Metrics
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &metrics))
	assert.Equal(t, int64(100), metrics.PollSuccessCount)
	assert.Equal(t, int64(40), metrics.DeltasWritten)
}

func TestRouter_MetricsAndObserver(t *testing.T) {
	registry := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "test_events_total", Help: "Test counter."})
	registry.MustRegister(counter)
	counter.Inc()

	observer := &mockObserver{}
	router := httpAdapter.NewRouter(
		httpAdapter.NewHandler(newTestDeps(), newTestLogger()),
		promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		observer,
		newTestLogger(),
	)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "test_events_total 1")

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/history/bitcoin", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, []string{"GET /metrics", "GET /history/{id}"}, observer.paths)
}

type panickingCache struct{}

func (panickingCache) Latest() domain.Snapshot { panic("boom") }

func TestRecoveryMiddleware(t *testing.T) {
	deps := newTestDeps()
	deps.Cache = panickingCache{}

	rec := serve(t, deps, "/prices")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var response httpAdapter.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, "INTERNAL_ERROR", response.Code)
}
