package http

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/prxgr4mmer/price-delta-service/internal/ports"
)

const healthCheckTimeout = 5 * time.Second

// Dependencies groups what the handlers read from
type Dependencies struct {
	History   ports.HistoryService
	Registry  ports.RegistryService
	Metrics   ports.MetricsService
	Cache     ports.CacheReader
	Directory ports.DirectoryReader
	Quotes    ports.QuoteSource
	Store     ports.Pinger
}

// Handler contains all HTTP handlers
type Handler struct {
	deps   Dependencies
	logger *slog.Logger
}

// NewHandler creates a new handler
func NewHandler(deps Dependencies, logger *slog.Logger) *Handler {
	return &Handler{
		deps:   deps,
		logger: logger.With("component", "http_handler"),
	}
}

// Health pings the store and every configured provider
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	health := ports.HealthStatus{
		Status:    "healthy",
		Store:     "healthy",
		Providers: make(map[string]string),
	}

	if err := h.deps.Store.Ping(ctx); err != nil {
		h.logger.Warn("store health check failed", "error", err)
		health.Store = "unhealthy"
		health.Status = "degraded"
	}

	if dir := h.deps.Directory.Directory(); dir != nil {
		for _, name := range dir.Names() {
			health.Providers[name] = "healthy"
			if err := h.deps.Quotes.Ping(ctx, dir.Providers[name]); err != nil {
				h.logger.Warn("provider health check failed", "provider", name, "error", err)
				health.Providers[name] = "unhealthy"
				health.Status = "degraded"
			}
		}
	}

	respondJSON(w, http.StatusOK, health)
}

// Status returns operational counters
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	metrics, err := h.deps.Metrics.GetMetrics(r.Context())
	if err != nil {
		handleDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, metrics)
}

// AssetPrices is one asset in the prices response
type AssetPrices struct {
	ID     string            `json:"id"`
	Symbol string            `json:"symbol"`
	Prices map[string]string `json:"prices"`
}

// PricesResponse is the cached snapshot as returned by the API
type PricesResponse struct {
	CreatedAt         int64         `json:"created_at"`
	ReferenceCurrency string        `json:"reference_currency,omitempty"`
	Coins             []AssetPrices `json:"coins"`
}

// GetPrices returns the last fetched snapshot
func (h *Handler) GetPrices(w http.ResponseWriter, r *http.Request) {
	snapshot := h.deps.Cache.Latest()

	resp := PricesResponse{
		CreatedAt: snapshot.CreatedAt,
		Coins:     make([]AssetPrices, 0, snapshot.Len()),
	}
	if dir := h.deps.Directory.Directory(); dir != nil {
		resp.ReferenceCurrency = dir.ReferenceCurrency
	}

	ids := make([]string, 0, snapshot.Len())
	for id := range snapshot.Coins {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		asset := snapshot.Coins[id]
		resp.Coins = append(resp.Coins, AssetPrices{
			ID:     id,
			Symbol: asset.Symbol,
			Prices: formatPrices(asset.Prices),
		})
	}

	respondJSON(w, http.StatusOK, resp)
}

// HistoryResponse is a price history as returned by the API
type HistoryResponse struct {
	ID        string              `json:"id"`
	Symbol    string              `json:"symbol"`
	UpdatedAt int64               `json:"updated_at"`
	Prices    []map[string]string `json:"prices"`
}

// GetHistory returns the stored price history of an asset
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	history, err := h.deps.History.GetHistory(r.Context(), r.PathValue("id"))
	if err != nil {
		handleDomainError(w, err)
		return
	}

	resp := HistoryResponse{
		ID:        history.ID,
		Symbol:    history.Symbol,
		UpdatedAt: history.UpdatedAt,
		Prices:    make([]map[string]string, len(history.Prices)),
	}
	for i, prices := range history.Prices {
		resp.Prices[i] = formatPrices(prices)
	}

	respondJSON(w, http.StatusOK, resp)
}

// GetAsset returns the registry entry of an asset
func (h *Handler) GetAsset(w http.ResponseWriter, r *http.Request) {
	record, err := h.deps.Registry.GetAsset(r.Context(), r.PathValue("id"))
	if err != nil {
		handleDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, record)
}

// formatPrices renders floats as exact decimal strings
func formatPrices(prices map[string]float64) map[string]string {
	out := make(map[string]string, len(prices))
	for cur, p := range prices {
		out[cur] = decimal.NewFromFloat(p).String()
	}
	return out
}
