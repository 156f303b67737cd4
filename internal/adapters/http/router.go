package http

import (
	"log/slog"
	"net/http"
)

// NewRouter creates the HTTP router with all routes
func NewRouter(h *Handler, metrics http.Handler, observer RequestObserver, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	// Health and counters
	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("GET /status", h.Status)

	// Cached snapshot
	mux.HandleFunc("GET /prices", h.GetPrices)

	// Stored documents
	mux.HandleFunc("GET /history/{id}", h.GetHistory)
	mux.HandleFunc("GET /assets/{id}", h.GetAsset)

	// Prometheus exposition
	if metrics != nil {
		mux.Handle("GET /metrics", metrics)
	}

	// Apply middleware chain (order matters: outer -> inner)
	var handler http.Handler = mux
	handler = ContentTypeMiddleware(handler)
	handler = RecoveryMiddleware(logger)(handler)
	handler = LoggingMiddleware(logger, observer)(handler)

	return handler
}
