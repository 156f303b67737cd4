package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/prxgr4mmer/price-delta-service/internal/config"
)

const shutdownTimeout = 30 * time.Second

// Server serves the read-only API over the tracker state and the stored
// documents, plus the Prometheus exposition
type Server struct {
	server *http.Server
	logger *slog.Logger
}

// NewServer wires the handlers over deps. /metrics exposes the collectors of
// gatherer, and every request is reported to observer.
func NewServer(
	cfg config.ServerConfig,
	deps Dependencies,
	gatherer prometheus.Gatherer,
	observer RequestObserver,
	logger *slog.Logger,
) *Server {
	handler := NewHandler(deps, logger)
	metrics := promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
	router := NewRouter(handler, metrics, observer, logger)

	return &Server{
		server: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      router,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		},
		logger: logger.With("component", "http_server"),
	}
}

// Start listens until Shutdown is called. It blocks.
func (s *Server) Start() error {
	s.logger.Info("serving price api", "addr", s.server.Addr)

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server error: %w", err)
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones, at most
// shutdownTimeout
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down price api")

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	return s.server.Shutdown(shutdownCtx)
}

// Addr returns the listen address
func (s *Server) Addr() string {
	return s.server.Addr
}
