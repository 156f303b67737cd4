package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/prxgr4mmer/price-delta-service/internal/adapters/coingecko"
	httpAdapter "github.com/prxgr4mmer/price-delta-service/internal/adapters/http"
	"github.com/prxgr4mmer/price-delta-service/internal/adapters/memory"
	"github.com/prxgr4mmer/price-delta-service/internal/adapters/postgres"
	"github.com/prxgr4mmer/price-delta-service/internal/adapters/providers"
	redisStore "github.com/prxgr4mmer/price-delta-service/internal/adapters/redis"
	"github.com/prxgr4mmer/price-delta-service/internal/config"
	"github.com/prxgr4mmer/price-delta-service/internal/domain"
	"github.com/prxgr4mmer/price-delta-service/internal/ports"
	"github.com/prxgr4mmer/price-delta-service/internal/services"
	"github.com/prxgr4mmer/price-delta-service/internal/worker"
	"github.com/prxgr4mmer/price-delta-service/pkg/clock"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := initLogger(cfg.Logging)
	slog.SetDefault(logger)

	logger.Info("starting price delta service")

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// Create root context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Build and start application
	app, err := buildApplication(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to build application", "error", err)
		os.Exit(1)
	}

	// Start application components
	if err := app.Start(ctx); err != nil {
		logger.Error("failed to start application", "error", err)
		os.Exit(1)
	}

	// Wait for shutdown signal
	waitForShutdown(ctx, cancel, app, logger)
}

func initLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}

// stores holds the three collections of the selected backend
type stores struct {
	deltas    ports.DeltaStore
	histories ports.HistoryStore
	assets    ports.AssetStore
	close     func()
}

func openStores(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*stores, error) {
	switch cfg.Store.Backend {
	case config.BackendPostgres:
		db, err := postgres.NewDB(ctx, cfg.Database, logger)
		if err != nil {
			return nil, err
		}

		if err := db.Migrate(); err != nil {
			db.Close()
			return nil, err
		}

		return &stores{
			deltas:    postgres.NewDocumentStore[domain.Snapshot](db, ports.CollectionDeltas),
			histories: postgres.NewDocumentStore[domain.PriceHistory](db, ports.CollectionHistory),
			assets:    postgres.NewDocumentStore[domain.AssetRecord](db, ports.CollectionAssets),
			close:     db.Close,
		}, nil

	case config.BackendRedis:
		client, err := redisStore.NewClient(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		logger.Info("connected to redis", "addr", cfg.Redis.Addr, "db", cfg.Redis.DB)

		return &stores{
			deltas:    redisStore.NewDocumentStore[domain.Snapshot](client, ports.CollectionDeltas),
			histories: redisStore.NewDocumentStore[domain.PriceHistory](client, ports.CollectionHistory),
			assets:    redisStore.NewDocumentStore[domain.AssetRecord](client, ports.CollectionAssets),
			close: func() {
				if err := client.Close(); err != nil {
					logger.Error("failed to close redis client", "error", err)
				}
			},
		}, nil

	case config.BackendMemory:
		logger.Warn("using in-memory document store, nothing survives a restart")

		return &stores{
			deltas:    memory.NewDocumentStore[domain.Snapshot](ports.CollectionDeltas),
			histories: memory.NewDocumentStore[domain.PriceHistory](ports.CollectionHistory),
			assets:    memory.NewDocumentStore[domain.AssetRecord](ports.CollectionAssets),
			close:     func() {},
		}, nil

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

// Application holds all components
type Application struct {
	stores     *stores
	httpServer *httpAdapter.Server
	poller     *worker.Poller
	logger     *slog.Logger
}

func buildApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Application, error) {
	logger.Info("building application", "store_backend", cfg.Store.Backend)

	// 1. Infrastructure Layer - Document store
	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	// 2. Infrastructure Layer - Provider directory, must load at startup
	loader := providers.NewLoader(
		cfg.Providers.File,
		cfg.Providers.Enabled,
		cfg.Providers.ReferenceCurrency,
		logger,
	)
	directory, err := loader.Load()
	if err != nil {
		st.close()
		return nil, fmt.Errorf("failed to load provider directory: %w", err)
	}

	// 3. Infrastructure Layer - Quote source client
	quoteClient := coingecko.NewClient(
		coingecko.WithTimeout(cfg.Exchange.Timeout),
		coingecko.WithRetry(cfg.Exchange.MaxRetries, cfg.Exchange.RetryBackoff),
		coingecko.WithRateLimit(cfg.Exchange.RateLimit),
		coingecko.WithLogger(logger),
	)

	// 4. Service Layer
	systemClock := clock.System{}

	deltaGateway := services.NewGateway(st.deltas, ports.CollectionDeltas, logger)
	historyGateway := services.NewGateway(st.histories, ports.CollectionHistory, logger)
	assetGateway := services.NewGateway(st.assets, ports.CollectionAssets, logger)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	metricsService := services.NewMetricsService(deltaGateway, registry, logger)

	historyService := services.NewHistoryService(
		historyGateway,
		systemClock,
		cfg.Poller.HistoryCapacity,
		logger,
	)

	registryService := services.NewRegistryService(
		assetGateway,
		systemClock,
		logger,
	)

	trackerService := services.NewTrackerService(
		quoteClient,
		loader,
		directory,
		registryService,
		historyService,
		deltaGateway,
		metricsService,
		systemClock,
		services.TrackerConfig{
			RefreshEvery:     cfg.Poller.RefreshEvery,
			FetchConcurrency: cfg.Poller.FetchConcurrency,
		},
		logger,
	)

	// 5. Transport Layer - HTTP Server
	httpServer := httpAdapter.NewServer(
		cfg.Server,
		httpAdapter.Dependencies{
			History:   historyService,
			Registry:  registryService,
			Metrics:   metricsService,
			Cache:     trackerService,
			Directory: trackerService,
			Quotes:    quoteClient,
			Store:     deltaGateway,
		},
		registry,
		metricsService,
		logger,
	)

	// 6. Background Workers
	poller := worker.NewPoller(
		trackerService,
		cfg.Poller.Interval,
		logger,
	)

	logger.Info("application built successfully",
		"providers", directory.Names(),
		"reference_currency", directory.ReferenceCurrency,
	)

	return &Application{
		stores:     st,
		httpServer: httpServer,
		poller:     poller,
		logger:     logger,
	}, nil
}

func (a *Application) Start(ctx context.Context) error {
	a.logger.Info("starting application components")

	// Start poller in background
	go func() {
		if err := a.poller.Start(ctx); err != nil {
			a.logger.Error("poller error", "error", err)
		}
	}()

	// Start HTTP server in background (will block until shutdown)
	go func() {
		if err := a.httpServer.Start(); err != nil {
			a.logger.Error("http server error", "error", err)
		}
	}()

	a.logger.Info("application started",
		"http_addr", a.httpServer.Addr(),
	)

	return nil
}

func (a *Application) Shutdown() {
	a.logger.Info("shutting down application")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Stop poller first so no cycle writes after the store closes
	if err := a.poller.Stop(); err != nil {
		a.logger.Error("failed to stop poller", "error", err)
	}

	if err := a.httpServer.Shutdown(ctx); err != nil {
		a.logger.Error("failed to shutdown http server", "error", err)
	}

	a.stores.close()

	a.logger.Info("application shutdown complete")
}

func waitForShutdown(ctx context.Context, cancel context.CancelFunc, app *Application, logger *slog.Logger) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal", "signal", sig)
		app.Shutdown()
		cancel()
	case <-ctx.Done():
		app.Shutdown()
	}
}
