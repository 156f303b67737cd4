package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Store backends
const (
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendMemory   = "memory"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Store     StoreConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Providers ProvidersConfig
	Exchange  ExchangeConfig
	Poller    PollerConfig
	Logging   LoggingConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// StoreConfig selects the document store backend
type StoreConfig struct {
	Backend string
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	MigrationsPath  string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// ProvidersConfig points at the provider directory file
type ProvidersConfig struct {
	File              string
	Enabled           []string
	ReferenceCurrency string
}

// ExchangeConfig holds quote service client configuration
type ExchangeConfig struct {
	Timeout      time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
	RateLimit    float64
}

// PollerConfig holds price polling configuration
type PollerConfig struct {
	Interval         time.Duration
	RefreshEvery     int
	HistoryCapacity  int
	FetchConcurrency int
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// Load reads configuration from environment variables with defaults
func Load() (*Config, error) {
	return &Config{
		Server: ServerConfig{
			Port:         getEnvInt("SERVER_PORT", 8080),
			ReadTimeout:  getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getEnvDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:  getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
		},
		Store: StoreConfig{
			Backend: strings.ToLower(getEnvString("STORE_BACKEND", BackendPostgres)),
		},
		Database: DatabaseConfig{
			URL:             getEnvString("DATABASE_URL", ""),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 2),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			ConnMaxIdleTime: getEnvDuration("DB_CONN_MAX_IDLE_TIME", 5*time.Minute),
			MigrationsPath:  getEnvString("MIGRATIONS_PATH", "file://migrations"),
		},
		Redis: RedisConfig{
			Addr:     getEnvString("REDIS_ADDR", ""),
			Password: getEnvString("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Providers: ProvidersConfig{
			File:              getEnvString("PROVIDERS_FILE", ""),
			Enabled:           getEnvList("PROVIDERS", []string{"coingecko"}),
			ReferenceCurrency: strings.ToLower(getEnvString("REFERENCE_CURRENCY", "usd")),
		},
		Exchange: ExchangeConfig{
			Timeout:      getEnvDuration("EXCHANGE_TIMEOUT", 10*time.Second),
			MaxRetries:   getEnvInt("EXCHANGE_MAX_RETRIES", 3),
			RetryBackoff: getEnvDuration("EXCHANGE_RETRY_BACKOFF", 250*time.Millisecond),
			RateLimit:    getEnvFloat("EXCHANGE_RATE_LIMIT", 0.5),
		},
		Poller: PollerConfig{
			Interval:         getEnvDuration("POLLER_INTERVAL", 60*time.Second),
			RefreshEvery:     getEnvInt("REFRESH_EVERY", 4),
			HistoryCapacity:  getEnvInt("HISTORY_CAPACITY", 2),
			FetchConcurrency: getEnvInt("FETCH_CONCURRENCY", 4),
		},
		Logging: LoggingConfig{
			Level:  getEnvString("LOG_LEVEL", "info"),
			Format: getEnvString("LOG_FORMAT", "json"),
		},
	}, nil
}

// Validate ensures configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	switch c.Store.Backend {
	case BackendPostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres store")
		}
	case BackendRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("REDIS_ADDR is required for the redis store")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("invalid store backend: %s", c.Store.Backend)
	}

	if c.Providers.File == "" {
		return fmt.Errorf("PROVIDERS_FILE is required")
	}
	if _, err := os.Stat(c.Providers.File); err != nil {
		return fmt.Errorf("providers file not readable: %w", err)
	}

	if len(c.Providers.Enabled) == 0 {
		return fmt.Errorf("at least one provider must be enabled")
	}

	if c.Providers.ReferenceCurrency == "" {
		return fmt.Errorf("reference currency is required")
	}

	if c.Poller.Interval < time.Second {
		return fmt.Errorf("poller interval must be at least 1 second")
	}

	if c.Poller.Interval > 24*time.Hour {
		return fmt.Errorf("poller interval must be less than 24 hours")
	}

	if c.Poller.RefreshEvery < 1 {
		return fmt.Errorf("refresh cadence must be at least 1 cycle")
	}

	if c.Poller.HistoryCapacity < 0 {
		return fmt.Errorf("history capacity cannot be negative")
	}

	if c.Poller.FetchConcurrency < 1 {
		return fmt.Errorf("fetch concurrency must be at least 1")
	}

	if c.Exchange.RateLimit < 0 {
		return fmt.Errorf("exchange rate limit cannot be negative")
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	validLogFormats := map[string]bool{
		"json": true, "text": true,
	}
	if !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}

	return nil
}

// Helper functions
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvList splits a comma separated value, dropping empty items
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
