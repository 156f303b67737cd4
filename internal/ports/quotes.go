package ports

import (
	"context"

	"github.com/prxgr4mmer/price-delta-service/internal/domain"
)

// QuoteSource defines the contract for fetching prices from a quote service
type QuoteSource interface {
	// FetchPrices fetches the current prices of every asset configured on the provider
	FetchPrices(ctx context.Context, provider domain.Provider) (map[string]domain.Asset, error)

	// Ping checks if the provider is reachable
	Ping(ctx context.Context, provider domain.Provider) error
}

// DirectorySource loads the provider directory from external configuration
type DirectorySource interface {
	Load() (*domain.ProviderDirectory, error)
}
