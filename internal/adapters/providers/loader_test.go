package providers_test

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prxgr4mmer/price-delta-service/internal/adapters/providers"
	"github.com/prxgr4mmer/price-delta-service/internal/domain"
)

const validFile = `
reference_currency = "EUR"

[providers.coingecko]
base_route = "https://api.coingecko.com/api/v3"
currencies = ["USD", "eur"]

[providers.coingecko.coins]
bitcoin = "BTC"
ethereum = "eth"

[providers.coingecko.routes]
ping = "/ping"
simple_price = "/simple/price"

[providers.mirror]
name = "mirror"
base_route = "http://localhost:9000"
currencies = ["usd"]

[providers.mirror.coins]
solana = "sol"

[providers.mirror.routes]
simple_price = "/simple/price"
`

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "providers.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLoader_Load(t *testing.T) {
	t.Run("parses enabled providers", func(t *testing.T) {
		loader := providers.NewLoader(writeFile(t, validFile), []string{"coingecko"}, "usd", newTestLogger())

		dir, err := loader.Load()
		require.NoError(t, err)

		assert.Equal(t, "eur", dir.ReferenceCurrency)
		require.Len(t, dir.Providers, 1)

		p := dir.Providers["coingecko"]
		assert.Equal(t, "coingecko", p.Name)
		assert.Equal(t, map[string]string{"bitcoin": "btc", "ethereum": "eth"}, p.Coins)
		assert.Equal(t, []string{"usd", "eur"}, p.Currencies)

		uri, err := p.URI(domain.RoutePing)
		require.NoError(t, err)
		assert.Equal(t, "https://api.coingecko.com/api/v3/ping", uri)
	})

	t.Run("loads several providers", func(t *testing.T) {
		loader := providers.NewLoader(writeFile(t, validFile), []string{"coingecko", "mirror"}, "usd", newTestLogger())

		dir, err := loader.Load()
		require.NoError(t, err)
		assert.Equal(t, []string{"coingecko", "mirror"}, dir.Names())
		assert.Len(t, dir.Assets(), 3)
	})

	t.Run("falls back to default reference currency", func(t *testing.T) {
		content := `
[providers.coingecko]
base_route = "https://example.test"
currencies = ["usd"]
[providers.coingecko.coins]
bitcoin = "btc"
[providers.coingecko.routes]
simple_price = "/simple/price"
`
		loader := providers.NewLoader(writeFile(t, content), []string{"coingecko"}, "usd", newTestLogger())

		dir, err := loader.Load()
		require.NoError(t, err)
		assert.Equal(t, "usd", dir.ReferenceCurrency)
	})

	t.Run("unknown file", func(t *testing.T) {
		loader := providers.NewLoader("pouet.toml", []string{"coingecko"}, "usd", newTestLogger())

		_, err := loader.Load()
		assert.Error(t, err)
	})

	t.Run("enabled provider missing from file", func(t *testing.T) {
		loader := providers.NewLoader(writeFile(t, validFile), []string{"kraken"}, "usd", newTestLogger())

		_, err := loader.Load()
		assert.ErrorIs(t, err, domain.ErrProviderNotFound)
	})

	t.Run("provider without price route", func(t *testing.T) {
		content := `
[providers.coingecko]
base_route = "https://example.test"
currencies = ["usd"]
[providers.coingecko.coins]
bitcoin = "btc"
[providers.coingecko.routes]
ping = "/ping"
`
		loader := providers.NewLoader(writeFile(t, content), []string{"coingecko"}, "usd", newTestLogger())

		_, err := loader.Load()
		assert.ErrorIs(t, err, domain.ErrInvalidProvider)
		assert.True(t, domain.IsDomainError(err))
	})

	t.Run("provider without currencies", func(t *testing.T) {
		content := `
[providers.coingecko]
base_route = "https://example.test"
currencies = []
[providers.coingecko.coins]
bitcoin = "btc"
[providers.coingecko.routes]
simple_price = "/simple/price"
`
		loader := providers.NewLoader(writeFile(t, content), []string{"coingecko"}, "usd", newTestLogger())

		_, err := loader.Load()
		assert.ErrorIs(t, err, domain.ErrInvalidProvider)
	})
}

func TestLoader_ShippedConfig(t *testing.T) {
	loader := providers.NewLoader("../../../configs/providers.toml", []string{"coingecko"}, "usd", newTestLogger())

	dir, err := loader.Load()
	require.NoError(t, err)
	assert.Equal(t, "usd", dir.ReferenceCurrency)
	assert.Contains(t, dir.Providers["coingecko"].Coins, "bitcoin")
}
