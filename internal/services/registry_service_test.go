package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prxgr4mmer/price-delta-service/internal/adapters/memory"
	"github.com/prxgr4mmer/price-delta-service/internal/domain"
	"github.com/prxgr4mmer/price-delta-service/internal/ports"
	"github.com/prxgr4mmer/price-delta-service/internal/services"
	"github.com/prxgr4mmer/price-delta-service/pkg/clock"
)

func TestRegistryService_Seed(t *testing.T) {
	ctx := context.Background()
	store := memory.NewDocumentStore[domain.AssetRecord](ports.CollectionAssets)
	gw := services.NewGateway[domain.AssetRecord](store, ports.CollectionAssets, discardLogger())
	svc := services.NewRegistryService(gw, clock.NewManual(t0), discardLogger())

	created := svc.Seed(ctx, map[string]string{
		"bitcoin":  "BTC",
		"ethereum": "eth",
		"Bad Id":   "bad",
	})
	assert.Equal(t, []string{"bitcoin", "ethereum"}, created)
	assert.Equal(t, 2, store.Len())

	record, err := svc.GetAsset(ctx, "bitcoin")
	require.NoError(t, err)
	assert.Equal(t, "btc", record.Symbol)
	assert.Equal(t, t0.UnixMilli(), record.CreatedAt)

	// seeding again only registers ids not seen before
	created = svc.Seed(ctx, map[string]string{"bitcoin": "btc", "solana": "sol"})
	assert.Equal(t, []string{"solana"}, created)
	assert.Equal(t, 3, store.Len())
}

func TestRegistryService_GetAsset(t *testing.T) {
	ctx := context.Background()
	gw := services.NewGateway[domain.AssetRecord](
		memory.NewDocumentStore[domain.AssetRecord](ports.CollectionAssets), ports.CollectionAssets, discardLogger())
	svc := services.NewRegistryService(gw, clock.NewManual(t0), discardLogger())

	_, err := svc.GetAsset(ctx, "bitcoin")
	assert.ErrorIs(t, err, domain.ErrAssetNotFound)

	_, err = svc.GetAsset(ctx, "")
	assert.ErrorIs(t, err, domain.ErrInvalidAssetID)
}
