package services

import (
	"context"
	"log/slog"
	"sort"

	"github.com/prxgr4mmer/price-delta-service/internal/domain"
	"github.com/prxgr4mmer/price-delta-service/internal/ports"
)

// RegistryService implements the ports.RegistryService interface
type RegistryService struct {
	assets *Gateway[domain.AssetRecord]
	clock  ports.Clock
	logger *slog.Logger
}

// NewRegistryService creates a new registry service
func NewRegistryService(
	assets *Gateway[domain.AssetRecord],
	clock ports.Clock,
	logger *slog.Logger,
) *RegistryService {
	return &RegistryService{
		assets: assets,
		clock:  clock,
		logger: logger.With("component", "registry_service"),
	}
}

// Seed registers every asset id that is not in the registry yet
func (s *RegistryService) Seed(ctx context.Context, assets map[string]string) (created []string) {
	ids := make([]string, 0, len(assets))
	for id := range assets {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		if _, ok := s.assets.FindOne(ctx, id); ok {
			continue
		}

		record, err := domain.NewAssetRecord(id, assets[id], s.clock.Now().UnixMilli())
		if err != nil {
			s.logger.Warn("refusing to register asset", "id", id, "error", err)
			continue
		}

		if s.assets.Save(ctx, record.ID, *record) {
			created = append(created, record.ID)
		}
	}

	if len(created) > 0 {
		s.logger.Info("registered new assets", "ids", created)
	}

	return created
}

// GetAsset returns the registry entry of an asset
func (s *RegistryService) GetAsset(ctx context.Context, id string) (*domain.AssetRecord, error) {
	id = domain.NormalizeAssetID(id)
	if err := domain.ValidateAssetID(id); err != nil {
		return nil, err
	}

	record, ok := s.assets.FindOne(ctx, id)
	if !ok {
		return nil, domain.ErrAssetNotFound
	}
	return &record, nil
}

// Ensure RegistryService implements ports.RegistryService
var _ ports.RegistryService = (*RegistryService)(nil)
