package services

import (
	"context"
	"log/slog"
	"sort"

	"github.com/prxgr4mmer/price-delta-service/internal/domain"
	"github.com/prxgr4mmer/price-delta-service/internal/ports"
)

// HistoryService implements the ports.HistoryService interface
type HistoryService struct {
	histories *Gateway[domain.PriceHistory]
	clock     ports.Clock
	capacity  int
	logger    *slog.Logger
}

// NewHistoryService creates a new history service keeping capacity entries per asset
func NewHistoryService(
	histories *Gateway[domain.PriceHistory],
	clock ports.Clock,
	capacity int,
	logger *slog.Logger,
) *HistoryService {
	return &HistoryService{
		histories: histories,
		clock:     clock,
		capacity:  capacity,
		logger:    logger.With("component", "history_service"),
	}
}

// Record appends each asset of the delta to its stored history.
// An asset with no stored history is skipped; no history is created for it.
func (s *HistoryService) Record(ctx context.Context, delta domain.Snapshot) (updated, skipped []string) {
	ids := make([]string, 0, len(delta.Coins))
	for id := range delta.Coins {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		history, ok := s.histories.FindOne(ctx, id)
		if !ok {
			skipped = append(skipped, id)
			continue
		}

		history.Append(delta.Coins[id], s.clock.Now().UnixMilli(), s.capacity)

		if s.histories.Save(ctx, id, history) {
			updated = append(updated, id)
		}
	}

	if len(skipped) > 0 {
		s.logger.Debug("skipped assets without history", "ids", skipped)
	}

	return updated, skipped
}

// GetHistory returns the stored history of an asset
func (s *HistoryService) GetHistory(ctx context.Context, id string) (*domain.PriceHistory, error) {
	id = domain.NormalizeAssetID(id)
	if err := domain.ValidateAssetID(id); err != nil {
		return nil, err
	}

	history, ok := s.histories.FindOne(ctx, id)
	if !ok {
		return nil, domain.ErrHistoryNotFound
	}
	return &history, nil
}

// Ensure HistoryService implements ports.HistoryService
var _ ports.HistoryService = (*HistoryService)(nil)
