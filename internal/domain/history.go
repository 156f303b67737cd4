package domain

// DefaultHistoryCapacity is the number of price maps kept per asset
// when no capacity is configured
const DefaultHistoryCapacity = 2

// PriceHistory is the bounded window of the most recent prices of one asset,
// oldest first
type PriceHistory struct {
	ID        string               `json:"id"`
	Symbol    string               `json:"symbol"`
	Prices    []map[string]float64 `json:"prices"`
	UpdatedAt int64                `json:"updated_at"`
}

// NewPriceHistory creates an empty history for an asset
func NewPriceHistory(id, symbol string) *PriceHistory {
	return &PriceHistory{
		ID:     id,
		Symbol: symbol,
		Prices: []map[string]float64{},
	}
}

// Append records the prices of asset as the newest entry, evicting the
// oldest entries so that the window never holds more than capacity items.
// UpdatedAt is set to now even when capacity is zero.
//
// A capacity of zero or less clears the window: entries kept under an earlier,
// larger capacity are dropped rather than left in place, so a zero capacity
// always leaves Prices empty.
func (h *PriceHistory) Append(asset Asset, now int64, capacity int) {
	h.UpdatedAt = now

	if capacity <= 0 {
		h.Prices = h.Prices[:0]
		return
	}

	// capacity may shrink between calls, so evict until there is room
	for len(h.Prices) >= capacity {
		h.Prices = h.Prices[1:]
	}

	h.Prices = append(h.Prices, asset.Clone().Prices)
}

// Latest returns the newest price map, if any
func (h *PriceHistory) Latest() (map[string]float64, bool) {
	if len(h.Prices) == 0 {
		return nil, false
	}
	return h.Prices[len(h.Prices)-1], true
}
