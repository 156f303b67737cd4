package domain

// Asset is one tracked coin with its prices keyed by currency code
type Asset struct {
	ID     string             `json:"id"`
	Symbol string             `json:"symbol"`
	Prices map[string]float64 `json:"prices"`
}

// Price returns the asset price in the given currency
func (a Asset) Price(currency string) (float64, bool) {
	p, ok := a.Prices[currency]
	return p, ok
}

// Clone returns a copy that shares no map with the receiver
func (a Asset) Clone() Asset {
	prices := make(map[string]float64, len(a.Prices))
	for cur, p := range a.Prices {
		prices[cur] = p
	}
	return Asset{ID: a.ID, Symbol: a.Symbol, Prices: prices}
}

// Snapshot is one fetched batch of asset prices.
// CreatedAt is expressed in milliseconds since epoch.
type Snapshot struct {
	CreatedAt int64            `json:"created_at"`
	Coins     map[string]Asset `json:"coins"`
}

// NewSnapshot creates an empty snapshot captured at the given time
func NewSnapshot(createdAt int64) Snapshot {
	return Snapshot{
		CreatedAt: createdAt,
		Coins:     make(map[string]Asset),
	}
}

// IsEmpty reports whether the snapshot carries no asset
func (s Snapshot) IsEmpty() bool {
	return len(s.Coins) == 0
}

// Len returns the number of assets in the snapshot
func (s Snapshot) Len() int {
	return len(s.Coins)
}

// Clone returns a deep copy of the snapshot
func (s Snapshot) Clone() Snapshot {
	out := NewSnapshot(s.CreatedAt)
	for id, asset := range s.Coins {
		out.Coins[id] = asset.Clone()
	}
	return out
}
