package domain

// ComputeDelta returns the assets of incoming that are new or whose price in
// the reference currency differs from cached.
//
// An asset known to both snapshots is only compared on the reference
// currency: if either side lacks it the asset is left out, even when other
// currencies moved. Prices are compared with ==, without tolerance. Included
// assets always carry the full incoming record.
func ComputeDelta(cached, incoming Snapshot, reference string) Snapshot {
	delta := NewSnapshot(incoming.CreatedAt)

	for id, asset := range incoming.Coins {
		previous, known := cached.Coins[id]
		if !known {
			delta.Coins[id] = asset.Clone()
			continue
		}

		oldPrice, ok := previous.Price(reference)
		if !ok {
			continue
		}
		newPrice, ok := asset.Price(reference)
		if !ok {
			continue
		}

		if oldPrice == newPrice {
			continue
		}
		delta.Coins[id] = asset.Clone()
	}

	return delta
}
