package domain

import (
	"strings"
	"unicode"
)

// AssetRecord is the registry entry created the first time an asset id is seen
type AssetRecord struct {
	ID        string `json:"id"`
	Symbol    string `json:"symbol"`
	CreatedAt int64  `json:"created_at"`
}

// NewAssetRecord creates a registry entry for an asset
func NewAssetRecord(id, symbol string, createdAt int64) (*AssetRecord, error) {
	id = NormalizeAssetID(id)
	if err := ValidateAssetID(id); err != nil {
		return nil, err
	}

	return &AssetRecord{
		ID:        id,
		Symbol:    strings.ToLower(strings.TrimSpace(symbol)),
		CreatedAt: createdAt,
	}, nil
}

// NormalizeAssetID trims and lowercases an asset id
func NormalizeAssetID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// ValidateAssetID validates an asset id.
// Ids are lowercase slugs of letters, digits and dashes, 1-64 characters.
func ValidateAssetID(id string) error {
	if id == "" || len(id) > 64 {
		return ErrInvalidAssetID
	}

	for _, r := range id {
		if !unicode.IsLower(r) && !unicode.IsDigit(r) && r != '-' {
			return ErrInvalidAssetID
		}
	}

	return nil
}
