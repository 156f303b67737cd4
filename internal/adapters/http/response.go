package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/prxgr4mmer/price-delta-service/internal/domain"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// respondJSON sends a JSON response with the given status code
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// respondErrorWithCode sends an error response with an error code
func respondErrorWithCode(w http.ResponseWriter, status int, message, code string) {
	respondJSON(w, status, ErrorResponse{Error: message, Code: code})
}

// handleDomainError maps domain errors to HTTP responses
func handleDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidAssetID):
		respondErrorWithCode(w, http.StatusBadRequest, "invalid asset id", "INVALID_ASSET_ID")

	case errors.Is(err, domain.ErrAssetNotFound):
		respondErrorWithCode(w, http.StatusNotFound, "asset not found", "ASSET_NOT_FOUND")

	case errors.Is(err, domain.ErrHistoryNotFound):
		respondErrorWithCode(w, http.StatusNotFound, "price history not found", "HISTORY_NOT_FOUND")

	case errors.Is(err, domain.ErrQuoteSourceUnavailable):
		respondErrorWithCode(w, http.StatusServiceUnavailable, "quote source unavailable", "QUOTE_SOURCE_UNAVAILABLE")

	case errors.Is(err, domain.ErrRateLimited):
		respondErrorWithCode(w, http.StatusTooManyRequests, "rate limited by quote source", "RATE_LIMITED")

	case errors.Is(err, domain.ErrInvalidResponse):
		respondErrorWithCode(w, http.StatusBadGateway, "invalid response from quote source", "INVALID_QUOTE_RESPONSE")

	case errors.Is(err, domain.ErrStoreUnavailable):
		respondErrorWithCode(w, http.StatusServiceUnavailable, "document store unavailable", "STORE_ERROR")

	default:
		respondErrorWithCode(w, http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}
}
