package domain

import "errors"

var (
	// Asset errors
	ErrInvalidAssetID = errors.New("invalid asset id")
	ErrAssetNotFound  = errors.New("asset not found")

	// History errors
	ErrHistoryNotFound = errors.New("price history not found")

	// Provider errors
	ErrProviderNotFound = errors.New("provider not found")
	ErrInvalidProvider  = errors.New("invalid provider definition")
	ErrRouteNotFound    = errors.New("route not found")

	// Quote source errors
	ErrQuoteSourceUnavailable = errors.New("quote service unavailable")
	ErrRateLimited            = errors.New("rate limited by quote service")
	ErrInvalidResponse        = errors.New("invalid response from quote service")
	ErrNoCoinData             = errors.New("could not retrieve any coin data")

	// Store errors
	ErrDocumentNotFound = errors.New("document not found")
	ErrStoreUnavailable = errors.New("document store unavailable")
)

// DomainError wraps domain errors with additional context
type DomainError struct {
	Err     error
	Message string
	Code    string
}

func (e *DomainError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Err.Error()
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new domain error with context
func NewDomainError(err error, message, code string) *DomainError {
	return &DomainError{
		Err:     err,
		Message: message,
		Code:    code,
	}
}

// IsDomainError checks if the error is a domain error
func IsDomainError(err error) bool {
	var domainErr *DomainError
	return errors.As(err, &domainErr)
}
