package tmdb

import (
	"errors"
	"fmt"

	"github.com/kailas-cloud/movierec/internal/domain"
)

// Failure kinds. All of them wrap domain.ErrEnrichmentUnavailable.
var (
	// ErrTransient covers network failures, timeouts, 429 and 5xx responses.
	ErrTransient = fmt.Errorf("transient lookup failure: %w", domain.ErrEnrichmentUnavailable)
	// ErrMalformed covers undecodable payloads and payloads missing required fields.
	ErrMalformed = fmt.Errorf("malformed lookup payload: %w", domain.ErrEnrichmentUnavailable)
	// ErrNotFound covers 404 and other non-retryable client errors.
	ErrNotFound = fmt.Errorf("item unknown to provider: %w", domain.ErrEnrichmentUnavailable)
	// ErrCircuitOpen is returned without calling the provider while the breaker is open.
	ErrCircuitOpen = fmt.Errorf("provider circuit open: %w", domain.ErrEnrichmentUnavailable)
	// ErrCanceled means the caller's context ended. It says nothing about the provider.
	ErrCanceled = fmt.Errorf("lookup canceled: %w", domain.ErrEnrichmentUnavailable)
)

// Kind classifies a lookup error for logs and metrics.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrCanceled):
		return "canceled"
	case errors.Is(err, ErrCircuitOpen):
		return "circuit_open"
	case errors.Is(err, ErrMalformed):
		return "malformed"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrTransient):
		return "transient"
	default:
		return "unknown"
	}
}
