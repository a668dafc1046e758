package domain

import (
	"context"

	"github.com/kailas-cloud/movierec/internal/domain/enrichment"
)

// EnrichmentLookup is the external metadata capability shared between layers.
// Any error means "no enrichment for this item"; callers never treat it as fatal.
type EnrichmentLookup interface {
	Lookup(ctx context.Context, externalID string) (enrichment.Record, error)
}

// HealthChecker verifies availability of an external dependency.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}
