package health

import "context"

// DBPinger checks credential store availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// EnrichmentChecker reports whether the metadata provider is currently usable.
type EnrichmentChecker interface {
	HealthCheck(ctx context.Context) error
}
