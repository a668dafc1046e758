package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
	// Unhealthy indicates total failure.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Component names used as Report.Checks keys.
const (
	ComponentDatabase   = "database"
	ComponentEnrichment = "enrichment"
)

// Service coordinates health checks.
type Service struct {
	db         DBPinger
	enrichment EnrichmentChecker
}

// New creates a Service. enrichment can be nil when no provider is configured.
func New(db DBPinger, enrichment EnrichmentChecker) *Service {
	return &Service{db: db, enrichment: enrichment}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	checks[ComponentDatabase] = result(s.db.Ping(ctx))
	if s.enrichment != nil {
		checks[ComponentEnrichment] = result(s.enrichment.HealthCheck(ctx))
	}

	// Without enrichment only filtered recommendations suffer.
	status := Healthy
	switch {
	case checks[ComponentDatabase] == CheckError:
		status = Unhealthy
	case checks[ComponentEnrichment] == CheckError:
		status = Degraded
	}

	return Report{Status: status, Checks: checks}
}

func result(err error) CheckResult {
	if err != nil {
		return CheckError
	}
	return CheckOK
}
