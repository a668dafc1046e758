package recommendation

import (
	"fmt"
	"time"

	"github.com/kailas-cloud/movierec/internal/domain/enrichment"
)

// Defaults used when a caller does not specify limits.
const (
	DefaultMaxResults      = 8
	DefaultCandidateWindow = 50
)

// Status distinguishes why a recommendation set is (or is not) empty.
type Status string

const (
	// StatusOK means at least one recommendation was accepted.
	StatusOK Status = "ok"
	// StatusNoMatches means the item exists but no candidate passed the filter.
	StatusNoMatches Status = "no_matches"
	// StatusItemNotFound means the requested title is not in the catalog.
	StatusItemNotFound Status = "item_not_found"
)

// YearRange is an inclusive release-year filter.
// Year 0 (unknown) matches only when the range covers 0 or IncludeUnknown is set.
type YearRange struct {
	Start          int
	End            int
	IncludeUnknown bool
}

// NewYearRange validates and creates a YearRange.
func NewYearRange(start, end int, includeUnknown bool) (YearRange, error) {
	if start > end {
		return YearRange{}, fmt.Errorf("start year %d is after end year %d", start, end)
	}
	return YearRange{Start: start, End: end, IncludeUnknown: includeUnknown}, nil
}

// Contains reports whether year falls inside the range.
func (r YearRange) Contains(year int) bool {
	if year == enrichment.UnknownYear && r.IncludeUnknown {
		return true
	}
	return r.Start <= year && year <= r.End
}

// Result is a single accepted recommendation.
type Result struct {
	Index      int
	Title      string
	Score      float64
	Enrichment enrichment.Record
	Enriched   bool
}

// Set is the outcome of a recommendation call.
type Set struct {
	Results []Result
	Status  Status
	Scanned int
	Took    time.Duration
}

// Len returns the number of accepted results.
func (s Set) Len() int { return len(s.Results) }

// Finalize derives Status from the accepted results unless the item was not found.
func (s *Set) Finalize() {
	if s.Status == StatusItemNotFound {
		return
	}
	if len(s.Results) == 0 {
		s.Status = StatusNoMatches
		return
	}
	s.Status = StatusOK
}
