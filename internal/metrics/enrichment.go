package metrics

import "github.com/prometheus/client_golang/prometheus"

// Enrichment and recommendation Prometheus metrics.
var (
	EnrichmentRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "movierec",
			Name:      "enrichment_requests_total",
			Help:      "Total number of external metadata lookups",
		},
		[]string{"provider", "status"},
	)

	EnrichmentRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "movierec",
			Name:      "enrichment_request_duration_seconds",
			Help:      "External metadata lookup duration in seconds",
			Buckets:   []float64{0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"provider"},
	)

	EnrichmentErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "movierec",
			Name:      "enrichment_errors_total",
			Help:      "Total external metadata lookup failures by kind",
		},
		[]string{"provider", "kind"},
	)

	EnrichmentCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "movierec",
			Name:      "enrichment_cache_total",
			Help:      "Enrichment cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)

	RecommendDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "movierec",
			Name:      "recommend_duration_seconds",
			Help:      "Recommendation call duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"mode", "status"},
	)

	RecommendScannedCandidates = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "movierec",
			Name:      "recommend_scanned_candidates",
			Help:      "Ranked candidates inspected per recommendation call",
			Buckets:   []float64{1, 2, 4, 8, 16, 32, 50, 100, 200},
		},
	)
)

var enrichMetricsRegistered bool

// RegisterEnrichmentMetrics registers enrichment and recommendation metrics. Must be called once from main.
func RegisterEnrichmentMetrics() {
	if enrichMetricsRegistered {
		return
	}
	prometheus.MustRegister(EnrichmentRequestsTotal)
	prometheus.MustRegister(EnrichmentRequestDuration)
	prometheus.MustRegister(EnrichmentErrorsTotal)
	prometheus.MustRegister(EnrichmentCacheTotal)
	prometheus.MustRegister(RecommendDuration)
	prometheus.MustRegister(RecommendScannedCandidates)
	enrichMetricsRegistered = true
}

var cacheEntriesRegistered bool

// RegisterEnrichmentCacheEntries exposes the current enrichment cache size, read through entries.
func RegisterEnrichmentCacheEntries(entries func() int) {
	if cacheEntriesRegistered {
		return
	}
	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: "movierec",
			Name:      "enrichment_cache_entries",
			Help:      "Records currently held in the enrichment cache",
		},
		func() float64 { return float64(entries()) },
	))
	cacheEntriesRegistered = true
}
