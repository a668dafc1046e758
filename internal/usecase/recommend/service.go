package recommend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/movierec/internal/domain"
	"github.com/kailas-cloud/movierec/internal/domain/catalog"
	"github.com/kailas-cloud/movierec/internal/domain/enrichment"
	"github.com/kailas-cloud/movierec/internal/domain/recommendation"
	"github.com/kailas-cloud/movierec/internal/domain/similarity"
	"github.com/kailas-cloud/movierec/internal/logger"
	"github.com/kailas-cloud/movierec/internal/metrics"
)

const (
	modeFiltered   = "filtered"
	modeUnfiltered = "unfiltered"
)

// Options bounds the search. Zero values fall back to the recommendation defaults.
type Options struct {
	MaxResults      int
	CandidateWindow int
	// MaxWindow caps caller-supplied windows and result counts; 0 means no cap.
	MaxWindow int
	// Prefetch is how many ranked candidates are enriched concurrently; <= 1 is sequential.
	Prefetch int
}

// Service produces recommendations from the similarity index.
type Service struct {
	index    Index
	enricher Enricher
	opts     Options
}

// New creates a recommendation service.
func New(index Index, enricher Enricher, opts Options) *Service {
	if opts.MaxResults <= 0 {
		opts.MaxResults = recommendation.DefaultMaxResults
	}
	if opts.CandidateWindow <= 0 {
		opts.CandidateWindow = recommendation.DefaultCandidateWindow
	}
	if opts.Prefetch < 1 {
		opts.Prefetch = 1
	}
	return &Service{index: index, enricher: enricher, opts: opts}
}

// Detail is a single catalog item with whatever metadata could be fetched.
type Detail struct {
	Item       catalog.Item
	Enrichment enrichment.Record
	Enriched   bool
}

// candidate is a ranked neighbour together with its enrichment.
type candidate struct {
	neighbor similarity.Neighbor
	item     catalog.Item
	record   enrichment.Record
	ok       bool
}

func (c candidate) result() recommendation.Result {
	return recommendation.Result{
		Index:      c.neighbor.Index,
		Title:      c.item.Title(),
		Score:      c.neighbor.Score,
		Enrichment: c.record,
		Enriched:   c.ok,
	}
}

// Recommend returns up to maxResults neighbours of title whose release year falls in years.
// At most window ranked candidates are inspected; the window is never widened.
// An unknown title yields an empty set with StatusItemNotFound and no error.
func (s *Service) Recommend(
	ctx context.Context, title string, years recommendation.YearRange, maxResults, window int,
) (recommendation.Set, error) {
	start := time.Now()
	maxResults, window = s.limits(maxResults, window)

	set, err := s.run(ctx, title, window, func(c candidate, set *recommendation.Set) bool {
		if c.ok && years.Contains(c.record.Year) {
			set.Results = append(set.Results, c.result())
		}
		return len(set.Results) < maxResults
	})
	s.observe(ctx, modeFiltered, title, &set, start, err)
	return set, err
}

// RecommendUnfiltered returns the first maxResults neighbours of title.
// Enrichment is fetched for display only; a missing record still yields a result.
func (s *Service) RecommendUnfiltered(
	ctx context.Context, title string, maxResults int,
) (recommendation.Set, error) {
	start := time.Now()
	maxResults, _ = s.limits(maxResults, 0)

	set, err := s.run(ctx, title, maxResults, func(c candidate, set *recommendation.Set) bool {
		set.Results = append(set.Results, c.result())
		return len(set.Results) < maxResults
	})
	s.observe(ctx, modeUnfiltered, title, &set, start, err)
	return set, err
}

// Details returns the item stored under title with its metadata.
func (s *Service) Details(ctx context.Context, title string) (Detail, error) {
	i, err := s.index.IndexOf(title)
	if err != nil {
		return Detail{}, fmt.Errorf("resolve %q: %w", title, err)
	}
	item, err := s.index.Item(i)
	if err != nil {
		return Detail{}, fmt.Errorf("item %d: %w", i, err)
	}
	rec, ok := s.enricher.Get(ctx, item.ExternalID())
	return Detail{Item: item, Enrichment: rec, Enriched: ok}, nil
}

// Titles returns catalog titles starting with prefix, in catalog order.
func (s *Service) Titles(_ context.Context, prefix string, limit int) []string {
	return s.index.Search(prefix, limit)
}

// limits applies defaults. Both maxResults and the window are capped at MaxWindow,
// which bounds the enrichment lookups one call can trigger. A window smaller than
// maxResults is kept as is: the scan stops there and the set may be partial.
func (s *Service) limits(maxResults, window int) (int, int) {
	if maxResults <= 0 {
		maxResults = s.opts.MaxResults
	}
	if window <= 0 {
		window = s.opts.CandidateWindow
	}
	if s.opts.MaxWindow > 0 {
		maxResults = min(maxResults, s.opts.MaxWindow)
		window = min(window, s.opts.MaxWindow)
	}
	return maxResults, window
}

func (s *Service) run(
	ctx context.Context, title string, window int,
	visit func(candidate, *recommendation.Set) bool,
) (recommendation.Set, error) {
	i, err := s.index.IndexOf(title)
	if errors.Is(err, domain.ErrNotFound) {
		return recommendation.Set{Status: recommendation.StatusItemNotFound}, nil
	}
	if err != nil {
		return recommendation.Set{}, fmt.Errorf("resolve %q: %w", title, err)
	}

	var set recommendation.Set
	scanned, err := s.walk(ctx, i, window, func(c candidate) bool {
		return visit(c, &set)
	})
	set.Scanned = scanned
	if err != nil {
		return set, err
	}
	set.Finalize()
	return set, nil
}

// walk hands up to window ranked neighbours of i to visit, in rank order, until visit returns false.
// Enrichment for the next Prefetch candidates is fetched concurrently; fetched candidates
// past the stopping point are discarded and not counted as scanned.
func (s *Service) walk(ctx context.Context, i, window int, visit func(candidate) bool) (int, error) {
	batch := make([]candidate, 0, s.opts.Prefetch)
	scanned, seen := 0, 0

	flush := func() (bool, error) {
		if err := s.enrich(ctx, batch); err != nil {
			return false, err
		}
		for _, c := range batch {
			scanned++
			if !visit(c) {
				return false, nil
			}
		}
		batch = batch[:0]
		return true, nil
	}

	for nb := range s.index.RankedNeighbors(i) {
		if seen >= window {
			break
		}
		seen++

		item, err := s.index.Item(nb.Index)
		if err != nil {
			return scanned, fmt.Errorf("neighbour %d: %w", nb.Index, err)
		}
		batch = append(batch, candidate{neighbor: nb, item: item})
		if len(batch) < s.opts.Prefetch && seen < window {
			continue
		}

		more, err := flush()
		if err != nil || !more {
			return scanned, err
		}
	}

	if len(batch) > 0 {
		if _, err := flush(); err != nil {
			return scanned, err
		}
	}
	return scanned, nil
}

// enrich fills the records of batch in place. Lookup failures leave ok=false.
func (s *Service) enrich(ctx context.Context, batch []candidate) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("enrich candidates: %w", err)
	}

	if len(batch) == 1 || s.opts.Prefetch <= 1 {
		for k := range batch {
			batch[k].record, batch[k].ok = s.enricher.Get(ctx, batch[k].item.ExternalID())
		}
		return nil
	}

	var g errgroup.Group
	g.SetLimit(s.opts.Prefetch)
	for k := range batch {
		g.Go(func() error {
			batch[k].record, batch[k].ok = s.enricher.Get(ctx, batch[k].item.ExternalID())
			return nil
		})
	}
	return g.Wait()
}

func (s *Service) observe(
	ctx context.Context, mode, title string, set *recommendation.Set, start time.Time, err error,
) {
	set.Took = time.Since(start)

	status := string(set.Status)
	if err != nil {
		status = "error"
	}
	metrics.RecommendDuration.WithLabelValues(mode, status).Observe(set.Took.Seconds())
	metrics.RecommendScannedCandidates.Observe(float64(set.Scanned))

	logger.FromContext(ctx).Debug("Recommendation computed",
		zap.String("mode", mode),
		zap.String("title", title),
		zap.String("status", status),
		zap.Int("results", set.Len()),
		zap.Int("scanned", set.Scanned),
		zap.Duration("took", set.Took),
	)
}
