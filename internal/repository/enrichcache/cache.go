// Package enrichcache memoizes enrichment lookups in a process-local LRU.
package enrichcache

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/kailas-cloud/movierec/internal/domain"
	"github.com/kailas-cloud/movierec/internal/domain/enrichment"
)

const (
	// DefaultSize is the number of distinct items kept when no size is configured.
	DefaultSize = 1000
	// DefaultCallTimeout bounds a shared provider call once it is detached from its callers.
	DefaultCallTimeout = 10 * time.Second
)

// Compile-time check: Cache is itself an enrichment lookup.
var _ domain.EnrichmentLookup = (*Cache)(nil)

// Cache is a read-through LRU in front of an enrichment provider.
// Only successful lookups are stored; a failed lookup is retried on the next call.
type Cache struct {
	inner      domain.EnrichmentLookup
	entries    *lru.Cache[string, enrichment.Record]
	group      singleflight.Group
	cacheTotal *prometheus.CounterVec
	errorKind   func(error) string
	callTimeout time.Duration
	logger      *zap.Logger
}

// Option configures a Cache.
type Option func(*Cache)

// WithErrorKind sets the classifier used to label failed lookups in logs.
func WithErrorKind(fn func(error) string) Option {
	return func(c *Cache) { c.errorKind = fn }
}

// WithCallTimeout bounds each shared provider call. Non-positive values keep DefaultCallTimeout.
func WithCallTimeout(d time.Duration) Option {
	return func(c *Cache) {
		if d > 0 {
			c.callTimeout = d
		}
	}
}

// New creates a caching decorator holding at most size records.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"), passed explicitly.
func New(
	inner domain.EnrichmentLookup,
	size int,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
	opts ...Option,
) (*Cache, error) {
	if size <= 0 {
		size = DefaultSize
	}
	entries, err := lru.New[string, enrichment.Record](size)
	if err != nil {
		return nil, fmt.Errorf("create lru: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Cache{
		inner:       inner,
		entries:     entries,
		cacheTotal:  cacheTotal,
		callTimeout: DefaultCallTimeout,
		logger:      logger,
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Get is Lookup without the error: ok is false when no record could be obtained.
func (c *Cache) Get(ctx context.Context, externalID string) (enrichment.Record, bool) {
	rec, err := c.Lookup(ctx, externalID)
	return rec, err == nil
}

// Lookup returns the cached record or asks the inner provider.
// Concurrent misses for the same id share one provider call. The shared call does not
// inherit any caller's cancellation, so a caller that gives up only stops its own wait.
func (c *Cache) Lookup(ctx context.Context, externalID string) (enrichment.Record, error) {
	if rec, ok := c.entries.Get(externalID); ok {
		c.incCache("hit")
		return rec, nil
	}
	c.incCache("miss")

	ch := c.group.DoChan(externalID, func() (any, error) {
		// Another caller may have filled the entry while we waited on the group.
		if rec, ok := c.entries.Get(externalID); ok {
			return rec, nil
		}
		callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.callTimeout)
		defer cancel()

		rec, err := c.inner.Lookup(callCtx, externalID)
		if err != nil {
			return enrichment.Record{}, err
		}
		c.entries.Add(externalID, rec)
		return rec, nil
	})

	select {
	case <-ctx.Done():
		return enrichment.Record{}, fmt.Errorf("lookup %s: %w: %w",
			externalID, domain.ErrEnrichmentUnavailable, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			c.logger.Debug("Enrichment lookup failed",
				zap.String("external_id", externalID),
				zap.String("kind", c.kind(res.Err)),
				zap.Error(res.Err),
			)
			return enrichment.Record{}, fmt.Errorf("lookup %s: %w", externalID, res.Err)
		}
		return res.Val.(enrichment.Record), nil
	}
}

// Len returns the number of cached records.
func (c *Cache) Len() int {
	return c.entries.Len()
}

func (c *Cache) kind(err error) string {
	if c.errorKind == nil {
		return "unknown"
	}
	return c.errorKind(err)
}

func (c *Cache) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}
