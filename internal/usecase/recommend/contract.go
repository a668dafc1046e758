package recommend

import (
	"context"
	"iter"

	"github.com/kailas-cloud/movierec/internal/domain/catalog"
	"github.com/kailas-cloud/movierec/internal/domain/enrichment"
	"github.com/kailas-cloud/movierec/internal/domain/similarity"
)

// Index is the read-only similarity index.
type Index interface {
	Len() int
	Item(i int) (catalog.Item, error)
	IndexOf(title string) (int, error)
	Search(prefix string, limit int) []string
	RankedNeighbors(i int) iter.Seq[similarity.Neighbor]
}

// Enricher returns metadata for an item; ok is false when none could be obtained.
type Enricher interface {
	Get(ctx context.Context, externalID string) (enrichment.Record, bool)
}
