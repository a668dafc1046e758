// Package artifact reads the precomputed catalog and similarity partitions from Parquet files.
package artifact

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/parquet-go/parquet-go"
	"go.uber.org/zap"

	"github.com/kailas-cloud/movierec/internal/domain/catalog"
	"github.com/kailas-cloud/movierec/internal/domain/similarity"
)

// CatalogRow is one catalog entry as stored on disk. Row order is matrix order.
type CatalogRow struct {
	ID         int64  `parquet:"id"`
	Title      string `parquet:"title"`
	ExternalID string `parquet:"external_id"`
}

// ScoreRow is one similarity matrix row.
type ScoreRow struct {
	Scores []float32 `parquet:"scores"`
}

// Loader reads artifacts from the local filesystem.
type Loader struct {
	logger *zap.Logger
}

// NewLoader creates a Loader.
func NewLoader(logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{logger: logger}
}

// Load reads the catalog and every partition in the given order and builds the index.
// Shape violations are reported as domain.ErrShapeMismatch.
func (l *Loader) Load(ctx context.Context, catalogPath string, partitionPaths []string) (*similarity.Index, error) {
	start := time.Now()

	items, err := l.ReadCatalog(catalogPath)
	if err != nil {
		return nil, err
	}

	partitions := make([][][]float32, 0, len(partitionPaths))
	for _, p := range partitionPaths {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("load partitions: %w", err)
		}
		rows, err := l.ReadPartition(p)
		if err != nil {
			return nil, err
		}
		partitions = append(partitions, rows)
	}

	idx, err := similarity.Load(items, partitions)
	if err != nil {
		return nil, fmt.Errorf("build similarity index: %w", err)
	}

	l.logger.Info("Artifacts loaded",
		zap.Int("items", idx.Len()),
		zap.Int("partitions", len(partitionPaths)),
		zap.Duration("took", time.Since(start)),
	)
	return idx, nil
}

// ReadCatalog reads catalog rows and validates each item.
func (l *Loader) ReadCatalog(path string) ([]catalog.Item, error) {
	rows, err := parquet.ReadFile[CatalogRow](filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}

	items := make([]catalog.Item, len(rows))
	for i, r := range rows {
		item, err := catalog.NewItem(r.ID, r.Title, r.ExternalID)
		if err != nil {
			return nil, fmt.Errorf("catalog %s row %d: %w", path, i, err)
		}
		items[i] = item
	}

	l.logger.Debug("Catalog read", zap.String("path", path), zap.Int("rows", len(items)))
	return items, nil
}

// ReadPartition reads one contiguous block of matrix rows.
func (l *Loader) ReadPartition(path string) ([][]float32, error) {
	rows, err := parquet.ReadFile[ScoreRow](filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read partition %s: %w", path, err)
	}

	out := make([][]float32, len(rows))
	for i, r := range rows {
		out[i] = r.Scores
	}

	l.logger.Debug("Partition read", zap.String("path", path), zap.Int("rows", len(out)))
	return out, nil
}
