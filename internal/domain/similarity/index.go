// Package similarity holds the immutable item-to-item similarity index.
package similarity

import (
	"cmp"
	"fmt"
	"iter"
	"slices"
	"strings"

	"github.com/kailas-cloud/movierec/internal/domain"
	"github.com/kailas-cloud/movierec/internal/domain/catalog"
)

// Neighbor is a ranked candidate for a query item.
type Neighbor struct {
	Index int
	Score float64
}

// Index couples the catalog with the square similarity matrix.
// Catalog position i is row and column i of the matrix. Read-only after Load.
type Index struct {
	items   []catalog.Item
	byTitle map[string]int
	scores  []float32 // row-major, len(items)*len(items)
}

// Load validates partitions against the catalog and concatenates them along the row axis.
// Partitions are consumed in the given order and must sum to len(items) rows of len(items) columns.
func Load(items []catalog.Item, partitions [][][]float32) (*Index, error) {
	n := len(items)

	rows := 0
	for _, p := range partitions {
		rows += len(p)
	}
	if rows != n {
		return nil, domain.NewShapeMismatch("partition rows vs catalog size", n, rows)
	}

	scores := make([]float32, n*n)
	row := 0
	for pi, p := range partitions {
		for ri, r := range p {
			if len(r) != n {
				return nil, fmt.Errorf("partition %d row %d: %w",
					pi, ri, domain.NewShapeMismatch("row width vs catalog size", n, len(r)))
			}
			copy(scores[row*n:(row+1)*n], r)
			row++
		}
	}

	byTitle := make(map[string]int, n)
	for i, it := range items {
		// Duplicate titles resolve to the first occurrence.
		if _, ok := byTitle[it.Title()]; !ok {
			byTitle[it.Title()] = i
		}
	}

	return &Index{
		items:   slices.Clone(items),
		byTitle: byTitle,
		scores:  scores,
	}, nil
}

// Len returns the catalog size.
func (x *Index) Len() int { return len(x.items) }

// Item returns the catalog entry at position i.
func (x *Index) Item(i int) (catalog.Item, error) {
	if i < 0 || i >= len(x.items) {
		return catalog.Item{}, fmt.Errorf("item index %d: %w", i, domain.ErrNotFound)
	}
	return x.items[i], nil
}

// IndexOf resolves an exact title to its catalog position.
func (x *Index) IndexOf(title string) (int, error) {
	i, ok := x.byTitle[title]
	if !ok {
		return 0, fmt.Errorf("title %q: %w", title, domain.ErrNotFound)
	}
	return i, nil
}

// Search returns up to limit titles starting with prefix (case-insensitive), in catalog order.
// limit <= 0 means no limit.
func (x *Index) Search(prefix string, limit int) []string {
	p := strings.ToLower(prefix)
	var out []string
	for _, it := range x.items {
		if limit > 0 && len(out) >= limit {
			break
		}
		if strings.HasPrefix(strings.ToLower(it.Title()), p) {
			out = append(out, it.Title())
		}
	}
	return out
}

// RankedNeighbors yields every other item ordered by score descending.
// Equal scores keep ascending catalog order; NaN scores rank last.
// The ranking is computed when iteration starts, so the sequence can be replayed.
func (x *Index) RankedNeighbors(i int) iter.Seq[Neighbor] {
	return func(yield func(Neighbor) bool) {
		if i < 0 || i >= len(x.items) {
			return
		}
		for _, nb := range x.rank(i) {
			if !yield(nb) {
				return
			}
		}
	}
}

func (x *Index) rank(i int) []Neighbor {
	n := len(x.items)
	row := x.scores[i*n : (i+1)*n]

	out := make([]Neighbor, 0, n-1)
	for j, s := range row {
		if j == i {
			continue
		}
		out = append(out, Neighbor{Index: j, Score: float64(s)})
	}

	slices.SortStableFunc(out, func(a, b Neighbor) int {
		return cmp.Compare(b.Score, a.Score)
	})
	return out
}
