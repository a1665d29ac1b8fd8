package vectorindex

import (
	"fmt"
	"math"

	"kbsearch/internal/domain"
	"kbsearch/internal/port"
)

// Index is an exact, in-memory nearest neighbour structure over corpus items.
// items[i] corresponds to vectors[i]; both are immutable after Build.
// Query cost is O(n·d); no approximate structure is used.
type Index struct {
	embedder  port.Embedder
	items     []domain.CorpusItem
	vectors   [][]float32
	dimension int
}

// ProgressFunc is called after each embedded batch with items done and total.
type ProgressFunc func(done, total int)

// Build embeds every item's index text in batches of batchSize and returns
// the index. Vectors are L2-normalized; a zero vector stays zero and can
// never score above 0.
func Build(items []domain.CorpusItem, embedder port.Embedder, batchSize int, progress ProgressFunc) (*Index, error) {
	if batchSize <= 0 {
		batchSize = len(items)
	}

	idx := &Index{
		embedder: embedder,
		items:    append([]domain.CorpusItem(nil), items...),
		vectors:  make([][]float32, 0, len(items)),
	}

	for start := 0; start < len(items); start += batchSize {
		end := start + batchSize
		if end > len(items) {
			end = len(items)
		}

		texts := make([]string, 0, end-start)
		for _, it := range items[start:end] {
			texts = append(texts, it.IndexText())
		}

		vecs, err := embedder.Embed(texts)
		if err != nil {
			return nil, fmt.Errorf("failed to embed corpus items: %w", err)
		}
		if len(vecs) != len(texts) {
			return nil, fmt.Errorf("embedder returned %d vectors for %d items", len(vecs), len(texts))
		}

		for _, v := range vecs {
			if idx.dimension == 0 {
				idx.dimension = len(v)
			}
			if len(v) != idx.dimension {
				return nil, fmt.Errorf("vector dimension mismatch: expected %d, got %d", idx.dimension, len(v))
			}
			idx.vectors = append(idx.vectors, NormalizeL2(v))
		}

		if progress != nil {
			progress(end, len(items))
		}
	}

	return idx, nil
}

// Len returns the number of indexed items.
func (x *Index) Len() int {
	return len(x.items)
}

// Dimension returns the vector dimension, 0 for an empty index.
func (x *Index) Dimension() int {
	return x.dimension
}

// Items returns the items in build order.
func (x *Index) Items() []domain.CorpusItem {
	return append([]domain.CorpusItem(nil), x.items...)
}

// Best embeds the query and returns the item with the highest cosine
// similarity. Ties go to the item indexed first.
func (x *Index) Best(query string) (domain.ScoredItem, error) {
	q := domain.Query{Text: query}
	if q.Blank() {
		return domain.ScoredItem{}, domain.Validation("query text must not be empty")
	}
	if len(x.items) == 0 {
		return domain.ScoredItem{}, domain.NotFound("", "index is empty")
	}

	vec, err := port.EmbedOne(x.embedder, q.Normalized())
	if err != nil {
		return domain.ScoredItem{}, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(vec) != x.dimension {
		return domain.ScoredItem{}, fmt.Errorf("query dimension mismatch: expected %d, got %d", x.dimension, len(vec))
	}

	return x.BestVector(NormalizeL2(vec)), nil
}

// BestVector scans all items against a unit query vector.
func (x *Index) BestVector(unit []float32) domain.ScoredItem {
	best := 0
	bestScore := math.Inf(-1)
	for i, v := range x.vectors {
		s := Dot(unit, v)
		if s > bestScore {
			best, bestScore = i, s
		}
	}
	return domain.ScoredItem{Item: x.items[best], Score: clamp(bestScore)}
}

// Dot returns the dot product of two equal-length vectors. For unit vectors
// this equals their cosine similarity.
func Dot(a, b []float32) float64 {
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot
}

// NormalizeL2 returns a new vector normalized to unit L2 norm.
// A zero vector is returned unchanged.
func NormalizeL2(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	out := make([]float32, len(v))
	n := math.Sqrt(sum)
	if n == 0 {
		copy(out, v)
		return out
	}
	for i := range v {
		out[i] = float32(float64(v[i]) / n)
	}
	return out
}

// clamp absorbs float32 rounding so cosine scores stay within [-1, 1].
func clamp(s float64) float64 {
	return math.Max(-1, math.Min(1, s))
}
