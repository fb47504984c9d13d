package store

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/careerflow-ai/news-rag/internal/domain"
	"github.com/careerflow-ai/news-rag/internal/port"
)

// epsilon keeps the cosine denominator non-zero for all-zero vectors.
const epsilon = 1e-10

// Corpus is the three-way-aligned retrieval state: the chunk records,
// the ordered chunk-id sequence, and the embedding matrix whose row i
// belongs to IDs[i]. The three parts are always loaded and saved as one
// unit; a Backend never hands out a misaligned Corpus.
type Corpus struct {
	Chunks []domain.Chunk
	IDs    []string
	Matrix [][]float32

	indexOnce sync.Once
	byID      map[string]*domain.Chunk
}

// Backend persists a Corpus. Load returns an empty corpus (not an
// error) when nothing has been indexed yet; Save is atomic, so a crash
// mid-save can never leave the id sequence lagging behind the matrix.
type Backend interface {
	Load(ctx context.Context) (*Corpus, error)
	Save(ctx context.Context, c *Corpus) error
}

// Validate checks the alignment invariant: one id per matrix row, no
// duplicate ids, and a single dimensionality across all rows.
func (c *Corpus) Validate() error {
	if len(c.IDs) != len(c.Matrix) {
		return fmt.Errorf("%w: %d ids vs %d rows", port.ErrCorpusMisaligned, len(c.IDs), len(c.Matrix))
	}
	seen := make(map[string]struct{}, len(c.IDs))
	for _, id := range c.IDs {
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: duplicate chunk id %q", port.ErrCorpusMisaligned, id)
		}
		seen[id] = struct{}{}
	}
	if len(c.Matrix) > 0 {
		dim := len(c.Matrix[0])
		for i, row := range c.Matrix {
			if len(row) != dim {
				return fmt.Errorf("%w: row %d has dimension %d, want %d", port.ErrCorpusMisaligned, i, len(row), dim)
			}
		}
	}
	return nil
}

// Empty reports whether no embeddings have been indexed yet.
func (c *Corpus) Empty() bool {
	return len(c.Matrix) == 0
}

// Dimension returns the embedding dimensionality, or 0 for an empty corpus.
func (c *Corpus) Dimension() int {
	if len(c.Matrix) == 0 {
		return 0
	}
	return len(c.Matrix[0])
}

// Chunk returns the chunk record for an id, or nil when the metadata
// store has no entry for it. The lookup map is built exactly once, so
// concurrent readers never mutate shared state.
func (c *Corpus) Chunk(id string) *domain.Chunk {
	c.indexOnce.Do(func() {
		c.byID = make(map[string]*domain.Chunk, len(c.Chunks))
		for i := range c.Chunks {
			c.byID[c.Chunks[i].ChunkID] = &c.Chunks[i]
		}
	})
	return c.byID[id]
}

// SearchSimilar ranks every stored row by cosine similarity against the
// query vector and returns the top k hits, best first, hydrated with
// the chunk metadata. Ties keep ascending row order so repeated
// identical queries return identical results. An empty corpus returns
// ErrIndexUnavailable rather than an empty list, so callers can tell
// "nothing indexed yet" apart from "no match".
func (c *Corpus) SearchSimilar(query []float32, k int) ([]domain.RetrievedChunk, error) {
	if c.Empty() {
		return nil, port.ErrIndexUnavailable
	}
	if dim := c.Dimension(); len(query) != dim {
		return nil, fmt.Errorf("query embedding has dimension %d, corpus has %d", len(query), dim)
	}
	if k <= 0 {
		k = 5
	}

	scores := make([]float64, len(c.Matrix))
	for i, row := range c.Matrix {
		scores[i] = cosine(query, row)
	}

	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	if k > len(order) {
		k = len(order)
	}
	hits := make([]domain.RetrievedChunk, 0, k)
	for _, idx := range order[:k] {
		hit := domain.RetrievedChunk{
			ChunkID: c.IDs[idx],
			Score:   scores[idx],
		}
		if chunk := c.Chunk(c.IDs[idx]); chunk != nil {
			hit.Title = chunk.Title
			hit.Text = chunk.Text
			hit.URL = chunk.URL
			hit.Published = chunk.Published
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

// cosine computes dot(a,b) / (|a|*|b| + epsilon) in float64.
func cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	return dot / (math.Sqrt(na)*math.Sqrt(nb) + epsilon)
}
