package store

import (
	"sync"
	"testing"

	"github.com/careerflow-ai/news-rag/internal/domain"
	"github.com/careerflow-ai/news-rag/internal/port"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoChunkCorpus() *Corpus {
	return &Corpus{
		Chunks: []domain.Chunk{
			{ChunkID: "a_c0", SourceID: "a", ChunkIndex: 0, Title: "First", Text: "alpha", URL: "https://n.example.org/a"},
			{ChunkID: "a_c1", SourceID: "a", ChunkIndex: 1, Title: "First", Text: "beta", URL: "https://n.example.org/a"},
		},
		IDs:    []string{"a_c0", "a_c1"},
		Matrix: [][]float32{{1, 0}, {0, 1}},
	}
}

func TestValidate_Alignment(t *testing.T) {
	c := twoChunkCorpus()
	require.NoError(t, c.Validate())

	c.IDs = c.IDs[:1]
	err := c.Validate()
	assert.ErrorIs(t, err, port.ErrCorpusMisaligned)
}

func TestValidate_DuplicateIDs(t *testing.T) {
	c := twoChunkCorpus()
	c.IDs = []string{"a_c0", "a_c0"}
	assert.ErrorIs(t, c.Validate(), port.ErrCorpusMisaligned)
}

func TestValidate_RaggedMatrix(t *testing.T) {
	c := twoChunkCorpus()
	c.Matrix = [][]float32{{1, 0}, {0, 1, 0}}
	assert.ErrorIs(t, c.Validate(), port.ErrCorpusMisaligned)
}

func TestSearchSimilar_EmptyCorpus(t *testing.T) {
	c := &Corpus{}
	_, err := c.SearchSimilar([]float32{1, 0}, 5)
	assert.ErrorIs(t, err, port.ErrIndexUnavailable)
}

// The worked example: chunks a_c0=[1,0] and a_c1=[0,1] queried with
// [1,0] come back in that order with scores 1 and 0.
func TestSearchSimilar_RankingExample(t *testing.T) {
	c := twoChunkCorpus()

	hits, err := c.SearchSimilar([]float32{1, 0}, 5)
	require.NoError(t, err)
	require.Len(t, hits, 2)

	assert.Equal(t, "a_c0", hits[0].ChunkID)
	assert.Equal(t, "a_c1", hits[1].ChunkID)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-9)
	assert.InDelta(t, 0.0, hits[1].Score, 1e-9)

	assert.Equal(t, "First", hits[0].Title)
	assert.Equal(t, "alpha", hits[0].Text)
	assert.Equal(t, "https://n.example.org/a", hits[0].URL)
}

func TestSearchSimilar_TopKBound(t *testing.T) {
	c := twoChunkCorpus()

	hits, err := c.SearchSimilar([]float32{1, 0}, 10)
	require.NoError(t, err)
	assert.Len(t, hits, 2)

	hits, err = c.SearchSimilar([]float32{1, 0}, 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "a_c0", hits[0].ChunkID)
}

func TestSearchSimilar_TiesKeepRowOrder(t *testing.T) {
	c := &Corpus{
		IDs: []string{"x_c0", "x_c1", "x_c2"},
		Matrix: [][]float32{
			{1, 0},
			{1, 0},
			{1, 0},
		},
	}

	for range 5 {
		hits, err := c.SearchSimilar([]float32{1, 0}, 3)
		require.NoError(t, err)
		require.Len(t, hits, 3)
		assert.Equal(t, "x_c0", hits[0].ChunkID)
		assert.Equal(t, "x_c1", hits[1].ChunkID)
		assert.Equal(t, "x_c2", hits[2].ChunkID)
	}
}

func TestSearchSimilar_Deterministic(t *testing.T) {
	c := &Corpus{
		IDs: []string{"a", "b", "c", "d"},
		Matrix: [][]float32{
			{0.2, 0.9},
			{0.9, 0.1},
			{0.5, 0.5},
			{0.1, 0.95},
		},
	}

	first, err := c.SearchSimilar([]float32{0.7, 0.3}, 4)
	require.NoError(t, err)
	second, err := c.SearchSimilar([]float32{0.7, 0.3}, 4)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	for i := 1; i < len(first); i++ {
		assert.GreaterOrEqual(t, first[i-1].Score, first[i].Score)
	}
}

func TestSearchSimilar_MissingMetadataIsSoft(t *testing.T) {
	c := &Corpus{
		// No chunk record for the indexed row.
		IDs:    []string{"gone_c0"},
		Matrix: [][]float32{{1, 0}},
	}

	hits, err := c.SearchSimilar([]float32{1, 0}, 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "gone_c0", hits[0].ChunkID)
	assert.Empty(t, hits[0].Title)
	assert.Empty(t, hits[0].Text)
}

func TestSearchSimilar_RejectsWrongDimension(t *testing.T) {
	c := twoChunkCorpus()

	_, err := c.SearchSimilar([]float32{1, 0, 0}, 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dimension")

	_, err = c.SearchSimilar(nil, 5)
	require.Error(t, err)
}

// The server shares one loaded corpus across request goroutines; a
// freshly loaded corpus must serve parallel searches without anyone
// mutating shared state mid-read.
func TestSearchSimilar_ConcurrentReaders(t *testing.T) {
	c := twoChunkCorpus()

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			hits, err := c.SearchSimilar([]float32{1, 0}, 2)
			assert.NoError(t, err)
			assert.Len(t, hits, 2)
			assert.Equal(t, "a_c0", hits[0].ChunkID)
			assert.Equal(t, "alpha", hits[0].Text)
		}()
	}
	wg.Wait()
}

func TestCosine_ZeroVectorIsSafe(t *testing.T) {
	score := cosine([]float32{0, 0}, []float32{0, 0})
	assert.False(t, score != score, "score must not be NaN")
	assert.InDelta(t, 0, score, 1e-9)
}
