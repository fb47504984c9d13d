package service

import (
	"context"
	"strings"
	"testing"

	"github.com/careerflow-ai/news-rag/internal/adapter/store"
	"github.com/careerflow-ai/news-rag/internal/domain"
	"github.com/careerflow-ai/news-rag/internal/port"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// queryEmbedder always answers with a fixed query vector.
type queryEmbedder struct {
	vector []float32
}

func (q *queryEmbedder) ModelName() string { return "fixed" }

func (q *queryEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return q.vector, nil
}

func (q *queryEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i := range vectors {
		vectors[i] = q.vector
	}
	return vectors, nil
}

type fakeChain struct {
	answer string
	err    error
}

func (f *fakeChain) Generate(ctx context.Context, prompt string) (string, error) {
	return f.answer, f.err
}

func testCorpus() *store.Corpus {
	return &store.Corpus{
		Chunks: []domain.Chunk{
			{ChunkID: "a_c0", SourceID: "a", Title: "Tech hiring", Text: "hiring is up", URL: "https://n.test/a"},
			{ChunkID: "a_c1", SourceID: "a", Title: "Tech hiring", Text: "but not everywhere", URL: "https://n.test/a"},
		},
		IDs:    []string{"a_c0", "a_c1"},
		Matrix: [][]float32{{1, 0}, {0, 1}},
	}
}

func TestRetrieve_RanksAndHydrates(t *testing.T) {
	svc := NewRetrievalService(&queryEmbedder{vector: []float32{1, 0}}, testCorpus(), nil, 0)

	hits, err := svc.Retrieve(context.Background(), "how is tech hiring", 0)
	require.NoError(t, err)
	require.Len(t, hits, 2)

	assert.Equal(t, "a_c0", hits[0].ChunkID)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-9)
	assert.Equal(t, "hiring is up", hits[0].Text)
	assert.Equal(t, "a_c1", hits[1].ChunkID)
	assert.InDelta(t, 0.0, hits[1].Score, 1e-9)
}

func TestRetrieve_EmptyIndex(t *testing.T) {
	svc := NewRetrievalService(&queryEmbedder{vector: []float32{1, 0}}, &store.Corpus{}, nil, 0)

	_, err := svc.Retrieve(context.Background(), "anything", 5)
	assert.ErrorIs(t, err, port.ErrIndexUnavailable)
}

func TestRetrieve_ConfiguredDefaultTopK(t *testing.T) {
	svc := NewRetrievalService(&queryEmbedder{vector: []float32{1, 0}}, testCorpus(), nil, 1)

	hits, err := svc.Retrieve(context.Background(), "how is tech hiring", 0)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "a_c0", hits[0].ChunkID)

	// An explicit request count still wins over the configured default.
	hits, err = svc.Retrieve(context.Background(), "how is tech hiring", 2)
	require.NoError(t, err)
	assert.Len(t, hits, 2)
}

func TestAsk_BuildsEnvelope(t *testing.T) {
	chain := &fakeChain{answer: "[Gemini]\n\ngrounded answer"}
	svc := NewRetrievalService(&queryEmbedder{vector: []float32{1, 0}}, testCorpus(), chain, 0)

	answer, err := svc.Ask(context.Background(), "how is tech hiring", 2)
	require.NoError(t, err)

	assert.Equal(t, "how is tech hiring", answer.Query)
	assert.Equal(t, "[Gemini]\n\ngrounded answer", answer.Answer)
	assert.Len(t, answer.RetrievedDocs, 2)
	assert.Contains(t, answer.PromptUsed, "hiring is up")
	assert.Contains(t, answer.PromptUsed, "how is tech hiring")
}

func TestAsk_AllProvidersDownUsesSentinel(t *testing.T) {
	chain := &fakeChain{err: port.ErrNoProviderAvailable}
	svc := NewRetrievalService(&queryEmbedder{vector: []float32{1, 0}}, testCorpus(), chain, 0)

	answer, err := svc.Ask(context.Background(), "query", 2)
	require.NoError(t, err)
	assert.Equal(t, NoProviderAnswer, answer.Answer)
}

func TestAsk_EmptyIndexPropagates(t *testing.T) {
	svc := NewRetrievalService(&queryEmbedder{vector: []float32{1, 0}}, &store.Corpus{}, &fakeChain{answer: "x"}, 0)

	_, err := svc.Ask(context.Background(), "query", 2)
	assert.ErrorIs(t, err, port.ErrIndexUnavailable)
}

func TestBuildGroundingPrompt(t *testing.T) {
	hits := []domain.RetrievedChunk{
		{Title: "One", Text: "first block"},
		{Title: "Two", Text: "second block"},
	}

	prompt := BuildGroundingPrompt("what changed", hits)

	assert.Contains(t, prompt, "Title: One\nfirst block")
	assert.Contains(t, prompt, "Title: Two\nsecond block")
	assert.Contains(t, prompt, "User question: what changed")
	assert.Contains(t, prompt, "citations")
	assert.Equal(t, 1, strings.Count(prompt, chunkDelimiter), "blocks joined by one delimiter")
	assert.Less(t,
		strings.Index(prompt, "first block"),
		strings.Index(prompt, "second block"),
		"hit order preserved")
}
