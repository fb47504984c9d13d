package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/careerflow-ai/news-rag/internal/adapter/store"
	"github.com/careerflow-ai/news-rag/internal/domain"
	"github.com/careerflow-ai/news-rag/internal/port"
)

// NoProviderAnswer is returned by Ask when every configured LLM
// provider failed or none is configured.
const NoProviderAnswer = "No AI provider available. Set BYTEZ_API_KEY, GOOGLE_API_KEY or HF_API_KEY."

// DefaultTopK is the number of hits returned when the caller does not
// ask for a specific count.
const DefaultTopK = 5

// RetrievalService answers semantic queries over the news corpus. The
// corpus is loaded once at process start and shared read-only across
// concurrent requests; the indexer is the only writer and runs as a
// separate process.
type RetrievalService struct {
	embedder port.Embedder
	corpus   *store.Corpus
	chain    Chain
	topK     int
}

// Chain is the answer-provider capability Ask needs. Satisfied by
// ai.Chain; narrowed to an interface so tests can fake it.
type Chain interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// NewRetrievalService creates a retrieval service over an already
// loaded corpus. chain may be nil when no providers are configured;
// defaultTopK is the hit count used when a request does not name one,
// falling back to DefaultTopK when non-positive.
func NewRetrievalService(embedder port.Embedder, corpus *store.Corpus, chain Chain, defaultTopK int) *RetrievalService {
	if defaultTopK <= 0 {
		defaultTopK = DefaultTopK
	}
	return &RetrievalService{embedder: embedder, corpus: corpus, chain: chain, topK: defaultTopK}
}

// Retrieve embeds the query and returns the top-k most similar chunks,
// best first. An unbuilt index surfaces as ErrIndexUnavailable.
func (s *RetrievalService) Retrieve(ctx context.Context, query string, topK int) ([]domain.RetrievedChunk, error) {
	if s.corpus.Empty() {
		return nil, port.ErrIndexUnavailable
	}
	if topK <= 0 {
		topK = s.topK
	}

	queryVector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	hits, err := s.corpus.SearchSimilar(queryVector, topK)
	if err != nil {
		return nil, err
	}
	slog.Info("retrieval", "query", query, "top_k", topK, "hits", len(hits))
	return hits, nil
}

// Ask retrieves grounding context for the query, composes the prompt,
// and runs it through the provider chain. Provider failure is soft: the
// response carries the sentinel answer instead of an error.
func (s *RetrievalService) Ask(ctx context.Context, query string, topK int) (*domain.Answer, error) {
	hits, err := s.Retrieve(ctx, query, topK)
	if err != nil {
		return nil, err
	}

	prompt := BuildGroundingPrompt(query, hits)

	answer := NoProviderAnswer
	if s.chain != nil {
		generated, err := s.chain.Generate(ctx, prompt)
		switch {
		case err == nil:
			answer = generated
		case errors.Is(err, port.ErrNoProviderAvailable):
			slog.Warn("all answer providers failed", "query", query)
		default:
			return nil, fmt.Errorf("generate answer: %w", err)
		}
	}

	return &domain.Answer{
		Query:         query,
		PromptUsed:    prompt,
		RetrievedDocs: hits,
		Answer:        answer,
	}, nil
}
