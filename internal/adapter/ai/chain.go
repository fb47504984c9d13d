package ai

import (
	"context"
	"log/slog"
	"strings"

	"github.com/careerflow-ai/news-rag/internal/port"
)

// Chain tries a configured sequence of answer providers in order and
// returns the first successful answer, prefixed with the provider's
// label. A provider failure is soft: the next provider takes over.
type Chain struct {
	providers []port.AnswerProvider
}

// NewChain creates a provider chain. Order matters: earlier providers
// are preferred.
func NewChain(providers ...port.AnswerProvider) *Chain {
	return &Chain{providers: providers}
}

// Name lists the chained provider labels.
func (c *Chain) Name() string {
	names := make([]string, len(c.providers))
	for i, p := range c.providers {
		names[i] = p.Name()
	}
	return strings.Join(names, " -> ")
}

// Generate asks each provider in turn. When all fail or none is
// configured it returns ErrNoProviderAvailable.
func (c *Chain) Generate(ctx context.Context, prompt string) (string, error) {
	for _, p := range c.providers {
		answer, err := p.Generate(ctx, prompt)
		if err != nil {
			slog.Warn("answer provider failed, trying next", "provider", p.Name(), "error", err)
			continue
		}
		return "[" + p.Name() + "]\n\n" + answer, nil
	}
	return "", port.ErrNoProviderAvailable
}
