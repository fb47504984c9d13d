package port

import "context"

// Embedder abstracts the external embedding model. Implementations can
// target Ollama, OpenAI, or any compatible API. All vectors produced
// for one corpus must share a single fixed dimensionality.
type Embedder interface {
	// ModelName returns the identifier of the embedding model.
	ModelName() string

	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts in one call,
	// in the same order as the input.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// AnswerProvider abstracts one LLM backend capable of answering a
// grounding prompt. Providers are tried in a configured order; a
// provider that cannot answer returns an error and the next one in the
// chain takes over.
type AnswerProvider interface {
	// Name returns the human-readable provider label used to prefix answers.
	Name() string

	// Generate produces a free-text answer for the given prompt.
	Generate(ctx context.Context, prompt string) (string, error)
}
