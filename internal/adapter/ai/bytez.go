package ai

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

const bytezBaseURL = "https://api.bytez.com/v1"

// BytezProvider answers prompts through the Bytez chat-completions API,
// which speaks the OpenAI dialect, so the OpenAI client is pointed at
// the Bytez base URL.
type BytezProvider struct {
	client *openai.Client
	model  string
}

// NewBytezProvider creates a Bytez-backed answer provider.
func NewBytezProvider(apiKey, model string) *BytezProvider {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = bytezBaseURL
	if model == "" {
		model = "mixtral-8x7b-instruct"
	}
	return &BytezProvider{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

// Name returns the provider label used to prefix answers.
func (p *BytezProvider) Name() string { return "Bytez Model" }

// Generate produces an answer for the given prompt.
func (p *BytezProvider) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   700,
		Temperature: 0.2,
	})
	if err != nil {
		return "", fmt.Errorf("bytez chat: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("bytez chat: empty response")
	}
	return resp.Choices[0].Message.Content, nil
}
