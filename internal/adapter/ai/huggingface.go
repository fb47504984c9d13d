package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const hfInferenceBaseURL = "https://api-inference.huggingface.co/models"

// HuggingFaceProvider answers prompts through the Hugging Face
// Inference API text-generation endpoint.
type HuggingFaceProvider struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// NewHuggingFaceProvider creates a Hugging Face-backed answer provider.
func NewHuggingFaceProvider(apiKey, model string) *HuggingFaceProvider {
	if model == "" {
		model = "meta-llama/Llama-3-8b-chat"
	}
	return &HuggingFaceProvider{
		apiKey:     apiKey,
		model:      model,
		baseURL:    hfInferenceBaseURL,
		httpClient: &http.Client{},
	}
}

// Name returns the provider label used to prefix answers.
func (p *HuggingFaceProvider) Name() string { return "HuggingFace" }

// Generate produces an answer for the given prompt.
func (p *HuggingFaceProvider) Generate(ctx context.Context, prompt string) (string, error) {
	payload := map[string]any{
		"inputs": prompt,
		"parameters": map[string]any{
			"max_new_tokens":   700,
			"return_full_text": false,
		},
	}
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("huggingface: marshal payload: %w", err)
	}

	url := p.baseURL + "/" + p.model
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payloadBytes))
	if err != nil {
		return "", fmt.Errorf("huggingface: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("huggingface: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("huggingface API error (%d): %s", resp.StatusCode, string(body))
	}

	var out []struct {
		GeneratedText string `json:"generated_text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("huggingface decode: %w", err)
	}
	if len(out) == 0 || out[0].GeneratedText == "" {
		return "", fmt.Errorf("huggingface: empty response")
	}
	return out[0].GeneratedText, nil
}
