package dataset

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
)

const hubBaseURL = "https://huggingface.co"

// HubClient uploads dataset artifacts to a Hugging Face dataset
// repository through the hub commit API. It implements port.DatasetHub.
type HubClient struct {
	repoID     string
	token      string
	baseURL    string
	httpClient *http.Client
}

// NewHubClient creates a client for the given dataset repo (e.g.
// "careerflow-ai/career-news-data").
func NewHubClient(repoID, token string) *HubClient {
	return &HubClient{
		repoID:     repoID,
		token:      token,
		baseURL:    hubBaseURL,
		httpClient: &http.Client{},
	}
}

// Upload pushes one local file to repoPath inside the dataset repo as a
// single commit on main.
func (c *HubClient) Upload(ctx context.Context, localPath, repoPath string) error {
	content, err := os.ReadFile(localPath)
	if err != nil {
		return fmt.Errorf("read %s: %w", localPath, err)
	}

	// The commit API takes NDJSON: a header line followed by one line
	// per file operation.
	var body bytes.Buffer
	enc := json.NewEncoder(&body)
	header := map[string]any{
		"key": "header",
		"value": map[string]string{
			"summary": "Update " + repoPath,
		},
	}
	file := map[string]any{
		"key": "file",
		"value": map[string]string{
			"path":     repoPath,
			"content":  base64.StdEncoding.EncodeToString(content),
			"encoding": "base64",
		},
	}
	if err := enc.Encode(header); err != nil {
		return fmt.Errorf("encode commit header: %w", err)
	}
	if err := enc.Encode(file); err != nil {
		return fmt.Errorf("encode commit file: %w", err)
	}

	url := fmt.Sprintf("%s/api/datasets/%s/commit/main", c.baseURL, c.repoID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-ndjson")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("hub commit: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("hub API error (%d): %s", resp.StatusCode, string(respBody))
	}
	return nil
}
