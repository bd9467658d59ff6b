package synthesis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"daybrief/internal/config"
)

const defaultOllamaBaseURL = "http://localhost:11434"

// ollamaClient speaks the local Ollama generate API. No credentials needed.
type ollamaClient struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

func newOllamaClient(cfg config.LLM, settings providerSettings) *ollamaClient {
	baseURL := settings.baseURL
	if baseURL == "" {
		baseURL = defaultOllamaBaseURL
	}
	return &ollamaClient{
		baseURL:    baseURL,
		model:      strings.TrimSpace(cfg.Model),
		httpClient: settings.httpClient,
	}
}

type ollamaRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	System  string         `json:"system,omitempty"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options,omitempty"`
}

type ollamaResponse struct {
	Response string `json:"response"`
	Error    string `json:"error"`
}

func (c *ollamaClient) Generate(ctx context.Context, req Request) (string, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return "", errors.New("ollama generate: prompt required")
	}

	options := map[string]any{"temperature": req.Temperature}
	if req.MaxTokens > 0 {
		options["num_predict"] = req.MaxTokens
	}
	encoded, err := json.Marshal(ollamaRequest{
		Model:   c.model,
		Prompt:  req.Prompt,
		System:  strings.TrimSpace(req.SystemPrompt),
		Stream:  false,
		Options: options,
	})
	if err != nil {
		return "", fmt.Errorf("ollama generate: encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/generate", bytes.NewReader(encoded))
	if err != nil {
		return "", fmt.Errorf("ollama generate: request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("ollama generate: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("ollama generate: read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return "", fmt.Errorf("ollama generate: http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var completion ollamaResponse
	if err := json.Unmarshal(body, &completion); err != nil {
		return "", fmt.Errorf("ollama generate: decode response: %w", err)
	}
	if completion.Error != "" {
		return "", fmt.Errorf("ollama generate: api error: %s", completion.Error)
	}
	content := strings.TrimSpace(completion.Response)
	if content == "" {
		return "", errors.New("ollama generate: empty content")
	}
	return content, nil
}
