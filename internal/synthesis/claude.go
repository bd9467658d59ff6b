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

const (
	defaultClaudeBaseURL   = "https://api.anthropic.com"
	claudeAPIVersion       = "2023-06-01"
	claudeDefaultMaxTokens = 256
)

// claudeClient speaks the Anthropic messages API.
type claudeClient struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

func newClaudeClient(cfg config.LLM, settings providerSettings) *claudeClient {
	baseURL := settings.baseURL
	if baseURL == "" {
		baseURL = defaultClaudeBaseURL
	}
	return &claudeClient{
		apiKey:     strings.TrimSpace(cfg.APIKey),
		baseURL:    baseURL,
		model:      strings.TrimSpace(cfg.Model),
		httpClient: settings.httpClient,
	}
}

type claudeRequest struct {
	Model       string          `json:"model"`
	System      string          `json:"system,omitempty"`
	Messages    []claudeMessage `json:"messages"`
	MaxTokens   int             `json:"max_tokens"`
	Temperature float64         `json:"temperature"`
}

type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type claudeResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *claudeClient) Generate(ctx context.Context, req Request) (string, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return "", errors.New("claude generate: prompt required")
	}
	if c.apiKey == "" {
		return "", errors.New("claude generate: api key required")
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = claudeDefaultMaxTokens
	}
	encoded, err := json.Marshal(claudeRequest{
		Model:       c.model,
		System:      strings.TrimSpace(req.SystemPrompt),
		Messages:    []claudeMessage{{Role: "user", Content: req.Prompt}},
		MaxTokens:   maxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("claude generate: encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/messages", bytes.NewReader(encoded))
	if err != nil {
		return "", fmt.Errorf("claude generate: request: %w", err)
	}
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", claudeAPIVersion)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("claude generate: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("claude generate: read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return "", fmt.Errorf("claude generate: http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var completion claudeResponse
	if err := json.Unmarshal(body, &completion); err != nil {
		return "", fmt.Errorf("claude generate: decode response: %w", err)
	}
	if completion.Error != nil {
		return "", fmt.Errorf("claude generate: api error: %s", strings.TrimSpace(completion.Error.Message))
	}
	for _, block := range completion.Content {
		if block.Type == "text" {
			if text := strings.TrimSpace(block.Text); text != "" {
				return text, nil
			}
		}
	}
	return "", errors.New("claude generate: empty content")
}
