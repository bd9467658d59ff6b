// Package synthesis turns ranked items into prose. A Generator abstracts the
// LLM provider; the Synthesizer batches calls and substitutes deterministic
// fallback text whenever a call fails, so a dead provider degrades the brief
// instead of failing the run.
package synthesis

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"daybrief/internal/config"
)

const defaultHTTPTimeout = 15 * time.Second

// Request is one text-generation call.
type Request struct {
	Prompt       string
	SystemPrompt string
	MaxTokens    int
	Temperature  float64
}

// Generator produces text from a prompt. Implementations wrap one provider's
// HTTP API and return plain errors; the caller decides how to degrade.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// Option customizes a provider client.
type Option func(*providerSettings)

type providerSettings struct {
	httpClient    *http.Client
	baseURL       string
	retryAttempts int
	sleep         func(ctx context.Context, d time.Duration) error
}

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(s *providerSettings) {
		if client != nil {
			s.httpClient = client
		}
	}
}

// WithBaseURL overrides the provider endpoint (useful for tests/mocks).
func WithBaseURL(base string) Option {
	return func(s *providerSettings) {
		base = strings.TrimSpace(base)
		if base != "" {
			s.baseURL = strings.TrimRight(base, "/")
		}
	}
}

// WithRetryAttempts overrides how many times transient failures are retried.
func WithRetryAttempts(attempts int) Option {
	return func(s *providerSettings) {
		if attempts > 0 {
			s.retryAttempts = attempts
		}
	}
}

// WithSleeper overrides how retry backoff sleeps are performed (tests).
func WithSleeper(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(s *providerSettings) {
		if sleep != nil {
			s.sleep = sleep
		}
	}
}

// NewGenerator builds the provider client named by the configuration.
func NewGenerator(cfg config.LLM, opts ...Option) (Generator, error) {
	settings := providerSettings{
		httpClient: &http.Client{Timeout: timeoutFor(cfg)},
		baseURL:    strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
	}
	for _, opt := range opts {
		opt(&settings)
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "claude":
		return newClaudeClient(cfg, settings), nil
	case "openai", "":
		return newOpenAIClient(cfg, settings), nil
	case "ollama":
		return newOllamaClient(cfg, settings), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

func timeoutFor(cfg config.LLM) time.Duration {
	if cfg.TimeoutSeconds > 0 {
		return time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	return defaultHTTPTimeout
}
