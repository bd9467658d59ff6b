package synthesis_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"daybrief/internal/brief"
	"daybrief/internal/config"
	"daybrief/internal/logging"
	"daybrief/internal/services"
	"daybrief/internal/synthesis"
	"daybrief/internal/testsupport"
)

type stubGenerator struct {
	calls  int
	reply  string
	failOn map[int]bool
}

func (g *stubGenerator) Generate(_ context.Context, req synthesis.Request) (string, error) {
	g.calls++
	if g.failOn[g.calls] {
		return "", errors.New("provider down")
	}
	if g.reply != "" {
		return g.reply, nil
	}
	return "synthesized", nil
}

func newSynthesizer(t *testing.T, gen synthesis.Generator) *synthesis.Synthesizer {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	return synthesis.NewSynthesizer(gen, cfg.LLM, cfg.Workflow, logging.NewNop())
}

func TestNewGeneratorSelectsProvider(t *testing.T) {
	for _, provider := range []string{"claude", "openai", "ollama"} {
		cfg := config.LLM{Provider: provider, APIKey: "k", Model: "m"}
		if _, err := synthesis.NewGenerator(cfg); err != nil {
			t.Fatalf("provider %s: %v", provider, err)
		}
	}
	if _, err := synthesis.NewGenerator(config.LLM{Provider: "palm"}); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestOpenAIGenerate(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": "a fine summary"}},
			},
		})
	}))
	defer server.Close()

	gen, err := synthesis.NewGenerator(
		config.LLM{Provider: "openai", APIKey: "secret", Model: "gpt-4o-mini"},
		synthesis.WithBaseURL(server.URL),
		synthesis.WithHTTPClient(server.Client()),
	)
	if err != nil {
		t.Fatalf("NewGenerator failed: %v", err)
	}
	text, err := gen.Generate(context.Background(), synthesis.Request{Prompt: "summarize"})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if text != "a fine summary" {
		t.Fatalf("unexpected text %q", text)
	}
	if gotAuth != "Bearer secret" {
		t.Fatalf("unexpected auth header %q", gotAuth)
	}
}

func TestOpenAIGenerateRetriesTransientFailures(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": "second try"}},
			},
		})
	}))
	defer server.Close()

	gen, err := synthesis.NewGenerator(
		config.LLM{Provider: "openai", APIKey: "secret", Model: "gpt-4o-mini"},
		synthesis.WithBaseURL(server.URL),
		synthesis.WithHTTPClient(server.Client()),
		synthesis.WithRetryAttempts(3),
		synthesis.WithSleeper(func(context.Context, time.Duration) error { return nil }),
	)
	if err != nil {
		t.Fatalf("NewGenerator failed: %v", err)
	}
	text, err := gen.Generate(context.Background(), synthesis.Request{Prompt: "summarize"})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if text != "second try" || calls != 2 {
		t.Fatalf("expected success on second call, got %q after %d calls", text, calls)
	}
}

func TestOpenAIGenerateDoesNotRetryClientErrors(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	gen, err := synthesis.NewGenerator(
		config.LLM{Provider: "openai", APIKey: "bad", Model: "gpt-4o-mini"},
		synthesis.WithBaseURL(server.URL),
		synthesis.WithHTTPClient(server.Client()),
		synthesis.WithSleeper(func(context.Context, time.Duration) error { return nil }),
	)
	if err != nil {
		t.Fatalf("NewGenerator failed: %v", err)
	}
	if _, err := gen.Generate(context.Background(), synthesis.Request{Prompt: "x"}); err == nil {
		t.Fatal("expected error for 401")
	}
	if calls != 1 {
		t.Fatalf("401 must not be retried, got %d calls", calls)
	}
}

func TestClaudeGenerate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-api-key") != "secret" {
			t.Errorf("missing api key header")
		}
		if r.URL.Path != "/v1/messages" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"content": []map[string]any{
				{"type": "text", "text": "claude says hi"},
			},
		})
	}))
	defer server.Close()

	gen, err := synthesis.NewGenerator(
		config.LLM{Provider: "claude", APIKey: "secret", Model: "claude-sonnet"},
		synthesis.WithBaseURL(server.URL),
		synthesis.WithHTTPClient(server.Client()),
	)
	if err != nil {
		t.Fatalf("NewGenerator failed: %v", err)
	}
	text, err := gen.Generate(context.Background(), synthesis.Request{Prompt: "hi"})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if text != "claude says hi" {
		t.Fatalf("unexpected text %q", text)
	}
}

func TestOllamaGenerate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{"response": "local output"})
	}))
	defer server.Close()

	gen, err := synthesis.NewGenerator(
		config.LLM{Provider: "ollama", Model: "llama3"},
		synthesis.WithBaseURL(server.URL),
		synthesis.WithHTTPClient(server.Client()),
	)
	if err != nil {
		t.Fatalf("NewGenerator failed: %v", err)
	}
	text, err := gen.Generate(context.Background(), synthesis.Request{Prompt: "hi"})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if text != "local output" {
		t.Fatalf("unexpected text %q", text)
	}
}

func TestGenerateSurfacesHTTPErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	gen, err := synthesis.NewGenerator(
		config.LLM{Provider: "openai", APIKey: "k", Model: "m"},
		synthesis.WithBaseURL(server.URL),
		synthesis.WithHTTPClient(server.Client()),
	)
	if err != nil {
		t.Fatalf("NewGenerator failed: %v", err)
	}
	if _, err := gen.Generate(context.Background(), synthesis.Request{Prompt: "hi"}); err == nil {
		t.Fatal("expected error for 429 response")
	}
}

func TestAnnotateHighlightsRewritesSummaries(t *testing.T) {
	gen := &stubGenerator{reply: "polished"}
	synth := newSynthesizer(t, gen)

	items := []*brief.Item{
		{ItemRef: "gmail/a", Source: "gmail", Type: "email", Title: "A", Summary: "raw a"},
		{ItemRef: "gmail/b", Source: "gmail", Type: "email", Title: "B", Summary: "raw b"},
	}
	warnings := synth.AnnotateHighlights(context.Background(), items)
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	for _, item := range items {
		if item.Summary != "polished" {
			t.Fatalf("%s not rewritten: %q", item.ItemRef, item.Summary)
		}
	}
	if gen.calls != 2 {
		t.Fatalf("expected 2 calls, got %d", gen.calls)
	}
}

func TestAnnotateHighlightsFallsBackPerItem(t *testing.T) {
	gen := &stubGenerator{reply: "polished", failOn: map[int]bool{2: true}}
	synth := newSynthesizer(t, gen)

	items := []*brief.Item{
		{ItemRef: "gmail/a", Source: "gmail", Type: "email", Title: "A", Summary: "raw a"},
		{ItemRef: "gmail/b", Source: "gmail", Type: "email", Title: "B", Summary: "raw b"},
		{ItemRef: "gmail/c", Source: "gmail", Type: "email", Title: "C", Summary: "raw c"},
	}
	warnings := synth.AnnotateHighlights(context.Background(), items)
	if len(warnings) != 1 {
		t.Fatalf("expected 1 warning, got %d", len(warnings))
	}
	if !errors.Is(warnings[0], services.ErrSynthesis) {
		t.Fatalf("warning not tagged as synthesis error: %v", warnings[0])
	}
	if items[1].Summary != "raw b" {
		t.Fatalf("failed item should keep its deterministic summary, got %q", items[1].Summary)
	}
	if items[0].Summary != "polished" || items[2].Summary != "polished" {
		t.Fatal("sibling items should still be rewritten")
	}
}

func TestSummarizeModuleFallbackTemplate(t *testing.T) {
	gen := &stubGenerator{failOn: map[int]bool{1: true}}
	synth := newSynthesizer(t, gen)

	module := brief.ModuleResult{
		NewCount:     2,
		UpdatedCount: 1,
		Items: []*brief.Item{
			{Title: "A"}, {Title: "B"}, {Title: "C"},
		},
	}
	summary, err := synth.SummarizeModule(context.Background(), "gmail", module)
	if err == nil {
		t.Fatal("expected synthesis warning")
	}
	if !strings.Contains(summary, "3 items from gmail") {
		t.Fatalf("fallback not templated from counts: %q", summary)
	}
}

func TestSummarizeBriefEmptyBundle(t *testing.T) {
	synth := newSynthesizer(t, &stubGenerator{})
	bundle := &brief.Bundle{Modules: map[string]brief.ModuleResult{}}
	summary, err := synth.SummarizeBrief(context.Background(), bundle)
	if err != nil {
		t.Fatalf("SummarizeBrief failed: %v", err)
	}
	if summary != "Nothing new since the last brief." {
		t.Fatalf("unexpected empty-bundle summary %q", summary)
	}
}

func TestNilGeneratorDegradesQuietly(t *testing.T) {
	synth := newSynthesizer(t, nil)
	item := &brief.Item{ItemRef: "x", Title: "Title only"}
	if warnings := synth.AnnotateHighlights(context.Background(), []*brief.Item{item}); len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	if item.Summary != "Title only" {
		t.Fatalf("expected title fallback, got %q", item.Summary)
	}
}
