package synthesis

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"daybrief/internal/brief"
	"daybrief/internal/config"
	"daybrief/internal/logging"
	"daybrief/internal/services"
)

const systemPrompt = "You are an assistant writing a concise personal daily brief. " +
	"Answer with plain prose only, one or two sentences, no markdown."

// Synthesizer runs the prose-generation pass over a bundle. All failures
// degrade to deterministic fallback text and come back as warnings.
type Synthesizer struct {
	generator   Generator
	logger      *slog.Logger
	batchSize   int
	batchPause  time.Duration
	maxTokens   int
	temperature float64
	sleep       func(ctx context.Context, d time.Duration)
}

// NewSynthesizer wires a synthesizer from the LLM and workflow settings.
func NewSynthesizer(generator Generator, llm config.LLM, workflow config.Workflow, logger *slog.Logger) *Synthesizer {
	batchSize := workflow.SynthesisBatchSize
	if batchSize <= 0 {
		batchSize = 5
	}
	return &Synthesizer{
		generator:   generator,
		logger:      logging.NewComponentLogger(logger, "synthesis"),
		batchSize:   batchSize,
		batchPause:  time.Duration(workflow.SynthesisBatchPauseMs) * time.Millisecond,
		maxTokens:   llm.MaxTokens,
		temperature: llm.Temperature,
		sleep:       sleepContext,
	}
}

// AnnotateHighlights rewrites each highlight's summary into brief prose. Items
// are processed in bounded batches with a pause between batches; a failed call
// leaves the item with its deterministic fallback line. Returned errors are
// warnings, one per failed item.
func (s *Synthesizer) AnnotateHighlights(ctx context.Context, items []*brief.Item) []error {
	if s.generator == nil {
		for _, item := range items {
			applyFallback(item)
		}
		return nil
	}

	var warnings []error
	for start := 0; start < len(items); start += s.batchSize {
		if start > 0 && s.batchPause > 0 {
			s.sleep(ctx, s.batchPause)
		}
		end := start + s.batchSize
		if end > len(items) {
			end = len(items)
		}
		for _, item := range items[start:end] {
			if item == nil {
				continue
			}
			text, err := s.generator.Generate(ctx, Request{
				Prompt:       itemPrompt(item),
				SystemPrompt: systemPrompt,
				MaxTokens:    s.maxTokens,
				Temperature:  s.temperature,
			})
			if err != nil {
				applyFallback(item)
				warnings = append(warnings, services.Wrap(services.ErrSynthesis,
					"synthesis", "item", item.ItemRef, err))
				s.logger.Warn("item synthesis failed, using fallback",
					logging.String(logging.FieldItemRef, item.ItemRef),
					logging.Error(err),
				)
				continue
			}
			item.Summary = text
		}
	}
	return warnings
}

// SummarizeModule produces one module's summary line. On failure the summary
// is a template derived from the counts and the error is returned as a
// warning.
func (s *Synthesizer) SummarizeModule(ctx context.Context, name string, module brief.ModuleResult) (string, error) {
	fallback := moduleFallback(name, module)
	if s.generator == nil || len(module.Items) == 0 {
		return fallback, nil
	}

	text, err := s.generator.Generate(ctx, Request{
		Prompt:       modulePrompt(name, module),
		SystemPrompt: systemPrompt,
		MaxTokens:    s.maxTokens,
		Temperature:  s.temperature,
	})
	if err != nil {
		return fallback, services.Wrap(services.ErrSynthesis, "synthesis", "module", name, err)
	}
	return text, nil
}

// SummarizeBrief produces the bundle's overall summary from its highlights.
func (s *Synthesizer) SummarizeBrief(ctx context.Context, bundle *brief.Bundle) (string, error) {
	fallback := briefFallback(bundle)
	if s.generator == nil || len(bundle.TopHighlights) == 0 {
		return fallback, nil
	}

	text, err := s.generator.Generate(ctx, Request{
		Prompt:       briefPrompt(bundle),
		SystemPrompt: systemPrompt,
		MaxTokens:    s.maxTokens,
		Temperature:  s.temperature,
	})
	if err != nil {
		return fallback, services.Wrap(services.ErrSynthesis, "synthesis", "brief", bundle.BriefID, err)
	}
	return text, nil
}

func itemPrompt(item *brief.Item) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Rewrite this %s from %s as one brief sentence for a daily digest.\n", item.Type, item.Source)
	fmt.Fprintf(&sb, "Title: %s\n", item.Title)
	if item.Summary != "" {
		fmt.Fprintf(&sb, "Details: %s\n", item.Summary)
	}
	if item.Novelty != nil && item.Novelty.Label == brief.NoveltyUpdated {
		sb.WriteString("Note that this item changed since the reader last saw it.\n")
	}
	return sb.String()
}

func modulePrompt(name string, module brief.ModuleResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Summarize the following %d items from %s in one sentence.\n", len(module.Items), name)
	for _, item := range module.Items {
		fmt.Fprintf(&sb, "- %s\n", item.Title)
	}
	return sb.String()
}

func briefPrompt(bundle *brief.Bundle) string {
	var sb strings.Builder
	sb.WriteString("Write a two-sentence overview of today's brief from these highlights.\n")
	for _, item := range bundle.TopHighlights {
		fmt.Fprintf(&sb, "- [%s] %s\n", item.Source, item.Title)
	}
	return sb.String()
}

// applyFallback leaves the item with a deterministic summary derived from the
// normalized fields.
func applyFallback(item *brief.Item) {
	if item == nil || item.Summary != "" {
		return
	}
	item.Summary = item.Title
}

func moduleFallback(name string, module brief.ModuleResult) string {
	if len(module.Items) == 0 {
		return fmt.Sprintf("No items from %s.", name)
	}
	return fmt.Sprintf("%d items from %s (%d new, %d updated).",
		len(module.Items), name, module.NewCount, module.UpdatedCount)
}

func briefFallback(bundle *brief.Bundle) string {
	total := 0
	names := make([]string, 0, len(bundle.Modules))
	for name, module := range bundle.Modules {
		total += len(module.Items)
		if len(module.Items) > 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	if total == 0 {
		return "Nothing new since the last brief."
	}
	return fmt.Sprintf("%d items across %s.", total, strings.Join(names, ", "))
}

func sleepContext(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
