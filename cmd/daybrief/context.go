package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"daybrief/internal/bundles"
	"daybrief/internal/config"
	"daybrief/internal/logging"
	"daybrief/internal/memory"
	"daybrief/internal/pipeline"
	"daybrief/internal/sources"
	"daybrief/internal/sources/arxiv"
	"daybrief/internal/synthesis"
)

// commandContext shares lazily loaded configuration across subcommands.
type commandContext struct {
	configFlag *string
	userFlag   *string

	once       sync.Once
	cfg        *config.Config
	configPath string
	configErr  error
}

func newCommandContext(configFlag, userFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag, userFlag: userFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.once.Do(func() {
		cfg, path, _, err := config.Load(*c.configFlag)
		if err != nil {
			c.configErr = err
			return
		}
		c.cfg = cfg
		c.configPath = path
	})
	return c.cfg, c.configErr
}

func (c *commandContext) userID() string {
	if c.userFlag == nil || *c.userFlag == "" {
		return "default"
	}
	return *c.userFlag
}

// runtime bundles the stores and pipeline a command needs, with a single
// Close tearing everything down.
type runtime struct {
	cfg          *config.Config
	logger       *slog.Logger
	memory       *memory.Store
	bundles      *bundles.Store
	registry     *sources.Registry
	orchestrator *pipeline.Orchestrator
}

// newRuntime opens the stores and wires the orchestrator. logPaths selects
// where logs go; interactive commands use stderr, the scheduler adds a file.
func (c *commandContext) newRuntime(logPaths ...string) (*runtime, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}

	if len(logPaths) == 0 {
		logPaths = []string{"stderr"}
	}
	logger, err := logging.New(logging.Options{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		OutputPaths: logPaths,
	})
	if err != nil {
		return nil, err
	}

	memoryStore, err := memory.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open memory store: %w", err)
	}
	bundleStore, err := bundles.Open(cfg)
	if err != nil {
		memoryStore.Close()
		return nil, fmt.Errorf("open bundle store: %w", err)
	}

	registry := sources.NewRegistry()
	if cfg.SourceEnabled("arxiv") {
		if err := registry.Register(arxiv.New(cfg.Sources.ArxivCategories)); err != nil {
			memoryStore.Close()
			bundleStore.Close()
			return nil, err
		}
	}

	synth := newSynthesizer(cfg, logger)
	orchestrator := pipeline.NewOrchestrator(cfg, registry, memoryStore, bundleStore, synth, logger)

	return &runtime{
		cfg:          cfg,
		logger:       logger,
		memory:       memoryStore,
		bundles:      bundleStore,
		registry:     registry,
		orchestrator: orchestrator,
	}, nil
}

// newSynthesizer builds the LLM-backed synthesizer. Without a usable provider
// the generator stays nil and every summary falls back to deterministic text.
func newSynthesizer(cfg *config.Config, logger *slog.Logger) *synthesis.Synthesizer {
	var generator synthesis.Generator
	provider := strings.ToLower(strings.TrimSpace(cfg.LLM.Provider))
	if cfg.LLM.APIKey == "" && provider != "ollama" {
		logger.Info("no llm api key configured, briefs use fallback summaries")
	} else {
		built, err := synthesis.NewGenerator(cfg.LLM)
		if err != nil {
			logger.Warn("llm provider unavailable, briefs use fallback summaries",
				logging.String("provider", cfg.LLM.Provider),
				logging.Error(err),
			)
		} else {
			generator = built
		}
	}
	return synthesis.NewSynthesizer(generator, cfg.LLM, cfg.Workflow, logger)
}

func (r *runtime) Close() {
	if r.bundles != nil {
		r.bundles.Close()
	}
	if r.memory != nil {
		r.memory.Close()
	}
}
