package testsupport

import (
	"path/filepath"
	"testing"

	"daybrief/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Learning.MinTrainingSamples = 4
	cfg.Learning.RetrainThreshold = 2
	cfg.Workflow.SynthesisBatchPauseMs = 0

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithSources overrides the enabled source list on the test config.
func WithSources(names ...string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Sources.Enabled = names
	}
}

// WithLearningDisabled turns the predictive layer off for a test.
func WithLearningDisabled() ConfigOption {
	return func(cfg *config.Config) {
		cfg.Learning.Enabled = false
	}
}
