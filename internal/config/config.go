package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
}

// LLM contains connection settings for the synthesis provider.
type LLM struct {
	Provider       string  `toml:"provider"`
	APIKey         string  `toml:"api_key"`
	BaseURL        string  `toml:"base_url"`
	Model          string  `toml:"model"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
	MaxTokens      int     `toml:"max_tokens"`
	Temperature    float64 `toml:"temperature"`
}

// Sources contains data-source connector settings.
type Sources struct {
	Enabled         []string `toml:"enabled"`
	FetchLimit      int      `toml:"fetch_limit"`
	ArxivCategories []string `toml:"arxiv_categories"`
}

// Ranking contains scoring weights and selection caps.
type Ranking struct {
	RelevanceWeight         float64 `toml:"relevance_weight"`
	UrgencyWeight           float64 `toml:"urgency_weight"`
	CredibilityWeight       float64 `toml:"credibility_weight"`
	ImpactWeight            float64 `toml:"impact_weight"`
	ActionabilityWeight     float64 `toml:"actionability_weight"`
	MaxHighlights           int     `toml:"max_highlights"`
	MaxPerModule            int     `toml:"max_per_module"`
	MaxTotal                int     `toml:"max_total"`
	LowSignalRepeatSeenings int     `toml:"low_signal_repeat_seenings"`
}

// Learning contains settings for the predictive scoring layer.
type Learning struct {
	Enabled            bool `toml:"enabled"`
	MinTrainingSamples int  `toml:"min_training_samples"`
	RetrainThreshold   int  `toml:"retrain_threshold"`
	ExplorationBudget  int  `toml:"exploration_budget"`
}

// Workflow contains pipeline timing controls.
type Workflow struct {
	FetchTimeoutSeconds   int `toml:"fetch_timeout_seconds"`
	SynthesisBatchSize    int `toml:"synthesis_batch_size"`
	SynthesisBatchPauseMs int `toml:"synthesis_batch_pause_ms"`
	MemoryMaxAgeDays      int `toml:"memory_max_age_days"`
}

// Scheduler contains settings for recurring brief generation.
type Scheduler struct {
	Enabled  bool     `toml:"enabled"`
	CronExpr string   `toml:"cron_expr"`
	Users    []string `toml:"users"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for daybrief.
type Config struct {
	Paths     Paths     `toml:"paths"`
	LLM       LLM       `toml:"llm"`
	Sources   Sources   `toml:"sources"`
	Ranking   Ranking   `toml:"ranking"`
	Learning  Learning  `toml:"learning"`
	Workflow  Workflow  `toml:"workflow"`
	Scheduler Scheduler `toml:"scheduler"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/daybrief/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("daybrief.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the data and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// SourceEnabled reports whether the named source connector is enabled.
func (c *Config) SourceEnabled(name string) bool {
	for _, enabled := range c.Sources.Enabled {
		if strings.EqualFold(strings.TrimSpace(enabled), name) {
			return true
		}
	}
	return false
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}
