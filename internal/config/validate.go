package config

import (
	"errors"
	"fmt"
	"strings"
)

var supportedProviders = map[string]struct{}{
	"claude": {},
	"openai": {},
	"ollama": {},
}

// Validate checks configuration invariants that cannot be repaired by
// normalization.
func (c *Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.Paths.DataDir) == "" {
		problems = append(problems, "paths.data_dir must be set")
	}
	if _, ok := supportedProviders[c.LLM.Provider]; !ok {
		problems = append(problems, fmt.Sprintf("llm.provider %q is not one of claude, openai, ollama", c.LLM.Provider))
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		problems = append(problems, "llm.temperature must be between 0 and 2")
	}

	weights := []struct {
		name  string
		value float64
	}{
		{"ranking.relevance_weight", c.Ranking.RelevanceWeight},
		{"ranking.urgency_weight", c.Ranking.UrgencyWeight},
		{"ranking.credibility_weight", c.Ranking.CredibilityWeight},
		{"ranking.impact_weight", c.Ranking.ImpactWeight},
		{"ranking.actionability_weight", c.Ranking.ActionabilityWeight},
	}
	sum := 0.0
	for _, w := range weights {
		if w.value < 0 {
			problems = append(problems, w.name+" must not be negative")
		}
		sum += w.value
	}
	if sum <= 0 {
		problems = append(problems, "ranking weights must not all be zero")
	}

	if c.Scheduler.Enabled {
		if c.Scheduler.CronExpr == "" {
			problems = append(problems, "scheduler.cron_expr must be set when scheduler is enabled")
		}
		if len(c.Scheduler.Users) == 0 {
			problems = append(problems, "scheduler.users must list at least one user when scheduler is enabled")
		}
	}

	if len(problems) > 0 {
		return errors.New("invalid configuration: " + strings.Join(problems, "; "))
	}
	return nil
}
