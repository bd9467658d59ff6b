package config

// Default returns the configuration baseline before any file overrides.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: "~/.local/share/daybrief",
			LogDir:  "~/.local/share/daybrief/logs",
		},
		LLM: LLM{
			Provider:       "openai",
			BaseURL:        "",
			Model:          "gpt-4o-mini",
			TimeoutSeconds: 15,
			MaxTokens:      256,
			Temperature:    0.2,
		},
		Sources: Sources{
			Enabled:         []string{"gmail", "calendar", "tasks", "arxiv"},
			FetchLimit:      50,
			ArxivCategories: []string{"cs.AI"},
		},
		Ranking: Ranking{
			RelevanceWeight:         0.45,
			UrgencyWeight:           0.20,
			CredibilityWeight:       0.15,
			ImpactWeight:            0.10,
			ActionabilityWeight:     0.10,
			MaxHighlights:           5,
			MaxPerModule:            8,
			MaxTotal:                30,
			LowSignalRepeatSeenings: 5,
		},
		Learning: Learning{
			Enabled:            true,
			MinTrainingSamples: 20,
			RetrainThreshold:   10,
			ExplorationBudget:  2,
		},
		Workflow: Workflow{
			FetchTimeoutSeconds:   30,
			SynthesisBatchSize:    5,
			SynthesisBatchPauseMs: 500,
			MemoryMaxAgeDays:      90,
		},
		Scheduler: Scheduler{
			Enabled:  false,
			CronExpr: "0 7 * * *",
		},
		Logging: Logging{
			Format: "console",
			Level:  "info",
		},
	}
}
