package config

import "strings"

func (c *Config) normalize() error {
	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return err
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return err
	}

	c.LLM.Provider = strings.ToLower(strings.TrimSpace(c.LLM.Provider))
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	c.LLM.BaseURL = strings.TrimSpace(c.LLM.BaseURL)
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)

	enabled := make([]string, 0, len(c.Sources.Enabled))
	for _, name := range c.Sources.Enabled {
		if trimmed := strings.ToLower(strings.TrimSpace(name)); trimmed != "" {
			enabled = append(enabled, trimmed)
		}
	}
	c.Sources.Enabled = enabled

	if c.Sources.FetchLimit <= 0 {
		c.Sources.FetchLimit = Default().Sources.FetchLimit
	}
	if c.Workflow.FetchTimeoutSeconds <= 0 {
		c.Workflow.FetchTimeoutSeconds = Default().Workflow.FetchTimeoutSeconds
	}
	if c.Workflow.SynthesisBatchSize <= 0 {
		c.Workflow.SynthesisBatchSize = Default().Workflow.SynthesisBatchSize
	}
	if c.Workflow.MemoryMaxAgeDays <= 0 {
		c.Workflow.MemoryMaxAgeDays = Default().Workflow.MemoryMaxAgeDays
	}
	if c.Ranking.MaxHighlights <= 0 {
		c.Ranking.MaxHighlights = Default().Ranking.MaxHighlights
	}
	if c.Ranking.MaxPerModule <= 0 {
		c.Ranking.MaxPerModule = Default().Ranking.MaxPerModule
	}
	if c.Ranking.MaxTotal <= 0 {
		c.Ranking.MaxTotal = Default().Ranking.MaxTotal
	}
	if c.Learning.MinTrainingSamples <= 0 {
		c.Learning.MinTrainingSamples = Default().Learning.MinTrainingSamples
	}
	if c.Learning.RetrainThreshold <= 0 {
		c.Learning.RetrainThreshold = Default().Learning.RetrainThreshold
	}
	if c.Learning.ExplorationBudget < 0 {
		c.Learning.ExplorationBudget = 0
	}

	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}

	c.Scheduler.CronExpr = strings.TrimSpace(c.Scheduler.CronExpr)

	return nil
}
