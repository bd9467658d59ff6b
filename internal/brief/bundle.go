package brief

import "time"

// ModuleStatus reports the outcome of one source's fetch within a run.
type ModuleStatus string

const (
	ModuleOK          ModuleStatus = "ok"
	ModuleUnavailable ModuleStatus = "unavailable"
	ModuleError       ModuleStatus = "error"
)

// ModuleResult is the per-source bucket inside a bundle.
type ModuleResult struct {
	Status       ModuleStatus `json:"status"`
	Summary      string       `json:"summary"`
	NewCount     int          `json:"new_count"`
	UpdatedCount int          `json:"updated_count"`
	Items        []*Item      `json:"items"`
}

// RunStatus summarizes how the pipeline run went.
type RunStatus string

const (
	RunOK       RunStatus = "ok"
	RunDegraded RunStatus = "degraded"
	RunError    RunStatus = "error"
)

// RunMetadata carries informational status about the run that produced a
// bundle. It never drives control flow.
type RunMetadata struct {
	Status    RunStatus `json:"status"`
	LatencyMS int64     `json:"latency_ms"`
	Warnings  []string  `json:"warnings,omitempty"`
	Errors    []string  `json:"errors,omitempty"`
}

// Bundle is the pipeline's terminal artifact: one ranked, deduplicated brief
// for one user. Created once per run and immutable afterwards.
type Bundle struct {
	BriefID       string                  `json:"brief_id"`
	UserID        string                  `json:"user_id"`
	GeneratedAt   time.Time               `json:"generated_at"`
	Since         time.Time               `json:"since"`
	Summary       string                  `json:"summary,omitempty"`
	TopHighlights []*Item                 `json:"top_highlights"`
	Exploration   []*Item                 `json:"exploration,omitempty"`
	Modules       map[string]ModuleResult `json:"modules"`
	RunMetadata   RunMetadata             `json:"run_metadata"`
}

// FindItem returns the bundled item with the given ref, searching highlights,
// exploration picks, and every module bucket.
func (b *Bundle) FindItem(itemRef string) *Item {
	if b == nil || itemRef == "" {
		return nil
	}
	for _, item := range b.TopHighlights {
		if item.ItemRef == itemRef {
			return item
		}
	}
	for _, item := range b.Exploration {
		if item.ItemRef == itemRef {
			return item
		}
	}
	for _, module := range b.Modules {
		for _, item := range module.Items {
			if item.ItemRef == itemRef {
				return item
			}
		}
	}
	return nil
}
