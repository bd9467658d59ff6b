package ranking

import (
	"sort"

	"daybrief/internal/brief"
)

// Caps bounds how much of the ranked pool ends up in a bundle.
type Caps struct {
	MaxHighlights int
	MaxPerModule  int
	MaxTotal      int
}

// SelectHighlights picks the top-scoring items for the highlight strip,
// skipping low-signal items. Input must already be ranked; the returned slice
// shares the input's item pointers.
func SelectHighlights(ranked []*brief.Item, max int) []*brief.Item {
	if max <= 0 {
		return nil
	}
	highlights := make([]*brief.Item, 0, max)
	for _, item := range ranked {
		if item == nil {
			continue
		}
		if item.Novelty != nil && item.Novelty.Label == brief.NoveltyLowSignal {
			continue
		}
		highlights = append(highlights, item)
		if len(highlights) == max {
			break
		}
	}
	return highlights
}

// CapModule truncates one module's ranked item list to the per-module cap.
// Applying it to already-capped input returns the input unchanged.
func CapModule(items []*brief.Item, max int) []*brief.Item {
	if max <= 0 || len(items) <= max {
		return items
	}
	return items[:max]
}

// EnforceTotalCap trims the combined module buckets down to the total cap by
// dropping the lowest-scoring items, regardless of which module holds them.
// Surviving items keep their order within each module, and a second
// application is a no-op.
func EnforceTotalCap(modules map[string]brief.ModuleResult, max int) map[string]brief.ModuleResult {
	if max <= 0 {
		return modules
	}
	total := 0
	for _, module := range modules {
		total += len(module.Items)
	}
	if total <= max {
		return modules
	}

	type placed struct {
		score  float64
		module string
		index  int
	}
	all := make([]placed, 0, total)
	for name, module := range modules {
		for i, item := range module.Items {
			all = append(all, placed{score: item.FinalScore(), module: name, index: i})
		}
	}
	// Lowest score first; ties break toward later positions so earlier
	// items within a module survive, then by module name so cross-module
	// ties drop the same item every run.
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].score != all[j].score {
			return all[i].score < all[j].score
		}
		if all[i].index != all[j].index {
			return all[i].index > all[j].index
		}
		return all[i].module > all[j].module
	})

	drop := make(map[string]map[int]bool)
	for _, victim := range all[:total-max] {
		if drop[victim.module] == nil {
			drop[victim.module] = make(map[int]bool)
		}
		drop[victim.module][victim.index] = true
	}

	trimmed := make(map[string]brief.ModuleResult, len(modules))
	for name, module := range modules {
		kept := make([]*brief.Item, 0, len(module.Items))
		for i, item := range module.Items {
			if !drop[name][i] {
				kept = append(kept, item)
			}
		}
		module.Items = kept
		trimmed[name] = module
	}
	return trimmed
}
