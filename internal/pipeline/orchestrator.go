package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"daybrief/internal/brief"
	"daybrief/internal/bundles"
	"daybrief/internal/config"
	"daybrief/internal/features"
	"daybrief/internal/learning"
	"daybrief/internal/logging"
	"daybrief/internal/memory"
	"daybrief/internal/novelty"
	"daybrief/internal/ranking"
	"daybrief/internal/services"
	"daybrief/internal/sources"
	"daybrief/internal/synthesis"
)

// GenerateRequest describes one brief-generation run.
type GenerateRequest struct {
	UserID   string
	Prefs    brief.Preferences
	Since    time.Time
	Modules  []string
	Progress ProgressFunc
}

// Orchestrator owns the full generation pipeline and its collaborators.
type Orchestrator struct {
	cfg       *config.Config
	registry  *sources.Registry
	memory    *memory.Store
	bundles   *bundles.Store
	detector  *novelty.Detector
	extractor *features.Extractor
	synth     *synthesis.Synthesizer
	users     *Registry
	logger    *slog.Logger
	now       func() time.Time
	newID     func() string
}

// NewOrchestrator wires the pipeline from its collaborators. The synthesizer
// may be nil; synthesis then degrades to the deterministic fallbacks.
func NewOrchestrator(
	cfg *config.Config,
	registry *sources.Registry,
	memoryStore *memory.Store,
	bundleStore *bundles.Store,
	synth *synthesis.Synthesizer,
	logger *slog.Logger,
) *Orchestrator {
	return &Orchestrator{
		cfg:       cfg,
		registry:  registry,
		memory:    memoryStore,
		bundles:   bundleStore,
		detector:  novelty.NewDetector(memoryStore, logger),
		extractor: features.NewExtractor(),
		synth:     synth,
		users:     NewRegistry(cfg, memoryStore, logger),
		logger:    logging.NewComponentLogger(logger, "pipeline"),
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// WithClock overrides the orchestrator's time source (used in tests).
func (o *Orchestrator) WithClock(now func() time.Time) *Orchestrator {
	o.now = now
	o.extractor.WithClock(now)
	o.detector.WithClock(now)
	return o
}

// Users exposes the per-user ranker/learning registry, shared with feedback
// ingestion.
func (o *Orchestrator) Users() *Registry {
	return o.users
}

// fetchOutcome is one source's fan-out result.
type fetchOutcome struct {
	name  string
	items []sources.RawItem
	err   error
}

// GenerateBrief runs the whole pipeline for one user and always returns a
// bundle. The error return is reserved for programmer-level misuse (empty
// user ID); operational failures land in the bundle's run metadata.
func (o *Orchestrator) GenerateBrief(ctx context.Context, req GenerateRequest) (*brief.Bundle, error) {
	if req.UserID == "" {
		notify(req.Progress, StageError, "user id required")
		return nil, services.Wrap(services.ErrValidation, "pipeline", "generate", "user id required", nil)
	}

	started := o.now().UTC()
	runID := o.newID()
	ctx = services.WithUserID(services.WithRunID(ctx, runID), req.UserID)
	logger := o.logger.With(
		logging.String(logging.FieldUserID, req.UserID),
		logging.String(logging.FieldRunID, runID),
	)

	moduleNames := o.resolveModules(req.Modules)
	notify(req.Progress, StageInit, fmt.Sprintf("generating brief for %d sources", len(moduleNames)))
	logger.Info("starting brief generation",
		logging.Int("sources", len(moduleNames)),
		logging.Time("since", req.Since),
	)

	var (
		warnings []string
		runErrs  []string
	)

	// Fan out one fetch per source; failures are captured per source and
	// never cancel siblings.
	notify(req.Progress, StageFetch, "fetching sources")
	outcomes := o.fetchAll(ctx, moduleNames, req)

	// Normalize in requested-module order so downstream ordering is
	// deterministic regardless of fetch completion order.
	notify(req.Progress, StageNormalize, "normalizing items")
	moduleItems := make(map[string][]*brief.Item, len(outcomes))
	moduleStatus := make(map[string]brief.ModuleStatus, len(outcomes))
	for _, name := range moduleNames {
		outcome := outcomes[name]
		status := brief.ModuleOK
		if outcome.err != nil {
			if errors.Is(outcome.err, services.ErrSourceUnavailable) {
				status = brief.ModuleUnavailable
				warnings = append(warnings, outcome.err.Error())
			} else {
				status = brief.ModuleError
				runErrs = append(runErrs, outcome.err.Error())
			}
			logger.Warn("source fetch failed",
				logging.String(logging.FieldSource, name),
				logging.Error(outcome.err),
			)
		}
		moduleStatus[name] = status

		items := make([]*brief.Item, 0, len(outcome.items))
		for _, raw := range outcome.items {
			item, err := brief.Normalize(name, raw.Type, raw.Fields, req.Prefs, o.now())
			if err != nil {
				warnings = append(warnings, err.Error())
				logger.Debug("dropping malformed item",
					logging.String(logging.FieldSource, name),
					logging.Error(err),
				)
				continue
			}
			items = append(items, item)
		}
		moduleItems[name] = items
	}

	notify(req.Progress, StageNovelty, "classifying novelty")
	for _, name := range moduleNames {
		if len(moduleItems[name]) == 0 {
			continue
		}
		if err := o.detector.DetectBatch(ctx, req.UserID, moduleItems[name]); err != nil {
			warnings = append(warnings, err.Error())
			logger.Warn("novelty detection failed for source",
				logging.String(logging.FieldSource, name),
				logging.Error(err),
			)
		}
	}
	o.applyLowSignalPolicy(moduleItems)

	notify(req.Progress, StageRanking, "scoring items")
	ranker, engine := o.users.ForUser(req.UserID)
	all := make([]*brief.Item, 0)
	for _, name := range moduleNames {
		all = append(all, moduleItems[name]...)
	}
	for _, item := range all {
		scores := o.extractor.Extract(item, req.Prefs)
		item.Ranking = &scores
	}
	ranker.Rank(all)
	if o.cfg.Learning.Enabled && engine != nil {
		o.blendScores(all, engine)
	}

	notify(req.Progress, StageSelection, "selecting highlights")
	highlights := ranking.SelectHighlights(all, o.cfg.Ranking.MaxHighlights)
	selected := make(map[string]bool, len(highlights))
	for _, item := range highlights {
		selected[item.ItemRef] = true
	}
	var exploration []*brief.Item
	if o.cfg.Learning.Enabled && engine != nil {
		exploration = engine.SelectExploration(all, selected, o.cfg.Learning.ExplorationBudget)
	}

	modules := make(map[string]brief.ModuleResult, len(moduleNames))
	for _, name := range moduleNames {
		items := moduleItems[name]
		// Items come back rank-ordered because Rank sorted the shared
		// pointers; re-derive each module's order from the global one.
		ranked := make([]*brief.Item, 0, len(items))
		for _, item := range all {
			if item.Source == name {
				ranked = append(ranked, item)
			}
		}
		result := brief.ModuleResult{
			Status: moduleStatus[name],
			Items:  ranking.CapModule(ranked, o.cfg.Ranking.MaxPerModule),
		}
		for _, item := range result.Items {
			if item.Novelty == nil {
				continue
			}
			switch item.Novelty.Label {
			case brief.NoveltyNew:
				result.NewCount++
			case brief.NoveltyUpdated:
				result.UpdatedCount++
			}
		}
		modules[name] = result
	}
	modules = ranking.EnforceTotalCap(modules, o.cfg.Ranking.MaxTotal)

	bundle := &brief.Bundle{
		BriefID:       o.newID(),
		UserID:        req.UserID,
		GeneratedAt:   started,
		Since:         req.Since,
		TopHighlights: highlights,
		Exploration:   exploration,
		Modules:       modules,
	}

	notify(req.Progress, StageSynthesis, "writing summaries")
	if o.synth != nil {
		for _, warning := range o.synth.AnnotateHighlights(ctx, highlights) {
			warnings = append(warnings, warning.Error())
		}
		for _, name := range moduleNames {
			module := modules[name]
			summary, err := o.synth.SummarizeModule(ctx, name, module)
			if err != nil {
				warnings = append(warnings, err.Error())
			}
			module.Summary = summary
			modules[name] = module
		}
		summary, err := o.synth.SummarizeBrief(ctx, bundle)
		if err != nil {
			warnings = append(warnings, err.Error())
		}
		bundle.Summary = summary
	}

	notify(req.Progress, StagePackaging, "packaging bundle")
	bundle.RunMetadata = brief.RunMetadata{
		Status:    deriveStatus(runErrs, warnings),
		LatencyMS: o.now().UTC().Sub(started).Milliseconds(),
		Warnings:  warnings,
		Errors:    runErrs,
	}

	if o.bundles != nil {
		if err := o.bundles.Save(ctx, bundle); err != nil {
			bundle.RunMetadata.Warnings = append(bundle.RunMetadata.Warnings,
				fmt.Sprintf("save bundle: %v", err))
			logger.Warn("bundle persistence failed", logging.Error(err))
		}
	}

	notify(req.Progress, StageComplete, "brief ready")
	logger.Info("brief generation finished",
		logging.String(logging.FieldBriefID, bundle.BriefID),
		logging.String("status", string(bundle.RunMetadata.Status)),
		logging.Int64("latency_ms", bundle.RunMetadata.LatencyMS),
		logging.Int("highlights", len(highlights)),
	)
	return bundle, nil
}

// resolveModules returns the requested module names, or the configured
// enabled sources when the request leaves them unset.
func (o *Orchestrator) resolveModules(requested []string) []string {
	if len(requested) > 0 {
		return requested
	}
	return o.cfg.Sources.Enabled
}

func (o *Orchestrator) fetchAll(ctx context.Context, names []string, req GenerateRequest) map[string]fetchOutcome {
	fetchReq := sources.FetchRequest{
		Since: req.Since,
		Limit: o.cfg.Sources.FetchLimit,
		Prefs: req.Prefs,
	}
	timeout := time.Duration(o.cfg.Workflow.FetchTimeoutSeconds) * time.Second

	results := make(chan fetchOutcome, len(names))
	var wg sync.WaitGroup
	for _, name := range names {
		connector := o.registry.Get(name)
		if connector == nil {
			results <- fetchOutcome{
				name: name,
				err: services.Wrap(services.ErrSourceUnavailable,
					"fetch", name, "no connector registered", nil),
			}
			continue
		}
		wg.Add(1)
		go func(name string, connector sources.Connector) {
			defer wg.Done()
			fetchCtx := ctx
			if timeout > 0 {
				var cancel context.CancelFunc
				fetchCtx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}
			items, err := connector.Fetch(fetchCtx, fetchReq)
			if err != nil && !errors.Is(err, services.ErrSourceUnavailable) && !errors.Is(err, services.ErrSourceFetch) {
				err = services.Wrap(services.ErrSourceFetch, "fetch", name, "connector failed", err)
			}
			results <- fetchOutcome{name: name, items: items, err: err}
		}(name, connector)
	}
	wg.Wait()
	close(results)

	outcomes := make(map[string]fetchOutcome, len(names))
	for outcome := range results {
		outcomes[outcome.name] = outcome
	}
	return outcomes
}

// applyLowSignalPolicy downgrades heavily repeated items so they stop
// crowding out fresh content.
func (o *Orchestrator) applyLowSignalPolicy(moduleItems map[string][]*brief.Item) {
	threshold := o.cfg.Ranking.LowSignalRepeatSeenings
	if threshold <= 0 {
		return
	}
	for _, items := range moduleItems {
		for _, item := range items {
			if item.Novelty == nil || item.Novelty.Label != brief.NoveltyRepeat {
				continue
			}
			if item.Novelty.SeenCount >= threshold {
				novelty.MarkLowSignal(item, fmt.Sprintf("repeated %d times", item.Novelty.SeenCount))
			}
		}
	}
}

// blendScores folds the learned prediction into each item's final score and
// restores descending order.
func (o *Orchestrator) blendScores(items []*brief.Item, engine *learning.Engine) {
	for _, item := range items {
		if item.Ranking == nil {
			continue
		}
		prediction := engine.Predict(item.Ranking.Features(), item.Ranking.FinalScore)
		item.Ranking.FinalScore = learning.Blend(prediction, item.Ranking.FinalScore)
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].FinalScore() > items[j].FinalScore()
	})
}

// deriveStatus maps the run's error bookkeeping onto the informational
// status: any fetch error wins, warnings alone only degrade.
func deriveStatus(errs, warnings []string) brief.RunStatus {
	switch {
	case len(errs) > 0:
		return brief.RunError
	case len(warnings) > 0:
		return brief.RunDegraded
	default:
		return brief.RunOK
	}
}
