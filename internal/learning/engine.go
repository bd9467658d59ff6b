package learning

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"time"

	"daybrief/internal/brief"
	"daybrief/internal/config"
	"daybrief/internal/logging"
	"daybrief/internal/memory"
)

const ensembleSize = 5

// fallbackConfidence caps how much an untrained engine can claim to know.
const fallbackConfidence = 0.3

// Prediction is the learned layer's view of one item.
type Prediction struct {
	Score             float64            `json:"score"`
	Uncertainty       float64            `json:"uncertainty"`
	Confidence        float64            `json:"confidence"`
	Trained           bool               `json:"trained"`
	FeatureImportance map[string]float64 `json:"feature_importance,omitempty"`
}

var featureNames = [featureCount]string{
	"relevance", "urgency", "credibility", "impact", "actionability",
}

// TargetForAction maps a feedback action to its regression target. The second
// return is false for actions the learner ignores.
func TargetForAction(action brief.FeedbackAction) (float64, bool) {
	switch action {
	case brief.FeedbackSave:
		return 0.9, true
	case brief.FeedbackThumbUp:
		return 0.8, true
	case brief.FeedbackOpen:
		return 0.6, true
	case brief.FeedbackThumbDown:
		return 0.2, true
	case brief.FeedbackDismiss, brief.FeedbackLessLikeThis:
		return 0.1, true
	default:
		return 0, false
	}
}

// Engine trains and serves the learned scorer for one user. Predictions never
// block on training; retraining happens on a background goroutine and swaps
// the ensemble in atomically.
type Engine struct {
	userID string
	store  *memory.Store
	cfg    config.Learning
	logger *slog.Logger
	now    func() time.Time

	mu         sync.RWMutex
	models     []*ridgeModel
	trainedOn  int
	sinceTrain int
	retraining bool
}

// NewEngine constructs the engine for one user. Samples persisted by earlier
// processes are loaded immediately, so an engine over a mature store serves
// learned predictions from its first call.
func NewEngine(userID string, store *memory.Store, cfg config.Learning, logger *slog.Logger) *Engine {
	e := &Engine{
		userID: userID,
		store:  store,
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "learning"),
		now:    time.Now,
	}
	e.bootstrap()
	return e
}

// bootstrap fits the initial ensemble from stored samples. Failures leave the
// engine untrained; the next retrain retries.
func (e *Engine) bootstrap() {
	if e.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Train(ctx); err != nil {
		e.logger.Warn("initial model training failed",
			logging.String(logging.FieldUserID, e.userID),
			logging.Error(err),
		)
	}
}

// WithClock overrides the engine's time source (used in tests).
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// Trained reports whether an ensemble is currently loaded.
func (e *Engine) Trained() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.models) > 0
}

// Predict scores the features with the current ensemble. Before enough
// training data exists the prediction wraps the rule score at low confidence,
// so blending reduces to the rules.
func (e *Engine) Predict(features [featureCount]float64, ruleScore float64) Prediction {
	e.mu.RLock()
	models := e.models
	e.mu.RUnlock()

	if len(models) == 0 {
		return Prediction{
			Score:       ruleScore,
			Uncertainty: 1 - fallbackConfidence,
			Confidence:  fallbackConfidence,
		}
	}

	predictions := make([]float64, len(models))
	var mean float64
	for i, model := range models {
		predictions[i] = model.predict(features)
		mean += predictions[i]
	}
	mean /= float64(len(predictions))

	var variance float64
	for _, p := range predictions {
		variance += (p - mean) * (p - mean)
	}
	variance /= float64(len(predictions))
	stddev := math.Sqrt(variance)

	uncertainty := math.Min(1, 2*stddev)
	return Prediction{
		Score:             mean,
		Uncertainty:       uncertainty,
		Confidence:        1 - uncertainty,
		Trained:           true,
		FeatureImportance: importance(models),
	}
}

// Blend combines the learned prediction with the rule score by confidence.
func Blend(prediction Prediction, ruleScore float64) float64 {
	return prediction.Confidence*prediction.Score + (1-prediction.Confidence)*ruleScore
}

// importance averages absolute weights across the ensemble and normalizes
// them to sum to one.
func importance(models []*ridgeModel) map[string]float64 {
	var totals [featureCount]float64
	for _, model := range models {
		for i, w := range model.weights {
			totals[i] += math.Abs(w)
		}
	}
	var sum float64
	for _, t := range totals {
		sum += t
	}
	if sum == 0 {
		return nil
	}
	result := make(map[string]float64, featureCount)
	for i, name := range featureNames {
		result[name] = totals[i] / sum
	}
	return result
}

// Train fits a fresh ensemble from the user's stored training samples. With
// fewer than the configured minimum the engine stays (or reverts to)
// untrained.
func (e *Engine) Train(ctx context.Context) error {
	samples, err := e.store.TrainingSamples(ctx, e.userID, 500)
	if err != nil {
		return err
	}
	if len(samples) < e.cfg.MinTrainingSamples {
		e.mu.Lock()
		e.models = nil
		e.trainedOn = len(samples)
		e.mu.Unlock()
		return nil
	}

	models := make([]*ridgeModel, 0, ensembleSize)
	for i := 0; i < ensembleSize; i++ {
		// Seeding on sample count keeps training deterministic for a
		// given dataset while still varying across retrains.
		seed := int64(len(samples))*int64(ensembleSize) + int64(i)
		model := fitRidge(bootstrap(samples, seed))
		if model != nil {
			models = append(models, model)
		}
	}
	if len(models) == 0 {
		return nil
	}

	e.mu.Lock()
	e.models = models
	e.trainedOn = len(samples)
	e.sinceTrain = 0
	e.mu.Unlock()

	e.logger.Info("trained scoring ensemble",
		logging.String(logging.FieldUserID, e.userID),
		logging.Int("samples", len(samples)),
		logging.Int("models", len(models)),
	)
	return nil
}

// NoteSample records that a new training sample was persisted and kicks off
// an asynchronous retrain once enough have accumulated. It never blocks.
func (e *Engine) NoteSample() {
	e.mu.Lock()
	e.sinceTrain++
	shouldTrain := e.sinceTrain >= e.cfg.RetrainThreshold && !e.retraining
	if shouldTrain {
		e.retraining = true
	}
	e.mu.Unlock()

	if !shouldTrain {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := e.Train(ctx); err != nil {
			e.logger.Warn("background retrain failed",
				logging.String(logging.FieldUserID, e.userID),
				logging.Error(err),
			)
		}
		e.mu.Lock()
		e.retraining = false
		e.mu.Unlock()
	}()
}

// SelectExploration picks up to budget items the learner most wants feedback
// on: high model uncertainty, sources missing from the main selection, and
// recent items, weighted 0.6/0.3/0.1. Items already selected are skipped.
func (e *Engine) SelectExploration(candidates []*brief.Item, selected map[string]bool, budget int) []*brief.Item {
	if budget <= 0 {
		return nil
	}
	now := e.now().UTC()

	selectedSources := make(map[string]bool)
	for _, item := range candidates {
		if item != nil && selected[item.ItemRef] {
			selectedSources[item.Source] = true
		}
	}

	type scored struct {
		item     *brief.Item
		priority float64
	}
	pool := make([]scored, 0, len(candidates))
	for _, item := range candidates {
		if item == nil || selected[item.ItemRef] || item.Ranking == nil {
			continue
		}
		prediction := e.Predict(item.Ranking.Features(), item.FinalScore())

		diversity := 0.0
		if !selectedSources[item.Source] {
			diversity = 1.0
		}
		age := now.Sub(item.Timestamp)
		recency := clamp01(1 - age.Hours()/48)

		pool = append(pool, scored{
			item:     item,
			priority: 0.6*prediction.Uncertainty + 0.3*diversity + 0.1*recency,
		})
	}

	// Insertion-ordered partial sort keeps ties in candidate order.
	picks := make([]*brief.Item, 0, budget)
	for len(picks) < budget && len(pool) > 0 {
		best := 0
		for i := 1; i < len(pool); i++ {
			if pool[i].priority > pool[best].priority {
				best = i
			}
		}
		picks = append(picks, pool[best].item)
		pool = append(pool[:best], pool[best+1:]...)
	}
	return picks
}
