package learning_test

import (
	"context"
	"math"
	"testing"
	"time"

	"daybrief/internal/brief"
	"daybrief/internal/config"
	"daybrief/internal/learning"
	"daybrief/internal/logging"
	"daybrief/internal/memory"
	"daybrief/internal/testsupport"
)

func newEngine(t *testing.T) (*learning.Engine, *memory.Store, *config.Config) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenMemory(t, cfg)
	engine := learning.NewEngine("u1", store, cfg.Learning, logging.NewNop())
	return engine, store, cfg
}

// seedSamples persists n examples where the target tracks relevance, so a
// trained model should prefer high-relevance items.
func seedSamples(t *testing.T, store *memory.Store, n int) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < n; i++ {
		relevance := float64(i%5) / 4
		sample := memory.TrainingSample{
			Features: [5]float64{relevance, 0.5, 0.5, 0.5, 0.5},
			Target:   0.1 + 0.8*relevance,
		}
		if err := store.AddTrainingSample(ctx, "u1", sample); err != nil {
			t.Fatalf("AddTrainingSample failed: %v", err)
		}
	}
}

func TestTargetForAction(t *testing.T) {
	cases := []struct {
		action brief.FeedbackAction
		want   float64
		ok     bool
	}{
		{brief.FeedbackSave, 0.9, true},
		{brief.FeedbackThumbUp, 0.8, true},
		{brief.FeedbackOpen, 0.6, true},
		{brief.FeedbackThumbDown, 0.2, true},
		{brief.FeedbackDismiss, 0.1, true},
		{brief.FeedbackLessLikeThis, 0.1, true},
		{brief.FeedbackAction("hover"), 0, false},
	}
	for _, tc := range cases {
		got, ok := learning.TargetForAction(tc.action)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("%s: got (%v, %v), want (%v, %v)", tc.action, got, ok, tc.want, tc.ok)
		}
	}
}

func TestUntrainedPredictWrapsRuleScore(t *testing.T) {
	engine, _, _ := newEngine(t)
	prediction := engine.Predict([5]float64{0.9, 0.1, 0.5, 0.5, 0.5}, 0.42)
	if prediction.Trained {
		t.Fatal("engine should start untrained")
	}
	if prediction.Score != 0.42 {
		t.Fatalf("fallback should echo rule score, got %v", prediction.Score)
	}
	if prediction.Confidence > 0.3 {
		t.Fatalf("fallback confidence too high: %v", prediction.Confidence)
	}
	if got := learning.Blend(prediction, 0.42); math.Abs(got-0.42) > 1e-9 {
		t.Fatalf("blending an untrained prediction should return the rule score, got %v", got)
	}
}

func TestTrainBelowMinimumStaysUntrained(t *testing.T) {
	engine, store, cfg := newEngine(t)
	seedSamples(t, store, cfg.Learning.MinTrainingSamples-1)
	if err := engine.Train(context.Background()); err != nil {
		t.Fatalf("Train failed: %v", err)
	}
	if engine.Trained() {
		t.Fatal("engine trained below the sample minimum")
	}
}

func TestNewEngineLoadsPersistedSamples(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenMemory(t, cfg)
	seedSamples(t, store, 24)

	// A fresh engine over a store another process already filled must serve
	// ensemble predictions, not the low-confidence fallback.
	engine := learning.NewEngine("u1", store, cfg.Learning, logging.NewNop())
	if !engine.Trained() {
		t.Fatal("engine over a seeded store should start trained")
	}
	prediction := engine.Predict([5]float64{1.0, 0.5, 0.5, 0.5, 0.5}, 0.5)
	if !prediction.Trained {
		t.Fatal("prediction should come from the ensemble, not the fallback")
	}
}

func TestTrainedPredictionTracksFeedback(t *testing.T) {
	engine, store, _ := newEngine(t)
	seedSamples(t, store, 40)
	if err := engine.Train(context.Background()); err != nil {
		t.Fatalf("Train failed: %v", err)
	}
	if !engine.Trained() {
		t.Fatal("engine should be trained")
	}

	high := engine.Predict([5]float64{1.0, 0.5, 0.5, 0.5, 0.5}, 0.5)
	low := engine.Predict([5]float64{0.0, 0.5, 0.5, 0.5, 0.5}, 0.5)
	if high.Score <= low.Score {
		t.Fatalf("high-relevance item should outscore low: %v vs %v", high.Score, low.Score)
	}
	for _, p := range []learning.Prediction{high, low} {
		if p.Uncertainty < 0 || p.Uncertainty > 1 {
			t.Fatalf("uncertainty out of range: %v", p.Uncertainty)
		}
		if math.Abs(p.Confidence-(1-p.Uncertainty)) > 1e-9 {
			t.Fatalf("confidence %v does not complement uncertainty %v", p.Confidence, p.Uncertainty)
		}
	}
	if len(high.FeatureImportance) != 5 {
		t.Fatalf("expected importance for all five features, got %v", high.FeatureImportance)
	}
	if high.FeatureImportance["relevance"] < high.FeatureImportance["impact"] {
		t.Fatalf("relevance should dominate importance: %v", high.FeatureImportance)
	}
}

func TestTrainingIsDeterministic(t *testing.T) {
	engine, store, _ := newEngine(t)
	seedSamples(t, store, 40)

	features := [5]float64{0.7, 0.3, 0.5, 0.5, 0.5}
	if err := engine.Train(context.Background()); err != nil {
		t.Fatalf("first Train failed: %v", err)
	}
	first := engine.Predict(features, 0.5)
	if err := engine.Train(context.Background()); err != nil {
		t.Fatalf("second Train failed: %v", err)
	}
	second := engine.Predict(features, 0.5)
	if first.Score != second.Score || first.Uncertainty != second.Uncertainty {
		t.Fatalf("retraining on identical data changed the prediction: %+v vs %+v", first, second)
	}
}

func TestBlendWeighsByConfidence(t *testing.T) {
	prediction := learning.Prediction{Score: 0.8, Confidence: 0.75, Uncertainty: 0.25}
	want := 0.75*0.8 + 0.25*0.4
	if got := learning.Blend(prediction, 0.4); math.Abs(got-want) > 1e-9 {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestNoteSampleRetrainsInBackground(t *testing.T) {
	engine, store, cfg := newEngine(t)
	seedSamples(t, store, cfg.Learning.MinTrainingSamples+4)

	// RetrainThreshold in the test config is 2.
	engine.NoteSample()
	engine.NoteSample()

	deadline := time.Now().Add(5 * time.Second)
	for !engine.Trained() {
		if time.Now().After(deadline) {
			t.Fatal("background retrain never completed")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestSelectExplorationRespectsBudgetAndExclusions(t *testing.T) {
	engine, _, _ := newEngine(t)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	engine.WithClock(func() time.Time { return now })

	mk := func(ref, source string, age time.Duration) *brief.Item {
		return &brief.Item{
			ItemRef:   ref,
			Source:    source,
			Timestamp: now.Add(-age),
			Ranking:   &brief.RankingScores{Relevance: 0.5, FinalScore: 0.5},
		}
	}
	candidates := []*brief.Item{
		mk("gmail/a", "gmail", time.Hour),
		mk("gmail/b", "gmail", 2*time.Hour),
		mk("news/c", "news", time.Hour),
		mk("arxiv/d", "arxiv", 72*time.Hour),
	}
	selected := map[string]bool{"gmail/a": true}

	picks := engine.SelectExploration(candidates, selected, 2)
	if len(picks) != 2 {
		t.Fatalf("expected 2 exploration picks, got %d", len(picks))
	}
	for _, pick := range picks {
		if selected[pick.ItemRef] {
			t.Fatalf("exploration picked an already-selected item: %s", pick.ItemRef)
		}
	}
	// The untrained engine gives everything equal uncertainty, so diversity
	// decides: sources absent from the selection go first.
	if picks[0].Source == "gmail" {
		t.Fatalf("first pick should come from an unselected source, got %s", picks[0].ItemRef)
	}
}

func TestSelectExplorationZeroBudget(t *testing.T) {
	engine, _, _ := newEngine(t)
	item := &brief.Item{ItemRef: "x", Ranking: &brief.RankingScores{}}
	if picks := engine.SelectExploration([]*brief.Item{item}, nil, 0); picks != nil {
		t.Fatalf("expected no picks, got %v", picks)
	}
}
