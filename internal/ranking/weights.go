package ranking

import (
	"fmt"
	"math"

	"daybrief/internal/brief"
	"daybrief/internal/config"
)

const weightTolerance = 1e-6

// Weights holds the per-feature coefficients of the rule-based score.
type Weights struct {
	Relevance     float64 `json:"relevance"`
	Urgency       float64 `json:"urgency"`
	Credibility   float64 `json:"credibility"`
	Impact        float64 `json:"impact"`
	Actionability float64 `json:"actionability"`
}

// DefaultWeights returns the built-in weighting.
func DefaultWeights() Weights {
	return Weights{
		Relevance:     0.45,
		Urgency:       0.20,
		Credibility:   0.15,
		Impact:        0.10,
		Actionability: 0.10,
	}
}

// WeightsFromConfig builds normalized weights from the ranking section.
func WeightsFromConfig(cfg config.Ranking) (Weights, error) {
	w := Weights{
		Relevance:     cfg.RelevanceWeight,
		Urgency:       cfg.UrgencyWeight,
		Credibility:   cfg.CredibilityWeight,
		Impact:        cfg.ImpactWeight,
		Actionability: cfg.ActionabilityWeight,
	}
	return w.Normalized()
}

// Sum returns the total mass of the weights.
func (w Weights) Sum() float64 {
	return w.Relevance + w.Urgency + w.Credibility + w.Impact + w.Actionability
}

// Normalized scales the weights so they sum to 1.0. Weights whose sum is
// already within tolerance are returned unchanged.
func (w Weights) Normalized() (Weights, error) {
	for name, v := range map[string]float64{
		"relevance":     w.Relevance,
		"urgency":       w.Urgency,
		"credibility":   w.Credibility,
		"impact":        w.Impact,
		"actionability": w.Actionability,
	} {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return Weights{}, fmt.Errorf("%s weight must be a non-negative finite number, got %v", name, v)
		}
	}
	sum := w.Sum()
	if sum <= 0 {
		return Weights{}, fmt.Errorf("ranking weights must have positive sum, got %v", sum)
	}
	if math.Abs(sum-1.0) <= weightTolerance {
		return w, nil
	}
	return Weights{
		Relevance:     w.Relevance / sum,
		Urgency:       w.Urgency / sum,
		Credibility:   w.Credibility / sum,
		Impact:        w.Impact / sum,
		Actionability: w.Actionability / sum,
	}, nil
}

// Score computes the convex combination of the item's features.
func (w Weights) Score(s brief.RankingScores) float64 {
	return w.Relevance*s.Relevance +
		w.Urgency*s.Urgency +
		w.Credibility*s.Credibility +
		w.Impact*s.Impact +
		w.Actionability*s.Actionability
}
