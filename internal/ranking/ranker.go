package ranking

import (
	"log/slog"
	"sort"
	"sync"

	"daybrief/internal/brief"
	"daybrief/internal/logging"
)

// Ranker scores and orders items for one user. Weight adjustments from
// feedback are serialized against concurrent ranking.
type Ranker struct {
	logger *slog.Logger

	mu      sync.RWMutex
	weights Weights
}

// NewRanker constructs a ranker with the given starting weights.
func NewRanker(weights Weights, logger *slog.Logger) *Ranker {
	return &Ranker{
		logger:  logging.NewComponentLogger(logger, "ranking"),
		weights: weights,
	}
}

// Weights returns the current weight snapshot.
func (r *Ranker) Weights() Weights {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.weights
}

// Rank fills each item's FinalScore from its feature scores and sorts the
// slice by descending score. Equal scores keep their input order, so repeated
// ranking of the same input is deterministic. Items without feature scores
// rank at the bottom.
func (r *Ranker) Rank(items []*brief.Item) {
	weights := r.Weights()
	for _, item := range items {
		if item == nil || item.Ranking == nil {
			continue
		}
		item.Ranking.FinalScore = weights.Score(*item.Ranking)
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].FinalScore() > items[j].FinalScore()
	})
}

// AdjustFromFeedback nudges the weights from a window of feedback events.
// When negative reactions outnumber positive ones, mass shifts from urgency
// to relevance; the result is renormalized so scores stay convex.
func (r *Ranker) AdjustFromFeedback(events []brief.FeedbackEvent) (Weights, bool) {
	var up, down int
	for _, event := range events {
		switch event.Action {
		case brief.FeedbackThumbUp:
			up++
		case brief.FeedbackThumbDown:
			down++
		}
	}
	if down <= up {
		return r.Weights(), false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	shift := 0.05
	if r.weights.Urgency < shift {
		shift = r.weights.Urgency
	}
	adjusted := r.weights
	adjusted.Urgency -= shift
	adjusted.Relevance += shift

	normalized, err := adjusted.Normalized()
	if err != nil {
		// Adjustment can only redistribute positive mass, so this is
		// unreachable; keep the previous weights if it ever trips.
		return r.weights, false
	}
	r.weights = normalized

	r.logger.Info("adjusted ranking weights from feedback",
		logging.Int("thumb_up", up),
		logging.Int("thumb_down", down),
		logging.Float64("relevance", normalized.Relevance),
		logging.Float64("urgency", normalized.Urgency),
	)
	return normalized, true
}
