package pipeline

import (
	"log/slog"
	"sync"

	"daybrief/internal/config"
	"daybrief/internal/learning"
	"daybrief/internal/memory"
	"daybrief/internal/ranking"
)

// Registry lazily builds and caches the per-user ranking and learning state.
// Rankers carry feedback-adjusted weights, so the same instance must serve
// every run for a user within one process.
type Registry struct {
	cfg    *config.Config
	store  *memory.Store
	logger *slog.Logger

	mu      sync.Mutex
	rankers map[string]*ranking.Ranker
	engines map[string]*learning.Engine
}

// NewRegistry constructs an empty per-user registry.
func NewRegistry(cfg *config.Config, store *memory.Store, logger *slog.Logger) *Registry {
	return &Registry{
		cfg:     cfg,
		store:   store,
		logger:  logger,
		rankers: make(map[string]*ranking.Ranker),
		engines: make(map[string]*learning.Engine),
	}
}

// ForUser returns the user's ranker and learning engine, creating both on
// first use. The engine is nil when learning is disabled.
func (r *Registry) ForUser(userID string) (*ranking.Ranker, *learning.Engine) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ranker, ok := r.rankers[userID]
	if !ok {
		weights, err := ranking.WeightsFromConfig(r.cfg.Ranking)
		if err != nil {
			weights = ranking.DefaultWeights()
		}
		ranker = ranking.NewRanker(weights, r.logger)
		r.rankers[userID] = ranker
	}

	if !r.cfg.Learning.Enabled {
		return ranker, nil
	}
	engine, ok := r.engines[userID]
	if !ok {
		engine = learning.NewEngine(userID, r.store, r.cfg.Learning, r.logger)
		r.engines[userID] = engine
	}
	return ranker, engine
}
