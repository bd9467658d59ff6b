// Package scheduler runs recurring brief generation on a cron expression.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"daybrief/internal/brief"
	"daybrief/internal/config"
	"daybrief/internal/logging"
	"daybrief/internal/memory"
	"daybrief/internal/pipeline"
)

// Generator is the slice of the orchestrator the scheduler drives.
type Generator interface {
	GenerateBrief(ctx context.Context, req pipeline.GenerateRequest) (*brief.Bundle, error)
}

// Service triggers one brief per configured user on every cron firing, then
// prunes aged memory records.
type Service struct {
	cfg       config.Scheduler
	workflow  config.Workflow
	generator Generator
	memory    *memory.Store
	logger    *slog.Logger

	mu   sync.Mutex
	cron *cron.Cron
}

// NewService wires a scheduler over the generation pipeline.
func NewService(cfg *config.Config, generator Generator, memoryStore *memory.Store, logger *slog.Logger) *Service {
	return &Service{
		cfg:       cfg.Scheduler,
		workflow:  cfg.Workflow,
		generator: generator,
		memory:    memoryStore,
		logger:    logging.NewComponentLogger(logger, "scheduler"),
	}
}

// Start registers the cron entry and begins firing. It returns immediately;
// runs happen on the cron goroutine until Stop or context cancellation.
func (s *Service) Start(ctx context.Context) error {
	if !s.cfg.Enabled {
		return fmt.Errorf("scheduler disabled in configuration")
	}
	if len(s.cfg.Users) == 0 {
		return fmt.Errorf("scheduler has no users configured")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		return fmt.Errorf("scheduler already started")
	}

	runner := cron.New()
	if _, err := runner.AddFunc(s.cfg.CronExpr, func() {
		s.runAll(ctx)
	}); err != nil {
		return fmt.Errorf("register cron entry %q: %w", s.cfg.CronExpr, err)
	}
	runner.Start()
	s.cron = runner

	s.logger.Info("scheduler started",
		logging.String("cron", s.cfg.CronExpr),
		logging.Int("users", len(s.cfg.Users)),
	)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()
	return nil
}

// Stop halts the cron runner and waits for in-flight runs to finish.
func (s *Service) Stop() {
	s.mu.Lock()
	runner := s.cron
	s.cron = nil
	s.mu.Unlock()
	if runner == nil {
		return
	}

	stopCtx := runner.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(30 * time.Second):
		s.logger.Warn("timed out waiting for scheduled runs to finish")
	}
	s.logger.Info("scheduler stopped")
}

// RunOnce generates a brief for every configured user immediately. The cron
// entry calls this on each firing; the CLI exposes it for manual runs.
func (s *Service) RunOnce(ctx context.Context) {
	s.runAll(ctx)
}

func (s *Service) runAll(ctx context.Context) {
	since := time.Now().UTC().Add(-24 * time.Hour)
	for _, userID := range s.cfg.Users {
		bundle, err := s.generator.GenerateBrief(ctx, pipeline.GenerateRequest{
			UserID: userID,
			Since:  since,
		})
		if err != nil {
			s.logger.Error("scheduled brief failed",
				logging.String(logging.FieldUserID, userID),
				logging.Error(err),
			)
			continue
		}
		s.logger.Info("scheduled brief generated",
			logging.String(logging.FieldUserID, userID),
			logging.String(logging.FieldBriefID, bundle.BriefID),
			logging.String("status", string(bundle.RunMetadata.Status)),
		)

		if s.memory != nil && s.workflow.MemoryMaxAgeDays > 0 {
			removed, err := s.memory.Prune(ctx, userID, s.workflow.MemoryMaxAgeDays)
			if err != nil {
				s.logger.Warn("memory prune failed",
					logging.String(logging.FieldUserID, userID),
					logging.Error(err),
				)
				continue
			}
			if removed > 0 {
				s.logger.Info("pruned aged memory records",
					logging.String(logging.FieldUserID, userID),
					logging.Int64("removed", removed),
				)
			}
		}
	}
}
