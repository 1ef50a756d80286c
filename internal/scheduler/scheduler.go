// Package scheduler runs periodic maintenance jobs.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// ExportCleaner removes stale export files; implemented by service.ExportService.
type ExportCleaner interface {
	Cleanup(ctx context.Context) (int, error)
}

// Scheduler triggers export cleanup on a cron spec.
type Scheduler struct {
	engine  *cron.Cron
	cleaner ExportCleaner
	spec    string
	timeout time.Duration
	logger  *zap.Logger
}

// New builds a scheduler. An empty spec defaults to hourly.
func New(cleaner ExportCleaner, spec string, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if spec == "" {
		spec = "@hourly"
	}
	return &Scheduler{
		engine:  cron.New(cron.WithLocation(time.UTC)),
		cleaner: cleaner,
		spec:    spec,
		timeout: time.Minute,
		logger:  logger,
	}
}

// Start registers the jobs and starts the cron engine.
func (s *Scheduler) Start() error {
	if _, err := s.engine.AddFunc(s.spec, s.cleanupExports); err != nil {
		return fmt.Errorf("schedule export cleanup %q: %w", s.spec, err)
	}
	s.engine.Start()
	s.logger.Info("scheduler started", zap.String("export_cleanup", s.spec))
	return nil
}

// Stop halts the engine and waits for running jobs, bounded by ctx.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.engine.Stop().Done():
		s.logger.Info("scheduler stopped")
	case <-ctx.Done():
		s.logger.Warn("scheduler stop timed out", zap.Error(ctx.Err()))
	}
}

func (s *Scheduler) cleanupExports() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	removed, err := s.cleaner.Cleanup(ctx)
	if err != nil {
		s.logger.Error("export cleanup failed", zap.Error(err))
		return
	}
	if removed > 0 {
		s.logger.Info("export cleanup finished", zap.Int("removed", removed))
	}
}
