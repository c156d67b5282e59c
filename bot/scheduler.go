package bot

import (
	"context"
	"fmt"
	"time"

	"commitbot/lifecycle"
	"commitbot/models"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler triggers the daily and weekly cycles on their cron specs.
type Scheduler struct {
	cron   *cron.Cron
	runner lifecycle.Runner
	logger *zap.Logger
}

// NewScheduler registers both cycles. Specs are evaluated in loc.
func NewScheduler(runner lifecycle.Runner, cfg models.ScheduleConfig, loc *time.Location, logger *zap.Logger) (*Scheduler, error) {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Scheduler{
		runner: runner,
		logger: logger.Named("scheduler"),
	}
	s.cron = cron.New(
		cron.WithLocation(loc),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)

	jobs := []struct {
		spec string
		kind lifecycle.Kind
	}{
		{spec: cfg.Daily, kind: lifecycle.KindDaily},
		{spec: cfg.Weekly, kind: lifecycle.KindWeekly},
	}
	for _, job := range jobs {
		kind := job.kind
		if _, err := s.cron.AddFunc(job.spec, func() { s.run(kind) }); err != nil {
			return nil, fmt.Errorf("could not schedule %s cycle %q: %w", kind, job.spec, err)
		}
		s.logger.Info("Cycle scheduled", zap.String("kind", string(kind)), zap.String("spec", job.spec))
	}

	return s, nil
}

// Start starts the cron jobs in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("Scheduler started")
}

// Stop stops the cron jobs and waits for a running cycle to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("Scheduler stopped")
}

func (s *Scheduler) run(kind lifecycle.Kind) {
	s.logger.Info("Running scheduled cycle", zap.String("kind", string(kind)))

	result, err := lifecycle.Run(context.Background(), s.runner, kind, lifecycle.RunOptions{})
	if err != nil {
		s.logger.Error("Scheduled cycle failed", zap.String("kind", string(kind)), zap.Error(err))
		return
	}
	s.logger.Info("Scheduled cycle done",
		zap.String("kind", string(kind)),
		zap.String("outcome", result.Outcome()),
		zap.Int64("execution_ms", result.ExecutionTimeMS))
}
