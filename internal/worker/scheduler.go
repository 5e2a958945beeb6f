package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Job is a scheduled unit of work.
type Job func(ctx context.Context) error

// Scheduler runs jobs on cron schedules. A job never overlaps with its own
// previous run.
type Scheduler struct {
	cron *cron.Cron
	ctx  context.Context
}

// NewScheduler returns a scheduler whose jobs receive ctx.
func NewScheduler(ctx context.Context) *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		ctx:  ctx,
	}
}

// Add registers job under spec, a standard five-field expression or a
// descriptor such as "@monthly".
func (s *Scheduler) Add(name, spec string, job Job) error {
	_, err := s.cron.AddFunc(spec, func() {
		start := time.Now()
		if err := job(s.ctx); err != nil {
			slog.ErrorContext(s.ctx, "Scheduled job failed", "job", name, "error", err)
			return
		}
		slog.InfoContext(s.ctx, "Scheduled job finished", "job", name, "duration", time.Since(start))
	})
	if err != nil {
		return fmt.Errorf("schedule %s (%q): %w", name, spec, err)
	}
	slog.Info("Job scheduled", "job", name, "spec", spec)
	return nil
}

// Run starts the scheduler and blocks until its context is done, then
// waits for running jobs.
func (s *Scheduler) Run() error {
	s.cron.Start()
	<-s.ctx.Done()
	<-s.cron.Stop().Done()
	return nil
}
