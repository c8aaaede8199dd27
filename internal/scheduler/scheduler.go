// Package scheduler runs background jobs on cron schedules.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Job is a unit of scheduled work.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Scheduler manages background jobs. Jobs receive the context passed to
// Start and are cancelled when it ends.
type Scheduler struct {
	cron    *cron.Cron
	logger  *slog.Logger
	timeout time.Duration
	ctx     context.Context
	cancel  context.CancelFunc
}

// New creates a scheduler. A positive timeout bounds each job run.
func New(logger *slog.Logger, timeout time.Duration) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithSeconds()),
		logger:  logger.With("component", "scheduler"),
		timeout: timeout,
		ctx:     context.Background(),
		cancel:  func() {},
	}
}

// Start starts the scheduler.
func (s *Scheduler) Start(ctx context.Context) {
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()))
}

// Stop cancels running jobs and waits for them to return.
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
}

// AddJob registers job on schedule. Schedules take a seconds field or a
// descriptor:
//   - "0 */5 * * * *" every 5 minutes
//   - "@every 6h"     every six hours
//   - "@daily"        at midnight
func (s *Scheduler) AddJob(schedule string, job Job) error {
	_, err := s.cron.AddFunc(schedule, func() {
		s.run(job)
	})
	if err != nil {
		return err
	}
	s.logger.Info("job registered", "schedule", schedule, "job", job.Name())
	return nil
}

// RunNow executes a job immediately, outside its schedule.
func (s *Scheduler) RunNow(ctx context.Context, job Job) error {
	s.logger.Info("running job immediately", "job", job.Name())
	return job.Run(ctx)
}

func (s *Scheduler) run(job Job) {
	ctx := s.ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	s.logger.Debug("running job", "job", job.Name())
	if err := job.Run(ctx); err != nil {
		s.logger.Error("job failed", "job", job.Name(), "error", err, "elapsed", time.Since(start))
		return
	}
	s.logger.Debug("job completed", "job", job.Name(), "elapsed", time.Since(start))
}
