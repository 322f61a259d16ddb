// Package scheduler runs jobs on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	applogger "FinAudit/pkg/logger"
)

// Job is a unit of scheduled work.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Scheduler wraps cron with logging and a per-run timeout.
type Scheduler struct {
	cron    *cron.Cron
	timeout time.Duration
	l       *applogger.Logger
}

// New builds a scheduler. Each run gets at most timeout; zero means no limit.
func New(l *applogger.Logger, timeout time.Duration) *Scheduler {
	if l == nil {
		l = applogger.NewNop()
	}
	return &Scheduler{
		cron:    cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		timeout: timeout,
		l:       l.With(applogger.String("component", "scheduler")),
	}
}

// AddJob registers job under a standard five-field spec or a descriptor
// such as "@hourly" or "@every 15m".
func (s *Scheduler) AddJob(spec string, job Job) error {
	if _, err := s.cron.AddFunc(spec, func() { s.run(job) }); err != nil {
		return fmt.Errorf("schedule %s: %w", job.Name(), err)
	}
	s.l.Info("job registered", applogger.String("job", job.Name()), applogger.String("schedule", spec))
	return nil
}

func (s *Scheduler) run(job Job) {
	ctx := context.Background()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	if err := job.Run(ctx); err != nil {
		s.l.Error("job failed", applogger.String("job", job.Name()), applogger.Error(err))
		return
	}
	s.l.Debug("job completed", applogger.String("job", job.Name()), applogger.Duration("duration_ms", time.Since(start)))
}

// RunNow executes job immediately, outside its schedule.
func (s *Scheduler) RunNow(job Job) {
	s.run(job)
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.l.Info("scheduler started", applogger.Int("jobs", len(s.cron.Entries())))
}

// Stop waits for running jobs or ctx, whichever ends first.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
	s.l.Info("scheduler stopped")
}
