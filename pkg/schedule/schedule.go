// Package schedule runs periodic jobs on cron expressions, bound to the
// application lifecycle.
package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/JaimeStill/triage/pkg/lifecycle"
)

// Job is a unit of periodic work. The context is cancelled on shutdown.
type Job func(ctx context.Context) error

var parser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Validate reports whether spec is a parseable schedule.
// Standard five-field expressions, an optional leading seconds field, and
// descriptors such as "@every 5m" are accepted.
func Validate(spec string) error {
	if _, err := parser.Parse(spec); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	return nil
}

// Scheduler owns a cron runner. Jobs never overlap with themselves.
type Scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	started bool
}

// New creates an idle Scheduler.
func New(logger *slog.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	logger = logger.With("system", "scheduler")

	return &Scheduler{
		cron: cron.New(
			cron.WithParser(parser),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Add registers job under name on spec. An empty spec disables the job.
func (s *Scheduler) Add(name, spec string, job Job) error {
	if spec == "" {
		s.logger.Info("job disabled", "job", name)
		return nil
	}

	logger := s.logger.With("job", name)
	_, err := s.cron.AddFunc(spec, func() {
		if err := job(s.ctx); err != nil {
			logger.Error("job failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule %s: %w", name, err)
	}

	logger.Info("job scheduled", "spec", spec)
	return nil
}

// Len returns the number of scheduled jobs.
func (s *Scheduler) Len() int {
	return len(s.cron.Entries())
}

// Start begins running scheduled jobs.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return
	}
	s.started = true
	s.cron.Start()
}

// Stop cancels in-flight jobs and waits for them to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	started := s.started
	s.started = false
	s.mu.Unlock()

	s.cancel()
	if started {
		<-s.cron.Stop().Done()
	}
}

// Register starts the scheduler once startup completes and stops it on
// shutdown.
func (s *Scheduler) Register(lc *lifecycle.Coordinator) {
	lc.OnStartup(s.Start)

	lc.OnShutdown(func() {
		<-lc.Context().Done()
		s.Stop()
		s.logger.Info("scheduler stopped")
	})
}
