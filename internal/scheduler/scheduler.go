// Package scheduler runs the expiration sweep on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mmynk/payledger/internal/service"
)

// DefaultRunTimeout bounds a single scheduled sweep.
const DefaultRunTimeout = 45 * time.Second

// Sweeper is the job the scheduler runs.
type Sweeper interface {
	Sweep(ctx context.Context, offsets []int) (*service.SweepResult, error)
}

// Scheduler triggers sweeps. Overlapping runs are skipped.
type Scheduler struct {
	cron    *cron.Cron
	sweeper Sweeper
	offsets []int
	timeout time.Duration
	logger  *slog.Logger
}

// New creates a scheduler that sweeps with offsets whenever spec fires.
// spec is a standard five-field cron expression evaluated in loc.
func New(spec string, loc *time.Location, sweeper Sweeper, offsets []int, logger *slog.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if loc == nil {
		loc = time.UTC
	}

	cl := cronLogger{logger: logger}
	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		sweeper: sweeper,
		offsets: offsets,
		timeout: DefaultRunTimeout,
		logger:  logger,
	}

	if _, err := s.cron.AddFunc(spec, s.run); err != nil {
		return nil, fmt.Errorf("failed to schedule sweep %q: %w", spec, err)
	}
	return s, nil
}

// Start begins running scheduled sweeps in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("Sweep scheduler started", "next_run", s.cron.Entries()[0].Next)
}

// Stop stops scheduling and waits for a running sweep until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if _, err := s.RunOnce(ctx); err != nil {
		s.logger.Error("Scheduled sweep failed", "error", err)
	}
}

// RunOnce sweeps immediately.
func (s *Scheduler) RunOnce(ctx context.Context) (*service.SweepResult, error) {
	return s.sweeper.Sweep(ctx, s.offsets)
}

// cronLogger routes cron's own messages to slog.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
