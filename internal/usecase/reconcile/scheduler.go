package reconcile

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"stayhub/internal/pkg/config"
)

type SweepRunner interface {
	Run(ctx context.Context, name string) (Report, error)
}

// Interval pairs a sweep with its period. Non-positive periods disable the sweep.
type Interval struct {
	Sweep string
	Every time.Duration
}

func IntervalsFromConfig(cfg config.SchedulerConfig) []Interval {
	return []Interval{
		{Sweep: SweepStatus, Every: cfg.StatusInterval},
		{Sweep: SweepSyncRetry, Every: cfg.SyncRetryInterval},
		{Sweep: SweepCompletion, Every: cfg.CompletionInterval},
		{Sweep: SweepReminder, Every: cfg.ReminderInterval},
	}
}

// Scheduler ticks every sweep on its own goroutine. A slow sweep delays only itself.
type Scheduler struct {
	runner    SweepRunner
	intervals []Interval
	logger    *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewScheduler(runner SweepRunner, intervals []Interval, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		runner:    runner,
		intervals: intervals,
		logger:    logger.With(slog.String("component", "scheduler")),
	}
}

func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(context.WithoutCancel(ctx))
	for _, iv := range s.intervals {
		if iv.Every <= 0 {
			s.logger.Info("sweep disabled", slog.String("sweep", iv.Sweep))
			continue
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.loop(ctx, iv)
		}()
	}
	s.logger.Info("scheduler started")
}

// Stop waits for running sweeps, bounded by ctx.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.cancel == nil {
		return nil
	}
	s.cancel()
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		s.logger.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) loop(ctx context.Context, iv Interval) {
	ticker := time.NewTicker(iv.Every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx, iv.Sweep)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context, sweep string) {
	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Error("sweep panicked", slog.String("sweep", sweep), slog.Any("panic", rec))
		}
	}()
	if _, err := s.runner.Run(ctx, sweep); err != nil && ctx.Err() == nil {
		s.logger.Error("sweep failed", slog.String("sweep", sweep), slog.String("error", err.Error()))
	}
}
