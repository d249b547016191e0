package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"stayhub/internal/pkg/clock"

	"github.com/google/uuid"
)

var errAttemptsExhausted = errors.New("retry attempts exhausted")

type Store interface {
	// Claim leases the next runnable job, or a running job whose lease expired before staleBefore.
	// It returns nil when nothing is runnable.
	Claim(ctx context.Context, worker string, now, staleBefore time.Time) (*Job, error)
	Complete(ctx context.Context, job *Job, worker string) error
	Retry(ctx context.Context, job *Job, worker string, runAt time.Time, lastErr string) error
	Fail(ctx context.Context, job *Job, worker string, lastErr string) error
}

type Registry struct {
	handlers map[Kind]Handler
}

func NewRegistry() *Registry {
	return &Registry{handlers: make(map[Kind]Handler)}
}

func (r *Registry) Register(kind Kind, h Handler) {
	r.handlers[kind] = h
}

func (r *Registry) Handler(kind Kind) (Handler, bool) {
	h, ok := r.handlers[kind]
	return h, ok
}

type RunnerConfig struct {
	Workers      int
	PollInterval time.Duration
	LeaseTimeout time.Duration
}

type Runner struct {
	store    Store
	registry *Registry
	policies Policies
	clock    clock.Clock
	cfg      RunnerConfig
	logger   *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewRunner(store Store, registry *Registry, policies Policies, clk clock.Clock, cfg RunnerConfig, logger *slog.Logger) *Runner {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	if cfg.LeaseTimeout <= 0 {
		cfg.LeaseTimeout = 5 * time.Minute
	}
	return &Runner{
		store:    store,
		registry: registry,
		policies: policies,
		clock:    clk,
		cfg:      cfg,
		logger:   logger.With(slog.String("component", "job_runner")),
	}
}

func (r *Runner) Start(ctx context.Context) {
	ctx, r.cancel = context.WithCancel(context.WithoutCancel(ctx))
	for i := 0; i < r.cfg.Workers; i++ {
		worker := fmt.Sprintf("worker-%d-%s", i, uuid.NewString()[:8])
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			r.loop(ctx, worker)
		}()
	}
	r.logger.Info("job runner started", slog.Int("workers", r.cfg.Workers))
}

// Stop cancels the workers and waits for in-flight jobs, bounded by ctx.
func (r *Runner) Stop(ctx context.Context) error {
	if r.cancel == nil {
		return nil
	}
	r.cancel()
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		r.logger.Info("job runner stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Runner) loop(ctx context.Context, worker string) {
	ticker := time.NewTicker(r.cfg.PollInterval)
	defer ticker.Stop()
	for {
		// Drain everything runnable before sleeping again.
		for {
			ran, err := r.RunOnce(ctx, worker)
			if err != nil {
				r.logger.Error("job poll failed", slog.String("worker", worker), slog.String("error", err.Error()))
				break
			}
			if !ran || ctx.Err() != nil {
				break
			}
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// RunOnce claims and processes a single job. It reports whether a job was found.
func (r *Runner) RunOnce(ctx context.Context, worker string) (bool, error) {
	now := r.clock.Now()
	job, err := r.store.Claim(ctx, worker, now, now.Add(-r.cfg.LeaseTimeout))
	if err != nil {
		return false, err
	}
	if job == nil {
		return false, nil
	}

	log := r.logger.With(
		slog.String("job_id", job.ID.String()),
		slog.String("kind", job.Kind.String()),
		slog.Int("attempt", job.Attempts),
	)

	handler, ok := r.registry.Handler(job.Kind)
	if !ok {
		log.Error("no handler registered")
		return true, r.store.Fail(ctx, job, worker, "no handler registered for "+job.Kind.String())
	}

	policy := r.policies.For(job.Kind)
	maxAttempts := job.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = policy.MaxAttempts
	}

	// A lease reclaimed after the final attempt only needs its exhausted hook.
	if job.Attempts > maxAttempts {
		return true, r.exhaust(ctx, log, handler, job, worker, errAttemptsExhausted)
	}

	handleErr := r.handle(ctx, handler, job)
	if handleErr == nil {
		log.Debug("job done")
		return true, r.store.Complete(ctx, job, worker)
	}

	if !IsPermanent(handleErr) && job.Attempts < maxAttempts {
		runAt := r.clock.Now().Add(policy.Backoff(job.Attempts))
		log.Warn("job failed, retrying",
			slog.Time("run_at", runAt),
			slog.String("error", handleErr.Error()))
		return true, r.store.Retry(ctx, job, worker, runAt, handleErr.Error())
	}

	log.Error("job failed permanently",
		slog.Bool("permanent", IsPermanent(handleErr)),
		slog.String("error", handleErr.Error()))
	return true, r.exhaust(ctx, log, handler, job, worker, handleErr)
}

func (r *Runner) exhaust(ctx context.Context, log *slog.Logger, h Handler, job *Job, worker string, cause error) error {
	if err := h.Exhausted(ctx, job, cause); err != nil {
		// The lease stays; the job is reclaimed once stale and the hook runs again.
		log.Error("exhausted hook failed", slog.String("error", err.Error()))
		return nil
	}
	return r.store.Fail(ctx, job, worker, cause.Error())
}

func (r *Runner) handle(ctx context.Context, h Handler, job *Job) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("job handler panic: %v", rec)
		}
	}()
	return h.Handle(ctx, job)
}
