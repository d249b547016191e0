package components

import (
	"context"
	"log/slog"

	"stayhub/internal/pkg/clock"
	"stayhub/internal/pkg/config"
	"stayhub/internal/usecase/channelsync"
	"stayhub/internal/usecase/jobs"
	"stayhub/internal/usecase/notification"
	"stayhub/internal/usecase/reconcile"

	"go.uber.org/fx"
)

var WorkerModule = fx.Module("worker",
	fx.Provide(
		channelsync.NewPushHandler,
		channelsync.NewCancelHandler,
		notification.NewHandler,
		NewJobRegistry,
		func(store jobs.Store, registry *jobs.Registry, policies jobs.Policies, clk clock.Clock, cfg config.Config, logger *slog.Logger) *jobs.Runner {
			return jobs.NewRunner(store, registry, policies, clk, jobs.RunnerConfig{
				Workers:      cfg.Jobs.Workers,
				PollInterval: cfg.Jobs.PollInterval,
				LeaseTimeout: cfg.Jobs.LeaseTimeout,
			}, logger)
		},
		reconcile.NewSweeper,
		func(sweeper *reconcile.Sweeper, cfg config.Config, logger *slog.Logger) *reconcile.Scheduler {
			return reconcile.NewScheduler(sweeper, reconcile.IntervalsFromConfig(cfg.Scheduler), logger)
		},
	),
	fx.Invoke(startWorkers),
)

func NewJobRegistry(push *channelsync.PushHandler, cancel *channelsync.CancelHandler, notify *notification.Handler) *jobs.Registry {
	registry := jobs.NewRegistry()
	registry.Register(jobs.KindChannelPush, push)
	registry.Register(jobs.KindChannelCancel, cancel)
	registry.Register(jobs.KindNotification, notify)
	return registry
}

// startWorkers ties the job runner and the sweep scheduler to the app lifecycle.
func startWorkers(lc fx.Lifecycle, runner *jobs.Runner, scheduler *reconcile.Scheduler, cfg config.Config, logger *slog.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			runner.Start(ctx)
			if cfg.Scheduler.Enabled {
				scheduler.Start(ctx)
			} else {
				logger.Info("reconciliation scheduler disabled")
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if err := scheduler.Stop(ctx); err != nil {
				return err
			}
			return runner.Stop(ctx)
		},
	})
}
