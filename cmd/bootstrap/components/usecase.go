package components

import (
	"log/slog"

	"stayhub/internal/pkg/clock"
	"stayhub/internal/pkg/config"
	"stayhub/internal/usecase"
	"stayhub/internal/usecase/access"
	"stayhub/internal/usecase/availability"
	"stayhub/internal/usecase/calendar"
	"stayhub/internal/usecase/commands"
	"stayhub/internal/usecase/jobs"
	"stayhub/internal/usecase/pricing"
	"stayhub/internal/usecase/queries"
	"stayhub/internal/usecase/shared"

	"go.uber.org/fx"
)

var UseCaseModule = fx.Module("usecase",
	usecaseBaseOption,
	usecaseServicesModule,
	usecaseQueriesModule,
	usecaseValidatorsModule,
	usecaseCommandsModule,
)

var usecaseBaseOption = fx.Provide(
	clock.NewRealClock,
	NewJobPolicies,
)

// NewJobPolicies maps job kinds to the retry settings from config.
func NewJobPolicies(cfg config.Config) jobs.Policies {
	sync := jobs.RetryPolicy{
		MaxAttempts: cfg.Jobs.SyncMaxAttempts,
		BaseDelay:   cfg.Jobs.SyncBaseDelay,
		Factor:      2,
	}
	return jobs.Policies{
		jobs.KindChannelPush:   sync,
		jobs.KindChannelCancel: sync,
		jobs.KindNotification: {
			MaxAttempts: cfg.Jobs.NotifMaxAttempts,
			BaseDelay:   cfg.Jobs.NotifBaseDelay,
			Factor:      2,
		},
	}
}

var usecaseServicesModule = fx.Module("usecase/services",
	fx.Provide(
		func(props shared.PropertyReader, cache shared.Cache, cfg config.Config, logger *slog.Logger) *access.Service {
			return access.NewService(props, cache, cfg.Cache.AccessiblePropsTTL, logger)
		},
		func(trust shared.TrustReader, cache shared.Cache, cfg config.Config, logger *slog.Logger) *pricing.Resolver {
			return pricing.NewResolver(trust, cache, cfg.Cache.DiscountTTL, logger)
		},
		func(
			bookings shared.BookingReader,
			fetcher calendar.Fetcher,
			channel shared.ChannelManager,
			cache shared.Cache,
			cfg config.Config,
			logger *slog.Logger,
		) *calendar.Adapter {
			return calendar.NewAdapter(bookings, fetcher, channel, cache, cfg.Cache.ExternalCalendarTTL, logger)
		},
		func(props shared.PropertyReader, adapter *calendar.Adapter, resolver *pricing.Resolver, logger *slog.Logger) *availability.Engine {
			return availability.NewEngine(props, adapter, resolver, logger)
		},
		func(engine *availability.Engine) availability.Checker {
			return engine
		},
	),
)

var usecaseCommandsModule = fx.Module("usecase/commands",
	fx.Provide(
		func(
			uow shared.UnitOfWork,
			props shared.PropertyReader,
			bookings shared.BookingReader,
			accessSvc *access.Service,
			engine *availability.Engine,
			cache shared.Cache,
			clk clock.Clock,
			logger *slog.Logger,
		) commands.BookingCommands {
			return commands.NewBookingCommands(uow, props, bookings, accessSvc, engine, cache, clk, logger)
		},
		commands.NewTrustCommands,
		commands.NewPropertyCommands,
	),
)

var usecaseQueriesModule = fx.Module("usecase/queries",
	fx.Provide(
		queries.NewBookingQueries,
		func(
			props shared.PropertyReader,
			source queries.FeedBookingSource,
			renderer queries.FeedRenderer,
			cache shared.Cache,
			cfg config.Config,
			clk clock.Clock,
			logger *slog.Logger,
		) queries.CalendarFeedQueries {
			return queries.NewCalendarFeed(props, source, renderer, cache, cfg.Cache.CalendarFeedTTL, clk, logger)
		},
	),
)

var usecaseValidatorsModule = fx.Module("usecase/validators",
	fx.Provide(
		usecase.NewTokenValidator,
	),
)
