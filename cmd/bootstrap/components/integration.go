package components

import (
	"context"
	"log/slog"

	"stayhub/internal/handler"
	"stayhub/internal/infra/beds24"
	"stayhub/internal/infra/cache"
	"stayhub/internal/infra/ical"
	"stayhub/internal/infra/messaging"
	"stayhub/internal/pkg/clock"
	"stayhub/internal/pkg/config"
	"stayhub/internal/usecase/calendar"
	"stayhub/internal/usecase/notification"
	"stayhub/internal/usecase/queries"
	"stayhub/internal/usecase/shared"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/go-redis/redis/v8"
	"go.uber.org/fx"
)

var IntegrationModule = fx.Module("integration",
	CacheModule,
	ChannelModule,
	ICalModule,
	MessagingModule,
	fx.Provide(NewPingers),
)

var CacheModule = fx.Module("integration/cache",
	fx.Provide(
		NewRedisClient,
		func(client *redis.Client, cfg config.Config) *cache.RedisCache {
			return cache.NewRedisCache(client, cfg.Cache.KeyPrefix)
		},
		func(c *cache.RedisCache) shared.Cache {
			return c
		},
	),
)

func NewRedisClient(lc fx.Lifecycle, cfg config.Config) *redis.Client {
	client := cache.NewClient(cfg.Redis)
	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return client.Close()
		},
	})
	return client
}

var ChannelModule = fx.Module("integration/channel",
	fx.Provide(
		func(cfg config.Config, c shared.Cache, clk clock.Clock, logger *slog.Logger) shared.ChannelManager {
			return beds24.NewClient(cfg.Beds24, c, clk, logger)
		},
	),
)

var ICalModule = fx.Module("integration/ical",
	fx.Provide(
		func(cfg config.Config) calendar.Fetcher {
			return ical.NewFetcher(cfg.ICal)
		},
		func(cfg config.Config) queries.FeedRenderer {
			return ical.NewRenderer(cfg.Server.PublicHost)
		},
	),
)

var MessagingModule = fx.Module("integration/messaging",
	fx.Provide(
		NewKafkaProducer,
		func(p *messaging.Producer, cfg config.Config, logger *slog.Logger) notification.Publisher {
			return messaging.NewPublisher(p, cfg.Kafka, logger)
		},
	),
)

func NewKafkaProducer(lc fx.Lifecycle, cfg config.Config) (*messaging.Producer, error) {
	producer, err := messaging.NewProducer(cfg.Kafka.Brokers, messaging.NewSaramaConfig(cfg.Kafka))
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return producer.Close()
		},
	})
	return producer, nil
}

// NewPingers lists the dependencies /health probes.
func NewPingers(pool *pgxpool.Pool, c *cache.RedisCache) map[string]handler.Pinger {
	return map[string]handler.Pinger{
		"postgres": pool,
		"redis":    c,
	}
}
