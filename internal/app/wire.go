package app

import (
	"context"
	"fmt"
	"log/slog"

	"polywatch/internal/cache/redis"
	"polywatch/internal/config"
	"polywatch/internal/domain"
	"polywatch/internal/feed"
	"polywatch/internal/notify"
	"polywatch/internal/platform/polymarket"
	"polywatch/internal/store/postgres"
)

// Dependencies bundles everything the application modes need. Optional
// collaborators are nil when their section is disabled in the config.
type Dependencies struct {
	Clock  domain.Clock
	Finder domain.MarketFinder
	Prices domain.PriceSource

	PriceCache domain.PriceCache
	SignalBus  domain.SignalBus
	Journal    domain.JournalStore
	BookFeed   *feed.BookFeed
	Notifier   *notify.Notifier
}

// Wire constructs concrete implementations from the configuration and
// returns them with a cleanup function releasing connections on shutdown.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	clock, err := domain.NewWallClock()
	if err != nil {
		return nil, nil, fmt.Errorf("wire: %w", err)
	}

	deps := &Dependencies{
		Clock:  clock,
		Finder: polymarket.NewGammaClient(cfg.Polymarket.GammaHost, logger),
		Prices: polymarket.NewClobClient(cfg.Polymarket.ClobHost),
	}

	if cfg.Redis.Enabled {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		deps.PriceCache = redis.NewPriceCache(redisClient)
		deps.SignalBus = redis.NewSignalBus(redisClient)
	}

	if cfg.Postgres.Enabled {
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Postgres.DSN,
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Database: cfg.Postgres.Database,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			SSLMode:  cfg.Postgres.SSLMode,
			MaxConns: cfg.Postgres.PoolMaxConns,
			MinConns: cfg.Postgres.PoolMinConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		if cfg.Postgres.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
			}
		}

		deps.Journal = postgres.NewJournalStore(pgClient.Pool())
	}

	if cfg.Feed.Enabled {
		deps.BookFeed = feed.NewBookFeed(cfg.Polymarket.WsHost, deps.PriceCache, clock, logger)
	}

	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)

	return deps, cleanup, nil
}
