// Package app wires configuration into the infrastructure shared by the
// roulette CLI and the notification worker.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/coffee-roulette/roulette-hub/config"
	"github.com/coffee-roulette/roulette-hub/internal/domain/notification"
	"github.com/coffee-roulette/roulette-hub/internal/domain/roulette"
	"github.com/coffee-roulette/roulette-hub/internal/domain/shared"
	"github.com/coffee-roulette/roulette-hub/internal/infrastructure/messaging"
	notify "github.com/coffee-roulette/roulette-hub/internal/infrastructure/notification"
	"github.com/coffee-roulette/roulette-hub/internal/infrastructure/persistence/postgres"
	"github.com/coffee-roulette/roulette-hub/internal/infrastructure/persistence/redis"
)

// Infra holds open connections and the repositories built on them.
type Infra struct {
	DB    *postgres.Connection
	Cache *redis.Cache // nil when Redis is disabled

	Users     *postgres.UserRepository
	Roulettes *postgres.RouletteRepository
	Votes     *postgres.VoteRepository
	Matches   *postgres.MatchRepository
	Groups    *postgres.GroupRepository
	Penalties *postgres.PenaltyRepository

	// Proposals is nil when Redis is disabled.
	Proposals roulette.ProposalRepository

	Bus EventBus

	logger *slog.Logger
}

// EventBus is a closable shared.EventBus.
type EventBus interface {
	shared.EventBus
	Close() error
}

// Open connects to Postgres and, when enabled, Redis. With Redis the
// event bus is Redis pub/sub; without it events stay in process.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Infra, error) {
	if logger == nil {
		logger = slog.Default()
	}

	dbCfg := postgres.DefaultConfig(cfg.Database.URL)
	dbCfg.MaxConns = cfg.Database.MaxConns
	dbCfg.MinConns = cfg.Database.MinConns
	dbCfg.MaxConnLifetime = cfg.Database.ConnMaxLifetime
	dbCfg.MaxConnIdleTime = cfg.Database.ConnMaxIdleTime

	db, err := postgres.NewConnection(ctx, dbCfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	in := &Infra{
		DB:        db,
		Users:     postgres.NewUserRepository(db),
		Roulettes: postgres.NewRouletteRepository(db),
		Votes:     postgres.NewVoteRepository(db),
		Matches:   postgres.NewMatchRepository(db),
		Groups:    postgres.NewGroupRepository(db),
		Penalties: postgres.NewPenaltyRepository(db),
		logger:    logger,
	}

	if !cfg.Redis.Enabled {
		logger.Info("redis disabled, using in-process event bus")
		busCfg := messaging.DefaultInMemoryEventBusConfig()
		busCfg.Logger = logger
		in.Bus = messaging.NewInMemoryEventBus(busCfg)
		return in, nil
	}

	cache, err := redis.NewCache(ctx, redis.Config{
		Addr:         cfg.Redis.Addr,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	in.Cache = cache
	in.Proposals = redis.NewProposalCache(cache, cfg.Redis.ProposalTTL)

	bus, err := messaging.NewRedisEventBus(messaging.RedisEventBusConfig{
		Client:      messaging.NewGoRedisClient(cache.Client()),
		ChannelName: cfg.Redis.EventsChannel,
		Logger:      logger,
	})
	if err != nil {
		_ = cache.Close()
		db.Close()
		return nil, fmt.Errorf("start event bus: %w", err)
	}
	in.Bus = bus

	return in, nil
}

// Close releases everything Open acquired, bus first.
func (in *Infra) Close() error {
	var errs []error
	if in.Bus != nil {
		errs = append(errs, in.Bus.Close())
	}
	if in.Cache != nil {
		errs = append(errs, in.Cache.Close())
	}
	in.DB.Close()
	return errors.Join(errs...)
}

// Notifier returns the webhook notifier when a URL is configured,
// otherwise a notifier that only logs.
func Notifier(cfg config.NotificationConfig, logger *slog.Logger) (notification.Notifier, error) {
	if cfg.WebhookURL == "" {
		return notify.NewLogNotifier(logger), nil
	}

	wcfg := notify.DefaultWebhookConfig(cfg.WebhookURL)
	wcfg.Timeout = cfg.Timeout
	wcfg.RetryAttempts = cfg.RetryAttempts
	wcfg.BreakerFailures = cfg.BreakerFailures
	wcfg.BreakerTimeout = cfg.BreakerTimeout
	wcfg.RatePerSecond = cfg.RatePerSecond
	wcfg.Burst = cfg.Burst
	wcfg.Logger = logger

	n, err := notify.NewWebhookNotifier(wcfg)
	if err != nil {
		return nil, err
	}
	return n, nil
}
