// Package main - точка входа для воркера уведомлений кофейной рулетки.
//
// Worker отвечает за:
// - Рассылку объявления о новом раунде
// - Рассылку участникам их пар после фиксации раунда
// - Отдачу /metrics, /health и read-only API раундов
//
// События приходят по Redis pub/sub от CLI, который создаёт раунды
// и фиксирует пары. Сбой доставки не влияет на сохранённые данные.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/coffee-roulette/roulette-hub/config"
	"github.com/coffee-roulette/roulette-hub/internal/app"
	"github.com/coffee-roulette/roulette-hub/internal/application/eventhandler"
	"github.com/coffee-roulette/roulette-hub/internal/application/query"
	"github.com/coffee-roulette/roulette-hub/internal/domain/shared"
	httpserver "github.com/coffee-roulette/roulette-hub/internal/interface/http"
	"github.com/coffee-roulette/roulette-hub/internal/interface/http/handlers"
	"github.com/coffee-roulette/roulette-hub/pkg/logger"
)

// Version is set at build time.
var Version = "dev"

// ══════════════════════════════════════════════════════════════════════════════
// MAIN
// ══════════════════════════════════════════════════════════════════════════════

func main() {
	// Создаём корневой контекст с возможностью отмены
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. ЗАГРУЗКА КОНФИГУРАЦИИ
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. НАСТРОЙКА ЛОГИРОВАНИЯ
	// ─────────────────────────────────────────────────────────────────────────
	logger.Init(logger.Config{
		Level:  cfg.Observability.LogLevel,
		Format: cfg.Observability.LogFormat,
		Caller: cfg.App.Debug,
	})
	log := logger.Slog().With("service", "worker")
	log.Info("starting coffee roulette worker",
		"env", cfg.App.Environment,
		"version", Version,
		"timezone", cfg.App.Timezone,
	)

	if !cfg.Redis.Enabled {
		log.Warn("redis is disabled: the worker will not receive events from the CLI")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 3. ПОДКЛЮЧЕНИЕ К POSTGRES И REDIS, ШИНА СОБЫТИЙ
	// ─────────────────────────────────────────────────────────────────────────
	infra, err := app.Open(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		log.Info("closing connections...")
		if err := infra.Close(); err != nil {
			log.Warn("close failed", "error", err)
		}
	}()
	log.Info("connections established")

	// ─────────────────────────────────────────────────────────────────────────
	// 4. УВЕДОМЛЕНИЯ
	// ─────────────────────────────────────────────────────────────────────────
	notifier, err := app.Notifier(cfg.Notification, log)
	if err != nil {
		return fmt.Errorf("failed to create notifier: %w", err)
	}

	notifyCfg := eventhandler.DefaultNotifyConfig()
	notifyCfg.Location = cfg.App.Location
	notifyCfg.SendTimeout = cfg.Notification.Timeout * 2

	onCreated := eventhandler.NewOnRouletteCreatedHandler(notifier, log, notifyCfg)
	onFinalized := eventhandler.NewOnMatchingsFinalizedHandler(infra.Users, notifier, log, notifyCfg)

	if err := infra.Bus.Subscribe(shared.EventRouletteCreated, onCreated.Handle); err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}
	if err := infra.Bus.Subscribe(shared.EventMatchingsFinalized, onFinalized.Handle); err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. HTTP: HEALTH, METRICS, READ-ONLY API
	// ─────────────────────────────────────────────────────────────────────────
	health := handlers.NewCompositeHealthChecker(Version, 0)
	health.AddCheck("postgres", handlers.NewPingCheck(infra.DB))
	if infra.Cache != nil {
		health.AddCheck("redis", handlers.NewPingCheck(infra.Cache))
	}

	srvCfg := httpserver.DefaultConfig(cfg.Observability.MetricsAddr)
	srvCfg.RequestTimeout = cfg.Database.QueryTimeout
	srv := httpserver.NewServer(srvCfg, httpserver.Dependencies{
		GetRoulette:          query.NewGetRouletteHandler(infra.Roulettes, infra.Votes, infra.Matches, infra.Users, nil),
		ListCurrentRoulettes: query.NewListCurrentRoulettesHandler(infra.Roulettes, nil),
		HealthChecker:        health,
		Logger:               log,
	})
	serverErr := srv.StartAsync()

	// ─────────────────────────────────────────────────────────────────────────
	// 6. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("worker is running", "metrics_addr", cfg.Observability.MetricsAddr)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", "signal", sig.String())
	case err := <-serverErr:
		if err != nil {
			log.Error("http server failed", "error", err)
		}
	case <-ctx.Done():
	}

	log.Info("starting graceful shutdown...", "timeout", cfg.App.ShutdownTimeout.String())
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http server shutdown failed", "error", err)
	}

	log.Info("shutdown completed successfully")
	return nil
}
