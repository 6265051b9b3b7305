package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"fintrack/internal/auth"
	"fintrack/internal/cache"
	"fintrack/internal/cli"
	"fintrack/internal/config"
	"fintrack/internal/core"
	apphttp "fintrack/internal/http"
	applog "fintrack/internal/log"
	"fintrack/internal/services"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, logger := cli.LoadConfig(applog.ComponentApp, (*config.Config).ValidateAPI)
	logger.Info("Starting fintrack", "backend", cfg.DataBackend, "port", cfg.Port)

	store, closeStore := cli.InitStore(context.Background(), logger, cfg)

	amqpClient := cli.InitAMQP(logger, cfg)
	var publisher services.Publisher
	if amqpClient != nil {
		publisher = amqpClient
	}

	var statsCache cache.Cache[core.ExpenseStats]
	cacheManager := cache.NewManager()
	if cfg.StatsCacheTTL > 0 {
		lru := cache.NewLRUCache[core.ExpenseStats](500, cfg.StatsCacheTTL)
		cacheManager.Register(lru)
		cacheManager.StartCleanup(5 * time.Minute)
		statsCache = lru
	}

	srv := apphttp.NewServer(apphttp.Config{
		Addr:               ":" + cfg.Port,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	}, apphttp.Deps{
		Expenses:   services.NewExpenseService(store, publisher, statsCache),
		Goals:      services.NewGoalService(store, publisher),
		Tasks:      services.NewTaskService(store),
		Store:      store,
		Verifier:   auth.NewVerifier(cfg.JWTSecret, cfg.JWTIssuer),
		StatsCache: statsCache,
		Logger:     logger,
	})

	ctx, done := cli.GracefulShutdown(logger, shutdownTimeout, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
		}
		cacheManager.Stop()
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				logger.Warn("AMQP close error", applog.FieldError, err)
			}
		}
		if err := closeStore(); err != nil {
			logger.Warn("Store close error", applog.FieldError, err)
		}
	})

	go func() {
		logger.Info("HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
			os.Exit(1)
		}
	}()

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
