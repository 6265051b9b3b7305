package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/amqp"
	"fintrack/internal/cli"
	"fintrack/internal/config"
	applog "fintrack/internal/log"
	"fintrack/internal/services"
)

const shutdownTimeout = 30 * time.Second

func validate(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.AMQPURL == "" {
		return errors.New("AMQP_URL is required by reminder-worker")
	}
	return nil
}

func main() {
	cfg, logger := cli.LoadConfig(applog.ComponentReminder, validate)
	logger.Info("Starting reminder-worker",
		"interval", cfg.ReminderInterval,
		"batch_size", cfg.ReminderBatchSize)

	store, closeStore := cli.InitStore(context.Background(), logger, cfg)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
		os.Exit(1)
	}

	processor := services.NewReminderProcessor(store, amqpClient, cfg.ReminderBatchSize)

	ctx, done := cli.GracefulShutdown(logger, shutdownTimeout, func(context.Context) {
		if err := amqpClient.Close(); err != nil {
			logger.Warn("AMQP close error", applog.FieldError, err)
		}
		if err := closeStore(); err != nil {
			logger.Warn("Store close error", applog.FieldError, err)
		}
	})

	run := func(now time.Time) {
		count, err := processor.ProcessDueReminders(ctx, now)
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				logger.Error("Reminder processing failed", applog.FieldError, err)
			}
			return
		}
		if count > 0 {
			logger.Info("Reminders delivered",
				applog.FieldCount, count,
				"next_check", now.Add(cfg.ReminderInterval).Format("15:04:05"))
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ticker := time.NewTicker(cfg.ReminderInterval)
		defer ticker.Stop()

		run(time.Now())
		for {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case now := <-ticker.C:
				run(now)
			}
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Reminder loop failed", applog.FieldError, err)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Reminder worker stopped")
}
