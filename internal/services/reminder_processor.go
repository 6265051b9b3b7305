package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	applog "fintrack/internal/log"
)

// ReminderProcessor publishes a task.reminder event for every task whose
// reminder date has passed and marks it reminded.
type ReminderProcessor struct {
	store     core.TaskStore
	publisher Publisher
	batchSize int
}

func NewReminderProcessor(store core.TaskStore, publisher Publisher, batchSize int) *ReminderProcessor {
	if batchSize <= 0 {
		batchSize = 50
	}
	return &ReminderProcessor{
		store:     store,
		publisher: publisher,
		batchSize: batchSize,
	}
}

// ProcessDueReminders handles one batch of due reminders and returns how many
// were delivered. A task whose event cannot be published stays due and is
// retried on the next run.
func (p *ReminderProcessor) ProcessDueReminders(ctx context.Context, now time.Time) (int, error) {
	if p.store == nil || p.publisher == nil {
		return 0, fmt.Errorf("processor not properly initialized")
	}

	tasks, err := p.store.DueReminders(ctx, core.Normalize(now), p.batchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to get due reminders: %w", err)
	}
	if len(tasks) == 0 {
		return 0, nil
	}

	processed := 0
	for _, t := range tasks {
		if err := ctx.Err(); err != nil {
			return processed, err
		}

		event, err := amqp.NewEvent(amqp.EventTaskReminder, t.ID, t.User, t)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to build reminder event",
				applog.FieldComponent, applog.ComponentReminder,
				applog.FieldRecordID, t.ID,
				applog.FieldError, err)
			continue
		}
		if err := p.publisher.Publish(ctx, event); err != nil {
			slog.ErrorContext(ctx, "Failed to publish reminder",
				applog.FieldComponent, applog.ComponentReminder,
				applog.FieldRecordID, t.ID,
				applog.FieldError, err)
			continue
		}

		if err := p.store.MarkReminded(ctx, t.ID); err != nil {
			// The event went out; the task may be reminded twice.
			slog.ErrorContext(ctx, "Failed to mark task reminded",
				applog.FieldComponent, applog.ComponentReminder,
				applog.FieldRecordID, t.ID,
				applog.FieldError, err)
			continue
		}
		processed++
	}

	slog.InfoContext(ctx, "Reminder processing complete",
		applog.FieldComponent, applog.ComponentReminder,
		"processed", processed,
		"total_due", len(tasks))

	return processed, nil
}
