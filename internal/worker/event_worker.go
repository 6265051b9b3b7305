package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/sheets"
)

// EventWorker handles domain events consumed from AMQP: expense events are
// mirrored to the spreadsheet and notification events are delivered to the
// log.
type EventWorker struct {
	store  core.ExpenseStore
	mirror sheets.ExpenseMirror
}

// NewEventWorker creates a worker. mirror may be nil, in which case expense
// events are acknowledged without mirroring.
func NewEventWorker(store core.ExpenseStore, mirror sheets.ExpenseMirror) *EventWorker {
	return &EventWorker{
		store:  store,
		mirror: mirror,
	}
}

// HandleEvent processes a single event. A returned error requeues it.
func (w *EventWorker) HandleEvent(ctx context.Context, event *amqp.Event) error {
	switch event.Type {
	case amqp.EventExpenseCreated, amqp.EventExpenseUpdated:
		return w.syncExpense(ctx, event)
	case amqp.EventExpenseDeleted:
		return w.deleteExpense(ctx, event)
	case amqp.EventGoalAchieved:
		return w.notifyGoalAchieved(ctx, event)
	case amqp.EventTaskReminder:
		return w.notifyTaskReminder(ctx, event)
	default:
		slog.WarnContext(ctx, "Ignoring unknown event type",
			applog.FieldComponent, applog.ComponentWorker,
			applog.FieldEventType, event.Type,
			"event_id", event.ID)
		return nil
	}
}

// syncExpense mirrors the current stored state of the expense, so redelivered
// or reordered events converge on the latest version.
func (w *EventWorker) syncExpense(ctx context.Context, event *amqp.Event) error {
	if w.mirror == nil {
		return nil
	}

	expense, err := w.store.GetExpense(ctx, event.RecordID)
	if errors.Is(err, core.ErrNotFound) {
		slog.InfoContext(ctx, "Expense no longer exists, skipping mirror",
			applog.FieldComponent, applog.ComponentWorker,
			applog.FieldRecordID, event.RecordID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get expense from storage: %w", err)
	}

	ref, err := w.mirror.UpsertExpense(ctx, expense)
	if err != nil {
		return fmt.Errorf("mirror expense: %w", err)
	}

	slog.InfoContext(ctx, "Mirrored expense",
		applog.FieldComponent, applog.ComponentWorker,
		applog.FieldRecordID, expense.ID,
		applog.FieldEventType, event.Type,
		"sheets_ref", ref)
	return nil
}

func (w *EventWorker) deleteExpense(ctx context.Context, event *amqp.Event) error {
	if w.mirror == nil {
		return nil
	}
	if err := w.mirror.DeleteExpense(ctx, event.RecordID); err != nil {
		return fmt.Errorf("delete mirrored expense: %w", err)
	}

	slog.InfoContext(ctx, "Removed mirrored expense",
		applog.FieldComponent, applog.ComponentWorker,
		applog.FieldRecordID, event.RecordID)
	return nil
}

func (w *EventWorker) notifyGoalAchieved(ctx context.Context, event *amqp.Event) error {
	var goal core.SavingGoal
	if err := event.DecodePayload(&goal); err != nil {
		slog.ErrorContext(ctx, "Dropping malformed goal event",
			applog.FieldComponent, applog.ComponentWorker,
			"event_id", event.ID,
			applog.FieldError, err)
		return nil
	}

	slog.InfoContext(ctx, "Saving goal achieved",
		applog.FieldComponent, applog.ComponentWorker,
		applog.FieldUser, event.User,
		applog.FieldRecordID, goal.ID,
		"title", goal.Title,
		"target_amount", goal.TargetAmount,
		"current_amount", goal.CurrentAmount)
	return nil
}

func (w *EventWorker) notifyTaskReminder(ctx context.Context, event *amqp.Event) error {
	var task core.Task
	if err := event.DecodePayload(&task); err != nil {
		slog.ErrorContext(ctx, "Dropping malformed reminder event",
			applog.FieldComponent, applog.ComponentWorker,
			"event_id", event.ID,
			applog.FieldError, err)
		return nil
	}

	slog.InfoContext(ctx, "Task reminder",
		applog.FieldComponent, applog.ComponentReminder,
		applog.FieldUser, event.User,
		applog.FieldRecordID, task.ID,
		"title", task.Title,
		"due_date", core.DayKey(task.DueDate))
	return nil
}
