// Package services holds the use cases behind the HTTP handlers: ownership
// checks, defaults and validation, store calls, cache invalidation and
// best-effort domain events.
package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/apperr"
	"fintrack/internal/core"
	applog "fintrack/internal/log"
)

const notAuthorized = "Not authorized"

// Publisher delivers domain events. *amqp.Client implements it.
type Publisher interface {
	Publish(ctx context.Context, event *amqp.Event) error
}

var _ Publisher = (*amqp.Client)(nil)

type owned interface {
	OwnedBy(user string) bool
}

// fetchOwned loads a record and checks it belongs to user. A missing record is
// NotFound whoever asks; a record of another owner is Unauthorized.
func fetchOwned[T owned](ctx context.Context, resource, id, user string, get func(context.Context, string) (T, error)) (T, error) {
	rec, err := get(ctx, id)
	if err != nil {
		var zero T
		if errors.Is(err, core.ErrNotFound) {
			return zero, apperr.NotFound(resource)
		}
		return zero, apperr.Internal(err)
	}
	if !rec.OwnedBy(user) {
		var zero T
		return zero, apperr.Unauthorized(notAuthorized)
	}
	return rec, nil
}

// storeError maps a store failure on a record that was just read. A record
// deleted in between surfaces as NotFound.
func storeError(resource string, err error) error {
	if errors.Is(err, core.ErrNotFound) {
		return apperr.NotFound(resource)
	}
	return apperr.Internal(err)
}

func trimTitle(title *string) {
	if title != nil {
		*title = strings.TrimSpace(*title)
	}
}

// events publishes best effort: failures are logged and never returned.
type events struct {
	publisher Publisher
	component string
}

func (e events) publish(ctx context.Context, eventType, recordID, user string, payload any) {
	if e.publisher == nil {
		return
	}

	event, err := amqp.NewEvent(eventType, recordID, user, payload)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to build event", e.fields(eventType, recordID, user, err)...)
		return
	}

	if err := e.publisher.Publish(ctx, event); err != nil {
		slog.WarnContext(ctx, "Failed to publish event", e.fields(eventType, recordID, user, err)...)
	}
}

func (e events) fields(eventType, recordID, user string, err error) []any {
	f := applog.NewFields().
		WithComponent(e.component).
		WithOperation(applog.OpPublish).
		WithRecord(e.component, recordID, user).
		WithError(err)
	f[applog.FieldEventType] = eventType
	return f.ToSlice()
}

type clock func() time.Time

func (c clock) now() time.Time {
	if c == nil {
		return core.Normalize(time.Now())
	}
	return core.Normalize(c())
}
