package services

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/amqp"
	"fintrack/internal/apperr"
	"fintrack/internal/cache"
	"fintrack/internal/core"
	applog "fintrack/internal/log"
)

const expenseResource = "Expense"

// ExpenseService orchestrates expense operations across the store, the stats
// cache and AMQP.
type ExpenseService struct {
	store  core.ExpenseStore
	stats  cache.Cache[core.ExpenseStats]
	events events
	now    clock
}

// NewExpenseService wires the service. publisher and statsCache may be nil.
func NewExpenseService(store core.ExpenseStore, publisher Publisher, statsCache cache.Cache[core.ExpenseStats]) *ExpenseService {
	return &ExpenseService{
		store:  store,
		stats:  statsCache,
		events: events{publisher: publisher, component: applog.ComponentExpense},
	}
}

// CreateExpense stamps the owner, applies defaults and saves the expense.
func (s *ExpenseService) CreateExpense(ctx context.Context, user string, e core.Expense) (core.Expense, error) {
	now := s.now.now()

	e.ID = core.NewID()
	e.User = user
	trimTitle(&e.Title)
	if e.Category == "" {
		e.Category = core.Other
	}
	if e.Date.IsZero() {
		e.Date = now
	}
	e.Date = core.Normalize(e.Date)
	e.CreatedAt = now
	e.UpdatedAt = now

	if err := e.Validate(); err != nil {
		return core.Expense{}, apperr.Invalid(err)
	}
	if err := s.store.CreateExpense(ctx, e); err != nil {
		return core.Expense{}, apperr.Internal(fmt.Errorf("save expense: %w", err))
	}

	s.invalidateStats(user)
	s.events.publish(ctx, amqp.EventExpenseCreated, e.ID, user, e)

	slog.InfoContext(ctx, "Expense created",
		applog.FieldComponent, applog.ComponentExpense,
		applog.FieldRecordID, e.ID,
		applog.FieldUser, user)

	return e, nil
}

func (s *ExpenseService) GetExpense(ctx context.Context, user, id string) (core.Expense, error) {
	return fetchOwned(ctx, expenseResource, id, user, s.store.GetExpense)
}

// UpdateExpense merges the fields present in patch into the caller's expense.
func (s *ExpenseService) UpdateExpense(ctx context.Context, user, id string, patch core.ExpensePatch) (core.Expense, error) {
	e, err := fetchOwned(ctx, expenseResource, id, user, s.store.GetExpense)
	if err != nil {
		return core.Expense{}, err
	}

	trimTitle(patch.Title)
	patch.Apply(&e)
	e.Date = core.Normalize(e.Date)
	e.UpdatedAt = s.now.now()

	if err := e.Validate(); err != nil {
		return core.Expense{}, apperr.Invalid(err)
	}
	if err := s.store.UpdateExpense(ctx, e); err != nil {
		return core.Expense{}, storeError(expenseResource, err)
	}

	s.invalidateStats(user)
	s.events.publish(ctx, amqp.EventExpenseUpdated, e.ID, user, e)

	return e, nil
}

func (s *ExpenseService) DeleteExpense(ctx context.Context, user, id string) error {
	e, err := fetchOwned(ctx, expenseResource, id, user, s.store.GetExpense)
	if err != nil {
		return err
	}
	if err := s.store.DeleteExpense(ctx, id); err != nil {
		return storeError(expenseResource, err)
	}

	s.invalidateStats(user)
	s.events.publish(ctx, amqp.EventExpenseDeleted, id, user, e)

	slog.InfoContext(ctx, "Expense removed",
		applog.FieldComponent, applog.ComponentExpense,
		applog.FieldRecordID, id,
		applog.FieldUser, user)

	return nil
}

// ListExpenses returns one page of the caller's expenses. f.User must already
// be set to the caller.
func (s *ExpenseService) ListExpenses(ctx context.Context, f core.ExpenseFilter) (core.ExpensePage, error) {
	if err := f.Page.Validate(); err != nil {
		return core.ExpensePage{}, apperr.Invalid(err)
	}
	if err := f.Range.Validate(); err != nil {
		return core.ExpensePage{}, apperr.Invalid(err)
	}

	expenses, total, err := s.store.ListExpenses(ctx, f)
	if err != nil {
		return core.ExpensePage{}, apperr.Internal(fmt.Errorf("list expenses: %w", err))
	}
	if expenses == nil {
		expenses = []core.Expense{}
	}

	return core.ExpensePage{
		Expenses:    expenses,
		TotalPages:  f.Page.TotalPages(total),
		CurrentPage: f.Page.Page,
		Total:       total,
		Limit:       f.Page.Limit,
	}, nil
}

// ExpenseStats aggregates the caller's expenses over the timeframe window
// ending now. The trend, category and summary queries run concurrently.
func (s *ExpenseService) ExpenseStats(ctx context.Context, user string, tf core.Timeframe) (core.ExpenseStats, error) {
	key := statsKey(user, tf)
	if s.stats != nil {
		if cached, ok := s.stats.Get(key); ok {
			slog.DebugContext(ctx, "Expense stats served from cache",
				applog.FieldComponent, applog.ComponentStats,
				applog.FieldOperation, applog.OpStats,
				applog.FieldTimeframe, tf,
				applog.FieldUser, user)
			return cached, nil
		}
	}

	from, to := tf.Window(s.now.now())
	q := core.StatsQuery{User: user, From: from, To: to}
	stats := core.ExpenseStats{Timeframe: tf}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		trends, err := s.store.ExpenseTrend(gctx, q)
		stats.Trends = trends
		return err
	})
	g.Go(func() error {
		categories, err := s.store.ExpenseCategories(gctx, q)
		stats.Categories = categories
		return err
	})
	g.Go(func() error {
		summary, err := s.store.ExpenseTotals(gctx, q)
		stats.Summary = summary
		return err
	})
	if err := g.Wait(); err != nil {
		return core.ExpenseStats{}, apperr.Internal(fmt.Errorf("expense stats: %w", err))
	}

	if stats.Trends == nil {
		stats.Trends = []core.TrendPoint{}
	}
	if stats.Categories == nil {
		stats.Categories = []core.CategoryTotal{}
	}
	core.SortCategoryTotals(stats.Categories)

	if s.stats != nil {
		s.stats.Set(key, stats)
	}
	return stats, nil
}

func statsKey(user string, tf core.Timeframe) string {
	return user + ":" + string(tf)
}

func (s *ExpenseService) invalidateStats(user string) {
	if s.stats == nil {
		return
	}
	s.stats.DeletePrefix(user + ":")
}
