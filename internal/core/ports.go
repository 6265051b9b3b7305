package core

import (
	"context"
	"time"
)

// Ports for outbound store adapters. Get, Update and Delete return ErrNotFound
// (possibly wrapped) when no record has the given id.
type (
	ExpenseStore interface {
		CreateExpense(ctx context.Context, e Expense) error
		GetExpense(ctx context.Context, id string) (Expense, error)
		UpdateExpense(ctx context.Context, e Expense) error
		DeleteExpense(ctx context.Context, id string) error
		// ListExpenses returns one page of matches and the total match count.
		ListExpenses(ctx context.Context, f ExpenseFilter) ([]Expense, int64, error)

		ExpenseTrend(ctx context.Context, q StatsQuery) ([]TrendPoint, error)
		ExpenseCategories(ctx context.Context, q StatsQuery) ([]CategoryTotal, error)
		ExpenseTotals(ctx context.Context, q StatsQuery) (ExpenseSummary, error)
	}

	GoalStore interface {
		CreateGoal(ctx context.Context, g SavingGoal) error
		GetGoal(ctx context.Context, id string) (SavingGoal, error)
		UpdateGoal(ctx context.Context, g SavingGoal) error
		DeleteGoal(ctx context.Context, id string) error
		ListGoals(ctx context.Context, f GoalFilter) ([]SavingGoal, error)

		GoalTotals(ctx context.Context, user string) (GoalSummary, error)
		// UpcomingGoals lists non-achieved goals with a deadline in [from, to], soonest first.
		UpcomingGoals(ctx context.Context, user string, from, to time.Time) ([]SavingGoal, error)
	}

	TaskStore interface {
		CreateTask(ctx context.Context, t Task) error
		GetTask(ctx context.Context, id string) (Task, error)
		UpdateTask(ctx context.Context, t Task) error
		DeleteTask(ctx context.Context, id string) error
		ListTasks(ctx context.Context, f TaskFilter) ([]Task, error)

		TasksByStatus(ctx context.Context, user string) ([]TaskStatusGroup, error)
		// UpcomingTasks lists tasks not Completed with dueDate >= from, soonest first.
		UpcomingTasks(ctx context.Context, user string, from time.Time, limit int) ([]Task, error)

		// DueReminders lists tasks of any owner whose reminder date is at or
		// before now, not yet reminded and not Completed.
		DueReminders(ctx context.Context, now time.Time, limit int) ([]Task, error)
		MarkReminded(ctx context.Context, id string) error
	}

	Store interface {
		ExpenseStore
		GoalStore
		TaskStore
		Ping(ctx context.Context) error
		Close() error
	}
)
