package mongostore

import (
	"context"
	"fmt"

	"fintrack/internal/core"

	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

func (s *Store) CreateExpense(ctx context.Context, e core.Expense) error {
	if _, err := s.expenses.InsertOne(ctx, e); err != nil {
		return fmt.Errorf("create expense: %w", err)
	}
	return nil
}

func (s *Store) GetExpense(ctx context.Context, id string) (core.Expense, error) {
	var e core.Expense
	if err := findOne(ctx, s.expenses, id, &e); err != nil {
		return core.Expense{}, fmt.Errorf("get expense %s: %w", id, err)
	}
	return e, nil
}

func (s *Store) UpdateExpense(ctx context.Context, e core.Expense) error {
	if err := replaceOne(ctx, s.expenses, e.ID, e); err != nil {
		return fmt.Errorf("update expense %s: %w", e.ID, err)
	}
	return nil
}

func (s *Store) DeleteExpense(ctx context.Context, id string) error {
	if err := deleteOne(ctx, s.expenses, id); err != nil {
		return fmt.Errorf("delete expense %s: %w", id, err)
	}
	return nil
}

func (s *Store) ListExpenses(ctx context.Context, f core.ExpenseFilter) ([]core.Expense, int64, error) {
	filter := expenseFilter(f)

	total, err := s.expenses.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count expenses: %w", err)
	}

	opts := options.Find().
		SetSort(sortSpec(f.Sort, "date")).
		SetSkip(int64(f.Page.Offset())).
		SetLimit(int64(f.Page.Limit))
	expenses, err := findAll[core.Expense](ctx, s.expenses, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list expenses: %w", err)
	}
	return expenses, total, nil
}

func (s *Store) ExpenseTrend(ctx context.Context, q core.StatsQuery) ([]core.TrendPoint, error) {
	points, err := aggregate[core.TrendPoint](ctx, s.expenses, trendPipeline(q))
	if err != nil {
		return nil, fmt.Errorf("expense trend: %w", err)
	}
	for i := range points {
		points[i].Amount = core.RoundCents(points[i].Amount)
	}
	return points, nil
}

func (s *Store) ExpenseCategories(ctx context.Context, q core.StatsQuery) ([]core.CategoryTotal, error) {
	totals, err := aggregate[core.CategoryTotal](ctx, s.expenses, categoryPipeline(q))
	if err != nil {
		return nil, fmt.Errorf("expense categories: %w", err)
	}
	for i := range totals {
		totals[i].Amount = core.RoundCents(totals[i].Amount)
	}
	core.SortCategoryTotals(totals)
	return totals, nil
}

func (s *Store) ExpenseTotals(ctx context.Context, q core.StatsQuery) (core.ExpenseSummary, error) {
	rows, err := aggregate[core.ExpenseSummary](ctx, s.expenses, totalsPipeline(q))
	if err != nil {
		return core.ExpenseSummary{}, fmt.Errorf("expense totals: %w", err)
	}
	if len(rows) == 0 {
		return core.ExpenseSummary{}, nil
	}
	sum := rows[0]
	sum.AvgAmount = core.Mean(sum.TotalAmount, sum.Count)
	sum.TotalAmount = core.RoundCents(sum.TotalAmount)
	return sum, nil
}
