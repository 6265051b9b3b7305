package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"fintrack/internal/core"
)

const expenseColumns = "id, user_id, title, amount, category, date, created_at, updated_at"

var expenseSortColumns = map[string]string{
	"date":      "date",
	"amount":    "amount",
	"title":     "title",
	"createdAt": "created_at",
}

func scanExpense(s rowScanner) (core.Expense, error) {
	var (
		e                      core.Expense
		category               string
		date, created, updated int64
	)
	if err := s.Scan(&e.ID, &e.User, &e.Title, &e.Amount, &category, &date, &created, &updated); err != nil {
		return core.Expense{}, err
	}
	e.Category = core.Category(category)
	e.Date = fromMillis(date)
	e.CreatedAt = fromMillis(created)
	e.UpdatedAt = fromMillis(updated)
	return e, nil
}

func (r *SQLiteRepository) CreateExpense(ctx context.Context, e core.Expense) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO expenses ("+expenseColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		e.ID, e.User, e.Title, e.Amount, string(e.Category),
		toMillis(e.Date), toMillis(e.CreatedAt), toMillis(e.UpdatedAt))
	if err != nil {
		return fmt.Errorf("create expense: %w", err)
	}

	slog.DebugContext(ctx, "Expense saved to SQLite", "id", e.ID, "category", e.Category, "amount", e.Amount)
	return nil
}

func (r *SQLiteRepository) GetExpense(ctx context.Context, id string) (core.Expense, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+expenseColumns+" FROM expenses WHERE id = ?", id)
	e, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, fmt.Errorf("get expense %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense %s: %w", id, err)
	}
	return e, nil
}

func (r *SQLiteRepository) UpdateExpense(ctx context.Context, e core.Expense) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE expenses SET title = ?, amount = ?, category = ?, date = ?, updated_at = ? WHERE id = ?",
		e.Title, e.Amount, string(e.Category), toMillis(e.Date), toMillis(e.UpdatedAt), e.ID)
	if err != nil {
		return fmt.Errorf("update expense %s: %w", e.ID, err)
	}
	return expectOne(res, "update expense "+e.ID)
}

func (r *SQLiteRepository) DeleteExpense(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM expenses WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete expense %s: %w", id, err)
	}
	return expectOne(res, "delete expense "+id)
}

func expenseWhere(f core.ExpenseFilter) *whereBuilder {
	w := &whereBuilder{}
	w.add("user_id = ?", f.User)
	if f.Category != "" {
		w.add("category = ?", string(f.Category))
	}
	w.addRange("date", f.Range)
	return w
}

func (r *SQLiteRepository) ListExpenses(ctx context.Context, f core.ExpenseFilter) ([]core.Expense, int64, error) {
	w := expenseWhere(f)

	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM expenses"+w.String(), w.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count expenses: %w", err)
	}

	query := "SELECT " + expenseColumns + " FROM expenses" + w.String() +
		orderBy(expenseSortColumns, f.Sort, "date") + " LIMIT ? OFFSET ?"
	args := append(w.args, f.Page.Limit, f.Page.Offset())

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	expenses := make([]core.Expense, 0, f.Page.Limit)
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan expense: %w", err)
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate expenses: %w", err)
	}
	return expenses, total, nil
}

const statsWhere = " FROM expenses WHERE user_id = ? AND date >= ? AND date <= ?"

func statsArgs(q core.StatsQuery) []any {
	return []any{q.User, toMillis(q.From), toMillis(q.To)}
}

func (r *SQLiteRepository) ExpenseTrend(ctx context.Context, q core.StatsQuery) ([]core.TrendPoint, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT strftime('%Y-%m-%d', date / 1000, 'unixepoch') AS day, SUM(amount)"+statsWhere+
			" GROUP BY day ORDER BY day ASC",
		statsArgs(q)...)
	if err != nil {
		return nil, fmt.Errorf("expense trend: %w", err)
	}
	defer rows.Close()

	points := make([]core.TrendPoint, 0)
	for rows.Next() {
		var p core.TrendPoint
		if err := rows.Scan(&p.Date, &p.Amount); err != nil {
			return nil, fmt.Errorf("scan trend point: %w", err)
		}
		p.Amount = core.RoundCents(p.Amount)
		points = append(points, p)
	}
	return points, rows.Err()
}

func (r *SQLiteRepository) ExpenseCategories(ctx context.Context, q core.StatsQuery) ([]core.CategoryTotal, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT category, SUM(amount) AS total, COUNT(*)"+statsWhere+
			" GROUP BY category ORDER BY total DESC, category ASC",
		statsArgs(q)...)
	if err != nil {
		return nil, fmt.Errorf("expense categories: %w", err)
	}
	defer rows.Close()

	totals := make([]core.CategoryTotal, 0)
	for rows.Next() {
		var (
			c        core.CategoryTotal
			category string
		)
		if err := rows.Scan(&category, &c.Amount, &c.Count); err != nil {
			return nil, fmt.Errorf("scan category total: %w", err)
		}
		c.Category = core.Category(category)
		c.Amount = core.RoundCents(c.Amount)
		totals = append(totals, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// Rounding can create ties the SQL ordering did not see
	core.SortCategoryTotals(totals)
	return totals, nil
}

func (r *SQLiteRepository) ExpenseTotals(ctx context.Context, q core.StatsQuery) (core.ExpenseSummary, error) {
	var s core.ExpenseSummary
	err := r.db.QueryRowContext(ctx, "SELECT COALESCE(SUM(amount), 0.0), COUNT(*)"+statsWhere, statsArgs(q)...).
		Scan(&s.TotalAmount, &s.Count)
	if err != nil {
		return core.ExpenseSummary{}, fmt.Errorf("expense totals: %w", err)
	}
	s.AvgAmount = core.Mean(s.TotalAmount, s.Count)
	s.TotalAmount = core.RoundCents(s.TotalAmount)
	return s, nil
}
