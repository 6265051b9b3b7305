package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"fintrack/internal/core"
)

const goalColumns = "id, user_id, title, target_amount, current_amount, deadline, achieved, created_at, updated_at"

var goalSortColumns = map[string]string{
	"deadline":      "deadline",
	"title":         "title",
	"targetAmount":  "target_amount",
	"currentAmount": "current_amount",
	"createdAt":     "created_at",
}

func scanGoal(s rowScanner) (core.SavingGoal, error) {
	var (
		g                          core.SavingGoal
		deadline, created, updated int64
		achieved                   int
	)
	err := s.Scan(&g.ID, &g.User, &g.Title, &g.TargetAmount, &g.CurrentAmount, &deadline, &achieved, &created, &updated)
	if err != nil {
		return core.SavingGoal{}, err
	}
	g.Deadline = fromMillis(deadline)
	g.Achieved = achieved != 0
	g.CreatedAt = fromMillis(created)
	g.UpdatedAt = fromMillis(updated)
	return g, nil
}

func (r *SQLiteRepository) queryGoals(ctx context.Context, query string, args ...any) ([]core.SavingGoal, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	goals := make([]core.SavingGoal, 0)
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		goals = append(goals, g)
	}
	return goals, rows.Err()
}

func (r *SQLiteRepository) CreateGoal(ctx context.Context, g core.SavingGoal) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO saving_goals ("+goalColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		g.ID, g.User, g.Title, g.TargetAmount, g.CurrentAmount, toMillis(g.Deadline),
		boolInt(g.Achieved), toMillis(g.CreatedAt), toMillis(g.UpdatedAt))
	if err != nil {
		return fmt.Errorf("create goal: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetGoal(ctx context.Context, id string) (core.SavingGoal, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+goalColumns+" FROM saving_goals WHERE id = ?", id)
	g, err := scanGoal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.SavingGoal{}, fmt.Errorf("get goal %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.SavingGoal{}, fmt.Errorf("get goal %s: %w", id, err)
	}
	return g, nil
}

func (r *SQLiteRepository) UpdateGoal(ctx context.Context, g core.SavingGoal) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE saving_goals
		    SET title = ?, target_amount = ?, current_amount = ?, deadline = ?, achieved = ?, updated_at = ?
		  WHERE id = ?`,
		g.Title, g.TargetAmount, g.CurrentAmount, toMillis(g.Deadline), boolInt(g.Achieved), toMillis(g.UpdatedAt), g.ID)
	if err != nil {
		return fmt.Errorf("update goal %s: %w", g.ID, err)
	}
	return expectOne(res, "update goal "+g.ID)
}

func (r *SQLiteRepository) DeleteGoal(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM saving_goals WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete goal %s: %w", id, err)
	}
	return expectOne(res, "delete goal "+id)
}

func (r *SQLiteRepository) ListGoals(ctx context.Context, f core.GoalFilter) ([]core.SavingGoal, error) {
	w := &whereBuilder{}
	w.add("user_id = ?", f.User)
	if f.Achieved != nil {
		w.add("achieved = ?", boolInt(*f.Achieved))
	}

	goals, err := r.queryGoals(ctx,
		"SELECT "+goalColumns+" FROM saving_goals"+w.String()+orderBy(goalSortColumns, f.Sort, "deadline"),
		w.args...)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	return goals, nil
}

func (r *SQLiteRepository) GoalTotals(ctx context.Context, user string) (core.GoalSummary, error) {
	var s core.GoalSummary
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(achieved), 0), COALESCE(SUM(target_amount), 0.0), COALESCE(SUM(current_amount), 0.0)
		   FROM saving_goals WHERE user_id = ?`, user).
		Scan(&s.TotalGoals, &s.AchievedGoals, &s.TotalTargetAmount, &s.TotalCurrentAmount)
	if err != nil {
		return core.GoalSummary{}, fmt.Errorf("goal totals: %w", err)
	}
	s.TotalTargetAmount = core.RoundCents(s.TotalTargetAmount)
	s.TotalCurrentAmount = core.RoundCents(s.TotalCurrentAmount)
	return s, nil
}

func (r *SQLiteRepository) UpcomingGoals(ctx context.Context, user string, from, to time.Time) ([]core.SavingGoal, error) {
	goals, err := r.queryGoals(ctx,
		"SELECT "+goalColumns+` FROM saving_goals
		  WHERE user_id = ? AND achieved = 0 AND deadline >= ? AND deadline <= ?
		  ORDER BY deadline ASC, id ASC`,
		user, toMillis(from), toMillis(to))
	if err != nil {
		return nil, fmt.Errorf("upcoming goals: %w", err)
	}
	return goals, nil
}
