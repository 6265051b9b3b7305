package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/core"
)

const taskColumns = "id, user_id, title, description, due_date, priority, category, reminder_date, status, reminded, created_at, updated_at"

var taskSortColumns = map[string]string{
	"dueDate":   "due_date",
	"title":     "title",
	"createdAt": "created_at",
	"priority":  "priority",
	"status":    "status",
}

func scanTask(s rowScanner) (core.Task, error) {
	var (
		t                     core.Task
		due, created, updated int64
		reminder              sql.NullInt64
		reminded              int
	)
	err := s.Scan(&t.ID, &t.User, &t.Title, &t.Description, &due, &t.Priority, &t.Category,
		&reminder, &t.Status, &reminded, &created, &updated)
	if err != nil {
		return core.Task{}, err
	}
	t.DueDate = fromMillis(due)
	t.ReminderDate = timePtr(reminder)
	t.Reminded = reminded != 0
	t.CreatedAt = fromMillis(created)
	t.UpdatedAt = fromMillis(updated)
	return t, nil
}

func (r *SQLiteRepository) queryTasks(ctx context.Context, query string, args ...any) ([]core.Task, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := make([]core.Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (r *SQLiteRepository) CreateTask(ctx context.Context, t core.Task) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO tasks ("+taskColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		t.ID, t.User, t.Title, t.Description, toMillis(t.DueDate), t.Priority, t.Category,
		nullMillis(t.ReminderDate), t.Status, boolInt(t.Reminded), toMillis(t.CreatedAt), toMillis(t.UpdatedAt))
	if err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetTask(ctx context.Context, id string) (core.Task, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+taskColumns+" FROM tasks WHERE id = ?", id)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Task{}, fmt.Errorf("get task %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Task{}, fmt.Errorf("get task %s: %w", id, err)
	}
	return t, nil
}

func (r *SQLiteRepository) UpdateTask(ctx context.Context, t core.Task) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE tasks
		    SET title = ?, description = ?, due_date = ?, priority = ?, category = ?,
		        reminder_date = ?, status = ?, reminded = ?, updated_at = ?
		  WHERE id = ?`,
		t.Title, t.Description, toMillis(t.DueDate), t.Priority, t.Category,
		nullMillis(t.ReminderDate), t.Status, boolInt(t.Reminded), toMillis(t.UpdatedAt), t.ID)
	if err != nil {
		return fmt.Errorf("update task %s: %w", t.ID, err)
	}
	return expectOne(res, "update task "+t.ID)
}

func (r *SQLiteRepository) DeleteTask(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete task %s: %w", id, err)
	}
	return expectOne(res, "delete task "+id)
}

func (r *SQLiteRepository) ListTasks(ctx context.Context, f core.TaskFilter) ([]core.Task, error) {
	w := &whereBuilder{}
	w.add("user_id = ?", f.User)
	if f.Status != "" {
		w.add("status = ?", f.Status)
	}
	if f.Category != "" {
		w.add("category = ?", f.Category)
	}
	w.addRange("due_date", f.Range)

	tasks, err := r.queryTasks(ctx,
		"SELECT "+taskColumns+" FROM tasks"+w.String()+orderBy(taskSortColumns, f.Sort, "due_date"),
		w.args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

func (r *SQLiteRepository) TasksByStatus(ctx context.Context, user string) ([]core.TaskStatusGroup, error) {
	tasks, err := r.queryTasks(ctx,
		"SELECT "+taskColumns+" FROM tasks WHERE user_id = ? ORDER BY due_date ASC, id ASC", user)
	if err != nil {
		return nil, fmt.Errorf("tasks by status: %w", err)
	}
	return core.GroupTasksByStatus(tasks), nil
}

func (r *SQLiteRepository) UpcomingTasks(ctx context.Context, user string, from time.Time, limit int) ([]core.Task, error) {
	tasks, err := r.queryTasks(ctx,
		"SELECT "+taskColumns+` FROM tasks
		  WHERE user_id = ? AND status != ? AND due_date >= ?
		  ORDER BY due_date ASC, id ASC LIMIT ?`,
		user, core.StatusCompleted, toMillis(from), limit)
	if err != nil {
		return nil, fmt.Errorf("upcoming tasks: %w", err)
	}
	return tasks, nil
}

func (r *SQLiteRepository) DueReminders(ctx context.Context, now time.Time, limit int) ([]core.Task, error) {
	tasks, err := r.queryTasks(ctx,
		"SELECT "+taskColumns+` FROM tasks
		  WHERE reminded = 0 AND reminder_date IS NOT NULL AND reminder_date <= ? AND status != ?
		  ORDER BY reminder_date ASC, id ASC LIMIT ?`,
		toMillis(now), core.StatusCompleted, limit)
	if err != nil {
		return nil, fmt.Errorf("due reminders: %w", err)
	}
	return tasks, nil
}

func (r *SQLiteRepository) MarkReminded(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "UPDATE tasks SET reminded = 1 WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("mark task %s reminded: %w", id, err)
	}
	if err := expectOne(res, "mark task "+id+" reminded"); err != nil {
		return err
	}

	slog.DebugContext(ctx, "Task marked as reminded", "id", id)
	return nil
}
