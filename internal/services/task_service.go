package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/apperr"
	"fintrack/internal/core"
	applog "fintrack/internal/log"
)

const taskResource = "Task"

type TaskService struct {
	store core.TaskStore
	now   clock
}

func NewTaskService(store core.TaskStore) *TaskService {
	return &TaskService{store: store}
}

func (s *TaskService) CreateTask(ctx context.Context, user string, t core.Task) (core.Task, error) {
	now := s.now.now()

	t.ID = core.NewID()
	t.User = user
	trimTitle(&t.Title)
	t.Category = strings.TrimSpace(t.Category)
	if strings.TrimSpace(t.Status) == "" {
		t.Status = core.StatusPending
	}
	t.DueDate = core.Normalize(t.DueDate)
	if t.ReminderDate != nil {
		rd := core.Normalize(*t.ReminderDate)
		t.ReminderDate = &rd
	}
	t.Reminded = false
	t.CreatedAt = now
	t.UpdatedAt = now

	if err := t.Validate(); err != nil {
		return core.Task{}, apperr.Invalid(err)
	}
	if err := s.store.CreateTask(ctx, t); err != nil {
		return core.Task{}, apperr.Internal(fmt.Errorf("save task: %w", err))
	}

	slog.InfoContext(ctx, "Task created",
		applog.FieldComponent, applog.ComponentTask,
		applog.FieldRecordID, t.ID,
		applog.FieldUser, user)

	return t, nil
}

func (s *TaskService) GetTask(ctx context.Context, user, id string) (core.Task, error) {
	return fetchOwned(ctx, taskResource, id, user, s.store.GetTask)
}

// UpdateTask merges patch into the caller's task. A new reminder date re-arms
// the reminder.
func (s *TaskService) UpdateTask(ctx context.Context, user, id string, patch core.TaskPatch) (core.Task, error) {
	t, err := fetchOwned(ctx, taskResource, id, user, s.store.GetTask)
	if err != nil {
		return core.Task{}, err
	}

	trimTitle(patch.Title)
	if patch.Category != nil {
		category := strings.TrimSpace(*patch.Category)
		patch.Category = &category
	}
	if patch.Status != nil && strings.TrimSpace(*patch.Status) == "" {
		pending := core.StatusPending
		patch.Status = &pending
	}
	patch.Apply(&t)
	t.DueDate = core.Normalize(t.DueDate)
	if t.ReminderDate != nil {
		rd := core.Normalize(*t.ReminderDate)
		t.ReminderDate = &rd
	}
	t.UpdatedAt = s.now.now()

	if err := t.Validate(); err != nil {
		return core.Task{}, apperr.Invalid(err)
	}
	if err := s.store.UpdateTask(ctx, t); err != nil {
		return core.Task{}, storeError(taskResource, err)
	}
	return t, nil
}

func (s *TaskService) DeleteTask(ctx context.Context, user, id string) error {
	if _, err := fetchOwned(ctx, taskResource, id, user, s.store.GetTask); err != nil {
		return err
	}
	if err := s.store.DeleteTask(ctx, id); err != nil {
		return storeError(taskResource, err)
	}
	return nil
}

func (s *TaskService) ListTasks(ctx context.Context, f core.TaskFilter) ([]core.Task, error) {
	if err := f.Range.Validate(); err != nil {
		return nil, apperr.Invalid(err)
	}
	tasks, err := s.store.ListTasks(ctx, f)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("list tasks: %w", err))
	}
	if tasks == nil {
		tasks = []core.Task{}
	}
	return tasks, nil
}

// TasksSummary groups the caller's tasks by status and lists the soonest open
// tasks due from now on.
func (s *TaskService) TasksSummary(ctx context.Context, user string) (core.TasksOverview, error) {
	now := s.now.now()
	var overview core.TasksOverview

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		groups, err := s.store.TasksByStatus(gctx, user)
		overview.Summary = groups
		return err
	})
	g.Go(func() error {
		upcoming, err := s.store.UpcomingTasks(gctx, user, now, core.UpcomingTaskLimit)
		overview.UpcomingTasks = upcoming
		return err
	})
	if err := g.Wait(); err != nil {
		return core.TasksOverview{}, apperr.Internal(fmt.Errorf("tasks summary: %w", err))
	}

	if overview.Summary == nil {
		overview.Summary = []core.TaskStatusGroup{}
	}
	if overview.UpcomingTasks == nil {
		overview.UpcomingTasks = []core.Task{}
	}
	return overview, nil
}
