package mongostore

import (
	"context"
	"fmt"
	"time"

	"fintrack/internal/core"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

func (s *Store) CreateTask(ctx context.Context, t core.Task) error {
	if _, err := s.tasks.InsertOne(ctx, t); err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

func (s *Store) GetTask(ctx context.Context, id string) (core.Task, error) {
	var t core.Task
	if err := findOne(ctx, s.tasks, id, &t); err != nil {
		return core.Task{}, fmt.Errorf("get task %s: %w", id, err)
	}
	return t, nil
}

func (s *Store) UpdateTask(ctx context.Context, t core.Task) error {
	if err := replaceOne(ctx, s.tasks, t.ID, t); err != nil {
		return fmt.Errorf("update task %s: %w", t.ID, err)
	}
	return nil
}

func (s *Store) DeleteTask(ctx context.Context, id string) error {
	if err := deleteOne(ctx, s.tasks, id); err != nil {
		return fmt.Errorf("delete task %s: %w", id, err)
	}
	return nil
}

func (s *Store) ListTasks(ctx context.Context, f core.TaskFilter) ([]core.Task, error) {
	opts := options.Find().SetSort(sortSpec(f.Sort, "dueDate"))
	tasks, err := findAll[core.Task](ctx, s.tasks, taskFilter(f), opts)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

func (s *Store) TasksByStatus(ctx context.Context, user string) ([]core.TaskStatusGroup, error) {
	groups, err := aggregate[core.TaskStatusGroup](ctx, s.tasks, taskStatusPipeline(user))
	if err != nil {
		return nil, fmt.Errorf("tasks by status: %w", err)
	}
	return groups, nil
}

var dueDateOrder = bson.D{{Key: "dueDate", Value: 1}, {Key: "_id", Value: 1}}

func (s *Store) UpcomingTasks(ctx context.Context, user string, from time.Time, limit int) ([]core.Task, error) {
	opts := options.Find().SetSort(dueDateOrder).SetLimit(int64(limit))
	tasks, err := findAll[core.Task](ctx, s.tasks, upcomingTasksFilter(user, from), opts)
	if err != nil {
		return nil, fmt.Errorf("upcoming tasks: %w", err)
	}
	return tasks, nil
}

func (s *Store) DueReminders(ctx context.Context, now time.Time, limit int) ([]core.Task, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "reminderDate", Value: 1}, {Key: "_id", Value: 1}}).
		SetLimit(int64(limit))
	tasks, err := findAll[core.Task](ctx, s.tasks, dueRemindersFilter(now), opts)
	if err != nil {
		return nil, fmt.Errorf("due reminders: %w", err)
	}
	return tasks, nil
}

func (s *Store) MarkReminded(ctx context.Context, id string) error {
	res, err := s.tasks.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"reminded": true}})
	if err != nil {
		return fmt.Errorf("mark task %s reminded: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("mark task %s reminded: %w", id, core.ErrNotFound)
	}
	return nil
}
