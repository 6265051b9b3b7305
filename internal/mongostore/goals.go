package mongostore

import (
	"context"
	"fmt"
	"time"

	"fintrack/internal/core"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

func (s *Store) CreateGoal(ctx context.Context, g core.SavingGoal) error {
	if _, err := s.goals.InsertOne(ctx, g); err != nil {
		return fmt.Errorf("create goal: %w", err)
	}
	return nil
}

func (s *Store) GetGoal(ctx context.Context, id string) (core.SavingGoal, error) {
	var g core.SavingGoal
	if err := findOne(ctx, s.goals, id, &g); err != nil {
		return core.SavingGoal{}, fmt.Errorf("get goal %s: %w", id, err)
	}
	return g, nil
}

func (s *Store) UpdateGoal(ctx context.Context, g core.SavingGoal) error {
	if err := replaceOne(ctx, s.goals, g.ID, g); err != nil {
		return fmt.Errorf("update goal %s: %w", g.ID, err)
	}
	return nil
}

func (s *Store) DeleteGoal(ctx context.Context, id string) error {
	if err := deleteOne(ctx, s.goals, id); err != nil {
		return fmt.Errorf("delete goal %s: %w", id, err)
	}
	return nil
}

func (s *Store) ListGoals(ctx context.Context, f core.GoalFilter) ([]core.SavingGoal, error) {
	opts := options.Find().SetSort(sortSpec(f.Sort, "deadline"))
	goals, err := findAll[core.SavingGoal](ctx, s.goals, goalFilter(f), opts)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	return goals, nil
}

func (s *Store) GoalTotals(ctx context.Context, user string) (core.GoalSummary, error) {
	rows, err := aggregate[core.GoalSummary](ctx, s.goals, goalTotalsPipeline(user))
	if err != nil {
		return core.GoalSummary{}, fmt.Errorf("goal totals: %w", err)
	}
	if len(rows) == 0 {
		return core.GoalSummary{}, nil
	}
	sum := rows[0]
	sum.TotalTargetAmount = core.RoundCents(sum.TotalTargetAmount)
	sum.TotalCurrentAmount = core.RoundCents(sum.TotalCurrentAmount)
	return sum, nil
}

func (s *Store) UpcomingGoals(ctx context.Context, user string, from, to time.Time) ([]core.SavingGoal, error) {
	opts := options.Find().SetSort(bson.D{{Key: "deadline", Value: 1}, {Key: "_id", Value: 1}})
	goals, err := findAll[core.SavingGoal](ctx, s.goals, upcomingGoalsFilter(user, from, to), opts)
	if err != nil {
		return nil, fmt.Errorf("upcoming goals: %w", err)
	}
	return goals, nil
}
