package services

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/amqp"
	"fintrack/internal/apperr"
	"fintrack/internal/core"
	applog "fintrack/internal/log"
)

const goalResource = "Saving goal"

type GoalService struct {
	store  core.GoalStore
	events events
	now    clock
}

func NewGoalService(store core.GoalStore, publisher Publisher) *GoalService {
	return &GoalService{
		store:  store,
		events: events{publisher: publisher, component: applog.ComponentGoal},
	}
}

func (s *GoalService) CreateGoal(ctx context.Context, user string, g core.SavingGoal) (core.SavingGoal, error) {
	now := s.now.now()

	g.ID = core.NewID()
	g.User = user
	trimTitle(&g.Title)
	g.Deadline = core.Normalize(g.Deadline)
	g.Achieved = core.IsAchieved(g.CurrentAmount, g.TargetAmount)
	g.CreatedAt = now
	g.UpdatedAt = now

	if err := g.Validate(); err != nil {
		return core.SavingGoal{}, apperr.Invalid(err)
	}
	if err := s.store.CreateGoal(ctx, g); err != nil {
		return core.SavingGoal{}, apperr.Internal(fmt.Errorf("save goal: %w", err))
	}

	slog.InfoContext(ctx, "Saving goal created",
		applog.FieldComponent, applog.ComponentGoal,
		applog.FieldRecordID, g.ID,
		applog.FieldUser, user)

	return g.WithProgress(), nil
}

func (s *GoalService) GetGoal(ctx context.Context, user, id string) (core.SavingGoal, error) {
	g, err := fetchOwned(ctx, goalResource, id, user, s.store.GetGoal)
	if err != nil {
		return core.SavingGoal{}, err
	}
	return g.WithProgress(), nil
}

// UpdateGoal merges patch into the caller's goal. A goal that becomes achieved
// through this update emits a goal.achieved event.
func (s *GoalService) UpdateGoal(ctx context.Context, user, id string, patch core.GoalPatch) (core.SavingGoal, error) {
	g, err := fetchOwned(ctx, goalResource, id, user, s.store.GetGoal)
	if err != nil {
		return core.SavingGoal{}, err
	}

	trimTitle(patch.Title)
	becameAchieved := patch.Apply(&g)
	g.Deadline = core.Normalize(g.Deadline)
	g.UpdatedAt = s.now.now()

	if err := g.Validate(); err != nil {
		return core.SavingGoal{}, apperr.Invalid(err)
	}
	if err := s.store.UpdateGoal(ctx, g); err != nil {
		return core.SavingGoal{}, storeError(goalResource, err)
	}

	g = g.WithProgress()
	if becameAchieved {
		slog.InfoContext(ctx, "Saving goal achieved",
			applog.FieldComponent, applog.ComponentGoal,
			applog.FieldRecordID, g.ID,
			applog.FieldUser, user)
		s.events.publish(ctx, amqp.EventGoalAchieved, g.ID, user, g)
	}
	return g, nil
}

func (s *GoalService) DeleteGoal(ctx context.Context, user, id string) error {
	if _, err := fetchOwned(ctx, goalResource, id, user, s.store.GetGoal); err != nil {
		return err
	}
	if err := s.store.DeleteGoal(ctx, id); err != nil {
		return storeError(goalResource, err)
	}
	return nil
}

// ListGoals returns the caller's goals with progress filled in.
func (s *GoalService) ListGoals(ctx context.Context, f core.GoalFilter) ([]core.SavingGoal, error) {
	goals, err := s.store.ListGoals(ctx, f)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("list goals: %w", err))
	}
	out := make([]core.SavingGoal, len(goals))
	for i, g := range goals {
		out[i] = g.WithProgress()
	}
	return out, nil
}

// GoalsSummary returns the caller's totals and the goals due within the
// upcoming deadline window that are not yet achieved.
func (s *GoalService) GoalsSummary(ctx context.Context, user string) (core.GoalsOverview, error) {
	now := s.now.now()
	var overview core.GoalsOverview

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		summary, err := s.store.GoalTotals(gctx, user)
		overview.Summary = summary
		return err
	})
	g.Go(func() error {
		upcoming, err := s.store.UpcomingGoals(gctx, user, now, now.Add(core.UpcomingDeadlineWindow))
		overview.UpcomingDeadlines = upcoming
		return err
	})
	if err := g.Wait(); err != nil {
		return core.GoalsOverview{}, apperr.Internal(fmt.Errorf("goals summary: %w", err))
	}

	upcoming := make([]core.SavingGoal, len(overview.UpcomingDeadlines))
	for i, goal := range overview.UpcomingDeadlines {
		upcoming[i] = goal.WithProgress()
	}
	overview.UpcomingDeadlines = upcoming
	return overview, nil
}
