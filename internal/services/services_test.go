package services

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"fintrack/internal/amqp"
	"fintrack/internal/apperr"
	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/storage"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []*amqp.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e *amqp.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

func (p *recordingPublisher) last() *amqp.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.events) == 0 {
		return nil
	}
	return p.events[len(p.events)-1]
}

type ServicesTestSuite struct {
	suite.Suite
	ctx       context.Context
	repo      *storage.SQLiteRepository
	publisher *recordingPublisher
	expenses  *ExpenseService
	goals     *GoalService
	tasks     *TaskService
	now       time.Time
}

func (s *ServicesTestSuite) SetupTest() {
	repo, err := storage.NewSQLiteRepository(filepath.Join(s.T().TempDir(), "services.db"))
	require.NoError(s.T(), err)

	s.ctx = context.Background()
	s.repo = repo
	s.publisher = &recordingPublisher{}
	s.now = time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)
	fixed := func() time.Time { return s.now }

	s.expenses = NewExpenseService(repo, s.publisher, cache.NewLRUCache[core.ExpenseStats](16, time.Minute))
	s.expenses.now = fixed
	s.goals = NewGoalService(repo, s.publisher)
	s.goals.now = fixed
	s.tasks = NewTaskService(repo)
	s.tasks.now = fixed
}

func (s *ServicesTestSuite) TearDownTest() {
	if s.repo != nil {
		s.repo.Close()
	}
}

func TestServicesTestSuite(t *testing.T) {
	suite.Run(t, new(ServicesTestSuite))
}

func ptr[T any](v T) *T { return &v }

func (s *ServicesTestSuite) day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (s *ServicesTestSuite) TestCreateExpense_Defaults() {
	e, err := s.expenses.CreateExpense(s.ctx, "alice", core.Expense{
		User:   "mallory",
		Title:  "  Coffee  ",
		Amount: 3.5,
	})
	s.Require().NoError(err)

	s.True(core.ValidID(e.ID))
	s.Equal("alice", e.User, "owner comes from the principal, not the body")
	s.Equal("Coffee", e.Title)
	s.Equal(core.Other, e.Category)
	s.Equal(s.now, e.Date)
	s.Equal(s.now, e.CreatedAt)

	stored, err := s.repo.GetExpense(s.ctx, e.ID)
	s.Require().NoError(err)
	s.Equal(e, stored)

	s.Equal([]string{amqp.EventExpenseCreated}, s.publisher.types())
	s.Equal(e.ID, s.publisher.last().RecordID)
}

func (s *ServicesTestSuite) TestCreateExpense_Invalid() {
	tests := []struct {
		name string
		in   core.Expense
		want error
	}{
		{"empty title", core.Expense{Title: " ", Amount: 1}, core.ErrEmptyTitle},
		{"zero amount", core.Expense{Title: "x", Amount: 0}, core.ErrInvalidAmount},
		{"negative amount", core.Expense{Title: "x", Amount: -5}, core.ErrInvalidAmount},
		{"bad category", core.Expense{Title: "x", Amount: 1, Category: "Travel"}, core.ErrInvalidCategory},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			_, err := s.expenses.CreateExpense(s.ctx, "alice", tt.in)
			s.True(apperr.Is(err, apperr.KindBadRequest), "got %v", err)
			s.ErrorIs(err, tt.want)
		})
	}
	s.Empty(s.publisher.types())
}

func (s *ServicesTestSuite) TestUpdateExpense_OwnershipAndPatch() {
	e, err := s.expenses.CreateExpense(s.ctx, "alice", core.Expense{Title: "Lunch", Amount: 12, Category: core.Food})
	s.Require().NoError(err)

	_, err = s.expenses.UpdateExpense(s.ctx, "bob", e.ID, core.ExpensePatch{Amount: ptr(1.0)})
	s.True(apperr.Is(err, apperr.KindUnauthorized), "got %v", err)

	_, err = s.expenses.UpdateExpense(s.ctx, "bob", core.NewID(), core.ExpensePatch{Amount: ptr(1.0)})
	s.True(apperr.Is(err, apperr.KindNotFound), "missing ids are NotFound for every caller, got %v", err)

	_, err = s.expenses.UpdateExpense(s.ctx, "alice", e.ID, core.ExpensePatch{Amount: ptr(0.0)})
	s.True(apperr.Is(err, apperr.KindBadRequest), "explicit zero amount is validated, got %v", err)

	s.now = s.now.Add(time.Hour)
	updated, err := s.expenses.UpdateExpense(s.ctx, "alice", e.ID, core.ExpensePatch{Title: ptr("Dinner"), Category: ptr(core.Bills)})
	s.Require().NoError(err)
	s.Equal("Dinner", updated.Title)
	s.Equal(core.Bills, updated.Category)
	s.Equal(12.0, updated.Amount, "absent fields are kept")
	s.Equal(e.CreatedAt, updated.CreatedAt)
	s.Equal(s.now, updated.UpdatedAt)

	s.Equal([]string{amqp.EventExpenseCreated, amqp.EventExpenseUpdated}, s.publisher.types())
}

func (s *ServicesTestSuite) TestDeleteExpense() {
	e, err := s.expenses.CreateExpense(s.ctx, "alice", core.Expense{Title: "Taxi", Amount: 20, Category: core.Transport})
	s.Require().NoError(err)

	err = s.expenses.DeleteExpense(s.ctx, "bob", e.ID)
	s.True(apperr.Is(err, apperr.KindUnauthorized), "got %v", err)

	s.Require().NoError(s.expenses.DeleteExpense(s.ctx, "alice", e.ID))

	_, err = s.expenses.GetExpense(s.ctx, "alice", e.ID)
	s.True(apperr.Is(err, apperr.KindNotFound), "got %v", err)

	err = s.expenses.DeleteExpense(s.ctx, "alice", e.ID)
	s.True(apperr.Is(err, apperr.KindNotFound), "got %v", err)

	last := s.publisher.last()
	s.Require().NotNil(last)
	s.Equal(amqp.EventExpenseDeleted, last.Type)
	var payload core.Expense
	s.Require().NoError(last.DecodePayload(&payload))
	s.Equal("Taxi", payload.Title)
}

func (s *ServicesTestSuite) TestListExpenses() {
	for i := 1; i <= 3; i++ {
		_, err := s.expenses.CreateExpense(s.ctx, "alice", core.Expense{
			Title:  "item",
			Amount: float64(i),
			Date:   s.day(2025, 3, i),
		})
		s.Require().NoError(err)
	}
	_, err := s.expenses.CreateExpense(s.ctx, "bob", core.Expense{Title: "other", Amount: 9})
	s.Require().NoError(err)

	page, err := s.expenses.ListExpenses(s.ctx, core.ExpenseFilter{
		User: "alice",
		Sort: core.Sort{Field: "date", Desc: true},
		Page: core.Page{Page: 1, Limit: 2},
	})
	s.Require().NoError(err)
	s.Len(page.Expenses, 2)
	s.Equal(int64(3), page.Total)
	s.Equal(2, page.TotalPages)
	s.Equal(1, page.CurrentPage)
	s.Equal(3.0, page.Expenses[0].Amount)

	empty, err := s.expenses.ListExpenses(s.ctx, core.ExpenseFilter{User: "carol", Page: core.Page{Page: 1, Limit: 10}})
	s.Require().NoError(err)
	s.NotNil(empty.Expenses)
	s.Equal(0, empty.TotalPages)

	_, err = s.expenses.ListExpenses(s.ctx, core.ExpenseFilter{User: "alice", Page: core.Page{Page: 0, Limit: 10}})
	s.True(apperr.Is(err, apperr.KindBadRequest), "got %v", err)

	from, to := s.day(2025, 3, 5), s.day(2025, 3, 1)
	_, err = s.expenses.ListExpenses(s.ctx, core.ExpenseFilter{
		User:  "alice",
		Range: core.DateRange{From: &from, To: &to},
		Page:  core.Page{Page: 1, Limit: 10},
	})
	s.True(apperr.Is(err, apperr.KindBadRequest), "got %v", err)
}

func (s *ServicesTestSuite) TestExpenseStats_CacheAndInvalidation() {
	for _, in := range []core.Expense{
		{Title: "a", Amount: 10, Category: core.Food, Date: s.day(2025, 3, 1)},
		{Title: "b", Amount: 5, Category: core.Food, Date: s.day(2025, 3, 1)},
		{Title: "c", Amount: 20, Category: core.Bills, Date: s.day(2025, 3, 10)},
		{Title: "old", Amount: 99, Category: core.Bills, Date: s.day(2025, 1, 1)},
	} {
		_, err := s.expenses.CreateExpense(s.ctx, "alice", in)
		s.Require().NoError(err)
	}

	stats, err := s.expenses.ExpenseStats(s.ctx, "alice", core.Month)
	s.Require().NoError(err)
	s.Equal([]core.TrendPoint{{Date: "2025-03-01", Amount: 15}, {Date: "2025-03-10", Amount: 20}}, stats.Trends)
	s.Equal([]core.CategoryTotal{
		{Category: core.Bills, Amount: 20, Count: 1},
		{Category: core.Food, Amount: 15, Count: 2},
	}, stats.Categories)
	s.Equal(core.ExpenseSummary{TotalAmount: 35, AvgAmount: 11.67, Count: 3}, stats.Summary)

	// Writes through the store alone do not touch the cache.
	require.NoError(s.T(), s.repo.CreateExpense(s.ctx, core.Expense{
		ID: core.NewID(), User: "alice", Title: "direct", Amount: 1, Category: core.Other,
		Date: s.day(2025, 3, 11), CreatedAt: s.now, UpdatedAt: s.now,
	}))
	cached, err := s.expenses.ExpenseStats(s.ctx, "alice", core.Month)
	s.Require().NoError(err)
	s.Equal(stats, cached)

	_, err = s.expenses.CreateExpense(s.ctx, "alice", core.Expense{Title: "d", Amount: 4, Date: s.day(2025, 3, 12)})
	s.Require().NoError(err)
	fresh, err := s.expenses.ExpenseStats(s.ctx, "alice", core.Month)
	s.Require().NoError(err)
	s.Equal(int64(5), fresh.Summary.Count)

	year, err := s.expenses.ExpenseStats(s.ctx, "alice", core.Year)
	s.Require().NoError(err)
	s.Equal(int64(6), year.Summary.Count)
}

func (s *ServicesTestSuite) TestExpenseStats_Empty() {
	stats, err := s.expenses.ExpenseStats(s.ctx, "nobody", core.Quarter)
	s.Require().NoError(err)
	s.NotNil(stats.Trends)
	s.NotNil(stats.Categories)
	s.Equal(core.ExpenseSummary{}, stats.Summary)
}

func (s *ServicesTestSuite) TestGoalLifecycle() {
	g, err := s.goals.CreateGoal(s.ctx, "alice", core.SavingGoal{
		Title:         "Bike",
		TargetAmount:  500,
		CurrentAmount: 100,
		Deadline:      s.day(2025, 6, 1),
	})
	s.Require().NoError(err)
	s.False(g.Achieved)
	s.Equal(20, g.Progress)

	titled, err := s.goals.UpdateGoal(s.ctx, "alice", g.ID, core.GoalPatch{Title: ptr("Road bike")})
	s.Require().NoError(err)
	s.False(titled.Achieved)
	s.Empty(s.publisher.types())

	achieved, err := s.goals.UpdateGoal(s.ctx, "alice", g.ID, core.GoalPatch{CurrentAmount: ptr(600.0)})
	s.Require().NoError(err)
	s.True(achieved.Achieved)
	s.Equal(100, achieved.Progress)
	s.Equal([]string{amqp.EventGoalAchieved}, s.publisher.types())

	again, err := s.goals.UpdateGoal(s.ctx, "alice", g.ID, core.GoalPatch{CurrentAmount: ptr(700.0)})
	s.Require().NoError(err)
	s.True(again.Achieved)
	s.Len(s.publisher.types(), 1, "only the transition emits")

	raised, err := s.goals.UpdateGoal(s.ctx, "alice", g.ID, core.GoalPatch{TargetAmount: ptr(1000.0)})
	s.Require().NoError(err)
	s.False(raised.Achieved)
	s.Equal(70, raised.Progress)

	_, err = s.goals.UpdateGoal(s.ctx, "bob", g.ID, core.GoalPatch{Title: ptr("mine")})
	s.True(apperr.Is(err, apperr.KindUnauthorized), "got %v", err)

	_, err = s.goals.UpdateGoal(s.ctx, "alice", g.ID, core.GoalPatch{CurrentAmount: ptr(-1.0)})
	s.True(apperr.Is(err, apperr.KindBadRequest), "got %v", err)

	s.Require().NoError(s.goals.DeleteGoal(s.ctx, "alice", g.ID))
	_, err = s.goals.GetGoal(s.ctx, "alice", g.ID)
	s.True(apperr.Is(err, apperr.KindNotFound), "got %v", err)
}

func (s *ServicesTestSuite) TestCreateGoal_Validation() {
	_, err := s.goals.CreateGoal(s.ctx, "alice", core.SavingGoal{Title: "x", TargetAmount: 0, Deadline: s.now})
	s.True(apperr.Is(err, apperr.KindBadRequest))

	_, err = s.goals.CreateGoal(s.ctx, "alice", core.SavingGoal{Title: "x", TargetAmount: 10})
	s.ErrorIs(err, core.ErrMissingDeadline)
}

func (s *ServicesTestSuite) TestGoalsSummary() {
	create := func(title string, target, current float64, deadline time.Time) {
		_, err := s.goals.CreateGoal(s.ctx, "alice", core.SavingGoal{
			Title: title, TargetAmount: target, CurrentAmount: current, Deadline: deadline,
		})
		s.Require().NoError(err)
	}
	create("soon", 100, 50, s.now.Add(10*24*time.Hour))
	create("sooner", 100, 0, s.now.Add(2*24*time.Hour))
	create("far", 100, 10, s.now.Add(40*24*time.Hour))
	create("done", 100, 100, s.now.Add(5*24*time.Hour))
	create("past", 100, 0, s.now.Add(-24*time.Hour))

	overview, err := s.goals.GoalsSummary(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal(core.GoalSummary{TotalGoals: 5, AchievedGoals: 1, TotalTargetAmount: 500, TotalCurrentAmount: 160}, overview.Summary)
	s.Require().Len(overview.UpcomingDeadlines, 2)
	s.Equal("sooner", overview.UpcomingDeadlines[0].Title)
	s.Equal("soon", overview.UpcomingDeadlines[1].Title)
	s.Equal(50, overview.UpcomingDeadlines[1].Progress)

	empty, err := s.goals.GoalsSummary(s.ctx, "bob")
	s.Require().NoError(err)
	s.Equal(core.GoalSummary{}, empty.Summary)
	s.NotNil(empty.UpcomingDeadlines)
}

func (s *ServicesTestSuite) TestTaskLifecycle() {
	reminder := s.now.Add(time.Hour)
	t, err := s.tasks.CreateTask(s.ctx, "alice", core.Task{
		Title:        "File taxes",
		DueDate:      s.day(2025, 4, 15),
		Category:     "Admin",
		ReminderDate: &reminder,
	})
	s.Require().NoError(err)
	s.Equal(core.StatusPending, t.Status)

	s.Require().NoError(s.repo.MarkReminded(s.ctx, t.ID))

	moved := s.now.Add(48 * time.Hour)
	updated, err := s.tasks.UpdateTask(s.ctx, "alice", t.ID, core.TaskPatch{ReminderDate: &moved, Status: ptr("In Progress")})
	s.Require().NoError(err)
	s.False(updated.Reminded, "a new reminder date re-arms the reminder")
	s.Equal("In Progress", updated.Status)
	s.Equal("Admin", updated.Category)

	_, err = s.tasks.UpdateTask(s.ctx, "alice", t.ID, core.TaskPatch{Category: ptr("  ")})
	s.ErrorIs(err, core.ErrMissingCategory)

	err = s.tasks.DeleteTask(s.ctx, "bob", t.ID)
	s.True(apperr.Is(err, apperr.KindUnauthorized), "got %v", err)
	s.Require().NoError(s.tasks.DeleteTask(s.ctx, "alice", t.ID))
}

func (s *ServicesTestSuite) TestTasksSummary() {
	create := func(title, status string, due time.Time) {
		_, err := s.tasks.CreateTask(s.ctx, "alice", core.Task{Title: title, Status: status, DueDate: due, Category: "Home"})
		s.Require().NoError(err)
	}
	for i := 1; i <= 6; i++ {
		create("open", "", s.now.Add(time.Duration(i)*time.Hour))
	}
	create("done", core.StatusCompleted, s.now.Add(time.Minute))
	create("overdue", core.StatusPending, s.now.Add(-time.Hour))

	overview, err := s.tasks.TasksSummary(s.ctx, "alice")
	s.Require().NoError(err)
	s.Require().Len(overview.Summary, 2)
	s.Equal(core.StatusCompleted, overview.Summary[0].Status)
	s.Equal(1, overview.Summary[0].Count)
	s.Equal(core.StatusPending, overview.Summary[1].Status)
	s.Equal(7, overview.Summary[1].Count)

	s.Len(overview.UpcomingTasks, core.UpcomingTaskLimit)
	for _, t := range overview.UpcomingTasks {
		s.Equal("open", t.Title)
	}

	empty, err := s.tasks.TasksSummary(s.ctx, "bob")
	s.Require().NoError(err)
	s.NotNil(empty.Summary)
	s.NotNil(empty.UpcomingTasks)
}

func TestReminderProcessor(t *testing.T) {
	ctx := context.Background()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "reminders.db"))
	require.NoError(t, err)
	defer repo.Close()

	now := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Minute)
	future := now.Add(time.Hour)
	for _, tk := range []core.Task{
		{ID: core.NewID(), User: "alice", Title: "due", Category: "Home", Status: core.StatusPending, DueDate: now, ReminderDate: &past},
		{ID: core.NewID(), User: "alice", Title: "later", Category: "Home", Status: core.StatusPending, DueDate: now, ReminderDate: &future},
		{ID: core.NewID(), User: "alice", Title: "completed", Category: "Home", Status: core.StatusCompleted, DueDate: now, ReminderDate: &past},
		{ID: core.NewID(), User: "alice", Title: "no reminder", Category: "Home", Status: core.StatusPending, DueDate: now},
	} {
		tk.CreatedAt, tk.UpdatedAt = now, now
		require.NoError(t, repo.CreateTask(ctx, tk))
	}

	failing := &recordingPublisher{err: errors.New("broker down")}
	count, err := NewReminderProcessor(repo, failing, 10).ProcessDueReminders(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 0, count, "unpublished reminders stay due")

	publisher := &recordingPublisher{}
	processor := NewReminderProcessor(repo, publisher, 10)

	count, err = processor.ProcessDueReminders(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, []string{amqp.EventTaskReminder}, publisher.types())

	var payload core.Task
	require.NoError(t, publisher.last().DecodePayload(&payload))
	assert.Equal(t, "due", payload.Title)

	count, err = processor.ProcessDueReminders(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 0, count, "a task is reminded once")

	_, err = NewReminderProcessor(repo, nil, 10).ProcessDueReminders(ctx, now)
	assert.Error(t, err)
}

func TestPublishFailureDoesNotFailWrites(t *testing.T) {
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "publish.db"))
	require.NoError(t, err)
	defer repo.Close()

	svc := NewExpenseService(repo, &recordingPublisher{err: errors.New("broker down")}, nil)
	e, err := svc.CreateExpense(context.Background(), "alice", core.Expense{Title: "x", Amount: 1})
	require.NoError(t, err)

	_, err = repo.GetExpense(context.Background(), e.ID)
	assert.NoError(t, err)
}
