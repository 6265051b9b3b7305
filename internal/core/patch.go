package core

import "time"

// Patches carry the fields present in an update payload. A nil pointer means
// the field was absent; a non-nil pointer to a zero value is an explicit update.
type (
	ExpensePatch struct {
		Title    *string
		Amount   *float64
		Category *Category
		Date     *time.Time
	}

	GoalPatch struct {
		Title         *string
		TargetAmount  *float64
		CurrentAmount *float64
		Deadline      *time.Time
	}

	TaskPatch struct {
		Title        *string
		Description  *string
		DueDate      *time.Time
		Priority     *string
		Category     *string
		ReminderDate *time.Time
		Status       *string
	}
)

func (p ExpensePatch) Apply(e *Expense) {
	if p.Title != nil {
		e.Title = *p.Title
	}
	if p.Amount != nil {
		e.Amount = *p.Amount
	}
	if p.Category != nil {
		e.Category = *p.Category
	}
	if p.Date != nil {
		e.Date = *p.Date
	}
}

// Apply merges the patch into g and recomputes Achieved whenever either amount
// was supplied. It reports whether the goal moved from not achieved to achieved.
func (p GoalPatch) Apply(g *SavingGoal) bool {
	wasAchieved := g.Achieved
	if p.Title != nil {
		g.Title = *p.Title
	}
	if p.TargetAmount != nil {
		g.TargetAmount = *p.TargetAmount
	}
	if p.CurrentAmount != nil {
		g.CurrentAmount = *p.CurrentAmount
	}
	if p.Deadline != nil {
		g.Deadline = *p.Deadline
	}
	if p.TargetAmount != nil || p.CurrentAmount != nil {
		g.Achieved = IsAchieved(g.CurrentAmount, g.TargetAmount)
	}
	return !wasAchieved && g.Achieved
}

func (p TaskPatch) Apply(t *Task) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.DueDate != nil {
		t.DueDate = *p.DueDate
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Category != nil {
		t.Category = *p.Category
	}
	if p.ReminderDate != nil {
		rd := *p.ReminderDate
		t.ReminderDate = &rd
		t.Reminded = false
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
}
