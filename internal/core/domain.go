package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Food      Category = "Food"
	Transport Category = "Transport"
	Shopping  Category = "Shopping"
	Bills     Category = "Bills"
	Other     Category = "Other"
)

const (
	StatusPending   = "Pending"
	StatusCompleted = "Completed"
)

const maxTitleLength = 200

type (
	// Category is the closed set of expense categories.
	Category string

	Expense struct {
		ID        string    `json:"id" bson:"_id"`
		User      string    `json:"user" bson:"user"`
		Title     string    `json:"title" bson:"title"`
		Amount    float64   `json:"amount" bson:"amount"`
		Category  Category  `json:"category" bson:"category"`
		Date      time.Time `json:"date" bson:"date"`
		CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
		UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
	}

	SavingGoal struct {
		ID            string    `json:"id" bson:"_id"`
		User          string    `json:"user" bson:"user"`
		Title         string    `json:"title" bson:"title"`
		TargetAmount  float64   `json:"targetAmount" bson:"targetAmount"`
		CurrentAmount float64   `json:"currentAmount" bson:"currentAmount"`
		Deadline      time.Time `json:"deadline" bson:"deadline"`
		Achieved      bool      `json:"achieved" bson:"achieved"`
		Progress      int       `json:"progress" bson:"-"` // derived on read
		CreatedAt     time.Time `json:"createdAt" bson:"createdAt"`
		UpdatedAt     time.Time `json:"updatedAt" bson:"updatedAt"`
	}

	Task struct {
		ID           string     `json:"id" bson:"_id"`
		User         string     `json:"user" bson:"user"`
		Title        string     `json:"title" bson:"title"`
		Description  string     `json:"description,omitempty" bson:"description,omitempty"`
		DueDate      time.Time  `json:"dueDate" bson:"dueDate"`
		Priority     string     `json:"priority,omitempty" bson:"priority,omitempty"`
		Category     string     `json:"category" bson:"category"`
		ReminderDate *time.Time `json:"reminderDate,omitempty" bson:"reminderDate,omitempty"`
		Status       string     `json:"status" bson:"status"`
		Reminded     bool       `json:"reminded" bson:"reminded"`
		CreatedAt    time.Time  `json:"createdAt" bson:"createdAt"`
		UpdatedAt    time.Time  `json:"updatedAt" bson:"updatedAt"`
	}
)

var (
	ErrNotFound        = errors.New("record not found")
	ErrEmptyTitle      = errors.New("title is required")
	ErrTitleTooLong    = errors.New("title too long (max 200 characters)")
	ErrInvalidAmount   = errors.New("amount must be greater than zero")
	ErrInvalidCategory = errors.New("category must be one of Food, Transport, Shopping, Bills, Other")
	ErrMissingDate     = errors.New("date is required")
	ErrInvalidTarget   = errors.New("targetAmount must be greater than zero")
	ErrNegativeCurrent = errors.New("currentAmount cannot be negative")
	ErrMissingDeadline = errors.New("deadline is required")
	ErrMissingDueDate  = errors.New("dueDate is required")
	ErrMissingCategory = errors.New("category is required")
)

// Categories lists the valid expense categories in display order.
func Categories() []Category {
	return []Category{Food, Transport, Shopping, Bills, Other}
}

func (c Category) Valid() bool {
	switch c {
	case Food, Transport, Shopping, Bills, Other:
		return true
	}
	return false
}

// ParseCategory maps an empty value to Other and rejects anything outside the enum.
func ParseCategory(s string) (Category, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Other, nil
	}
	c := Category(s)
	if !c.Valid() {
		return "", ErrInvalidCategory
	}
	return c, nil
}

func validateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return ErrEmptyTitle
	}
	if len(title) > maxTitleLength {
		return ErrTitleTooLong
	}
	return nil
}

func (e Expense) Validate() error {
	if err := validateTitle(e.Title); err != nil {
		return err
	}
	if e.Amount <= 0 {
		return ErrInvalidAmount
	}
	if !e.Category.Valid() {
		return ErrInvalidCategory
	}
	if e.Date.IsZero() {
		return ErrMissingDate
	}
	return nil
}

func (g SavingGoal) Validate() error {
	if err := validateTitle(g.Title); err != nil {
		return err
	}
	if g.TargetAmount <= 0 {
		return ErrInvalidTarget
	}
	if g.CurrentAmount < 0 {
		return ErrNegativeCurrent
	}
	if g.Deadline.IsZero() {
		return ErrMissingDeadline
	}
	return nil
}

func (t Task) Validate() error {
	if err := validateTitle(t.Title); err != nil {
		return err
	}
	if t.DueDate.IsZero() {
		return ErrMissingDueDate
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrMissingCategory
	}
	return nil
}

// OwnedBy reports whether the record belongs to the given principal.
func (e Expense) OwnedBy(user string) bool    { return e.User == user }
func (g SavingGoal) OwnedBy(user string) bool { return g.User == user }
func (t Task) OwnedBy(user string) bool       { return t.User == user }

// IsCompleted reports whether the task status is the literal "Completed".
func (t Task) IsCompleted() bool {
	return t.Status == StatusCompleted
}
