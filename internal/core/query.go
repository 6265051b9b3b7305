package core

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// Sortable field names, as exposed in JSON.
var (
	ExpenseSortFields = []string{"date", "amount", "title", "createdAt"}
	TaskSortFields    = []string{"dueDate", "title", "createdAt", "priority", "status"}
	GoalSortFields    = []string{"deadline", "title", "targetAmount", "currentAmount", "createdAt"}
)

var (
	ErrInvalidPage  = errors.New("page must be a positive integer")
	ErrInvalidLimit = fmt.Errorf("limit must be an integer between 1 and %d", MaxLimit)
	ErrInvalidOrder = errors.New("order must be asc or desc")
	ErrInvalidRange = errors.New("endDate must not be before startDate")
)

type (
	Sort struct {
		Field string
		Desc  bool
	}

	Page struct {
		Page  int
		Limit int
	}

	// DateRange is an inclusive range; a nil bound is open.
	DateRange struct {
		From *time.Time
		To   *time.Time
	}

	ExpenseFilter struct {
		User     string
		Category Category
		Range    DateRange
		Sort     Sort
		Page     Page
	}

	TaskFilter struct {
		User     string
		Status   string
		Category string
		Range    DateRange
		Sort     Sort
	}

	GoalFilter struct {
		User     string
		Achieved *bool
		Sort     Sort
	}

	// ExpensePage is the paginated listing response.
	ExpensePage struct {
		Expenses    []Expense `json:"expenses"`
		TotalPages  int       `json:"totalPages"`
		CurrentPage int       `json:"currentPage"`
		Total       int64     `json:"total"`
		Limit       int       `json:"limit"`
	}
)

// ParseSort validates sortBy against the allowed fields and order against
// asc/desc. Empty values fall back to the defaults.
func ParseSort(allowed []string, sortBy, order, defaultField string, defaultDesc bool) (Sort, error) {
	s := Sort{Field: defaultField, Desc: defaultDesc}
	if sortBy = strings.TrimSpace(sortBy); sortBy != "" {
		if !slices.Contains(allowed, sortBy) {
			return Sort{}, fmt.Errorf("sortBy must be one of %s", strings.Join(allowed, ", "))
		}
		s.Field = sortBy
	}
	switch strings.ToLower(strings.TrimSpace(order)) {
	case "":
	case "asc":
		s.Desc = false
	case "desc":
		s.Desc = true
	default:
		return Sort{}, ErrInvalidOrder
	}
	return s, nil
}

func (p Page) Validate() error {
	if p.Page < 1 {
		return ErrInvalidPage
	}
	if p.Limit < 1 || p.Limit > MaxLimit {
		return ErrInvalidLimit
	}
	// Offset must fit in an int.
	if p.Page-1 > math.MaxInt/p.Limit {
		return ErrInvalidPage
	}
	return nil
}

func (p Page) Offset() int {
	return (p.Page - 1) * p.Limit
}

// TotalPages returns ceil(total/limit).
func (p Page) TotalPages(total int64) int {
	if p.Limit <= 0 {
		return 0
	}
	return int(math.Ceil(float64(total) / float64(p.Limit)))
}

func (r DateRange) Validate() error {
	if r.From != nil && r.To != nil && r.To.Before(*r.From) {
		return ErrInvalidRange
	}
	return nil
}

// Contains reports whether t falls inside the inclusive range.
func (r DateRange) Contains(t time.Time) bool {
	if r.From != nil && t.Before(*r.From) {
		return false
	}
	if r.To != nil && t.After(*r.To) {
		return false
	}
	return true
}
