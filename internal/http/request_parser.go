// Package http provides HTTP server and handler implementations.
//
// This file implements request decoding: JSON bodies validated with
// go-playground/validator and query strings turned into store filters.

package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"fintrack/internal/apperr"
	"fintrack/internal/core"
)

const maxBodyBytes = 1 << 20

var validate = newValidator()

// newValidator reports field errors under their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

type (
	CreateExpenseRequest struct {
		Title    string   `json:"title" validate:"required,max=200"`
		Amount   *float64 `json:"amount" validate:"required,gt=0"`
		Category string   `json:"category" validate:"omitempty,oneof=Food Transport Shopping Bills Other"`
		Date     string   `json:"date"`
	}

	UpdateExpenseRequest struct {
		Title    *string  `json:"title" validate:"omitempty,max=200"`
		Amount   *float64 `json:"amount" validate:"omitempty,gt=0"`
		Category *string  `json:"category" validate:"omitempty,oneof=Food Transport Shopping Bills Other"`
		Date     *string  `json:"date"`
	}

	CreateGoalRequest struct {
		Title         string   `json:"title" validate:"required,max=200"`
		TargetAmount  *float64 `json:"targetAmount" validate:"required,gt=0"`
		CurrentAmount *float64 `json:"currentAmount" validate:"omitempty,gte=0"`
		Deadline      string   `json:"deadline" validate:"required"`
	}

	UpdateGoalRequest struct {
		Title         *string  `json:"title" validate:"omitempty,max=200"`
		TargetAmount  *float64 `json:"targetAmount" validate:"omitempty,gt=0"`
		CurrentAmount *float64 `json:"currentAmount" validate:"omitempty,gte=0"`
		Deadline      *string  `json:"deadline"`
	}

	CreateTaskRequest struct {
		Title        string `json:"title" validate:"required,max=200"`
		Description  string `json:"description"`
		DueDate      string `json:"dueDate" validate:"required"`
		Priority     string `json:"priority"`
		Category     string `json:"category" validate:"required"`
		ReminderDate string `json:"reminderDate"`
		Status       string `json:"status"`
	}

	UpdateTaskRequest struct {
		Title        *string `json:"title" validate:"omitempty,max=200"`
		Description  *string `json:"description"`
		DueDate      *string `json:"dueDate"`
		Priority     *string `json:"priority"`
		Category     *string `json:"category"`
		ReminderDate *string `json:"reminderDate"`
		Status       *string `json:"status"`
	}
)

// decodeBody reads a JSON body into dst and validates it. Unknown fields,
// including any attempt to set the owner, are ignored.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return apperr.BadRequest("request body is required")
		case errors.As(err, &typeErr):
			return apperr.BadRequest("%s has an invalid type", typeErr.Field)
		case errors.As(err, &maxErr):
			return apperr.BadRequest("request body too large")
		default:
			return apperr.BadRequest("invalid request body")
		}
	}
	if err := validate.Struct(dst); err != nil {
		return apperr.FromValidation(err)
	}
	return nil
}

func parseDateField(name, value string) (time.Time, error) {
	t, err := core.ParseDate(value)
	if err != nil {
		return time.Time{}, apperr.BadRequest("%s: %v", name, err)
	}
	return t, nil
}

func parseOptionalDate(name string, value *string) (*time.Time, error) {
	if value == nil {
		return nil, nil
	}
	t, err := parseDateField(name, *value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (req CreateExpenseRequest) toExpense() (core.Expense, error) {
	e := core.Expense{
		Title:    req.Title,
		Amount:   *req.Amount,
		Category: core.Category(req.Category),
	}
	if strings.TrimSpace(req.Date) != "" {
		d, err := parseDateField("date", req.Date)
		if err != nil {
			return core.Expense{}, err
		}
		e.Date = d
	}
	return e, nil
}

func (req UpdateExpenseRequest) toPatch() (core.ExpensePatch, error) {
	date, err := parseOptionalDate("date", req.Date)
	if err != nil {
		return core.ExpensePatch{}, err
	}
	patch := core.ExpensePatch{
		Title:  req.Title,
		Amount: req.Amount,
		Date:   date,
	}
	if req.Category != nil {
		c := core.Category(*req.Category)
		patch.Category = &c
	}
	return patch, nil
}

func (req CreateGoalRequest) toGoal() (core.SavingGoal, error) {
	deadline, err := parseDateField("deadline", req.Deadline)
	if err != nil {
		return core.SavingGoal{}, err
	}
	g := core.SavingGoal{
		Title:        req.Title,
		TargetAmount: *req.TargetAmount,
		Deadline:     deadline,
	}
	if req.CurrentAmount != nil {
		g.CurrentAmount = *req.CurrentAmount
	}
	return g, nil
}

func (req UpdateGoalRequest) toPatch() (core.GoalPatch, error) {
	deadline, err := parseOptionalDate("deadline", req.Deadline)
	if err != nil {
		return core.GoalPatch{}, err
	}
	return core.GoalPatch{
		Title:         req.Title,
		TargetAmount:  req.TargetAmount,
		CurrentAmount: req.CurrentAmount,
		Deadline:      deadline,
	}, nil
}

func (req CreateTaskRequest) toTask() (core.Task, error) {
	due, err := parseDateField("dueDate", req.DueDate)
	if err != nil {
		return core.Task{}, err
	}
	t := core.Task{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     due,
		Priority:    req.Priority,
		Category:    req.Category,
		Status:      req.Status,
	}
	if strings.TrimSpace(req.ReminderDate) != "" {
		rd, err := parseDateField("reminderDate", req.ReminderDate)
		if err != nil {
			return core.Task{}, err
		}
		t.ReminderDate = &rd
	}
	return t, nil
}

func (req UpdateTaskRequest) toPatch() (core.TaskPatch, error) {
	due, err := parseOptionalDate("dueDate", req.DueDate)
	if err != nil {
		return core.TaskPatch{}, err
	}
	reminder, err := parseOptionalDate("reminderDate", req.ReminderDate)
	if err != nil {
		return core.TaskPatch{}, err
	}
	return core.TaskPatch{
		Title:        req.Title,
		Description:  req.Description,
		DueDate:      due,
		Priority:     req.Priority,
		Category:     req.Category,
		ReminderDate: reminder,
		Status:       req.Status,
	}, nil
}

// queryInt returns def when key is absent and false when it is not an integer.
func queryInt(q url.Values, key string, def int) (int, bool) {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return def, true
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func parseRange(q url.Values) (core.DateRange, error) {
	var rng core.DateRange
	if v := strings.TrimSpace(q.Get("startDate")); v != "" {
		from, err := core.ParseDate(v)
		if err != nil {
			return rng, apperr.BadRequest("startDate: %v", err)
		}
		rng.From = &from
	}
	if v := strings.TrimSpace(q.Get("endDate")); v != "" {
		to, err := core.ParseEndDate(v)
		if err != nil {
			return rng, apperr.BadRequest("endDate: %v", err)
		}
		rng.To = &to
	}
	if err := rng.Validate(); err != nil {
		return rng, apperr.Invalid(err)
	}
	return rng, nil
}

// ParseExpenseFilter builds the listing filter for user from the query string.
func ParseExpenseFilter(q url.Values, user string) (core.ExpenseFilter, error) {
	f := core.ExpenseFilter{User: user}

	page, ok := queryInt(q, "page", core.DefaultPage)
	if !ok {
		return f, apperr.Invalid(core.ErrInvalidPage)
	}
	limit, ok := queryInt(q, "limit", core.DefaultLimit)
	if !ok {
		return f, apperr.Invalid(core.ErrInvalidLimit)
	}
	f.Page = core.Page{Page: page, Limit: limit}
	if err := f.Page.Validate(); err != nil {
		return f, apperr.Invalid(err)
	}

	if v := strings.TrimSpace(q.Get("category")); v != "" {
		c, err := core.ParseCategory(v)
		if err != nil {
			return f, apperr.Invalid(err)
		}
		f.Category = c
	}

	rng, err := parseRange(q)
	if err != nil {
		return f, err
	}
	f.Range = rng

	sort, err := core.ParseSort(core.ExpenseSortFields, q.Get("sortBy"), q.Get("order"), "date", true)
	if err != nil {
		return f, apperr.Invalid(err)
	}
	f.Sort = sort
	return f, nil
}

// ParseTaskFilter builds the task listing filter for user from the query string.
func ParseTaskFilter(q url.Values, user string) (core.TaskFilter, error) {
	f := core.TaskFilter{
		User:     user,
		Status:   strings.TrimSpace(q.Get("status")),
		Category: strings.TrimSpace(q.Get("category")),
	}

	rng, err := parseRange(q)
	if err != nil {
		return f, err
	}
	f.Range = rng

	sort, err := core.ParseSort(core.TaskSortFields, q.Get("sortBy"), q.Get("order"), "dueDate", false)
	if err != nil {
		return f, apperr.Invalid(err)
	}
	f.Sort = sort
	return f, nil
}

// ParseGoalFilter builds the saving goal listing filter for user from the query string.
func ParseGoalFilter(q url.Values, user string) (core.GoalFilter, error) {
	f := core.GoalFilter{User: user}

	switch v := strings.ToLower(strings.TrimSpace(q.Get("achieved"))); v {
	case "":
	case "true", "false":
		achieved := v == "true"
		f.Achieved = &achieved
	default:
		return f, apperr.BadRequest("achieved must be true or false")
	}

	sort, err := core.ParseSort(core.GoalSortFields, q.Get("sortBy"), q.Get("order"), "deadline", false)
	if err != nil {
		return f, apperr.Invalid(err)
	}
	f.Sort = sort
	return f, nil
}

// ParseTimeframe reads the stats timeframe, defaulting to month.
func ParseTimeframe(q url.Values) (core.Timeframe, error) {
	tf, err := core.ParseTimeframe(q.Get("timeframe"))
	if err != nil {
		return "", apperr.Invalid(err)
	}
	return tf, nil
}
