package core

import (
	"errors"
	"sort"
	"strings"
	"time"
)

const (
	Month   Timeframe = "month"
	Quarter Timeframe = "quarter"
	Year    Timeframe = "year"
)

const (
	// UpcomingDeadlineWindow bounds the saving goals listed as upcoming.
	UpcomingDeadlineWindow = 30 * 24 * time.Hour

	// UpcomingTaskLimit caps the tasks listed as upcoming.
	UpcomingTaskLimit = 5
)

var ErrInvalidTimeframe = errors.New("timeframe must be one of month, quarter, year")

type Timeframe string

// ParseTimeframe defaults an empty value to Month.
func ParseTimeframe(s string) (Timeframe, error) {
	switch tf := Timeframe(strings.ToLower(strings.TrimSpace(s))); tf {
	case "":
		return Month, nil
	case Month, Quarter, Year:
		return tf, nil
	}
	return "", ErrInvalidTimeframe
}

// Window returns the lookback window ending at now. The start is computed with
// calendar arithmetic, so month ends roll forward: Mar 31 minus one month is
// Feb 31, normalized to Mar 3 (Mar 2 in leap years).
func (tf Timeframe) Window(now time.Time) (from, to time.Time) {
	now = Normalize(now)
	switch tf {
	case Quarter:
		return now.AddDate(0, -3, 0), now
	case Year:
		return now.AddDate(-1, 0, 0), now
	default:
		return now.AddDate(0, -1, 0), now
	}
}

type (
	// StatsQuery scopes an aggregation to one owner and an inclusive window.
	StatsQuery struct {
		User string
		From time.Time
		To   time.Time
	}

	TrendPoint struct {
		Date   string  `json:"date" bson:"_id"`
		Amount float64 `json:"amount" bson:"amount"`
	}

	CategoryTotal struct {
		Category Category `json:"category" bson:"_id"`
		Amount   float64  `json:"amount" bson:"amount"`
		Count    int64    `json:"count" bson:"count"`
	}

	ExpenseSummary struct {
		TotalAmount float64 `json:"totalAmount" bson:"totalAmount"`
		AvgAmount   float64 `json:"avgAmount" bson:"avgAmount"`
		Count       int64   `json:"count" bson:"count"`
	}

	ExpenseStats struct {
		Timeframe  Timeframe       `json:"timeframe"`
		Trends     []TrendPoint    `json:"trends"`
		Categories []CategoryTotal `json:"categories"`
		Summary    ExpenseSummary  `json:"summary"`
	}

	GoalSummary struct {
		TotalGoals         int64   `json:"totalGoals" bson:"totalGoals"`
		AchievedGoals      int64   `json:"achievedGoals" bson:"achievedGoals"`
		TotalTargetAmount  float64 `json:"totalTargetAmount" bson:"totalTargetAmount"`
		TotalCurrentAmount float64 `json:"totalCurrentAmount" bson:"totalCurrentAmount"`
	}

	GoalsOverview struct {
		Summary           GoalSummary  `json:"summary"`
		UpcomingDeadlines []SavingGoal `json:"upcomingDeadlines"`
	}

	TaskStatusGroup struct {
		Status string `json:"status" bson:"_id"`
		Count  int    `json:"count" bson:"count"`
		Tasks  []Task `json:"tasks" bson:"tasks"`
	}

	TasksOverview struct {
		Summary       []TaskStatusGroup `json:"summary"`
		UpcomingTasks []Task            `json:"upcomingTasks"`
	}
)

// SortCategoryTotals orders by amount descending, then by category name.
func SortCategoryTotals(totals []CategoryTotal) {
	sort.SliceStable(totals, func(i, j int) bool {
		if totals[i].Amount != totals[j].Amount {
			return totals[i].Amount > totals[j].Amount
		}
		return totals[i].Category < totals[j].Category
	})
}

// GroupTasksByStatus groups tasks by status, ordered by status name. Member
// tasks keep their input order.
func GroupTasksByStatus(tasks []Task) []TaskStatusGroup {
	index := make(map[string]int)
	groups := make([]TaskStatusGroup, 0)
	for _, t := range tasks {
		i, ok := index[t.Status]
		if !ok {
			i = len(groups)
			index[t.Status] = i
			groups = append(groups, TaskStatusGroup{Status: t.Status})
		}
		groups[i].Tasks = append(groups[i].Tasks, t)
		groups[i].Count++
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Status < groups[j].Status })
	return groups
}
