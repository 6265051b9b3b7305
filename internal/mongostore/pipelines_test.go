package mongostore

import (
	"testing"
	"time"

	"fintrack/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

var (
	from = time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	to   = time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
)

func TestSortSpec(t *testing.T) {
	tests := []struct {
		name     string
		sort     core.Sort
		fallback string
		want     bson.D
	}{
		{
			name:     "explicit descending",
			sort:     core.Sort{Field: "amount", Desc: true},
			fallback: "date",
			want:     bson.D{{Key: "amount", Value: -1}, {Key: "_id", Value: -1}},
		},
		{
			name:     "fallback ascending",
			sort:     core.Sort{},
			fallback: "dueDate",
			want:     bson.D{{Key: "dueDate", Value: 1}, {Key: "_id", Value: 1}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sortSpec(tt.sort, tt.fallback))
		})
	}
}

func TestExpenseFilter(t *testing.T) {
	got := expenseFilter(core.ExpenseFilter{
		User:     "u1",
		Category: core.Food,
		Range:    core.DateRange{From: &from, To: &to},
	})

	assert.Equal(t, bson.M{
		"user":     "u1",
		"category": core.Food,
		"date":     bson.M{"$gte": from, "$lte": to},
	}, got)

	bare := expenseFilter(core.ExpenseFilter{User: "u1"})
	assert.Equal(t, bson.M{"user": "u1"}, bare)
}

func TestTaskFilterOpenRange(t *testing.T) {
	got := taskFilter(core.TaskFilter{
		User:   "u1",
		Status: core.StatusPending,
		Range:  core.DateRange{To: &to},
	})

	assert.Equal(t, bson.M{
		"user":    "u1",
		"status":  core.StatusPending,
		"dueDate": bson.M{"$lte": to},
	}, got)
}

func TestGoalFilter(t *testing.T) {
	achieved := true
	assert.Equal(t, bson.M{"user": "u1", "achieved": true}, goalFilter(core.GoalFilter{User: "u1", Achieved: &achieved}))
	assert.Equal(t, bson.M{"user": "u1"}, goalFilter(core.GoalFilter{User: "u1"}))
}

func TestStatsPipelinesMatchOwnerAndWindow(t *testing.T) {
	q := core.StatsQuery{User: "u1", From: from, To: to}
	wantMatch := bson.D{{Key: "$match", Value: bson.M{
		"user": "u1",
		"date": bson.M{"$gte": from, "$lte": to},
	}}}

	for name, p := range map[string][]bson.D{
		"trend":      trendPipeline(q),
		"categories": categoryPipeline(q),
		"totals":     totalsPipeline(q),
	} {
		t.Run(name, func(t *testing.T) {
			require.NotEmpty(t, p)
			assert.Equal(t, wantMatch, p[0])
		})
	}
}

func TestTrendPipelineGroupsByDay(t *testing.T) {
	p := trendPipeline(core.StatsQuery{User: "u1", From: from, To: to})
	require.Len(t, p, 3)

	group := p[1][0]
	assert.Equal(t, "$group", group.Key)
	fields := group.Value.(bson.D)
	assert.Equal(t, bson.M{"$dateToString": bson.M{"format": "%Y-%m-%d", "date": "$date"}}, fields[0].Value)
	assert.Equal(t, bson.D{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}}, p[2])
}

func TestCategoryPipelineSortsByAmountThenName(t *testing.T) {
	p := categoryPipeline(core.StatsQuery{User: "u1", From: from, To: to})
	require.Len(t, p, 3)
	assert.Equal(t, bson.D{{Key: "$sort", Value: bson.D{{Key: "amount", Value: -1}, {Key: "_id", Value: 1}}}}, p[2])
}

func TestTaskStatusPipelineSortsBeforeGrouping(t *testing.T) {
	p := taskStatusPipeline("u1")
	require.Len(t, p, 4)

	keys := make([]string, 0, len(p))
	for _, stage := range p {
		keys = append(keys, stage[0].Key)
	}
	assert.Equal(t, []string{"$match", "$sort", "$group", "$sort"}, keys)
}

func TestDueRemindersFilter(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, bson.M{
		"reminded":     false,
		"reminderDate": bson.M{"$lte": now},
		"status":       bson.M{"$ne": core.StatusCompleted},
	}, dueRemindersFilter(now))
}
