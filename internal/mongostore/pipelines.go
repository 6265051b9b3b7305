package mongostore

import (
	"time"

	"fintrack/internal/core"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

func direction(desc bool) int {
	if desc {
		return -1
	}
	return 1
}

// sortSpec orders by the requested field with _id as tie breaker. Exposed
// sort names are identical to the stored field names.
func sortSpec(s core.Sort, fallback string) bson.D {
	field := s.Field
	if field == "" {
		field = fallback
	}
	dir := direction(s.Desc)
	return bson.D{{Key: field, Value: dir}, {Key: "_id", Value: dir}}
}

func rangeFilter(r core.DateRange) bson.M {
	if r.From == nil && r.To == nil {
		return nil
	}
	cond := bson.M{}
	if r.From != nil {
		cond["$gte"] = *r.From
	}
	if r.To != nil {
		cond["$lte"] = *r.To
	}
	return cond
}

func expenseFilter(f core.ExpenseFilter) bson.M {
	filter := bson.M{"user": f.User}
	if f.Category != "" {
		filter["category"] = f.Category
	}
	if cond := rangeFilter(f.Range); cond != nil {
		filter["date"] = cond
	}
	return filter
}

func taskFilter(f core.TaskFilter) bson.M {
	filter := bson.M{"user": f.User}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.Category != "" {
		filter["category"] = f.Category
	}
	if cond := rangeFilter(f.Range); cond != nil {
		filter["dueDate"] = cond
	}
	return filter
}

func goalFilter(f core.GoalFilter) bson.M {
	filter := bson.M{"user": f.User}
	if f.Achieved != nil {
		filter["achieved"] = *f.Achieved
	}
	return filter
}

func statsMatch(q core.StatsQuery) bson.D {
	return bson.D{{Key: "$match", Value: bson.M{
		"user": q.User,
		"date": bson.M{"$gte": q.From, "$lte": q.To},
	}}}
}

// trendPipeline sums amounts per UTC calendar day, oldest day first.
func trendPipeline(q core.StatsQuery) mongo.Pipeline {
	return mongo.Pipeline{
		statsMatch(q),
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: bson.M{"$dateToString": bson.M{"format": "%Y-%m-%d", "date": "$date"}}},
			{Key: "amount", Value: bson.M{"$sum": "$amount"}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	}
}

func categoryPipeline(q core.StatsQuery) mongo.Pipeline {
	return mongo.Pipeline{
		statsMatch(q),
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$category"},
			{Key: "amount", Value: bson.M{"$sum": "$amount"}},
			{Key: "count", Value: bson.M{"$sum": 1}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "amount", Value: -1}, {Key: "_id", Value: 1}}}},
	}
}

func totalsPipeline(q core.StatsQuery) mongo.Pipeline {
	return mongo.Pipeline{
		statsMatch(q),
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "totalAmount", Value: bson.M{"$sum": "$amount"}},
			{Key: "count", Value: bson.M{"$sum": 1}},
		}}},
	}
}

func goalTotalsPipeline(user string) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"user": user}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "totalGoals", Value: bson.M{"$sum": 1}},
			{Key: "achievedGoals", Value: bson.M{"$sum": bson.M{"$cond": bson.A{"$achieved", 1, 0}}}},
			{Key: "totalTargetAmount", Value: bson.M{"$sum": "$targetAmount"}},
			{Key: "totalCurrentAmount", Value: bson.M{"$sum": "$currentAmount"}},
		}}},
	}
}

// taskStatusPipeline groups an owner's tasks by status. Members keep due date
// order because $push follows the preceding $sort.
func taskStatusPipeline(user string) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"user": user}}},
		{{Key: "$sort", Value: bson.D{{Key: "dueDate", Value: 1}, {Key: "_id", Value: 1}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$status"},
			{Key: "count", Value: bson.M{"$sum": 1}},
			{Key: "tasks", Value: bson.M{"$push": "$$ROOT"}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	}
}

func upcomingGoalsFilter(user string, from, to time.Time) bson.M {
	return bson.M{
		"user":     user,
		"achieved": false,
		"deadline": bson.M{"$gte": from, "$lte": to},
	}
}

func upcomingTasksFilter(user string, from time.Time) bson.M {
	return bson.M{
		"user":    user,
		"status":  bson.M{"$ne": core.StatusCompleted},
		"dueDate": bson.M{"$gte": from},
	}
}

func dueRemindersFilter(now time.Time) bson.M {
	return bson.M{
		"reminded":     false,
		"reminderDate": bson.M{"$lte": now},
		"status":       bson.M{"$ne": core.StatusCompleted},
	}
}
