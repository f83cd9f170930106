package services

import (
	"context"
	"time"

	"task-manager/models"
	"task-manager/repositories"

	"go.opentelemetry.io/otel/attribute"
)

const recentTasksLimit = 10

// Aggregator builds dashboard statistics over a filtered task set. Admin and
// member dashboards differ only in the filter passed in.
//
// The counts are independent store queries, not a snapshot; concurrent writes
// can make them disagree slightly.
type Aggregator struct {
	tasks repositories.TaskRepository
	now   func() time.Time
}

func NewAggregator(tasks repositories.TaskRepository) *Aggregator {
	return &Aggregator{tasks: tasks, now: time.Now}
}

func (a *Aggregator) Summarize(ctx context.Context, filter models.TaskFilter) (dashboard *models.Dashboard, err error) {
	ctx, span := tracer().Start(ctx, "aggregator.Summarize")
	span.SetAttributes(attribute.Bool("filter.scoped", filter.AssignedTo != nil))
	defer func() { endSpan(span, err) }()

	total, err := a.tasks.Count(ctx, filter)
	if err != nil {
		return nil, internal("Server error", err)
	}
	byStatus, err := a.tasks.CountBy(ctx, filter, models.FieldStatus)
	if err != nil {
		return nil, internal("Server error", err)
	}
	overdue, err := a.tasks.Count(ctx, filter.Overdue(a.now()))
	if err != nil {
		return nil, internal("Server error", err)
	}
	byPriority, err := a.tasks.CountBy(ctx, filter, models.FieldPriority)
	if err != nil {
		return nil, internal("Server error", err)
	}
	recent, err := a.tasks.Find(ctx, filter, models.FindOptions{NewestFirst: true, Limit: recentTasksLimit})
	if err != nil {
		return nil, internal("Server error", err)
	}

	distribution := make(map[string]int64, len(models.TaskStatuses)+1)
	for _, status := range models.TaskStatuses {
		distribution[status.Key()] = byStatus[string(status)]
	}
	distribution["All"] = total

	priorities := make(map[string]int64, len(models.TaskPriorities))
	for _, priority := range models.TaskPriorities {
		priorities[string(priority)] = byPriority[string(priority)]
	}

	summaries := make([]models.TaskSummary, 0, len(recent))
	for i := range recent {
		summaries = append(summaries, recent[i].Summary())
	}

	return &models.Dashboard{
		Statistics: models.Statistics{
			TotalTasks:      total,
			PendingTasks:    byStatus[string(models.StatusPending)],
			InProgressTasks: byStatus[string(models.StatusInProgress)],
			CompletedTasks:  byStatus[string(models.StatusCompleted)],
			OverdueTasks:    overdue,
		},
		Charts: models.Charts{
			TaskDistribution:   distribution,
			TaskPriorityLevels: priorities,
		},
		RecentTasks: summaries,
	}, nil
}

// StatusCounts returns the total and per-status counts of the filtered set.
func (a *Aggregator) StatusCounts(ctx context.Context, filter models.TaskFilter) (models.StatusCounts, error) {
	total, err := a.tasks.Count(ctx, filter)
	if err != nil {
		return models.StatusCounts{}, internal("Server error", err)
	}
	byStatus, err := a.tasks.CountBy(ctx, filter, models.FieldStatus)
	if err != nil {
		return models.StatusCounts{}, internal("Server error", err)
	}
	return models.StatusCounts{
		All:        total,
		Pending:    byStatus[string(models.StatusPending)],
		InProgress: byStatus[string(models.StatusInProgress)],
		Completed:  byStatus[string(models.StatusCompleted)],
	}, nil
}
