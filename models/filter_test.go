package models

import (
	"reflect"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestTaskFilterBSON(t *testing.T) {
	user := primitive.NewObjectID()
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		name   string
		filter TaskFilter
		want   bson.M
	}{
		{"empty", TaskFilter{}, bson.M{}},
		{"status", TaskFilter{Status: StatusPending}, bson.M{"status": StatusPending}},
		{"assignee", TaskFilter{}.WithAssignee(user), bson.M{"assignedTo": user}},
		{
			"overdue for assignee",
			TaskFilter{}.WithAssignee(user).Overdue(now),
			bson.M{
				"assignedTo": user,
				"status":     bson.M{"$ne": StatusCompleted},
				"dueDate":    bson.M{"$lt": now},
			},
		},
		{
			"status and exclusion",
			TaskFilter{Status: StatusPending}.Overdue(now),
			bson.M{
				"status":  bson.M{"$eq": StatusPending, "$ne": StatusCompleted},
				"dueDate": bson.M{"$lt": now},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.BSON(); !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("BSON() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestTaskFilterMatchesOverdue(t *testing.T) {
	now := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)
	f := TaskFilter{}.Overdue(now)

	tests := []struct {
		name string
		task Task
		want bool
	}{
		{"past pending", Task{Status: StatusPending, DueDate: &past}, true},
		{"past completed", Task{Status: StatusCompleted, DueDate: &past}, false},
		{"future pending", Task{Status: StatusPending, DueDate: &future}, false},
		{"no due date", Task{Status: StatusInProgress}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := f.Matches(&tt.task); got != tt.want {
				t.Fatalf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTaskStatusKey(t *testing.T) {
	if got := StatusInProgress.Key(); got != "InProgress" {
		t.Fatalf("expected InProgress, got %q", got)
	}
	if !StatusCompleted.Valid() || TaskStatus("Done").Valid() {
		t.Fatalf("unexpected status validity")
	}
	if !PriorityHigh.Valid() || TaskPriority("Urgent").Valid() {
		t.Fatalf("unexpected priority validity")
	}
}
