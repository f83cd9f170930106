package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TaskStatus string

const (
	StatusPending    TaskStatus = "Pending"
	StatusInProgress TaskStatus = "In Progress"
	StatusCompleted  TaskStatus = "Completed"
)

// TaskStatuses is the closed set of statuses, in display order.
var TaskStatuses = []TaskStatus{StatusPending, StatusInProgress, StatusCompleted}

// Valid reports whether s is one of TaskStatuses.
func (s TaskStatus) Valid() bool {
	for _, known := range TaskStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Key is the status with whitespace removed ("In Progress" -> "InProgress"),
// used as a map key in dashboard charts.
func (s TaskStatus) Key() string {
	return strings.Join(strings.Fields(string(s)), "")
}

type TaskPriority string

const (
	PriorityLow    TaskPriority = "Low"
	PriorityMedium TaskPriority = "Medium"
	PriorityHigh   TaskPriority = "High"
)

var TaskPriorities = []TaskPriority{PriorityLow, PriorityMedium, PriorityHigh}

func (p TaskPriority) Valid() bool {
	for _, known := range TaskPriorities {
		if p == known {
			return true
		}
	}
	return false
}

// TaskField names a task attribute that can be grouped on.
type TaskField string

const (
	FieldStatus   TaskField = "status"
	FieldPriority TaskField = "priority"
)

type ChecklistItem struct {
	Text      string `json:"text" bson:"text"`
	Completed bool   `json:"completed" bson:"completed"`
}

type Task struct {
	ID            primitive.ObjectID   `json:"id" bson:"_id,omitempty"`
	Title         string               `json:"title" bson:"title"`
	Description   string               `json:"description" bson:"description"`
	Priority      TaskPriority         `json:"priority" bson:"priority"`
	Status        TaskStatus           `json:"status" bson:"status"`
	DueDate       *time.Time           `json:"dueDate,omitempty" bson:"dueDate,omitempty"`
	AssignedTo    []primitive.ObjectID `json:"assignedTo" bson:"assignedTo"`
	CreatedBy     primitive.ObjectID   `json:"createdBy" bson:"createdBy"`
	Attachments   []string             `json:"attachments" bson:"attachments"`
	TodoChecklist []ChecklistItem      `json:"todoChecklist" bson:"todoChecklist"`
	Progress      int                  `json:"progress" bson:"progress"`
	CreatedAt     time.Time            `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time            `json:"updatedAt" bson:"updatedAt"`
}

// IsAssigned reports whether userID is among the task assignees.
func (t *Task) IsAssigned(userID primitive.ObjectID) bool {
	for _, id := range t.AssignedTo {
		if id == userID {
			return true
		}
	}
	return false
}

// CompletedCount returns the number of checked checklist items.
func (t *Task) CompletedCount() int {
	n := 0
	for _, item := range t.TodoChecklist {
		if item.Completed {
			n++
		}
	}
	return n
}

// TaskDetail is a task with its assignee references resolved to user summaries.
// Assignees that no longer exist are left out.
type TaskDetail struct {
	Task
	AssignedTo         []UserSummary `json:"assignedTo"`
	CompletedTodoCount int           `json:"completedTodoCount"`
}

// TaskSummary is the lightweight projection used for recent task lists.
type TaskSummary struct {
	ID        primitive.ObjectID `json:"id" bson:"_id"`
	Title     string             `json:"title" bson:"title"`
	Status    TaskStatus         `json:"status" bson:"status"`
	Priority  TaskPriority       `json:"priority" bson:"priority"`
	DueDate   *time.Time         `json:"dueDate,omitempty" bson:"dueDate,omitempty"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
}

func (t *Task) Summary() TaskSummary {
	return TaskSummary{
		ID:        t.ID,
		Title:     t.Title,
		Status:    t.Status,
		Priority:  t.Priority,
		DueDate:   t.DueDate,
		CreatedAt: t.CreatedAt,
	}
}
