package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TaskFilter is a conjunction of task predicates. The zero value matches every task.
type TaskFilter struct {
	Status        TaskStatus
	ExcludeStatus TaskStatus
	AssignedTo    *primitive.ObjectID
	DueBefore     *time.Time
}

func (f TaskFilter) WithStatus(status TaskStatus) TaskFilter {
	f.Status = status
	return f
}

func (f TaskFilter) WithAssignee(userID primitive.ObjectID) TaskFilter {
	f.AssignedTo = &userID
	return f
}

// Overdue narrows f to unfinished tasks whose due date is before now.
func (f TaskFilter) Overdue(now time.Time) TaskFilter {
	f.ExcludeStatus = StatusCompleted
	f.DueBefore = &now
	return f
}

// BSON renders the filter as a MongoDB query document.
func (f TaskFilter) BSON() bson.M {
	filter := bson.M{}

	switch {
	case f.Status != "" && f.ExcludeStatus != "":
		filter["status"] = bson.M{"$eq": f.Status, "$ne": f.ExcludeStatus}
	case f.Status != "":
		filter["status"] = f.Status
	case f.ExcludeStatus != "":
		filter["status"] = bson.M{"$ne": f.ExcludeStatus}
	}

	// Equality on an array field matches documents whose array contains the value.
	if f.AssignedTo != nil {
		filter["assignedTo"] = *f.AssignedTo
	}
	if f.DueBefore != nil {
		filter["dueDate"] = bson.M{"$lt": *f.DueBefore}
	}
	return filter
}

// Matches evaluates the filter against a task in memory, with the same
// semantics as the BSON query.
func (f TaskFilter) Matches(t *Task) bool {
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	if f.ExcludeStatus != "" && t.Status == f.ExcludeStatus {
		return false
	}
	if f.AssignedTo != nil && !t.IsAssigned(*f.AssignedTo) {
		return false
	}
	if f.DueBefore != nil && (t.DueDate == nil || !t.DueDate.Before(*f.DueBefore)) {
		return false
	}
	return true
}

// FindOptions controls ordering and size of a task listing.
type FindOptions struct {
	NewestFirst bool
	Limit       int64
}

type UserFilter struct {
	Role Role
}

func (f UserFilter) BSON() bson.M {
	filter := bson.M{}
	if f.Role != "" {
		filter["role"] = f.Role
	}
	return filter
}

func (f UserFilter) Matches(u *User) bool {
	return f.Role == "" || u.Role == f.Role
}
