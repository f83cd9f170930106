package services

import (
	"errors"
	"testing"

	"task-manager/logging"
	"task-manager/models"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestUpdateChecklistRecomputesProgress(t *testing.T) {
	f := newFixture(t)
	member := f.addUser(t, "mia", models.RoleMember)
	task := f.addTask(t, models.Task{Title: "write docs", AssignedTo: ids(member), TodoChecklist: items(false, false, false)})

	got, err := f.svc.UpdateChecklist(f.ctx, member, task.ID.Hex(), items(true, true, false))
	if err != nil {
		t.Fatalf("update checklist: %v", err)
	}
	if got.Progress != 67 || got.Status != models.StatusInProgress {
		t.Fatalf("expected (67, In Progress), got (%d, %q)", got.Progress, got.Status)
	}
	if got.CompletedTodoCount != 2 {
		t.Fatalf("expected 2 completed items, got %d", got.CompletedTodoCount)
	}
	if len(got.AssignedTo) != 1 || got.AssignedTo[0].Name != "mia" {
		t.Fatalf("assignees not resolved: %#v", got.AssignedTo)
	}

	stored := f.reload(t, task.ID)
	if stored.Progress != 67 || stored.Status != models.StatusInProgress {
		t.Fatalf("change not persisted: (%d, %q)", stored.Progress, stored.Status)
	}

	got, err = f.svc.UpdateChecklist(f.ctx, member, task.ID.Hex(), items(true, true, true))
	if err != nil {
		t.Fatalf("update checklist: %v", err)
	}
	if got.Progress != 100 || got.Status != models.StatusCompleted {
		t.Fatalf("expected (100, Completed), got (%d, %q)", got.Progress, got.Status)
	}

	for _, key := range []string{adminDashboardKey, userDashboardKey(member.ID)} {
		if !f.cache.wasDeleted(key) {
			t.Fatalf("expected %s to be evicted", key)
		}
	}
}

func TestUpdateChecklistForbiddenForNonAssignee(t *testing.T) {
	f := newFixture(t)
	member := f.addUser(t, "mia", models.RoleMember)
	stranger := f.addUser(t, "sam", models.RoleMember)
	task := f.addTask(t, models.Task{Title: "t", AssignedTo: ids(member), TodoChecklist: items(false, false)})

	hook := test.NewLocal(logging.Logger)
	defer hook.Reset()

	_, err := f.svc.UpdateChecklist(f.ctx, stranger, task.ID.Hex(), items(true, true))
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}

	stored := f.reload(t, task.ID)
	if stored.Progress != 0 || stored.Status != models.StatusPending || stored.TodoChecklist[0].Completed {
		t.Fatalf("task changed after forbidden update: %#v", stored)
	}

	entry := hook.LastEntry()
	if entry == nil || entry.Level != logrus.WarnLevel {
		t.Fatalf("expected a warning to be logged, got %#v", entry)
	}
}

func TestUpdateChecklistErrors(t *testing.T) {
	f := newFixture(t)
	admin := f.addUser(t, "ada", models.RoleAdmin)
	task := f.addTask(t, models.Task{Title: "t"})

	tests := []struct {
		name      string
		id        string
		checklist []models.ChecklistItem
		want      error
	}{
		{"missing checklist", task.ID.Hex(), nil, ErrBadRequest},
		{"invalid id", "nope", items(true), ErrBadRequest},
		{"unknown task", primitive.NewObjectID().Hex(), items(true), ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.UpdateChecklist(f.ctx, admin, tt.id, tt.checklist)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestUpdateStatusCompletedChecksEverything(t *testing.T) {
	f := newFixture(t)
	admin := f.addUser(t, "ada", models.RoleAdmin)
	task := f.addTask(t, models.Task{Title: "t", TodoChecklist: items(false, true, false), Progress: 33, Status: models.StatusInProgress})

	got, err := f.svc.UpdateStatus(f.ctx, admin, task.ID.Hex(), models.StatusCompleted)
	if err != nil {
		t.Fatalf("update status: %v", err)
	}
	if got.Progress != 100 || got.CompletedTodoCount != 3 {
		t.Fatalf("expected full completion, got progress %d, completed %d", got.Progress, got.CompletedTodoCount)
	}

	if _, err := f.svc.UpdateStatus(f.ctx, admin, task.ID.Hex(), "Done"); !errors.Is(err, ErrBadRequest) {
		t.Fatalf("expected bad request for unknown status, got %v", err)
	}
}

func TestCreateTask(t *testing.T) {
	f := newFixture(t)
	admin := f.addUser(t, "ada", models.RoleAdmin)
	member := f.addUser(t, "mia", models.RoleMember)

	t.Run("assignedTo must be an array", func(t *testing.T) {
		_, err := f.svc.CreateTask(f.ctx, admin, CreateTaskInput{Title: "t", AssignedTo: RawJSON(`"` + member.ID.Hex() + `"`)})
		if !errors.Is(err, ErrBadRequest) {
			t.Fatalf("expected bad request, got %v", err)
		}
		var appErr *AppError
		if !errors.As(err, &appErr) || appErr.Msg != "Assigned to must be an array of user IDs" {
			t.Fatalf("unexpected error message: %v", err)
		}
	})

	t.Run("missing assignedTo", func(t *testing.T) {
		_, err := f.svc.CreateTask(f.ctx, admin, CreateTaskInput{Title: "t"})
		if !errors.Is(err, ErrBadRequest) {
			t.Fatalf("expected bad request, got %v", err)
		}
	})

	t.Run("defaults and derived fields", func(t *testing.T) {
		task, err := f.svc.CreateTask(f.ctx, admin, CreateTaskInput{
			Title:         "ship",
			AssignedTo:    RawJSON(`["` + member.ID.Hex() + `"]`),
			TodoChecklist: items(true, false),
		})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if task.Priority != models.PriorityMedium {
			t.Fatalf("expected default priority Medium, got %q", task.Priority)
		}
		if task.CreatedBy != admin.ID {
			t.Fatalf("expected creator %s, got %s", admin.ID.Hex(), task.CreatedBy.Hex())
		}
		if task.Progress != 50 || task.Status != models.StatusInProgress {
			t.Fatalf("expected (50, In Progress), got (%d, %q)", task.Progress, task.Status)
		}
		stored := f.reload(t, task.ID)
		if !stored.IsAssigned(member.ID) {
			t.Fatal("assignee not stored")
		}
	})

	t.Run("empty assignee list allowed", func(t *testing.T) {
		task, err := f.svc.CreateTask(f.ctx, admin, CreateTaskInput{Title: "solo", AssignedTo: RawJSON(`[]`)})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if len(task.AssignedTo) != 0 || task.Status != models.StatusPending {
			t.Fatalf("unexpected task %#v", task)
		}
	})

	t.Run("invalid priority", func(t *testing.T) {
		_, err := f.svc.CreateTask(f.ctx, admin, CreateTaskInput{Title: "t", Priority: "Urgent", AssignedTo: RawJSON(`[]`)})
		if !errors.Is(err, ErrBadRequest) {
			t.Fatalf("expected bad request, got %v", err)
		}
	})
}

func TestListTasksIsScoped(t *testing.T) {
	f := newFixture(t)
	admin := f.addUser(t, "ada", models.RoleAdmin)
	member := f.addUser(t, "mia", models.RoleMember)
	other := f.addUser(t, "otto", models.RoleMember)

	f.addTask(t, models.Task{Title: "m1", Status: models.StatusPending, AssignedTo: ids(member)})
	f.addTask(t, models.Task{Title: "m2", Status: models.StatusCompleted, AssignedTo: ids(member), TodoChecklist: items(true)})
	f.addTask(t, models.Task{Title: "o1", Status: models.StatusPending, AssignedTo: ids(other)})

	tests := []struct {
		name        string
		caller      models.Caller
		status      models.TaskStatus
		wantTasks   int
		wantSummary models.StatusCounts
	}{
		{"member all", member, "", 2, models.StatusCounts{All: 2, Pending: 1, Completed: 1}},
		{"member pending", member, models.StatusPending, 1, models.StatusCounts{All: 2, Pending: 1, Completed: 1}},
		{"admin all", admin, "", 3, models.StatusCounts{All: 3, Pending: 2, Completed: 1}},
		{"admin completed", admin, models.StatusCompleted, 1, models.StatusCounts{All: 3, Pending: 2, Completed: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.svc.ListTasks(f.ctx, tt.caller, tt.status)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(got.Tasks) != tt.wantTasks {
				t.Fatalf("expected %d tasks, got %d", tt.wantTasks, len(got.Tasks))
			}
			if got.StatusCounts != tt.wantSummary {
				t.Fatalf("expected summary %+v, got %+v", tt.wantSummary, got.StatusCounts)
			}
		})
	}

	if _, err := f.svc.ListTasks(f.ctx, member, "Blocked"); !errors.Is(err, ErrBadRequest) {
		t.Fatalf("expected bad request for unknown status, got %v", err)
	}
}

func TestGetTaskResolvesAssignees(t *testing.T) {
	f := newFixture(t)
	member := f.addUser(t, "mia", models.RoleMember)
	gone := primitive.NewObjectID()
	task := f.addTask(t, models.Task{Title: "t", AssignedTo: []primitive.ObjectID{member.ID, gone}})

	got, err := f.svc.GetTask(f.ctx, task.ID.Hex())
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.AssignedTo) != 1 || got.AssignedTo[0].ID != member.ID || got.AssignedTo[0].Email != "mia@example.com" {
		t.Fatalf("unexpected assignees %#v", got.AssignedTo)
	}

	if _, err := f.svc.GetTask(f.ctx, primitive.NewObjectID().Hex()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := f.svc.GetTask(f.ctx, "123"); !errors.Is(err, ErrBadRequest) {
		t.Fatalf("expected bad request, got %v", err)
	}
}

func TestUpdateTaskPartialOverwrite(t *testing.T) {
	f := newFixture(t)
	before := f.addUser(t, "mia", models.RoleMember)
	after := f.addUser(t, "otto", models.RoleMember)
	task := f.addTask(t, models.Task{Title: "old", Description: "keep", Priority: models.PriorityLow, AssignedTo: ids(before)})

	title := "new"
	got, err := f.svc.UpdateTask(f.ctx, task.ID.Hex(), UpdateTaskInput{
		Title:         &title,
		AssignedTo:    RawJSON(`["` + after.ID.Hex() + `"]`),
		TodoChecklist: items(true, true),
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Title != "new" || got.Description != "keep" || got.Priority != models.PriorityLow {
		t.Fatalf("unexpected fields %#v", got)
	}
	if got.Progress != 100 || got.Status != models.StatusCompleted {
		t.Fatalf("checklist replacement not recomputed: (%d, %q)", got.Progress, got.Status)
	}

	stored := f.reload(t, task.ID)
	if stored.Title != "new" || !stored.IsAssigned(after.ID) || stored.IsAssigned(before.ID) {
		t.Fatalf("update not persisted: %#v", stored)
	}
	for _, key := range []string{adminDashboardKey, userDashboardKey(before.ID), userDashboardKey(after.ID)} {
		if !f.cache.wasDeleted(key) {
			t.Fatalf("expected %s to be evicted", key)
		}
	}

	if _, err := f.svc.UpdateTask(f.ctx, task.ID.Hex(), UpdateTaskInput{AssignedTo: RawJSON(`{}`)}); !errors.Is(err, ErrBadRequest) {
		t.Fatalf("expected bad request for object assignedTo, got %v", err)
	}
	for _, absent := range []string{`null`, `""`, `false`, `0`} {
		got, err := f.svc.UpdateTask(f.ctx, task.ID.Hex(), UpdateTaskInput{AssignedTo: RawJSON(absent)})
		if err != nil {
			t.Fatalf("assignedTo %s: expected it to be ignored, got %v", absent, err)
		}
		if !got.IsAssigned(after.ID) {
			t.Fatalf("assignedTo %s: assignees changed to %v", absent, got.AssignedTo)
		}
	}
}

func TestDeleteTask(t *testing.T) {
	f := newFixture(t)
	task := f.addTask(t, models.Task{Title: "t"})

	if err := f.svc.DeleteTask(f.ctx, task.ID.Hex()); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := f.svc.DeleteTask(f.ctx, task.ID.Hex()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}

func TestDashboardUsesCache(t *testing.T) {
	f := newFixture(t)
	member := f.addUser(t, "mia", models.RoleMember)
	f.addTask(t, models.Task{Title: "t", AssignedTo: ids(member)})

	first, err := f.svc.UserDashboard(f.ctx, member)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if first.Statistics.TotalTasks != 1 {
		t.Fatalf("expected 1 task, got %d", first.Statistics.TotalTasks)
	}

	// A direct store write bypasses eviction, so a cache hit still reports the old total.
	f.addTask(t, models.Task{Title: "t2", AssignedTo: ids(member)})
	second, err := f.svc.UserDashboard(f.ctx, member)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if second != first {
		t.Fatal("expected cached dashboard to be returned")
	}

	f.cache.Delete(f.ctx, userDashboardKey(member.ID))
	third, err := f.svc.UserDashboard(f.ctx, member)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if third.Statistics.TotalTasks != 2 {
		t.Fatalf("expected 2 tasks after eviction, got %d", third.Statistics.TotalTasks)
	}

	admin, err := f.svc.AdminDashboard(f.ctx)
	if err != nil {
		t.Fatalf("admin dashboard: %v", err)
	}
	if admin.Statistics.TotalTasks != 2 {
		t.Fatalf("expected 2 tasks for admin, got %d", admin.Statistics.TotalTasks)
	}
}
