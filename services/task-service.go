package services

import (
	"bytes"
	"context"
	"time"

	"task-manager/logging"
	"task-manager/models"
	"task-manager/repositories"

	"github.com/bytedance/sonic"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DashboardCache stores computed dashboards. Implementations must treat every
// failure as a miss; the aggregator is always the source of truth.
type DashboardCache interface {
	Get(ctx context.Context, key string) (*models.Dashboard, bool)
	Set(ctx context.Context, key string, dashboard *models.Dashboard)
	Delete(ctx context.Context, keys ...string)
}

const adminDashboardKey = "dashboard:all"

func userDashboardKey(id primitive.ObjectID) string {
	return "dashboard:user:" + id.Hex()
}

type nopDashboardCache struct{}

func (nopDashboardCache) Get(context.Context, string) (*models.Dashboard, bool) { return nil, false }
func (nopDashboardCache) Set(context.Context, string, *models.Dashboard) {}
func (nopDashboardCache) Delete(context.Context, ...string) {}

type CreateTaskInput struct {
	Title         string                 `json:"title"`
	Description   string                 `json:"description"`
	Priority      models.TaskPriority    `json:"priority"`
	DueDate       *time.Time             `json:"dueDate"`
	AssignedTo    RawJSON                `json:"assignedTo"`
	Attachments   []string               `json:"attachments"`
	TodoChecklist []models.ChecklistItem `json:"todoChecklist"`
}

// UpdateTaskInput overwrites only the fields that are present.
type UpdateTaskInput struct {
	Title         *string                `json:"title"`
	Description   *string                `json:"description"`
	Priority      *models.TaskPriority   `json:"priority"`
	DueDate       *time.Time             `json:"dueDate"`
	AssignedTo    RawJSON                `json:"assignedTo"`
	Attachments   []string               `json:"attachments"`
	TodoChecklist []models.ChecklistItem `json:"todoChecklist"`
}

// RawJSON keeps a field undecoded so its shape can be validated explicitly.
type RawJSON []byte

func (r *RawJSON) UnmarshalJSON(data []byte) error {
	*r = append((*r)[:0], data...)
	return nil
}

// present reports whether an optional field carries a value. Missing, null and
// the falsy literals "", 0 and false all count as absent.
func (r RawJSON) present() bool {
	switch string(bytes.TrimSpace(r)) {
	case "", "null", `""`, "0", "false":
		return false
	}
	return true
}

// parseAssignees decodes an assignedTo value, which must be a JSON array of user ids.
func parseAssignees(raw RawJSON) ([]primitive.ObjectID, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, badRequest("Assigned to must be an array of user IDs")
	}

	var hexIDs []string
	if err := sonic.Unmarshal(trimmed, &hexIDs); err != nil {
		return nil, badRequest("Assigned to must be an array of user IDs")
	}

	ids := make([]primitive.ObjectID, 0, len(hexIDs))
	for _, h := range hexIDs {
		id, err := primitive.ObjectIDFromHex(h)
		if err != nil {
			return nil, badRequest("Invalid user ID %q in assignedTo", h)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func parseID(raw, what string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, badRequest("Invalid %s ID", what)
	}
	return id, nil
}

type TaskService struct {
	tasks      repositories.TaskRepository
	users      repositories.UserRepository
	aggregator *Aggregator
	cache      DashboardCache
	now        func() time.Time
}

func NewTaskService(tasks repositories.TaskRepository, users repositories.UserRepository, aggregator *Aggregator, cache DashboardCache) *TaskService {
	if cache == nil {
		cache = nopDashboardCache{}
	}
	return &TaskService{
		tasks:      tasks,
		users:      users,
		aggregator: aggregator,
		cache:      cache,
		now:        time.Now,
	}
}

// ListTasks returns the caller's visible tasks, optionally narrowed to one status,
// with per-status counts over everything the caller can see.
func (s *TaskService) ListTasks(ctx context.Context, caller models.Caller, status models.TaskStatus) (*models.TaskList, error) {
	if status != "" && !status.Valid() {
		return nil, badRequest("Invalid status %q", status)
	}

	filter := Scope(models.TaskFilter{Status: status}, caller)
	tasks, err := s.tasks.Find(ctx, filter, models.FindOptions{NewestFirst: true})
	if err != nil {
		return nil, internal("Server error", err)
	}
	details, err := s.resolveAssignees(ctx, tasks)
	if err != nil {
		return nil, err
	}

	summary, err := s.aggregator.StatusCounts(ctx, Scope(models.TaskFilter{}, caller))
	if err != nil {
		return nil, err
	}

	return &models.TaskList{Tasks: details, StatusCounts: summary}, nil
}

// GetTask fetches any task by id. It is deliberately not scoped to the caller.
func (s *TaskService) GetTask(ctx context.Context, rawID string) (*models.TaskDetail, error) {
	id, err := parseID(rawID, "task")
	if err != nil {
		return nil, err
	}
	task, err := s.tasks.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "Task not found")
	}
	return s.detail(ctx, task)
}

func (s *TaskService) CreateTask(ctx context.Context, caller models.Caller, in CreateTaskInput) (*models.Task, error) {
	assignees, err := parseAssignees(in.AssignedTo)
	if err != nil {
		return nil, err
	}
	if in.Title == "" {
		return nil, badRequest("Title is required")
	}
	if in.Priority == "" {
		in.Priority = models.PriorityMedium
	}
	if !in.Priority.Valid() {
		return nil, badRequest("Invalid priority %q", in.Priority)
	}

	now := s.now()
	task := &models.Task{
		ID:          primitive.NewObjectID(),
		Title:       in.Title,
		Description: in.Description,
		Priority:    in.Priority,
		Status:      models.StatusPending,
		DueDate:     in.DueDate,
		AssignedTo:  assignees,
		CreatedBy:   caller.ID,
		Attachments: nonNilStrings(in.Attachments),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	ApplyChecklist(task, in.TodoChecklist)

	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, internal("Server error", err)
	}
	s.evictDashboards(ctx, task.AssignedTo)

	logging.Logger.Infof("Event ID: TASK_CREATED, Description: Task %s created by %s with %d assignees", task.ID.Hex(), caller.ID.Hex(), len(task.AssignedTo))
	return task, nil
}

func (s *TaskService) UpdateTask(ctx context.Context, rawID string, in UpdateTaskInput) (*models.Task, error) {
	id, err := parseID(rawID, "task")
	if err != nil {
		return nil, err
	}
	task, err := s.tasks.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "Task not found")
	}
	previousAssignees := task.AssignedTo

	if in.Title != nil && *in.Title != "" {
		task.Title = *in.Title
	}
	if in.Description != nil {
		task.Description = *in.Description
	}
	if in.Priority != nil && *in.Priority != "" {
		if !in.Priority.Valid() {
			return nil, badRequest("Invalid priority %q", *in.Priority)
		}
		task.Priority = *in.Priority
	}
	if in.DueDate != nil {
		task.DueDate = in.DueDate
	}
	if in.Attachments != nil {
		task.Attachments = in.Attachments
	}
	if in.TodoChecklist != nil {
		ApplyChecklist(task, in.TodoChecklist)
	}
	if in.AssignedTo.present() {
		assignees, err := parseAssignees(in.AssignedTo)
		if err != nil {
			return nil, err
		}
		task.AssignedTo = assignees
	}
	task.UpdatedAt = s.now()

	if err := s.tasks.Replace(ctx, task); err != nil {
		return nil, storeError(err, "Task not found")
	}
	s.evictDashboards(ctx, previousAssignees, task.AssignedTo)

	logging.Logger.Infof("Event ID: TASK_UPDATED, Description: Task %s updated", task.ID.Hex())
	return task, nil
}

func (s *TaskService) DeleteTask(ctx context.Context, rawID string) error {
	id, err := parseID(rawID, "task")
	if err != nil {
		return err
	}
	task, err := s.tasks.FindByID(ctx, id)
	if err != nil {
		return storeError(err, "Task not found")
	}
	if err := s.tasks.Delete(ctx, id); err != nil {
		return storeError(err, "Task not found")
	}
	s.evictDashboards(ctx, task.AssignedTo)

	logging.Logger.Infof("Event ID: TASK_DELETED, Description: Task %s deleted", id.Hex())
	return nil
}

// UpdateStatus sets the status directly. Completing a task this way checks off
// its whole checklist.
func (s *TaskService) UpdateStatus(ctx context.Context, caller models.Caller, rawID string, status models.TaskStatus) (*models.TaskDetail, error) {
	if status != "" && !status.Valid() {
		return nil, badRequest("Invalid status %q", status)
	}
	task, err := s.loadForMutation(ctx, caller, rawID)
	if err != nil {
		return nil, err
	}

	ApplyStatus(task, status)
	task.UpdatedAt = s.now()
	if err := s.tasks.Replace(ctx, task); err != nil {
		return nil, storeError(err, "Task not found")
	}
	s.evictDashboards(ctx, task.AssignedTo)

	logging.Logger.Infof("Event ID: TASK_STATUS_UPDATED, Description: Task %s moved to %q by %s", task.ID.Hex(), task.Status, caller.ID.Hex())
	return s.detail(ctx, task)
}

// UpdateChecklist replaces the checklist and recomputes progress and status.
func (s *TaskService) UpdateChecklist(ctx context.Context, caller models.Caller, rawID string, checklist []models.ChecklistItem) (*models.TaskDetail, error) {
	if checklist == nil {
		return nil, badRequest("todoChecklist must be an array")
	}
	task, err := s.loadForMutation(ctx, caller, rawID)
	if err != nil {
		return nil, err
	}

	ApplyChecklist(task, checklist)
	task.UpdatedAt = s.now()
	if err := s.tasks.Replace(ctx, task); err != nil {
		return nil, storeError(err, "Task not found")
	}
	s.evictDashboards(ctx, task.AssignedTo)

	logging.Logger.Infof("Event ID: TASK_CHECKLIST_UPDATED, Description: Task %s checklist updated by %s, progress %d%%", task.ID.Hex(), caller.ID.Hex(), task.Progress)
	return s.detail(ctx, task)
}

func (s *TaskService) loadForMutation(ctx context.Context, caller models.Caller, rawID string) (*models.Task, error) {
	id, err := parseID(rawID, "task")
	if err != nil {
		return nil, err
	}
	task, err := s.tasks.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "Task not found")
	}
	if err := CanMutate(task, caller); err != nil {
		logging.Logger.Warnf("Event ID: TASK_MUTATION_FORBIDDEN, Description: User %s is not assigned to task %s", caller.ID.Hex(), task.ID.Hex())
		return nil, err
	}
	return task, nil
}

// AdminDashboard summarizes every task in the system.
func (s *TaskService) AdminDashboard(ctx context.Context) (*models.Dashboard, error) {
	return s.dashboard(ctx, adminDashboardKey, models.TaskFilter{})
}

// UserDashboard summarizes the tasks assigned to the caller.
func (s *TaskService) UserDashboard(ctx context.Context, caller models.Caller) (*models.Dashboard, error) {
	return s.dashboard(ctx, userDashboardKey(caller.ID), models.TaskFilter{}.WithAssignee(caller.ID))
}

func (s *TaskService) dashboard(ctx context.Context, key string, filter models.TaskFilter) (*models.Dashboard, error) {
	if cached, ok := s.cache.Get(ctx, key); ok {
		return cached, nil
	}
	dashboard, err := s.aggregator.Summarize(ctx, filter)
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, key, dashboard)
	return dashboard, nil
}

func (s *TaskService) evictDashboards(ctx context.Context, assigneeSets ...[]primitive.ObjectID) {
	keys := []string{adminDashboardKey}
	seen := map[primitive.ObjectID]bool{}
	for _, set := range assigneeSets {
		for _, id := range set {
			if seen[id] {
				continue
			}
			seen[id] = true
			keys = append(keys, userDashboardKey(id))
		}
	}
	s.cache.Delete(ctx, keys...)
}

func (s *TaskService) detail(ctx context.Context, task *models.Task) (*models.TaskDetail, error) {
	details, err := s.resolveAssignees(ctx, []models.Task{*task})
	if err != nil {
		return nil, err
	}
	return &details[0], nil
}

// resolveAssignees looks up the assignee ids of all tasks in one query.
// Ids of deleted users are dropped from the result.
func (s *TaskService) resolveAssignees(ctx context.Context, tasks []models.Task) ([]models.TaskDetail, error) {
	var ids []primitive.ObjectID
	for i := range tasks {
		ids = append(ids, tasks[i].AssignedTo...)
	}
	users, err := s.users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, internal("Server error", err)
	}
	byID := make(map[primitive.ObjectID]models.UserSummary, len(users))
	for i := range users {
		byID[users[i].ID] = users[i].Summary()
	}

	details := make([]models.TaskDetail, 0, len(tasks))
	for i := range tasks {
		assignees := make([]models.UserSummary, 0, len(tasks[i].AssignedTo))
		for _, id := range tasks[i].AssignedTo {
			if u, ok := byID[id]; ok {
				assignees = append(assignees, u)
			}
		}
		details = append(details, models.TaskDetail{
			Task:               tasks[i],
			AssignedTo:         assignees,
			CompletedTodoCount: tasks[i].CompletedCount(),
		})
	}
	return details, nil
}

func nonNilStrings(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
