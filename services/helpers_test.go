package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"task-manager/models"
	"task-manager/repositories"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var fixedNow = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

type fixture struct {
	ctx   context.Context
	tasks *repositories.MemoryTaskRepository
	users *repositories.MemoryUserRepository
	agg   *Aggregator
	cache *recordingCache
	svc   *TaskService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	tasks := repositories.NewMemoryTaskRepository()
	users := repositories.NewMemoryUserRepository()
	agg := NewAggregator(tasks)
	agg.now = func() time.Time { return fixedNow }
	cache := newRecordingCache()
	svc := NewTaskService(tasks, users, agg, cache)
	svc.now = func() time.Time { return fixedNow }
	return &fixture{
		ctx:   context.Background(),
		tasks: tasks,
		users: users,
		agg:   agg,
		cache: cache,
		svc:   svc,
	}
}

func (f *fixture) addUser(t *testing.T, name string, role models.Role) models.Caller {
	t.Helper()
	u := &models.User{
		Name:      name,
		Email:     name + "@example.com",
		Role:      role,
		CreatedAt: fixedNow,
	}
	if err := f.users.Create(f.ctx, u); err != nil {
		t.Fatalf("create user %s: %v", name, err)
	}
	return models.Caller{ID: u.ID, Role: role}
}

func (f *fixture) addTask(t *testing.T, task models.Task) models.Task {
	t.Helper()
	if task.Priority == "" {
		task.Priority = models.PriorityMedium
	}
	if task.Status == "" {
		task.Status = models.StatusPending
	}
	if task.CreatedAt.IsZero() {
		task.CreatedAt = fixedNow
	}
	if err := f.tasks.Create(f.ctx, &task); err != nil {
		t.Fatalf("create task %s: %v", task.Title, err)
	}
	return task
}

func (f *fixture) reload(t *testing.T, id primitive.ObjectID) *models.Task {
	t.Helper()
	task, err := f.tasks.FindByID(f.ctx, id)
	if err != nil {
		t.Fatalf("reload task: %v", err)
	}
	return task
}

func ids(callers ...models.Caller) []primitive.ObjectID {
	out := make([]primitive.ObjectID, 0, len(callers))
	for _, c := range callers {
		out = append(out, c.ID)
	}
	return out
}

func items(done ...bool) []models.ChecklistItem {
	out := make([]models.ChecklistItem, 0, len(done))
	for i, d := range done {
		out = append(out, models.ChecklistItem{Text: string(rune('a' + i)), Completed: d})
	}
	return out
}

type recordingCache struct {
	mu      sync.Mutex
	entries map[string]*models.Dashboard
	deleted []string
}

func newRecordingCache() *recordingCache {
	return &recordingCache{entries: map[string]*models.Dashboard{}}
}

func (c *recordingCache) Get(_ context.Context, key string) (*models.Dashboard, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.entries[key]
	return d, ok
}

func (c *recordingCache) Set(_ context.Context, key string, d *models.Dashboard) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = d
}

func (c *recordingCache) Delete(_ context.Context, keys ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.entries, k)
		c.deleted = append(c.deleted, k)
	}
}

func (c *recordingCache) wasDeleted(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range c.deleted {
		if k == key {
			return true
		}
	}
	return false
}
