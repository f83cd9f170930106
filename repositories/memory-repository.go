package repositories

import (
	"context"
	"sort"
	"sync"

	"task-manager/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryTaskRepository keeps tasks in process memory. It backs STORE_DRIVER=memory
// and the service tests. Stored tasks are copied on the way in and out.
type MemoryTaskRepository struct {
	mu    sync.RWMutex
	tasks map[primitive.ObjectID]models.Task
}

func NewMemoryTaskRepository() *MemoryTaskRepository {
	return &MemoryTaskRepository{tasks: make(map[primitive.ObjectID]models.Task)}
}

func (r *MemoryTaskRepository) Create(_ context.Context, task *models.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if task.ID.IsZero() {
		task.ID = primitive.NewObjectID()
	}
	if _, exists := r.tasks[task.ID]; exists {
		return ErrDuplicateKey
	}
	r.tasks[task.ID] = cloneTask(*task)
	return nil
}

func (r *MemoryTaskRepository) FindByID(_ context.Context, id primitive.ObjectID) (*models.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	task, ok := r.tasks[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := cloneTask(task)
	return &out, nil
}

func (r *MemoryTaskRepository) Find(_ context.Context, filter models.TaskFilter, opts models.FindOptions) ([]models.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []models.Task{}
	for _, task := range r.tasks {
		if filter.Matches(&task) {
			out = append(out, cloneTask(task))
		}
	}

	if opts.NewestFirst {
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		})
	} else {
		// Insertion order is not tracked; ObjectIDs are time ordered.
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].ID.Hex() < out[j].ID.Hex()
		})
	}
	if opts.Limit > 0 && int64(len(out)) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

func (r *MemoryTaskRepository) Replace(_ context.Context, task *models.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tasks[task.ID]; !ok {
		return ErrNotFound
	}
	r.tasks[task.ID] = cloneTask(*task)
	return nil
}

func (r *MemoryTaskRepository) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tasks[id]; !ok {
		return ErrNotFound
	}
	delete(r.tasks, id)
	return nil
}

func (r *MemoryTaskRepository) Count(_ context.Context, filter models.TaskFilter) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var n int64
	for _, task := range r.tasks {
		if filter.Matches(&task) {
			n++
		}
	}
	return n, nil
}

func (r *MemoryTaskRepository) CountBy(_ context.Context, filter models.TaskFilter, field models.TaskField) (map[string]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[string]int64)
	for _, task := range r.tasks {
		if !filter.Matches(&task) {
			continue
		}
		switch field {
		case models.FieldStatus:
			counts[string(task.Status)]++
		case models.FieldPriority:
			counts[string(task.Priority)]++
		}
	}
	return counts, nil
}

func cloneTask(t models.Task) models.Task {
	out := t
	out.AssignedTo = cloneSlice(t.AssignedTo)
	out.Attachments = cloneSlice(t.Attachments)
	out.TodoChecklist = cloneSlice(t.TodoChecklist)
	if t.DueDate != nil {
		due := *t.DueDate
		out.DueDate = &due
	}
	return out
}

// cloneSlice copies s and keeps an empty slice distinct from nil.
func cloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	out := make([]T, len(s))
	copy(out, s)
	return out
}

// MemoryUserRepository keeps users in process memory and enforces email uniqueness.
type MemoryUserRepository struct {
	mu    sync.RWMutex
	users map[primitive.ObjectID]models.User
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: make(map[primitive.ObjectID]models.User)}
}

func (r *MemoryUserRepository) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	if r.emailTaken(user.Email, user.ID) {
		return ErrDuplicateKey
	}
	if _, exists := r.users[user.ID]; exists {
		return ErrDuplicateKey
	}
	r.users[user.ID] = *user
	return nil
}

func (r *MemoryUserRepository) emailTaken(email string, except primitive.ObjectID) bool {
	for id, u := range r.users {
		if id != except && u.Email == email {
			return true
		}
	}
	return false
}

func (r *MemoryUserRepository) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &user, nil
}

func (r *MemoryUserRepository) FindByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, user := range r.users {
		if user.Email == email {
			u := user
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryUserRepository) FindByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []models.User{}
	seen := make(map[primitive.ObjectID]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if user, ok := r.users[id]; ok {
			out = append(out, user)
		}
	}
	return out, nil
}

func (r *MemoryUserRepository) Find(_ context.Context, filter models.UserFilter) ([]models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []models.User{}
	for _, user := range r.users {
		if filter.Matches(&user) {
			out = append(out, user)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ID.Hex() < out[j].ID.Hex()
	})
	return out, nil
}

func (r *MemoryUserRepository) Replace(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.ID]; !ok {
		return ErrNotFound
	}
	if r.emailTaken(user.Email, user.ID) {
		return ErrDuplicateKey
	}
	r.users[user.ID] = *user
	return nil
}

func (r *MemoryUserRepository) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return ErrNotFound
	}
	delete(r.users, id)
	return nil
}
