package repositories

import (
	"context"
	"errors"

	"task-manager/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrNotFound     = errors.New("document not found")
	ErrDuplicateKey = errors.New("duplicate key")
)

// TaskRepository is the document store view over the tasks collection.
type TaskRepository interface {
	Create(ctx context.Context, task *models.Task) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Task, error)
	Find(ctx context.Context, filter models.TaskFilter, opts models.FindOptions) ([]models.Task, error)
	Replace(ctx context.Context, task *models.Task) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	Count(ctx context.Context, filter models.TaskFilter) (int64, error)
	// CountBy groups the filtered tasks on field and returns the count per value.
	// Values with no tasks are absent from the result.
	CountBy(ctx context.Context, filter models.TaskFilter, field models.TaskField) (map[string]int64, error)
}

// UserRepository is the document store view over the users collection.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	// FindByIDs returns the users that exist among ids, in no particular order.
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error)
	Find(ctx context.Context, filter models.UserFilter) ([]models.User, error)
	Replace(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}
