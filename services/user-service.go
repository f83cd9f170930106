package services

import (
	"context"

	"task-manager/logging"
	"task-manager/models"
	"task-manager/repositories"
)

type UserService struct {
	users      repositories.UserRepository
	aggregator *Aggregator
}

func NewUserService(users repositories.UserRepository, aggregator *Aggregator) *UserService {
	return &UserService{users: users, aggregator: aggregator}
}

// ListMembers returns every member account with the number of assigned tasks per status.
func (s *UserService) ListMembers(ctx context.Context) ([]models.UserWithCounts, error) {
	users, err := s.users.Find(ctx, models.UserFilter{Role: models.RoleMember})
	if err != nil {
		return nil, internal("Server error", err)
	}

	result := make([]models.UserWithCounts, 0, len(users))
	for i := range users {
		counts, err := s.aggregator.StatusCounts(ctx, models.TaskFilter{}.WithAssignee(users[i].ID))
		if err != nil {
			return nil, err
		}
		result = append(result, models.UserWithCounts{
			User:            users[i],
			PendingTasks:    counts.Pending,
			InProgressTasks: counts.InProgress,
			CompletedTasks:  counts.Completed,
		})
	}
	return result, nil
}

func (s *UserService) GetUser(ctx context.Context, rawID string) (*models.User, error) {
	id, err := parseID(rawID, "user")
	if err != nil {
		return nil, err
	}
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "User not found")
	}
	return user, nil
}

// DeleteUser removes the account only. Tasks keep the id in assignedTo and it is
// skipped when assignees are resolved.
func (s *UserService) DeleteUser(ctx context.Context, rawID string) (*models.User, error) {
	id, err := parseID(rawID, "user")
	if err != nil {
		return nil, err
	}
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "User not found")
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return nil, storeError(err, "User not found")
	}

	logging.Logger.Infof("Event ID: USER_DELETED, Description: User %s (%s) deleted", user.ID.Hex(), user.Email)
	return user, nil
}
