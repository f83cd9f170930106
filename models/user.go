package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

type User struct {
	ID              primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name            string             `json:"name" bson:"name"`
	Email           string             `json:"email" bson:"email"`
	Password        string             `json:"-" bson:"password"`
	ProfileImageURL string             `json:"profileImageUrl" bson:"profileImageUrl"`
	Role            Role               `json:"role" bson:"role"`
	CreatedAt       time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// UserSummary is the public part of a user embedded in task responses.
type UserSummary struct {
	ID              primitive.ObjectID `json:"id"`
	Name            string             `json:"name"`
	Email           string             `json:"email"`
	ProfileImageURL string             `json:"profileImageUrl"`
}

func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:              u.ID,
		Name:            u.Name,
		Email:           u.Email,
		ProfileImageURL: u.ProfileImageURL,
	}
}

// UserWithCounts is a user row of the admin users list.
type UserWithCounts struct {
	User
	PendingTasks    int64 `json:"pendingTasks"`
	InProgressTasks int64 `json:"inProgressTasks"`
	CompletedTasks  int64 `json:"completedTasks"`
}

// Caller is the authenticated identity a request runs as.
type Caller struct {
	ID   primitive.ObjectID
	Role Role
}

func (c Caller) IsAdmin() bool {
	return c.Role == RoleAdmin
}
