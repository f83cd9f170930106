package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"
	"time"

	"task-manager/logging"
	"task-manager/models"
	"task-manager/repositories"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

type RegisterInput struct {
	Name             string `json:"name"`
	Email            string `json:"email"`
	Password         string `json:"password"`
	ProfileImageURL  string `json:"profileImageUrl"`
	AdminInviteToken string `json:"adminInviteToken"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateProfileInput fields left empty keep their current value.
type UpdateProfileInput struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	ProfileImageURL string `json:"profileImageUrl"`
	Password        string `json:"password"`
}

type AuthResponse struct {
	ID              primitive.ObjectID `json:"id"`
	Name            string             `json:"name"`
	Email           string             `json:"email"`
	ProfileImageURL string             `json:"profileImageUrl"`
	Role            models.Role        `json:"role"`
	Token           string             `json:"token"`
}

type AuthService struct {
	users       repositories.UserRepository
	jwt         *JWTService
	inviteToken string
	now         func() time.Time
}

func NewAuthService(users repositories.UserRepository, jwtService *JWTService, adminInviteToken string) *AuthService {
	return &AuthService{
		users:       users,
		jwt:         jwtService,
		inviteToken: adminInviteToken,
		now:         time.Now,
	}
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResponse, error) {
	in.Email = strings.TrimSpace(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" || in.Email == "" || in.Password == "" {
		return nil, badRequest("Name, email and password are required")
	}

	_, err := s.users.FindByEmail(ctx, in.Email)
	switch {
	case err == nil:
		return nil, badRequest("User already exists")
	case !errors.Is(err, repositories.ErrNotFound):
		return nil, internal("Internal Server Error", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, internal("Internal Server Error", err)
	}

	now := s.now()
	user := &models.User{
		ID:              primitive.NewObjectID(),
		Name:            in.Name,
		Email:           in.Email,
		Password:        string(hash),
		ProfileImageURL: in.ProfileImageURL,
		Role:            s.roleFor(in.AdminInviteToken),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, badRequest("User already exists")
		}
		return nil, internal("Internal Server Error", err)
	}

	logging.Logger.Infof("Event ID: USER_REGISTERED, Description: User %s registered with role %s", user.ID.Hex(), user.Role)
	return s.respond(user)
}

// roleFor grants admin only when an invite token is configured and matches.
func (s *AuthService) roleFor(token string) models.Role {
	if s.inviteToken == "" || token == "" {
		return models.RoleMember
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(s.inviteToken)) == 1 {
		return models.RoleAdmin
	}
	return models.RoleMember
}

func (s *AuthService) Login(ctx context.Context, in LoginInput) (*AuthResponse, error) {
	user, err := s.users.FindByEmail(ctx, strings.TrimSpace(in.Email))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			logging.Logger.Warnf("Event ID: LOGIN_UNKNOWN_EMAIL, Description: Login attempt for unknown email %s", in.Email)
			return nil, unauthenticated("Invalid credentials")
		}
		return nil, internal("Internal Server Error", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.Password)); err != nil {
		logging.Logger.Warnf("Event ID: LOGIN_WRONG_PASSWORD, Description: Wrong password for user %s", user.ID.Hex())
		return nil, unauthenticated("Invalid Password")
	}

	logging.Logger.Infof("Event ID: LOGIN_SUCCESS, Description: User %s logged in", user.ID.Hex())
	return s.respond(user)
}

// Authenticate resolves a bearer token to the stored user it was issued for.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	id, err := s.jwt.ValidateToken(token)
	if err != nil {
		return nil, err
	}
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, unauthenticated("Not authorized, user not found")
		}
		return nil, internal("Server error", err)
	}
	return user, nil
}

func (s *AuthService) Profile(ctx context.Context, caller models.Caller) (*models.User, error) {
	user, err := s.users.FindByID(ctx, caller.ID)
	if err != nil {
		return nil, storeError(err, "User not found")
	}
	return user, nil
}

func (s *AuthService) UpdateProfile(ctx context.Context, caller models.Caller, in UpdateProfileInput) (*AuthResponse, error) {
	user, err := s.users.FindByID(ctx, caller.ID)
	if err != nil {
		return nil, storeError(err, "User not found")
	}

	if name := strings.TrimSpace(in.Name); name != "" {
		user.Name = name
	}
	if email := strings.TrimSpace(in.Email); email != "" {
		user.Email = email
	}
	if in.ProfileImageURL != "" {
		user.ProfileImageURL = in.ProfileImageURL
	}
	if in.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, internal("Internal Server Error", err)
		}
		user.Password = string(hash)
	}
	user.UpdatedAt = s.now()

	if err := s.users.Replace(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, badRequest("User already exists")
		}
		return nil, storeError(err, "User not found")
	}

	logging.Logger.Infof("Event ID: PROFILE_UPDATED, Description: User %s updated their profile", user.ID.Hex())
	return s.respond(user)
}

func (s *AuthService) respond(user *models.User) (*AuthResponse, error) {
	token, err := s.jwt.GenerateToken(user.ID)
	if err != nil {
		return nil, internal("Internal Server Error", err)
	}
	return &AuthResponse{
		ID:              user.ID,
		Name:            user.Name,
		Email:           user.Email,
		ProfileImageURL: user.ProfileImageURL,
		Role:            user.Role,
		Token:           token,
	}, nil
}
