package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"snapfeed-backend/internal/auth"
	"snapfeed-backend/internal/models"

	"github.com/google/uuid"
)

// UserStore is the credential-store surface the user service needs.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UpdatePasswordHash(ctx context.Context, userID, hash string) error
}

// UserService handles registration and authentication
type UserService struct {
	users UserStore
}

// NewUserService creates a new user service
func NewUserService(users UserStore) *UserService {
	return &UserService{users: users}
}

// Register creates a new account with a hashed password. The email is
// normalized before storage so uniqueness is case-insensitive.
// store.ErrDuplicate surfaces when the email or username is taken.
func (s *UserService) Register(ctx context.Context, email, username, password string) (*models.User, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		ID:           uuid.New().String(),
		Email:        auth.NormalizeEmail(email),
		Username:     strings.TrimSpace(username),
		PasswordHash: &hash,
		CreatedAt:    time.Now(),
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login verifies the submitted credentials
func (s *UserService) Login(ctx context.Context, email, password string) auth.Result {
	return auth.Authenticate(ctx, s.users, email, password)
}

// ChangePassword rehashes and persists only when the submitted password
// differs from the one behind the stored hash. Unrelated saves never
// touch the hash.
func (s *UserService) ChangePassword(ctx context.Context, userID, newPassword string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}

	changed, err := auth.MaybeRehash(user, newPassword)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	return s.users.UpdatePasswordHash(ctx, user.ID, *user.PasswordHash)
}
