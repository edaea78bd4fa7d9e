package services

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"snapfeed-backend/internal/auth"
	"snapfeed-backend/internal/models"
	"snapfeed-backend/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeUserStore enforces email/username uniqueness in memory.
type fakeUserStore struct {
	mu          sync.Mutex
	byID        map[string]*models.User
	hashUpdates int
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{byID: make(map[string]*models.User)}
}

func (f *fakeUserStore) Create(_ context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.byID {
		if existing.Email == user.Email || existing.Username == user.Username {
			return fmt.Errorf("email or username already in use: %w", store.ErrDuplicate)
		}
	}
	f.byID[user.ID] = user
	return nil
}

func (f *fakeUserStore) GetByID(_ context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.byID[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, store.ErrNotFound)
	}
	copied := *user
	return &copied, nil
}

func (f *fakeUserStore) GetByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.byID {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("user %s: %w", email, store.ErrNotFound)
}

func (f *fakeUserStore) UpdatePasswordHash(_ context.Context, userID, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.byID[userID]
	if !ok {
		return fmt.Errorf("user %s: %w", userID, store.ErrNotFound)
	}
	user.PasswordHash = &hash
	f.hashUpdates++
	return nil
}

func TestRegisterNormalizesEmail(t *testing.T) {
	users := newFakeUserStore()
	svc := NewUserService(users)

	user, err := svc.Register(context.Background(), "Alice@Example.Com", "alice", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)
	require.NotNil(t, user.PasswordHash)
	assert.True(t, auth.VerifyPassword(user.PasswordHash, "hunter2"))
}

func TestRegisterDuplicateEmail(t *testing.T) {
	users := newFakeUserStore()
	svc := NewUserService(users)

	_, err := svc.Register(context.Background(), "alice@example.com", "alice", "hunter2")
	require.NoError(t, err)

	// Case differences do not dodge the uniqueness constraint.
	_, err = svc.Register(context.Background(), "Alice@Example.Com", "alice2", "hunter2")
	assert.ErrorIs(t, err, store.ErrDuplicate)
}

func TestRegisterThenLogin(t *testing.T) {
	users := newFakeUserStore()
	svc := NewUserService(users)

	registered, err := svc.Register(context.Background(), "alice@example.com", "alice", "hunter2")
	require.NoError(t, err)

	result := svc.Login(context.Background(), "alice@example.com", "hunter2")
	assert.Equal(t, auth.OutcomeSuccess, result.Outcome)
	assert.Equal(t, registered.ID, result.User.ID)

	result = svc.Login(context.Background(), "alice@example.com", "wrong")
	assert.Equal(t, auth.OutcomeRejected, result.Outcome)
	assert.Equal(t, auth.ReasonBadCredentials, result.Reason)
}

func TestChangePasswordSamePasswordSkipsWrite(t *testing.T) {
	users := newFakeUserStore()
	svc := NewUserService(users)

	user, err := svc.Register(context.Background(), "alice@example.com", "alice", "hunter2")
	require.NoError(t, err)
	originalHash := *user.PasswordHash

	require.NoError(t, svc.ChangePassword(context.Background(), user.ID, "hunter2"))
	assert.Zero(t, users.hashUpdates, "re-submitting the same password must not re-hash")

	stored, err := users.GetByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, originalHash, *stored.PasswordHash)
}

func TestChangePasswordNewPassword(t *testing.T) {
	users := newFakeUserStore()
	svc := NewUserService(users)

	user, err := svc.Register(context.Background(), "alice@example.com", "alice", "hunter2")
	require.NoError(t, err)

	require.NoError(t, svc.ChangePassword(context.Background(), user.ID, "hunter3"))
	assert.Equal(t, 1, users.hashUpdates)

	result := svc.Login(context.Background(), "alice@example.com", "hunter3")
	assert.Equal(t, auth.OutcomeSuccess, result.Outcome)

	result = svc.Login(context.Background(), "alice@example.com", "hunter2")
	assert.Equal(t, auth.OutcomeRejected, result.Outcome)
}
