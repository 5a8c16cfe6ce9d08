package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/task-tracker/internal/domain"
	"github.com/phrazzld/task-tracker/internal/store"
)

// UserStore is a map-backed store.UserStore. Usernames are unique
// case-insensitively.
type UserStore struct {
	mu         sync.RWMutex
	byID       map[uuid.UUID]*domain.User
	byUsername map[string]uuid.UUID
}

var _ store.UserStore = (*UserStore)(nil)

// NewUserStore creates an empty UserStore.
func NewUserStore() *UserStore {
	return &UserStore{
		byID:       make(map[uuid.UUID]*domain.User),
		byUsername: make(map[string]uuid.UUID),
	}
}

// Create implements store.UserStore.
func (s *UserStore) Create(ctx context.Context, user *domain.User) error {
	if err := user.Validate(); err != nil {
		return store.NewStoreError("user", "create", err.Error(), store.ErrInvalidEntity)
	}
	if user.HashedPassword == "" {
		return store.NewStoreError("user", "create", "password must be hashed", store.ErrInvalidEntity)
	}

	key := strings.ToLower(user.Username)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byUsername[key]; taken {
		return store.ErrUsernameExists
	}
	if _, taken := s.byID[user.ID]; taken {
		return store.NewStoreError("user", "create", "user id already in use", store.ErrDuplicate)
	}

	stored := *user
	stored.Password = ""
	s.byID[user.ID] = &stored
	s.byUsername[key] = user.ID
	return nil
}

// GetByID implements store.UserStore.
func (s *UserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.byID[id]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	u := *user
	return &u, nil
}

// GetByUsername implements store.UserStore.
func (s *UserStore) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byUsername[strings.ToLower(username)]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	u := *s.byID[id]
	return &u, nil
}
