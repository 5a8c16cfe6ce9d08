package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/phrazzld/task-tracker/internal/domain"
	"github.com/phrazzld/task-tracker/internal/service/auth"
	"github.com/phrazzld/task-tracker/internal/store"
)

// UserService provides registration and authentication.
type UserService interface {
	// Register creates a user with a hashed password.
	// Returns store.ErrUsernameExists if the username is taken.
	Register(ctx context.Context, username, password string) (*domain.User, error)

	// Login verifies the credentials and returns a bearer token for the user.
	// Unknown usernames and wrong passwords both return auth.ErrInvalidCredentials.
	Login(ctx context.Context, username, password string) (string, *domain.User, error)

	// GetUser retrieves a user by their ID
	GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error)
}

// userServiceImpl implements the UserService interface
type userServiceImpl struct {
	users  store.UserStore
	hasher auth.PasswordHasher
	tokens auth.JWTService
	logger *slog.Logger
}

// NewUserService creates a new UserService
func NewUserService(
	userStore store.UserStore,
	hasher auth.PasswordHasher,
	tokens auth.JWTService,
	logger *slog.Logger,
) UserService {
	if logger == nil {
		logger = slog.Default()
	}
	return &userServiceImpl{
		users:  userStore,
		hasher: hasher,
		tokens: tokens,
		logger: logger.With("component", "user_service"),
	}
}

// Register implements UserService.
func (s *userServiceImpl) Register(ctx context.Context, username, password string) (*domain.User, error) {
	user, err := domain.NewUser(strings.TrimSpace(username), password)
	if err != nil {
		return nil, err
	}

	hashed, err := s.hasher.Hash(user.Password)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to hash password", "error", err)
		return nil, NewServiceError("user", "register", "failed to hash password", err)
	}
	user.HashedPassword = hashed
	user.Password = ""

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrUsernameExists) {
			s.logger.DebugContext(ctx, "attempted to register existing username",
				"username", user.Username)
		} else {
			s.logger.ErrorContext(ctx, "failed to save user",
				"error", err,
				"username", user.Username)
		}
		return nil, NewServiceError("user", "register", "failed to save user", err)
	}

	s.logger.InfoContext(ctx, "user registered",
		"user_id", user.ID,
		"username", user.Username)
	return user, nil
}

// Login implements UserService.
func (s *userServiceImpl) Login(ctx context.Context, username, password string) (string, *domain.User, error) {
	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if store.IsNotFoundError(err) {
			s.logger.DebugContext(ctx, "login for unknown username")
			return "", nil, auth.ErrInvalidCredentials
		}
		return "", nil, NewServiceError("user", "login", "failed to load user", err)
	}

	if err := s.hasher.Compare(user.HashedPassword, password); err != nil {
		s.logger.DebugContext(ctx, "login with wrong password", "user_id", user.ID)
		return "", nil, auth.ErrInvalidCredentials
	}

	token, err := s.tokens.GenerateToken(ctx, user.ID)
	if err != nil {
		return "", nil, NewServiceError("user", "login", "failed to issue token", err)
	}

	s.logger.InfoContext(ctx, "user logged in", "user_id", user.ID)
	return token, user, nil
}

// GetUser implements UserService.
func (s *userServiceImpl) GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, NewServiceError("user", "get_user", "failed to retrieve user", err)
	}
	return user, nil
}
