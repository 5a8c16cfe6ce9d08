package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/phrazzld/task-tracker/internal/domain"
	"github.com/phrazzld/task-tracker/internal/store"
)

type userRow struct {
	ID             uuid.UUID `db:"id"`
	Username       string    `db:"username"`
	HashedPassword string    `db:"hashed_password"`
	CreatedAt      time.Time `db:"created_at"`
}

func (r userRow) toDomain() *domain.User {
	return &domain.User{
		ID:             r.ID,
		Username:       r.Username,
		HashedPassword: r.HashedPassword,
		CreatedAt:      r.CreatedAt.UTC(),
	}
}

// PostgresUserStore implements the store.UserStore interface
// using a PostgreSQL database as the storage backend.
type PostgresUserStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// Ensure PostgresUserStore implements store.UserStore interface
var _ store.UserStore = (*PostgresUserStore)(nil)

// NewPostgresUserStore creates a new PostgreSQL implementation of the UserStore interface.
// It accepts a database connection that should be initialized and managed by the caller.
func NewPostgresUserStore(db *sqlx.DB, logger *slog.Logger) *PostgresUserStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresUserStore{
		db:     db,
		logger: logger.With(slog.String("component", "postgres_user_store")),
	}
}

// Create implements store.UserStore.Create
func (s *PostgresUserStore) Create(ctx context.Context, user *domain.User) error {
	if err := user.Validate(); err != nil {
		return store.NewStoreError("user", "create", err.Error(), store.ErrInvalidEntity)
	}
	if user.HashedPassword == "" {
		return store.NewStoreError("user", "create", "password must be hashed", store.ErrInvalidEntity)
	}

	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO users (id, username, hashed_password, created_at)
		VALUES (:id, :username, :hashed_password, :created_at)`,
		userRow{
			ID:             user.ID,
			Username:       user.Username,
			HashedPassword: user.HashedPassword,
			CreatedAt:      user.CreatedAt,
		},
	)
	if err != nil {
		mapped := MapError(err)
		if errors.Is(mapped, store.ErrUsernameExists) {
			return store.ErrUsernameExists
		}
		s.logger.ErrorContext(ctx, "failed to insert user", slog.Any("error", err))
		return store.NewStoreError("user", "create", "insert failed", mapped)
	}
	return nil
}

// GetByID implements store.UserStore.GetByID
func (s *PostgresUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.getOne(ctx, `SELECT id, username, hashed_password, created_at FROM users WHERE id = $1`, id)
}

// GetByUsername implements store.UserStore.GetByUsername
func (s *PostgresUserStore) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return s.getOne(ctx,
		`SELECT id, username, hashed_password, created_at FROM users WHERE LOWER(username) = LOWER($1)`,
		username)
}

func (s *PostgresUserStore) getOne(ctx context.Context, query string, arg interface{}) (*domain.User, error) {
	var row userRow
	if err := s.db.GetContext(ctx, &row, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrUserNotFound
		}
		return nil, store.NewStoreError("user", "get", "query failed", MapError(err))
	}
	return row.toDomain(), nil
}
