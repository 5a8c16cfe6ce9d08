package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/phrazzld/task-tracker/internal/domain"
	"github.com/phrazzld/task-tracker/internal/store"
)

const taskColumns = `id, owner_id, name, target, status, result, created_at, updated_at`

// taskRow mirrors the tasks table.
type taskRow struct {
	ID        uuid.UUID     `db:"id"`
	OwnerID   uuid.UUID     `db:"owner_id"`
	Name      string        `db:"name"`
	Target    string        `db:"target"`
	Status    string        `db:"status"`
	Result    sql.NullInt16 `db:"result"`
	CreatedAt time.Time     `db:"created_at"`
	UpdatedAt time.Time     `db:"updated_at"`
}

func (r taskRow) toDomain() *domain.Task {
	task := &domain.Task{
		ID:        r.ID,
		OwnerID:   r.OwnerID,
		Name:      r.Name,
		Target:    r.Target,
		Status:    domain.TaskStatus(r.Status),
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
	if r.Result.Valid {
		task.Result = domain.ResultCode(int(r.Result.Int16))
	}
	return task
}

func toDomainTasks(rows []taskRow) []*domain.Task {
	tasks := make([]*domain.Task, 0, len(rows))
	for _, r := range rows {
		tasks = append(tasks, r.toDomain())
	}
	return tasks
}

// PostgresTaskStore implements store.TaskStore on PostgreSQL.
type PostgresTaskStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

var _ store.TaskStore = (*PostgresTaskStore)(nil)

// NewPostgresTaskStore creates a new PostgresTaskStore.
func NewPostgresTaskStore(db *sqlx.DB, logger *slog.Logger) *PostgresTaskStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresTaskStore{
		db:     db,
		logger: logger.With(slog.String("component", "postgres_task_store")),
	}
}

// Create implements store.TaskStore.
func (s *PostgresTaskStore) Create(ctx context.Context, task *domain.Task) error {
	if err := task.Validate(); err != nil {
		return store.NewStoreError("task", "create", err.Error(), store.ErrInvalidEntity)
	}

	var result sql.NullInt16
	if task.Result != nil {
		result = sql.NullInt16{Int16: int16(*task.Result), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks (`+taskColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		task.ID, task.OwnerID, task.Name, task.Target, string(task.Status),
		result, task.CreatedAt, task.UpdatedAt,
	)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to insert task",
			slog.String("task_id", task.ID.String()),
			slog.Any("error", err))
		return store.NewStoreError("task", "create", "insert failed", MapError(err))
	}
	return nil
}

// GetByID implements store.TaskStore.
func (s *PostgresTaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	var row taskRow
	err := s.db.GetContext(ctx, &row, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrTaskNotFound
		}
		return nil, store.NewStoreError("task", "get", "query failed", MapError(err))
	}
	return row.toDomain(), nil
}

// ListByOwner implements store.TaskStore.
func (s *PostgresTaskStore) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Task, error) {
	var rows []taskRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+taskColumns+` FROM tasks
		WHERE owner_id = $1
		ORDER BY created_at ASC, id ASC`, ownerID)
	if err != nil {
		return nil, store.NewStoreError("task", "list_by_owner", "query failed", MapError(err))
	}
	return toDomainTasks(rows), nil
}

// ListByStatus implements store.TaskStore.
func (s *PostgresTaskStore) ListByStatus(
	ctx context.Context,
	status domain.TaskStatus,
) ([]*domain.Task, error) {
	var rows []taskRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+taskColumns+` FROM tasks
		WHERE status = $1
		ORDER BY created_at ASC, id ASC`, string(status))
	if err != nil {
		return nil, store.NewStoreError("task", "list_by_status", "query failed", MapError(err))
	}
	return toDomainTasks(rows), nil
}

// GetMany implements store.TaskStore.
func (s *PostgresTaskStore) GetMany(
	ctx context.Context,
	ids []uuid.UUID,
	ownerID uuid.UUID,
	status *domain.TaskStatus,
) ([]*domain.Task, error) {
	if len(ids) == 0 {
		return []*domain.Task{}, nil
	}

	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id IN (?) AND owner_id = ?`
	args := []interface{}{ids, ownerID}
	if status != nil {
		query += ` AND status = ?`
		args = append(args, string(*status))
	}
	query += ` ORDER BY created_at ASC, id ASC`

	query, args, err := sqlx.In(query, args...)
	if err != nil {
		return nil, store.NewStoreError("task", "get_many", "failed to build query", err)
	}

	var rows []taskRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, store.NewStoreError("task", "get_many", "query failed", MapError(err))
	}
	return toDomainTasks(rows), nil
}

// UpdateStatus implements store.TaskStore as a single conditional UPDATE.
// When no row matches, a follow-up probe tells a missing task apart from one
// whose status moved on.
func (s *PostgresTaskStore) UpdateStatus(
	ctx context.Context,
	id uuid.UUID,
	status domain.TaskStatus,
	result *int,
) error {
	prior, err := store.ValidateStatusUpdate(status, result)
	if err != nil {
		return err
	}

	var dbResult sql.NullInt16
	if result != nil {
		dbResult = sql.NullInt16{Int16: int16(*result), Valid: true}
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE tasks
		SET status = $1, result = $2, updated_at = $3
		WHERE id = $4 AND status = $5`,
		string(status), dbResult, time.Now().UTC(), id, string(prior),
	)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to update task status",
			slog.String("task_id", id.String()),
			slog.String("status", string(status)),
			slog.Any("error", err))
		return store.NewStoreError("task", "update_status", "update failed", MapError(err))
	}

	n, err := rowsAffected(res)
	if err != nil {
		return store.NewStoreError("task", "update_status", "update failed", err)
	}
	if n == 1 {
		return nil
	}

	var current string
	err = s.db.GetContext(ctx, &current, `SELECT status FROM tasks WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrTaskNotFound
	}
	if err != nil {
		return store.NewStoreError("task", "update_status", "status probe failed", MapError(err))
	}
	return store.NewStoreError("task", "update_status",
		fmt.Sprintf("%s -> %s", current, status), store.ErrStatusConflict)
}

// Delete implements store.TaskStore.
func (s *PostgresTaskStore) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return store.NewStoreError("task", "delete", "delete failed", MapError(err))
	}
	return CheckRowsAffected(res, store.ErrTaskNotFound)
}

// DeleteMany implements store.TaskStore.
func (s *PostgresTaskStore) DeleteMany(ctx context.Context, ids []uuid.UUID, ownerID uuid.UUID) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	query, args, err := sqlx.In(`DELETE FROM tasks WHERE id IN (?) AND owner_id = ?`, ids, ownerID)
	if err != nil {
		return 0, store.NewStoreError("task", "delete_many", "failed to build query", err)
	}

	res, err := s.db.ExecContext(ctx, s.db.Rebind(query), args...)
	if err != nil {
		return 0, store.NewStoreError("task", "delete_many", "delete failed", MapError(err))
	}
	n, err := rowsAffected(res)
	if err != nil {
		return 0, store.NewStoreError("task", "delete_many", "delete failed", err)
	}
	return int(n), nil
}
