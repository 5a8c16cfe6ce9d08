package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/task-tracker/internal/domain"
	"github.com/phrazzld/task-tracker/internal/store"
)

// PostgreSQL error codes
const (
	uniqueViolationCode     = "23505"
	foreignKeyViolationCode = "23503"
	checkViolationCode      = "23514"
	notNullViolationCode    = "23502"
)

var errTaskOwnerMissing = fmt.Errorf("%w: task owner does not exist", store.ErrInvalidEntity)

// constraintErrors maps schema constraints, by name, to the error their
// violation means for the application. See migrations/.
var constraintErrors = map[string]error{
	"users_username_lower_idx":    store.ErrUsernameExists,
	"tasks_owner_id_fkey":         errTaskOwnerMissing,
	"tasks_status_check":          fmt.Errorf("%w: %w", store.ErrInvalidEntity, domain.ErrInvalidTaskStatus),
	"tasks_result_check":          fmt.Errorf("%w: %w", store.ErrInvalidEntity, domain.ErrResultCodeInvalid),
	"tasks_result_terminal_check": fmt.Errorf("%w: %w", store.ErrInvalidEntity, domain.ErrResultMismatch),
	"tasks_result_code_check":     fmt.Errorf("%w: %w", store.ErrInvalidEntity, domain.ErrResultCodeInvalid),
}

// MapError translates a database error into the store's error vocabulary.
// Violations of known constraints map to their application meaning; other
// integrity violations map by SQLSTATE class. The driver error stays in the
// chain.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %w", store.ErrNotFound, err)
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	if known, ok := constraintErrors[pgErr.ConstraintName]; ok {
		return fmt.Errorf("%w (%s): %w", known, pgErr.ConstraintName, err)
	}

	switch pgErr.Code {
	case uniqueViolationCode:
		return fmt.Errorf("%w (%s): %w", store.ErrDuplicate, pgErr.ConstraintName, err)
	case foreignKeyViolationCode, checkViolationCode:
		return fmt.Errorf("%w: constraint %s violated: %w", store.ErrInvalidEntity, pgErr.ConstraintName, err)
	case notNullViolationCode:
		return fmt.Errorf("%w: column %s is required: %w", store.ErrInvalidEntity, pgErr.ColumnName, err)
	default:
		return err
	}
}

// rowsAffected returns how many rows result touched.
func rowsAffected(result sql.Result) (int64, error) {
	if result == nil {
		return 0, fmt.Errorf("nil result")
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}

// CheckRowsAffected returns notFound when result touched no rows.
func CheckRowsAffected(result sql.Result, notFound error) error {
	n, err := rowsAffected(result)
	if err != nil {
		return err
	}
	if n == 0 {
		if notFound == nil {
			return store.ErrNotFound
		}
		return notFound
	}
	return nil
}
