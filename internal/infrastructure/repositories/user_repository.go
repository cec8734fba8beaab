package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Himanshux99/BackendProjectProjectManagement/internal/core/autherr"
	"github.com/Himanshux99/BackendProjectProjectManagement/internal/core/domain/user"
	"github.com/Himanshux99/BackendProjectProjectManagement/internal/core/ports"
	"github.com/Himanshux99/BackendProjectProjectManagement/internal/infrastructure/db"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/samber/oops"
	"github.com/sirupsen/logrus"
)

const userColumns = `id, email, username, password_hash, role, refresh_token_hash, email_verified,
	verification_token_hash, verification_expiry, reset_token_hash, reset_expiry, created_at, updated_at`

// uniqueViolation is the Postgres SQLSTATE for a unique constraint failure.
const uniqueViolation = "23505"

// UserRepository implements the user repository interface
type UserRepository struct {
	db     *db.Database
	logger *logrus.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(database *db.Database, logger *logrus.Logger) ports.UserRepository {
	return &UserRepository{
		db:     database,
		logger: logger,
	}
}

func (r *UserRepository) storeFailure(op string, id uuid.UUID, err error) error {
	if r.logger != nil {
		fields := logrus.Fields{"op": op}
		if id != uuid.Nil {
			fields["user_id"] = id
		}
		r.logger.WithFields(fields).WithError(err).Error("db: user store call failed")
	}
	wrapped := oops.Code("USER_STORE_FAILED").
		With("operation", op).
		With("user_id", id.String()).
		Wrap(err)
	return autherr.Infrastructure(op, wrapped)
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	const op = "users.Create"
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES (:id, :email, :username, :password_hash, :role, :refresh_token_hash, :email_verified,
			:verification_token_hash, :verification_expiry, :reset_token_hash, :reset_expiry, :created_at, :updated_at)`

	if _, err := r.db.DB.NamedExecContext(ctx, query, u); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			if strings.Contains(pqErr.Constraint, "username") {
				return autherr.Conflict(op, autherr.ReasonDuplicate, "username is already taken")
			}
			return autherr.Conflict(op, autherr.ReasonDuplicate, "email is already registered")
		}
		return r.storeFailure(op, u.ID, err)
	}
	if r.logger != nil {
		r.logger.WithFields(logrus.Fields{"user_id": u.ID, "email": u.Email}).Info("db: user created")
	}
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	const op = "users.GetByID"
	var u user.User
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	if err := r.db.DB.GetContext(ctx, &u, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, autherr.NotFound(op, "user not found")
		}
		return nil, r.storeFailure(op, id, err)
	}
	return &u, nil
}

// FindByField retrieves a user by one of the lookup columns.
func (r *UserRepository) FindByField(ctx context.Context, field user.Field, value string) (*user.User, error) {
	const op = "users.FindByField"
	if !field.IsLookup() {
		return nil, autherr.Validation(op, "field %q cannot be used for lookup", field)
	}
	if value == "" {
		return nil, autherr.NotFound(op, "user not found")
	}
	var u user.User
	// field is one of a fixed set of column names.
	query := fmt.Sprintf(`SELECT %s FROM users WHERE %s = $1`, userColumns, string(field))

	if err := r.db.DB.GetContext(ctx, &u, query, value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			if r.logger != nil {
				r.logger.WithFields(logrus.Fields{"field": field}).Debug("db: user not found by field")
			}
			return nil, autherr.NotFound(op, "user not found")
		}
		return nil, r.storeFailure(op, uuid.Nil, err)
	}
	return &u, nil
}

// CompareAndSwap locks the row, applies mutate to a copy and writes it back
// in the same transaction. Concurrent swaps on one user serialize on the
// row lock, so every mutate sees the previous commit.
func (r *UserRepository) CompareAndSwap(ctx context.Context, id uuid.UUID, mutate func(u *user.User) error) (*user.User, error) {
	const op = "users.CompareAndSwap"
	tx, err := r.db.DB.BeginTxx(ctx, nil)
	if err != nil {
		return nil, r.storeFailure(op, id, err)
	}
	defer func() { _ = tx.Rollback() }()

	var current user.User
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 FOR UPDATE`
	if err := tx.GetContext(ctx, &current, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, autherr.NotFound(op, "user not found")
		}
		return nil, r.storeFailure(op, id, err)
	}

	next := current.Clone()
	if err := mutate(next); err != nil {
		return nil, err
	}
	next.ID = current.ID
	next.CreatedAt = current.CreatedAt
	next.UpdatedAt = time.Now().UTC()

	update := `
		UPDATE users
		SET email = :email, username = :username, password_hash = :password_hash, role = :role,
			refresh_token_hash = :refresh_token_hash, email_verified = :email_verified,
			verification_token_hash = :verification_token_hash, verification_expiry = :verification_expiry,
			reset_token_hash = :reset_token_hash, reset_expiry = :reset_expiry, updated_at = :updated_at
		WHERE id = :id`
	if _, err := tx.NamedExecContext(ctx, update, next); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return nil, autherr.Conflict(op, autherr.ReasonDuplicate, "a user with these details already exists")
		}
		return nil, r.storeFailure(op, id, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, r.storeFailure(op, id, err)
	}
	return next, nil
}

// clearAssignments maps a clearable field to its SET fragments.
var clearAssignments = map[user.Field][]string{
	user.FieldRefreshToken: {"refresh_token_hash = ''"},
	user.FieldVerification: {"verification_token_hash = NULL", "verification_expiry = NULL"},
	user.FieldReset:        {"reset_token_hash = NULL", "reset_expiry = NULL"},
}

// ClearFields resets the given fields with a single UPDATE.
func (r *UserRepository) ClearFields(ctx context.Context, id uuid.UUID, fields ...user.Field) error {
	const op = "users.ClearFields"
	if len(fields) == 0 {
		return nil
	}
	sets := make([]string, 0, len(fields)*2+1)
	for _, f := range fields {
		assignments, ok := clearAssignments[f]
		if !ok {
			return autherr.Validation(op, "field %q cannot be cleared", f)
		}
		sets = append(sets, assignments...)
	}
	sets = append(sets, "updated_at = NOW()")
	query := `UPDATE users SET ` + strings.Join(sets, ", ") + ` WHERE id = $1`

	result, err := r.db.DB.ExecContext(ctx, query, id)
	if err != nil {
		return r.storeFailure(op, id, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return r.storeFailure(op, id, err)
	}
	if rowsAffected == 0 {
		return autherr.NotFound(op, "user not found")
	}
	return nil
}
