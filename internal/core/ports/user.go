package ports

import (
	"context"

	"github.com/Himanshux99/BackendProjectProjectManagement/internal/core/domain/user"
	"github.com/google/uuid"
)

// UserRepository is the persistent user store.
//
// Errors: a missing record is autherr.KindNotFound, a duplicate email or
// username on Create is autherr.KindConflict, and driver/timeout failures are
// autherr.KindInfrastructure.
type UserRepository interface {
	Create(ctx context.Context, u *user.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
	// FindByField looks a user up by a lookup field (see user.Field.IsLookup).
	FindByField(ctx context.Context, field user.Field, value string) (*user.User, error)
	// CompareAndSwap reads the record, hands a copy to mutate, and commits the
	// mutated copy as one atomic step per record. If mutate returns an error
	// nothing is written and that error is returned unchanged.
	CompareAndSwap(ctx context.Context, id uuid.UUID, mutate func(u *user.User) error) (*user.User, error)
	// ClearFields resets the given clearable fields.
	ClearFields(ctx context.Context, id uuid.UUID, fields ...user.Field) error
}
