package repositories

import (
	"context"
	"sync"
	"time"

	"github.com/Himanshux99/BackendProjectProjectManagement/internal/core/autherr"
	"github.com/Himanshux99/BackendProjectProjectManagement/internal/core/domain/user"
	"github.com/Himanshux99/BackendProjectProjectManagement/internal/core/ports"
	"github.com/google/uuid"
)

// MemoryUserRepository keeps users in process memory. It backs the "memory"
// store driver and the service tests. Records are cloned on the way in and
// out, and a single mutex makes every CompareAndSwap atomic.
type MemoryUserRepository struct {
	mu    sync.Mutex
	users map[uuid.UUID]*user.User
	now   func() time.Time
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		users: make(map[uuid.UUID]*user.User),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

var _ ports.UserRepository = (*MemoryUserRepository)(nil)

func (r *MemoryUserRepository) Create(ctx context.Context, u *user.User) error {
	const op = "users.Create"
	if err := ctx.Err(); err != nil {
		return autherr.Infrastructure(op, err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[u.ID]; ok {
		return autherr.Conflict(op, autherr.ReasonDuplicate, "user already exists")
	}
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return autherr.Conflict(op, autherr.ReasonDuplicate, "email is already registered")
		}
		if existing.Username == u.Username {
			return autherr.Conflict(op, autherr.ReasonDuplicate, "username is already taken")
		}
	}
	stored := u.Clone()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = r.now()
	}
	if stored.UpdatedAt.IsZero() {
		stored.UpdatedAt = stored.CreatedAt
	}
	r.users[u.ID] = stored
	return nil
}

func (r *MemoryUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	const op = "users.GetByID"
	if err := ctx.Err(); err != nil {
		return nil, autherr.Infrastructure(op, err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return nil, autherr.NotFound(op, "user not found")
	}
	return u.Clone(), nil
}

func (r *MemoryUserRepository) FindByField(ctx context.Context, field user.Field, value string) (*user.User, error) {
	const op = "users.FindByField"
	if !field.IsLookup() {
		return nil, autherr.Validation(op, "field %q cannot be used for lookup", field)
	}
	if err := ctx.Err(); err != nil {
		return nil, autherr.Infrastructure(op, err)
	}
	if value == "" {
		return nil, autherr.NotFound(op, "user not found")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Lookup(field) == value {
			return u.Clone(), nil
		}
	}
	return nil, autherr.NotFound(op, "user not found")
}

func (r *MemoryUserRepository) CompareAndSwap(ctx context.Context, id uuid.UUID, mutate func(u *user.User) error) (*user.User, error) {
	const op = "users.CompareAndSwap"
	if err := ctx.Err(); err != nil {
		return nil, autherr.Infrastructure(op, err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.users[id]
	if !ok {
		return nil, autherr.NotFound(op, "user not found")
	}
	next := current.Clone()
	if err := mutate(next); err != nil {
		return nil, err
	}
	next.ID = current.ID
	next.CreatedAt = current.CreatedAt
	next.UpdatedAt = r.now()
	for otherID, other := range r.users {
		if otherID == id {
			continue
		}
		if other.Email == next.Email || other.Username == next.Username {
			return nil, autherr.Conflict(op, autherr.ReasonDuplicate, "a user with these details already exists")
		}
	}
	r.users[id] = next
	return next.Clone(), nil
}

func (r *MemoryUserRepository) ClearFields(ctx context.Context, id uuid.UUID, fields ...user.Field) error {
	const op = "users.ClearFields"
	for _, f := range fields {
		if !f.IsClearable() {
			return autherr.Validation(op, "field %q cannot be cleared", f)
		}
	}
	if err := ctx.Err(); err != nil {
		return autherr.Infrastructure(op, err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return autherr.NotFound(op, "user not found")
	}
	for _, f := range fields {
		u.Clear(f)
	}
	u.UpdatedAt = r.now()
	return nil
}
