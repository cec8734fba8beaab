package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/Himanshux99/BackendProjectProjectManagement/internal/core/domain/user"
	"github.com/Himanshux99/BackendProjectProjectManagement/internal/core/ports"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// Utility helpers
func cacheSetSilently(c ports.Cache, ctx context.Context, key string, v any, ttl time.Duration) {
	if c == nil {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	_ = c.Set(ctx, key, b, ttl)
}

func cacheGet[T any](c ports.Cache, ctx context.Context, key string) (*T, bool) {
	if c == nil {
		return nil, false
	}
	b, ok, err := c.Get(ctx, key)
	if err != nil || !ok {
		return nil, false
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, false
	}
	return &v, true
}

// userCacheEntry is the cached form of a user. user.User hides its secret
// fields from JSON, so the cache keeps its own copy of every column.
type userCacheEntry struct {
	ID                    uuid.UUID     `json:"id"`
	Email                 string        `json:"email"`
	Username              string        `json:"username"`
	PasswordHash          string        `json:"password_hash"`
	Role                  user.UserRole `json:"role"`
	RefreshTokenHash      string        `json:"refresh_token_hash"`
	EmailVerified         bool          `json:"email_verified"`
	VerificationTokenHash *string       `json:"verification_token_hash,omitempty"`
	VerificationExpiry    *time.Time    `json:"verification_expiry,omitempty"`
	ResetTokenHash        *string       `json:"reset_token_hash,omitempty"`
	ResetExpiry           *time.Time    `json:"reset_expiry,omitempty"`
	CreatedAt             time.Time     `json:"created_at"`
	UpdatedAt             time.Time     `json:"updated_at"`
}

func newUserCacheEntry(u *user.User) userCacheEntry {
	return userCacheEntry{
		ID:                    u.ID,
		Email:                 u.Email,
		Username:              u.Username,
		PasswordHash:          u.PasswordHash,
		Role:                  u.Role,
		RefreshTokenHash:      u.RefreshTokenHash,
		EmailVerified:         u.EmailVerified,
		VerificationTokenHash: u.VerificationTokenHash,
		VerificationExpiry:    u.VerificationExpiry,
		ResetTokenHash:        u.ResetTokenHash,
		ResetExpiry:           u.ResetExpiry,
		CreatedAt:             u.CreatedAt,
		UpdatedAt:             u.UpdatedAt,
	}
}

func (e *userCacheEntry) user() *user.User {
	return &user.User{
		ID:                    e.ID,
		Email:                 e.Email,
		Username:              e.Username,
		PasswordHash:          e.PasswordHash,
		Role:                  e.Role,
		RefreshTokenHash:      e.RefreshTokenHash,
		EmailVerified:         e.EmailVerified,
		VerificationTokenHash: e.VerificationTokenHash,
		VerificationExpiry:    e.VerificationExpiry,
		ResetTokenHash:        e.ResetTokenHash,
		ResetExpiry:           e.ResetExpiry,
		CreatedAt:             e.CreatedAt,
		UpdatedAt:             e.UpdatedAt,
	}
}

func userCacheKey(id uuid.UUID) string { return "user:id:" + id.String() }

// CachingUserRepository: cache-aside for GetByID only. Lookups by email or
// token digest and every write go to the inner store; writes drop the cached
// entry so CompareAndSwap always reads the committed record.
//
// A load that overlaps any invalidation is returned but not cached, so a
// record read before a write cannot be written back after it.
type CachingUserRepository struct {
	inner  ports.UserRepository
	cache  ports.Cache
	ttl    time.Duration
	logger *logrus.Logger

	generation atomic.Uint64
}

func NewCachingUserRepository(inner ports.UserRepository, cache ports.Cache, ttl time.Duration, logger *logrus.Logger) ports.UserRepository {
	return &CachingUserRepository{inner: inner, cache: cache, ttl: ttl, logger: logger}
}

func (c *CachingUserRepository) invalidate(ctx context.Context, id uuid.UUID) {
	c.generation.Add(1)
	if c.cache == nil {
		return
	}
	if err := c.cache.Delete(ctx, userCacheKey(id)); err != nil && c.logger != nil {
		c.logger.WithFields(logrus.Fields{"user_id": id}).WithError(err).
			Warn("failed to drop cached user; entry stays until its TTL")
	}
}

func (c *CachingUserRepository) Create(ctx context.Context, u *user.User) error {
	if err := c.inner.Create(ctx, u); err != nil {
		return err
	}
	c.invalidate(ctx, u.ID)
	return nil
}

func (c *CachingUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	key := userCacheKey(id)
	if v, ok := cacheGet[userCacheEntry](c.cache, ctx, key); ok {
		return v.user(), nil
	}
	res, err, _ := sf.Do(key, func() (any, error) {
		if v, ok := cacheGet[userCacheEntry](c.cache, ctx, key); ok {
			return v.user(), nil
		}
		gen := c.generation.Load()
		u, err := c.inner.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if c.generation.Load() == gen {
			cacheSetSilently(c.cache, ctx, key, newUserCacheEntry(u), c.ttl)
		}
		return u, nil
	})
	if err != nil {
		return nil, err
	}
	u, ok := res.(*user.User)
	if !ok {
		return nil, fmt.Errorf("unexpected type from singleflight result")
	}
	// Callers sharing one load must not share the record.
	return u.Clone(), nil
}

func (c *CachingUserRepository) FindByField(ctx context.Context, field user.Field, value string) (*user.User, error) {
	return c.inner.FindByField(ctx, field, value)
}

func (c *CachingUserRepository) CompareAndSwap(ctx context.Context, id uuid.UUID, mutate func(u *user.User) error) (*user.User, error) {
	u, err := c.inner.CompareAndSwap(ctx, id, mutate)
	if err != nil {
		return nil, err
	}
	c.invalidate(ctx, id)
	return u, nil
}

func (c *CachingUserRepository) ClearFields(ctx context.Context, id uuid.UUID, fields ...user.Field) error {
	if err := c.inner.ClearFields(ctx, id, fields...); err != nil {
		return err
	}
	c.invalidate(ctx, id)
	return nil
}

var sf singleflight.Group
