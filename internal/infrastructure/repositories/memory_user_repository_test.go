package repositories_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Himanshux99/BackendProjectProjectManagement/internal/core/autherr"
	"github.com/Himanshux99/BackendProjectProjectManagement/internal/core/domain/user"
	"github.com/Himanshux99/BackendProjectProjectManagement/internal/core/ports"
	"github.com/Himanshux99/BackendProjectProjectManagement/internal/infrastructure/repositories"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestUser(email, username string) *user.User {
	digest := "verify-digest-" + username
	expiry := time.Now().UTC().Add(time.Hour).Truncate(time.Microsecond)
	return &user.User{
		ID:                    uuid.New(),
		Email:                 email,
		Username:              username,
		PasswordHash:          "$2a$04$hash",
		Role:                  user.RoleMember,
		VerificationTokenHash: &digest,
		VerificationExpiry:    &expiry,
	}
}

// exerciseUserRepository runs the store contract against any implementation.
func exerciseUserRepository(t *testing.T, repo ports.UserRepository) {
	ctx := context.Background()

	alice := newTestUser("alice@example.com", "alice")
	require.NoError(t, repo.Create(ctx, alice))

	t.Run("duplicates conflict", func(t *testing.T) {
		err := repo.Create(ctx, newTestUser("alice@example.com", "someone"))
		require.ErrorIs(t, err, autherr.ErrConflict)
		err = repo.Create(ctx, newTestUser("someone@example.com", "alice"))
		require.ErrorIs(t, err, autherr.ErrConflict)
	})

	t.Run("lookups", func(t *testing.T) {
		got, err := repo.GetByID(ctx, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, "alice@example.com", got.Email)

		got, err = repo.FindByField(ctx, user.FieldEmail, "alice@example.com")
		require.NoError(t, err)
		assert.Equal(t, alice.ID, got.ID)

		got, err = repo.FindByField(ctx, user.FieldVerificationTokenHash, "verify-digest-alice")
		require.NoError(t, err)
		assert.Equal(t, alice.ID, got.ID)

		_, err = repo.FindByField(ctx, user.FieldResetTokenHash, "missing")
		require.ErrorIs(t, err, autherr.ErrNotFound)

		_, err = repo.FindByField(ctx, user.FieldRefreshToken, "x")
		require.ErrorIs(t, err, autherr.ErrValidation)

		_, err = repo.GetByID(ctx, uuid.New())
		require.ErrorIs(t, err, autherr.ErrNotFound)
	})

	t.Run("compare and swap", func(t *testing.T) {
		updated, err := repo.CompareAndSwap(ctx, alice.ID, func(u *user.User) error {
			u.RefreshTokenHash = "rt-digest"
			u.EmailVerified = true
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, "rt-digest", updated.RefreshTokenHash)

		got, err := repo.GetByID(ctx, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, "rt-digest", got.RefreshTokenHash)
		assert.True(t, got.EmailVerified)

		rejected := errors.New("precondition failed")
		_, err = repo.CompareAndSwap(ctx, alice.ID, func(u *user.User) error {
			u.RefreshTokenHash = "should-not-stick"
			return rejected
		})
		require.ErrorIs(t, err, rejected)
		got, err = repo.GetByID(ctx, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, "rt-digest", got.RefreshTokenHash)

		_, err = repo.CompareAndSwap(ctx, uuid.New(), func(u *user.User) error { return nil })
		require.ErrorIs(t, err, autherr.ErrNotFound)
	})

	t.Run("clear fields", func(t *testing.T) {
		require.NoError(t, repo.ClearFields(ctx, alice.ID, user.FieldRefreshToken, user.FieldVerification))
		got, err := repo.GetByID(ctx, alice.ID)
		require.NoError(t, err)
		assert.Empty(t, got.RefreshTokenHash)
		assert.Nil(t, got.VerificationTokenHash)
		assert.Nil(t, got.VerificationExpiry)

		require.ErrorIs(t, repo.ClearFields(ctx, uuid.New(), user.FieldReset), autherr.ErrNotFound)
		require.ErrorIs(t, repo.ClearFields(ctx, alice.ID, user.FieldEmail), autherr.ErrValidation)
	})

	t.Run("concurrent swaps serialize", func(t *testing.T) {
		const workers = 20
		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := repo.CompareAndSwap(ctx, alice.ID, func(u *user.User) error {
					u.RefreshTokenHash += "x"
					return nil
				})
				assert.NoError(t, err)
			}()
		}
		wg.Wait()
		got, err := repo.GetByID(ctx, alice.ID)
		require.NoError(t, err)
		assert.Len(t, got.RefreshTokenHash, workers)
	})
}

func TestMemoryUserRepository(t *testing.T) {
	exerciseUserRepository(t, repositories.NewMemoryUserRepository())
}

func TestMemoryUserRepository_ReturnsCopies(t *testing.T) {
	repo := repositories.NewMemoryUserRepository()
	u := newTestUser("a@example.com", "aaa")
	require.NoError(t, repo.Create(context.Background(), u))

	got, err := repo.GetByID(context.Background(), u.ID)
	require.NoError(t, err)
	*got.VerificationTokenHash = "tampered"
	got.Email = "tampered@example.com"

	again, err := repo.GetByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", again.Email)
	assert.Equal(t, "verify-digest-aaa", *again.VerificationTokenHash)
}

func TestMemoryUserRepository_CanceledContext(t *testing.T) {
	repo := repositories.NewMemoryUserRepository()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.GetByID(ctx, uuid.New())
	require.ErrorIs(t, err, autherr.ErrInfrastructure)
}

func TestRateLimitMemoryRepository(t *testing.T) {
	repo := repositories.NewRateLimitMemoryRepository()
	ctx := context.Background()

	for want := 1; want <= 3; want++ {
		count, start, err := repo.IncrementWindow(ctx, "1.2.3.4", time.Minute, "rl", 2*time.Minute)
		require.NoError(t, err)
		assert.Equal(t, want, count)
		assert.False(t, start.After(time.Now()))
	}
	count, _, err := repo.IncrementWindow(ctx, "5.6.7.8", time.Minute, "rl", 2*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
