package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	config "github.com/Himanshux99/BackendProjectProjectManagement/configs"
	"github.com/Himanshux99/BackendProjectProjectManagement/internal/application/credentials"
	impl "github.com/Himanshux99/BackendProjectProjectManagement/internal/application/services"
	"github.com/Himanshux99/BackendProjectProjectManagement/internal/core/autherr"
	"github.com/Himanshux99/BackendProjectProjectManagement/internal/core/domain/auth"
	"github.com/Himanshux99/BackendProjectProjectManagement/internal/core/domain/user"
	"github.com/Himanshux99/BackendProjectProjectManagement/internal/core/ports"
	"github.com/Himanshux99/BackendProjectProjectManagement/internal/infrastructure/repositories"
	"github.com/Himanshux99/BackendProjectProjectManagement/internal/mocks"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type harness struct {
	svc   *impl.AuthService
	repo  ports.UserRepository
	mail  *mocks.EmailServiceMock
	clock *testClock
}

func testAuthConfig() *config.AuthConfig {
	return &config.AuthConfig{
		AccessTokenSecret:    "access-secret",
		RefreshTokenSecret:   "refresh-secret",
		AccessTokenTTL:       15 * time.Minute,
		RefreshTokenTTL:      7 * 24 * time.Hour,
		EmailVerificationTTL: 20 * time.Minute,
		PasswordResetTTL:     20 * time.Minute,
		PasswordHashCost:     bcrypt.MinCost,
		OperationTimeout:     2 * time.Second,
	}
}

func newHarnessWithRepo(t *testing.T, repo ports.UserRepository) *harness {
	t.Helper()
	clock := &testClock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	cfg := testAuthConfig()
	creds, err := credentials.New(cfg, credentials.WithClock(clock.Now))
	require.NoError(t, err)
	mail := &mocks.EmailServiceMock{}
	return &harness{
		svc:   impl.NewAuthService(repo, mail, creds, cfg, nil),
		repo:  repo,
		mail:  mail,
		clock: clock,
	}
}

func newHarness(t *testing.T) *harness {
	return newHarnessWithRepo(t, repositories.NewMemoryUserRepository())
}

func (h *harness) register(t *testing.T, email, username, password string) *auth.RegisterResult {
	t.Helper()
	res, err := h.svc.Register(context.Background(), &user.RegisterRequest{Email: email, Username: username, Password: password})
	require.NoError(t, err)
	return res
}

func (h *harness) login(t *testing.T, email, password string) *auth.LoginResult {
	t.Helper()
	res, err := h.svc.Login(context.Background(), &auth.LoginRequest{Email: email, Password: password})
	require.NoError(t, err)
	return res
}

func TestRegister_CreatesUnverifiedMemberAndMailsToken(t *testing.T) {
	h := newHarness(t)

	res := h.register(t, "  Alice@Example.com ", "Alice", "password1")
	require.NotNil(t, res.User)
	assert.Equal(t, "alice@example.com", res.User.Email)
	assert.Equal(t, "alice", res.User.Username)
	assert.Equal(t, user.RoleMember, res.User.Role)
	assert.False(t, res.User.EmailVerified)
	assert.True(t, res.Delivery.Delivered)

	sent := h.mail.Last()
	require.NotNil(t, sent)
	assert.Equal(t, "verification", sent.Kind)
	assert.Equal(t, "alice@example.com", sent.To)

	stored, err := h.repo.GetByID(context.Background(), res.User.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.VerificationTokenHash)
	assert.NotEqual(t, sent.Token, *stored.VerificationTokenHash)
	assert.Equal(t, credentials.Digest(sent.Token), *stored.VerificationTokenHash)
	assert.Equal(t, h.clock.Now().Add(20*time.Minute), *stored.VerificationExpiry)
	assert.NotEqual(t, "password1", stored.PasswordHash)
	assert.Empty(t, stored.RefreshTokenHash)
}

func TestRegister_Duplicates(t *testing.T) {
	h := newHarness(t)
	h.register(t, "alice@example.com", "alice", "password1")

	_, err := h.svc.Register(context.Background(), &user.RegisterRequest{Email: "ALICE@example.com", Username: "other", Password: "password1"})
	require.ErrorIs(t, err, autherr.ErrConflict)

	_, err = h.svc.Register(context.Background(), &user.RegisterRequest{Email: "other@example.com", Username: "Alice", Password: "password1"})
	require.ErrorIs(t, err, autherr.ErrConflict)
}

func TestRegister_Validation(t *testing.T) {
	h := newHarness(t)
	cases := []*user.RegisterRequest{
		nil,
		{Email: "not-an-email", Username: "alice", Password: "password1"},
		{Email: "a@example.com", Username: "al", Password: "password1"},
		{Email: "a@example.com", Username: "alice", Password: "short"},
		{Email: "a@example.com", Username: "alice", Password: ""},
	}
	for _, req := range cases {
		_, err := h.svc.Register(context.Background(), req)
		require.ErrorIs(t, err, autherr.ErrValidation)
	}
	assert.Empty(t, h.mail.Sent)
}

func TestRegister_MailFailureIsDegradedSuccess(t *testing.T) {
	h := newHarness(t)
	h.mail.SendVerificationEmailFn = func(ctx context.Context, email, username, token string) error {
		return errors.New("smtp down")
	}

	res := h.register(t, "bob@example.com", "bob", "password1")
	assert.False(t, res.Delivery.Delivered)
	assert.NotEmpty(t, res.Delivery.Message)
	require.Error(t, res.Delivery.Err)

	// The committed token still works.
	verified, err := h.svc.CompleteEmailVerification(context.Background(), h.mail.Last().Token)
	require.NoError(t, err)
	assert.True(t, verified.EmailVerified)
}

func TestLogin_IssuesTokensAndStoresDigest(t *testing.T) {
	h := newHarness(t)
	reg := h.register(t, "alice@example.com", "alice", "password1")

	res := h.login(t, "ALICE@example.com", "password1")
	require.NotNil(t, res.Tokens)
	assert.Equal(t, reg.User.ID, res.User.ID)
	assert.NotEmpty(t, res.Tokens.AccessToken)
	assert.NotEqual(t, res.Tokens.AccessToken, res.Tokens.RefreshToken)

	stored, err := h.repo.GetByID(context.Background(), reg.User.ID)
	require.NoError(t, err)
	assert.Equal(t, credentials.Digest(res.Tokens.RefreshToken), stored.RefreshTokenHash)

	claims, err := h.svc.AuthenticateAccessToken(context.Background(), res.Tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID.String(), claims.Subject)
	assert.Equal(t, user.RoleMember, claims.Role)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	h := newHarness(t)
	h.register(t, "alice@example.com", "alice", "password1")

	_, err := h.svc.Login(context.Background(), &auth.LoginRequest{Email: "alice@example.com", Password: "wrong-pass"})
	require.ErrorIs(t, err, autherr.ErrInvalidCredential)

	_, err = h.svc.Login(context.Background(), &auth.LoginRequest{Email: "nobody@example.com", Password: "password1"})
	require.ErrorIs(t, err, autherr.ErrInvalidCredential)

	_, err = h.svc.Login(context.Background(), &auth.LoginRequest{Email: "alice@example.com"})
	require.ErrorIs(t, err, autherr.ErrValidation)
}

func TestLogin_SecondLoginEndsFirstSession(t *testing.T) {
	h := newHarness(t)
	h.register(t, "alice@example.com", "alice", "password1")

	first := h.login(t, "alice@example.com", "password1")
	second := h.login(t, "alice@example.com", "password1")

	_, err := h.svc.Refresh(context.Background(), first.Tokens.RefreshToken)
	require.ErrorIs(t, err, autherr.ErrUnauthorized)

	_, err = h.svc.Refresh(context.Background(), second.Tokens.RefreshToken)
	require.NoError(t, err)
}

func TestRefresh_RotatesToken(t *testing.T) {
	h := newHarness(t)
	h.register(t, "alice@example.com", "alice", "password1")
	session := h.login(t, "alice@example.com", "password1")

	pair, err := h.svc.Refresh(context.Background(), session.Tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, session.Tokens.RefreshToken, pair.RefreshToken)

	// The presented token is single use.
	_, err = h.svc.Refresh(context.Background(), session.Tokens.RefreshToken)
	require.ErrorIs(t, err, autherr.ErrUnauthorized)

	next, err := h.svc.Refresh(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, next.AccessToken)
}

func TestRefresh_RejectsForeignAndExpiredTokens(t *testing.T) {
	h := newHarness(t)
	h.register(t, "alice@example.com", "alice", "password1")
	session := h.login(t, "alice@example.com", "password1")

	_, err := h.svc.Refresh(context.Background(), session.Tokens.AccessToken)
	require.ErrorIs(t, err, autherr.ErrUnauthorized)

	_, err = h.svc.Refresh(context.Background(), "garbage")
	require.ErrorIs(t, err, autherr.ErrUnauthorized)

	h.clock.Advance(7*24*time.Hour + time.Second)
	_, err = h.svc.Refresh(context.Background(), session.Tokens.RefreshToken)
	require.ErrorIs(t, err, autherr.ErrUnauthorized)
}

func TestSessionTokenFailuresAreOnlyUnauthorized(t *testing.T) {
	h := newHarness(t)
	h.register(t, "alice@example.com", "alice", "password1")
	session := h.login(t, "alice@example.com", "password1")

	h.clock.Advance(7*24*time.Hour + time.Second)
	_, refreshErr := h.svc.Refresh(context.Background(), session.Tokens.RefreshToken)
	_, accessErr := h.svc.AuthenticateAccessToken(context.Background(), "garbage")

	for name, err := range map[string]error{"expired refresh": refreshErr, "malformed access": accessErr} {
		require.ErrorIs(t, err, autherr.ErrUnauthorized, name)
		assert.NotErrorIs(t, err, autherr.ErrInvalidOrExpiredToken, name)
		assert.Equal(t, autherr.KindUnauthorized, autherr.KindOf(err), name)
	}
	assert.ErrorIs(t, refreshErr, autherr.ErrExpired)
	assert.ErrorIs(t, accessErr, autherr.ErrMalformed)
}

func TestRefresh_ConcurrentRotationHasOneWinner(t *testing.T) {
	h := newHarness(t)
	h.register(t, "alice@example.com", "alice", "password1")
	session := h.login(t, "alice@example.com", "password1")

	const workers = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		winners   []string
	)
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			pair, err := h.svc.Refresh(context.Background(), session.Tokens.RefreshToken)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
				winners = append(winners, pair.RefreshToken)
				return
			}
			assert.ErrorIs(t, err, autherr.ErrUnauthorized)
		}()
	}
	close(start)
	wg.Wait()

	require.Equal(t, 1, successes)
	_, err := h.svc.Refresh(context.Background(), winners[0])
	require.NoError(t, err)
}

func TestEmailVerification_ConcurrentConsumeHasOneWinner(t *testing.T) {
	h := newHarness(t)
	h.register(t, "alice@example.com", "alice", "password1")
	token := h.mail.Last().Token

	const workers = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := h.svc.CompleteEmailVerification(context.Background(), token)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
				return
			}
			assert.ErrorIs(t, err, autherr.ErrInvalidOrExpiredToken)
		}()
	}
	close(start)
	wg.Wait()

	require.Equal(t, 1, successes)
}

func TestLogout_ClearsSessionAndIsIdempotent(t *testing.T) {
	h := newHarness(t)
	reg := h.register(t, "alice@example.com", "alice", "password1")
	session := h.login(t, "alice@example.com", "password1")

	require.NoError(t, h.svc.Logout(context.Background(), reg.User.ID))
	_, err := h.svc.Refresh(context.Background(), session.Tokens.RefreshToken)
	require.ErrorIs(t, err, autherr.ErrUnauthorized)

	require.NoError(t, h.svc.Logout(context.Background(), reg.User.ID))
	require.NoError(t, h.svc.Logout(context.Background(), uuid.New()))
}

func TestCurrentUser(t *testing.T) {
	h := newHarness(t)
	reg := h.register(t, "alice@example.com", "alice", "password1")

	me, err := h.svc.CurrentUser(context.Background(), reg.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", me.Username)

	_, err = h.svc.CurrentUser(context.Background(), uuid.New())
	require.ErrorIs(t, err, autherr.ErrNotFound)
}

func TestEmailVerification_Lifecycle(t *testing.T) {
	h := newHarness(t)
	reg := h.register(t, "alice@example.com", "alice", "password1")
	firstToken := h.mail.Last().Token

	// Requesting again replaces the outstanding token.
	report, err := h.svc.RequestEmailVerification(context.Background(), reg.User.ID)
	require.NoError(t, err)
	assert.True(t, report.Delivered)
	secondToken := h.mail.Last().Token
	require.NotEqual(t, firstToken, secondToken)

	_, err = h.svc.CompleteEmailVerification(context.Background(), firstToken)
	require.ErrorIs(t, err, autherr.ErrInvalidOrExpiredToken)

	verified, err := h.svc.CompleteEmailVerification(context.Background(), secondToken)
	require.NoError(t, err)
	assert.True(t, verified.EmailVerified)

	stored, err := h.repo.GetByID(context.Background(), reg.User.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.VerificationTokenHash)
	assert.Nil(t, stored.VerificationExpiry)

	_, err = h.svc.CompleteEmailVerification(context.Background(), secondToken)
	require.ErrorIs(t, err, autherr.ErrInvalidOrExpiredToken)

	_, err = h.svc.RequestEmailVerification(context.Background(), reg.User.ID)
	require.ErrorIs(t, err, autherr.ErrAlreadyVerified)
}

func TestEmailVerification_ExpiredToken(t *testing.T) {
	h := newHarness(t)
	h.register(t, "alice@example.com", "alice", "password1")
	token := h.mail.Last().Token

	h.clock.Advance(20 * time.Minute)
	_, err := h.svc.CompleteEmailVerification(context.Background(), token)
	require.ErrorIs(t, err, autherr.ErrInvalidOrExpiredToken)

	_, err = h.svc.CompleteEmailVerification(context.Background(), "")
	require.ErrorIs(t, err, autherr.ErrInvalidOrExpiredToken)
}

func TestRequestEmailVerification_UnknownUser(t *testing.T) {
	h := newHarness(t)
	_, err := h.svc.RequestEmailVerification(context.Background(), uuid.New())
	require.ErrorIs(t, err, autherr.ErrNotFound)
}

func TestPasswordReset_Lifecycle(t *testing.T) {
	h := newHarness(t)
	h.register(t, "alice@example.com", "alice", "password1")
	session := h.login(t, "alice@example.com", "password1")

	report, err := h.svc.RequestPasswordReset(context.Background(), "Alice@Example.com")
	require.NoError(t, err)
	assert.True(t, report.Delivered)
	sent := h.mail.Last()
	require.Equal(t, "password_reset", sent.Kind)

	err = h.svc.CompletePasswordReset(context.Background(), sent.Token, "brand-new-pass")
	require.NoError(t, err)

	// The reset ends the session and consumes the token.
	_, err = h.svc.Refresh(context.Background(), session.Tokens.RefreshToken)
	require.ErrorIs(t, err, autherr.ErrUnauthorized)
	err = h.svc.CompletePasswordReset(context.Background(), sent.Token, "another-pass")
	require.ErrorIs(t, err, autherr.ErrInvalidOrExpiredToken)

	_, err = h.svc.Login(context.Background(), &auth.LoginRequest{Email: "alice@example.com", Password: "password1"})
	require.ErrorIs(t, err, autherr.ErrInvalidCredential)
	h.login(t, "alice@example.com", "brand-new-pass")
}

func TestPasswordReset_Errors(t *testing.T) {
	h := newHarness(t)
	h.register(t, "alice@example.com", "alice", "password1")

	_, err := h.svc.RequestPasswordReset(context.Background(), "nobody@example.com")
	require.ErrorIs(t, err, autherr.ErrNotFound)

	_, err = h.svc.RequestPasswordReset(context.Background(), "")
	require.ErrorIs(t, err, autherr.ErrValidation)

	_, err = h.svc.RequestPasswordReset(context.Background(), "alice@example.com")
	require.NoError(t, err)
	token := h.mail.Last().Token

	err = h.svc.CompletePasswordReset(context.Background(), token, "short")
	require.ErrorIs(t, err, autherr.ErrValidation)

	err = h.svc.CompletePasswordReset(context.Background(), "not-the-token", "brand-new-pass")
	require.ErrorIs(t, err, autherr.ErrInvalidOrExpiredToken)

	h.clock.Advance(21 * time.Minute)
	err = h.svc.CompletePasswordReset(context.Background(), token, "brand-new-pass")
	require.ErrorIs(t, err, autherr.ErrInvalidOrExpiredToken)
}

func TestPasswordReset_MailFailureKeepsToken(t *testing.T) {
	h := newHarness(t)
	h.register(t, "alice@example.com", "alice", "password1")
	h.mail.SendPasswordResetEmailFn = func(ctx context.Context, email, username, token string) error {
		return errors.New("provider rejected")
	}

	report, err := h.svc.RequestPasswordReset(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.False(t, report.Delivered)

	require.NoError(t, h.svc.CompletePasswordReset(context.Background(), h.mail.Last().Token, "brand-new-pass"))
}

func TestChangePassword(t *testing.T) {
	h := newHarness(t)
	reg := h.register(t, "alice@example.com", "alice", "password1")
	session := h.login(t, "alice@example.com", "password1")

	err := h.svc.ChangePassword(context.Background(), reg.User.ID, "wrong-old", "brand-new-pass")
	require.ErrorIs(t, err, autherr.ErrInvalidCredential)

	err = h.svc.ChangePassword(context.Background(), reg.User.ID, "password1", "tiny")
	require.ErrorIs(t, err, autherr.ErrValidation)

	err = h.svc.ChangePassword(context.Background(), reg.User.ID, "", "brand-new-pass")
	require.ErrorIs(t, err, autherr.ErrValidation)

	require.NoError(t, h.svc.ChangePassword(context.Background(), reg.User.ID, "password1", "brand-new-pass"))

	_, err = h.svc.Refresh(context.Background(), session.Tokens.RefreshToken)
	require.ErrorIs(t, err, autherr.ErrUnauthorized)
	h.login(t, "alice@example.com", "brand-new-pass")

	err = h.svc.ChangePassword(context.Background(), uuid.New(), "password1", "brand-new-pass")
	require.ErrorIs(t, err, autherr.ErrNotFound)
}

func TestChangePassword_ChecksCommittedHashNotStaleRead(t *testing.T) {
	inner := repositories.NewMemoryUserRepository()
	var stale *user.User
	repo := &mocks.UserRepositoryMock{
		CreateFn:      inner.Create,
		FindByFieldFn: inner.FindByField,
		GetByIDFn: func(ctx context.Context, id uuid.UUID) (*user.User, error) {
			if stale != nil {
				return stale.Clone(), nil
			}
			return inner.GetByID(ctx, id)
		},
		CompareAndSwapFn: inner.CompareAndSwap,
		ClearFieldsFn:    inner.ClearFields,
	}
	h := newHarnessWithRepo(t, repo)
	reg := h.register(t, "alice@example.com", "alice", "password1")

	snapshot, err := inner.GetByID(context.Background(), reg.User.ID)
	require.NoError(t, err)
	require.NoError(t, h.svc.ChangePassword(context.Background(), reg.User.ID, "password1", "second-pass"))

	// Reads by id now serve the record as it was before the change.
	stale = snapshot
	require.NoError(t, h.svc.ChangePassword(context.Background(), reg.User.ID, "second-pass", "third-pass"))

	err = h.svc.ChangePassword(context.Background(), reg.User.ID, "password1", "fourth-pass")
	require.ErrorIs(t, err, autherr.ErrInvalidCredential)
	h.login(t, "alice@example.com", "third-pass")
}

func TestAuthenticateAccessToken_Expired(t *testing.T) {
	h := newHarness(t)
	h.register(t, "alice@example.com", "alice", "password1")
	session := h.login(t, "alice@example.com", "password1")

	h.clock.Advance(16 * time.Minute)
	_, err := h.svc.AuthenticateAccessToken(context.Background(), session.Tokens.AccessToken)
	require.ErrorIs(t, err, autherr.ErrUnauthorized)
	assert.ErrorIs(t, err, autherr.ErrExpired)
}

func TestStoreFailuresAreInfrastructure(t *testing.T) {
	repo := &mocks.UserRepositoryMock{
		GetByIDFn: func(ctx context.Context, id uuid.UUID) (*user.User, error) {
			return nil, errors.New("connection reset")
		},
		FindByFieldFn: func(ctx context.Context, field user.Field, value string) (*user.User, error) {
			return nil, errors.New("connection reset")
		},
		ClearFieldsFn: func(ctx context.Context, id uuid.UUID, fields ...user.Field) error {
			return errors.New("connection reset")
		},
	}
	h := newHarnessWithRepo(t, repo)

	_, err := h.svc.CurrentUser(context.Background(), uuid.New())
	require.ErrorIs(t, err, autherr.ErrInfrastructure)
	assert.True(t, autherr.IsRetryable(err))

	_, err = h.svc.Login(context.Background(), &auth.LoginRequest{Email: "a@example.com", Password: "password1"})
	require.ErrorIs(t, err, autherr.ErrInfrastructure)

	err = h.svc.Logout(context.Background(), uuid.New())
	require.ErrorIs(t, err, autherr.ErrInfrastructure)
}

func TestStoreTimeoutIsReported(t *testing.T) {
	repo := &mocks.UserRepositoryMock{
		GetByIDFn: func(ctx context.Context, id uuid.UUID) (*user.User, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}
	h := newHarnessWithRepo(t, repo)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := h.svc.CurrentUser(ctx, uuid.New())
	require.ErrorIs(t, err, autherr.ErrInfrastructure)
	assert.Equal(t, autherr.ReasonTimeout, autherr.ReasonOf(err))
}
