package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/Himanshux99/BackendProjectProjectManagement/internal/core/autherr"
	"github.com/Himanshux99/BackendProjectProjectManagement/internal/core/domain/auth"
	"github.com/Himanshux99/BackendProjectProjectManagement/internal/core/domain/user"
	"github.com/Himanshux99/BackendProjectProjectManagement/internal/core/ports"
	"github.com/google/uuid"
)

// UserRepositoryMock is a lightweight mock for UserRepository
type UserRepositoryMock struct {
	CreateFn         func(ctx context.Context, u *user.User) error
	GetByIDFn        func(ctx context.Context, id uuid.UUID) (*user.User, error)
	FindByFieldFn    func(ctx context.Context, field user.Field, value string) (*user.User, error)
	CompareAndSwapFn func(ctx context.Context, id uuid.UUID, mutate func(u *user.User) error) (*user.User, error)
	ClearFieldsFn    func(ctx context.Context, id uuid.UUID, fields ...user.Field) error
}

var _ ports.UserRepository = (*UserRepositoryMock)(nil)

func (m *UserRepositoryMock) Create(ctx context.Context, u *user.User) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, u)
	}
	return nil
}
func (m *UserRepositoryMock) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	return nil, autherr.NotFound("mock.GetByID", "user not found")
}
func (m *UserRepositoryMock) FindByField(ctx context.Context, field user.Field, value string) (*user.User, error) {
	if m.FindByFieldFn != nil {
		return m.FindByFieldFn(ctx, field, value)
	}
	return nil, autherr.NotFound("mock.FindByField", "user not found")
}
func (m *UserRepositoryMock) CompareAndSwap(ctx context.Context, id uuid.UUID, mutate func(u *user.User) error) (*user.User, error) {
	if m.CompareAndSwapFn != nil {
		return m.CompareAndSwapFn(ctx, id, mutate)
	}
	return nil, autherr.NotFound("mock.CompareAndSwap", "user not found")
}
func (m *UserRepositoryMock) ClearFields(ctx context.Context, id uuid.UUID, fields ...user.Field) error {
	if m.ClearFieldsFn != nil {
		return m.ClearFieldsFn(ctx, id, fields...)
	}
	return nil
}

// SentEmail records one call to EmailServiceMock.
type SentEmail struct {
	Kind     string
	To       string
	Username string
	Token    string
}

// EmailServiceMock records every mail and optionally fails.
type EmailServiceMock struct {
	SendVerificationEmailFn  func(ctx context.Context, email, username, token string) error
	SendPasswordResetEmailFn func(ctx context.Context, email, username, token string) error

	mu   sync.Mutex
	Sent []SentEmail
}

var _ ports.EmailService = (*EmailServiceMock)(nil)

func (m *EmailServiceMock) record(kind, email, username, token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, SentEmail{Kind: kind, To: email, Username: username, Token: token})
}

// Last returns the most recent mail, or nil.
func (m *EmailServiceMock) Last() *SentEmail {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Sent) == 0 {
		return nil
	}
	s := m.Sent[len(m.Sent)-1]
	return &s
}

func (m *EmailServiceMock) SendVerificationEmail(ctx context.Context, email, username, token string) error {
	m.record("verification", email, username, token)
	if m.SendVerificationEmailFn != nil {
		return m.SendVerificationEmailFn(ctx, email, username, token)
	}
	return nil
}
func (m *EmailServiceMock) SendPasswordResetEmail(ctx context.Context, email, username, token string) error {
	m.record("password_reset", email, username, token)
	if m.SendPasswordResetEmailFn != nil {
		return m.SendPasswordResetEmailFn(ctx, email, username, token)
	}
	return nil
}

// AuthServiceMock is a lightweight mock for AuthService
type AuthServiceMock struct {
	RegisterFn                  func(ctx context.Context, req *user.RegisterRequest) (*auth.RegisterResult, error)
	LoginFn                     func(ctx context.Context, req *auth.LoginRequest) (*auth.LoginResult, error)
	RefreshFn                   func(ctx context.Context, refreshToken string) (*auth.TokenPair, error)
	LogoutFn                    func(ctx context.Context, userID uuid.UUID) error
	CurrentUserFn               func(ctx context.Context, userID uuid.UUID) (*user.PublicUser, error)
	RequestEmailVerificationFn  func(ctx context.Context, userID uuid.UUID) (*auth.DeliveryReport, error)
	CompleteEmailVerificationFn func(ctx context.Context, token string) (*user.PublicUser, error)
	RequestPasswordResetFn      func(ctx context.Context, email string) (*auth.DeliveryReport, error)
	CompletePasswordResetFn     func(ctx context.Context, token, newPassword string) error
	ChangePasswordFn            func(ctx context.Context, userID uuid.UUID, oldPassword, newPassword string) error
	AuthenticateAccessTokenFn   func(ctx context.Context, token string) (*auth.Claims, error)
}

var _ ports.AuthService = (*AuthServiceMock)(nil)

func (m *AuthServiceMock) Register(ctx context.Context, req *user.RegisterRequest) (*auth.RegisterResult, error) {
	if m.RegisterFn != nil {
		return m.RegisterFn(ctx, req)
	}
	return nil, autherr.Infrastructure("mock.Register", context.Canceled)
}
func (m *AuthServiceMock) Login(ctx context.Context, req *auth.LoginRequest) (*auth.LoginResult, error) {
	if m.LoginFn != nil {
		return m.LoginFn(ctx, req)
	}
	return nil, autherr.InvalidCredential("mock.Login")
}
func (m *AuthServiceMock) Refresh(ctx context.Context, refreshToken string) (*auth.TokenPair, error) {
	if m.RefreshFn != nil {
		return m.RefreshFn(ctx, refreshToken)
	}
	return nil, autherr.Unauthorized("mock.Refresh", nil)
}
func (m *AuthServiceMock) Logout(ctx context.Context, userID uuid.UUID) error {
	if m.LogoutFn != nil {
		return m.LogoutFn(ctx, userID)
	}
	return nil
}
func (m *AuthServiceMock) CurrentUser(ctx context.Context, userID uuid.UUID) (*user.PublicUser, error) {
	if m.CurrentUserFn != nil {
		return m.CurrentUserFn(ctx, userID)
	}
	return nil, autherr.NotFound("mock.CurrentUser", "user not found")
}
func (m *AuthServiceMock) RequestEmailVerification(ctx context.Context, userID uuid.UUID) (*auth.DeliveryReport, error) {
	if m.RequestEmailVerificationFn != nil {
		return m.RequestEmailVerificationFn(ctx, userID)
	}
	return &auth.DeliveryReport{Delivered: true}, nil
}
func (m *AuthServiceMock) CompleteEmailVerification(ctx context.Context, token string) (*user.PublicUser, error) {
	if m.CompleteEmailVerificationFn != nil {
		return m.CompleteEmailVerificationFn(ctx, token)
	}
	return nil, autherr.InvalidOrExpiredToken("mock.CompleteEmailVerification")
}
func (m *AuthServiceMock) RequestPasswordReset(ctx context.Context, email string) (*auth.DeliveryReport, error) {
	if m.RequestPasswordResetFn != nil {
		return m.RequestPasswordResetFn(ctx, email)
	}
	return &auth.DeliveryReport{Delivered: true}, nil
}
func (m *AuthServiceMock) CompletePasswordReset(ctx context.Context, token, newPassword string) error {
	if m.CompletePasswordResetFn != nil {
		return m.CompletePasswordResetFn(ctx, token, newPassword)
	}
	return nil
}
func (m *AuthServiceMock) ChangePassword(ctx context.Context, userID uuid.UUID, oldPassword, newPassword string) error {
	if m.ChangePasswordFn != nil {
		return m.ChangePasswordFn(ctx, userID, oldPassword, newPassword)
	}
	return nil
}
func (m *AuthServiceMock) AuthenticateAccessToken(ctx context.Context, token string) (*auth.Claims, error) {
	if m.AuthenticateAccessTokenFn != nil {
		return m.AuthenticateAccessTokenFn(ctx, token)
	}
	return nil, autherr.Unauthorized("mock.AuthenticateAccessToken", nil)
}

// CacheMock is an in-memory ports.Cache that ignores TTLs and counts calls.
type CacheMock struct {
	mu      sync.Mutex
	data    map[string][]byte
	GetErr    error
	DeleteErr error
	Gets      int
	Sets    int
	Deletes int
}

var _ ports.Cache = (*CacheMock)(nil)

func NewCacheMock() *CacheMock { return &CacheMock{data: make(map[string][]byte)} }

func (c *CacheMock) Get(ctx context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Gets++
	if c.GetErr != nil {
		return nil, false, c.GetErr
	}
	v, ok := c.data[key]
	return v, ok, nil
}
func (c *CacheMock) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Sets++
	c.data[key] = append([]byte(nil), value...)
	return nil
}
func (c *CacheMock) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Deletes++
	if c.DeleteErr != nil {
		return c.DeleteErr
	}
	delete(c.data, key)
	return nil
}

// Has reports whether key is cached.
func (c *CacheMock) Has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	return ok
}

// RateLimiterServiceMock is a lightweight mock for RateLimiterService
type RateLimiterServiceMock struct {
	AllowFn func(ctx context.Context, key string) (bool, int, int, time.Time, error)
}

var _ ports.RateLimiterService = (*RateLimiterServiceMock)(nil)

func (m *RateLimiterServiceMock) Allow(ctx context.Context, key string) (bool, int, int, time.Time, error) {
	if m.AllowFn != nil {
		return m.AllowFn(ctx, key)
	}
	return true, 100, 100, time.Now().Add(time.Minute), nil
}

// RateLimitRepositoryMock is a lightweight mock for RateLimitRepository
type RateLimitRepositoryMock struct {
	IncrementWindowFn func(ctx context.Context, key string, window time.Duration, keyPrefix string, ttl time.Duration) (int, time.Time, error)
}

var _ ports.RateLimitRepository = (*RateLimitRepositoryMock)(nil)

func (m *RateLimitRepositoryMock) IncrementWindow(ctx context.Context, key string, window time.Duration, keyPrefix string, ttl time.Duration) (int, time.Time, error) {
	if m.IncrementWindowFn != nil {
		return m.IncrementWindowFn(ctx, key, window, keyPrefix, ttl)
	}
	return 1, time.Now().Truncate(window), nil
}

// HealthCheckerMock is a named checker returning Err.
type HealthCheckerMock struct {
	NameValue string
	Err       error
}

var _ ports.HealthChecker = (*HealthCheckerMock)(nil)

func (h *HealthCheckerMock) Name() string                    { return h.NameValue }
func (h *HealthCheckerMock) Check(ctx context.Context) error { return h.Err }
