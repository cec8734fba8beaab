package ports

import (
	"context"

	"github.com/Himanshux99/BackendProjectProjectManagement/internal/core/domain/auth"
	"github.com/Himanshux99/BackendProjectProjectManagement/internal/core/domain/user"
	"github.com/google/uuid"
)

// AuthService is the session controller: every credential lifecycle operation
// a client can trigger. All errors belong to the autherr taxonomy.
type AuthService interface {
	Register(ctx context.Context, req *user.RegisterRequest) (*auth.RegisterResult, error)
	Login(ctx context.Context, req *auth.LoginRequest) (*auth.LoginResult, error)
	Refresh(ctx context.Context, refreshToken string) (*auth.TokenPair, error)
	Logout(ctx context.Context, userID uuid.UUID) error
	CurrentUser(ctx context.Context, userID uuid.UUID) (*user.PublicUser, error)

	// Email verification
	RequestEmailVerification(ctx context.Context, userID uuid.UUID) (*auth.DeliveryReport, error)
	CompleteEmailVerification(ctx context.Context, token string) (*user.PublicUser, error)

	// Passwords
	RequestPasswordReset(ctx context.Context, email string) (*auth.DeliveryReport, error)
	CompletePasswordReset(ctx context.Context, token, newPassword string) error
	ChangePassword(ctx context.Context, userID uuid.UUID, oldPassword, newPassword string) error

	// AuthenticateAccessToken validates a bearer/cookie access token for middleware.
	AuthenticateAccessToken(ctx context.Context, token string) (*auth.Claims, error)
}
