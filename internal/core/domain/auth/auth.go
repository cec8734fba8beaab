package auth

import (
	"fmt"
	"time"

	"github.com/Himanshux99/BackendProjectProjectManagement/internal/core/domain/user"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// LoginRequest represents the login request
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest carries a refresh token in the body when no cookie is sent.
// Older clients send it as refreshToken.
type RefreshRequest struct {
	RefreshToken       string `json:"refresh_token"`
	LegacyRefreshToken string `json:"refreshToken"`
}

// Token returns whichever body key was set, preferring refresh_token.
func (r *RefreshRequest) Token() string {
	if r.RefreshToken != "" {
		return r.RefreshToken
	}
	return r.LegacyRefreshToken
}

// TokenPair is one access token together with the refresh token minted alongside it
type TokenPair struct {
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

// Claims is the JWT payload for both token types. Role is only set on access tokens;
// refresh tokens carry a unique ID (jti) instead.
type Claims struct {
	Role user.UserRole `json:"role,omitempty"`

	jwt.RegisteredClaims
}

// UserID parses the subject claim.
func (c *Claims) UserID() (uuid.UUID, error) {
	if c == nil || c.Subject == "" {
		return uuid.Nil, fmt.Errorf("missing subject")
	}
	return uuid.Parse(c.Subject)
}

// DeliveryReport tells the caller whether an out-of-band mail went out. A failed
// delivery does not undo the token that was committed before sending.
type DeliveryReport struct {
	Delivered bool   `json:"delivered"`
	Message   string `json:"message,omitempty"`
	Err       error  `json:"-"`
}

// LoginResult is returned by a successful login
type LoginResult struct {
	User   *user.PublicUser `json:"user"`
	Tokens *TokenPair       `json:"tokens"`
}

// RegisterResult is returned by a successful registration
type RegisterResult struct {
	User     *user.PublicUser `json:"user"`
	Delivery DeliveryReport   `json:"delivery"`
}
