package credentials

import (
	"errors"
	"fmt"
	"time"

	"github.com/Himanshux99/BackendProjectProjectManagement/internal/core/autherr"
	"github.com/Himanshux99/BackendProjectProjectManagement/internal/core/domain/auth"
	"github.com/Himanshux99/BackendProjectProjectManagement/internal/core/domain/user"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenIssuerConfig holds the two independent signing secrets and lifetimes.
type TokenIssuerConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// TokenIssuer mints and verifies HS256 access and refresh tokens.
type TokenIssuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	opts          options
}

func NewTokenIssuer(cfg TokenIssuerConfig, opts ...Option) (*TokenIssuer, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, fmt.Errorf("token issuer: access and refresh secrets are required")
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		return nil, fmt.Errorf("token issuer: access and refresh secrets must differ")
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, fmt.Errorf("token issuer: token lifetimes must be positive")
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &TokenIssuer{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
		opts:          o,
	}, nil
}

// IssueAccessToken returns a signed access token and its expiry.
func (i *TokenIssuer) IssueAccessToken(userID uuid.UUID, role user.UserRole) (string, time.Time, error) {
	now := i.opts.now()
	exp := now.Add(i.accessTTL)
	claims := &auth.Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.accessSecret)
	if err != nil {
		return "", time.Time{}, autherr.Infrastructure("issuer.IssueAccessToken", fmt.Errorf("failed to sign access token: %w", err))
	}
	return signed, exp, nil
}

// IssueRefreshToken returns a signed refresh token and its expiry. Each token
// carries a random jti so two tokens minted in the same second still differ.
func (i *TokenIssuer) IssueRefreshToken(userID uuid.UUID) (string, time.Time, error) {
	now := i.opts.now()
	exp := now.Add(i.refreshTTL)
	claims := &auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.refreshSecret)
	if err != nil {
		return "", time.Time{}, autherr.Infrastructure("issuer.IssueRefreshToken", fmt.Errorf("failed to sign refresh token: %w", err))
	}
	return signed, exp, nil
}

// IssuePair mints an access token and a refresh token for u.
func (i *TokenIssuer) IssuePair(u *user.User) (*auth.TokenPair, error) {
	access, accessExp, err := i.IssueAccessToken(u.ID, u.Role)
	if err != nil {
		return nil, err
	}
	refresh, refreshExp, err := i.IssueRefreshToken(u.ID)
	if err != nil {
		return nil, err
	}
	return &auth.TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

func (i *TokenIssuer) VerifyAccessToken(token string) (*auth.Claims, error) {
	return i.verify("issuer.VerifyAccessToken", token, i.accessSecret)
}

func (i *TokenIssuer) VerifyRefreshToken(token string) (*auth.Claims, error) {
	return i.verify("issuer.VerifyRefreshToken", token, i.refreshSecret)
}

// verify checks signature and expiry and classifies every failure as
// Expired, Malformed or InvalidSignature.
func (i *TokenIssuer) verify(op, token string, secret []byte) (*auth.Claims, error) {
	if token == "" {
		return nil, autherr.Token(op, autherr.ReasonMalformed, errors.New("empty token"))
	}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.opts.now),
	)
	claims := &auth.Claims{}
	parsed, err := parser.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		// Ensure the token's signing method is HMAC (prevent alg confusion)
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, autherr.Token(op, autherr.ReasonExpired, err)
		case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
			return nil, autherr.Token(op, autherr.ReasonInvalidSignature, err)
		default:
			return nil, autherr.Token(op, autherr.ReasonMalformed, err)
		}
	}
	if !parsed.Valid {
		return nil, autherr.Token(op, autherr.ReasonMalformed, errors.New("invalid token"))
	}
	if _, err := claims.UserID(); err != nil {
		return nil, autherr.Token(op, autherr.ReasonMalformed, fmt.Errorf("invalid subject: %w", err))
	}
	return claims, nil
}
