package services

import (
	"context"
	"unicode/utf8"

	"github.com/Himanshux99/BackendProjectProjectManagement/internal/core/autherr"
	"github.com/Himanshux99/BackendProjectProjectManagement/internal/core/domain/auth"
	"github.com/Himanshux99/BackendProjectProjectManagement/internal/core/domain/user"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	minUsernameLength = 3
	maxUsernameLength = 64
)

// Register creates an unverified member account and mails a verification
// token. A mail failure still returns the created account, with the
// delivery report saying so.
func (s *AuthService) Register(ctx context.Context, req *user.RegisterRequest) (*auth.RegisterResult, error) {
	const op = "auth.Register"
	if req == nil {
		return nil, autherr.Validation(op, "request body is required")
	}
	email, err := requireEmail(op, req.Email)
	if err != nil {
		return nil, err
	}
	username := user.NormalizeUsername(req.Username)
	if n := utf8.RuneCountInString(username); n < minUsernameLength || n > maxUsernameLength {
		return nil, autherr.Validation(op, "username must be between %d and %d characters", minUsernameLength, maxUsernameLength)
	}
	if err := validateNewPassword(op, req.Password); err != nil {
		return nil, err
	}

	hash, err := s.passwords.Hash(req.Password)
	if err != nil {
		return nil, err
	}
	tok, err := s.ephemeral.Issue(s.authConfig.EmailVerificationTTL)
	if err != nil {
		return nil, err
	}

	ts := now()
	u := &user.User{
		ID:                    uuid.New(),
		Email:                 email,
		Username:              username,
		PasswordHash:          hash,
		Role:                  user.RoleMember,
		EmailVerified:         false,
		VerificationTokenHash: &tok.Hash,
		VerificationExpiry:    &tok.ExpiresAt,
		CreatedAt:             ts,
		UpdatedAt:             ts,
	}

	sctx, cancel := s.withTimeout(ctx)
	defer cancel()
	if err := s.userRepo.Create(sctx, u); err != nil {
		return nil, s.storeError(op, u.ID, err)
	}

	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{"user_id": u.ID, "username": u.Username}).Info("user registered")
	}

	report := s.deliver(ctx, u, "verification", func(ctx context.Context) error {
		return s.emailService.SendVerificationEmail(ctx, u.Email, u.Username, tok.Plaintext)
	})
	return &auth.RegisterResult{User: u.Public(), Delivery: *report}, nil
}
