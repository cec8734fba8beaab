package services

import (
	"context"
	"errors"

	"github.com/Himanshux99/BackendProjectProjectManagement/internal/application/credentials"
	"github.com/Himanshux99/BackendProjectProjectManagement/internal/core/autherr"
	"github.com/Himanshux99/BackendProjectProjectManagement/internal/core/domain/auth"
	"github.com/Himanshux99/BackendProjectProjectManagement/internal/core/domain/user"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// RequestPasswordReset stores a reset token for the account registered under
// email and mails it. An unknown email is reported as NotFound.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) (*auth.DeliveryReport, error) {
	const op = "auth.RequestPasswordReset"
	normalized, err := requireEmail(op, email)
	if err != nil {
		return nil, err
	}

	tok, err := s.ephemeral.Issue(s.authConfig.PasswordResetTTL)
	if err != nil {
		return nil, err
	}

	sctx, cancel := s.withTimeout(ctx)
	defer cancel()

	found, err := s.userRepo.FindByField(sctx, user.FieldEmail, normalized)
	if err != nil {
		if errors.Is(err, autherr.ErrNotFound) {
			return nil, autherr.NotFound(op, "no account is registered with this email")
		}
		return nil, s.storeError(op, uuid.Nil, err)
	}

	updated, err := s.userRepo.CompareAndSwap(sctx, found.ID, func(cur *user.User) error {
		cur.ResetTokenHash = &tok.Hash
		cur.ResetExpiry = &tok.ExpiresAt
		return nil
	})
	if err != nil {
		return nil, s.storeError(op, found.ID, err)
	}

	return s.deliver(ctx, updated, "password reset", func(ctx context.Context) error {
		return s.emailService.SendPasswordResetEmail(ctx, updated.Email, updated.Username, tok.Plaintext)
	}), nil
}

// CompletePasswordReset sets a new password for the owner of token. The
// token is consumed and the current session ends.
func (s *AuthService) CompletePasswordReset(ctx context.Context, token, newPassword string) error {
	const op = "auth.CompletePasswordReset"
	if err := validateNewPassword(op, newPassword); err != nil {
		return err
	}
	if token == "" {
		return autherr.InvalidOrExpiredToken(op)
	}

	hash, err := s.passwords.Hash(newPassword)
	if err != nil {
		return err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	found, err := s.userRepo.FindByField(ctx, user.FieldResetTokenHash, credentials.Digest(token))
	if err != nil {
		if errors.Is(err, autherr.ErrNotFound) {
			return autherr.InvalidOrExpiredToken(op)
		}
		return s.storeError(op, uuid.Nil, err)
	}

	_, err = s.userRepo.CompareAndSwap(ctx, found.ID, func(cur *user.User) error {
		if !s.ephemeral.Verify(token, cur.ResetTokenHash, cur.ResetExpiry) {
			return autherr.InvalidOrExpiredToken(op)
		}
		cur.PasswordHash = hash
		cur.Clear(user.FieldReset)
		cur.Clear(user.FieldRefreshToken)
		return nil
	})
	if err != nil {
		if errors.Is(err, autherr.ErrNotFound) {
			return autherr.InvalidOrExpiredToken(op)
		}
		return s.storeError(op, found.ID, err)
	}

	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{"user_id": found.ID}).Info("password reset completed")
	}
	return nil
}

// ChangePassword replaces the password of an authenticated user after
// checking the old one, and ends the current session.
func (s *AuthService) ChangePassword(ctx context.Context, userID uuid.UUID, oldPassword, newPassword string) error {
	const op = "auth.ChangePassword"
	if oldPassword == "" {
		return autherr.Validation(op, "old password is required")
	}
	if err := validateNewPassword(op, newPassword); err != nil {
		return err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	// The old password is checked against the committed hash, never a
	// cached copy of the record.
	_, err := s.userRepo.CompareAndSwap(ctx, userID, func(cur *user.User) error {
		hash, err := s.passwords.ChangePassword(cur.PasswordHash, oldPassword, newPassword)
		if err != nil {
			return err
		}
		cur.PasswordHash = hash
		cur.Clear(user.FieldRefreshToken)
		return nil
	})
	if err != nil {
		if errors.Is(err, autherr.ErrInvalidCredential) {
			return autherr.InvalidCredential(op)
		}
		return s.storeError(op, userID, err)
	}

	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{"user_id": userID}).Info("password changed")
	}
	return nil
}
