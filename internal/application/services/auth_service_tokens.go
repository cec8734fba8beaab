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

// RequestEmailVerification issues a fresh verification token for an
// unverified user, replacing any outstanding one, and mails it.
func (s *AuthService) RequestEmailVerification(ctx context.Context, userID uuid.UUID) (*auth.DeliveryReport, error) {
	const op = "auth.RequestEmailVerification"

	tok, err := s.ephemeral.Issue(s.authConfig.EmailVerificationTTL)
	if err != nil {
		return nil, err
	}

	sctx, cancel := s.withTimeout(ctx)
	defer cancel()

	updated, err := s.userRepo.CompareAndSwap(sctx, userID, func(cur *user.User) error {
		if cur.EmailVerified {
			return autherr.Conflict(op, autherr.ReasonAlreadyVerified, "email is already verified")
		}
		cur.VerificationTokenHash = &tok.Hash
		cur.VerificationExpiry = &tok.ExpiresAt
		return nil
	})
	if err != nil {
		return nil, s.storeError(op, userID, err)
	}

	return s.deliver(ctx, updated, "verification", func(ctx context.Context) error {
		return s.emailService.SendVerificationEmail(ctx, updated.Email, updated.Username, tok.Plaintext)
	}), nil
}

// CompleteEmailVerification marks the owner of token as verified and
// consumes the token. Unknown, mismatched and expired tokens are
// indistinguishable to the caller.
func (s *AuthService) CompleteEmailVerification(ctx context.Context, token string) (*user.PublicUser, error) {
	const op = "auth.CompleteEmailVerification"
	if token == "" {
		return nil, autherr.InvalidOrExpiredToken(op)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	found, err := s.userRepo.FindByField(ctx, user.FieldVerificationTokenHash, credentials.Digest(token))
	if err != nil {
		if errors.Is(err, autherr.ErrNotFound) {
			return nil, autherr.InvalidOrExpiredToken(op)
		}
		return nil, s.storeError(op, uuid.Nil, err)
	}

	updated, err := s.userRepo.CompareAndSwap(ctx, found.ID, func(cur *user.User) error {
		if !s.ephemeral.Verify(token, cur.VerificationTokenHash, cur.VerificationExpiry) {
			return autherr.InvalidOrExpiredToken(op)
		}
		cur.EmailVerified = true
		cur.Clear(user.FieldVerification)
		return nil
	})
	if err != nil {
		if errors.Is(err, autherr.ErrNotFound) {
			return nil, autherr.InvalidOrExpiredToken(op)
		}
		return nil, s.storeError(op, found.ID, err)
	}

	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{"user_id": updated.ID}).Info("email verified")
	}
	return updated.Public(), nil
}
