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

var errRefreshMismatch = errors.New("refresh token does not match the stored token")

// Login verifies email and password and starts the single session of the
// user, replacing any refresh token stored before.
func (s *AuthService) Login(ctx context.Context, req *auth.LoginRequest) (*auth.LoginResult, error) {
	const op = "auth.Login"
	if req == nil || req.Password == "" {
		return nil, autherr.Validation(op, "email and password are required")
	}
	email, err := requireEmail(op, req.Email)
	if err != nil {
		return nil, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	found, err := s.userRepo.FindByField(ctx, user.FieldEmail, email)
	if err != nil {
		if errors.Is(err, autherr.ErrNotFound) {
			s.passwords.VerifyDummy(req.Password)
			return nil, autherr.InvalidCredential(op)
		}
		return nil, s.storeError(op, uuid.Nil, err)
	}

	if !s.passwords.Verify(req.Password, found.PasswordHash) {
		return nil, autherr.InvalidCredential(op)
	}

	var rehashed string
	if s.passwords.NeedsRehash(found.PasswordHash) {
		if h, err := s.passwords.Hash(req.Password); err == nil {
			rehashed = h
		}
	}

	var pair *auth.TokenPair
	updated, err := s.userRepo.CompareAndSwap(ctx, found.ID, func(cur *user.User) error {
		// A password change between verification and commit voids this login.
		if cur.PasswordHash != found.PasswordHash {
			return autherr.InvalidCredential(op)
		}
		p, err := s.issuer.IssuePair(cur)
		if err != nil {
			return err
		}
		cur.RefreshTokenHash = credentials.Digest(p.RefreshToken)
		if rehashed != "" {
			cur.PasswordHash = rehashed
		}
		pair = p
		return nil
	})
	if err != nil {
		if errors.Is(err, autherr.ErrNotFound) {
			return nil, autherr.InvalidCredential(op)
		}
		return nil, s.storeError(op, found.ID, err)
	}

	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{"user_id": updated.ID, "rehashed": rehashed != ""}).Info("user logged in")
	}
	return &auth.LoginResult{User: updated.Public(), Tokens: pair}, nil
}

// Refresh rotates the session: the presented refresh token must equal the
// stored one, and it is replaced by a new one in the same atomic step. The
// precise rejection reason is logged, never returned.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*auth.TokenPair, error) {
	const op = "auth.Refresh"

	claims, err := s.issuer.VerifyRefreshToken(refreshToken)
	if err != nil {
		s.logRefreshRejected(uuid.Nil, string(autherr.ReasonOf(err)))
		return nil, autherr.Unauthorized(op, err)
	}
	userID, err := claims.UserID()
	if err != nil {
		return nil, autherr.Unauthorized(op, err)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var pair *auth.TokenPair
	_, err = s.userRepo.CompareAndSwap(ctx, userID, func(cur *user.User) error {
		if !credentials.MatchDigest(refreshToken, cur.RefreshTokenHash) {
			return errRefreshMismatch
		}
		p, err := s.issuer.IssuePair(cur)
		if err != nil {
			return err
		}
		cur.RefreshTokenHash = credentials.Digest(p.RefreshToken)
		pair = p
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, errRefreshMismatch):
			s.logRefreshRejected(userID, "mismatch")
			return nil, autherr.Unauthorized(op, err)
		case errors.Is(err, autherr.ErrNotFound):
			s.logRefreshRejected(userID, "unknown_subject")
			return nil, autherr.Unauthorized(op, err)
		default:
			return nil, s.storeError(op, userID, err)
		}
	}
	return pair, nil
}

func (s *AuthService) logRefreshRejected(userID uuid.UUID, reason string) {
	if s.logger == nil {
		return
	}
	fields := logrus.Fields{"reason": reason}
	if userID != uuid.Nil {
		fields["user_id"] = userID
	}
	s.logger.WithFields(fields).Warn("refresh token rejected")
}

// Logout clears the stored refresh token. Logging out twice, or for a user
// that no longer exists, succeeds.
func (s *AuthService) Logout(ctx context.Context, userID uuid.UUID) error {
	const op = "auth.Logout"
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.userRepo.ClearFields(ctx, userID, user.FieldRefreshToken); err != nil {
		if errors.Is(err, autherr.ErrNotFound) {
			return nil
		}
		return s.storeError(op, userID, err)
	}
	return nil
}

// AuthenticateAccessToken validates an access token. Access tokens are
// stateless, so no store lookup happens here.
func (s *AuthService) AuthenticateAccessToken(ctx context.Context, token string) (*auth.Claims, error) {
	const op = "auth.AuthenticateAccessToken"
	claims, err := s.issuer.VerifyAccessToken(token)
	if err != nil {
		if s.logger != nil {
			s.logger.WithFields(logrus.Fields{"reason": autherr.ReasonOf(err)}).Debug("access token rejected")
		}
		return nil, autherr.Unauthorized(op, err)
	}
	return claims, nil
}
