package services

import (
	"context"
	"strings"
	"time"

	config "github.com/Himanshux99/BackendProjectProjectManagement/configs"
	"github.com/Himanshux99/BackendProjectProjectManagement/internal/application/credentials"
	"github.com/Himanshux99/BackendProjectProjectManagement/internal/core/autherr"
	"github.com/Himanshux99/BackendProjectProjectManagement/internal/core/domain/auth"
	"github.com/Himanshux99/BackendProjectProjectManagement/internal/core/domain/user"
	"github.com/Himanshux99/BackendProjectProjectManagement/internal/core/ports"
	"github.com/Himanshux99/BackendProjectProjectManagement/internal/utils"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// AuthService implements ports.AuthService on top of the user store, the
// mailer and the credential primitives. It keeps no session state of its own.
type AuthService struct {
	userRepo     ports.UserRepository
	emailService ports.EmailService
	passwords    *credentials.PasswordManager
	ephemeral    *credentials.EphemeralTokenManager
	issuer       *credentials.TokenIssuer
	authConfig   *config.AuthConfig
	logger       *logrus.Logger
}

func NewAuthService(userRepo ports.UserRepository, emailService ports.EmailService, creds *credentials.Components, authConfig *config.AuthConfig, logger *logrus.Logger) *AuthService {
	return &AuthService{
		userRepo:     userRepo,
		emailService: emailService,
		passwords:    creds.Passwords,
		ephemeral:    creds.Ephemeral,
		issuer:       creds.Issuer,
		authConfig:   authConfig,
		logger:       logger,
	}
}

var _ ports.AuthService = (*AuthService)(nil)

// withTimeout bounds a single store or mail call. An earlier deadline on the
// caller's context still wins.
func (s *AuthService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.authConfig == nil || s.authConfig.OperationTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.authConfig.OperationTimeout)
}

// storeError keeps taxonomy errors from the store and wraps anything else as
// a retryable infrastructure failure.
func (s *AuthService) storeError(op string, userID uuid.UUID, err error) error {
	classified := autherr.Classify(op, err)
	if autherr.KindOf(classified) == autherr.KindInfrastructure && s.logger != nil {
		fields := logrus.Fields{"op": op}
		if userID != uuid.Nil {
			fields["user_id"] = userID
		}
		s.logger.WithFields(fields).WithError(err).Error("user store call failed")
	}
	return classified
}

// deliver sends one mail and turns a failure into a degraded-success report.
func (s *AuthService) deliver(ctx context.Context, u *user.User, kind string, send func(ctx context.Context) error) *auth.DeliveryReport {
	if s.emailService == nil {
		return &auth.DeliveryReport{Delivered: false, Message: kind + " email is not configured"}
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	if err := send(ctx); err != nil {
		if s.logger != nil {
			s.logger.WithFields(logrus.Fields{"user_id": u.ID, "email": u.Email, "kind": kind}).WithError(err).Warn("failed to send email; token remains valid")
		}
		return &auth.DeliveryReport{Delivered: false, Message: kind + " email could not be delivered", Err: err}
	}
	return &auth.DeliveryReport{Delivered: true}
}

func validateNewPassword(op, password string) error {
	if err := utils.ValidatePasswordStrength(password); err != nil {
		return autherr.Validation(op, "%s", err.Error())
	}
	return nil
}

func now() time.Time { return time.Now().UTC() }

// CurrentUser returns the sanitized profile of the authenticated user.
func (s *AuthService) CurrentUser(ctx context.Context, userID uuid.UUID) (*user.PublicUser, error) {
	const op = "auth.CurrentUser"
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	u, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, s.storeError(op, userID, err)
	}
	return u.Public(), nil
}

func requireEmail(op, email string) (string, error) {
	normalized := user.NormalizeEmail(email)
	if normalized == "" || !strings.Contains(normalized, "@") {
		return "", autherr.Validation(op, "a valid email is required")
	}
	return normalized, nil
}
