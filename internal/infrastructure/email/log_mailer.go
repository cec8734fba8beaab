package email

import (
	"context"

	"github.com/Himanshux99/BackendProjectProjectManagement/internal/core/ports"
	"github.com/sirupsen/logrus"
)

// LogMailer stands in for SendGrid when no API key is configured. It records
// that a mail would have gone out; the token itself is never logged.
type LogMailer struct {
	logger *logrus.Logger
}

func NewLogMailer(logger *logrus.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

var _ ports.EmailService = (*LogMailer)(nil)

func (m *LogMailer) SendVerificationEmail(ctx context.Context, email, username, token string) error {
	m.record("verification", email, username)
	return ctx.Err()
}

func (m *LogMailer) SendPasswordResetEmail(ctx context.Context, email, username, token string) error {
	m.record("password_reset", email, username)
	return ctx.Err()
}

func (m *LogMailer) record(kind, email, username string) {
	if m.logger == nil {
		return
	}
	m.logger.WithFields(logrus.Fields{"kind": kind, "to": email, "username": username}).Info("email delivery disabled; message not sent")
}
