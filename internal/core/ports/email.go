package ports

import (
	"context"
)

// EmailService delivers out-of-band tokens. The plaintext token is only ever
// handed to this port.
type EmailService interface {
	SendVerificationEmail(ctx context.Context, email, username, token string) error
	SendPasswordResetEmail(ctx context.Context, email, username, token string) error
}
