package email

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"io"
	"net/url"
	"strings"
	texttemplate "text/template"
	"time"

	config "github.com/Himanshux99/BackendProjectProjectManagement/configs"
	"github.com/Himanshux99/BackendProjectProjectManagement/internal/core/ports"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/sirupsen/logrus"
)

//go:embed templates/*.html templates/*.txt
var templatesFS embed.FS

const (
	templateVerification  = "verification"
	templatePasswordReset = "password_reset"
)

// Sender is the part of the SendGrid client the service uses.
type Sender interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// Lifetimes are quoted in the mails so users know how long a link works.
type Lifetimes struct {
	Verification  time.Duration
	PasswordReset time.Duration
}

type emailTemplate struct {
	html *htmltemplate.Template
	text *texttemplate.Template
}

// EmailService implements the EmailService interface
type EmailService struct {
	config    *config.EmailConfig
	lifetimes Lifetimes
	logger    *logrus.Logger
	client    Sender
	templates map[string]emailTemplate
}

// NewEmailService creates a SendGrid-backed email service.
func NewEmailService(cfg *config.EmailConfig, lifetimes Lifetimes, logger *logrus.Logger) (*EmailService, error) {
	return NewEmailServiceWithSender(cfg, lifetimes, sendgrid.NewSendClient(cfg.SendGridAPIKey), logger)
}

// NewEmailServiceWithSender creates an email service that delivers through client.
func NewEmailServiceWithSender(cfg *config.EmailConfig, lifetimes Lifetimes, client Sender, logger *logrus.Logger) (*EmailService, error) {
	templates, err := loadTemplates()
	if err != nil {
		return nil, fmt.Errorf("failed to load email templates: %w", err)
	}
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	return &EmailService{
		config:    cfg,
		lifetimes: lifetimes,
		logger:    logger,
		client:    client,
		templates: templates,
	}, nil
}

var _ ports.EmailService = (*EmailService)(nil)

// loadTemplates parses the HTML and plain text variant of every template
// from the embedded filesystem.
func loadTemplates() (map[string]emailTemplate, error) {
	templates := make(map[string]emailTemplate)
	for _, name := range []string{templateVerification, templatePasswordReset} {
		html, err := htmltemplate.ParseFS(templatesFS, "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s.html: %w", name, err)
		}
		text, err := texttemplate.ParseFS(templatesFS, "templates/"+name+".txt")
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s.txt: %w", name, err)
		}
		templates[name] = emailTemplate{html: html, text: text}
	}
	return templates, nil
}

// ActionEmailData holds the data every action mail template renders.
type ActionEmailData struct {
	CompanyName string
	UserName    string
	ActionURL   string
	ExpiresIn   string
}

// renderTemplate renders both variants of an email template.
func (e *EmailService) renderTemplate(templateName string, data ActionEmailData) (html, text string, err error) {
	tmpl, exists := e.templates[templateName]
	if !exists {
		return "", "", fmt.Errorf("template %s not found", templateName)
	}

	var hb, tb bytes.Buffer
	if err := tmpl.html.Execute(&hb, data); err != nil {
		return "", "", fmt.Errorf("failed to execute template %s: %w", templateName, err)
	}
	if err := tmpl.text.Execute(&tb, data); err != nil {
		return "", "", fmt.Errorf("failed to execute template %s: %w", templateName, err)
	}
	return hb.String(), tb.String(), nil
}

// sendEmail sends an email using SendGrid. Any non-2xx answer is an error.
func (e *EmailService) sendEmail(ctx context.Context, to, subject, html, text string) error {
	from := mail.NewEmail(e.config.FromName, e.config.FromEmail)
	recipient := mail.NewEmail("", to)
	message := mail.NewSingleEmail(from, subject, recipient, text, html)

	response, err := e.client.SendWithContext(ctx, message)
	if err != nil {
		e.logger.WithFields(logrus.Fields{"to": to, "subject": subject}).WithError(err).Error("Failed to send email")
		return fmt.Errorf("failed to send email: %w", err)
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		e.logger.WithFields(logrus.Fields{"to": to, "subject": subject, "status_code": response.StatusCode}).Error("Email provider rejected message")
		return fmt.Errorf("email provider returned status %d", response.StatusCode)
	}

	e.logger.WithFields(logrus.Fields{"to": to, "subject": subject, "status_code": response.StatusCode}).Info("Email sent successfully")
	return nil
}

// VerificationURL is the link a user follows to verify their email.
func (e *EmailService) VerificationURL(token string) string {
	return fmt.Sprintf("%s/api/v1/auth/verify-email/%s", e.config.BaseURL, url.PathEscape(token))
}

// PasswordResetURL is the link a user follows to choose a new password.
func (e *EmailService) PasswordResetURL(token string) string {
	base := e.config.ResetURL
	if base == "" {
		base = e.config.BaseURL + "/reset-password"
	}
	return fmt.Sprintf("%s/%s", strings.TrimRight(base, "/"), url.PathEscape(token))
}

// SendVerificationEmail sends an email verification email
func (e *EmailService) SendVerificationEmail(ctx context.Context, email, username, token string) error {
	data := ActionEmailData{
		CompanyName: e.config.CompanyName,
		UserName:    username,
		ActionURL:   e.VerificationURL(token),
		ExpiresIn:   humanizeDuration(e.lifetimes.Verification),
	}
	html, text, err := e.renderTemplate(templateVerification, data)
	if err != nil {
		return fmt.Errorf("failed to render verification email template: %w", err)
	}
	subject := fmt.Sprintf("Verify Your Email Address - %s", e.config.CompanyName)
	return e.sendEmail(ctx, email, subject, html, text)
}

// SendPasswordResetEmail sends the password reset link
func (e *EmailService) SendPasswordResetEmail(ctx context.Context, email, username, token string) error {
	data := ActionEmailData{
		CompanyName: e.config.CompanyName,
		UserName:    username,
		ActionURL:   e.PasswordResetURL(token),
		ExpiresIn:   humanizeDuration(e.lifetimes.PasswordReset),
	}
	html, text, err := e.renderTemplate(templatePasswordReset, data)
	if err != nil {
		return fmt.Errorf("failed to render password reset email template: %w", err)
	}
	subject := fmt.Sprintf("Reset Your Password - %s", e.config.CompanyName)
	return e.sendEmail(ctx, email, subject, html, text)
}

// humanizeDuration renders whole hours or minutes, e.g. "20 minutes".
func humanizeDuration(d time.Duration) string {
	switch {
	case d <= 0:
		return "a short time"
	case d%time.Hour == 0:
		return plural(int(d/time.Hour), "hour")
	case d >= time.Minute:
		return plural(int(d/time.Minute), "minute")
	default:
		return plural(int(d/time.Second), "second")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
