// Package mail sends transactional account email over SMTP. Bodies are plain
// text; templating is out of scope.
package mail

import (
	"context"
	"fmt"
	"strings"

	"tour_booking/internal/config"

	gomail "github.com/wneessen/go-mail"
)

// Mailer dispatches account notifications. Delivery failures are returned to
// the caller, which decides whether they are fatal.
type Mailer interface {
	SendWelcome(ctx context.Context, to, name string) error
	SendPasswordReset(ctx context.Context, to, name, resetURL string) error
}

type smtpMailer struct {
	client *gomail.Client
	from   string
}

// NewSMTPMailer creates a Mailer backed by the configured SMTP relay
func NewSMTPMailer(cfg config.SMTPConfig) (Mailer, error) {
	client, err := gomail.NewClient(cfg.Host,
		gomail.WithPort(cfg.Port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(cfg.Username),
		gomail.WithPassword(cfg.Password),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mail client: %w", err)
	}
	return &smtpMailer{client: client, from: cfg.From}, nil
}

func firstName(name string) string {
	if i := strings.IndexByte(name, ' '); i > 0 {
		return name[:i]
	}
	return name
}

func (m *smtpMailer) send(ctx context.Context, to, subject, body string) error {
	msg := gomail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return fmt.Errorf("invalid sender address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("invalid recipient address: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextPlain, body)

	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send mail: %w", err)
	}
	return nil
}

// SendWelcome greets a freshly signed-up account
func (m *smtpMailer) SendWelcome(ctx context.Context, to, name string) error {
	body := fmt.Sprintf("Hi %s,\n\nWelcome aboard! We're glad to have you. "+
		"Log in and start exploring our tours.\n", firstName(name))
	return m.send(ctx, to, "Welcome to the family!", body)
}

// SendPasswordReset mails the plaintext reset token link; the token is valid
// for 10 minutes
func (m *smtpMailer) SendPasswordReset(ctx context.Context, to, name, resetURL string) error {
	body := fmt.Sprintf("Hi %s,\n\nForgot your password? Submit a PATCH request with your new "+
		"password and passwordConfirm to:\n\n%s\n\nIf you didn't forget your password, "+
		"please ignore this email.\n", firstName(name), resetURL)
	return m.send(ctx, to, "Your password reset token (valid for 10 minutes)", body)
}
