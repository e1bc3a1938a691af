// notify/mailer.go
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"

	"learning-platform/config"
)

// Mailer delivers a single plain-text message.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// NewMailer returns an SMTP mailer when a host is configured and the
// log-only mailer otherwise, so development needs no relay.
func NewMailer(cfg *config.Config) Mailer {
	if cfg.SMTPHost == "" {
		return LogMailer{}
	}
	return &SMTPMailer{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		user:     cfg.SMTPUser,
		password: cfg.SMTPPassword,
		from:     cfg.SMTPFrom,
	}
}

// SMTPMailer sends through a plain SMTP relay.
type SMTPMailer struct {
	host     string
	port     string
	user     string
	password string
	from     string
}

func (m *SMTPMailer) Send(_ context.Context, to, subject, body string) error {
	msg := []byte(fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s\r\n",
		m.from, to, subject, body,
	))
	var auth smtp.Auth
	if m.user != "" {
		auth = smtp.PlainAuth("", m.user, m.password, m.host)
	}
	return smtp.SendMail(m.host+":"+m.port, auth, m.from, []string{to}, msg)
}

// LogMailer records outgoing mail in the log instead of sending it.
type LogMailer struct{}

func (LogMailer) Send(_ context.Context, to, subject, _ string) error {
	slog.Info("email suppressed, no smtp host configured", "to", to, "subject", subject)
	return nil
}
