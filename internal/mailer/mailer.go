// Package mailer sends the automated reply e-mails over authenticated SMTP.
package mailer

import (
	"context"
	"fmt"
	"time"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

const defaultTimeout = 15 * time.Second

// Config holds the SMTP session settings. Address doubles as the
// authentication username, Password is an application password.
type Config struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"-"`
	Timeout  time.Duration
}

// Mailer transmits multipart messages over an implicit-TLS SMTP session.
// Each Send is a single attempt; there are no retries.
type Mailer struct {
	cfg    Config
	logger *zap.Logger
}

func New(cfg Config, logger *zap.Logger) *Mailer {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Mailer{cfg: cfg, logger: logger}
}

// Send transmits a plain-text message with the given attachments.
func (m *Mailer) Send(ctx context.Context, to, subject, body string, attachments []string) error {
	msg := mail.NewMsg()
	if err := msg.From(m.cfg.Address); err != nil {
		return fmt.Errorf("setting sender %s: %w", m.cfg.Address, err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("setting recipient %s: %w", to, err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	for _, path := range attachments {
		msg.AttachFile(path)
	}

	client, err := mail.NewClient(m.cfg.Host,
		mail.WithPort(m.cfg.Port),
		mail.WithSSL(),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(m.cfg.Address),
		mail.WithPassword(m.cfg.Password),
		mail.WithTimeout(m.cfg.Timeout),
	)
	if err != nil {
		return fmt.Errorf("creating smtp client for %s: %w", m.cfg.Host, err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("sending mail to %s: %w", to, err)
	}

	m.logger.Info("reply sent",
		zap.String("to", to),
		zap.String("subject", subject),
		zap.Int("attachments", len(attachments)),
	)
	return nil
}
