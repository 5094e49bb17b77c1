package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/aussiebroadwan/otpgate/internal/otp/domain"
	"gopkg.in/gomail.v2"
)

// mailDialer is the part of *gomail.Dialer the sender uses.
type mailDialer interface {
	DialAndSend(m ...*gomail.Message) error
}

type EmailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Subject  string
}

// EmailSender delivers codes over SMTP.
type EmailSender struct {
	dialer  mailDialer
	from    string
	subject string
}

func NewEmailSender(cfg EmailConfig) *EmailSender {
	return newEmailSender(gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password), cfg.From, cfg.Subject)
}

func newEmailSender(d mailDialer, from, subject string) *EmailSender {
	if subject == "" {
		subject = "Your verification code"
	}
	return &EmailSender{dialer: d, from: from, subject: subject}
}

func (s *EmailSender) Send(ctx context.Context, target domain.Target, code string, ttl time.Duration) error {
	if target.Kind != domain.TargetEmail {
		return fmt.Errorf("email sender cannot deliver to %s", target.Kind)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", target.Value)
	m.SetHeader("Subject", s.subject)
	m.SetBody("text/plain", Message(code, ttl))

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send otp email: %w", err)
	}
	return nil
}
