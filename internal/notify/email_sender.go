package notify

import (
	"context"
	"fmt"
	"time"

	gomail "gopkg.in/mail.v2"

	"github.com/shanehull/anndash/internal/logger"
)

// EmailConfig holds SMTP configuration for sending emails.
type EmailConfig struct {
	SMTPServer string
	SMTPPort   int
	SMTPUser   string
	SMTPPass   string
	FromEmail  string
	ToEmail    string
}

// Dialer is satisfied by *gomail.Dialer.
type Dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// EmailSender delivers messages via SMTP.
type EmailSender struct {
	cfg    EmailConfig
	dialer Dialer
	log    logger.Logger
}

// NewEmailSender creates a sender with the given SMTP configuration.
func NewEmailSender(cfg EmailConfig, log logger.Logger) *EmailSender {
	dialer := gomail.NewDialer(cfg.SMTPServer, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass)
	dialer.Timeout = 10 * time.Second
	return NewEmailSenderWithDialer(cfg, dialer, log)
}

func NewEmailSenderWithDialer(cfg EmailConfig, dialer Dialer, log logger.Logger) *EmailSender {
	return &EmailSender{cfg: cfg, dialer: dialer, log: log.With(logger.String("component", "email"))}
}

// Send delivers an email with HTML body and plain text fallback.
func (s *EmailSender) Send(msg *RenderedMessage) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.FromEmail)
	m.SetHeader("To", s.cfg.ToEmail)
	m.SetHeader("Subject", msg.Subject)

	if msg.HTML != "" && msg.Text != "" {
		m.SetBody("text/plain", msg.Text)
		m.AddAlternative("text/html", msg.HTML)
	} else if msg.HTML != "" {
		m.SetBody("text/html", msg.HTML)
	} else {
		m.SetBody("text/plain", msg.Text)
	}

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send %q to %s: %w", msg.Subject, s.cfg.ToEmail, err)
	}

	s.log.Info("Email sent", logger.String("subject", msg.Subject))
	return nil
}

// Email renders and sends one message per notice.
type Email struct {
	renderer *HTMLEmailRenderer
	sender   *EmailSender
}

func NewEmail(renderer *HTMLEmailRenderer, sender *EmailSender) *Email {
	return &Email{renderer: renderer, sender: sender}
}

func (e *Email) Notify(_ context.Context, n Notice) error {
	msg, err := e.renderer.Render(n)
	if err != nil {
		return err
	}
	return e.sender.Send(msg)
}
