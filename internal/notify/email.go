package notify

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"time"

	"gopkg.in/mail.v2"
)

const emailTimeout = 15 * time.Second

// SMTPConfig describes the mail relay. TLS selects implicit TLS (port 465);
// otherwise STARTTLS is used when the server offers it.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       []string
	TLS      bool
}

type sender interface {
	DialAndSend(m ...*mail.Message) error
}

// Email sends plain-text mail over SMTP.
type Email struct {
	cfg    SMTPConfig
	dialer sender
}

// NewEmail returns nil when no SMTP host or recipient is configured.
func NewEmail(cfg SMTPConfig) Notifier {
	if cfg.Host == "" || len(cfg.To) == 0 {
		return nil
	}
	d := mail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	d.TLSConfig = &tls.Config{ServerName: cfg.Host}
	d.Timeout = emailTimeout
	if cfg.TLS {
		d.SSL = true
	} else {
		d.StartTLSPolicy = mail.OpportunisticStartTLS
	}
	return &Email{cfg: cfg, dialer: d}
}

func (e *Email) message(title, text string) *mail.Message {
	m := mail.NewMessage()
	m.SetHeader("From", e.cfg.From)
	m.SetHeader("To", e.cfg.To...)
	m.SetHeader("Subject", title)
	m.SetBody("text/plain", text)
	return m
}

// Send gives up when ctx is done; the SMTP exchange itself is bounded by the
// dialer timeout.
func (e *Email) Send(ctx context.Context, title, text string) error {
	if e == nil {
		return errors.New("email disabled")
	}
	m := e.message(title, text)

	done := make(chan error, 1)
	go func() {
		done <- e.dialer.DialAndSend(m)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("send email: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(emailTimeout + 5*time.Second):
		return fmt.Errorf("send email: timed out after %s", emailTimeout)
	}
}
