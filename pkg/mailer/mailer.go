package mailer

import (
	"errors"
	"fmt"

	"incident-reporting-system/pkg/config"

	"gopkg.in/gomail.v2"
)

// Email represents an email message.
type Email struct {
	To       []string
	Subject  string
	Body     string
	HTMLBody string
}

// Mailer sends email over SMTP.
type Mailer struct {
	from   string
	dialer *gomail.Dialer
}

var ErrNoRecipients = errors.New("no recipients specified")

func New(cfg config.SMTPConfig) (*Mailer, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("missing SMTP_HOST environment variable")
	}
	if cfg.Port == 0 {
		return nil, fmt.Errorf("missing SMTP_PORT environment variable")
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("missing SMTP_FROM environment variable")
	}

	return &Mailer{
		from:   cfg.From,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}, nil
}

func (m *Mailer) Send(email Email) error {
	msg, err := m.buildMessage(email)
	if err != nil {
		return err
	}
	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func (m *Mailer) buildMessage(email Email) (*gomail.Message, error) {
	if len(email.To) == 0 {
		return nil, ErrNoRecipients
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", email.To...)
	msg.SetHeader("Subject", email.Subject)

	if email.HTMLBody != "" {
		msg.SetBody("text/html", email.HTMLBody)
		if email.Body != "" {
			msg.AddAlternative("text/plain", email.Body)
		}
	} else {
		msg.SetBody("text/plain", email.Body)
	}
	return msg, nil
}
