package mailer

import (
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/washtrack/washtrack/internal/config"
	"github.com/washtrack/washtrack/pkg/models"
)

// Mailer sends the account notification mails. Delivery failures are the
// caller's problem to log; they never fail a request.
type Mailer interface {
	SendUserWelcome(to, fullName string, role models.Role) error
}

// SMTP delivers through a plain SMTP relay.
type SMTP struct {
	cfg config.SMTPConfig
}

var _ Mailer = (*SMTP)(nil)

func NewSMTP(cfg config.SMTPConfig) *SMTP {
	return &SMTP{cfg: cfg}
}

func (m *SMTP) SendUserWelcome(to, fullName string, role models.Role) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.From)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", "Your washtrack account")
	msg.SetBody("text/plain", fmt.Sprintf(
		"Hi %s,\n\nAn account with the %s role has been created for you.\nSign in with this email address and the password you were given.\n",
		fullName, role))

	d := gomail.NewDialer(m.cfg.Host, m.cfg.Port, m.cfg.Username, m.cfg.Password)
	if err := d.DialAndSend(msg); err != nil {
		return fmt.Errorf("send welcome mail to %s: %w", to, err)
	}

	return nil
}

// Noop drops mail; used when SMTP is not configured and in tests.
type Noop struct{}

var _ Mailer = Noop{}

func (Noop) SendUserWelcome(string, string, models.Role) error { return nil }
