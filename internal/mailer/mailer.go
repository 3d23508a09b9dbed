// Package mailer delivers notification emails on a best-effort basis.
// Send failures are logged and never propagated to the caller.
package mailer

import (
	"fmt"
	"net/smtp"
	"os"

	"expenseflow/internal/logs"
)

// Notifier sends a message to a destination without blocking the caller.
type Notifier interface {
	Notify(subject, body, to string)
}

type smtpNotifier struct {
	host     string
	port     string
	from     string
	password string
}

// NewFromEnv builds a Notifier from SMTP_HOST, SMTP_PORT, SMTP_FROM and
// SMTP_PASSWORD. With no SMTP_HOST configured, messages are logged instead
// of sent so development setups work without a mail server.
func NewFromEnv() Notifier {
	port := os.Getenv("SMTP_PORT")
	if port == "" {
		port = "587"
	}
	return &smtpNotifier{
		host:     os.Getenv("SMTP_HOST"),
		port:     port,
		from:     os.Getenv("SMTP_FROM"),
		password: os.Getenv("SMTP_PASSWORD"),
	}
}

// Notify sends asynchronously, retrying once on failure.
func (n *smtpNotifier) Notify(subject, body, to string) {
	go func() {
		if n.host == "" {
			logs.Logger.WithField("to", to).Debug("SMTP not configured, skipping email delivery")
			return
		}

		if err := n.send(subject, body, to); err != nil {
			if err = n.send(subject, body, to); err != nil {
				logs.Logger.WithError(err).WithField("to", to).Error("email delivery failed")
			}
		}
	}()
}

func (n *smtpNotifier) send(subject, body, to string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n", n.from, to, subject, body)
	auth := smtp.PlainAuth("", n.from, n.password, n.host)
	return smtp.SendMail(n.host+":"+n.port, auth, n.from, []string{to}, []byte(msg))
}
