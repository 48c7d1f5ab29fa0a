// Package mailer sends transactional mail for the portal over SMTP.
package mailer

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
	gomail "github.com/wneessen/go-mail"

	"github.com/silvanatrade/distributor-portal/internal/config"
)

// Mailer delivers portal notification mail. A nil Mailer is valid and
// silently drops every message, which keeps mail optional.
type Mailer struct {
	cfg config.SMTPConfig
}

// New constructs a Mailer, or nil when SMTP is not configured.
func New(cfg *config.Config) *Mailer {
	if !cfg.MailEnabled() {
		return nil
	}
	return &Mailer{cfg: cfg.SMTP}
}

// SendInitialCredentials mails a freshly created account its one-time
// password. Delivery is best effort; failures are logged only.
func (m *Mailer) SendInitialCredentials(ctx context.Context, email, password string) {
	if m == nil {
		return
	}

	msg := gomail.NewMsg()
	if errFrom := msg.From(m.cfg.From); errFrom != nil {
		log.WithError(errFrom).Warn("mailer: invalid from address")
		return
	}
	if errTo := msg.To(email); errTo != nil {
		log.WithError(errTo).Warn("mailer: invalid recipient address")
		return
	}
	msg.Subject("Your distributor portal account")
	msg.SetBodyString(gomail.TypeTextPlain, fmt.Sprintf(
		"An account has been created for you.\n\n"+
			"Login: %s\nTemporary password: %s\n\n"+
			"You will be asked to choose a new password on first sign-in.\n",
		email, password,
	))

	client, errClient := gomail.NewClient(
		m.cfg.Host,
		gomail.WithPort(m.cfg.Port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(m.cfg.Username),
		gomail.WithPassword(m.cfg.Password),
	)
	if errClient != nil {
		log.WithError(errClient).Warn("mailer: build client failed")
		return
	}

	if errSend := client.DialAndSendWithContext(ctx, msg); errSend != nil {
		log.WithError(errSend).WithField("to", email).Warn("mailer: send failed")
	}
}
