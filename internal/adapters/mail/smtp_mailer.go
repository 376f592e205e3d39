// Package mail delivers digest messages.
package mail

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"

	"github.com/comitanigiacomo/carbon-footprint-tracker/internal/config"
	"github.com/comitanigiacomo/carbon-footprint-tracker/internal/core/domain"
)

var (
	_ domain.Mailer = (*SMTPMailer)(nil)
	_ domain.Mailer = (*LogMailer)(nil)
)

type sendFunc func(e *email.Email, addr string, auth smtp.Auth) error

type SMTPMailer struct {
	cfg    config.SMTPConfig
	logger *logrus.Logger
	send   sendFunc
}

func NewSMTPMailer(cfg config.SMTPConfig, logger *logrus.Logger) *SMTPMailer {
	return &SMTPMailer{
		cfg:    cfg,
		logger: logger,
		send: func(e *email.Email, addr string, auth smtp.Auth) error {
			return e.Send(addr, auth)
		},
	}
}

func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	e := email.NewEmail()
	e.From = m.cfg.From
	e.To = []string{to}
	e.Subject = subject
	e.Text = []byte(body)

	addr := fmt.Sprintf("%s:%s", m.cfg.Host, m.cfg.Port)

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	if err := m.send(e, addr, auth); err != nil {
		m.logger.Errorf("Failed to send email to %s: %v", to, err)
		return fmt.Errorf("mail: send: %w", err)
	}

	m.logger.Infof("Email sent to %s: %s", to, subject)
	return nil
}

// LogMailer writes messages to the log when SMTP is not configured.
type LogMailer struct {
	logger *logrus.Logger
}

func NewLogMailer(logger *logrus.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(_ context.Context, to, subject, body string) error {
	m.logger.WithFields(logrus.Fields{
		"to":      to,
		"subject": subject,
		"bytes":   len(body),
	}).Info("mail: smtp disabled, message not delivered")
	return nil
}
