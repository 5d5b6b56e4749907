// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package adapter

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/MKhiriev/go-tour-guide/internal/config"
	"github.com/MKhiriev/go-tour-guide/internal/logger"
	"github.com/MKhiriev/go-tour-guide/models"
)

// sendMailFunc has the signature of [smtp.SendMail].
type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type smtpMailer struct {
	addr     string
	from     string
	auth     smtp.Auth
	sendMail sendMailFunc
	now      func() time.Time

	logger *logger.Logger
}

// NewSMTPMailer returns a [Mailer] delivering through the configured SMTP
// relay. PLAIN authentication is used when a username is set.
func NewSMTPMailer(cfg config.Mail, logger *logger.Logger) Mailer {
	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.SMTPHost)
	}

	return &smtpMailer{
		addr:     net.JoinHostPort(cfg.SMTPHost, strconv.Itoa(cfg.SMTPPort)),
		from:     cfg.From,
		auth:     auth,
		sendMail: smtp.SendMail,
		now:      time.Now,
		logger:   logger,
	}
}

// Send implements [Mailer]. smtp.SendMail is not context aware, so ctx is
// only checked before dialing.
func (m *smtpMailer) Send(ctx context.Context, email models.Email) error {
	if len(email.To) == 0 {
		return ErrNoRecipients
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := buildMessage(m.from, email, m.now())
	if err := m.sendMail(m.addr, m.auth, m.from, email.To, msg); err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "*smtpMailer.Send").Str("subject", email.Subject).Msg("smtp delivery failed")
		return fmt.Errorf("sending email: %w", err)
	}

	return nil
}

// buildMessage renders an RFC 5322 message with a plain-text body.
func buildMessage(from string, email models.Email, at time.Time) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + strings.Join(email.To, ", ") + "\r\n")
	b.WriteString("Subject: " + sanitizeHeader(email.Subject) + "\r\n")
	b.WriteString("Date: " + at.Format(time.RFC1123Z) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(email.Body, "\n", "\r\n"))

	return []byte(b.String())
}

// sanitizeHeader strips line breaks so that a value cannot inject headers.
func sanitizeHeader(v string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(v)
}

type logMailer struct {
	logger *logger.Logger
}

// NewLogMailer returns a [Mailer] that only logs the emails. It is used when
// no SMTP relay is configured.
func NewLogMailer(logger *logger.Logger) Mailer {
	return &logMailer{logger: logger}
}

// Send implements [Mailer].
func (m *logMailer) Send(ctx context.Context, email models.Email) error {
	if len(email.To) == 0 {
		return ErrNoRecipients
	}

	m.logger.Info().
		Str("func", "*logMailer.Send").
		Strs("to", email.To).
		Str("subject", email.Subject).
		Msg("email not sent: smtp is not configured")

	return nil
}

// NewMailer picks the SMTP mailer when a relay is configured and the log
// mailer otherwise.
func NewMailer(cfg config.Mail, logger *logger.Logger) Mailer {
	if cfg.Enabled() {
		return NewSMTPMailer(cfg, logger)
	}
	return NewLogMailer(logger)
}
