// Package transport delivers the workflow's emails.
//
// Two implementations of mailer.Transport live here: SMTP for real
// delivery and a dry-run transport that only logs, used by default so
// a misconfigured invocation never sends mail by accident.
package transport

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"net/smtp"
	"strings"

	"github.com/roach88/drip/internal/mailer"
)

// SMTP delivers emails over a plain SMTP session.
//
// Retry and backoff are deliberately absent: the workflow treats a
// failed send as a failed run and the operator re-runs once the
// relay is healthy.
type SMTP struct {
	// Addr is the relay address, host:port.
	Addr string

	// Auth is optional; nil means an unauthenticated session
	// (typical for a local relay).
	Auth smtp.Auth

	Log *slog.Logger
}

func (t *SMTP) logger() *slog.Logger {
	if t.Log != nil {
		return t.Log
	}
	return slog.Default()
}

// Send delivers one email and returns the item IDs it covers.
// Implements mailer.Transport.
func (t *SMTP) Send(ctx context.Context, email mailer.Email) ([]mailer.ItemID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	from, err := mail.ParseAddress(email.From)
	if err != nil {
		return nil, fmt.Errorf("invalid from address %q: %w", email.From, err)
	}
	to, err := mail.ParseAddress(email.To)
	if err != nil {
		return nil, fmt.Errorf("invalid recipient address %q: %w", email.To, err)
	}

	msg := BuildMessage(email)
	if err := smtp.SendMail(t.Addr, t.Auth, from.Address, []string{to.Address}, msg); err != nil {
		return nil, fmt.Errorf("smtp send to %s: %w", email.To, err)
	}

	t.logger().Info("email delivered", "to", email.To, "covers", len(email.Covers))
	return email.Covers, nil
}

// BuildMessage assembles the RFC 5322 wire form of an email.
// Header order is fixed so the output is deterministic.
func BuildMessage(email mailer.Email) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", email.From)
	fmt.Fprintf(&b, "To: %s\r\n", email.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", email.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	// Bare LF is not legal on the wire.
	b.WriteString(strings.ReplaceAll(email.Body, "\n", "\r\n"))
	return []byte(b.String())
}

// DryRun is a mailer.Transport that delivers nothing: it logs each
// email and confirms all of its items. Used when no relay is
// configured.
type DryRun struct {
	Log *slog.Logger
}

func (t *DryRun) logger() *slog.Logger {
	if t.Log != nil {
		return t.Log
	}
	return slog.Default()
}

// Send logs the email and pretends every covered item was delivered.
func (t *DryRun) Send(ctx context.Context, email mailer.Email) ([]mailer.ItemID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t.logger().Info("dry-run send",
		"to", email.To,
		"subject", email.Subject,
		"covers", len(email.Covers),
	)
	return email.Covers, nil
}
