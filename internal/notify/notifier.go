// Package notify composes payment reminders and delivers them through
// the email transport. It adapts internal/email to the domain Notifier
// the reminder sweep drives.
package notify

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/lexohub/lexohub/internal/bar"
	"github.com/lexohub/lexohub/internal/domain"
	"github.com/lexohub/lexohub/internal/email"
	"github.com/lexohub/lexohub/internal/storage"
)

// EmailNotifier sends reminder emails to instructing attorneys. When an
// archive is wired and holds the invoice's PDF, the PDF rides along as
// an attachment.
type EmailNotifier struct {
	sender  email.Sender
	archive storage.Storage // optional
	from    string
	logger  zerolog.Logger
}

var _ domain.Notifier = (*EmailNotifier)(nil)

// NewEmailNotifier creates a notifier. archive may be nil; reminders
// then go out without the PDF.
func NewEmailNotifier(sender email.Sender, archive storage.Storage, from string, logger zerolog.Logger) *EmailNotifier {
	return &EmailNotifier{sender: sender, archive: archive, from: from, logger: logger}
}

// SendReminder composes and delivers one reminder.
func (n *EmailNotifier) SendReminder(ctx context.Context, rem domain.ReminderNotification) error {
	if rem.Matter == nil || rem.Matter.AttorneyEmail == "" {
		return fmt.Errorf("invoice %s has no attorney email on its matter", rem.Invoice.InvoiceNumber)
	}
	rules, err := bar.Rules(rem.Invoice.Bar)
	if err != nil {
		return err
	}

	msg := buildReminder(rem, rules, time.Now().UTC())
	out := &email.Email{
		To:       []string{rem.Matter.AttorneyEmail},
		From:     n.from,
		Subject:  msg.Subject,
		TextBody: msg.Text,
		HTMLBody: msg.HTML,
	}
	n.attachInvoicePDF(ctx, rem.Invoice, out)

	if _, err := n.sender.Send(ctx, out); err != nil {
		return fmt.Errorf("send reminder for %s: %w", rem.Invoice.InvoiceNumber, err)
	}
	n.logger.Info().
		Str("invoice_number", rem.Invoice.InvoiceNumber).
		Str("to", rem.Matter.AttorneyEmail).
		Int("reminder_number", rem.ReminderNumber).
		Bool("final", rem.Final).
		Msg("reminder sent")
	return nil
}

// attachInvoicePDF adds the archived PDF when available. A missing or
// unreadable archive is never fatal; the reminder still goes out.
func (n *EmailNotifier) attachInvoicePDF(ctx context.Context, inv *domain.Invoice, out *email.Email) {
	if n.archive == nil {
		return
	}
	key := storage.InvoiceKey(inv.AdvocateID, inv.InvoiceNumber)
	rc, err := n.archive.Get(ctx, key)
	if err != nil {
		n.logger.Debug().
			Str("invoice_number", inv.InvoiceNumber).
			Err(err).
			Msg("no archived pdf for reminder")
		return
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		n.logger.Warn().
			Str("invoice_number", inv.InvoiceNumber).
			Err(err).
			Msg("reading archived pdf failed")
		return
	}
	out.Attachments = append(out.Attachments, email.Attachment{
		Filename:    inv.InvoiceNumber + ".pdf",
		ContentType: "application/pdf",
		Content:     data,
	})
}
