package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Reminder delivery outcomes recorded in the audit log.
const (
	ReminderStatusSent   = "sent"
	ReminderStatusFailed = "failed"
)

// ReminderLog is one reminder delivery attempt. Every attempt is logged,
// successful or not, so the practice can prove what was chased and when.
type ReminderLog struct {
	ID             uuid.UUID
	InvoiceID      uuid.UUID
	AdvocateID     uuid.UUID
	ReminderNumber int // 1-based ordinal within the bar's schedule
	SentAt         time.Time
	Status         string
	Error          string
	CreatedAt      time.Time
}

// ReminderLogStore is the persistence port for reminder logs.
type ReminderLogStore interface {
	CreateReminderLog(ctx context.Context, log *ReminderLog) error
	ListReminderLogsByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]ReminderLog, error)
}

// ReminderNotification is everything a notifier needs to compose and
// address one payment reminder.
type ReminderNotification struct {
	Invoice        *Invoice
	Matter         *Matter
	Advocate       *Advocate
	ReminderNumber int  // 1-based ordinal of this reminder
	Final          bool // last reminder before escalation
}

// Notifier delivers payment reminders to instructing attorneys. A failed
// delivery fails only that invoice's sweep iteration, never the sweep.
type Notifier interface {
	SendReminder(ctx context.Context, n ReminderNotification) error
}
