package domain

import "context"

// Store bundles every persistence port behind one handle.
//
// WithinTx runs fn against a Store whose operations all share a single
// database transaction. Returning an error from fn rolls the transaction
// back; returning nil commits it. Invoice generation, conversion and
// payment recording must run their writes inside WithinTx so that either
// every side effect lands or none do.
type Store interface {
	Advocates() AdvocateStore
	Matters() MatterStore
	TimeEntries() TimeEntryStore
	Expenses() ExpenseStore
	Invoices() InvoiceStore
	Payments() PaymentStore
	ReminderLogs() ReminderLogStore

	WithinTx(ctx context.Context, fn func(Store) error) error
}
