// Package email is the mail transport layer: a Sender interface with
// SMTP and Postmark implementations plus a recording mock. Message
// composition lives in internal/notify; this package only delivers.
package email

import "context"

// Email is one outbound message.
type Email struct {
	To          []string
	From        string // empty means the sender's configured default
	Subject     string
	TextBody    string
	HTMLBody    string // optional alternative part
	Attachments []Attachment
	Headers     map[string]string
}

// Attachment is a file carried with the message.
type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Sender delivers a message and returns the provider's message ID when
// one is available.
type Sender interface {
	Send(ctx context.Context, msg *Email) (string, error)
}
