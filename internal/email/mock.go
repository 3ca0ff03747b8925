package email

import (
	"context"
	"fmt"
	"sync"
)

// MockSender records messages instead of delivering them. It backs tests
// and the dev environment where no mail provider is configured.
type MockSender struct {
	mu   sync.Mutex
	Sent []Email
	Err  error // scripted failure for every Send
}

var _ Sender = (*MockSender)(nil)

// Send records the message.
func (m *MockSender) Send(ctx context.Context, msg *Email) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return "", m.Err
	}
	m.Sent = append(m.Sent, *msg)
	return fmt.Sprintf("mock-%d", len(m.Sent)), nil
}

// Last returns the most recently recorded message, or nil.
func (m *MockSender) Last() *Email {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Sent) == 0 {
		return nil
	}
	return &m.Sent[len(m.Sent)-1]
}
