package testutil

import (
	"context"
	"sync"

	"codecamp/pkg/email"
)

// Mailer records messages instead of delivering them. Set Err to make Send fail.
type Mailer struct {
	mu   sync.Mutex
	msgs []*email.Message
	Err  error
}

func (m *Mailer) Send(_ context.Context, msg *email.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.msgs = append(m.msgs, msg)
	return nil
}

// Sent returns the subjects of delivered messages addressed to to, oldest first.
func (m *Mailer) Sent(to string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var subjects []string
	for _, msg := range m.msgs {
		for _, rcpt := range msg.To {
			if rcpt == to {
				subjects = append(subjects, msg.Subject)
			}
		}
	}
	return subjects
}
