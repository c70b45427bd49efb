// Package mail carries outbound email from the services to an SMTP server
// through a durable queue.
package mail

import (
	"context"
	"time"
)

// Message is one queued email.
type Message struct {
	ID       string    `json:"id"`
	To       string    `json:"to"`
	Subject  string    `json:"subject"`
	Body     string    `json:"body"`
	Attempts int       `json:"attempts"`
	QueuedAt time.Time `json:"queued_at"`
	// NotBefore delays a retried message; zero means deliver now.
	NotBefore time.Time `json:"not_before"`
}

// Mailer delivers a message.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}
