package mail

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Outbox queues notifications for the worker to deliver, so callers
// never wait on SMTP.
type Outbox struct {
	queue   Queue
	timeout time.Duration
}

// NewOutbox wraps queue.
func NewOutbox(queue Queue) *Outbox {
	return &Outbox{queue: queue, timeout: 2 * time.Second}
}

// Notify enqueues a message for to.
func (o *Outbox) Notify(ctx context.Context, to, subject, body string) error {
	to = strings.TrimSpace(to)
	if to == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()
	return o.queue.Push(ctx, Message{
		ID:       uuid.NewString(),
		To:       to,
		Subject:  subject,
		Body:     body,
		QueuedAt: time.Now().UTC(),
	})
}
