package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/car-marketplace/internal/mail"
)

type flakyMailer struct {
	mu       sync.Mutex
	failures int
	sent     []mail.Message
	calls    int
}

func (m *flakyMailer) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.calls <= m.failures {
		return errors.New("connection refused")
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *flakyMailer) snapshot() (int, []mail.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls, append([]mail.Message(nil), m.sent...)
}

func newTestWorker(q mail.Queue, m mail.Mailer, attempts int) *NotificationWorker {
	w := NewNotificationWorker(q, m, zap.NewNop(), attempts)
	w.retryDelay = time.Millisecond
	return w
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestWorkerRetriesUntilDelivered(t *testing.T) {
	q := mail.NewMemoryQueue(8)
	mailer := &flakyMailer{failures: 2}
	ctx, cancel := context.WithCancel(context.Background())
	done := StartNotificationWorker(ctx, nil, newTestWorker(q, mailer, 3))

	if err := q.Push(ctx, mail.Message{ID: "m1", To: "a@x.com"}); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool {
		_, sent := mailer.snapshot()
		return len(sent) == 1
	})
	cancel()
	<-done

	calls, sent := mailer.snapshot()
	if calls != 3 || sent[0].Attempts != 2 {
		t.Fatalf("calls=%d attempts=%d", calls, sent[0].Attempts)
	}
}

func TestWorkerDropsAfterMaxAttempts(t *testing.T) {
	q := mail.NewMemoryQueue(8)
	mailer := &flakyMailer{failures: 100}
	ctx, cancel := context.WithCancel(context.Background())
	done := StartNotificationWorker(ctx, nil, newTestWorker(q, mailer, 2))

	if err := q.Push(ctx, mail.Message{ID: "m1", To: "a@x.com"}); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool {
		calls, _ := mailer.snapshot()
		return calls == 2
	})
	time.Sleep(20 * time.Millisecond)
	cancel()
	<-done

	calls, sent := mailer.snapshot()
	if calls != 2 || len(sent) != 0 || q.Len() != 0 {
		t.Fatalf("calls=%d sent=%d queued=%d", calls, len(sent), q.Len())
	}
}

type recipientMailer struct {
	mu   sync.Mutex
	fail string
	sent []string
}

func (m *recipientMailer) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if msg.To == m.fail {
		return errors.New("mailbox unavailable")
	}
	m.sent = append(m.sent, msg.To)
	return nil
}

func (m *recipientMailer) delivered() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.sent...)
}

func TestFailingRecipientDoesNotDelayQueue(t *testing.T) {
	q := mail.NewMemoryQueue(8)
	mailer := &recipientMailer{fail: "bad@x.com"}
	w := newTestWorker(q, mailer, 3)
	w.retryDelay = time.Hour
	ctx, cancel := context.WithCancel(context.Background())
	done := StartNotificationWorker(ctx, nil, w)

	if err := q.Push(ctx, mail.Message{ID: "m1", To: "bad@x.com"}); err != nil {
		t.Fatal(err)
	}
	if err := q.Push(ctx, mail.Message{ID: "m2", To: "good@x.com"}); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return len(mailer.delivered()) == 1 })
	cancel()
	<-done

	if q.Len() != 1 {
		t.Fatalf("queued=%d, want the failed message requeued", q.Len())
	}
	msg, err := q.Pop(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if msg.ID != "m1" || msg.Attempts != 1 || msg.NotBefore.IsZero() {
		t.Fatalf("requeued %+v", msg)
	}
}

func TestWorkerDefersMessagesNotYetDue(t *testing.T) {
	q := mail.NewMemoryQueue(8)
	mailer := &flakyMailer{}
	ctx, cancel := context.WithCancel(context.Background())
	done := StartNotificationWorker(ctx, nil, newTestWorker(q, mailer, 3))

	due := time.Now().Add(50 * time.Millisecond)
	if err := q.Push(ctx, mail.Message{ID: "m1", To: "a@x.com", NotBefore: due}); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool {
		_, sent := mailer.snapshot()
		return len(sent) == 1
	})
	cancel()
	<-done

	if time.Now().Before(due) {
		t.Fatal("message delivered before its NotBefore time")
	}
}
