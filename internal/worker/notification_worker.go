package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/car-marketplace/internal/mail"
	"github.com/spec-kit/car-marketplace/internal/service"
)

// NotificationWorker drains the mail queue into a Mailer, re-queueing
// failed messages until maxAttempts is reached. Retries wait out their
// backoff off the receive loop, so one failing recipient does not hold up
// the messages behind it.
type NotificationWorker struct {
	queue       mail.Queue
	mailer      mail.Mailer
	logger      *zap.Logger
	maxAttempts int
	retryDelay  time.Duration
	sendTimeout time.Duration
	now         func() time.Time

	pending sync.WaitGroup
}

// NewNotificationWorker builds a worker.
func NewNotificationWorker(queue mail.Queue, mailer mail.Mailer, logger *zap.Logger, maxAttempts int) *NotificationWorker {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	return &NotificationWorker{
		queue:       queue,
		mailer:      mailer,
		logger:      logger,
		maxAttempts: maxAttempts,
		retryDelay:  2 * time.Second,
		sendTimeout: 30 * time.Second,
		now:         time.Now,
	}
}

// Run processes messages until ctx is cancelled. Scheduled retries are
// pushed back onto the queue before Run returns.
func (w *NotificationWorker) Run(ctx context.Context) {
	defer w.pending.Wait()
	for {
		msg, err := w.queue.Pop(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return
			}
			w.logger.Error("mail queue pop failed", zap.Error(err))
			if !sleep(ctx, w.retryDelay) {
				return
			}
			continue
		}
		if msg.NotBefore.After(w.now()) {
			w.requeueLater(ctx, msg)
			continue
		}
		w.process(ctx, msg)
	}
}

func (w *NotificationWorker) process(ctx context.Context, msg mail.Message) {
	sendCtx, cancel := context.WithTimeout(ctx, w.sendTimeout)
	err := w.mailer.Send(sendCtx, msg)
	cancel()
	if err == nil {
		w.logger.Info("email sent", zap.String("message_id", msg.ID), zap.String("to", msg.To))
		return
	}

	msg.Attempts++
	fields := []zap.Field{
		zap.String("message_id", msg.ID),
		zap.String("to", msg.To),
		zap.Int("attempts", msg.Attempts),
		zap.Error(err),
	}
	if msg.Attempts >= w.maxAttempts {
		w.logger.Error("email dropped after max attempts", fields...)
		return
	}
	w.logger.Warn("email send failed; retrying", fields...)
	msg.NotBefore = w.now().Add(w.retryDelay * time.Duration(msg.Attempts))
	w.requeueLater(ctx, msg)
}

// requeueLater pushes msg back once its NotBefore has passed, or at once
// when ctx ends so the message survives shutdown.
func (w *NotificationWorker) requeueLater(ctx context.Context, msg mail.Message) {
	w.pending.Add(1)
	go func() {
		defer w.pending.Done()
		sleep(ctx, msg.NotBefore.Sub(w.now()))

		pushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := w.queue.Push(pushCtx, msg); err != nil {
			w.logger.Error("email requeue failed",
				zap.String("message_id", msg.ID),
				zap.String("to", msg.To),
				zap.Int("attempts", msg.Attempts),
				zap.Error(err))
		}
	}()
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// StartNotificationWorker registers notification handlers and starts the
// delivery loop. The returned channel closes when the loop exits.
func StartNotificationWorker(ctx context.Context, notificationService *service.NotificationService, w *NotificationWorker) <-chan struct{} {
	done := make(chan struct{})
	if notificationService != nil {
		notificationService.RegisterHandlers()
	}
	if w == nil {
		close(done)
		return done
	}
	go func() {
		defer close(done)
		w.Run(ctx)
	}()
	return done
}
