package events

import (
	"context"
	"errors"
	"testing"
)

func TestPublishContinuesAfterHandlerError(t *testing.T) {
	d := NewInMemoryDispatcher(nil)
	var calls []string
	d.Subscribe(EventSellRequestApproved, func(context.Context, Event) error {
		calls = append(calls, "first")
		return errors.New("smtp down")
	})
	d.Subscribe(EventSellRequestApproved, func(context.Context, Event) error {
		calls = append(calls, "second")
		return nil
	})
	d.Subscribe(EventSellRequestRejected, func(context.Context, Event) error {
		calls = append(calls, "other")
		return nil
	})

	evt := New(EventSellRequestApproved, "req-1", Actor{}, nil)
	if err := d.Publish(context.Background(), evt); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(calls) != 2 || calls[0] != "first" || calls[1] != "second" {
		t.Fatalf("unexpected calls %v", calls)
	}
	if evt.ID == "" || evt.Timestamp.IsZero() {
		t.Fatal("event not stamped")
	}
}
