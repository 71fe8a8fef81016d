package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"

	"drxcare/pkg/logger"

	"github.com/segmentio/kafka-go"
)

type fakeWriter struct {
	mu       sync.Mutex
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func headerValue(msg kafka.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func newTestConsumer(handler MessageHandler, maxRetries int, dlq messageWriter) *Consumer {
	return &Consumer{
		topic:      "booking-events",
		groupID:    "reconciler",
		maxRetries: maxRetries,
		handler:    handler,
		dlqWriter:  dlq,
		log:        logger.Discard(),
	}
}

func testMessage() Message {
	return Message{
		Key:     "booking-1",
		Value:   []byte(`{"booking_id":"booking-1"}`),
		Headers: map[string]string{HeaderEventID: "evt-1"},
	}
}

func TestConsumer_ProcessMessage_Success(t *testing.T) {
	calls := 0
	c := newTestConsumer(func(ctx context.Context, msg Message) error {
		calls++
		return nil
	}, 3, nil)

	if err := c.processMessage(context.Background(), testMessage()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestConsumer_ProcessMessage_RetriesTransient(t *testing.T) {
	calls := 0
	c := newTestConsumer(func(ctx context.Context, msg Message) error {
		calls++
		if calls < 3 {
			return NewTransientError("stripe unavailable", nil)
		}
		if msg.GetRetryCount() != 2 {
			t.Errorf("expected retry count 2, got %d", msg.GetRetryCount())
		}
		return nil
	}, 5, nil)

	if err := c.processMessage(context.Background(), testMessage()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestConsumer_ProcessMessage_ExhaustedGoesToDLQ(t *testing.T) {
	dlq := &fakeWriter{}
	calls := 0
	c := newTestConsumer(func(ctx context.Context, msg Message) error {
		calls++
		return NewTransientError("still failing", nil)
	}, 2, dlq)

	err := c.processMessage(context.Background(), testMessage())
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 3 {
		t.Errorf("expected 1 attempt + 2 retries, got %d calls", calls)
	}
	if len(dlq.messages) != 1 {
		t.Fatalf("expected 1 DLQ message, got %d", len(dlq.messages))
	}

	dead := dlq.messages[0]
	if headerValue(dead, HeaderOriginalTopic) != "booking-events" {
		t.Errorf("missing original topic header")
	}
	if headerValue(dead, HeaderDLQGroup) != "reconciler" {
		t.Errorf("missing consumer group header")
	}
	if headerValue(dead, HeaderDLQError) == "" {
		t.Errorf("missing error header")
	}
	if headerValue(dead, HeaderEventID) != "evt-1" {
		t.Errorf("event id not preserved")
	}
}

func TestConsumer_ProcessMessage_PermanentSkipsRetry(t *testing.T) {
	dlq := &fakeWriter{}
	calls := 0
	c := newTestConsumer(func(ctx context.Context, msg Message) error {
		calls++
		return NewPermanentError("bad payload", nil)
	}, 5, dlq)

	if err := c.processMessage(context.Background(), testMessage()); err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("expected no retries, got %d calls", calls)
	}
	if len(dlq.messages) != 1 {
		t.Errorf("expected DLQ message")
	}
}

func TestConsumer_MiddlewareOrder(t *testing.T) {
	var order []string
	c := newTestConsumer(func(ctx context.Context, msg Message) error {
		order = append(order, "handler")
		return nil
	}, 0, nil)

	for _, name := range []string{"first", "second"} {
		c.Use(func(ctx context.Context, msg Message, next MessageHandler) error {
			order = append(order, name)
			return next(ctx, msg)
		})
	}

	if err := c.processMessage(context.Background(), testMessage()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"first", "second", "handler"}
	if len(order) != len(want) {
		t.Fatalf("unexpected order %v", order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("unexpected order %v", order)
		}
	}
}

func TestConsumer_ProcessMessage_CanceledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	c := newTestConsumer(func(ctx context.Context, msg Message) error {
		cancel()
		return NewTransientError("flaky", nil)
	}, 3, nil)
	c.retryBackoff = 1 << 40

	err := c.processMessage(ctx, testMessage())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
