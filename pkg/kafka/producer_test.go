package kafka

import (
	"context"
	"errors"
	"testing"

	"drxcare/pkg/logger"
)

func newTestProducer(w, dlq messageWriter) *Producer {
	return &Producer{
		writer:    w,
		dlqWriter: dlq,
		topic:     "booking-events",
		log:       logger.Discard(),
	}
}

func TestProducer_Publish(t *testing.T) {
	w := &fakeWriter{}
	p := newTestProducer(w, nil)

	msg, err := NewMessage().WithKey("booking-1").WithValue(map[string]string{"a": "b"}).WithEventType(EventBookingHeld).Build()
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	var seenTopic string
	p.Use(func(ctx context.Context, m Message, next func(context.Context, Message) error) error {
		seenTopic = m.Topic
		return next(ctx, m)
	})

	if err := p.Publish(context.Background(), msg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seenTopic != "booking-events" {
		t.Errorf("expected topic to default to producer topic, got %q", seenTopic)
	}
	if len(w.messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(w.messages))
	}
	if string(w.messages[0].Key) != "booking-1" {
		t.Errorf("unexpected key %s", w.messages[0].Key)
	}
	if headerValue(w.messages[0], HeaderEventType) != EventBookingHeld {
		t.Errorf("event type header missing")
	}
}

func TestProducer_Publish_Validation(t *testing.T) {
	p := newTestProducer(&fakeWriter{}, nil)

	if err := p.Publish(context.Background(), Message{Value: []byte("x")}); !errors.Is(err, ErrEmptyKey) {
		t.Errorf("expected ErrEmptyKey, got %v", err)
	}
	if err := p.Publish(context.Background(), Message{Key: "k"}); !errors.Is(err, ErrEmptyValue) {
		t.Errorf("expected ErrEmptyValue, got %v", err)
	}
}

func TestProducer_Publish_FailureGoesToDLQ(t *testing.T) {
	writeErr := errors.New("leader not available")
	dlq := &fakeWriter{}
	p := newTestProducer(&fakeWriter{err: writeErr}, dlq)

	msg := Message{Key: "k", Value: []byte("{}"), Headers: map[string]string{}}
	err := p.Publish(context.Background(), msg)
	if !errors.Is(err, writeErr) {
		t.Errorf("expected original error, got %v", err)
	}
	if len(dlq.messages) != 1 {
		t.Fatalf("expected DLQ message")
	}
	if len(msg.Headers) != 0 {
		t.Errorf("caller headers were mutated: %v", msg.Headers)
	}
}

func TestProducer_Close(t *testing.T) {
	w := &fakeWriter{}
	dlq := &fakeWriter{}
	p := newTestProducer(w, dlq)

	if err := p.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !w.closed || !dlq.closed {
		t.Error("expected writers to be closed")
	}
	if err := p.Close(); err != nil {
		t.Errorf("second close should be a no-op, got %v", err)
	}
	if err := p.Publish(context.Background(), Message{Key: "k", Value: []byte("x")}); !errors.Is(err, ErrProducerClosed) {
		t.Errorf("expected ErrProducerClosed, got %v", err)
	}
}
