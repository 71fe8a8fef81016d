package kafka

import (
	"context"
	"time"
)

const SchemaVersion = "1"

// Booking lifecycle events.
const (
	EventBookingHeld               = "booking.held"
	EventBookingConfirmed          = "booking.confirmed"
	EventBookingCanceled           = "booking.canceled"
	EventBookingRemoteCancelFailed = "booking.remote_cancel_failed"
)

// Verification events.
const (
	EventVerificationUpdated = "verification.updated"
	EventVerificationSynced  = "verification.synced"
)

type BookingEvent struct {
	BookingID       string    `json:"booking_id"`
	DoctorID        string    `json:"doctor_id"`
	PatientID       string    `json:"patient_id"`
	PaymentIntentID string    `json:"payment_intent_id"`
	Status          string    `json:"status"`
	SlotStart       time.Time `json:"slot_start"`
	SlotEnd         time.Time `json:"slot_end"`
	Reason          string    `json:"reason,omitempty"`
	Error           string    `json:"error,omitempty"`
	OccurredAt      time.Time `json:"occurred_at"`
}

type VerificationUpdatedEvent struct {
	UserID     string    `json:"user_id"`
	Status     string    `json:"status"`
	OccurredAt time.Time `json:"occurred_at"`
}

type VerificationSyncedEvent struct {
	UpdatedCount int       `json:"updated_count"`
	Batches      int       `json:"batches"`
	Skipped      int       `json:"skipped"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// Publisher is the producing side used by services.
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
}

// NopPublisher drops every message. It is used when events are disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Message) error { return nil }
