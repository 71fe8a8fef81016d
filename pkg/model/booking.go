package model

import (
	"time"
)

type BookingStatus string

const (
	BookingHeld      BookingStatus = "held"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCanceled  BookingStatus = "canceled"
)

// IsTerminal reports whether no further transition is allowed from s.
func (s BookingStatus) IsTerminal() bool {
	return s == BookingConfirmed || s == BookingCanceled
}

// BlocksSlot reports whether a booking in status s makes its interval unavailable.
func (s BookingStatus) BlocksSlot() bool {
	return s == BookingHeld || s == BookingConfirmed
}

type Booking struct {
	ID              string        `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	DoctorID        string        `json:"doctor_id" bson:"doctor_id" validate:"required,max=128"`
	PatientID       string        `json:"patient_id" bson:"patient_id" validate:"required,max=128"`
	SlotStart       time.Time     `json:"slot_start" bson:"slot_start" validate:"required"`
	SlotEnd         time.Time     `json:"slot_end" bson:"slot_end" validate:"required,gtfield=SlotStart"`
	PaymentIntentID string        `json:"payment_intent_id" bson:"payment_intent_id" validate:"required"`
	CustomerRef     string        `json:"customer_ref,omitempty" bson:"customer_ref,omitempty"`
	Amount          int64         `json:"amount" bson:"amount" validate:"gt=0"`
	Currency        string        `json:"currency" bson:"currency" validate:"required,len=3"`
	Status          BookingStatus `json:"status" bson:"status" validate:"required,oneof=held confirmed canceled"`
	CancelReason    string        `json:"cancel_reason,omitempty" bson:"cancel_reason,omitempty"`
	CreatedAt       time.Time     `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at" bson:"updated_at"`
}

func (b *Booking) Slot() Slot {
	return Slot{Start: b.SlotStart, End: b.SlotEnd}
}

// HoldRequest is the input of a reservation attempt. Amount is in the currency's minor unit.
type HoldRequest struct {
	DoctorID  string    `json:"doctor_id" validate:"required,max=128"`
	PatientID string    `json:"patient_id" validate:"required,max=128"`
	SlotStart time.Time `json:"slot_start" validate:"required"`
	SlotEnd   time.Time `json:"slot_end" validate:"required,gtfield=SlotStart"`
	Amount    int64     `json:"amount" validate:"gt=0"`
	Currency  string    `json:"currency,omitempty" validate:"omitempty,len=3"`
	TimeZone  string    `json:"time_zone,omitempty" validate:"omitempty,timezone"`
}

func (r *HoldRequest) Slot() Slot {
	return Slot{Start: r.SlotStart, End: r.SlotEnd}
}

type HoldResult struct {
	BookingID           string        `json:"booking_id"`
	Status              BookingStatus `json:"status"`
	PaymentIntentID     string        `json:"payment_intent_id"`
	PaymentClientSecret string        `json:"payment_client_secret"`
	EphemeralKey        string        `json:"ephemeral_key,omitempty"`
	CustomerRef         string        `json:"customer_ref,omitempty"`
	SlotStart           time.Time     `json:"slot_start"`
	SlotEnd             time.Time     `json:"slot_end"`
}

type BookingStatusResult struct {
	BookingID string        `json:"booking_id"`
	Status    BookingStatus `json:"status"`
}
