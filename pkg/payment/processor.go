package payment

import "context"

// IntentStatus mirrors the Stripe PaymentIntent status values.
type IntentStatus string

const (
	StatusRequiresPaymentMethod IntentStatus = "requires_payment_method"
	StatusRequiresConfirmation  IntentStatus = "requires_confirmation"
	StatusRequiresAction        IntentStatus = "requires_action"
	StatusProcessing            IntentStatus = "processing"
	StatusRequiresCapture       IntentStatus = "requires_capture"
	StatusSucceeded             IntentStatus = "succeeded"
	StatusCanceled              IntentStatus = "canceled"
)

// IsTerminal reports whether the intent can no longer change state.
func (s IntentStatus) IsTerminal() bool {
	return s == StatusSucceeded || s == StatusCanceled
}

// InFlight reports whether the payer has not finished paying yet.
func (s IntentStatus) InFlight() bool {
	switch s {
	case StatusRequiresConfirmation, StatusRequiresAction, StatusProcessing:
		return true
	}
	return false
}

type HoldParams struct {
	// IdempotencyKey makes retried hold creation return the same intent.
	IdempotencyKey string
	DoctorID       string
	PatientID      string
	CustomerRef    string
	Amount         int64
	Currency       string
	Metadata       map[string]string
}

// Hold is the result of authorizing a payment without capturing it.
type Hold struct {
	IntentID     string
	ClientSecret string
	EphemeralKey string
	CustomerRef  string
	Status       IntentStatus
}

// PaymentError is the processor's record of the last failed payment attempt.
type PaymentError struct {
	Type        string `json:"type"`
	Code        string `json:"code"`
	DeclineCode string `json:"decline_code"`
	Message     string `json:"message"`
}

type Intent struct {
	ID               string        `json:"id"`
	Status           IntentStatus  `json:"status"`
	Amount           int64         `json:"amount"`
	Currency         string        `json:"currency"`
	LastPaymentError *PaymentError `json:"last_payment_error"`
}

// AwaitingPayment reports whether the payer can still complete the intent.
// A fresh intent sits in requires_payment_method until a card is submitted;
// it only counts as failed once an attempt left a last_payment_error.
func (i *Intent) AwaitingPayment() bool {
	if i.Status == StatusRequiresPaymentMethod {
		return i.LastPaymentError == nil
	}
	return i.Status.InFlight()
}

// Processor is the external payment authorization provider.
type Processor interface {
	CreateHold(ctx context.Context, params HoldParams) (*Hold, error)
	Retrieve(ctx context.Context, intentID string) (*Intent, error)
	Capture(ctx context.Context, intentID string) (*Intent, error)
	Cancel(ctx context.Context, intentID string) (*Intent, error)
}
