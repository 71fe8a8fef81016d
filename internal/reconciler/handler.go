// Package reconciler retries payment-hold cancellations that failed while a
// booking was being canceled. It consumes booking events and acts only on
// booking.remote_cancel_failed.
package reconciler

import (
	"context"
	"errors"
	"net/http"

	apperrors "drxcare/pkg/errors"
	"drxcare/pkg/kafka"
	"drxcare/pkg/logger"
	"drxcare/pkg/payment"
)

// Canceler is the part of the booking service the reconciler drives.
type Canceler interface {
	ReconcileCancel(ctx context.Context, bookingID string) error
}

type Handler struct {
	bookings Canceler
	log      *logger.Logger
}

func NewHandler(bookings Canceler, log *logger.Logger) *Handler {
	return &Handler{
		bookings: bookings,
		log:      log.Component("reconciler"),
	}
}

// Handle is a kafka.MessageHandler.
func (h *Handler) Handle(ctx context.Context, msg kafka.Message) error {
	if msg.GetEventType() != kafka.EventBookingRemoteCancelFailed {
		return nil
	}

	var event kafka.BookingEvent
	if err := msg.DecodeValue(&event); err != nil {
		return kafka.NewPermanentError("decode booking event", err)
	}
	if event.BookingID == "" {
		return kafka.NewPermanentError("booking event without booking_id", kafka.ErrInvalidMessage)
	}

	err := h.bookings.ReconcileCancel(ctx, event.BookingID)
	if err == nil {
		return nil
	}

	h.log.Warn("Reconcile cancel failed",
		"booking_id", event.BookingID,
		"payment_intent_id", event.PaymentIntentID,
		"retry", msg.GetRetryCount(),
		"error", err,
	)
	if permanent(err) {
		return kafka.NewPermanentError("reconcile cancel", err)
	}
	return kafka.NewTransientError("reconcile cancel", err)
}

// permanent reports failures that will not succeed on retry: the booking is
// gone or the processor rejected the request outright.
func permanent(err error) bool {
	if apperrors.HasCode(err, apperrors.CodeNotFound) || apperrors.HasCode(err, apperrors.CodeInvalidInput) {
		return true
	}
	var stripeErr *payment.StripeError
	if errors.As(err, &stripeErr) {
		return stripeErr.StatusCode >= 400 && stripeErr.StatusCode < 500 &&
			stripeErr.StatusCode != http.StatusTooManyRequests &&
			stripeErr.StatusCode != http.StatusConflict
	}
	return false
}
