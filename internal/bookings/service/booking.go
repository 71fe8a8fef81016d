package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"drxcare/internal/availability/calculator"
	availabilityerrors "drxcare/internal/availability/errors"
	"drxcare/internal/availability/repository"
	bookingserrors "drxcare/internal/bookings/errors"
	bookingsrepo "drxcare/internal/bookings/repository"
	"drxcare/internal/bookings/validator"
	"drxcare/pkg/config"
	apperrors "drxcare/pkg/errors"
	"drxcare/pkg/kafka"
	"drxcare/pkg/metrics"
	"drxcare/pkg/middleware"
	"drxcare/pkg/model"
	"drxcare/pkg/payment"
	"drxcare/pkg/sanitizer"

	"github.com/google/uuid"
)

const (
	lockPrefix  = "booking_lock_"
	eventSource = "bookings"

	lockRetryInitial = 50 * time.Millisecond
	lockRetryMax     = 400 * time.Millisecond

	ReasonPatientRequest = "patient_request"
	ReasonPaymentFailed  = "payment_failed"
)

type BookingService interface {
	OpenHold(ctx context.Context, req *model.HoldRequest) (*model.HoldResult, error)
	ConfirmHold(ctx context.Context, id string) (*model.BookingStatusResult, error)
	CancelHold(ctx context.Context, id, reason string) (*model.BookingStatusResult, error)
	GetBooking(ctx context.Context, id string) (*model.Booking, error)
	// ReconcileCancel retries the processor-side cancel of a canceled
	// booking whose intent could not be canceled inline.
	ReconcileCancel(ctx context.Context, id string) error
}

type Option func(*bookingService)

func WithPublisher(p kafka.Publisher) Option {
	return func(s *bookingService) { s.publisher = p }
}

func WithMetrics(m *metrics.BookingMetrics) Option {
	return func(s *bookingService) { s.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(s *bookingService) { s.now = now }
}

type bookingService struct {
	repo      bookingsrepo.BookingRepository
	locks     bookingsrepo.BookingLockRepository
	profiles  repository.ProfileRepository
	processor payment.Processor
	validator *validator.BookingValidator
	publisher kafka.Publisher
	metrics   *metrics.BookingMetrics
	now       func() time.Time
	cfg       *config.Config
}

func NewBookingService(
	repo bookingsrepo.BookingRepository,
	locks bookingsrepo.BookingLockRepository,
	profiles repository.ProfileRepository,
	processor payment.Processor,
	validator *validator.BookingValidator,
	cfg *config.Config,
	opts ...Option,
) BookingService {
	s := &bookingService{
		repo:      repo,
		locks:     locks,
		profiles:  profiles,
		processor: processor,
		validator: validator,
		publisher: kafka.NopPublisher{},
		now:       time.Now,
		cfg:       cfg,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *bookingService) OpenHold(ctx context.Context, req *model.HoldRequest) (*model.HoldResult, error) {
	s.sanitize(req)
	if err := s.validator.ValidateHold(req); err != nil {
		s.cfg.Log.Warn("Hold request validation failed", "doctor_id", req.DoctorID, "error", err)
		s.metrics.ObserveHold("invalid")
		return nil, apperrors.Validation("Invalid hold request", map[string]any{"errors": err})
	}

	profile, err := s.profiles.FindByID(ctx, req.DoctorID)
	if err != nil {
		if errors.Is(err, availabilityerrors.ErrProfileNotFound) {
			return nil, apperrors.NotFoundWithID("Doctor", req.DoctorID)
		}
		return nil, apperrors.Internal("Failed to load doctor profile", err)
	}
	currency := s.currencyFor(req, profile)

	sg := newSaga(StateNone, s.cfg.Log.With("doctor_id", req.DoctorID))
	if err := sg.advance(StateHolding); err != nil {
		return nil, apperrors.Internal("Failed to open hold", err)
	}

	release, err := s.acquireSlotLock(ctx, req.DoctorID)
	if err != nil {
		_ = sg.advance(StateFailed)
		return nil, err
	}
	defer release()

	slot := req.Slot()
	existing, err := s.repo.FindActiveByDoctor(ctx, req.DoctorID, slot.Start, slot.End)
	if err != nil {
		_ = sg.advance(StateFailed)
		s.metrics.ObserveHold("error")
		return nil, apperrors.Internal("Failed to check slot availability", err)
	}
	if !calculator.Open(slot, req.DoctorID, existing, s.now()) {
		_ = sg.advance(StateFailed)
		s.cfg.Log.Info("Slot no longer available",
			"doctor_id", req.DoctorID,
			"slot_start", slot.Start,
			"slot_end", slot.End,
		)
		s.metrics.ObserveHold("slot_unavailable")
		return nil, apperrors.SlotNoLongerAvailable()
	}

	started := time.Now()
	hold, err := s.processor.CreateHold(ctx, payment.HoldParams{
		IdempotencyKey: uuid.NewString(),
		DoctorID:       req.DoctorID,
		PatientID:      req.PatientID,
		Amount:         req.Amount,
		Currency:       currency,
		Metadata: map[string]string{
			"slot_start": slot.Start.UTC().Format(time.RFC3339),
			"slot_end":   slot.End.UTC().Format(time.RFC3339),
		},
	})
	s.metrics.ObserveProcessorLatency("create_hold", time.Since(started).Seconds())
	if err != nil {
		_ = sg.advance(StateFailed)
		s.cfg.Log.Error("Payment hold failed", "doctor_id", req.DoctorID, "patient_id", req.PatientID, "error", err)
		s.metrics.ObserveHold("payment_failed")
		return nil, apperrors.PaymentHoldFailed(err)
	}

	booking := &model.Booking{
		DoctorID:        req.DoctorID,
		PatientID:       req.PatientID,
		SlotStart:       slot.Start.UTC(),
		SlotEnd:         slot.End.UTC(),
		PaymentIntentID: hold.IntentID,
		CustomerRef:     hold.CustomerRef,
		Amount:          req.Amount,
		Currency:        currency,
		Status:          model.BookingHeld,
	}
	if err := s.persistHold(ctx, booking); err != nil {
		_ = sg.advance(StateFailed)
		s.compensate(ctx, hold.IntentID, err)
		s.metrics.ObserveHold("error")
		return nil, apperrors.Internal("Failed to create booking", err)
	}
	_ = sg.advance(StateHeld)

	s.cfg.Log.Info("Booking held",
		"booking_id", booking.ID,
		"doctor_id", booking.DoctorID,
		"patient_id", booking.PatientID,
		"payment_intent_id", booking.PaymentIntentID,
		"slot_start", booking.SlotStart,
	)
	s.metrics.ObserveHold("success")
	s.publish(ctx, kafka.EventBookingHeld, booking, "", nil)

	return &model.HoldResult{
		BookingID:           booking.ID,
		Status:              booking.Status,
		PaymentIntentID:     hold.IntentID,
		PaymentClientSecret: hold.ClientSecret,
		EphemeralKey:        hold.EphemeralKey,
		CustomerRef:         hold.CustomerRef,
		SlotStart:           booking.SlotStart,
		SlotEnd:             booking.SlotEnd,
	}, nil
}

func (s *bookingService) persistHold(ctx context.Context, booking *model.Booking) error {
	if err := s.validator.ValidateBooking(booking); err != nil {
		return err
	}
	return s.repo.Create(ctx, booking)
}

// compensate cancels an intent that has no booking behind it.
func (s *bookingService) compensate(ctx context.Context, intentID string, cause error) {
	s.metrics.ObserveCompensation()
	ctx = context.WithoutCancel(ctx)

	if _, err := s.processor.Cancel(ctx, intentID); err != nil {
		s.cfg.Log.Error("Failed to cancel stray payment hold",
			"payment_intent_id", intentID,
			"cause", cause,
			"error", apperrors.RemoteCancelFailed(err),
		)
		s.metrics.ObserveRemoteCancelFailed()
		return
	}
	s.cfg.Log.Warn("Canceled stray payment hold after persistence failure",
		"payment_intent_id", intentID,
		"cause", cause,
	)
}

func (s *bookingService) ConfirmHold(ctx context.Context, id string) (*model.BookingStatusResult, error) {
	booking, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	switch booking.Status {
	case model.BookingConfirmed:
		s.metrics.ObserveConfirm("already_confirmed")
		return statusResult(booking), nil
	case model.BookingCanceled:
		s.metrics.ObserveConfirm("conflict")
		return nil, apperrors.Conflict("Booking has been canceled")
	}

	log := s.cfg.Log.With("booking_id", booking.ID, "payment_intent_id", booking.PaymentIntentID)
	sg := newSaga(stateOf(booking.Status), log)
	if err := sg.advance(StateConfirming); err != nil {
		return nil, apperrors.Internal("Failed to confirm booking", err)
	}

	intent, err := s.retrieve(ctx, booking.PaymentIntentID)
	if err != nil {
		log.Error("Failed to retrieve payment intent", "error", err)
		s.metrics.ObserveConfirm("error")
		return nil, apperrors.Unavailable("Payment processor")
	}

	switch {
	case intent.Status == payment.StatusRequiresCapture:
		started := time.Now()
		captured, err := s.processor.Capture(ctx, intent.ID)
		s.metrics.ObserveProcessorLatency("capture", time.Since(started).Seconds())
		if err != nil {
			log.Error("Failed to capture payment", "error", err)
			s.metrics.ObserveConfirm("error")
			return nil, apperrors.Unavailable("Payment processor")
		}
		if captured.Status != payment.StatusSucceeded {
			return s.failConfirmation(ctx, booking, sg, captured.Status)
		}
	case intent.Status == payment.StatusSucceeded:
	case intent.AwaitingPayment():
		log.Info("Payment not completed yet", "payment_state", intent.Status)
		s.metrics.ObserveConfirm("pending")
		return nil, apperrors.PaymentPending(string(intent.Status))
	default:
		if intent.LastPaymentError != nil {
			log.Warn("Payment attempt failed",
				"code", intent.LastPaymentError.Code,
				"decline_code", intent.LastPaymentError.DeclineCode,
			)
		}
		return s.failConfirmation(ctx, booking, sg, intent.Status)
	}

	err = s.repo.UpdateStatus(ctx, booking.ID, model.BookingHeld, model.BookingConfirmed, "")
	if err != nil {
		if errors.Is(err, bookingserrors.ErrStatusConflict) {
			return s.resolveConflict(ctx, booking.ID, model.BookingConfirmed)
		}
		log.Error("Payment captured but booking not confirmed", "error", err)
		s.metrics.ObserveConfirm("error")
		return nil, apperrors.Internal("Failed to confirm booking", err)
	}
	_ = sg.advance(StateConfirmed)

	booking.Status = model.BookingConfirmed
	log.Info("Booking confirmed")
	s.metrics.ObserveConfirm("success")
	s.publish(ctx, kafka.EventBookingConfirmed, booking, "", nil)
	return statusResult(booking), nil
}

func (s *bookingService) failConfirmation(ctx context.Context, booking *model.Booking, sg *saga, state payment.IntentStatus) (*model.BookingStatusResult, error) {
	cause := fmt.Errorf("payment intent %s is %s", booking.PaymentIntentID, state)
	s.cfg.Log.Warn("Payment confirmation failed, canceling hold",
		"booking_id", booking.ID,
		"payment_state", state,
	)
	s.metrics.ObserveConfirm("payment_failed")

	if err := sg.advance(StateCanceling); err != nil {
		return nil, apperrors.Internal("Failed to cancel booking", err)
	}
	if err := s.cancel(ctx, booking, ReasonPaymentFailed); err != nil {
		return nil, err
	}
	_ = sg.advance(StateCanceled)
	return nil, apperrors.PaymentConfirmationFailed(cause)
}

func (s *bookingService) CancelHold(ctx context.Context, id, reason string) (*model.BookingStatusResult, error) {
	booking, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	switch booking.Status {
	case model.BookingCanceled:
		s.metrics.ObserveCancel("already_canceled")
		return statusResult(booking), nil
	case model.BookingConfirmed:
		s.metrics.ObserveCancel("conflict")
		return nil, apperrors.Conflict("Confirmed bookings cannot be canceled")
	}

	reason = sanitizer.SanitizeReason(reason)
	if reason == "" {
		reason = ReasonPatientRequest
	}

	sg := newSaga(stateOf(booking.Status), s.cfg.Log.With("booking_id", booking.ID))
	if err := sg.advance(StateCanceling); err != nil {
		return nil, apperrors.Internal("Failed to cancel booking", err)
	}
	if err := s.cancel(ctx, booking, reason); err != nil {
		return nil, err
	}
	_ = sg.advance(StateCanceled)
	return statusResult(booking), nil
}

// cancel releases the payment hold when it is still open and marks the
// booking canceled. A processor failure never blocks the local transition.
func (s *bookingService) cancel(ctx context.Context, booking *model.Booking, reason string) error {
	log := s.cfg.Log.With("booking_id", booking.ID, "payment_intent_id", booking.PaymentIntentID)

	if remoteErr := s.cancelIntent(ctx, booking.PaymentIntentID); remoteErr != nil {
		log.Error("Remote cancel failed, deferring to reconciler", "error", apperrors.RemoteCancelFailed(remoteErr))
		s.metrics.ObserveRemoteCancelFailed()
		s.publish(ctx, kafka.EventBookingRemoteCancelFailed, booking, reason, remoteErr)
	}

	err := s.repo.UpdateStatus(ctx, booking.ID, model.BookingHeld, model.BookingCanceled, reason)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrStatusConflict) {
			result, err := s.resolveConflict(ctx, booking.ID, model.BookingCanceled)
			if err != nil {
				return err
			}
			booking.Status = result.Status
			return nil
		}
		log.Error("Failed to mark booking canceled", "error", err)
		s.metrics.ObserveCancel("error")
		return apperrors.Internal("Failed to cancel booking", err)
	}

	booking.Status = model.BookingCanceled
	booking.CancelReason = reason
	log.Info("Booking canceled", "reason", reason)
	s.metrics.ObserveCancel("success")
	s.publish(ctx, kafka.EventBookingCanceled, booking, reason, nil)
	return nil
}

// cancelIntent cancels intentID unless it already reached a terminal state.
func (s *bookingService) cancelIntent(ctx context.Context, intentID string) error {
	if intentID == "" {
		return nil
	}
	intent, err := s.retrieve(ctx, intentID)
	if err != nil {
		return err
	}
	if intent.Status.IsTerminal() {
		return nil
	}

	started := time.Now()
	_, err = s.processor.Cancel(ctx, intentID)
	s.metrics.ObserveProcessorLatency("cancel", time.Since(started).Seconds())
	return err
}

func (s *bookingService) ReconcileCancel(ctx context.Context, id string) error {
	booking, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if booking.Status != model.BookingCanceled {
		s.cfg.Log.Warn("Skipping reconcile of booking that is not canceled",
			"booking_id", booking.ID,
			"status", booking.Status,
		)
		return nil
	}

	if err := s.cancelIntent(ctx, booking.PaymentIntentID); err != nil {
		return fmt.Errorf("reconcile cancel of %s: %w", booking.PaymentIntentID, err)
	}
	s.cfg.Log.Info("Payment hold reconciled",
		"booking_id", booking.ID,
		"payment_intent_id", booking.PaymentIntentID,
	)
	return nil
}

func (s *bookingService) GetBooking(ctx context.Context, id string) (*model.Booking, error) {
	return s.load(ctx, id)
}

func (s *bookingService) load(ctx context.Context, id string) (*model.Booking, error) {
	id = sanitizer.SanitizeID(id)
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Booking", id)
		}
		if errors.Is(err, bookingserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid booking ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve booking", err)
	}
	return booking, nil
}

// resolveConflict handles a lost compare-and-set: the booking moved while we
// talked to the processor. Reaching want anyway is success.
func (s *bookingService) resolveConflict(ctx context.Context, id string, want model.BookingStatus) (*model.BookingStatusResult, error) {
	current, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status == want {
		return statusResult(current), nil
	}
	return nil, apperrors.Conflict(fmt.Sprintf("Booking is already %s", current.Status))
}

func (s *bookingService) retrieve(ctx context.Context, intentID string) (*payment.Intent, error) {
	started := time.Now()
	intent, err := s.processor.Retrieve(ctx, intentID)
	s.metrics.ObserveProcessorLatency("retrieve", time.Since(started).Seconds())
	return intent, err
}

func (s *bookingService) acquireSlotLock(ctx context.Context, doctorID string) (func(), error) {
	now := s.now().UTC()
	lock := &model.BookingLock{
		ID:        lockPrefix + doctorID,
		Owner:     uuid.NewString(),
		CreatedAt: now,
	}

	if err := s.acquireWithBackoff(ctx, lock); err != nil {
		if errors.Is(err, bookingserrors.ErrLockHeld) {
			s.cfg.Log.Info("Slot lock contended", "doctor_id", doctorID, "waited", s.cfg.SlotLockWait)
			s.metrics.ObserveHold("lock_contended")
			return nil, apperrors.HoldInProgress()
		}
		s.metrics.ObserveHold("error")
		return nil, apperrors.Internal("Failed to acquire slot lock", err)
	}

	return func() {
		if err := s.locks.Release(context.WithoutCancel(ctx), lock.ID, lock.Owner); err != nil {
			s.cfg.Log.Warn("Failed to release booking lock", "lock_id", lock.ID, "error", err)
		}
	}, nil
}

// acquireWithBackoff retries a held lock until SlotLockWait runs out.
func (s *bookingService) acquireWithBackoff(ctx context.Context, lock *model.BookingLock) error {
	deadline := time.Now().Add(s.cfg.SlotLockWait)
	backoff := lockRetryInitial

	for {
		lock.ExpiresAt = s.now().UTC().Add(s.cfg.SlotLockTTL)
		err := s.locks.Acquire(ctx, lock)
		if !errors.Is(err, bookingserrors.ErrLockHeld) {
			return err
		}
		if time.Until(deadline) < backoff {
			return err
		}

		select {
		case <-ctx.Done():
			return err
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, lockRetryMax)
	}
}

func (s *bookingService) publish(ctx context.Context, eventType string, booking *model.Booking, reason string, cause error) {
	event := kafka.BookingEvent{
		BookingID:       booking.ID,
		DoctorID:        booking.DoctorID,
		PatientID:       booking.PatientID,
		PaymentIntentID: booking.PaymentIntentID,
		Status:          string(booking.Status),
		SlotStart:       booking.SlotStart,
		SlotEnd:         booking.SlotEnd,
		Reason:          reason,
		OccurredAt:      s.now().UTC(),
	}
	if cause != nil {
		event.Error = cause.Error()
	}

	msg, err := kafka.NewMessage().
		WithKey(booking.ID).
		WithValue(event).
		WithEventID("").
		WithEventType(eventType).
		WithCorrelationID(middleware.RequestIDFrom(ctx)).
		WithSchemaVersion(kafka.SchemaVersion).
		WithSource(eventSource).
		Build()
	if err != nil {
		s.cfg.Log.Error("Failed to build booking event", "event_type", eventType, "error", err)
		return
	}

	if err := s.publisher.Publish(context.WithoutCancel(ctx), msg); err != nil {
		s.cfg.Log.Error("Failed to publish booking event",
			"event_type", eventType,
			"booking_id", booking.ID,
			"error", err,
		)
	}
}

func (s *bookingService) sanitize(req *model.HoldRequest) {
	req.DoctorID = sanitizer.SanitizeID(req.DoctorID)
	req.PatientID = sanitizer.SanitizeID(req.PatientID)
	if req.Currency != "" {
		if c := sanitizer.SanitizeCurrency(req.Currency); c != "" {
			req.Currency = c
		}
	}
	if req.TimeZone != "" {
		if tz := sanitizer.SanitizeTimeZone(req.TimeZone); tz != "" {
			req.TimeZone = tz
		}
	}
}

func (s *bookingService) currencyFor(req *model.HoldRequest, profile *model.DoctorProfile) string {
	if req.Currency != "" {
		return req.Currency
	}
	if c := sanitizer.SanitizeCurrency(profile.Currency); c != "" {
		return c
	}
	return s.cfg.DefaultCurrency
}

func statusResult(b *model.Booking) *model.BookingStatusResult {
	return &model.BookingStatusResult{BookingID: b.ID, Status: b.Status}
}
