package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"drxcare/internal/availability/calculator"
	availabilityerrors "drxcare/internal/availability/errors"
	"drxcare/internal/availability/repository"
	"drxcare/internal/availability/validator"
	"drxcare/pkg/config"
	apperrors "drxcare/pkg/errors"
	"drxcare/pkg/metrics"
	"drxcare/pkg/model"
	"drxcare/pkg/sanitizer"
)

// BookingReader is the part of the booking store availability needs.
type BookingReader interface {
	FindActiveByDoctor(ctx context.Context, doctorID string, from, to time.Time) ([]*model.Booking, error)
}

type AvailabilityService interface {
	GetAvailableSlots(ctx context.Context, doctorID, date, timeZone string) (*model.AvailableSlots, error)
}

type availabilityService struct {
	profiles   repository.ProfileRepository
	bookings   BookingReader
	calculator *calculator.Calculator
	validator  *validator.ProfileValidator
	metrics    *metrics.BookingMetrics
	cfg        *config.Config
}

func NewAvailabilityService(
	profiles repository.ProfileRepository,
	bookings BookingReader,
	calc *calculator.Calculator,
	validator *validator.ProfileValidator,
	m *metrics.BookingMetrics,
	cfg *config.Config,
) AvailabilityService {
	return &availabilityService{
		profiles:   profiles,
		bookings:   bookings,
		calculator: calc,
		validator:  validator,
		metrics:    m,
		cfg:        cfg,
	}
}

func (s *availabilityService) GetAvailableSlots(ctx context.Context, doctorID, date, timeZone string) (*model.AvailableSlots, error) {
	doctorID = sanitizer.SanitizeID(doctorID)
	if doctorID == "" {
		return nil, apperrors.InvalidInput("Doctor ID cannot be empty")
	}
	if timeZone != "" {
		if timeZone = sanitizer.SanitizeTimeZone(timeZone); timeZone == "" {
			return nil, apperrors.InvalidInput("Invalid time zone")
		}
	}

	profile, err := s.profiles.FindByID(ctx, doctorID)
	if err != nil {
		if errors.Is(err, availabilityerrors.ErrProfileNotFound) {
			s.metrics.ObserveAvailability("not_found")
			return nil, apperrors.NotFoundWithID("Doctor", doctorID)
		}
		s.metrics.ObserveAvailability("error")
		return nil, apperrors.Internal("Failed to load doctor profile", err)
	}

	if err := s.validator.ValidateProfile(profile); err != nil {
		s.cfg.Log.Warn("Doctor availability misconfigured", "doctor_id", doctorID, "error", err)
		s.metrics.ObserveAvailability("invalid_configuration")
		return nil, apperrors.InvalidConfiguration("Doctor availability is misconfigured").
			WithDetails(map[string]any{"errors": err})
	}

	doctorLoc, err := calculator.LoadDoctorLocation(profile.TimeZone)
	if err != nil {
		return nil, err
	}
	requestorLoc := doctorLoc
	if timeZone != "" {
		if requestorLoc, err = time.LoadLocation(timeZone); err != nil {
			return nil, apperrors.InvalidInput(fmt.Sprintf("unknown time zone: %s", timeZone))
		}
	}

	day, err := calculator.ResolveDay(date, requestorLoc, doctorLoc)
	if err != nil {
		return nil, err
	}

	// Ranges that cross midnight end on the following day.
	from := time.Date(day.Year, day.Month, day.Day, 0, 0, 0, 0, doctorLoc)
	to := from.AddDate(0, 0, 2)
	existing, err := s.bookings.FindActiveByDoctor(ctx, doctorID, from, to)
	if err != nil {
		s.metrics.ObserveAvailability("error")
		return nil, apperrors.Internal("Failed to load bookings", err)
	}

	slots, err := s.calculator.ComputeSlots(calculator.Input{
		DoctorID:          doctorID,
		Date:              date,
		RequestorTimeZone: requestorLoc.String(),
		DoctorTimeZone:    profile.TimeZone,
		Template:          profile.Availability,
		DurationMin:       profile.ConsultationDurationMin,
		Bookings:          existing,
	})
	if err != nil {
		s.metrics.ObserveAvailability("error")
		return nil, err
	}

	s.cfg.Log.Debug("Computed available slots",
		"doctor_id", doctorID,
		"date", day.String(),
		"slots", len(slots),
		"bookings", len(existing),
	)
	s.metrics.ObserveAvailability("success")

	return &model.AvailableSlots{
		DoctorID:    doctorID,
		Date:        day.String(),
		TimeZone:    requestorLoc.String(),
		DurationMin: profile.ConsultationDurationMin,
		Slots:       slots,
	}, nil
}
