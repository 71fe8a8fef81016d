package validator

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"drxcare/pkg/logger"
	"drxcare/pkg/model"

	"github.com/go-playground/validator/v10"
)

// MaxSlotLength bounds a single reservation interval.
const MaxSlotLength = 8 * time.Hour

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

type BookingValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewBookingValidator(log *logger.Logger) *BookingValidator {
	v := validator.New(validator.WithRequiredStructEnabled())

	if err := v.RegisterValidation("minute_aligned", validateMinuteAligned); err != nil {
		log.Fatal("Failed to register 'minute_aligned' validator",
			"error", err,
		)
	}

	log.Debug("Booking validator initialized")

	return &BookingValidator{
		validate: v,
		logger:   log,
	}
}

// validateMinuteAligned rejects instants carrying seconds, which no computed
// slot ever has.
func validateMinuteAligned(fl validator.FieldLevel) bool {
	t, ok := fl.Field().Interface().(time.Time)
	if !ok {
		return false
	}
	return t.Second() == 0 && t.Nanosecond() == 0
}

func (v *BookingValidator) ValidateHold(req *model.HoldRequest) error {
	if err := v.validate.Struct(req); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}

	var errs ValidationErrors
	for _, f := range []struct {
		name  string
		value time.Time
	}{{"SlotStart", req.SlotStart}, {"SlotEnd", req.SlotEnd}} {
		if err := v.validate.Var(f.value, "minute_aligned"); err != nil {
			errs = append(errs, ValidationError{Field: f.name, Message: fmt.Sprintf("%s must be a whole minute", f.name)})
		}
	}
	if req.SlotEnd.Sub(req.SlotStart) > MaxSlotLength {
		errs = append(errs, ValidationError{
			Field:   "SlotEnd",
			Message: fmt.Sprintf("slot cannot be longer than %s", MaxSlotLength),
		})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ValidateBooking checks a booking record right before it is persisted.
func (v *BookingValidator) ValidateBooking(booking *model.Booking) error {
	if err := v.validate.Struct(booking); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}
	return nil
}

func (v *BookingValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "max":
			message = fmt.Sprintf("%s must be at most %s characters", err.Field(), err.Param())
		case "len":
			message = fmt.Sprintf("%s must be exactly %s characters", err.Field(), err.Param())
		case "mongodb":
			message = fmt.Sprintf("%s must be a valid MongoDB ObjectID", err.Field())
		case "oneof":
			message = fmt.Sprintf("%s must be one of: %s", err.Field(), err.Param())
		case "gt":
			message = fmt.Sprintf("%s must be greater than %s", err.Field(), err.Param())
		case "gtfield":
			message = fmt.Sprintf("%s must be after %s", err.Field(), err.Param())
		case "timezone":
			message = fmt.Sprintf("%s must be an IANA time zone", err.Field())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
