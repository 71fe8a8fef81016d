package validator

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"drxcare/internal/availability/calculator"
	"drxcare/pkg/logger"
	"drxcare/pkg/model"

	"github.com/go-playground/validator/v10"
)

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

type ProfileValidator struct {
	validate       *validator.Validate
	minDurationMin int
	logger         *logger.Logger
}

func NewProfileValidator(minDurationMin int, log *logger.Logger) *ProfileValidator {
	v := validator.New()

	if err := v.RegisterValidation("hhmm", validateHHMM); err != nil {
		log.Fatal("Failed to register 'hhmm' validator",
			"error", err,
		)
	}

	return &ProfileValidator{
		validate:       v,
		minDurationMin: minDurationMin,
		logger:         log,
	}
}

func validateHHMM(fl validator.FieldLevel) bool {
	_, err := calculator.ParseClock(fl.Field().String())
	return err == nil
}

// ValidateProfile checks the scheduling settings of a doctor profile. The
// returned ValidationErrors name the offending weekday and range index.
func (v *ProfileValidator) ValidateProfile(profile *model.DoctorProfile) error {
	var errs ValidationErrors

	if profile.ConsultationDurationMin < v.minDurationMin {
		errs = append(errs, ValidationError{
			Field:   "ConsultationDurationMin",
			Message: fmt.Sprintf("must be at least %d minutes, got %d", v.minDurationMin, profile.ConsultationDurationMin),
		})
	}
	if profile.TimeZone != "" {
		if _, err := time.LoadLocation(profile.TimeZone); err != nil {
			errs = append(errs, ValidationError{Field: "TimeZone", Message: fmt.Sprintf("unknown time zone %q", profile.TimeZone)})
		}
	}

	for day, ranges := range profile.Availability {
		if len(day) != 1 || day[0] < '0' || day[0] > '6' {
			errs = append(errs, ValidationError{Field: "Availability", Message: fmt.Sprintf("invalid weekday key %q", day)})
			continue
		}
		for i, r := range ranges {
			field := fmt.Sprintf("Availability[%s][%d]", day, i)
			if err := v.validate.Struct(r); err != nil {
				var validationErrs validator.ValidationErrors
				if errors.As(err, &validationErrs) {
					for _, fe := range validationErrs {
						errs = append(errs, ValidationError{
							Field:   field + "." + fe.Field(),
							Message: fmt.Sprintf("%s must be HH:MM", fe.Field()),
						})
					}
					continue
				}
				return err
			}
			if r.Start == r.End {
				errs = append(errs, ValidationError{Field: field, Message: "start and end cannot be equal"})
			}
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
