package validator

import (
	"drxcare/pkg/logger"
	"drxcare/pkg/model"

	"github.com/go-playground/validator/v10"
)

type VerificationValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewVerificationValidator(log *logger.Logger) *VerificationValidator {
	v := validator.New()

	if err := v.RegisterValidation("verification_status", validateVerificationStatus); err != nil {
		log.Fatal("Failed to register 'verification_status' validator",
			"error", err,
		)
	}

	return &VerificationValidator{
		validate: v,
		logger:   log,
	}
}

func validateVerificationStatus(fl validator.FieldLevel) bool {
	return model.VerificationStatus(fl.Field().String()).Valid()
}

// ValidStatus reports whether status is one of the verification enum values.
func (v *VerificationValidator) ValidStatus(status string) bool {
	return v.validate.Var(status, "required,verification_status") == nil
}
