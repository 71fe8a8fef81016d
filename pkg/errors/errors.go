package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

const (
	CodeNotFound     = "NOT_FOUND"
	CodeValidation   = "VALIDATION_ERROR"
	CodeConflict     = "CONFLICT"
	CodeInternal     = "INTERNAL_ERROR"
	CodeBadRequest   = "BAD_REQUEST"
	CodeTimeout      = "TIMEOUT"
	CodeUnavailable  = "SERVICE_UNAVAILABLE"
	CodeInvalidInput = "INVALID_INPUT"

	CodeInvalidConfiguration      = "INVALID_CONFIGURATION"
	CodeSlotNoLongerAvailable     = "SLOT_NO_LONGER_AVAILABLE"
	CodeHoldInProgress            = "HOLD_IN_PROGRESS"
	CodePaymentHoldFailed         = "PAYMENT_HOLD_FAILED"
	CodePaymentConfirmationFailed = "PAYMENT_CONFIRMATION_FAILED"
	CodePaymentPending            = "PAYMENT_PENDING"
	CodeRemoteCancelFailed        = "REMOTE_CANCEL_FAILED"
	CodeBatchCommitFailed         = "BATCH_COMMIT_FAILED"
	CodeInvalidStatus             = "INVALID_STATUS"
)

type AppError struct {
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	HTTPStatus int            `json:"-"`
	Details    map[string]any `json:"details,omitempty"`
	Err        error          `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) StatusCode() int {
	return e.HTTPStatus
}

// Is matches on Code, so errors.Is(err, SlotNoLongerAvailable()) works for any
// instance of the category.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

func (e *AppError) ToJSON() []byte {
	data, _ := json.Marshal(ErrorResponse{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	})
	return data
}

type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func New(code, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

func Wrap(err error, code, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

func (e *AppError) WithDetails(details map[string]any) *AppError {
	e.Details = details
	return e
}

func NotFound(resource string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", resource), http.StatusNotFound)
}

func NotFoundWithID(resource, id string) *AppError {
	return NotFound(resource).WithDetails(map[string]any{
		"resource": resource,
		"id":       id,
	})
}

func Validation(message string, details map[string]any) *AppError {
	return New(CodeValidation, message, http.StatusUnprocessableEntity).WithDetails(details)
}

func InvalidInput(message string) *AppError {
	return New(CodeInvalidInput, message, http.StatusBadRequest)
}

func Conflict(message string) *AppError {
	return New(CodeConflict, message, http.StatusConflict)
}

func Internal(message string, err error) *AppError {
	return Wrap(err, CodeInternal, message, http.StatusInternalServerError)
}

func Timeout(message string) *AppError {
	return New(CodeTimeout, message, http.StatusGatewayTimeout)
}

func Unavailable(service string) *AppError {
	return New(CodeUnavailable, fmt.Sprintf("%s is temporarily unavailable", service), http.StatusServiceUnavailable)
}

// InvalidConfiguration reports malformed doctor settings (duration, template, zone).
// It is not retriable.
func InvalidConfiguration(message string) *AppError {
	return New(CodeInvalidConfiguration, message, http.StatusUnprocessableEntity)
}

// SlotNoLongerAvailable means a concurrent reservation won the slot; callers
// should re-query availability.
func SlotNoLongerAvailable() *AppError {
	return New(CodeSlotNoLongerAvailable, "The selected slot is no longer available", http.StatusConflict)
}

// HoldInProgress means another hold for the same doctor is being opened.
// The requested slot may still be free; callers should retry the same request.
func HoldInProgress() *AppError {
	return New(CodeHoldInProgress, "Another booking for this doctor is in progress, retry shortly", http.StatusServiceUnavailable)
}

func PaymentHoldFailed(err error) *AppError {
	return Wrap(err, CodePaymentHoldFailed, "Payment authorization failed", http.StatusPaymentRequired)
}

func PaymentConfirmationFailed(err error) *AppError {
	return Wrap(err, CodePaymentConfirmationFailed, "Payment could not be confirmed", http.StatusPaymentRequired)
}

func PaymentPending(state string) *AppError {
	return New(CodePaymentPending, "Payment has not been completed yet", http.StatusConflict).
		WithDetails(map[string]any{"payment_state": state})
}

func RemoteCancelFailed(err error) *AppError {
	return Wrap(err, CodeRemoteCancelFailed, "Payment cancellation failed", http.StatusBadGateway)
}

// BatchCommitFailed aborts a bulk pass. committed is the number of writes
// already durable before the failing batch.
func BatchCommitFailed(committed int, err error) *AppError {
	return Wrap(err, CodeBatchCommitFailed, "Bulk update aborted", http.StatusInternalServerError).
		WithDetails(map[string]any{"committed": committed})
}

func InvalidStatus(status string) *AppError {
	return New(CodeInvalidStatus, fmt.Sprintf("invalid status: %q", status), http.StatusBadRequest)
}

func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal("An unexpected error occurred", err)
}

// HasCode reports whether err is an AppError carrying code.
func HasCode(err error, code string) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}
