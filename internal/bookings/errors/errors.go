package errors

import "errors"

var (
	ErrNotFound = errors.New("booking not found")

	ErrInvalidID = errors.New("invalid booking ID format")

	// ErrStatusConflict means a compare-and-set status write found the booking
	// in a different status than expected.
	ErrStatusConflict = errors.New("booking status changed concurrently")

	ErrLockHeld = errors.New("slot lock is held by another request")

	ErrIllegalTransition = errors.New("illegal reservation state transition")
)
