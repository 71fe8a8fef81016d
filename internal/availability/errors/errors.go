package errors

import "errors"

var ErrProfileNotFound = errors.New("doctor profile not found")
