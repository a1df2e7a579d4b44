package service

import "errors"

var (
	// ErrInvalidInput wraps every validation failure of a request.
	ErrInvalidInput = errors.New("invalid input")

	// ErrWriteConflict is returned when a concurrent first order for the same
	// user kept winning the unique index. The caller may retry.
	ErrWriteConflict = errors.New("order write conflict")
)
