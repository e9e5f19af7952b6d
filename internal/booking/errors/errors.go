package errors

import "errors"

var (
	ErrNotFound = errors.New("booking not found")

	ErrInvalidID = errors.New("invalid booking ID format")

	ErrDuplicateCode = errors.New("booking code already exists")

	ErrCourtNotFound = errors.New("court not found")

	ErrStaleStatus = errors.New("booking status changed concurrently")
)
