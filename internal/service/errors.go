package service

import (
	"errors"
	"fmt"
)

// Common validation errors returned by the service layer before anything is
// persisted.
var (
	ErrInvalidTimeRange = errors.New("from must be before to")
)

// BriefingServiceError is a custom error type for briefing service errors.
type BriefingServiceError struct {
	Operation string
	Message   string
	Err       error
}

// Error implements the error interface for BriefingServiceError.
func (e *BriefingServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("briefing service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("briefing service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *BriefingServiceError) Unwrap() error {
	return e.Err
}

// NewBriefingServiceError creates a new BriefingServiceError.
func NewBriefingServiceError(operation, message string, err error) *BriefingServiceError {
	return &BriefingServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
