// Package error defines domain-specific errors for the care-plan core.
package error

import "errors"

// Recurrence domain errors.
var (
	// ErrIncompleteRule is returned when a rule has neither completion
	// history nor an explicit start date to anchor on.
	ErrIncompleteRule = errors.New("recurrence rule has no anchor date")

	// ErrInvalidRecurrenceCount is returned when the rule count is below one.
	ErrInvalidRecurrenceCount = errors.New("recurrence count must be at least 1")

	// ErrInvalidRecurrenceUnit is returned when the rule unit is not one of
	// day, week, month, or year.
	ErrInvalidRecurrenceUnit = errors.New("invalid recurrence unit")
)

// RecurrenceErrorCode defines error codes for recurrence errors.
// Format: SCH-XXYYYY where XX is the error kind (01 validation) and
// YYYY is the specific error.
type RecurrenceErrorCode string

const (
	ErrCodeIncompleteRule         RecurrenceErrorCode = "SCH-010001"
	ErrCodeInvalidRecurrenceCount RecurrenceErrorCode = "SCH-010002"
	ErrCodeInvalidRecurrenceUnit  RecurrenceErrorCode = "SCH-010003"
)

// RecurrenceError represents a recurrence error with code and message.
type RecurrenceError struct {
	Code    RecurrenceErrorCode
	Message string
	Err     error
}

// Error implements the error interface.
func (e *RecurrenceError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *RecurrenceError) Unwrap() error {
	return e.Err
}

// NewRecurrenceError creates a new RecurrenceError with the given code and message.
func NewRecurrenceError(code RecurrenceErrorCode, message string, err error) *RecurrenceError {
	return &RecurrenceError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}
