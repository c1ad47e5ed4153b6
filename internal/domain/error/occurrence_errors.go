// Package error defines domain-specific errors for the care-plan core.
package error

import "errors"

// Occurrence domain errors.
var (
	// ErrOccurrenceNotFound is returned when an occurrence is not found.
	ErrOccurrenceNotFound = errors.New("occurrence not found")

	// ErrAlreadyCompleted is returned when completing an occurrence that is
	// already completed and re-completion was not requested.
	ErrAlreadyCompleted = errors.New("occurrence already completed")

	// ErrConflictingCompletion is returned when a re-completion carries a
	// different cost than the recorded one. Silent double-charging is never
	// acceptable.
	ErrConflictingCompletion = errors.New("conflicting re-completion cost")

	// ErrInvalidOccurrenceStatus is returned when a stored status string
	// cannot be parsed into the closed status enum.
	ErrInvalidOccurrenceStatus = errors.New("invalid occurrence status")

	// ErrEmptyAppendEntry is returned when an appended comment or file
	// reference is blank.
	ErrEmptyAppendEntry = errors.New("append entry must not be empty")

	// ErrOccurrencePastRangeEnd is returned when a materialization is
	// attempted for a date past the rule's range end.
	ErrOccurrencePastRangeEnd = errors.New("occurrence date past recurrence range end")

	// ErrDuplicateOccurrence is returned by the storage layer when an
	// insert hits the identity uniqueness constraint. The create path
	// treats it as "already exists, re-fetch", never as a failure.
	ErrDuplicateOccurrence = errors.New("duplicate occurrence identity")
)

// OccurrenceErrorCode defines error codes for occurrence errors.
// Format: OCC-XXYYYY where XX is the error kind (01 validation,
// 02 invariant, 04 state) and YYYY is the specific error.
type OccurrenceErrorCode string

const (
	// Validation errors (01XXXX)
	ErrCodeInvalidOccurrenceStatus OccurrenceErrorCode = "OCC-010001"
	ErrCodeConflictingCompletion   OccurrenceErrorCode = "OCC-010002"
	ErrCodeEmptyAppendEntry        OccurrenceErrorCode = "OCC-010003"
	ErrCodeOccurrencePastRangeEnd  OccurrenceErrorCode = "OCC-010004"

	// Invariant violations (02XXXX)
	ErrCodeDuplicateOccurrence OccurrenceErrorCode = "OCC-020001"

	// State errors (04XXXX)
	ErrCodeOccurrenceNotFound OccurrenceErrorCode = "OCC-040001"
	ErrCodeAlreadyCompleted   OccurrenceErrorCode = "OCC-040002"
)

// OccurrenceError represents an occurrence error with code and message.
type OccurrenceError struct {
	Code    OccurrenceErrorCode
	Message string
	Err     error
}

// Error implements the error interface.
func (e *OccurrenceError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *OccurrenceError) Unwrap() error {
	return e.Err
}

// NewOccurrenceError creates a new OccurrenceError with the given code and message.
func NewOccurrenceError(code OccurrenceErrorCode, message string, err error) *OccurrenceError {
	return &OccurrenceError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}
