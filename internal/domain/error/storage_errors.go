// Package error defines domain-specific errors for the care-plan core.
package error

import "errors"

// Storage-access errors. These are the retryable kind: the persistence
// layer retries them a bounded number of times with backoff before
// surfacing them to the caller.
var (
	// ErrStorageUnavailable is returned when a storage call times out or
	// the store cannot be reached. A timeout never results in a silent
	// partial write.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrConcurrencyConflict is returned when the optimistic-concurrency
	// retry loop on a budget document exhausts its attempts.
	ErrConcurrencyConflict = errors.New("concurrent modification conflict")

	// ErrCareItemNotFound is returned when the catalog has no care item
	// for a slug.
	ErrCareItemNotFound = errors.New("care item not found")
)

// StorageErrorCode defines error codes for storage errors.
// Format: STO-XXYYYY where XX is the error kind (03 transient,
// 04 state) and YYYY is the specific error.
type StorageErrorCode string

const (
	// Transient errors (03XXXX)
	ErrCodeStorageUnavailable  StorageErrorCode = "STO-030001"
	ErrCodeConcurrencyConflict StorageErrorCode = "STO-030002"

	// State errors (04XXXX)
	ErrCodeCareItemNotFound StorageErrorCode = "STO-040001"
)

// StorageError represents a storage error with code and message.
type StorageError struct {
	Code    StorageErrorCode
	Message string
	Err     error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *StorageError) Unwrap() error {
	return e.Err
}

// NewStorageError creates a new StorageError with the given code and message.
func NewStorageError(code StorageErrorCode, message string, err error) *StorageError {
	return &StorageError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// IsRetryable reports whether the error is a transient storage condition
// the caller may retry.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStorageUnavailable) || errors.Is(err, ErrConcurrencyConflict)
}
