// Package error defines domain-specific errors for the care-plan core.
package error

import "errors"

// Budget domain errors.
var (
	// ErrBudgetYearNotFound is returned when a budget year is not found.
	ErrBudgetYearNotFound = errors.New("budget year not found")

	// ErrUnknownCategory is returned when spend is applied against a
	// category that was never declared for the year.
	ErrUnknownCategory = errors.New("unknown budget category")

	// ErrNegativeSpendViolation is returned when a spend delta would drive
	// item, category, or total spent below zero.
	ErrNegativeSpendViolation = errors.New("spend must not go negative")

	// ErrNegativeAllocation is returned when an allocation amount is negative.
	ErrNegativeAllocation = errors.New("allocation must not be negative")

	// ErrRollupMismatch is returned when cached totals disagree with the
	// sums over the leaves. This indicates a real bug and is never
	// silently corrected.
	ErrRollupMismatch = errors.New("budget totals drifted from leaf sums")

	// ErrYearNotClosed is returned when rollover is attempted for a year
	// that has not fully elapsed.
	ErrYearNotClosed = errors.New("year not closed")

	// ErrYearAlreadyRolled is returned when the rollover target year
	// already exists.
	ErrYearAlreadyRolled = errors.New("target year already exists")
)

// BudgetErrorCode defines error codes for budget errors.
// Format: BUD-XXYYYY where XX is the error kind (01 validation,
// 02 invariant, 04 state) and YYYY is the specific error.
type BudgetErrorCode string

const (
	// Validation errors (01XXXX)
	ErrCodeUnknownCategory    BudgetErrorCode = "BUD-010001"
	ErrCodeNegativeAllocation BudgetErrorCode = "BUD-010002"

	// Invariant violations (02XXXX)
	ErrCodeNegativeSpendViolation BudgetErrorCode = "BUD-020001"
	ErrCodeRollupMismatch         BudgetErrorCode = "BUD-020002"

	// State errors (04XXXX)
	ErrCodeBudgetYearNotFound BudgetErrorCode = "BUD-040001"
	ErrCodeYearNotClosed      BudgetErrorCode = "BUD-040002"
	ErrCodeYearAlreadyRolled  BudgetErrorCode = "BUD-040003"
)

// BudgetError represents a budget error with code and message.
type BudgetError struct {
	Code    BudgetErrorCode
	Message string
	Err     error
}

// Error implements the error interface.
func (e *BudgetError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *BudgetError) Unwrap() error {
	return e.Err
}

// NewBudgetError creates a new BudgetError with the given code and message.
func NewBudgetError(code BudgetErrorCode, message string, err error) *BudgetError {
	return &BudgetError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}
