package payroll

import (
	"errors"
	"fmt"

	"github.com/warp/payroll-engine/calendar"
	"github.com/warp/payroll-engine/statutory"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidInput is returned for negative amounts, out-of-range facts and
	// malformed values. Shared with the statutory calculators.
	ErrInvalidInput = statutory.ErrInvalidInput

	// ErrInvalidPeriod is returned when a period is malformed.
	ErrInvalidPeriod = calendar.ErrInvalidPeriod

	// ErrUnsupportedYear is returned when no holiday data exists for a year.
	ErrUnsupportedYear = calendar.ErrUnsupportedYear

	// ErrInvalidEmployee is returned when the employee has no ID or a
	// missing/negative salary.
	ErrInvalidEmployee = errors.New("invalid employee")

	// ErrInvalidTransition is returned when a status change is not allowed.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrDuplicate is returned when a request or payslip already exists for
	// the same employee and period.
	ErrDuplicate = errors.New("already exists for this period")

	// ErrEmployeeNotFound is returned when a referenced employee doesn't exist.
	ErrEmployeeNotFound = errors.New("employee not found")

	// ErrRequestNotFound is returned when a payslip request doesn't exist.
	ErrRequestNotFound = errors.New("payslip request not found")

	// ErrPayslipNotFound is returned when a payslip doesn't exist.
	ErrPayslipNotFound = errors.New("payslip not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// EmployeeError explains why an employee was rejected. It matches both
// ErrInvalidEmployee and ErrInvalidInput.
type EmployeeError struct {
	EmployeeID string
	Reason     string
}

func (e *EmployeeError) Error() string {
	if e.EmployeeID == "" {
		return "invalid employee: " + e.Reason
	}
	return fmt.Sprintf("invalid employee %s: %s", e.EmployeeID, e.Reason)
}

func (e *EmployeeError) Unwrap() []error { return []error{ErrInvalidEmployee, ErrInvalidInput} }

// FactsError explains why work facts were rejected.
type FactsError struct {
	Field  string
	Reason string
}

func (e *FactsError) Error() string {
	return fmt.Sprintf("invalid facts: %s %s", e.Field, e.Reason)
}

func (e *FactsError) Unwrap() error { return ErrInvalidInput }

// TransitionError names the rejected status change.
type TransitionError struct {
	Kind string // "payslip" or "request"
	From string
	To   string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot move %s from %s to %s", e.Kind, e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid caller input.
// None of these are retryable: the same input always fails the same way.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrInvalidPeriod) ||
		errors.Is(err, ErrUnsupportedYear) ||
		errors.Is(err, ErrInvalidEmployee) ||
		errors.Is(err, calendar.ErrInvalidDate)
}

// IsConflict returns true if the error is an illegal state change or a
// duplicate for the same period.
func IsConflict(err error) bool {
	return errors.Is(err, ErrInvalidTransition) || errors.Is(err, ErrDuplicate)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrEmployeeNotFound) ||
		errors.Is(err, ErrRequestNotFound) ||
		errors.Is(err, ErrPayslipNotFound)
}
