package calendar

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidPeriod is returned when a period is malformed (end before start,
	// month outside 1-12 or half not in {1, 2}).
	ErrInvalidPeriod = errors.New("invalid period")

	// ErrUnsupportedYear is returned when the holiday calendar has no data for
	// a year the requested range touches.
	ErrUnsupportedYear = errors.New("unsupported holiday year")

	// ErrInvalidDate is returned when a date string cannot be parsed.
	ErrInvalidDate = errors.New("invalid date")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// PeriodError explains why a period was rejected.
type PeriodError struct {
	Reason string
}

func (e *PeriodError) Error() string { return "invalid period: " + e.Reason }
func (e *PeriodError) Unwrap() error { return ErrInvalidPeriod }

// UnsupportedYearError names the year with no holiday data.
type UnsupportedYearError struct {
	Year int
}

func (e *UnsupportedYearError) Error() string {
	return fmt.Sprintf("no holiday calendar loaded for year %d", e.Year)
}

func (e *UnsupportedYearError) Unwrap() error { return ErrUnsupportedYear }

// DateError wraps a date parse failure.
type DateError struct {
	Value string
	Err   error
}

func (e *DateError) Error() string {
	return fmt.Sprintf("invalid date %q: expected YYYY-MM-DD", e.Value)
}

func (e *DateError) Unwrap() []error { return []error{ErrInvalidDate, e.Err} }
