/*
Package calendar provides the date arithmetic the payroll engine depends on.

PURPOSE:
  Pay is computed over whole calendar days. This package owns the day-level
  date type, pay periods (inclusive date ranges), the semi-monthly period
  resolver and the year-keyed statutory holiday calendar.

KEY CONCEPTS:
  - Date:            A calendar day, normalized to UTC midnight
  - Period:          Inclusive [Start, End] range of days
  - Resolve:         (year, month, half) -> semi-monthly Period
  - HolidayCalendar: Regular/Special holidays grouped by year

DESIGN PRINCIPLES:
  1. Day granularity only: time-of-day never leaks into pay arithmetic
  2. Immutable values: every operation returns a new Date/Period
  3. Explicit failure: unknown holiday years are errors, not zero counts

SEE ALSO:
  - period.go:  Period type and semi-monthly resolution
  - holiday.go: Holiday calendar
  - errors.go:  Error taxonomy for this package
*/
package calendar

import (
	"time"
)

// DateLayout is the canonical wire format for dates (ISO 8601 calendar date).
const DateLayout = "2006-01-02"

// =============================================================================
// DATE - A single calendar day
// =============================================================================

// Date is a calendar day. The zero value is not a valid date.
type Date struct {
	t time.Time
}

// NewDate builds a date. Out-of-range values normalize like time.Date
// (e.g. February 30 becomes March 2).
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates a timestamp to its calendar day in the timestamp's location.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, &DateError{Value: s, Err: err}
	}
	return DateOf(t), nil
}

// Comparison
func (d Date) Before(other Date) bool        { return d.t.Before(other.t) }
func (d Date) After(other Date) bool         { return d.t.After(other.t) }
func (d Date) Equal(other Date) bool         { return d.t.Equal(other.t) }
func (d Date) BeforeOrEqual(other Date) bool { return !d.t.After(other.t) }
func (d Date) AfterOrEqual(other Date) bool  { return !d.t.Before(other.t) }

// Arithmetic
func (d Date) AddDays(n int) Date { return Date{t: d.t.AddDate(0, 0, n)} }

// Properties
func (d Date) Year() int             { return d.t.Year() }
func (d Date) Month() time.Month     { return d.t.Month() }
func (d Date) Day() int              { return d.t.Day() }
func (d Date) Weekday() time.Weekday { return d.t.Weekday() }
func (d Date) IsZero() bool          { return d.t.IsZero() }
func (d Date) Time() time.Time       { return d.t }

// IsWeekend reports whether the day is a Saturday or Sunday.
func (d Date) IsWeekend() bool {
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// IsWorkday reports whether the day is Monday through Friday.
// Holidays still count as workdays; holiday premiums are paid on top.
func (d Date) IsWorkday() bool { return !d.IsWeekend() }

func (d Date) String() string { return d.t.Format(DateLayout) }

// Format formats the date with a time layout.
func (d Date) Format(layout string) string { return d.t.Format(layout) }

// MarshalText encodes the date as YYYY-MM-DD; the zero date encodes empty.
func (d Date) MarshalText() ([]byte, error) {
	if d.IsZero() {
		return []byte{}, nil
	}
	return []byte(d.String()), nil
}

// UnmarshalText accepts YYYY-MM-DD or an empty string (zero date).
func (d *Date) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// DaysInMonth returns the number of days in the month, honoring leap years.
func DaysInMonth(year int, month time.Month) int {
	// Day 0 of the next month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// IsLeapYear reports whether February has 29 days in the given year.
func IsLeapYear(year int) bool {
	return DaysInMonth(year, time.February) == 29
}
