/*
Package attendance turns daily time records into payroll work facts.

PURPOSE:
  Payroll prices facts; attendance is where those facts come from in a real
  deployment. Each Record is one employee-day with clock-in, clock-out and
  break. Aggregate folds the records of one pay period into days worked,
  overtime hours and holidays worked.

RULES:
  - Worked hours = max(0, out - in - break). Break defaults to 60 minutes.
  - A day counts as worked when its status is Present or Late.
  - Overtime per day = max(0, worked - scheduled hours).
  - A worked day that is a regular or special holiday counts toward the
    matching holiday-worked total.
  - Records outside the period are ignored; two records for the same
    employee-day are an error.
*/
package attendance

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/payroll-engine/calendar"
)

// DefaultBreakMinutes is used when a record leaves the break unset.
const DefaultBreakMinutes = 60

var (
	// ErrInvalidRecord is returned for malformed attendance records.
	ErrInvalidRecord = errors.New("invalid attendance record")

	// ErrDuplicateRecord is returned when a day is recorded twice.
	ErrDuplicateRecord = errors.New("duplicate attendance record")
)

// Status is the attendance classification of a day.
type Status string

const (
	Present Status = "present"
	Absent  Status = "absent"
	Late    Status = "late"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s == Present || s == Absent || s == Late
}

// Worked reports whether the status counts as a day worked.
func (s Status) Worked() bool { return s == Present || s == Late }

// =============================================================================
// CLOCK - time of day
// =============================================================================

// Clock is a time of day, stored as minutes after midnight.
type Clock int

// NewClock builds a clock from hour and minute.
func NewClock(hour, minute int) Clock { return Clock(hour*60 + minute) }

// ParseClock parses "HH:MM" in 24-hour form.
func ParseClock(s string) (Clock, error) {
	h, m, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, fmt.Errorf("%w: clock %q must be HH:MM", ErrInvalidRecord, s)
	}
	hour, err1 := strconv.Atoi(h)
	minute, err2 := strconv.Atoi(m)
	if err1 != nil || err2 != nil || hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("%w: clock %q out of range", ErrInvalidRecord, s)
	}
	return NewClock(hour, minute), nil
}

func (c Clock) String() string { return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60) }

// Minutes returns minutes after midnight.
func (c Clock) Minutes() int { return int(c) }

// =============================================================================
// RECORD
// =============================================================================

// Record is one employee-day of attendance.
type Record struct {
	ID           string
	EmployeeID   string
	Date         calendar.Date
	TimeIn       *Clock
	TimeOut      *Clock
	BreakMinutes *int // nil means DefaultBreakMinutes
	Status       Status
	Remarks      string
	CreatedAt    time.Time
}

// Break returns the break length in minutes.
func (r Record) Break() int {
	if r.BreakMinutes == nil {
		return DefaultBreakMinutes
	}
	return *r.BreakMinutes
}

// WorkedHours returns max(0, out - in - break) in hours. A record without
// both clock-in and clock-out has worked zero hours.
func (r Record) WorkedHours() decimal.Decimal {
	if r.TimeIn == nil || r.TimeOut == nil {
		return decimal.Zero
	}
	minutes := r.TimeOut.Minutes() - r.TimeIn.Minutes() - r.Break()
	if minutes <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(minutes)).Div(decimal.NewFromInt(60))
}

// Validate checks the record's own fields.
func (r Record) Validate() error {
	if strings.TrimSpace(r.EmployeeID) == "" {
		return fmt.Errorf("%w: missing employee id", ErrInvalidRecord)
	}
	if r.Date.IsZero() {
		return fmt.Errorf("%w: missing date", ErrInvalidRecord)
	}
	if !r.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidRecord, r.Status)
	}
	if r.BreakMinutes != nil && *r.BreakMinutes < 0 {
		return fmt.Errorf("%w: negative break", ErrInvalidRecord)
	}
	if r.TimeIn != nil && r.TimeOut != nil && *r.TimeOut < *r.TimeIn {
		return fmt.Errorf("%w: time out %s before time in %s", ErrInvalidRecord, r.TimeOut, r.TimeIn)
	}
	return nil
}

// =============================================================================
// AGGREGATION
// =============================================================================

// Summary is the period total of a set of records.
type Summary struct {
	DaysWorked            int
	DaysAbsent            int
	DaysLate              int
	HoursWorked           decimal.Decimal
	OvertimeHours         decimal.Decimal
	RegularHolidaysWorked int
	SpecialHolidaysWorked int
}

// Aggregate folds one employee's records for a period. scheduledHours is the
// regular workday length beyond which hours count as overtime.
func Aggregate(records []Record, p calendar.Period, holidays *calendar.HolidayCalendar, scheduledHours decimal.Decimal) (Summary, error) {
	if err := p.Validate(); err != nil {
		return Summary{}, err
	}
	s := Summary{HoursWorked: decimal.Zero, OvertimeHours: decimal.Zero}
	seen := make(map[string]bool, len(records))
	for _, r := range records {
		if !p.Contains(r.Date) {
			continue
		}
		if err := r.Validate(); err != nil {
			return Summary{}, err
		}
		key := r.EmployeeID + "|" + r.Date.String()
		if seen[key] {
			return Summary{}, fmt.Errorf("%w: %s on %s", ErrDuplicateRecord, r.EmployeeID, r.Date)
		}
		seen[key] = true

		if !r.Status.Worked() {
			s.DaysAbsent++
			continue
		}
		s.DaysWorked++
		if r.Status == Late {
			s.DaysLate++
		}
		worked := r.WorkedHours()
		s.HoursWorked = s.HoursWorked.Add(worked)
		if extra := worked.Sub(scheduledHours); extra.IsPositive() {
			s.OvertimeHours = s.OvertimeHours.Add(extra)
		}

		h, ok, err := holidays.Lookup(r.Date)
		if err != nil {
			return Summary{}, err
		}
		if ok {
			switch h.Category {
			case calendar.Regular:
				s.RegularHolidaysWorked++
			case calendar.Special:
				s.SpecialHolidaysWorked++
			}
		}
	}
	s.HoursWorked = s.HoursWorked.Round(2)
	s.OvertimeHours = s.OvertimeHours.Round(2)
	return s, nil
}
