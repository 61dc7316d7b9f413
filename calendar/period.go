package calendar

import "time"

// =============================================================================
// PERIOD - Inclusive range of days a payslip covers
// =============================================================================

// Period is an inclusive date range [Start, End].
//
// Semi-monthly convention:
//   - First half:  day 1 to day 15
//   - Second half: day 16 to the last day of the month
type Period struct {
	Start Date
	End   Date
}

// NewPeriod builds a period, rejecting ranges whose end precedes the start.
func NewPeriod(start, end Date) (Period, error) {
	p := Period{Start: start, End: end}
	if err := p.Validate(); err != nil {
		return Period{}, err
	}
	return p, nil
}

// Validate checks that both bounds are set and Start <= End.
func (p Period) Validate() error {
	if p.Start.IsZero() || p.End.IsZero() {
		return &PeriodError{Reason: "start and end dates are required"}
	}
	if p.End.Before(p.Start) {
		return &PeriodError{Reason: "end " + p.End.String() + " before start " + p.Start.String()}
	}
	return nil
}

// Contains returns true if the day is within [Start, End].
func (p Period) Contains(d Date) bool {
	return d.AfterOrEqual(p.Start) && d.BeforeOrEqual(p.End)
}

// Days returns every day in the period in ascending order.
func (p Period) Days() []Date {
	var days []Date
	for current := p.Start; current.BeforeOrEqual(p.End); current = current.AddDays(1) {
		days = append(days, current)
	}
	return days
}

// CalendarDays counts all days in the period.
func (p Period) CalendarDays() int {
	if p.End.Before(p.Start) {
		return 0
	}
	return int(p.End.Time().Sub(p.Start.Time()).Hours()/24) + 1
}

// WorkingDays counts Monday-Friday days in the period.
func (p Period) WorkingDays() int {
	n := 0
	for _, d := range p.Days() {
		if d.IsWorkday() {
			n++
		}
	}
	return n
}

// Years returns each calendar year the period touches.
func (p Period) Years() []int {
	var years []int
	for y := p.Start.Year(); y <= p.End.Year(); y++ {
		years = append(years, y)
	}
	return years
}

// String renders the period as "[start, end]".
func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}

// Display renders the period the way payslips print it: "Feb 01 - Feb 15, 2025".
func (p Period) Display() string {
	return p.Start.Format("Jan 02") + " - " + p.End.Format("Jan 02, 2006")
}

// =============================================================================
// PERIOD RESOLVER - (year, month, half) to concrete dates
// =============================================================================

// Half selects the semi-monthly half of a month.
type Half int

const (
	FirstHalf  Half = 1 // days 1-15
	SecondHalf Half = 2 // days 16-end of month
)

// Valid reports whether h is FirstHalf or SecondHalf.
func (h Half) Valid() bool { return h == FirstHalf || h == SecondHalf }

func (h Half) String() string {
	switch h {
	case FirstHalf:
		return "1st-15th"
	case SecondHalf:
		return "16th-End"
	default:
		return "invalid"
	}
}

// Resolve converts a semi-monthly reference into a concrete period.
// Any year is accepted; month must be 1-12 and half must be 1 or 2.
func Resolve(year int, month int, half Half) (Period, error) {
	if month < 1 || month > 12 {
		return Period{}, &PeriodError{Reason: "month must be between 1 and 12"}
	}
	if !half.Valid() {
		return Period{}, &PeriodError{Reason: "half must be 1 or 2"}
	}

	m := time.Month(month)
	if half == FirstHalf {
		return Period{Start: NewDate(year, m, 1), End: NewDate(year, m, 15)}, nil
	}
	return Period{Start: NewDate(year, m, 16), End: NewDate(year, m, DaysInMonth(year, m))}, nil
}

// Containing returns the semi-monthly period that contains the day.
func Containing(d Date) Period {
	half := FirstHalf
	if d.Day() > 15 {
		half = SecondHalf
	}
	p, _ := Resolve(d.Year(), int(d.Month()), half)
	return p
}

// Next returns the semi-monthly period following p, assuming p is semi-monthly.
func Next(p Period) Period {
	return Containing(p.End.AddDays(1))
}
