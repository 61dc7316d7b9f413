package payroll

import (
	"context"
	"fmt"
	"hash/fnv"
	"math/rand"

	"github.com/shopspring/decimal"

	"github.com/warp/payroll-engine/attendance"
	"github.com/warp/payroll-engine/calendar"
)

// =============================================================================
// FIXED FACTS
// =============================================================================

// FixedFacts returns the same facts for every employee and period.
type FixedFacts Facts

func (f FixedFacts) Facts(context.Context, Employee, PeriodSummary) (Facts, error) {
	return Facts(f), nil
}

// =============================================================================
// SYNTHETIC FACTS - demo data
// =============================================================================

// SyntheticFacts fabricates plausible facts for demos and load tests.
//
// Each call derives its own generator from (Seed, employee, period), so the
// same inputs always yield the same facts and concurrent calls share nothing.
//
//	daysWorked      = max(1, workingDays - rand[0, max(1, workingDays/10)))
//	overtimeHours   = rand[0, 20]
//	holidaysWorked  = rand[0, holidaysInPeriod] per category
//	allowances      = rand[0, 5] x 100
//	otherDeductions = rand[0, 3] x 50
type SyntheticFacts struct {
	Seed int64
}

func (s SyntheticFacts) Facts(_ context.Context, emp Employee, sum PeriodSummary) (Facts, error) {
	rng := rand.New(rand.NewSource(s.seedFor(emp.ID, sum.Period)))

	working := sum.WorkingDays
	days := working - rng.Intn(max(1, working/10))
	days = min(max(1, days), sum.CalendarDays)

	return Facts{
		DaysWorked:            days,
		OvertimeHours:         decimal.NewFromInt(int64(rng.Intn(21))),
		RegularHolidaysWorked: rng.Intn(sum.RegularHolidays + 1),
		SpecialHolidaysWorked: rng.Intn(sum.SpecialHolidays + 1),
		Allowances:            decimal.NewFromInt(int64(rng.Intn(6) * 100)),
		OtherDeductions:       decimal.NewFromInt(int64(rng.Intn(4) * 50)),
	}, nil
}

func (s SyntheticFacts) seedFor(employeeID string, p calendar.Period) int64 {
	h := fnv.New64a()
	h.Write([]byte(employeeID))
	h.Write([]byte(p.String()))
	return s.Seed ^ int64(h.Sum64())
}

// =============================================================================
// ATTENDANCE FACTS - production source
// =============================================================================

// AttendanceFacts derives facts from stored attendance records. Allowances
// and other deductions come from the employee's standing per-period amounts.
type AttendanceFacts struct {
	Store          Store
	Holidays       *calendar.HolidayCalendar
	ScheduledHours decimal.Decimal // overtime threshold per day
}

func (a AttendanceFacts) Facts(ctx context.Context, emp Employee, sum PeriodSummary) (Facts, error) {
	rec, err := a.Store.GetEmployee(ctx, emp.ID)
	if err != nil {
		return Facts{}, fmt.Errorf("failed to load employee %s: %w", emp.ID, err)
	}
	if rec == nil {
		return Facts{}, fmt.Errorf("%w: %s", ErrEmployeeNotFound, emp.ID)
	}
	records, err := a.Store.LoadAttendance(ctx, emp.ID, sum.Period.Start, sum.Period.End)
	if err != nil {
		return Facts{}, fmt.Errorf("failed to load attendance for %s: %w", emp.ID, err)
	}
	agg, err := attendance.Aggregate(records, sum.Period, a.Holidays, a.ScheduledHours)
	if err != nil {
		return Facts{}, err
	}
	return Facts{
		DaysWorked:            agg.DaysWorked,
		OvertimeHours:         agg.OvertimeHours,
		RegularHolidaysWorked: agg.RegularHolidaysWorked,
		SpecialHolidaysWorked: agg.SpecialHolidaysWorked,
		Allowances:            rec.PeriodAllowance,
		OtherDeductions:       rec.PeriodDeduction,
	}, nil
}
