/*
engine.go - Payslip computation

PURPOSE:
  Converts (employee, period, facts) into a Payslip. Pure: no I/O, no clock
  except the injectable one used for GeneratedAt, no randomness. Identical
  inputs produce identical line items.

COMPUTATION ORDER:
   1. Validate employee, period and calendar coverage
   2. Derive period summary (calendar days, working days, holidays)
   3. Validate facts against the summary
   4. dailyRate  = monthlySalary / workDaysPerMonth        (display only)
      hourlyRate = dailyRate / hoursPerDay                 (display only)
   5. basicPay    = round2(salary x daysWorked / workDays)
   6. holidayPay  = round2(salary x (regWorked x regPremium + specWorked x specPremium) / workDays)
   7. overtimePay = round2(salary x otHours x otMultiplier / (workDays x hoursPerDay))
   8. allowances  = round2(allowances)
   9. grossPay    = basic + holiday + overtime + allowances
  10. sss/philHealth/pagIbig = round2(monthly contribution / periodsPerMonth)
  11. taxable     = gross - sss - philHealth - pagIbig
  12. tax         = round2(monthlyTax(taxable x periodsPerMonth) / periodsPerMonth)
  13. other       = round2(otherDeductions)
  14. totalDeductions = sum of 10..13
  15. netPay      = gross - totalDeductions

  Earnings multiply first and divide once, right before rounding. Dividing
  out the daily rate first truncates it at decimal.DivisionPrecision and an
  exact half-cent product then rounds the wrong way.

  Each deduction is rounded before it feeds taxable income, so the taxable
  figure on the payslip equals gross minus the printed contribution lines.

CONCURRENCY:
  Engine is immutable after construction and safe for concurrent use. The
  batch run in service.go fans out across employees with one shared Engine.

SEE ALSO:
  - statutory/contributions.go: monthly contribution tables
  - statutory/tax.go:           monthly withholding schedule
*/
package payroll

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/payroll-engine/calendar"
	"github.com/warp/payroll-engine/statutory"
)

// Engine computes payslips.
type Engine struct {
	calc     *statutory.Calculator
	holidays *calendar.HolidayCalendar
	now      func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the clock used for GeneratedAt.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine returns an engine over the given tables and holiday calendar.
func NewEngine(calc *statutory.Calculator, holidays *calendar.HolidayCalendar, opts ...Option) *Engine {
	e := &Engine{
		calc:     calc,
		holidays: holidays,
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Calculator returns the statutory calculator the engine uses.
func (e *Engine) Calculator() *statutory.Calculator { return e.calc }

// Holidays returns the holiday calendar the engine uses.
func (e *Engine) Holidays() *calendar.HolidayCalendar { return e.holidays }

// Summarize derives the calendar facts for a period.
func (e *Engine) Summarize(p calendar.Period) (PeriodSummary, error) {
	if err := p.Validate(); err != nil {
		return PeriodSummary{}, err
	}
	regular, special, err := e.holidays.HolidaysInRange(p.Start, p.End)
	if err != nil {
		return PeriodSummary{}, err
	}
	return PeriodSummary{
		Period:          p,
		CalendarDays:    p.CalendarDays(),
		WorkingDays:     p.WorkingDays(),
		RegularHolidays: regular,
		SpecialHolidays: special,
	}, nil
}

// Generate computes a payslip from explicit facts.
func (e *Engine) Generate(req Request) (Payslip, error) {
	salary, err := validateEmployee(req.Employee)
	if err != nil {
		return Payslip{}, err
	}
	summary, err := e.Summarize(req.Period)
	if err != nil {
		return Payslip{}, err
	}
	if err := validateFacts(req.Facts, summary); err != nil {
		return Payslip{}, err
	}
	return e.compute(req, salary)
}

// GenerateFrom asks src for the facts of the period and then generates.
func (e *Engine) GenerateFrom(ctx context.Context, src FactSource, emp Employee, p calendar.Period) (Payslip, error) {
	if _, err := validateEmployee(emp); err != nil {
		return Payslip{}, err
	}
	summary, err := e.Summarize(p)
	if err != nil {
		return Payslip{}, err
	}
	facts, err := src.Facts(ctx, emp, summary)
	if err != nil {
		return Payslip{}, err
	}
	return e.Generate(Request{Employee: emp, Period: p, Facts: facts})
}

func (e *Engine) compute(req Request, salary decimal.Decimal) (Payslip, error) {
	rules := e.calc.Tables().Pay
	f := req.Facts

	daily := salary.Div(rules.WorkDaysPerMonth)
	hourly := daily.Div(rules.HoursPerDay)

	days := decimal.NewFromInt(int64(f.DaysWorked))
	holidayUnits := decimal.NewFromInt(int64(f.RegularHolidaysWorked)).Mul(rules.RegularHolidayPremium).
		Add(decimal.NewFromInt(int64(f.SpecialHolidaysWorked)).Mul(rules.SpecialHolidayPremium))
	hoursPerMonth := rules.WorkDaysPerMonth.Mul(rules.HoursPerDay)

	earnings := Earnings{
		BasicPay:    prorate(salary, days, rules.WorkDaysPerMonth),
		HolidayPay:  prorate(salary, holidayUnits, rules.WorkDaysPerMonth),
		OvertimePay: prorate(salary, f.OvertimeHours.Mul(rules.OvertimeMultiplier), hoursPerMonth),
		Allowances:  statutory.Round2(f.Allowances),
	}
	gross := earnings.Total()

	monthly, err := e.calc.Monthly(salary)
	if err != nil {
		return Payslip{}, err
	}
	periods := rules.PeriodsPerMonth
	ded := Deductions{
		SSS:             statutory.Round2(monthly.SSS.Div(periods)),
		PhilHealth:      statutory.Round2(monthly.PhilHealth.Div(periods)),
		PagIbig:         statutory.Round2(monthly.PagIbig.Div(periods)),
		OtherDeductions: statutory.Round2(f.OtherDeductions),
	}
	taxable := gross.Sub(ded.Statutory())
	ded.WithholdingTax = statutory.Round2(e.calc.WithholdingTax(taxable.Mul(periods)).Div(periods))

	total := statutory.Round2(ded.Total())
	net := statutory.Round2(gross.Sub(total))

	return Payslip{
		EmployeeID:      req.Employee.ID,
		Period:          req.Period,
		Earnings:        earnings,
		Deductions:      ded,
		GrossPay:        gross,
		TaxableIncome:   taxable,
		TotalDeductions: total,
		NetPay:          net,
		Work: WorkDetails{
			DaysWorked:            f.DaysWorked,
			RegularHolidaysWorked: f.RegularHolidaysWorked,
			SpecialHolidaysWorked: f.SpecialHolidaysWorked,
			OvertimeHours:         f.OvertimeHours,
		},
		Rates:       Rates{Daily: daily, Hourly: hourly},
		Status:      StatusDraft,
		GeneratedAt: e.now(),
		RequestID:   req.RequestID,
	}, nil
}

// prorate returns round2(salary x units / per).
func prorate(salary, units, per decimal.Decimal) decimal.Decimal {
	return statutory.Round2(salary.Mul(units).Div(per))
}

// =============================================================================
// VALIDATION
// =============================================================================

func validateEmployee(emp Employee) (decimal.Decimal, error) {
	if strings.TrimSpace(emp.ID) == "" {
		return decimal.Zero, &EmployeeError{Reason: "missing id"}
	}
	if !emp.MonthlySalary.Valid {
		return decimal.Zero, &EmployeeError{EmployeeID: emp.ID, Reason: "missing monthly salary"}
	}
	if emp.MonthlySalary.Decimal.IsNegative() {
		return decimal.Zero, &EmployeeError{EmployeeID: emp.ID, Reason: "negative monthly salary"}
	}
	return emp.MonthlySalary.Decimal, nil
}

func validateFacts(f Facts, s PeriodSummary) error {
	switch {
	case f.DaysWorked < 0:
		return &FactsError{Field: "days worked", Reason: "must not be negative"}
	case f.DaysWorked > s.CalendarDays:
		return &FactsError{Field: "days worked", Reason: "exceeds calendar days in period"}
	case f.OvertimeHours.IsNegative():
		return &FactsError{Field: "overtime hours", Reason: "must not be negative"}
	case f.RegularHolidaysWorked < 0:
		return &FactsError{Field: "regular holidays worked", Reason: "must not be negative"}
	case f.RegularHolidaysWorked > s.RegularHolidays:
		return &FactsError{Field: "regular holidays worked", Reason: "exceeds regular holidays in period"}
	case f.SpecialHolidaysWorked < 0:
		return &FactsError{Field: "special holidays worked", Reason: "must not be negative"}
	case f.SpecialHolidaysWorked > s.SpecialHolidays:
		return &FactsError{Field: "special holidays worked", Reason: "exceeds special holidays in period"}
	case f.Allowances.IsNegative():
		return &FactsError{Field: "allowances", Reason: "must not be negative"}
	case f.OtherDeductions.IsNegative():
		return &FactsError{Field: "other deductions", Reason: "must not be negative"}
	}
	return nil
}
