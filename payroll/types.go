/*
Package payroll turns pay facts into itemized semi-monthly payslips.

PURPOSE:
  The Engine is the only place pay is computed. Given an employee's monthly
  salary, a pay period and the work facts for that period (days worked,
  overtime, holidays worked, allowances, other deductions), it derives every
  earnings and deduction line using the statutory calculators and returns one
  immutable Payslip value.

KEY CONCEPTS IN THIS FILE (types.go):
  - Employee:      The engine's view of an employee (ID + monthly salary)
  - Facts:         Work facts for one period, supplied by the caller
  - PeriodSummary: Calendar facts the engine derives (working days, holidays)
  - Payslip:       Earnings, deductions, totals and work details

DESIGN PRINCIPLES:
  1. Facts in, pay out: the engine never invents attendance. Where facts come
     from (attendance records, a synthetic demo source, an API body) is the
     caller's policy, see FactSource.
  2. Precision: every amount is decimal.Decimal, rounded to 2 places when the
     line is finalized, so totals add up exactly.
  3. Immutability: a Payslip is built once; status changes go through
     Approve/Cancel which return errors on illegal transitions.

SEE ALSO:
  - engine.go:    The computation
  - facts.go:     Fact sources (attendance-backed, synthetic)
  - request.go:   Payslip request workflow
  - service.go:   Persistence-aware orchestration
*/
package payroll

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/payroll-engine/calendar"
)

// =============================================================================
// INPUTS
// =============================================================================

// Employee is what the engine needs to know about a person.
// MonthlySalary is optional at the type level so a missing salary can be
// told apart from a zero one.
type Employee struct {
	ID            string
	MonthlySalary decimal.NullDecimal
}

// NewEmployee builds an employee with a known salary.
func NewEmployee(id string, monthlySalary decimal.Decimal) Employee {
	return Employee{ID: id, MonthlySalary: decimal.NewNullDecimal(monthlySalary)}
}

// Facts are the per-period work facts the engine prices.
type Facts struct {
	DaysWorked            int
	OvertimeHours         decimal.Decimal
	RegularHolidaysWorked int
	SpecialHolidaysWorked int
	Allowances            decimal.Decimal
	OtherDeductions       decimal.Decimal
}

// PeriodSummary is what the calendar says about a period.
type PeriodSummary struct {
	Period          calendar.Period
	CalendarDays    int
	WorkingDays     int
	RegularHolidays int
	SpecialHolidays int
}

// FactSource supplies work facts for an employee and period.
//
// Implementations:
//   - AttendanceFacts: aggregates stored attendance records (production)
//   - SyntheticFacts:  seeded pseudo-random facts (demos and load tests)
//   - FixedFacts:      the same facts every time (tests, manual entry)
type FactSource interface {
	Facts(ctx context.Context, emp Employee, summary PeriodSummary) (Facts, error)
}

// Request is a single payslip computation.
type Request struct {
	Employee  Employee
	Period    calendar.Period
	Facts     Facts
	RequestID string // optional link to the PayslipRequest that triggered it
}

// =============================================================================
// OUTPUT
// =============================================================================

// Earnings are the positive lines of a payslip.
type Earnings struct {
	BasicPay    decimal.Decimal
	HolidayPay  decimal.Decimal
	OvertimePay decimal.Decimal
	Allowances  decimal.Decimal
}

// Total sums the earnings lines.
func (e Earnings) Total() decimal.Decimal {
	return e.BasicPay.Add(e.HolidayPay).Add(e.OvertimePay).Add(e.Allowances)
}

// Deductions are the negative lines of a payslip.
type Deductions struct {
	SSS             decimal.Decimal
	PhilHealth      decimal.Decimal
	PagIbig         decimal.Decimal
	WithholdingTax  decimal.Decimal
	OtherDeductions decimal.Decimal
}

// Total sums the deduction lines.
func (d Deductions) Total() decimal.Decimal {
	return d.SSS.Add(d.PhilHealth).Add(d.PagIbig).Add(d.WithholdingTax).Add(d.OtherDeductions)
}

// Statutory sums the contributions that reduce taxable income.
func (d Deductions) Statutory() decimal.Decimal {
	return d.SSS.Add(d.PhilHealth).Add(d.PagIbig)
}

// WorkDetails records the facts the payslip was priced from.
type WorkDetails struct {
	DaysWorked            int
	RegularHolidaysWorked int
	SpecialHolidaysWorked int
	OvertimeHours         decimal.Decimal
}

// Rates are the derived, unrounded pay rates used for the computation.
type Rates struct {
	Daily  decimal.Decimal
	Hourly decimal.Decimal
}

// Status is the payslip lifecycle state.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusApproved  Status = "approved"
	StatusCancelled Status = "cancelled"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusApproved, StatusCancelled:
		return true
	}
	return false
}

// Payslip is the itemized result for one employee and one period.
//
// Invariants:
//
//	GrossPay        == Earnings.Total()
//	TotalDeductions == Deductions.Total()
//	NetPay          == GrossPay - TotalDeductions
type Payslip struct {
	ID              string
	EmployeeID      string
	Period          calendar.Period
	Earnings        Earnings
	Deductions      Deductions
	GrossPay        decimal.Decimal
	TaxableIncome   decimal.Decimal
	TotalDeductions decimal.Decimal
	NetPay          decimal.Decimal
	Work            WorkDetails
	Rates           Rates
	Status          Status
	GeneratedAt     time.Time
	RequestID       string

	ApprovedBy string
	ApprovedAt *time.Time
	Remarks    string
}

// TotalEarnings is GrossPay recomputed from the lines.
func (p Payslip) TotalEarnings() decimal.Decimal { return p.Earnings.Total() }

// PeriodDisplay renders the pay period, e.g. "Feb 01 - Feb 15, 2025".
func (p Payslip) PeriodDisplay() string { return p.Period.Display() }

// Approve moves a draft payslip to approved.
func (p *Payslip) Approve(by string, at time.Time) error {
	if p.Status != StatusDraft {
		return &TransitionError{Kind: "payslip", From: string(p.Status), To: string(StatusApproved)}
	}
	p.Status = StatusApproved
	p.ApprovedBy = by
	p.ApprovedAt = &at
	return nil
}

// Cancel voids a draft or approved payslip.
func (p *Payslip) Cancel(remarks string) error {
	if p.Status == StatusCancelled {
		return &TransitionError{Kind: "payslip", From: string(p.Status), To: string(StatusCancelled)}
	}
	p.Status = StatusCancelled
	if remarks != "" {
		p.Remarks = remarks
	}
	return nil
}
