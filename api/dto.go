/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the domain model from the external API contract.

MONEY:
  Amounts go out as strings with two decimals ("13377.47") so no client
  parses them into a float by accident. Amounts coming in may be JSON
  numbers or strings; both decode straight into decimal.Decimal.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Request types carry validator/v10 struct tags, checked in decode().
  Decimal fields are validated through a registered custom type func, so
  "gte=0" works on them.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/payroll-engine/attendance"
	"github.com/warp/payroll-engine/calendar"
	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/statutory"
)

// =============================================================================
// CALCULATORS
// =============================================================================

// ContributionsDTO holds monthly and per-period contributions.
type ContributionsDTO struct {
	MonthlySalary string           `json:"monthly_salary"`
	Monthly       ContributionsSet `json:"monthly"`
	PerPeriod     ContributionsSet `json:"per_period"`
}

// ContributionsSet is one set of the three contributions.
type ContributionsSet struct {
	SSS        string `json:"sss"`
	PhilHealth string `json:"philhealth"`
	PagIbig    string `json:"pagibig"`
	Total      string `json:"total"`
}

// TaxDTO is the monthly withholding tax and the bracket that produced it.
type TaxDTO struct {
	MonthlyTaxable string         `json:"monthly_taxable"`
	Tax            string         `json:"tax"`
	Bracket        *TaxBracketDTO `json:"bracket,omitempty"`
}

// TaxBracketDTO describes a withholding bracket.
type TaxBracketDTO struct {
	Over   string `json:"over"`
	Anchor string `json:"anchor"`
	Base   string `json:"base"`
	Rate   string `json:"rate"`
}

// =============================================================================
// CALENDAR
// =============================================================================

// PeriodDTO is a resolved pay period with its calendar facts.
type PeriodDTO struct {
	Start           string `json:"start"`
	End             string `json:"end"`
	Display         string `json:"display"`
	CalendarDays    int    `json:"calendar_days"`
	WorkingDays     int    `json:"working_days"`
	RegularHolidays int    `json:"regular_holidays"`
	SpecialHolidays int    `json:"special_holidays"`
}

// HolidayDTO is a single holiday.
type HolidayDTO struct {
	Date     string `json:"date"`
	Name     string `json:"name"`
	Category string `json:"category"`
}

// HolidayCountDTO counts holidays in a range.
type HolidayCountDTO struct {
	Start   string `json:"start"`
	End     string `json:"end"`
	Regular int    `json:"regular"`
	Special int    `json:"special"`
}

// =============================================================================
// EMPLOYEES AND ATTENDANCE
// =============================================================================

// EmployeeDTO represents an employee in API responses.
type EmployeeDTO struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Email           string `json:"email,omitempty"`
	MonthlySalary   string `json:"monthly_salary"`
	PeriodAllowance string `json:"period_allowance"`
	PeriodDeduction string `json:"period_deduction"`
	HireDate        string `json:"hire_date,omitempty"`
	CreatedAt       string `json:"created_at,omitempty"`
}

// CreateEmployeeRequest is the request to create or update an employee.
type CreateEmployeeRequest struct {
	ID              string           `json:"id" validate:"required,max=64"`
	Name            string           `json:"name" validate:"required,max=200"`
	Email           string           `json:"email" validate:"omitempty,email"`
	MonthlySalary   *decimal.Decimal `json:"monthly_salary" validate:"omitempty,gte=0"`
	PeriodAllowance decimal.Decimal  `json:"period_allowance" validate:"gte=0"`
	PeriodDeduction decimal.Decimal  `json:"period_deduction" validate:"gte=0"`
	HireDate        string           `json:"hire_date" validate:"omitempty,datetime=2006-01-02"`
}

// AttendanceRequest records one day of attendance.
type AttendanceRequest struct {
	Date         string `json:"date" validate:"required,datetime=2006-01-02"`
	TimeIn       string `json:"time_in" validate:"omitempty,datetime=15:04"`
	TimeOut      string `json:"time_out" validate:"omitempty,datetime=15:04"`
	BreakMinutes *int   `json:"break_minutes" validate:"omitempty,gte=0,lte=720"`
	Status       string `json:"status" validate:"required,oneof=present absent late"`
	Remarks      string `json:"remarks" validate:"max=500"`
}

// AttendanceDTO is a stored attendance record.
type AttendanceDTO struct {
	ID           string `json:"id,omitempty"`
	EmployeeID   string `json:"employee_id"`
	Date         string `json:"date"`
	TimeIn       string `json:"time_in,omitempty"`
	TimeOut      string `json:"time_out,omitempty"`
	BreakMinutes int    `json:"break_minutes"`
	WorkedHours  string `json:"worked_hours"`
	Status       string `json:"status"`
	Remarks      string `json:"remarks,omitempty"`
}

// RangeRequest names an inclusive date range.
type RangeRequest struct {
	Start string `json:"start" validate:"required,datetime=2006-01-02"`
	End   string `json:"end" validate:"required,datetime=2006-01-02"`
}

// =============================================================================
// PAYSLIPS
// =============================================================================

// FactsDTO are explicit work facts for a preview.
type FactsDTO struct {
	DaysWorked            int             `json:"days_worked" validate:"gte=0"`
	OvertimeHours         decimal.Decimal `json:"overtime_hours" validate:"gte=0"`
	RegularHolidaysWorked int             `json:"regular_holidays_worked" validate:"gte=0"`
	SpecialHolidaysWorked int             `json:"special_holidays_worked" validate:"gte=0"`
	Allowances            decimal.Decimal `json:"allowances" validate:"gte=0"`
	OtherDeductions       decimal.Decimal `json:"other_deductions" validate:"gte=0"`
}

// PreviewRequest computes a payslip without saving it.
//
// With monthly_salary and facts, the computation is fully ad hoc and the
// employee need not exist. With neither, the stored employee and the
// configured fact source are used. Sending only one of them is a 400.
type PreviewRequest struct {
	EmployeeID    string           `json:"employee_id" validate:"required"`
	MonthlySalary *decimal.Decimal `json:"monthly_salary" validate:"omitempty,gte=0"`
	PeriodStart   string           `json:"period_start" validate:"required,datetime=2006-01-02"`
	PeriodEnd     string           `json:"period_end" validate:"required,datetime=2006-01-02"`
	Facts         *FactsDTO        `json:"facts"`
}

// EarningsDTO are payslip earnings lines.
type EarningsDTO struct {
	BasicPay    string `json:"basic_pay"`
	HolidayPay  string `json:"holiday_pay"`
	OvertimePay string `json:"overtime_pay"`
	Allowances  string `json:"allowances"`
}

// DeductionsDTO are payslip deduction lines.
type DeductionsDTO struct {
	SSS             string `json:"sss"`
	PhilHealth      string `json:"philhealth"`
	PagIbig         string `json:"pagibig"`
	WithholdingTax  string `json:"withholding_tax"`
	OtherDeductions string `json:"other_deductions"`
}

// WorkDTO are the facts a payslip was priced from.
type WorkDTO struct {
	DaysWorked            int    `json:"days_worked"`
	OvertimeHours         string `json:"overtime_hours"`
	RegularHolidaysWorked int    `json:"regular_holidays_worked"`
	SpecialHolidaysWorked int    `json:"special_holidays_worked"`
}

// PayslipDTO represents a payslip in API responses.
type PayslipDTO struct {
	ID              string        `json:"id,omitempty"`
	EmployeeID      string        `json:"employee_id"`
	PeriodStart     string        `json:"period_start"`
	PeriodEnd       string        `json:"period_end"`
	PeriodDisplay   string        `json:"period_display"`
	Earnings        EarningsDTO   `json:"earnings"`
	Deductions      DeductionsDTO `json:"deductions"`
	GrossPay        string        `json:"gross_pay"`
	TaxableIncome   string        `json:"taxable_income"`
	TotalDeductions string        `json:"total_deductions"`
	NetPay          string        `json:"net_pay"`
	Work            WorkDTO       `json:"work"`
	DailyRate       string        `json:"daily_rate"`
	HourlyRate      string        `json:"hourly_rate"`
	Status          string        `json:"status"`
	GeneratedAt     string        `json:"generated_at"`
	RequestID       string        `json:"request_id,omitempty"`
	ApprovedBy      string        `json:"approved_by,omitempty"`
	ApprovedAt      string        `json:"approved_at,omitempty"`
	Remarks         string        `json:"remarks,omitempty"`
}

// PeriodRef names a semi-monthly period.
type PeriodRef struct {
	Year  int `json:"year" validate:"required,gte=1900,lte=9999"`
	Month int `json:"month" validate:"required,gte=1,lte=12"`
	Half  int `json:"half" validate:"required,oneof=1 2"`
}

// GeneratePayslipRequest generates an approved payslip directly.
type GeneratePayslipRequest struct {
	EmployeeID string `json:"employee_id" validate:"required"`
	Approver   string `json:"approver"`
	PeriodRef
}

// DecisionRequest approves or rejects a request, or changes payslip status.
type DecisionRequest struct {
	Approver string `json:"approver"`
	Reason   string `json:"reason" validate:"max=500"`
}

// PayslipRequestDTO represents a payslip request in API responses.
type PayslipRequestDTO struct {
	ID              string `json:"id"`
	EmployeeID      string `json:"employee_id"`
	Year            int    `json:"year"`
	Month           int    `json:"month"`
	Half            int    `json:"half"`
	Display         string `json:"display"`
	Status          string `json:"status"`
	RequestedAt     string `json:"requested_at"`
	ProcessedBy     string `json:"processed_by,omitempty"`
	ProcessedAt     string `json:"processed_at,omitempty"`
	RejectionReason string `json:"rejection_reason,omitempty"`
	PayslipID       string `json:"payslip_id,omitempty"`
}

// RunFailureDTO is one employee a run could not pay.
type RunFailureDTO struct {
	EmployeeID string `json:"employee_id"`
	Error      string `json:"error"`
}

// RunDTO summarizes a payroll run.
type RunDTO struct {
	PeriodStart     string          `json:"period_start"`
	PeriodEnd       string          `json:"period_end"`
	Generated       []PayslipDTO    `json:"generated"`
	Skipped         []string        `json:"skipped"`
	Failed          []RunFailureDTO `json:"failed"`
	GrossPay        string          `json:"gross_pay"`
	TotalDeductions string          `json:"total_deductions"`
	NetPay          string          `json:"net_pay"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func money(d decimal.Decimal) string { return d.StringFixed(2) }

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func toContributionsSet(c statutory.Contributions) ContributionsSet {
	return ContributionsSet{
		SSS:        money(c.SSS),
		PhilHealth: money(c.PhilHealth),
		PagIbig:    money(c.PagIbig),
		Total:      money(c.Total()),
	}
}

func toTaxBracketDTO(b statutory.TaxBracket) *TaxBracketDTO {
	return &TaxBracketDTO{
		Over:   b.Over.String(),
		Anchor: b.Anchor.String(),
		Base:   money(b.Base),
		Rate:   b.Rate.String(),
	}
}

func toPeriodDTO(s payroll.PeriodSummary) PeriodDTO {
	return PeriodDTO{
		Start:           s.Period.Start.String(),
		End:             s.Period.End.String(),
		Display:         s.Period.Display(),
		CalendarDays:    s.CalendarDays,
		WorkingDays:     s.WorkingDays,
		RegularHolidays: s.RegularHolidays,
		SpecialHolidays: s.SpecialHolidays,
	}
}

func toHolidayDTOs(hs []calendar.Holiday) []HolidayDTO {
	dtos := make([]HolidayDTO, len(hs))
	for i, h := range hs {
		dtos[i] = HolidayDTO{Date: h.Date.String(), Name: h.Name, Category: string(h.Category)}
	}
	return dtos
}

func toEmployeeDTO(e payroll.EmployeeRecord) EmployeeDTO {
	dto := EmployeeDTO{
		ID:              e.ID,
		Name:            e.Name,
		Email:           e.Email,
		MonthlySalary:   money(e.MonthlySalary),
		PeriodAllowance: money(e.PeriodAllowance),
		PeriodDeduction: money(e.PeriodDeduction),
	}
	if !e.HireDate.IsZero() {
		dto.HireDate = e.HireDate.String()
	}
	if !e.CreatedAt.IsZero() {
		dto.CreatedAt = e.CreatedAt.Format(time.RFC3339)
	}
	return dto
}

func toAttendanceDTO(r attendance.Record) AttendanceDTO {
	dto := AttendanceDTO{
		ID:           r.ID,
		EmployeeID:   r.EmployeeID,
		Date:         r.Date.String(),
		BreakMinutes: r.Break(),
		WorkedHours:  money(r.WorkedHours()),
		Status:       string(r.Status),
		Remarks:      r.Remarks,
	}
	if r.TimeIn != nil {
		dto.TimeIn = r.TimeIn.String()
	}
	if r.TimeOut != nil {
		dto.TimeOut = r.TimeOut.String()
	}
	return dto
}

func toPayslipDTO(p payroll.Payslip) PayslipDTO {
	return PayslipDTO{
		ID:            p.ID,
		EmployeeID:    p.EmployeeID,
		PeriodStart:   p.Period.Start.String(),
		PeriodEnd:     p.Period.End.String(),
		PeriodDisplay: p.PeriodDisplay(),
		Earnings: EarningsDTO{
			BasicPay:    money(p.Earnings.BasicPay),
			HolidayPay:  money(p.Earnings.HolidayPay),
			OvertimePay: money(p.Earnings.OvertimePay),
			Allowances:  money(p.Earnings.Allowances),
		},
		Deductions: DeductionsDTO{
			SSS:             money(p.Deductions.SSS),
			PhilHealth:      money(p.Deductions.PhilHealth),
			PagIbig:         money(p.Deductions.PagIbig),
			WithholdingTax:  money(p.Deductions.WithholdingTax),
			OtherDeductions: money(p.Deductions.OtherDeductions),
		},
		GrossPay:        money(p.GrossPay),
		TaxableIncome:   money(p.TaxableIncome),
		TotalDeductions: money(p.TotalDeductions),
		NetPay:          money(p.NetPay),
		Work: WorkDTO{
			DaysWorked:            p.Work.DaysWorked,
			OvertimeHours:         p.Work.OvertimeHours.String(),
			RegularHolidaysWorked: p.Work.RegularHolidaysWorked,
			SpecialHolidaysWorked: p.Work.SpecialHolidaysWorked,
		},
		DailyRate:   p.Rates.Daily.StringFixed(4),
		HourlyRate:  p.Rates.Hourly.StringFixed(4),
		Status:      string(p.Status),
		GeneratedAt: p.GeneratedAt.UTC().Format(time.RFC3339),
		RequestID:   p.RequestID,
		ApprovedBy:  p.ApprovedBy,
		ApprovedAt:  formatTime(p.ApprovedAt),
		Remarks:     p.Remarks,
	}
}

func toPayslipDTOs(ps []payroll.Payslip) []PayslipDTO {
	dtos := make([]PayslipDTO, len(ps))
	for i, p := range ps {
		dtos[i] = toPayslipDTO(p)
	}
	return dtos
}

func toPayslipRequestDTO(r payroll.PayslipRequest) PayslipRequestDTO {
	return PayslipRequestDTO{
		ID:              r.ID,
		EmployeeID:      r.EmployeeID,
		Year:            r.Year,
		Month:           r.Month,
		Half:            int(r.Half),
		Display:         r.Display(),
		Status:          string(r.Status),
		RequestedAt:     r.RequestedAt.UTC().Format(time.RFC3339),
		ProcessedBy:     r.ProcessedBy,
		ProcessedAt:     formatTime(r.ProcessedAt),
		RejectionReason: r.RejectionReason,
		PayslipID:       r.PayslipID,
	}
}

func toRunDTO(res *payroll.RunResult) RunDTO {
	dto := RunDTO{
		PeriodStart:     res.Period.Start.String(),
		PeriodEnd:       res.Period.End.String(),
		Generated:       toPayslipDTOs(res.Generated),
		Skipped:         res.Skipped,
		Failed:          make([]RunFailureDTO, len(res.Failed)),
		GrossPay:        money(res.GrossPay),
		TotalDeductions: money(res.TotalDeductions),
		NetPay:          money(res.NetPay),
	}
	if dto.Skipped == nil {
		dto.Skipped = []string{}
	}
	for i, f := range res.Failed {
		dto.Failed[i] = RunFailureDTO{EmployeeID: f.EmployeeID, Error: f.Err.Error()}
	}
	return dto
}
