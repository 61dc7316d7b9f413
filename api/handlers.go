/*
handlers.go - HTTP API handlers for the payroll engine

PURPOSE:
  Exposes the calculators, the payslip engine and the payroll workflow via
  REST API. Handles HTTP request/response, JSON serialization, and
  delegates to the payroll package.

ENDPOINTS:
  Calculators:
    GET    /api/calc/contributions?salary=     SSS, PhilHealth, Pag-IBIG
    GET    /api/calc/tax?income=               Monthly withholding tax
    GET    /api/periods/resolve?year=&month=&half=
    GET    /api/holidays?year=                 Holidays of a year
    GET    /api/holidays/count?start=&end=     Regular/special counts

  Employees:
    GET    /api/employees                      List employees
    POST   /api/employees                      Create or update employee
    GET    /api/employees/{id}                 Get employee
    DELETE /api/employees/{id}                 Delete employee
    GET    /api/employees/{id}/attendance      Attendance in a range
    POST   /api/employees/{id}/attendance      Record a day
    POST   /api/employees/{id}/attendance/seed Generate demo attendance
    GET    /api/employees/{id}/payslips        Employee payslips
    POST   /api/employees/{id}/payslip-requests Ask for a payslip

  Payslips:
    POST   /api/payslips/preview               Compute without saving
    POST   /api/payslips                       Generate approved payslip
    GET    /api/payslips/{id}                  Get payslip
    GET    /api/payslips/{id}/pdf              Download as PDF
    POST   /api/payslips/{id}/approve          Draft -> approved
    POST   /api/payslips/{id}/cancel           Cancel

  Requests and runs:
    GET    /api/payslip-requests               Filter by status/employee
    GET    /api/payslip-requests/pending       Pending requests
    POST   /api/payslip-requests/{id}/approve  Generate and approve
    POST   /api/payslip-requests/{id}/reject   Reject with reason
    POST   /api/payroll-runs                   Draft payslips for everyone

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input, unsupported year
  - 404: Employee, request or payslip not found
  - 409: Duplicate payslip/request, invalid status transition
  - 500: Internal errors

SECURITY NOTE:
  No authentication. Approver names are taken from the request body.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/warp/payroll-engine/attendance"
	"github.com/warp/payroll-engine/calendar"
	"github.com/warp/payroll-engine/logging"
	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/render"
	"github.com/warp/payroll-engine/statutory"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	Service  *payroll.Service
	Validate *validator.Validate
	Seeder   attendance.Seeder
	Company  string // printed on PDF payslips
}

// NewHandler creates a new handler.
func NewHandler(svc *payroll.Service) *Handler {
	return &Handler{
		Service:  svc,
		Validate: NewValidator(),
	}
}

// NewValidator returns a validator that reports JSON field names and
// compares decimal.Decimal fields numerically.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	return v
}

func (h *Handler) engine() *payroll.Engine { return h.Service.Engine }
func (h *Handler) store() payroll.Store    { return h.Service.Store }

func (h *Handler) logger(ctx context.Context) *zap.Logger {
	return logging.FromContext(ctx, h.Service.Logger)
}

// =============================================================================
// HEALTH
// =============================================================================

type pinger interface {
	Ping(ctx context.Context) error
}

// Health reports whether the service and its store are reachable.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if p, ok := h.Service.Store.(pinger); ok {
		if err := p.Ping(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "Store unavailable", err)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// CALCULATOR ENDPOINTS
// =============================================================================

// CalcContributions returns the monthly and per-period contributions for a
// monthly salary.
func (h *Handler) CalcContributions(w http.ResponseWriter, r *http.Request) {
	salary, err := queryDecimal(r, "salary")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	calc := h.engine().Calculator()
	monthly, err := calc.Monthly(salary)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	periods := calc.Tables().Pay.PeriodsPerMonth
	perPeriod := statutory.Contributions{
		SSS:        statutory.Round2(monthly.SSS.Div(periods)),
		PhilHealth: statutory.Round2(monthly.PhilHealth.Div(periods)),
		PagIbig:    statutory.Round2(monthly.PagIbig.Div(periods)),
	}
	writeJSON(w, http.StatusOK, ContributionsDTO{
		MonthlySalary: money(salary),
		Monthly:       toContributionsSet(monthly),
		PerPeriod:     toContributionsSet(perPeriod),
	})
}

// CalcTax returns the monthly withholding tax for monthly taxable income.
func (h *Handler) CalcTax(w http.ResponseWriter, r *http.Request) {
	income, err := queryDecimal(r, "income")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	calc := h.engine().Calculator()
	dto := TaxDTO{
		MonthlyTaxable: money(income),
		Tax:            money(calc.WithholdingTax(income)),
	}
	if b, ok := calc.TaxBracketFor(income); ok {
		dto.Bracket = toTaxBracketDTO(b)
	}
	writeJSON(w, http.StatusOK, dto)
}

// ResolvePeriod returns the semi-monthly period for year/month/half.
func (h *Handler) ResolvePeriod(w http.ResponseWriter, r *http.Request) {
	ref, err := queryPeriodRef(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	p, err := calendar.Resolve(ref.Year, ref.Month, calendar.Half(ref.Half))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	sum, err := h.engine().Summarize(p)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPeriodDTO(sum))
}

// ListHolidays returns every holiday of a year.
func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	year, err := queryInt(r, "year")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	hs, err := h.engine().Holidays().Holidays(year)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toHolidayDTOs(hs))
}

// CountHolidays counts regular and special holidays in an inclusive range.
func (h *Handler) CountHolidays(w http.ResponseWriter, r *http.Request) {
	start, end, err := queryRange(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	regular, special, err := h.engine().Holidays().HolidaysInRange(start, end)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, HolidayCountDTO{
		Start:   start.String(),
		End:     end.String(),
		Regular: regular,
		Special: special,
	})
}

// =============================================================================
// EMPLOYEE ENDPOINTS
// =============================================================================

// ListEmployees returns all employees.
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	emps, err := h.store().ListEmployees(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	dtos := make([]EmployeeDTO, len(emps))
	for i, e := range emps {
		dtos[i] = toEmployeeDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateEmployee creates or replaces an employee.
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req CreateEmployeeRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.MonthlySalary == nil {
		writeError(w, http.StatusBadRequest, "Validation failed", errors.New("monthly_salary is required"))
		return
	}

	rec := payroll.EmployeeRecord{
		ID:              req.ID,
		Name:            req.Name,
		Email:           req.Email,
		MonthlySalary:   *req.MonthlySalary,
		PeriodAllowance: req.PeriodAllowance,
		PeriodDeduction: req.PeriodDeduction,
		CreatedAt:       h.Service.Now(),
	}
	if req.HireDate != "" {
		d, err := calendar.ParseDate(req.HireDate)
		if err != nil {
			h.respondError(w, r, err)
			return
		}
		rec.HireDate = d
	}
	if err := h.store().SaveEmployee(r.Context(), rec); err != nil {
		h.respondError(w, r, err)
		return
	}
	h.logger(r.Context()).Info("employee saved", zap.String("employee_id", rec.ID))
	writeJSON(w, http.StatusCreated, toEmployeeDTO(rec))
}

// GetEmployee returns one employee.
func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	emp, err := h.employee(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(*emp))
}

// DeleteEmployee removes an employee.
func (h *Handler) DeleteEmployee(w http.ResponseWriter, r *http.Request) {
	emp, err := h.employee(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if err := h.store().DeleteEmployee(r.Context(), emp.ID); err != nil {
		h.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListEmployeePayslips returns an employee's payslips, latest period first.
func (h *Handler) ListEmployeePayslips(w http.ResponseWriter, r *http.Request) {
	emp, err := h.employee(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	slips, err := h.store().ListPayslips(r.Context(), emp.ID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPayslipDTOs(slips))
}

// =============================================================================
// ATTENDANCE ENDPOINTS
// =============================================================================

// RecordAttendance stores one day of attendance, replacing any record for
// the same day.
func (h *Handler) RecordAttendance(w http.ResponseWriter, r *http.Request) {
	emp, err := h.employee(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	var req AttendanceRequest
	if !h.decode(w, r, &req) {
		return
	}

	rec, err := attendanceRecord(emp.ID, req)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	rec.CreatedAt = h.Service.Now()
	if err := rec.Validate(); err != nil {
		h.respondError(w, r, err)
		return
	}
	if err := h.store().SaveAttendance(r.Context(), rec); err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAttendanceDTO(rec))
}

func attendanceRecord(employeeID string, req AttendanceRequest) (attendance.Record, error) {
	date, err := calendar.ParseDate(req.Date)
	if err != nil {
		return attendance.Record{}, err
	}
	rec := attendance.Record{
		EmployeeID:   employeeID,
		Date:         date,
		BreakMinutes: req.BreakMinutes,
		Status:       attendance.Status(req.Status),
		Remarks:      req.Remarks,
	}
	if req.TimeIn != "" {
		c, err := attendance.ParseClock(req.TimeIn)
		if err != nil {
			return attendance.Record{}, err
		}
		rec.TimeIn = &c
	}
	if req.TimeOut != "" {
		c, err := attendance.ParseClock(req.TimeOut)
		if err != nil {
			return attendance.Record{}, err
		}
		rec.TimeOut = &c
	}
	return rec, nil
}

// ListAttendance returns an employee's attendance between start and end.
func (h *Handler) ListAttendance(w http.ResponseWriter, r *http.Request) {
	emp, err := h.employee(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	start, end, err := queryRange(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	records, err := h.store().LoadAttendance(r.Context(), emp.ID, start, end)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	dtos := make([]AttendanceDTO, len(records))
	for i, rec := range records {
		dtos[i] = toAttendanceDTO(rec)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// SeedAttendance fills a range with generated weekday attendance.
func (h *Handler) SeedAttendance(w http.ResponseWriter, r *http.Request) {
	emp, err := h.employee(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	var req RangeRequest
	if !h.decode(w, r, &req) {
		return
	}
	p, err := parsePeriod(req.Start, req.End)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	ctx := r.Context()
	records := h.Seeder.Records(emp.ID, p)
	err = h.Service.Store.WithTx(ctx, func(st payroll.Store) error {
		for _, rec := range records {
			rec.CreatedAt = h.Service.Now()
			if err := st.SaveAttendance(ctx, rec); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.logger(ctx).Info("attendance seeded",
		zap.String("employee_id", emp.ID),
		zap.String("period", p.String()),
		zap.Int("records", len(records)),
	)
	dtos := make([]AttendanceDTO, len(records))
	for i, rec := range records {
		dtos[i] = toAttendanceDTO(rec)
	}
	writeJSON(w, http.StatusCreated, dtos)
}

// =============================================================================
// PAYSLIP ENDPOINTS
// =============================================================================

// PreviewPayslip computes a payslip without saving it.
func (h *Handler) PreviewPayslip(w http.ResponseWriter, r *http.Request) {
	var req PreviewRequest
	if !h.decode(w, r, &req) {
		return
	}
	if (req.MonthlySalary == nil) != (req.Facts == nil) {
		h.respondError(w, r, fmt.Errorf("%w: monthly_salary and facts must be sent together", payroll.ErrInvalidInput))
		return
	}
	p, err := parsePeriod(req.PeriodStart, req.PeriodEnd)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	var slip payroll.Payslip
	if req.MonthlySalary != nil && req.Facts != nil {
		slip, err = h.engine().Generate(payroll.Request{
			Employee: payroll.NewEmployee(req.EmployeeID, *req.MonthlySalary),
			Period:   p,
			Facts: payroll.Facts{
				DaysWorked:            req.Facts.DaysWorked,
				OvertimeHours:         req.Facts.OvertimeHours,
				RegularHolidaysWorked: req.Facts.RegularHolidaysWorked,
				SpecialHolidaysWorked: req.Facts.SpecialHolidaysWorked,
				Allowances:            req.Facts.Allowances,
				OtherDeductions:       req.Facts.OtherDeductions,
			},
		})
	} else {
		slip, err = h.Service.Preview(r.Context(), req.EmployeeID, p)
	}
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPayslipDTO(slip))
}

// GeneratePayslip generates and approves a payslip without a request.
func (h *Handler) GeneratePayslip(w http.ResponseWriter, r *http.Request) {
	var req GeneratePayslipRequest
	if !h.decode(w, r, &req) {
		return
	}
	p, err := calendar.Resolve(req.Year, req.Month, calendar.Half(req.Half))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	slip, err := h.Service.GenerateDirect(r.Context(), req.EmployeeID, p, req.Approver)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPayslipDTO(*slip))
}

// GetPayslip returns one payslip.
func (h *Handler) GetPayslip(w http.ResponseWriter, r *http.Request) {
	slip, err := h.Service.GetPayslip(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPayslipDTO(*slip))
}

// PayslipPDF renders a payslip as a PDF download.
func (h *Handler) PayslipPDF(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	slip, err := h.Service.GetPayslip(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	header := render.Header{Company: h.Company, EmployeeID: slip.EmployeeID}
	if emp, err := h.store().GetEmployee(ctx, slip.EmployeeID); err != nil {
		h.respondError(w, r, err)
		return
	} else if emp != nil {
		header = render.HeaderFor(h.Company, *emp)
	}

	// Render into a buffer so a failure can still produce a JSON error.
	var buf bytes.Buffer
	if err := render.PDF(&buf, header, *slip); err != nil {
		h.respondError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="payslip-%s-%s.pdf"`, slip.EmployeeID, slip.Period.Start))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// ApprovePayslip moves a draft payslip to approved.
func (h *Handler) ApprovePayslip(w http.ResponseWriter, r *http.Request) {
	var req DecisionRequest
	if !h.decode(w, r, &req) {
		return
	}
	slip, err := h.Service.ApprovePayslip(r.Context(), chi.URLParam(r, "id"), req.Approver)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPayslipDTO(*slip))
}

// CancelPayslip cancels a payslip.
func (h *Handler) CancelPayslip(w http.ResponseWriter, r *http.Request) {
	var req DecisionRequest
	if !h.decode(w, r, &req) {
		return
	}
	slip, err := h.Service.CancelPayslip(r.Context(), chi.URLParam(r, "id"), req.Reason)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPayslipDTO(*slip))
}

// =============================================================================
// REQUEST ENDPOINTS
// =============================================================================

// SubmitPayslipRequest records an employee's request for a period.
func (h *Handler) SubmitPayslipRequest(w http.ResponseWriter, r *http.Request) {
	var ref PeriodRef
	if !h.decode(w, r, &ref) {
		return
	}
	req, err := h.Service.SubmitRequest(r.Context(), chi.URLParam(r, "id"), ref.Year, ref.Month, calendar.Half(ref.Half))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPayslipRequestDTO(*req))
}

// ListPayslipRequests returns requests filtered by status and employee.
func (h *Handler) ListPayslipRequests(w http.ResponseWriter, r *http.Request) {
	filter := payroll.RequestFilter{
		EmployeeID: r.URL.Query().Get("employee_id"),
		Status:     payroll.RequestStatus(r.URL.Query().Get("status")),
	}
	h.listRequests(w, r, filter)
}

// ListPendingRequests returns requests awaiting a decision.
func (h *Handler) ListPendingRequests(w http.ResponseWriter, r *http.Request) {
	h.listRequests(w, r, payroll.RequestFilter{Status: payroll.RequestPending})
}

func (h *Handler) listRequests(w http.ResponseWriter, r *http.Request, filter payroll.RequestFilter) {
	reqs, err := h.store().ListRequests(r.Context(), filter)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	dtos := make([]PayslipRequestDTO, len(reqs))
	for i, req := range reqs {
		dtos[i] = toPayslipRequestDTO(req)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ApprovePayslipRequest generates the requested payslip.
func (h *Handler) ApprovePayslipRequest(w http.ResponseWriter, r *http.Request) {
	var req DecisionRequest
	if !h.decode(w, r, &req) {
		return
	}
	slip, err := h.Service.ApproveRequest(r.Context(), chi.URLParam(r, "id"), req.Approver)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPayslipDTO(*slip))
}

// RejectPayslipRequest rejects a pending request.
func (h *Handler) RejectPayslipRequest(w http.ResponseWriter, r *http.Request) {
	var req DecisionRequest
	if !h.decode(w, r, &req) {
		return
	}
	out, err := h.Service.RejectRequest(r.Context(), chi.URLParam(r, "id"), req.Approver, req.Reason)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPayslipRequestDTO(*out))
}

// =============================================================================
// PAYROLL RUNS
// =============================================================================

// CreatePayrollRun generates draft payslips for every employee.
func (h *Handler) CreatePayrollRun(w http.ResponseWriter, r *http.Request) {
	var ref PeriodRef
	if !h.decode(w, r, &ref) {
		return
	}
	p, err := calendar.Resolve(ref.Year, ref.Month, calendar.Half(ref.Half))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	res, err := h.Service.Run(r.Context(), p)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRunDTO(res))
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) employee(r *http.Request) (*payroll.EmployeeRecord, error) {
	id := chi.URLParam(r, "id")
	emp, err := h.store().GetEmployee(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if emp == nil {
		return nil, fmt.Errorf("%w: %s", payroll.ErrEmployeeNotFound, id)
	}
	return emp, nil
}

// decode reads and validates a JSON body. An empty body decodes to the zero
// value, which is then validated like any other. It writes the error
// response itself and reports whether the handler should continue.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	if err := h.Validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{
				Error:   "Validation failed",
				Code:    "validation_failed",
				Details: validationDetails(verrs),
			})
			return false
		}
		writeError(w, http.StatusBadRequest, "Validation failed", err)
		return false
	}
	return true
}

func validationDetails(verrs validator.ValidationErrors) map[string]string {
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		msg := fe.Tag()
		if fe.Param() != "" {
			msg += "=" + fe.Param()
		}
		out[fe.Field()] = msg
	}
	return out
}

// respondError maps domain errors onto HTTP statuses.
func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		h.logger(r.Context()).Error("request failed", zap.Error(err))
		writeJSON(w, status, ErrorResponse{Error: "Internal error", Code: code})
		return
	}
	writeJSON(w, status, ErrorResponse{Error: err.Error(), Code: code})
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, payroll.ErrInvalidEmployee):
		return http.StatusBadRequest, "invalid_employee"
	case errors.Is(err, payroll.ErrUnsupportedYear):
		return http.StatusBadRequest, "unsupported_year"
	case errors.Is(err, payroll.ErrInvalidPeriod):
		return http.StatusBadRequest, "invalid_period"
	case errors.Is(err, calendar.ErrInvalidDate):
		return http.StatusBadRequest, "invalid_date"
	case errors.Is(err, attendance.ErrInvalidRecord):
		return http.StatusBadRequest, "invalid_attendance"
	case payroll.IsClientError(err):
		return http.StatusBadRequest, "invalid_input"
	case payroll.IsNotFound(err):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, payroll.ErrDuplicate):
		return http.StatusConflict, "duplicate"
	case payroll.IsConflict(err):
		return http.StatusConflict, "invalid_transition"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, fmt.Errorf("%w: missing %s", payroll.ErrInvalidInput, name)
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q is not a number", payroll.ErrInvalidInput, name, raw)
	}
	return n, nil
}

func queryDecimal(r *http.Request, name string) (decimal.Decimal, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return decimal.Zero, fmt.Errorf("%w: missing %s", payroll.ErrInvalidInput, name)
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s %q is not a decimal", payroll.ErrInvalidInput, name, raw)
	}
	return d, nil
}

func queryPeriodRef(r *http.Request) (PeriodRef, error) {
	var ref PeriodRef
	var err error
	if ref.Year, err = queryInt(r, "year"); err != nil {
		return ref, err
	}
	if ref.Month, err = queryInt(r, "month"); err != nil {
		return ref, err
	}
	if ref.Half, err = queryInt(r, "half"); err != nil {
		return ref, err
	}
	return ref, nil
}

func queryRange(r *http.Request) (calendar.Date, calendar.Date, error) {
	start, err := calendar.ParseDate(r.URL.Query().Get("start"))
	if err != nil {
		return calendar.Date{}, calendar.Date{}, err
	}
	end, err := calendar.ParseDate(r.URL.Query().Get("end"))
	if err != nil {
		return calendar.Date{}, calendar.Date{}, err
	}
	return start, end, nil
}

func parsePeriod(start, end string) (calendar.Period, error) {
	s, err := calendar.ParseDate(start)
	if err != nil {
		return calendar.Period{}, err
	}
	e, err := calendar.ParseDate(end)
	if err != nil {
		return calendar.Period{}, err
	}
	return calendar.NewPeriod(s, e)
}
