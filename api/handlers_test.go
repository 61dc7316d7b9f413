/*
handlers_test.go - Unit tests for API handlers

Tests for:
- Calculator endpoints (contributions, tax, period resolution)
- Ad hoc payslip preview
- Request workflow: submit, duplicate, approve, reject, PDF
- Payroll runs and error status mapping
- Rate limiting
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/warp/payroll-engine/factory"
	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/store/memory"
)

var testNow = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func newTestAPI(t *testing.T) (http.Handler, *memory.Store) {
	t.Helper()
	rs, err := factory.Default()
	require.NoError(t, err)

	engine := payroll.NewEngine(rs.Calculator, rs.Holidays, payroll.WithClock(func() time.Time { return testNow }))
	store := memory.New()
	svc := payroll.NewService(engine, store, payroll.FixedFacts{DaysWorked: 11}, zap.NewNop())
	svc.Now = func() time.Time { return testNow }

	h := NewHandler(svc)
	h.Company = "Acme Corp"
	return NewRouter(h, RouterConfig{}), store
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func createEmployee(t *testing.T, h http.Handler, id, salary string) {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/api/employees", map[string]any{
		"id":             id,
		"name":           "Employee " + id,
		"email":          id + "@example.com",
		"monthly_salary": salary,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

// =============================================================================
// CALCULATORS
// =============================================================================

func TestCalcContributions_MonthlyAndPerPeriod(t *testing.T) {
	// GIVEN: The default ruleset
	h, _ := newTestAPI(t)

	// WHEN: Asking for contributions on 30,000/month
	rec := do(t, h, http.MethodGet, "/api/calc/contributions?salary=30000", nil)

	// THEN: SSS is the top bracket, PhilHealth 2.5%, Pag-IBIG capped
	require.Equal(t, http.StatusOK, rec.Code)
	dto := decodeBody[ContributionsDTO](t, rec)
	assert.Equal(t, "1350.00", dto.Monthly.SSS)
	assert.Equal(t, "750.00", dto.Monthly.PhilHealth)
	assert.Equal(t, "100.00", dto.Monthly.PagIbig)
	assert.Equal(t, "2200.00", dto.Monthly.Total)
	assert.Equal(t, "675.00", dto.PerPeriod.SSS)
	assert.Equal(t, "1100.00", dto.PerPeriod.Total)
}

func TestCalcContributions_NegativeSalaryIsBadRequest(t *testing.T) {
	h, _ := newTestAPI(t)

	rec := do(t, h, http.MethodGet, "/api/calc/contributions?salary=-1", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_input", decodeBody[ErrorResponse](t, rec).Code)
}

func TestCalcTax_SecondBracket(t *testing.T) {
	// GIVEN: Monthly taxable income of 27,800
	h, _ := newTestAPI(t)

	// WHEN: Computing withholding tax
	rec := do(t, h, http.MethodGet, "/api/calc/tax?income=27800", nil)

	// THEN: 15% of the excess over 20,833
	require.Equal(t, http.StatusOK, rec.Code)
	dto := decodeBody[TaxDTO](t, rec)
	assert.Equal(t, "1045.05", dto.Tax)
	require.NotNil(t, dto.Bracket)
	assert.Equal(t, "20833", dto.Bracket.Over)
}

func TestCalcTax_ExemptHasNoBracket(t *testing.T) {
	h, _ := newTestAPI(t)

	rec := do(t, h, http.MethodGet, "/api/calc/tax?income=20833", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	dto := decodeBody[TaxDTO](t, rec)
	assert.Equal(t, "0.00", dto.Tax)
	assert.Nil(t, dto.Bracket)
}

func TestResolvePeriod_SecondHalfOfFebruary(t *testing.T) {
	h, _ := newTestAPI(t)

	rec := do(t, h, http.MethodGet, "/api/periods/resolve?year=2025&month=2&half=2", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	dto := decodeBody[PeriodDTO](t, rec)
	assert.Equal(t, "2025-02-16", dto.Start)
	assert.Equal(t, "2025-02-28", dto.End)
	assert.Equal(t, 13, dto.CalendarDays)
	assert.Equal(t, 10, dto.WorkingDays)
	assert.Equal(t, 0, dto.RegularHolidays)
	assert.Equal(t, 1, dto.SpecialHolidays, "EDSA anniversary on the 25th")
}

func TestResolvePeriod_ErrorCodes(t *testing.T) {
	h, _ := newTestAPI(t)

	tests := []struct {
		name string
		path string
		code string
	}{
		{"unsupported year", "/api/periods/resolve?year=2030&month=1&half=1", "unsupported_year"},
		{"bad half", "/api/periods/resolve?year=2025&month=1&half=3", "invalid_period"},
		{"bad month", "/api/periods/resolve?year=2025&month=13&half=1", "invalid_period"},
		{"missing year", "/api/periods/resolve?month=1&half=1", "invalid_input"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodGet, tt.path, nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.code, decodeBody[ErrorResponse](t, rec).Code)
		})
	}
}

func TestCountHolidays_April2025(t *testing.T) {
	h, _ := newTestAPI(t)

	rec := do(t, h, http.MethodGet, "/api/holidays/count?start=2025-04-01&end=2025-04-30", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	dto := decodeBody[HolidayCountDTO](t, rec)
	assert.Equal(t, 4, dto.Regular)
	assert.Equal(t, 0, dto.Special)
}

// =============================================================================
// PREVIEW
// =============================================================================

func TestPreviewPayslip_AdHoc(t *testing.T) {
	// GIVEN: A 30,000/month employee who worked 11 days in Feb 1-15 2025
	h, _ := newTestAPI(t)

	// WHEN: Previewing with explicit facts
	rec := do(t, h, http.MethodPost, "/api/payslips/preview", map[string]any{
		"employee_id":    "adhoc",
		"monthly_salary": "30000",
		"period_start":   "2025-02-01",
		"period_end":     "2025-02-15",
		"facts":          map[string]any{"days_worked": 11},
	})

	// THEN: The payslip matches the hand-computed figures
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	dto := decodeBody[PayslipDTO](t, rec)
	assert.Equal(t, "15000.00", dto.GrossPay)
	assert.Equal(t, "675.00", dto.Deductions.SSS)
	assert.Equal(t, "375.00", dto.Deductions.PhilHealth)
	assert.Equal(t, "50.00", dto.Deductions.PagIbig)
	assert.Equal(t, "522.53", dto.Deductions.WithholdingTax)
	assert.Equal(t, "13900.00", dto.TaxableIncome)
	assert.Equal(t, "1622.53", dto.TotalDeductions)
	assert.Equal(t, "13377.47", dto.NetPay)
	assert.Equal(t, "Feb 01 - Feb 15, 2025", dto.PeriodDisplay)
}

func TestPreviewPayslip_ValidationErrors(t *testing.T) {
	h, _ := newTestAPI(t)

	rec := do(t, h, http.MethodPost, "/api/payslips/preview", map[string]any{
		"period_start": "2025-02-01",
		"period_end":   "15/02/2025",
		"facts":        map[string]any{"days_worked": -1},
	})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeBody[ErrorResponse](t, rec)
	assert.Equal(t, "validation_failed", resp.Code)
	details, ok := resp.Details.(map[string]any)
	require.True(t, ok)
	assert.Contains(t, details, "employee_id")
	assert.Contains(t, details, "period_end")
	assert.Contains(t, details, "days_worked")
}

func TestPreviewPayslip_HalfFilledAdHocBody(t *testing.T) {
	h, store := newTestAPI(t)
	createEmployee(t, h, "emp-1", "30000")

	tests := map[string]map[string]any{
		"salary without facts": {"monthly_salary": "99999"},
		"facts without salary": {"facts": map[string]any{"days_worked": 3}},
	}
	for name, extra := range tests {
		t.Run(name, func(t *testing.T) {
			// GIVEN: A stored employee and a body carrying only half of the ad hoc inputs
			body := map[string]any{
				"employee_id":  "emp-1",
				"period_start": "2025-02-01",
				"period_end":   "2025-02-15",
			}
			for k, v := range extra {
				body[k] = v
			}

			// WHEN: Previewing
			rec := do(t, h, http.MethodPost, "/api/payslips/preview", body)

			// THEN: The body is rejected rather than silently using the stored employee
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			resp := decodeBody[ErrorResponse](t, rec)
			assert.Equal(t, "invalid_input", resp.Code)
			assert.Contains(t, resp.Error, "monthly_salary and facts")
		})
	}

	slips, err := store.ListPayslips(context.Background(), "emp-1")
	require.NoError(t, err)
	assert.Empty(t, slips)
}

func TestPreviewPayslip_StoredEmployeeNotFound(t *testing.T) {
	h, _ := newTestAPI(t)

	rec := do(t, h, http.MethodPost, "/api/payslips/preview", map[string]any{
		"employee_id":  "ghost",
		"period_start": "2025-02-01",
		"period_end":   "2025-02-15",
	})

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func TestCreateEmployee_RequiresSalary(t *testing.T) {
	h, _ := newTestAPI(t)

	rec := do(t, h, http.MethodPost, "/api/employees", map[string]any{
		"id":   "emp-1",
		"name": "No Salary",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateEmployee_RejectsNegativeAllowance(t *testing.T) {
	h, _ := newTestAPI(t)

	rec := do(t, h, http.MethodPost, "/api/employees", map[string]any{
		"id":               "emp-1",
		"name":             "Negative",
		"monthly_salary":   "20000",
		"period_allowance": "-5",
	})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "period_allowance")
}

func TestRecordAttendance_RoundTrip(t *testing.T) {
	h, _ := newTestAPI(t)
	createEmployee(t, h, "emp-1", "22000")

	rec := do(t, h, http.MethodPost, "/api/employees/emp-1/attendance", map[string]any{
		"date":     "2025-02-03",
		"time_in":  "08:55",
		"time_out": "18:10",
		"status":   "present",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/api/employees/emp-1/attendance?start=2025-02-01&end=2025-02-15", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeBody[[]AttendanceDTO](t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, "08:55", list[0].TimeIn)
	assert.Equal(t, 60, list[0].BreakMinutes)
	assert.Equal(t, "8.25", list[0].WorkedHours)
}

func TestRecordAttendance_TimeOutBeforeTimeIn(t *testing.T) {
	h, _ := newTestAPI(t)
	createEmployee(t, h, "emp-1", "22000")

	rec := do(t, h, http.MethodPost, "/api/employees/emp-1/attendance", map[string]any{
		"date":     "2025-02-03",
		"time_in":  "17:00",
		"time_out": "09:00",
		"status":   "present",
	})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_attendance", decodeBody[ErrorResponse](t, rec).Code)
}

// =============================================================================
// REQUEST WORKFLOW
// =============================================================================

func TestPayslipRequest_SubmitApproveDownload(t *testing.T) {
	// GIVEN: A stored employee
	h, _ := newTestAPI(t)
	createEmployee(t, h, "emp-1", "30000")

	// WHEN: The employee asks for February 1st-15th
	rec := do(t, h, http.MethodPost, "/api/employees/emp-1/payslip-requests",
		map[string]any{"year": 2025, "month": 2, "half": 1})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	req := decodeBody[PayslipRequestDTO](t, rec)
	assert.Equal(t, "pending", req.Status)
	assert.Equal(t, "February 2025 (1st-15th)", req.Display)

	// THEN: Asking again is a conflict
	rec = do(t, h, http.MethodPost, "/api/employees/emp-1/payslip-requests",
		map[string]any{"year": 2025, "month": 2, "half": 1})
	assert.Equal(t, http.StatusConflict, rec.Code)

	// AND: The request shows up as pending
	rec = do(t, h, http.MethodGet, "/api/payslip-requests/pending", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]PayslipRequestDTO](t, rec), 1)

	// WHEN: HR approves
	rec = do(t, h, http.MethodPost, "/api/payslip-requests/"+req.ID+"/approve",
		map[string]any{"approver": "hr@example.com"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	slip := decodeBody[PayslipDTO](t, rec)
	assert.Equal(t, "13377.47", slip.NetPay)
	assert.Equal(t, req.ID, slip.RequestID)

	// THEN: Nothing is pending and approving twice conflicts
	rec = do(t, h, http.MethodGet, "/api/payslip-requests/pending", nil)
	assert.Empty(t, decodeBody[[]PayslipRequestDTO](t, rec))
	rec = do(t, h, http.MethodPost, "/api/payslip-requests/"+req.ID+"/approve", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// AND: The payslip renders as a PDF
	rec = do(t, h, http.MethodGet, "/api/payslips/"+slip.ID+"/pdf", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "%PDF"))

	// AND: It is listed under the employee
	rec = do(t, h, http.MethodGet, "/api/employees/emp-1/payslips", nil)
	assert.Len(t, decodeBody[[]PayslipDTO](t, rec), 1)
}

func TestPayslipRequest_RejectNeedsReason(t *testing.T) {
	h, _ := newTestAPI(t)
	createEmployee(t, h, "emp-1", "30000")
	rec := do(t, h, http.MethodPost, "/api/employees/emp-1/payslip-requests",
		map[string]any{"year": 2025, "month": 3, "half": 2})
	req := decodeBody[PayslipRequestDTO](t, rec)

	rec = do(t, h, http.MethodPost, "/api/payslip-requests/"+req.ID+"/reject", map[string]any{"approver": "hr"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/payslip-requests/"+req.ID+"/reject",
		map[string]any{"approver": "hr", "reason": "attendance incomplete"})
	require.Equal(t, http.StatusOK, rec.Code)
	out := decodeBody[PayslipRequestDTO](t, rec)
	assert.Equal(t, "rejected", out.Status)
	assert.Equal(t, "attendance incomplete", out.RejectionReason)

	// A rejected request does not block a new one.
	rec = do(t, h, http.MethodPost, "/api/employees/emp-1/payslip-requests",
		map[string]any{"year": 2025, "month": 3, "half": 2})
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestPayslip_DirectGenerationAndCancel(t *testing.T) {
	h, _ := newTestAPI(t)
	createEmployee(t, h, "emp-1", "30000")

	rec := do(t, h, http.MethodPost, "/api/payslips", map[string]any{
		"employee_id": "emp-1", "year": 2025, "month": 2, "half": 1, "approver": "payroll",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	slip := decodeBody[PayslipDTO](t, rec)
	assert.Equal(t, "approved", slip.Status)
	assert.Equal(t, "payroll", slip.ApprovedBy)

	// Approved payslips cannot be approved again.
	rec = do(t, h, http.MethodPost, "/api/payslips/"+slip.ID+"/approve", map[string]any{"approver": "x"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/payslips/"+slip.ID+"/cancel", map[string]any{"reason": "wrong salary"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "cancelled", decodeBody[PayslipDTO](t, rec).Status)
}

func TestGetPayslip_NotFound(t *testing.T) {
	h, _ := newTestAPI(t)

	rec := do(t, h, http.MethodGet, "/api/payslips/missing", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decodeBody[ErrorResponse](t, rec).Code)
}

// =============================================================================
// PAYROLL RUNS
// =============================================================================

func TestPayrollRun_IsRepeatable(t *testing.T) {
	// GIVEN: Two employees
	h, _ := newTestAPI(t)
	createEmployee(t, h, "emp-1", "30000")
	createEmployee(t, h, "emp-2", "22000")

	// WHEN: Running February 1st-15th twice
	rec := do(t, h, http.MethodPost, "/api/payroll-runs", map[string]any{"year": 2025, "month": 2, "half": 1})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	first := decodeBody[RunDTO](t, rec)

	rec = do(t, h, http.MethodPost, "/api/payroll-runs", map[string]any{"year": 2025, "month": 2, "half": 1})
	require.Equal(t, http.StatusOK, rec.Code)
	second := decodeBody[RunDTO](t, rec)

	// THEN: The first run pays both and the second skips both
	assert.Len(t, first.Generated, 2)
	assert.Empty(t, first.Failed)
	gross := decimal.RequireFromString(first.GrossPay)
	assert.True(t, gross.Equal(decimal.RequireFromString("26000")), "15000 + 11000, got %s", gross)
	assert.Empty(t, second.Generated)
	assert.ElementsMatch(t, []string{"emp-1", "emp-2"}, second.Skipped)
}

// =============================================================================
// MIDDLEWARE
// =============================================================================

func TestRateLimiter_RejectsOverBurst(t *testing.T) {
	rs := factory.MustDefault()
	engine := payroll.NewEngine(rs.Calculator, rs.Holidays)
	svc := payroll.NewService(engine, memory.New(), payroll.FixedFacts{}, zap.NewNop())
	h := NewRouter(NewHandler(svc), RouterConfig{RateLimiter: NewIPRateLimiter(0, 1)})

	first := do(t, h, http.MethodGet, "/healthz", nil)
	second := do(t, h, http.MethodGet, "/healthz", nil)

	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
}

func TestRateLimiter_SweepDropsIdleClients(t *testing.T) {
	clock := testNow
	l := NewIPRateLimiter(1, 1)
	l.now = func() time.Time { return clock }

	// GIVEN: Two clients, one of which keeps calling
	l.Limiter("10.0.0.1").Allow()
	l.Limiter("10.0.0.2").Allow()
	clock = clock.Add(5 * time.Minute)
	l.Limiter("10.0.0.2")
	require.Equal(t, 2, l.Len())

	// WHEN: Sweeping after the first has been idle past the cutoff
	clock = clock.Add(6 * time.Minute)
	removed := l.Sweep(10 * time.Minute)

	// THEN: Only the idle client is evicted
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, l.Len())

	// AND: A returning client gets a fresh bucket
	assert.True(t, l.Limiter("10.0.0.1").Allow())
}
