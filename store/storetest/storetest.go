// Package storetest is a conformance suite every payroll.TxStore must pass.
// Backends call Run from their own tests with a constructor for an empty
// store.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/payroll-engine/attendance"
	"github.com/warp/payroll-engine/calendar"
	"github.com/warp/payroll-engine/payroll"
)

// Base is the timestamp fixtures are built from. Whole seconds, UTC.
var Base = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

// Run executes the suite. newStore must return an empty store per call.
func Run(t *testing.T, newStore func(t *testing.T) payroll.TxStore) {
	t.Run("missing rows are nil", func(t *testing.T) { testMissing(t, newStore(t)) })
	t.Run("employees", func(t *testing.T) { testEmployees(t, newStore(t)) })
	t.Run("attendance", func(t *testing.T) { testAttendance(t, newStore(t)) })
	t.Run("requests", func(t *testing.T) { testRequests(t, newStore(t)) })
	t.Run("payslips", func(t *testing.T) { testPayslips(t, newStore(t)) })
	t.Run("transactions", func(t *testing.T) { testTransactions(t, newStore(t)) })
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "want %s, got %s", want, got)
}

func testMissing(t *testing.T, s payroll.TxStore) {
	ctx := context.Background()

	e, err := s.GetEmployee(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, e)

	r, err := s.GetRequest(ctx, "nothing")
	require.NoError(t, err)
	assert.Nil(t, r)

	p, err := s.GetPayslip(ctx, "nothing")
	require.NoError(t, err)
	assert.Nil(t, p)

	emps, err := s.ListEmployees(ctx)
	require.NoError(t, err)
	assert.Empty(t, emps)
}

func testEmployees(t *testing.T, s payroll.TxStore) {
	ctx := context.Background()

	require.NoError(t, s.SaveEmployee(ctx, payroll.EmployeeRecord{
		ID:              "emp-2",
		Name:            "Zed Santos",
		Email:           "zed@example.com",
		MonthlySalary:   dec("30000.50"),
		PeriodAllowance: dec("250"),
		PeriodDeduction: dec("99.99"),
		HireDate:        calendar.NewDate(2023, 6, 1),
		CreatedAt:       Base,
	}))
	require.NoError(t, s.SaveEmployee(ctx, payroll.EmployeeRecord{
		ID: "emp-1", Name: "Ana Cruz", MonthlySalary: dec("22000"), CreatedAt: Base,
	}))

	got, err := s.GetEmployee(ctx, "emp-2")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Zed Santos", got.Name)
	assert.Equal(t, "zed@example.com", got.Email)
	assertDecimal(t, "30000.50", got.MonthlySalary)
	assertDecimal(t, "99.99", got.PeriodDeduction)
	assert.Equal(t, "2023-06-01", got.HireDate.String())
	assert.True(t, Base.Equal(got.CreatedAt))

	// Upsert by ID
	got.MonthlySalary = dec("31000")
	require.NoError(t, s.SaveEmployee(ctx, *got))
	again, err := s.GetEmployee(ctx, "emp-2")
	require.NoError(t, err)
	assertDecimal(t, "31000", again.MonthlySalary)

	emps, err := s.ListEmployees(ctx)
	require.NoError(t, err)
	require.Len(t, emps, 2)
	assert.Equal(t, "emp-1", emps[0].ID, "ordered by name")

	require.NoError(t, s.DeleteEmployee(ctx, "emp-1"))
	gone, err := s.GetEmployee(ctx, "emp-1")
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func testAttendance(t *testing.T, s payroll.TxStore) {
	ctx := context.Background()
	in, out := attendance.NewClock(8, 55), attendance.NewClock(18, 10)
	brk := 30

	records := []attendance.Record{
		{EmployeeID: "emp-1", Date: calendar.NewDate(2025, 2, 4), Status: attendance.Present, TimeIn: &in, TimeOut: &out, BreakMinutes: &brk, CreatedAt: Base},
		{EmployeeID: "emp-1", Date: calendar.NewDate(2025, 2, 3), Status: attendance.Absent, Remarks: "sick", CreatedAt: Base},
		{EmployeeID: "emp-1", Date: calendar.NewDate(2025, 2, 16), Status: attendance.Present, TimeIn: &in, TimeOut: &out, CreatedAt: Base},
		{EmployeeID: "emp-2", Date: calendar.NewDate(2025, 2, 4), Status: attendance.Late, TimeIn: &in, TimeOut: &out, CreatedAt: Base},
	}
	for _, r := range records {
		require.NoError(t, s.SaveAttendance(ctx, r))
	}

	got, err := s.LoadAttendance(ctx, "emp-1", calendar.NewDate(2025, 2, 1), calendar.NewDate(2025, 2, 15))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "2025-02-03", got[0].Date.String(), "ordered by date")
	assert.Equal(t, attendance.Absent, got[0].Status)
	assert.Equal(t, "sick", got[0].Remarks)
	assert.Nil(t, got[0].TimeIn)
	assert.Nil(t, got[0].BreakMinutes)
	require.NotNil(t, got[1].TimeIn)
	assert.Equal(t, in, *got[1].TimeIn)
	require.NotNil(t, got[1].BreakMinutes)
	assert.Equal(t, 30, *got[1].BreakMinutes)

	// Upsert by (employee, date)
	fixed := records[1]
	fixed.Status = attendance.Present
	fixed.TimeIn, fixed.TimeOut = &in, &out
	require.NoError(t, s.SaveAttendance(ctx, fixed))

	got, err = s.LoadAttendance(ctx, "emp-1", calendar.NewDate(2025, 2, 3), calendar.NewDate(2025, 2, 3))
	require.NoError(t, err)
	require.Len(t, got, 1, "range bounds are inclusive and the day is not duplicated")
	assert.Equal(t, attendance.Present, got[0].Status)
}

func testRequests(t *testing.T, s payroll.TxStore) {
	ctx := context.Background()

	older := payroll.PayslipRequest{ID: "r1", EmployeeID: "emp-1", Year: 2025, Month: 1, Half: calendar.SecondHalf, Status: payroll.RequestPending, RequestedAt: Base}
	newer := payroll.PayslipRequest{ID: "r2", EmployeeID: "emp-1", Year: 2025, Month: 2, Half: calendar.FirstHalf, Status: payroll.RequestPending, RequestedAt: Base.Add(time.Hour)}
	other := payroll.PayslipRequest{ID: "r3", EmployeeID: "emp-2", Year: 2025, Month: 2, Half: calendar.FirstHalf, Status: payroll.RequestPending, RequestedAt: Base.Add(2 * time.Hour)}
	for _, r := range []payroll.PayslipRequest{older, newer, other} {
		require.NoError(t, s.SaveRequest(ctx, r))
	}

	require.NoError(t, older.Reject("hr", "missing attendance", Base.Add(3*time.Hour)))
	require.NoError(t, s.SaveRequest(ctx, older))

	got, err := s.GetRequest(ctx, "r1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, payroll.RequestRejected, got.Status)
	assert.Equal(t, calendar.SecondHalf, got.Half)
	assert.Equal(t, "missing attendance", got.RejectionReason)
	require.NotNil(t, got.ProcessedAt)
	assert.True(t, Base.Add(3*time.Hour).Equal(*got.ProcessedAt))

	mine, err := s.ListRequests(ctx, payroll.RequestFilter{EmployeeID: "emp-1"})
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "r2", mine[0].ID, "newest first")

	pending, err := s.ListRequests(ctx, payroll.RequestFilter{Status: payroll.RequestPending})
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "r3", pending[0].ID)

	all, err := s.ListRequests(ctx, payroll.RequestFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func payslip(id, employeeID string, p calendar.Period) payroll.Payslip {
	return payroll.Payslip{
		ID:         id,
		EmployeeID: employeeID,
		Period:     p,
		Earnings: payroll.Earnings{
			BasicPay:    dec("15000"),
			HolidayPay:  dec("0"),
			OvertimePay: dec("312.50"),
			Allowances:  dec("0"),
		},
		Deductions: payroll.Deductions{
			SSS:             dec("675"),
			PhilHealth:      dec("375"),
			PagIbig:         dec("50"),
			WithholdingTax:  dec("569.41"),
			OtherDeductions: dec("0"),
		},
		GrossPay:        dec("15312.50"),
		TaxableIncome:   dec("14212.50"),
		TotalDeductions: dec("1669.41"),
		NetPay:          dec("13643.09"),
		Work:            payroll.WorkDetails{DaysWorked: 11, OvertimeHours: dec("2")},
		Rates:           payroll.Rates{Daily: dec("1363.6363636363636364"), Hourly: dec("170.4545454545454545")},
		Status:          payroll.StatusDraft,
		GeneratedAt:     Base,
		RequestID:       "r1",
	}
}

func testPayslips(t *testing.T, s payroll.TxStore) {
	ctx := context.Background()
	jan, _ := calendar.Resolve(2025, 1, calendar.SecondHalf)
	feb, _ := calendar.Resolve(2025, 2, calendar.FirstHalf)

	require.NoError(t, s.SavePayslip(ctx, payslip("s1", "emp-1", jan)))
	require.NoError(t, s.SavePayslip(ctx, payslip("s2", "emp-1", feb)))
	require.NoError(t, s.SavePayslip(ctx, payslip("s3", "emp-2", feb)))

	got, err := s.GetPayslip(ctx, "s2")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "2025-02-01", got.Period.Start.String())
	assert.Equal(t, "2025-02-15", got.Period.End.String())
	assertDecimal(t, "312.50", got.Earnings.OvertimePay)
	assertDecimal(t, "569.41", got.Deductions.WithholdingTax)
	assertDecimal(t, "13643.09", got.NetPay)
	assertDecimal(t, "1363.6363636363636364", got.Rates.Daily)
	assert.Equal(t, 11, got.Work.DaysWorked)
	assert.Equal(t, "r1", got.RequestID)
	assert.Nil(t, got.ApprovedAt)
	assert.True(t, Base.Equal(got.GeneratedAt))

	// Status fields update in place
	require.NoError(t, got.Approve("hr", Base.Add(time.Hour)))
	require.NoError(t, s.SavePayslip(ctx, *got))
	approved, err := s.GetPayslip(ctx, "s2")
	require.NoError(t, err)
	assert.Equal(t, payroll.StatusApproved, approved.Status)
	assert.Equal(t, "hr", approved.ApprovedBy)
	require.NotNil(t, approved.ApprovedAt)
	assert.True(t, Base.Add(time.Hour).Equal(*approved.ApprovedAt))

	mine, err := s.ListPayslips(ctx, "emp-1")
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "s2", mine[0].ID, "latest period first")

	all, err := s.ListPayslips(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func testTransactions(t *testing.T, s payroll.TxStore) {
	ctx := context.Background()
	boom := errors.New("boom")

	// Rolled back
	err := s.WithTx(ctx, func(tx payroll.Store) error {
		if err := tx.SaveEmployee(ctx, payroll.EmployeeRecord{ID: "emp-1", Name: "Ana", MonthlySalary: dec("1"), CreatedAt: Base}); err != nil {
			return err
		}
		inside, err := tx.GetEmployee(ctx, "emp-1")
		require.NoError(t, err)
		require.NotNil(t, inside, "writes are visible inside the transaction")
		return boom
	})
	require.ErrorIs(t, err, boom)
	gone, err := s.GetEmployee(ctx, "emp-1")
	require.NoError(t, err)
	assert.Nil(t, gone)

	// Committed
	err = s.WithTx(ctx, func(tx payroll.Store) error {
		return tx.SaveEmployee(ctx, payroll.EmployeeRecord{ID: "emp-2", Name: "Ben", MonthlySalary: dec("1"), CreatedAt: Base})
	})
	require.NoError(t, err)
	kept, err := s.GetEmployee(ctx, "emp-2")
	require.NoError(t, err)
	assert.NotNil(t, kept)
}
