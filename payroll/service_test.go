package payroll_test

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/warp/payroll-engine/attendance"
	"github.com/warp/payroll-engine/calendar"
	"github.com/warp/payroll-engine/factory"
	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/store/memory"
)

type serviceFixture struct {
	svc   *payroll.Service
	store *memory.Store
	ctx   context.Context
}

func newServiceFixture(t *testing.T, facts payroll.FactSource) *serviceFixture {
	t.Helper()
	store := memory.New()
	svc := payroll.NewService(newEngine(t), store, facts, zap.NewNop())

	var seq atomic.Int64
	svc.NewID = func() string { return fmt.Sprintf("id-%03d", seq.Add(1)) }
	svc.Now = func() time.Time { return fixedNow }

	return &serviceFixture{svc: svc, store: store, ctx: context.Background()}
}

func (f *serviceFixture) addEmployee(t *testing.T, id, name, salary string) {
	t.Helper()
	require.NoError(t, f.store.SaveEmployee(f.ctx, payroll.EmployeeRecord{
		ID:            id,
		Name:          name,
		MonthlySalary: dec(salary),
		CreatedAt:     fixedNow,
	}))
}

// =============================================================================
// REQUEST WORKFLOW
// =============================================================================

func TestService_SubmitAndApprove(t *testing.T) {
	f := newServiceFixture(t, payroll.FixedFacts{DaysWorked: 11})
	f.addEmployee(t, "emp-1", "Ana Cruz", "30000")

	// GIVEN: A pending request
	req, err := f.svc.SubmitRequest(f.ctx, "emp-1", 2025, 2, calendar.FirstHalf)
	require.NoError(t, err)
	assert.Equal(t, payroll.RequestPending, req.Status)
	assert.Equal(t, fixedNow, req.RequestedAt)

	// WHEN: Submitting the same period again
	_, err = f.svc.SubmitRequest(f.ctx, "emp-1", 2025, 2, calendar.FirstHalf)

	// THEN: It is a duplicate
	assert.ErrorIs(t, err, payroll.ErrDuplicate)

	// WHEN: Approving
	slip, err := f.svc.ApproveRequest(f.ctx, req.ID, "hr@example.com")
	require.NoError(t, err)

	// THEN: A draft payslip is stored and linked both ways
	assert.Equal(t, payroll.StatusDraft, slip.Status)
	assert.Equal(t, req.ID, slip.RequestID)
	assertDecimal(t, "13377.47", slip.NetPay)

	stored, err := f.store.GetRequest(f.ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, payroll.RequestApproved, stored.Status)
	assert.Equal(t, slip.ID, stored.PayslipID)
	assert.Equal(t, "hr@example.com", stored.ProcessedBy)

	got, err := f.svc.GetPayslip(f.ctx, slip.ID)
	require.NoError(t, err)
	assert.Equal(t, slip.ID, got.ID)

	// AND: A second approval is an illegal transition
	_, err = f.svc.ApproveRequest(f.ctx, req.ID, "hr@example.com")
	assert.ErrorIs(t, err, payroll.ErrInvalidTransition)
}

func TestService_SubmitUnknownEmployee(t *testing.T) {
	f := newServiceFixture(t, payroll.FixedFacts{})

	_, err := f.svc.SubmitRequest(f.ctx, "ghost", 2025, 2, calendar.FirstHalf)
	assert.ErrorIs(t, err, payroll.ErrEmployeeNotFound)
	assert.True(t, payroll.IsNotFound(err))
}

func TestService_SubmitInvalidPeriod(t *testing.T) {
	f := newServiceFixture(t, payroll.FixedFacts{})
	f.addEmployee(t, "emp-1", "Ana Cruz", "30000")

	_, err := f.svc.SubmitRequest(f.ctx, "emp-1", 2025, 2, calendar.Half(3))
	assert.ErrorIs(t, err, payroll.ErrInvalidPeriod)
}

func TestService_RejectThenResubmit(t *testing.T) {
	f := newServiceFixture(t, payroll.FixedFacts{DaysWorked: 10})
	f.addEmployee(t, "emp-1", "Ana Cruz", "30000")

	req, err := f.svc.SubmitRequest(f.ctx, "emp-1", 2025, 2, calendar.SecondHalf)
	require.NoError(t, err)

	rejected, err := f.svc.RejectRequest(f.ctx, req.ID, "hr", "attendance incomplete")
	require.NoError(t, err)
	assert.Equal(t, payroll.RequestRejected, rejected.Status)
	assert.Equal(t, "attendance incomplete", rejected.RejectionReason)

	_, err = f.svc.RejectRequest(f.ctx, req.ID, "hr", "again")
	assert.ErrorIs(t, err, payroll.ErrInvalidTransition)

	// A rejected request does not block a new one
	again, err := f.svc.SubmitRequest(f.ctx, "emp-1", 2025, 2, calendar.SecondHalf)
	require.NoError(t, err)
	assert.NotEqual(t, req.ID, again.ID)

	pending, err := f.store.ListRequests(f.ctx, payroll.RequestFilter{Status: payroll.RequestPending})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, again.ID, pending[0].ID)
}

func TestService_ApproveFailsWhenPayslipAlreadyExists(t *testing.T) {
	f := newServiceFixture(t, payroll.FixedFacts{DaysWorked: 11})
	f.addEmployee(t, "emp-1", "Ana Cruz", "30000")
	feb := period(t, 2025, 2, calendar.FirstHalf)

	req, err := f.svc.SubmitRequest(f.ctx, "emp-1", 2025, 2, calendar.FirstHalf)
	require.NoError(t, err)
	_, err = f.svc.GenerateDirect(f.ctx, "emp-1", feb, "hr")
	require.NoError(t, err)

	_, err = f.svc.ApproveRequest(f.ctx, req.ID, "hr")
	assert.ErrorIs(t, err, payroll.ErrDuplicate)

	stored, err := f.store.GetRequest(f.ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, payroll.RequestPending, stored.Status, "request untouched")
}

func TestService_ApproveUnknownRequest(t *testing.T) {
	f := newServiceFixture(t, payroll.FixedFacts{})

	_, err := f.svc.ApproveRequest(f.ctx, "missing", "hr")
	assert.ErrorIs(t, err, payroll.ErrRequestNotFound)
}

// =============================================================================
// DIRECT GENERATION AND STATUS
// =============================================================================

func TestService_GenerateDirectAndCancel(t *testing.T) {
	f := newServiceFixture(t, payroll.FixedFacts{DaysWorked: 11})
	f.addEmployee(t, "emp-1", "Ana Cruz", "30000")
	feb := period(t, 2025, 2, calendar.FirstHalf)

	slip, err := f.svc.GenerateDirect(f.ctx, "emp-1", feb, "hr")
	require.NoError(t, err)
	assert.Equal(t, payroll.StatusApproved, slip.Status)
	assert.Equal(t, "hr", slip.ApprovedBy)

	_, err = f.svc.GenerateDirect(f.ctx, "emp-1", feb, "hr")
	assert.ErrorIs(t, err, payroll.ErrDuplicate)

	// An approved payslip blocks new requests for its period
	_, err = f.svc.SubmitRequest(f.ctx, "emp-1", 2025, 2, calendar.FirstHalf)
	assert.ErrorIs(t, err, payroll.ErrDuplicate)

	cancelled, err := f.svc.CancelPayslip(f.ctx, slip.ID, "wrong days")
	require.NoError(t, err)
	assert.Equal(t, payroll.StatusCancelled, cancelled.Status)

	_, err = f.svc.ApprovePayslip(f.ctx, slip.ID, "hr")
	assert.ErrorIs(t, err, payroll.ErrInvalidTransition)

	// Cancelled payslips free the period
	regenerated, err := f.svc.GenerateDirect(f.ctx, "emp-1", feb, "hr")
	require.NoError(t, err)
	assert.NotEqual(t, slip.ID, regenerated.ID)

	slips, err := f.store.ListPayslips(f.ctx, "emp-1")
	require.NoError(t, err)
	assert.Len(t, slips, 2)
}

func TestService_ApprovePayslipNotFound(t *testing.T) {
	f := newServiceFixture(t, payroll.FixedFacts{})

	_, err := f.svc.ApprovePayslip(f.ctx, "nope", "hr")
	assert.ErrorIs(t, err, payroll.ErrPayslipNotFound)
}

func TestService_PreviewDoesNotSave(t *testing.T) {
	f := newServiceFixture(t, payroll.FixedFacts{DaysWorked: 11})
	f.addEmployee(t, "emp-1", "Ana Cruz", "30000")

	slip, err := f.svc.Preview(f.ctx, "emp-1", period(t, 2025, 2, calendar.FirstHalf))
	require.NoError(t, err)
	assertDecimal(t, "13377.47", slip.NetPay)
	assert.Empty(t, slip.ID)

	slips, err := f.store.ListPayslips(f.ctx, "")
	require.NoError(t, err)
	assert.Empty(t, slips)
}

// =============================================================================
// ATTENDANCE-BACKED FACTS
// =============================================================================

func TestService_AttendanceFacts(t *testing.T) {
	rs := factory.MustDefault()
	store := memory.New()
	facts := payroll.AttendanceFacts{Store: store, Holidays: rs.Holidays, ScheduledHours: dec("8")}
	svc := payroll.NewService(newEngine(t), store, facts, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, store.SaveEmployee(ctx, payroll.EmployeeRecord{
		ID:              "emp-1",
		Name:            "Ana Cruz",
		MonthlySalary:   dec("22000"),
		PeriodAllowance: dec("250"),
		PeriodDeduction: dec("100"),
	}))
	clock := func(h, m int) *attendance.Clock { c := attendance.NewClock(h, m); return &c }
	for _, r := range []attendance.Record{
		{EmployeeID: "emp-1", Date: calendar.NewDate(2025, 2, 10), Status: attendance.Present, TimeIn: clock(9, 0), TimeOut: clock(17, 0)},
		{EmployeeID: "emp-1", Date: calendar.NewDate(2025, 2, 24), Status: attendance.Present, TimeIn: clock(8, 0), TimeOut: clock(18, 0)},
		{EmployeeID: "emp-1", Date: calendar.NewDate(2025, 2, 25), Status: attendance.Late, TimeIn: clock(9, 30), TimeOut: clock(17, 30)},
		{EmployeeID: "emp-1", Date: calendar.NewDate(2025, 2, 26), Status: attendance.Absent},
	} {
		require.NoError(t, store.SaveAttendance(ctx, r))
	}

	// WHEN: Previewing the second half of February
	slip, err := svc.Preview(ctx, "emp-1", period(t, 2025, 2, calendar.SecondHalf))
	require.NoError(t, err)

	// THEN: Only in-period records count; Feb 25 is a special holiday
	assert.Equal(t, 2, slip.Work.DaysWorked)
	assert.Equal(t, 1, slip.Work.SpecialHolidaysWorked)
	assertDecimal(t, "1", slip.Work.OvertimeHours)
	assertDecimal(t, "2000", slip.Earnings.BasicPay)
	assertDecimal(t, "300", slip.Earnings.HolidayPay)
	assertDecimal(t, "156.25", slip.Earnings.OvertimePay)
	assertDecimal(t, "250", slip.Earnings.Allowances)
	assertDecimal(t, "100", slip.Deductions.OtherDeductions)
	assertInvariants(t, slip)

	_, err = svc.Preview(ctx, "ghost", period(t, 2025, 2, calendar.SecondHalf))
	assert.ErrorIs(t, err, payroll.ErrEmployeeNotFound)
}

// =============================================================================
// PAYROLL RUN
// =============================================================================

func TestService_Run(t *testing.T) {
	f := newServiceFixture(t, payroll.FixedFacts{DaysWorked: 10})
	f.addEmployee(t, "emp-1", "Ana Cruz", "22000")
	f.addEmployee(t, "emp-2", "Ben Reyes", "30000")
	f.addEmployee(t, "emp-3", "Cara Lim", "-1")
	p := period(t, 2025, 2, calendar.SecondHalf)

	// WHEN: Running the period
	res, err := f.svc.Run(f.ctx, p)
	require.NoError(t, err)

	// THEN: Valid employees are paid, the bad salary is reported
	require.Len(t, res.Generated, 2)
	assert.Empty(t, res.Skipped)
	require.Len(t, res.Failed, 1)
	assert.Equal(t, "emp-3", res.Failed[0].EmployeeID)
	assert.ErrorIs(t, res.Failed[0].Err, payroll.ErrInvalidEmployee)

	assertDecimal(t, "23636.36", res.GrossPay, "10000 + 13636.36")
	assert.True(t, res.NetPay.Equal(res.GrossPay.Sub(res.TotalDeductions)))
	for _, slip := range res.Generated {
		assert.Equal(t, payroll.StatusDraft, slip.Status)
		assert.NotEmpty(t, slip.ID)
	}

	// WHEN: Running again
	again, err := f.svc.Run(f.ctx, p)
	require.NoError(t, err)

	// THEN: Already-paid employees are skipped
	assert.Empty(t, again.Generated)
	assert.ElementsMatch(t, []string{"emp-1", "emp-2"}, again.Skipped)
	assert.Len(t, again.Failed, 1)
	assertDecimal(t, "0", again.NetPay)
}

func TestService_RunUnsupportedYear(t *testing.T) {
	f := newServiceFixture(t, payroll.FixedFacts{})
	f.addEmployee(t, "emp-1", "Ana Cruz", "22000")

	_, err := f.svc.Run(f.ctx, period(t, 2026, 1, calendar.FirstHalf))
	assert.ErrorIs(t, err, payroll.ErrUnsupportedYear)
}
