/*
store.go - Persistence interface for employees, attendance and payslips

PURPOSE:
  Defines the interface between payroll orchestration and the database.
  The Engine never touches the Store; the Service does.

KEY INTERFACES:
  Store:   Employees, attendance, payslip requests and payslips
  TxStore: Atomic multi-table writes (approve request = save payslip +
           update request)

LOOKUP CONTRACT:
  Get* methods return (nil, nil) when the row does not exist. Callers turn
  that into the matching ErrXxxNotFound.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: SQLite
  - store/memory/memory.go: In-memory for tests and the demo CLI

SEE ALSO:
  - service.go: the only caller
*/
package payroll

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/payroll-engine/attendance"
	"github.com/warp/payroll-engine/calendar"
)

// EmployeeRecord is the stored employee.
type EmployeeRecord struct {
	ID              string
	Name            string
	Email           string
	MonthlySalary   decimal.Decimal
	PeriodAllowance decimal.Decimal // standing allowance paid every period
	PeriodDeduction decimal.Decimal // standing deduction (loans etc.) every period
	HireDate        calendar.Date
	CreatedAt       time.Time
}

// Employee returns the engine's view of the record.
func (r EmployeeRecord) Employee() Employee {
	return NewEmployee(r.ID, r.MonthlySalary)
}

// RequestFilter narrows ListRequests. Zero fields match everything.
type RequestFilter struct {
	EmployeeID string
	Status     RequestStatus
}

// Matches reports whether r passes the filter.
func (f RequestFilter) Matches(r PayslipRequest) bool {
	return (f.EmployeeID == "" || f.EmployeeID == r.EmployeeID) &&
		(f.Status == "" || f.Status == r.Status)
}

// Store handles payroll persistence.
type Store interface {
	SaveEmployee(ctx context.Context, e EmployeeRecord) error
	GetEmployee(ctx context.Context, id string) (*EmployeeRecord, error)
	ListEmployees(ctx context.Context) ([]EmployeeRecord, error)
	DeleteEmployee(ctx context.Context, id string) error

	// SaveAttendance upserts by (employee, date).
	SaveAttendance(ctx context.Context, r attendance.Record) error
	// LoadAttendance returns records with from <= date <= to, ordered by date.
	LoadAttendance(ctx context.Context, employeeID string, from, to calendar.Date) ([]attendance.Record, error)

	SaveRequest(ctx context.Context, r PayslipRequest) error
	GetRequest(ctx context.Context, id string) (*PayslipRequest, error)
	// ListRequests returns requests matching the filter, newest first.
	ListRequests(ctx context.Context, filter RequestFilter) ([]PayslipRequest, error)

	SavePayslip(ctx context.Context, p Payslip) error
	GetPayslip(ctx context.Context, id string) (*Payslip, error)
	// ListPayslips returns an employee's payslips, latest period first.
	// An empty employeeID lists everyone's.
	ListPayslips(ctx context.Context, employeeID string) ([]Payslip, error)
}

// TxStore wraps Store with transaction support.
type TxStore interface {
	Store

	// WithTx executes fn within a transaction.
	// If fn returns error, transaction is rolled back.
	WithTx(ctx context.Context, fn func(Store) error) error
}
