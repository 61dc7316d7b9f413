/*
Package sqlite provides a SQLite-backed implementation of payroll.TxStore.

PURPOSE:
  Persists employees, attendance records, payslip requests and payslips.
  In production the same patterns apply to PostgreSQL with minor dialect
  differences.

MONEY COLUMNS:
  Every amount is stored as TEXT holding the decimal string ("13377.47") and
  parsed back with decimal.NewFromString. REAL columns would reintroduce the
  binary floating point error the engine avoids.

KEY TABLES:
  employees:          Employee master data and standing per-period amounts
  attendance_records: One row per employee-day (UNIQUE employee_id, date)
  payslip_requests:   Request workflow rows
  payslips:           Generated payslips, one row each with all line items

INDEXES:
  - idx_attendance_employee_date: attendance lookup for a period (hot path)
  - idx_payslips_employee_period: duplicate checks and listing
  - idx_requests_employee:        duplicate checks

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. WithTx holds the write lock for the
  whole transaction; the Store passed to fn runs every statement on the
  sql.Tx and takes no locks of its own.

WAL MODE:
  File databases are opened with WAL (Write-Ahead Logging):
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/payroll.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - payroll/store.go: Interface definitions
  - store/memory:     In-memory implementation for tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/payroll-engine/attendance"
	"github.com/warp/payroll-engine/calendar"
	"github.com/warp/payroll-engine/payroll"
)

// Store implements payroll.TxStore using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ payroll.TxStore = (*Store)(nil)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	dsn := dbPath + "?_foreign_keys=on&_journal_mode=WAL"
	if dbPath == ":memory:" {
		dsn = "file::memory:?_foreign_keys=on"
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Each connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the connection, for health endpoints.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT,
		monthly_salary TEXT NOT NULL,
		period_allowance TEXT NOT NULL DEFAULT '0',
		period_deduction TEXT NOT NULL DEFAULT '0',
		hire_date TEXT,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS attendance_records (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		date TEXT NOT NULL,
		time_in INTEGER,
		time_out INTEGER,
		break_minutes INTEGER,
		status TEXT NOT NULL,
		remarks TEXT,
		created_at TEXT NOT NULL,
		UNIQUE(employee_id, date)
	);

	CREATE INDEX IF NOT EXISTS idx_attendance_employee_date
		ON attendance_records(employee_id, date);

	CREATE TABLE IF NOT EXISTS payslip_requests (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		year INTEGER NOT NULL,
		month INTEGER NOT NULL,
		half INTEGER NOT NULL,
		status TEXT NOT NULL,
		requested_at TEXT NOT NULL,
		processed_by TEXT,
		processed_at TEXT,
		rejection_reason TEXT,
		payslip_id TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_requests_employee
		ON payslip_requests(employee_id, year, month, half);

	CREATE TABLE IF NOT EXISTS payslips (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		period_start TEXT NOT NULL,
		period_end TEXT NOT NULL,
		basic_pay TEXT NOT NULL,
		holiday_pay TEXT NOT NULL,
		overtime_pay TEXT NOT NULL,
		allowances TEXT NOT NULL,
		sss TEXT NOT NULL,
		philhealth TEXT NOT NULL,
		pagibig TEXT NOT NULL,
		withholding_tax TEXT NOT NULL,
		other_deductions TEXT NOT NULL,
		gross_pay TEXT NOT NULL,
		taxable_income TEXT NOT NULL,
		total_deductions TEXT NOT NULL,
		net_pay TEXT NOT NULL,
		days_worked INTEGER NOT NULL,
		regular_holidays_worked INTEGER NOT NULL,
		special_holidays_worked INTEGER NOT NULL,
		overtime_hours TEXT NOT NULL,
		daily_rate TEXT NOT NULL,
		hourly_rate TEXT NOT NULL,
		status TEXT NOT NULL,
		generated_at TEXT NOT NULL,
		request_id TEXT,
		approved_by TEXT,
		approved_at TEXT,
		remarks TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_payslips_employee_period
		ON payslips(employee_id, period_start, period_end);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// TRANSACTIONAL STORE (payroll.TxStore interface)
// =============================================================================

// WithTx executes a function within a database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(store payroll.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&conn{q: sqlTx}); err != nil {
		return err
	}

	return sqlTx.Commit()
}

func (s *Store) read() (*conn, func()) {
	s.mu.RLock()
	return &conn{q: s.db}, s.mu.RUnlock
}

func (s *Store) write() (*conn, func()) {
	s.mu.Lock()
	return &conn{q: s.db}, s.mu.Unlock
}

func (s *Store) SaveEmployee(ctx context.Context, e payroll.EmployeeRecord) error {
	c, unlock := s.write()
	defer unlock()
	return c.SaveEmployee(ctx, e)
}

func (s *Store) GetEmployee(ctx context.Context, id string) (*payroll.EmployeeRecord, error) {
	c, unlock := s.read()
	defer unlock()
	return c.GetEmployee(ctx, id)
}

func (s *Store) ListEmployees(ctx context.Context) ([]payroll.EmployeeRecord, error) {
	c, unlock := s.read()
	defer unlock()
	return c.ListEmployees(ctx)
}

func (s *Store) DeleteEmployee(ctx context.Context, id string) error {
	c, unlock := s.write()
	defer unlock()
	return c.DeleteEmployee(ctx, id)
}

func (s *Store) SaveAttendance(ctx context.Context, r attendance.Record) error {
	c, unlock := s.write()
	defer unlock()
	return c.SaveAttendance(ctx, r)
}

func (s *Store) LoadAttendance(ctx context.Context, employeeID string, from, to calendar.Date) ([]attendance.Record, error) {
	c, unlock := s.read()
	defer unlock()
	return c.LoadAttendance(ctx, employeeID, from, to)
}

func (s *Store) SaveRequest(ctx context.Context, r payroll.PayslipRequest) error {
	c, unlock := s.write()
	defer unlock()
	return c.SaveRequest(ctx, r)
}

func (s *Store) GetRequest(ctx context.Context, id string) (*payroll.PayslipRequest, error) {
	c, unlock := s.read()
	defer unlock()
	return c.GetRequest(ctx, id)
}

func (s *Store) ListRequests(ctx context.Context, f payroll.RequestFilter) ([]payroll.PayslipRequest, error) {
	c, unlock := s.read()
	defer unlock()
	return c.ListRequests(ctx, f)
}

func (s *Store) SavePayslip(ctx context.Context, p payroll.Payslip) error {
	c, unlock := s.write()
	defer unlock()
	return c.SavePayslip(ctx, p)
}

func (s *Store) GetPayslip(ctx context.Context, id string) (*payroll.Payslip, error) {
	c, unlock := s.read()
	defer unlock()
	return c.GetPayslip(ctx, id)
}

func (s *Store) ListPayslips(ctx context.Context, employeeID string) ([]payroll.Payslip, error) {
	c, unlock := s.read()
	defer unlock()
	return c.ListPayslips(ctx, employeeID)
}

// conn runs statements on a *sql.DB or *sql.Tx without locking.
type conn struct {
	q querier
}

// =============================================================================
// EMPLOYEES
// =============================================================================

// SaveEmployee inserts or updates an employee.
func (c *conn) SaveEmployee(ctx context.Context, e payroll.EmployeeRecord) error {
	query := `
		INSERT INTO employees (id, name, email, monthly_salary, period_allowance, period_deduction, hire_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			email = excluded.email,
			monthly_salary = excluded.monthly_salary,
			period_allowance = excluded.period_allowance,
			period_deduction = excluded.period_deduction,
			hire_date = excluded.hire_date
	`
	createdAt := e.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := c.q.ExecContext(ctx, query,
		e.ID, e.Name, nullString(e.Email),
		e.MonthlySalary.String(), e.PeriodAllowance.String(), e.PeriodDeduction.String(),
		nullDate(e.HireDate),
		createdAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save employee: %w", err)
	}
	return nil
}

const employeeColumns = `id, name, email, monthly_salary, period_allowance, period_deduction, hire_date, created_at`

// GetEmployee retrieves an employee by ID.
func (c *conn) GetEmployee(ctx context.Context, id string) (*payroll.EmployeeRecord, error) {
	rows, err := c.q.QueryContext(ctx, "SELECT "+employeeColumns+" FROM employees WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	emps, err := scanAll(rows, scanEmployee)
	if err != nil || len(emps) == 0 {
		return nil, err
	}
	return &emps[0], nil
}

// ListEmployees returns all employees ordered by name.
func (c *conn) ListEmployees(ctx context.Context) ([]payroll.EmployeeRecord, error) {
	rows, err := c.q.QueryContext(ctx, "SELECT "+employeeColumns+" FROM employees ORDER BY name, id")
	if err != nil {
		return nil, err
	}
	return scanAll(rows, scanEmployee)
}

// DeleteEmployee removes an employee.
func (c *conn) DeleteEmployee(ctx context.Context, id string) error {
	_, err := c.q.ExecContext(ctx, "DELETE FROM employees WHERE id = ?", id)
	return err
}

func scanEmployee(rows *sql.Rows) (payroll.EmployeeRecord, error) {
	var (
		e                            payroll.EmployeeRecord
		email, hireDate              sql.NullString
		salary, allowance, deduction string
		createdAt                    string
	)
	if err := rows.Scan(&e.ID, &e.Name, &email, &salary, &allowance, &deduction, &hireDate, &createdAt); err != nil {
		return e, fmt.Errorf("failed to scan employee: %w", err)
	}
	var cp columnParser
	e.MonthlySalary = cp.decimal("monthly_salary", salary)
	e.PeriodAllowance = cp.decimal("period_allowance", allowance)
	e.PeriodDeduction = cp.decimal("period_deduction", deduction)
	e.Email = email.String
	e.HireDate = cp.nullDate("hire_date", hireDate)
	e.CreatedAt = cp.time("created_at", time.RFC3339, createdAt)
	if cp.err != nil {
		return e, fmt.Errorf("failed to scan employee %s: %w", e.ID, cp.err)
	}
	return e, nil
}

// =============================================================================
// ATTENDANCE
// =============================================================================

// SaveAttendance upserts a record by (employee, date).
func (c *conn) SaveAttendance(ctx context.Context, r attendance.Record) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	query := `
		INSERT INTO attendance_records (id, employee_id, date, time_in, time_out, break_minutes, status, remarks, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(employee_id, date) DO UPDATE SET
			time_in = excluded.time_in,
			time_out = excluded.time_out,
			break_minutes = excluded.break_minutes,
			status = excluded.status,
			remarks = excluded.remarks
	`
	_, err := c.q.ExecContext(ctx, query,
		r.ID, r.EmployeeID, r.Date.String(),
		nullClock(r.TimeIn), nullClock(r.TimeOut), nullInt(r.BreakMinutes),
		string(r.Status), nullString(r.Remarks),
		r.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save attendance: %w", err)
	}
	return nil
}

// LoadAttendance returns an employee's records in [from, to] ordered by date.
// Dates are stored as YYYY-MM-DD so string comparison is date comparison.
func (c *conn) LoadAttendance(ctx context.Context, employeeID string, from, to calendar.Date) ([]attendance.Record, error) {
	query := `
		SELECT id, employee_id, date, time_in, time_out, break_minutes, status, remarks, created_at
		FROM attendance_records
		WHERE employee_id = ? AND date >= ? AND date <= ?
		ORDER BY date ASC
	`
	rows, err := c.q.QueryContext(ctx, query, employeeID, from.String(), to.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query attendance: %w", err)
	}
	return scanAll(rows, scanAttendance)
}

func scanAttendance(rows *sql.Rows) (attendance.Record, error) {
	var (
		r                    attendance.Record
		date, status         string
		timeIn, timeOut, brk sql.NullInt64
		remarks              sql.NullString
		createdAt            string
	)
	if err := rows.Scan(&r.ID, &r.EmployeeID, &date, &timeIn, &timeOut, &brk, &status, &remarks, &createdAt); err != nil {
		return r, fmt.Errorf("failed to scan attendance: %w", err)
	}
	var cp columnParser
	r.Date = cp.date("date", date)
	r.CreatedAt = cp.time("created_at", time.RFC3339, createdAt)
	if cp.err != nil {
		return r, fmt.Errorf("failed to scan attendance %s: %w", r.ID, cp.err)
	}
	r.Status = attendance.Status(status)
	r.Remarks = remarks.String
	if timeIn.Valid {
		t := attendance.Clock(timeIn.Int64)
		r.TimeIn = &t
	}
	if timeOut.Valid {
		t := attendance.Clock(timeOut.Int64)
		r.TimeOut = &t
	}
	if brk.Valid {
		b := int(brk.Int64)
		r.BreakMinutes = &b
	}
	return r, nil
}

// =============================================================================
// PAYSLIP REQUESTS
// =============================================================================

// SaveRequest saves a request to the database.
func (c *conn) SaveRequest(ctx context.Context, r payroll.PayslipRequest) error {
	query := `
		INSERT INTO payslip_requests (id, employee_id, year, month, half, status, requested_at,
			processed_by, processed_at, rejection_reason, payslip_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			processed_by = excluded.processed_by,
			processed_at = excluded.processed_at,
			rejection_reason = excluded.rejection_reason,
			payslip_id = excluded.payslip_id
	`
	_, err := c.q.ExecContext(ctx, query,
		r.ID, r.EmployeeID, r.Year, r.Month, int(r.Half), string(r.Status),
		r.RequestedAt.Format(time.RFC3339),
		nullString(r.ProcessedBy), nullTime(r.ProcessedAt),
		nullString(r.RejectionReason), nullString(r.PayslipID),
	)
	if err != nil {
		return fmt.Errorf("failed to save payslip request: %w", err)
	}
	return nil
}

const requestColumns = `id, employee_id, year, month, half, status, requested_at,
	processed_by, processed_at, rejection_reason, payslip_id`

// GetRequest retrieves a request by ID.
func (c *conn) GetRequest(ctx context.Context, id string) (*payroll.PayslipRequest, error) {
	rows, err := c.q.QueryContext(ctx, "SELECT "+requestColumns+" FROM payslip_requests WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	reqs, err := scanAll(rows, scanRequest)
	if err != nil || len(reqs) == 0 {
		return nil, err
	}
	return &reqs[0], nil
}

// ListRequests returns requests matching the filter, newest first.
func (c *conn) ListRequests(ctx context.Context, f payroll.RequestFilter) ([]payroll.PayslipRequest, error) {
	var (
		where []string
		args  []any
	)
	if f.EmployeeID != "" {
		where = append(where, "employee_id = ?")
		args = append(args, f.EmployeeID)
	}
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(f.Status))
	}
	query := "SELECT " + requestColumns + " FROM payslip_requests"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY requested_at DESC, id ASC"

	rows, err := c.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query payslip requests: %w", err)
	}
	return scanAll(rows, scanRequest)
}

func scanRequest(rows *sql.Rows) (payroll.PayslipRequest, error) {
	var (
		r                                        payroll.PayslipRequest
		half                                     int
		status, requestedAt                      string
		processedBy, processedAt, reason, slipID sql.NullString
	)
	if err := rows.Scan(&r.ID, &r.EmployeeID, &r.Year, &r.Month, &half, &status, &requestedAt,
		&processedBy, &processedAt, &reason, &slipID); err != nil {
		return r, fmt.Errorf("failed to scan payslip request: %w", err)
	}
	var cp columnParser
	r.RequestedAt = cp.time("requested_at", time.RFC3339, requestedAt)
	r.ProcessedAt = cp.nullTime("processed_at", processedAt)
	if cp.err != nil {
		return r, fmt.Errorf("failed to scan payslip request %s: %w", r.ID, cp.err)
	}
	r.Half = calendar.Half(half)
	r.Status = payroll.RequestStatus(status)
	r.ProcessedBy = processedBy.String
	r.RejectionReason = reason.String
	r.PayslipID = slipID.String
	return r, nil
}

// =============================================================================
// PAYSLIPS
// =============================================================================

// SavePayslip inserts a payslip or updates its status fields. Line items are
// written once and never updated.
func (c *conn) SavePayslip(ctx context.Context, p payroll.Payslip) error {
	query := `
		INSERT INTO payslips (id, employee_id, period_start, period_end,
			basic_pay, holiday_pay, overtime_pay, allowances,
			sss, philhealth, pagibig, withholding_tax, other_deductions,
			gross_pay, taxable_income, total_deductions, net_pay,
			days_worked, regular_holidays_worked, special_holidays_worked, overtime_hours,
			daily_rate, hourly_rate, status, generated_at, request_id,
			approved_by, approved_at, remarks)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			approved_by = excluded.approved_by,
			approved_at = excluded.approved_at,
			remarks = excluded.remarks
	`
	_, err := c.q.ExecContext(ctx, query,
		p.ID, p.EmployeeID, p.Period.Start.String(), p.Period.End.String(),
		p.Earnings.BasicPay.String(), p.Earnings.HolidayPay.String(),
		p.Earnings.OvertimePay.String(), p.Earnings.Allowances.String(),
		p.Deductions.SSS.String(), p.Deductions.PhilHealth.String(), p.Deductions.PagIbig.String(),
		p.Deductions.WithholdingTax.String(), p.Deductions.OtherDeductions.String(),
		p.GrossPay.String(), p.TaxableIncome.String(), p.TotalDeductions.String(), p.NetPay.String(),
		p.Work.DaysWorked, p.Work.RegularHolidaysWorked, p.Work.SpecialHolidaysWorked,
		p.Work.OvertimeHours.String(),
		p.Rates.Daily.String(), p.Rates.Hourly.String(),
		string(p.Status), p.GeneratedAt.Format(time.RFC3339Nano), nullString(p.RequestID),
		nullString(p.ApprovedBy), nullTime(p.ApprovedAt), nullString(p.Remarks),
	)
	if err != nil {
		return fmt.Errorf("failed to save payslip: %w", err)
	}
	return nil
}

const payslipColumns = `id, employee_id, period_start, period_end,
	basic_pay, holiday_pay, overtime_pay, allowances,
	sss, philhealth, pagibig, withholding_tax, other_deductions,
	gross_pay, taxable_income, total_deductions, net_pay,
	days_worked, regular_holidays_worked, special_holidays_worked, overtime_hours,
	daily_rate, hourly_rate, status, generated_at, request_id,
	approved_by, approved_at, remarks`

// GetPayslip retrieves a payslip by ID.
func (c *conn) GetPayslip(ctx context.Context, id string) (*payroll.Payslip, error) {
	rows, err := c.q.QueryContext(ctx, "SELECT "+payslipColumns+" FROM payslips WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	slips, err := scanAll(rows, scanPayslip)
	if err != nil || len(slips) == 0 {
		return nil, err
	}
	return &slips[0], nil
}

// ListPayslips returns payslips, latest period first. Empty employeeID lists all.
func (c *conn) ListPayslips(ctx context.Context, employeeID string) ([]payroll.Payslip, error) {
	query := "SELECT " + payslipColumns + " FROM payslips"
	var args []any
	if employeeID != "" {
		query += " WHERE employee_id = ?"
		args = append(args, employeeID)
	}
	query += " ORDER BY period_start DESC, id ASC"

	rows, err := c.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query payslips: %w", err)
	}
	return scanAll(rows, scanPayslip)
}

func scanPayslip(rows *sql.Rows) (payroll.Payslip, error) {
	var (
		p                                          payroll.Payslip
		start, end                                 string
		basic, holiday, overtime, allowances       string
		sss, ph, pi, tax, other                    string
		gross, taxable, total, net, otHours        string
		daily, hourly, status, generatedAt         string
		requestID, approvedBy, approvedAt, remarks sql.NullString
	)
	err := rows.Scan(&p.ID, &p.EmployeeID, &start, &end,
		&basic, &holiday, &overtime, &allowances,
		&sss, &ph, &pi, &tax, &other,
		&gross, &taxable, &total, &net,
		&p.Work.DaysWorked, &p.Work.RegularHolidaysWorked, &p.Work.SpecialHolidaysWorked, &otHours,
		&daily, &hourly, &status, &generatedAt, &requestID,
		&approvedBy, &approvedAt, &remarks,
	)
	if err != nil {
		return p, fmt.Errorf("failed to scan payslip: %w", err)
	}

	var cp columnParser
	p.Period.Start = cp.date("period_start", start)
	p.Period.End = cp.date("period_end", end)
	p.Earnings = payroll.Earnings{
		BasicPay:    cp.decimal("basic_pay", basic),
		HolidayPay:  cp.decimal("holiday_pay", holiday),
		OvertimePay: cp.decimal("overtime_pay", overtime),
		Allowances:  cp.decimal("allowances", allowances),
	}
	p.Deductions = payroll.Deductions{
		SSS:             cp.decimal("sss", sss),
		PhilHealth:      cp.decimal("philhealth", ph),
		PagIbig:         cp.decimal("pagibig", pi),
		WithholdingTax:  cp.decimal("withholding_tax", tax),
		OtherDeductions: cp.decimal("other_deductions", other),
	}
	p.GrossPay = cp.decimal("gross_pay", gross)
	p.TaxableIncome = cp.decimal("taxable_income", taxable)
	p.TotalDeductions = cp.decimal("total_deductions", total)
	p.NetPay = cp.decimal("net_pay", net)
	p.Work.OvertimeHours = cp.decimal("overtime_hours", otHours)
	p.Rates = payroll.Rates{Daily: cp.decimal("daily_rate", daily), Hourly: cp.decimal("hourly_rate", hourly)}
	p.GeneratedAt = cp.time("generated_at", time.RFC3339Nano, generatedAt)
	p.ApprovedAt = cp.nullTime("approved_at", approvedAt)
	if cp.err != nil {
		return p, fmt.Errorf("failed to scan payslip %s: %w", p.ID, cp.err)
	}
	p.Status = payroll.Status(status)
	p.RequestID = requestID.String
	p.ApprovedBy = approvedBy.String
	p.Remarks = remarks.String
	return p, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func scanAll[T any](rows *sql.Rows, scan func(*sql.Rows) (T, error)) ([]T, error) {
	defer rows.Close()
	var out []T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullDate(d calendar.Date) sql.NullString {
	if d.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(time.RFC3339), Valid: true}
}

func nullClock(c *attendance.Clock) sql.NullInt64 {
	if c == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*c), Valid: true}
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

// columnParser decodes TEXT columns and keeps the first failure. Money and
// timestamps are never defaulted: a row that does not parse is an error.
type columnParser struct {
	err error
}

func (c *columnParser) fail(column, value string, err error) {
	if c.err == nil {
		c.err = fmt.Errorf("column %s: cannot parse %q: %w", column, value, err)
	}
}

func (c *columnParser) decimal(column, s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		c.fail(column, s, err)
	}
	return d
}

func (c *columnParser) time(column, layout, s string) time.Time {
	t, err := time.Parse(layout, s)
	if err != nil {
		c.fail(column, s, err)
	}
	return t
}

func (c *columnParser) nullTime(column string, s sql.NullString) *time.Time {
	if !s.Valid {
		return nil
	}
	t := c.time(column, time.RFC3339, s.String)
	return &t
}

func (c *columnParser) date(column, s string) calendar.Date {
	d, err := calendar.ParseDate(s)
	if err != nil {
		c.fail(column, s, err)
	}
	return d
}

func (c *columnParser) nullDate(column string, s sql.NullString) calendar.Date {
	if !s.Valid {
		return calendar.Date{}
	}
	return c.date(column, s.String)
}
