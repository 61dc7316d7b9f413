// Package memory provides an in-memory payroll.TxStore for tests, demos and
// the CLI.
package memory

import (
	"context"
	"maps"
	"sort"
	"sync"

	"github.com/warp/payroll-engine/attendance"
	"github.com/warp/payroll-engine/calendar"
	"github.com/warp/payroll-engine/payroll"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Store keeps everything in maps guarded by one RWMutex.
type Store struct {
	mu sync.RWMutex
	st *state
}

type state struct {
	employees  map[string]payroll.EmployeeRecord
	attendance map[string]attendance.Record // employeeID|date
	requests   map[string]payroll.PayslipRequest
	payslips   map[string]payroll.Payslip
}

func newState() *state {
	return &state{
		employees:  make(map[string]payroll.EmployeeRecord),
		attendance: make(map[string]attendance.Record),
		requests:   make(map[string]payroll.PayslipRequest),
		payslips:   make(map[string]payroll.Payslip),
	}
}

func (s *state) clone() *state {
	return &state{
		employees:  maps.Clone(s.employees),
		attendance: maps.Clone(s.attendance),
		requests:   maps.Clone(s.requests),
		payslips:   maps.Clone(s.payslips),
	}
}

// New returns an empty store.
func New() *Store {
	return &Store{st: newState()}
}

var _ payroll.TxStore = (*Store)(nil)

// WithTx runs fn against a staged copy and publishes it only if fn succeeds.
// fn must use the Store it is given, not the outer one.
func (m *Store) WithTx(_ context.Context, fn func(payroll.Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	staged := m.st.clone()
	if err := fn(&view{st: staged}); err != nil {
		return err
	}
	m.st = staged
	return nil
}

func (m *Store) read(fn func(v *view)) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	fn(&view{st: m.st})
}

func (m *Store) write(fn func(v *view)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn(&view{st: m.st})
}

// The exported Store methods lock and delegate to view, which holds the
// unlocked logic shared with transactions.

func (m *Store) SaveEmployee(ctx context.Context, e payroll.EmployeeRecord) (err error) {
	m.write(func(v *view) { err = v.SaveEmployee(ctx, e) })
	return err
}

func (m *Store) GetEmployee(ctx context.Context, id string) (e *payroll.EmployeeRecord, err error) {
	m.read(func(v *view) { e, err = v.GetEmployee(ctx, id) })
	return e, err
}

func (m *Store) ListEmployees(ctx context.Context) (out []payroll.EmployeeRecord, err error) {
	m.read(func(v *view) { out, err = v.ListEmployees(ctx) })
	return out, err
}

func (m *Store) DeleteEmployee(ctx context.Context, id string) (err error) {
	m.write(func(v *view) { err = v.DeleteEmployee(ctx, id) })
	return err
}

func (m *Store) SaveAttendance(ctx context.Context, r attendance.Record) (err error) {
	m.write(func(v *view) { err = v.SaveAttendance(ctx, r) })
	return err
}

func (m *Store) LoadAttendance(ctx context.Context, employeeID string, from, to calendar.Date) (out []attendance.Record, err error) {
	m.read(func(v *view) { out, err = v.LoadAttendance(ctx, employeeID, from, to) })
	return out, err
}

func (m *Store) SaveRequest(ctx context.Context, r payroll.PayslipRequest) (err error) {
	m.write(func(v *view) { err = v.SaveRequest(ctx, r) })
	return err
}

func (m *Store) GetRequest(ctx context.Context, id string) (r *payroll.PayslipRequest, err error) {
	m.read(func(v *view) { r, err = v.GetRequest(ctx, id) })
	return r, err
}

func (m *Store) ListRequests(ctx context.Context, f payroll.RequestFilter) (out []payroll.PayslipRequest, err error) {
	m.read(func(v *view) { out, err = v.ListRequests(ctx, f) })
	return out, err
}

func (m *Store) SavePayslip(ctx context.Context, p payroll.Payslip) (err error) {
	m.write(func(v *view) { err = v.SavePayslip(ctx, p) })
	return err
}

func (m *Store) GetPayslip(ctx context.Context, id string) (p *payroll.Payslip, err error) {
	m.read(func(v *view) { p, err = v.GetPayslip(ctx, id) })
	return p, err
}

func (m *Store) ListPayslips(ctx context.Context, employeeID string) (out []payroll.Payslip, err error) {
	m.read(func(v *view) { out, err = v.ListPayslips(ctx, employeeID) })
	return out, err
}

// =============================================================================
// VIEW - unlocked access to one state
// =============================================================================

type view struct {
	st *state
}

func attendanceKey(employeeID string, d calendar.Date) string {
	return employeeID + "|" + d.String()
}

func (v *view) SaveEmployee(_ context.Context, e payroll.EmployeeRecord) error {
	v.st.employees[e.ID] = e
	return nil
}

func (v *view) GetEmployee(_ context.Context, id string) (*payroll.EmployeeRecord, error) {
	e, ok := v.st.employees[id]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (v *view) ListEmployees(_ context.Context) ([]payroll.EmployeeRecord, error) {
	out := make([]payroll.EmployeeRecord, 0, len(v.st.employees))
	for _, e := range v.st.employees {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (v *view) DeleteEmployee(_ context.Context, id string) error {
	delete(v.st.employees, id)
	return nil
}

func (v *view) SaveAttendance(_ context.Context, r attendance.Record) error {
	v.st.attendance[attendanceKey(r.EmployeeID, r.Date)] = r
	return nil
}

func (v *view) LoadAttendance(_ context.Context, employeeID string, from, to calendar.Date) ([]attendance.Record, error) {
	var out []attendance.Record
	for _, r := range v.st.attendance {
		if r.EmployeeID == employeeID && r.Date.AfterOrEqual(from) && r.Date.BeforeOrEqual(to) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (v *view) SaveRequest(_ context.Context, r payroll.PayslipRequest) error {
	v.st.requests[r.ID] = r
	return nil
}

func (v *view) GetRequest(_ context.Context, id string) (*payroll.PayslipRequest, error) {
	r, ok := v.st.requests[id]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (v *view) ListRequests(_ context.Context, f payroll.RequestFilter) ([]payroll.PayslipRequest, error) {
	var out []payroll.PayslipRequest
	for _, r := range v.st.requests {
		if f.Matches(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].RequestedAt.Equal(out[j].RequestedAt) {
			return out[i].RequestedAt.After(out[j].RequestedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (v *view) SavePayslip(_ context.Context, p payroll.Payslip) error {
	v.st.payslips[p.ID] = p
	return nil
}

func (v *view) GetPayslip(_ context.Context, id string) (*payroll.Payslip, error) {
	p, ok := v.st.payslips[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (v *view) ListPayslips(_ context.Context, employeeID string) ([]payroll.Payslip, error) {
	var out []payroll.Payslip
	for _, p := range v.st.payslips {
		if employeeID == "" || p.EmployeeID == employeeID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Period.Start.Equal(out[j].Period.Start) {
			return out[i].Period.Start.After(out[j].Period.Start)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}
