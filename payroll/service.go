/*
service.go - Persistence-aware payroll orchestration

PURPOSE:
  Wires the pure Engine to the Store and a FactSource. Every operation that
  reads or writes rows lives here; every peso amount is still computed by
  the Engine.

OPERATIONS:
  Preview:        compute without saving
  SubmitRequest:  employee asks for a period's payslip (pending)
  ApproveRequest: generate, then save payslip + mark request approved (one tx)
  RejectRequest:  close a pending request with a reason
  GenerateDirect: payroll staff generate an approved payslip directly
  ApprovePayslip / CancelPayslip: payslip status changes
  Run:            generate draft payslips for every employee in a period

DUPLICATES:
  An employee has at most one open request (pending or approved) and one
  non-cancelled payslip per period. Run skips employees that already have
  one, so re-running a period is safe.

EXAMPLE:
  svc := payroll.NewService(engine, store, payroll.AttendanceFacts{...}, logger)
  req, _ := svc.SubmitRequest(ctx, "emp-1", 2025, 2, calendar.FirstHalf)
  slip, err := svc.ApproveRequest(ctx, req.ID, "hr@example.com")
*/
package payroll

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/warp/payroll-engine/calendar"
	"github.com/warp/payroll-engine/logging"
)

// DefaultRunWorkers bounds concurrent payslip generation in Run.
const DefaultRunWorkers = 4

// Service orchestrates payroll operations.
type Service struct {
	Engine  *Engine
	Store   TxStore
	Facts   FactSource
	Logger  *zap.Logger
	NewID   func() string
	Now     func() time.Time
	Workers int
}

// NewService returns a service with uuid IDs and a UTC clock.
func NewService(engine *Engine, store TxStore, facts FactSource, logger *zap.Logger) *Service {
	return &Service{
		Engine:  engine,
		Store:   store,
		Facts:   facts,
		Logger:  logger,
		NewID:   uuid.NewString,
		Now:     func() time.Time { return time.Now().UTC() },
		Workers: DefaultRunWorkers,
	}
}

func (s *Service) log(ctx context.Context) *zap.Logger {
	return logging.FromContext(ctx, s.Logger)
}

// =============================================================================
// PREVIEW
// =============================================================================

// Preview computes a payslip for a stored employee without saving it.
func (s *Service) Preview(ctx context.Context, employeeID string, p calendar.Period) (Payslip, error) {
	emp, err := s.employee(ctx, s.Store, employeeID)
	if err != nil {
		return Payslip{}, err
	}
	return s.Engine.GenerateFrom(ctx, s.Facts, emp.Employee(), p)
}

// =============================================================================
// REQUEST WORKFLOW
// =============================================================================

// SubmitRequest records a pending payslip request.
func (s *Service) SubmitRequest(ctx context.Context, employeeID string, year, month int, half calendar.Half) (*PayslipRequest, error) {
	l := s.log(ctx)

	if _, err := s.employee(ctx, s.Store, employeeID); err != nil {
		return nil, err
	}
	req, err := NewPayslipRequest(s.NewID(), employeeID, year, month, half, s.Now())
	if err != nil {
		return nil, err
	}
	p, _ := req.Period()

	existing, err := s.Store.ListRequests(ctx, RequestFilter{EmployeeID: employeeID})
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	for _, r := range existing {
		if r.Status != RequestRejected && r.Year == year && r.Month == month && r.Half == half {
			return nil, fmt.Errorf("payslip request for %s: %w", req.Display(), ErrDuplicate)
		}
	}
	if slip, err := s.activePayslip(ctx, s.Store, employeeID, p); err != nil {
		return nil, err
	} else if slip != nil && slip.Status == StatusApproved {
		return nil, fmt.Errorf("approved payslip %s for %s: %w", slip.ID, req.Display(), ErrDuplicate)
	}

	if err := s.Store.SaveRequest(ctx, *req); err != nil {
		l.Error("failed to save payslip request", zap.Error(err))
		return nil, fmt.Errorf("failed to save request: %w", err)
	}
	l.Info("payslip requested",
		zap.String("request_id", req.ID),
		zap.String("employee_id", employeeID),
		zap.String("period", req.Display()),
	)
	return req, nil
}

// ApproveRequest generates the requested payslip and approves the request.
// The payslip is stored as a draft. Facts are gathered before the write
// transaction; inside it the request is re-read so a concurrent decision
// is not overwritten.
func (s *Service) ApproveRequest(ctx context.Context, requestID, approver string) (*Payslip, error) {
	req, err := s.request(ctx, s.Store, requestID)
	if err != nil {
		return nil, err
	}
	if req.Status != RequestPending {
		return nil, &TransitionError{Kind: "request", From: string(req.Status), To: string(RequestApproved)}
	}
	p, err := req.Period()
	if err != nil {
		return nil, err
	}
	slip, err := s.generate(ctx, req.EmployeeID, p)
	if err != nil {
		return nil, err
	}
	slip.RequestID = req.ID

	err = s.Store.WithTx(ctx, func(tx Store) error {
		current, err := s.request(ctx, tx, requestID)
		if err != nil {
			return err
		}
		if err := s.ensureNoPayslip(ctx, tx, req.EmployeeID, p); err != nil {
			return err
		}
		if err := current.Approve(approver, s.Now(), slip.ID); err != nil {
			return err
		}
		if err := tx.SavePayslip(ctx, slip); err != nil {
			return fmt.Errorf("failed to save payslip: %w", err)
		}
		return tx.SaveRequest(ctx, *current)
	})
	if err != nil {
		return nil, err
	}
	s.log(ctx).Info("payslip request approved",
		zap.String("request_id", requestID),
		zap.String("payslip_id", slip.ID),
		zap.String("approver", approver),
		zap.String("net_pay", slip.NetPay.StringFixed(2)),
	)
	return &slip, nil
}

// RejectRequest closes a pending request.
func (s *Service) RejectRequest(ctx context.Context, requestID, approver, reason string) (*PayslipRequest, error) {
	req, err := s.request(ctx, s.Store, requestID)
	if err != nil {
		return nil, err
	}
	if err := req.Reject(approver, reason, s.Now()); err != nil {
		return nil, err
	}
	if err := s.Store.SaveRequest(ctx, *req); err != nil {
		return nil, fmt.Errorf("failed to save request: %w", err)
	}
	s.log(ctx).Info("payslip request rejected",
		zap.String("request_id", requestID),
		zap.String("approver", approver),
	)
	return req, nil
}

// =============================================================================
// DIRECT GENERATION AND PAYSLIP STATUS
// =============================================================================

// GenerateDirect generates, approves and stores a payslip without a request.
func (s *Service) GenerateDirect(ctx context.Context, employeeID string, p calendar.Period, approver string) (*Payslip, error) {
	slip, err := s.generate(ctx, employeeID, p)
	if err != nil {
		return nil, err
	}
	if err := slip.Approve(approver, s.Now()); err != nil {
		return nil, err
	}
	err = s.Store.WithTx(ctx, func(tx Store) error {
		if err := s.ensureNoPayslip(ctx, tx, employeeID, p); err != nil {
			return err
		}
		return tx.SavePayslip(ctx, slip)
	})
	if err != nil {
		return nil, err
	}
	s.log(ctx).Info("payslip generated",
		zap.String("payslip_id", slip.ID),
		zap.String("employee_id", employeeID),
		zap.String("period", p.String()),
	)
	return &slip, nil
}

// generate computes a new payslip with a fresh ID after checking that the
// employee has none for the period yet.
func (s *Service) generate(ctx context.Context, employeeID string, p calendar.Period) (Payslip, error) {
	emp, err := s.employee(ctx, s.Store, employeeID)
	if err != nil {
		return Payslip{}, err
	}
	if err := s.ensureNoPayslip(ctx, s.Store, employeeID, p); err != nil {
		return Payslip{}, err
	}
	slip, err := s.Engine.GenerateFrom(ctx, s.Facts, emp.Employee(), p)
	if err != nil {
		return Payslip{}, err
	}
	slip.ID = s.NewID()
	return slip, nil
}

// GetPayslip loads a payslip.
func (s *Service) GetPayslip(ctx context.Context, id string) (*Payslip, error) {
	return s.payslip(ctx, s.Store, id)
}

// ApprovePayslip approves a draft payslip.
func (s *Service) ApprovePayslip(ctx context.Context, id, approver string) (*Payslip, error) {
	return s.updatePayslip(ctx, id, func(p *Payslip) error { return p.Approve(approver, s.Now()) })
}

// CancelPayslip voids a payslip.
func (s *Service) CancelPayslip(ctx context.Context, id, remarks string) (*Payslip, error) {
	return s.updatePayslip(ctx, id, func(p *Payslip) error { return p.Cancel(remarks) })
}

func (s *Service) updatePayslip(ctx context.Context, id string, change func(*Payslip) error) (*Payslip, error) {
	var out *Payslip
	err := s.Store.WithTx(ctx, func(tx Store) error {
		p, err := s.payslip(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := change(p); err != nil {
			return err
		}
		out = p
		return tx.SavePayslip(ctx, *p)
	})
	if err != nil {
		return nil, err
	}
	s.log(ctx).Info("payslip status changed", zap.String("payslip_id", id), zap.String("status", string(out.Status)))
	return out, nil
}

// =============================================================================
// PAYROLL RUN
// =============================================================================

// RunFailure records an employee the run could not pay.
type RunFailure struct {
	EmployeeID string
	Err        error
}

// RunResult summarizes a payroll run.
type RunResult struct {
	Period          calendar.Period
	Generated       []Payslip
	Skipped         []string // employees that already had a payslip
	Failed          []RunFailure
	GrossPay        decimal.Decimal
	TotalDeductions decimal.Decimal
	NetPay          decimal.Decimal
}

type runOutcome struct {
	slip    *Payslip
	skipped bool
	failure error
}

// Run generates draft payslips for every employee for the period.
//
// Per-employee problems (bad salary, invalid facts) are collected in Failed
// and do not stop the run. Store errors abort it.
func (s *Service) Run(ctx context.Context, p calendar.Period) (*RunResult, error) {
	l := s.log(ctx)
	if _, err := s.Engine.Summarize(p); err != nil {
		return nil, err
	}
	emps, err := s.Store.ListEmployees(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}

	outcomes := make([]runOutcome, len(emps))
	g, gctx := errgroup.WithContext(ctx)
	workers := s.Workers
	if workers <= 0 {
		workers = DefaultRunWorkers
	}
	g.SetLimit(workers)
	for i, emp := range emps {
		i, emp := i, emp
		g.Go(func() error {
			out, err := s.runOne(gctx, emp, p)
			outcomes[i] = out
			return err
		})
	}
	if err := g.Wait(); err != nil {
		l.Error("payroll run aborted", zap.String("period", p.String()), zap.Error(err))
		return nil, err
	}

	res := &RunResult{Period: p, GrossPay: decimal.Zero, TotalDeductions: decimal.Zero, NetPay: decimal.Zero}
	for i, out := range outcomes {
		switch {
		case out.failure != nil:
			res.Failed = append(res.Failed, RunFailure{EmployeeID: emps[i].ID, Err: out.failure})
		case out.skipped:
			res.Skipped = append(res.Skipped, emps[i].ID)
		case out.slip != nil:
			res.Generated = append(res.Generated, *out.slip)
			res.GrossPay = res.GrossPay.Add(out.slip.GrossPay)
			res.TotalDeductions = res.TotalDeductions.Add(out.slip.TotalDeductions)
			res.NetPay = res.NetPay.Add(out.slip.NetPay)
		}
	}
	l.Info("payroll run finished",
		zap.String("period", p.String()),
		zap.Int("generated", len(res.Generated)),
		zap.Int("skipped", len(res.Skipped)),
		zap.Int("failed", len(res.Failed)),
		zap.String("net_pay", res.NetPay.StringFixed(2)),
	)
	return res, nil
}

func (s *Service) runOne(ctx context.Context, emp EmployeeRecord, p calendar.Period) (runOutcome, error) {
	existing, err := s.activePayslip(ctx, s.Store, emp.ID, p)
	if err != nil {
		return runOutcome{}, err
	}
	if existing != nil {
		return runOutcome{skipped: true}, nil
	}
	slip, err := s.Engine.GenerateFrom(ctx, s.Facts, emp.Employee(), p)
	if err != nil {
		s.log(ctx).Warn("payslip not generated", zap.String("employee_id", emp.ID), zap.Error(err))
		return runOutcome{failure: err}, nil
	}
	slip.ID = s.NewID()
	if err := s.Store.SavePayslip(ctx, slip); err != nil {
		return runOutcome{}, fmt.Errorf("failed to save payslip for %s: %w", emp.ID, err)
	}
	return runOutcome{slip: &slip}, nil
}

// =============================================================================
// LOOKUP HELPERS
// =============================================================================

func (s *Service) employee(ctx context.Context, st Store, id string) (*EmployeeRecord, error) {
	e, err := st.GetEmployee(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load employee: %w", err)
	}
	if e == nil {
		return nil, fmt.Errorf("%w: %s", ErrEmployeeNotFound, id)
	}
	return e, nil
}

func (s *Service) request(ctx context.Context, st Store, id string) (*PayslipRequest, error) {
	r, err := st.GetRequest(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load request: %w", err)
	}
	if r == nil {
		return nil, fmt.Errorf("%w: %s", ErrRequestNotFound, id)
	}
	return r, nil
}

func (s *Service) payslip(ctx context.Context, st Store, id string) (*Payslip, error) {
	p, err := st.GetPayslip(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load payslip: %w", err)
	}
	if p == nil {
		return nil, fmt.Errorf("%w: %s", ErrPayslipNotFound, id)
	}
	return p, nil
}

func (s *Service) ensureNoPayslip(ctx context.Context, st Store, employeeID string, p calendar.Period) error {
	existing, err := s.activePayslip(ctx, st, employeeID, p)
	if err != nil {
		return err
	}
	if existing != nil {
		return fmt.Errorf("payslip %s for %s: %w", existing.ID, p.Display(), ErrDuplicate)
	}
	return nil
}

// activePayslip returns the employee's non-cancelled payslip for the period.
func (s *Service) activePayslip(ctx context.Context, st Store, employeeID string, p calendar.Period) (*Payslip, error) {
	slips, err := st.ListPayslips(ctx, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payslips: %w", err)
	}
	for _, slip := range slips {
		if slip.Status != StatusCancelled && slip.Period.Start.Equal(p.Start) && slip.Period.End.Equal(p.End) {
			return &slip, nil
		}
	}
	return nil, nil
}
