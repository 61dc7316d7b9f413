/*
request.go - Payslip request lifecycle

PURPOSE:
  Employees ask for a payslip for a given month half; payroll staff approve
  or reject. Approval is what triggers computation, so an approved request
  always points at exactly one generated payslip.

REQUEST FLOW:
  ┌──────────────────────────────────────────────────────────────┐
  │                                                              │
  │  Employee submits ──▶ Pending ──▶ Approved ──▶ Payslip(draft)│
  │                          │                                   │
  │                          └──────▶ Rejected (reason)          │
  │                                                              │
  └──────────────────────────────────────────────────────────────┘

  Approved and Rejected are terminal.

SEE ALSO:
  - service.go: ApproveRequest generates and stores the payslip atomically
*/
package payroll

import (
	"fmt"
	"strings"
	"time"

	"github.com/warp/payroll-engine/calendar"
)

// RequestStatus is the request lifecycle state.
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestRejected RequestStatus = "rejected"
)

// PayslipRequest asks for the payslip of one month half.
type PayslipRequest struct {
	ID              string
	EmployeeID      string
	Year            int
	Month           int
	Half            calendar.Half
	Status          RequestStatus
	RequestedAt     time.Time
	ProcessedBy     string
	ProcessedAt     *time.Time
	RejectionReason string
	PayslipID       string
}

// NewPayslipRequest builds a pending request after checking that its period
// resolves.
func NewPayslipRequest(id, employeeID string, year, month int, half calendar.Half, at time.Time) (*PayslipRequest, error) {
	if strings.TrimSpace(employeeID) == "" {
		return nil, &EmployeeError{Reason: "missing id"}
	}
	r := &PayslipRequest{
		ID:          id,
		EmployeeID:  employeeID,
		Year:        year,
		Month:       month,
		Half:        half,
		Status:      RequestPending,
		RequestedAt: at,
	}
	if _, err := r.Period(); err != nil {
		return nil, err
	}
	return r, nil
}

// Period resolves the requested month half.
func (r PayslipRequest) Period() (calendar.Period, error) {
	return calendar.Resolve(r.Year, r.Month, r.Half)
}

// Display renders the request period, e.g. "February 2025 (1st-15th)".
func (r PayslipRequest) Display() string {
	if r.Month < 1 || r.Month > 12 {
		return fmt.Sprintf("%d-%02d (%s)", r.Year, r.Month, r.Half)
	}
	return fmt.Sprintf("%s %d (%s)", time.Month(r.Month), r.Year, r.Half)
}

// Approve marks the request approved and links the generated payslip.
func (r *PayslipRequest) Approve(by string, at time.Time, payslipID string) error {
	if r.Status != RequestPending {
		return &TransitionError{Kind: "request", From: string(r.Status), To: string(RequestApproved)}
	}
	r.Status = RequestApproved
	r.ProcessedBy = by
	r.ProcessedAt = &at
	r.PayslipID = payslipID
	return nil
}

// Reject marks the request rejected with a reason.
func (r *PayslipRequest) Reject(by, reason string, at time.Time) error {
	if r.Status != RequestPending {
		return &TransitionError{Kind: "request", From: string(r.Status), To: string(RequestRejected)}
	}
	if strings.TrimSpace(reason) == "" {
		return fmt.Errorf("%w: rejection reason is required", ErrInvalidInput)
	}
	r.Status = RequestRejected
	r.ProcessedBy = by
	r.ProcessedAt = &at
	r.RejectionReason = reason
	return nil
}
