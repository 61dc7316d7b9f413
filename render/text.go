package render

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/warp/payroll-engine/payroll"
)

// Text writes an aligned plain-text payslip to w.
func Text(w io.Writer, h Header, p payroll.Payslip) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "Employee\t%s (%s)\t\n", h.EmployeeName, h.EmployeeID)
	fmt.Fprintf(tw, "Period\t%s\t\n", p.PeriodDisplay())
	fmt.Fprintf(tw, "Days worked\t%d\t\n", p.Work.DaysWorked)
	fmt.Fprintf(tw, "\t\t\n")
	for _, l := range earningLines(p) {
		fmt.Fprintf(tw, "%s\t%s\t\n", l.label, Money(l.amount))
	}
	fmt.Fprintf(tw, "Gross pay\t%s\t\n", Money(p.GrossPay))
	fmt.Fprintf(tw, "\t\t\n")
	for _, l := range deductionLines(p) {
		fmt.Fprintf(tw, "%s\t%s\t\n", l.label, Money(l.amount))
	}
	fmt.Fprintf(tw, "Total deductions\t%s\t\n", Money(p.TotalDeductions))
	fmt.Fprintf(tw, "\t\t\n")
	fmt.Fprintf(tw, "Net pay\t%s\t\n", Money(p.NetPay))
	return tw.Flush()
}
