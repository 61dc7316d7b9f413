// Package render formats payslips for people: PDF for download and a plain
// text table for the CLI.
package render

import (
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"

	"github.com/warp/payroll-engine/payroll"
)

// Currency prefixes every amount. The core PDF fonts have no peso sign.
const Currency = "PHP"

// Header identifies the employee on a rendered payslip.
type Header struct {
	Company      string
	EmployeeID   string
	EmployeeName string
	Email        string
}

// HeaderFor builds a header from a stored employee.
func HeaderFor(company string, e payroll.EmployeeRecord) Header {
	return Header{Company: company, EmployeeID: e.ID, EmployeeName: e.Name, Email: e.Email}
}

type line struct {
	label  string
	amount decimal.Decimal
}

func earningLines(p payroll.Payslip) []line {
	return []line{
		{"Basic pay", p.Earnings.BasicPay},
		{"Holiday pay", p.Earnings.HolidayPay},
		{"Overtime pay", p.Earnings.OvertimePay},
		{"Allowances", p.Earnings.Allowances},
	}
}

func deductionLines(p payroll.Payslip) []line {
	return []line{
		{"SSS", p.Deductions.SSS},
		{"PhilHealth", p.Deductions.PhilHealth},
		{"Pag-IBIG", p.Deductions.PagIbig},
		{"Withholding tax", p.Deductions.WithholdingTax},
		{"Other deductions", p.Deductions.OtherDeductions},
	}
}

// Money formats an amount with the currency and two decimals.
func Money(d decimal.Decimal) string {
	return Currency + " " + d.StringFixed(2)
}

// PDF writes an A4 payslip to w.
func PDF(w io.Writer, h Header, p payroll.Payslip) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("Payslip %s %s", h.EmployeeID, p.Period), false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	title := "Payslip"
	if h.Company != "" {
		title = h.Company + " - Payslip"
	}
	pdf.Cell(0, 10, title)
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 7, fmt.Sprintf("Employee: %s (%s)", h.EmployeeName, h.EmployeeID))
	pdf.Ln(6)
	if h.Email != "" {
		pdf.Cell(0, 7, "Email: "+h.Email)
		pdf.Ln(6)
	}
	pdf.Cell(0, 7, "Pay period: "+p.PeriodDisplay())
	pdf.Ln(6)
	pdf.Cell(0, 7, fmt.Sprintf("Status: %s", p.Status))
	pdf.Ln(6)
	pdf.Cell(0, 7, fmt.Sprintf("Days worked: %d   Overtime hours: %s   Holidays worked: %d regular, %d special",
		p.Work.DaysWorked, p.Work.OvertimeHours.String(), p.Work.RegularHolidaysWorked, p.Work.SpecialHolidaysWorked))
	pdf.Ln(10)

	section := func(name string, lines []line, totalLabel string, total decimal.Decimal) {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(0, 8, name, "B", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		for _, l := range lines {
			pdf.CellFormat(120, 7, l.label, "", 0, "L", false, 0, "")
			pdf.CellFormat(0, 7, Money(l.amount), "", 1, "R", false, 0, "")
		}
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(120, 7, totalLabel, "T", 0, "L", false, 0, "")
		pdf.CellFormat(0, 7, Money(total), "T", 1, "R", false, 0, "")
		pdf.Ln(4)
	}
	section("Earnings", earningLines(p), "Gross pay", p.GrossPay)
	section("Deductions", deductionLines(p), "Total deductions", p.TotalDeductions)

	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(120, 10, "Net pay", "TB", 0, "L", false, 0, "")
	pdf.CellFormat(0, 10, Money(p.NetPay), "TB", 1, "R", false, 0, "")

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "I", 8)
	pdf.Cell(0, 5, fmt.Sprintf("Generated %s. Taxable income this period: %s.",
		p.GeneratedAt.Format("2006-01-02 15:04 MST"), Money(p.TaxableIncome)))

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("failed to render payslip: %w", err)
	}
	return pdf.Output(w)
}
