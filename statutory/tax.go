package statutory

import (
	"github.com/shopspring/decimal"
)

// WithholdingTax returns the monthly withholding tax on monthly taxable income,
// rounded to two decimals.
//
// Income at or below the first bracket's Over is exempt. Otherwise the highest
// bracket whose Over the income exceeds applies:
//
//	tax = Base + (income - Anchor) x Rate
//
// Taxable income can go negative when statutory deductions exceed earnings;
// that is exempt as well, not an error.
func (c *Calculator) WithholdingTax(monthlyTaxable decimal.Decimal) decimal.Decimal {
	b, ok := c.bracketFor(monthlyTaxable)
	if !ok {
		return decimal.Zero
	}
	tax := b.Base.Add(monthlyTaxable.Sub(b.Anchor).Mul(b.Rate))
	return Round2(tax)
}

// TaxBracketFor exposes which bracket applies, for previews and audit trails.
func (c *Calculator) TaxBracketFor(monthlyTaxable decimal.Decimal) (TaxBracket, bool) {
	return c.bracketFor(monthlyTaxable)
}

func (c *Calculator) bracketFor(income decimal.Decimal) (TaxBracket, bool) {
	brackets := c.tables.Withholding
	for i := len(brackets) - 1; i >= 0; i-- {
		if income.GreaterThan(brackets[i].Over) {
			return brackets[i], true
		}
	}
	return TaxBracket{}, false
}
