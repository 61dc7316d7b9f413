package statutory

import (
	"sort"

	"github.com/shopspring/decimal"
)

// =============================================================================
// CALCULATOR - Pure evaluation of a validated ruleset
// =============================================================================

// Calculator evaluates statutory tables. It holds no mutable state and is
// safe for concurrent use.
type Calculator struct {
	tables Tables
}

// NewCalculator validates the tables and returns a calculator over them.
func NewCalculator(t Tables) (*Calculator, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &Calculator{tables: t}, nil
}

// Tables returns the ruleset the calculator evaluates.
func (c *Calculator) Tables() Tables { return c.tables }

// SSS returns the monthly social security contribution for a monthly salary.
//
// The bracket is the last one whose Min is at or below the salary, so
// sub-cent salaries between one bracket's Max and the next Min resolve to the
// lower bracket. Salaries above the last bounded bracket get the top amount.
func (c *Calculator) SSS(monthlySalary decimal.Decimal) (decimal.Decimal, error) {
	if err := requireNonNegative("monthly salary", monthlySalary); err != nil {
		return decimal.Zero, err
	}
	brackets := c.tables.SSS
	i := sort.Search(len(brackets), func(i int) bool {
		return brackets[i].Min.GreaterThan(monthlySalary)
	})
	// Validate guarantees brackets[0].Min == 0, so i >= 1 here.
	return brackets[i-1].Contribution, nil
}

// PhilHealth returns the monthly health premium employee share:
// salary x rate, clamped to [Floor, Ceiling], rounded to two decimals.
func (c *Calculator) PhilHealth(monthlySalary decimal.Decimal) (decimal.Decimal, error) {
	if err := requireNonNegative("monthly salary", monthlySalary); err != nil {
		return decimal.Zero, err
	}
	rule := c.tables.PhilHealth
	share := monthlySalary.Mul(rule.Rate)
	if share.LessThan(rule.Floor) {
		share = rule.Floor
	}
	if share.GreaterThan(rule.Ceiling) {
		share = rule.Ceiling
	}
	return Round2(share), nil
}

// PagIbig returns the monthly housing fund employee share: min(salary x rate, Cap).
// The result is not rounded; the engine rounds at payslip assembly.
func (c *Calculator) PagIbig(monthlySalary decimal.Decimal) (decimal.Decimal, error) {
	if err := requireNonNegative("monthly salary", monthlySalary); err != nil {
		return decimal.Zero, err
	}
	rule := c.tables.PagIbig
	return decimal.Min(monthlySalary.Mul(rule.Rate), rule.Cap), nil
}

// Contributions bundles the three monthly contributions.
type Contributions struct {
	SSS        decimal.Decimal
	PhilHealth decimal.Decimal
	PagIbig    decimal.Decimal
}

// Total sums the three contributions.
func (c Contributions) Total() decimal.Decimal {
	return c.SSS.Add(c.PhilHealth).Add(c.PagIbig)
}

// Monthly evaluates all three contributions for a monthly salary.
func (c *Calculator) Monthly(monthlySalary decimal.Decimal) (Contributions, error) {
	sss, err := c.SSS(monthlySalary)
	if err != nil {
		return Contributions{}, err
	}
	ph, err := c.PhilHealth(monthlySalary)
	if err != nil {
		return Contributions{}, err
	}
	pi, err := c.PagIbig(monthlySalary)
	if err != nil {
		return Contributions{}, err
	}
	return Contributions{SSS: sss, PhilHealth: ph, PagIbig: pi}, nil
}
