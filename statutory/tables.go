/*
Package statutory holds the jurisdiction rule tables and the pure calculators
that evaluate them.

PURPOSE:
  Every statutory amount on a payslip comes from a lookup table: tiered social
  security brackets, rate-with-floor-and-ceiling health premiums, a capped
  housing-fund rate and a progressive withholding tax table. The tables are
  data (see factory/rulesets); this package validates them and evaluates them
  exactly, on decimal.Decimal, never float64.

KEY CONCEPTS:
  - ContributionBracket: [Min, Max] -> fixed monthly contribution (SSS)
  - PremiumRule:         salary x rate clamped to [Floor, Ceiling] (PhilHealth)
  - CappedRateRule:      min(salary x rate, Cap) (Pag-IBIG)
  - TaxBracket:          Base + (income - Anchor) x Rate above Over (BIR)
  - PayRules:            divisors and premium multipliers used by the engine

INVARIANTS (checked by Validate):
  - Contribution brackets start at 0, are contiguous at cent granularity
    (next.Min == prev.Max + 0.01), and only the last one is unbounded
  - Contributions never decrease as salary increases
  - Tax brackets are strictly ascending by Over

All values are monthly. Semi-monthly halving is the engine's job.

SEE ALSO:
  - contributions.go: SSS, PhilHealth, PagIbig
  - tax.go:           WithholdingTax
  - factory/ruleset.go: loads Tables from YAML/JSON
*/
package statutory

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Cent is the smallest monetary step used for bracket contiguity.
var Cent = decimal.New(1, -2)

// =============================================================================
// TABLE TYPES
// =============================================================================

// ContributionBracket maps an inclusive monthly salary range to a fixed amount.
// Max is nil for the open-ended top bracket.
type ContributionBracket struct {
	Min          decimal.Decimal
	Max          *decimal.Decimal
	Contribution decimal.Decimal
}

// Unbounded reports whether this is the open-ended top bracket.
func (b ContributionBracket) Unbounded() bool { return b.Max == nil }

// Contains reports whether salary falls inside [Min, Max].
func (b ContributionBracket) Contains(salary decimal.Decimal) bool {
	if salary.LessThan(b.Min) {
		return false
	}
	return b.Max == nil || salary.LessThanOrEqual(*b.Max)
}

// PremiumRule is a percentage contribution with a floor and a ceiling,
// rounded to two decimals.
type PremiumRule struct {
	Rate    decimal.Decimal
	Floor   decimal.Decimal
	Ceiling decimal.Decimal
}

// CappedRateRule is a percentage contribution with an upper cap only.
type CappedRateRule struct {
	Rate decimal.Decimal
	Cap  decimal.Decimal
}

// TaxBracket applies to income strictly greater than Over:
//
//	tax = Base + (income - Anchor) x Rate
//
// Anchor is kept separate from Over because the published table subtracts
// a figure one peso above the previous bracket's ceiling.
type TaxBracket struct {
	Over   decimal.Decimal
	Anchor decimal.Decimal
	Base   decimal.Decimal
	Rate   decimal.Decimal
}

// PayRules holds the rate derivations and premiums the payslip engine applies.
type PayRules struct {
	WorkDaysPerMonth      decimal.Decimal // monthly salary / this = daily rate
	HoursPerDay           decimal.Decimal // daily rate / this = hourly rate
	OvertimeMultiplier    decimal.Decimal // hourly rate multiplier for overtime
	RegularHolidayPremium decimal.Decimal // extra share of daily rate per regular holiday worked
	SpecialHolidayPremium decimal.Decimal // extra share of daily rate per special holiday worked
	PeriodsPerMonth       decimal.Decimal // semi-monthly = 2
}

// Tables is the full statutory ruleset for one jurisdiction.
// Tables values are read-only once validated.
type Tables struct {
	Name        string
	Effective   int // first year the ruleset applies to
	SSS         []ContributionBracket
	PhilHealth  PremiumRule
	PagIbig     CappedRateRule
	Withholding []TaxBracket
	Pay         PayRules
}

// =============================================================================
// VALIDATION
// =============================================================================

// Validate checks every table invariant. The first violation is returned.
func (t Tables) Validate() error {
	if err := validateSSS(t.SSS); err != nil {
		return &TableError{Table: "sss", Reason: err.Error()}
	}
	if err := validatePremium(t.PhilHealth); err != nil {
		return &TableError{Table: "philhealth", Reason: err.Error()}
	}
	if t.PagIbig.Rate.IsNegative() || t.PagIbig.Cap.IsNegative() {
		return &TableError{Table: "pagibig", Reason: "rate and cap must be non-negative"}
	}
	if err := validateTax(t.Withholding); err != nil {
		return &TableError{Table: "withholding_tax", Reason: err.Error()}
	}
	if err := validatePay(t.Pay); err != nil {
		return &TableError{Table: "pay", Reason: err.Error()}
	}
	return nil
}

func validateSSS(brackets []ContributionBracket) error {
	if len(brackets) == 0 {
		return fmt.Errorf("at least one bracket is required")
	}
	if !brackets[0].Min.IsZero() {
		return fmt.Errorf("first bracket must start at 0, got %s", brackets[0].Min)
	}
	for i, b := range brackets {
		last := i == len(brackets)-1
		if b.Contribution.IsNegative() {
			return fmt.Errorf("bracket %d: negative contribution %s", i, b.Contribution)
		}
		if last {
			if !b.Unbounded() {
				return fmt.Errorf("last bracket must be unbounded")
			}
			break
		}
		if b.Unbounded() {
			return fmt.Errorf("bracket %d: only the last bracket may be unbounded", i)
		}
		if b.Max.LessThan(b.Min) {
			return fmt.Errorf("bracket %d: max %s below min %s", i, *b.Max, b.Min)
		}
		next := brackets[i+1]
		if !next.Min.Equal(b.Max.Add(Cent)) {
			return fmt.Errorf("bracket %d: gap or overlap between %s and %s", i, *b.Max, next.Min)
		}
		if next.Contribution.LessThan(b.Contribution) {
			return fmt.Errorf("bracket %d: contribution decreases from %s to %s", i+1, b.Contribution, next.Contribution)
		}
	}
	return nil
}

func validatePremium(r PremiumRule) error {
	if r.Rate.IsNegative() || r.Floor.IsNegative() {
		return fmt.Errorf("rate and floor must be non-negative")
	}
	if r.Ceiling.LessThan(r.Floor) {
		return fmt.Errorf("ceiling %s below floor %s", r.Ceiling, r.Floor)
	}
	return nil
}

func validateTax(brackets []TaxBracket) error {
	if len(brackets) == 0 {
		return fmt.Errorf("at least one bracket is required")
	}
	for i, b := range brackets {
		if b.Rate.IsNegative() || b.Base.IsNegative() {
			return fmt.Errorf("bracket %d: rate and base must be non-negative", i)
		}
		if i > 0 && !b.Over.GreaterThan(brackets[i-1].Over) {
			return fmt.Errorf("bracket %d: thresholds must be strictly ascending", i)
		}
	}
	return nil
}

func validatePay(p PayRules) error {
	if !p.WorkDaysPerMonth.IsPositive() || !p.HoursPerDay.IsPositive() || !p.PeriodsPerMonth.IsPositive() {
		return fmt.Errorf("work days, hours per day and periods per month must be positive")
	}
	if p.OvertimeMultiplier.IsNegative() || p.RegularHolidayPremium.IsNegative() || p.SpecialHolidayPremium.IsNegative() {
		return fmt.Errorf("multipliers must be non-negative")
	}
	return nil
}

// MaxContribution returns the top bracket's amount.
func (t Tables) MaxContribution() decimal.Decimal {
	if len(t.SSS) == 0 {
		return decimal.Zero
	}
	return t.SSS[len(t.SSS)-1].Contribution
}

// Round2 rounds half away from zero to two decimal places.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
