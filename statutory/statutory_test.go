package statutory_test

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/payroll-engine/factory"
	"github.com/warp/payroll-engine/statutory"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func calculator(t *testing.T) *statutory.Calculator {
	t.Helper()
	rs, err := factory.Default()
	require.NoError(t, err)
	return rs.Calculator
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), append([]any{"want %s, got %s", want, got.String()}, msgAndArgs...)...)
}

// =============================================================================
// CONTRIBUTIONS
// =============================================================================

func TestSSS_BracketBoundaries(t *testing.T) {
	calc := calculator(t)

	tests := []struct {
		salary string
		want   string
	}{
		{"0", "180"},
		{"4249.99", "180"},
		{"4249.995", "180"}, // sub-cent gap resolves to the lower bracket
		{"4250", "202.50"},
		{"15000", "675"},
		{"29749.99", "1327.50"},
		{"29750", "1350"},
		{"50000", "1350"},
		{"1000000", "1350"},
	}
	for _, tt := range tests {
		t.Run(tt.salary, func(t *testing.T) {
			got, err := calc.SSS(dec(tt.salary))
			require.NoError(t, err)
			assertDecimal(t, tt.want, got)
		})
	}
}

func TestPhilHealth_FloorAndCeiling(t *testing.T) {
	calc := calculator(t)

	tests := []struct {
		salary string
		want   string
	}{
		{"0", "250"},
		{"10000", "250"},
		{"30000", "750"},
		{"33333.33", "833.33"},
		{"100000", "2500"},
		{"1000000", "2500"},
	}
	for _, tt := range tests {
		t.Run(tt.salary, func(t *testing.T) {
			got, err := calc.PhilHealth(dec(tt.salary))
			require.NoError(t, err)
			assertDecimal(t, tt.want, got)
		})
	}
}

func TestPagIbig_Capped(t *testing.T) {
	calc := calculator(t)

	got, err := calc.PagIbig(dec("4000"))
	require.NoError(t, err)
	assertDecimal(t, "80", got)

	got, err = calc.PagIbig(dec("10000"))
	require.NoError(t, err)
	assertDecimal(t, "100", got)

	got, err = calc.PagIbig(dec("1234.56"))
	require.NoError(t, err)
	assertDecimal(t, "24.6912", got, "not rounded before assembly")
}

func TestContributions_NegativeSalary(t *testing.T) {
	calc := calculator(t)
	neg := dec("-0.01")

	_, err := calc.SSS(neg)
	assert.ErrorIs(t, err, statutory.ErrInvalidInput)
	_, err = calc.PhilHealth(neg)
	assert.ErrorIs(t, err, statutory.ErrInvalidInput)
	_, err = calc.PagIbig(neg)
	assert.ErrorIs(t, err, statutory.ErrInvalidInput)
	_, err = calc.Monthly(neg)
	assert.ErrorIs(t, err, statutory.ErrInvalidInput)
}

func TestMonthly_Total(t *testing.T) {
	calc := calculator(t)

	c, err := calc.Monthly(dec("30000"))
	require.NoError(t, err)
	assertDecimal(t, "1350", c.SSS)
	assertDecimal(t, "750", c.PhilHealth)
	assertDecimal(t, "100", c.PagIbig)
	assertDecimal(t, "2200", c.Total())
}

// =============================================================================
// WITHHOLDING TAX
// =============================================================================

func TestWithholdingTax_Brackets(t *testing.T) {
	calc := calculator(t)

	tests := []struct {
		income string
		want   string
	}{
		{"-500", "0"},
		{"0", "0"},
		{"20833", "0"},
		{"20834", "0.15"},
		{"27800", "1045.05"},
		{"33332", "1874.85"},
		{"33333", "1875"}, // anchor sits one peso above the previous ceiling
		{"66667", "8541.80"},
		{"166667", "33541.80"},
		{"666667", "183541.80"},
		{"1000000", "300208.35"},
	}
	for _, tt := range tests {
		t.Run(tt.income, func(t *testing.T) {
			assertDecimal(t, tt.want, calc.WithholdingTax(dec(tt.income)))
		})
	}
}

func TestTaxBracketFor(t *testing.T) {
	calc := calculator(t)

	_, ok := calc.TaxBracketFor(dec("20833"))
	assert.False(t, ok, "exempt income has no bracket")

	b, ok := calc.TaxBracketFor(dec("40000"))
	require.True(t, ok)
	assertDecimal(t, "33332", b.Over)
	assertDecimal(t, "0.20", b.Rate)
}

// =============================================================================
// PROPERTIES
// =============================================================================

func TestCalculators_MonotonicInSalary(t *testing.T) {
	calc := calculator(t)
	rng := rand.New(rand.NewSource(42))

	prev := map[string]decimal.Decimal{}
	salary := decimal.Zero
	for i := 0; i < 2000; i++ {
		// Whole-peso steps: within the first peso above a tax threshold the
		// published anchor makes the tax dip by up to 0.20.
		salary = salary.Add(decimal.NewFromInt(rng.Int63n(1000) + 1))

		sss, err := calc.SSS(salary)
		require.NoError(t, err)
		ph, err := calc.PhilHealth(salary)
		require.NoError(t, err)
		pi, err := calc.PagIbig(salary)
		require.NoError(t, err)
		tax := calc.WithholdingTax(salary)

		for name, v := range map[string]decimal.Decimal{"sss": sss, "philhealth": ph, "pagibig": pi, "tax": tax} {
			if p, ok := prev[name]; ok {
				require.False(t, v.LessThan(p), "%s decreased at salary %s: %s < %s", name, salary, v, p)
			}
			prev[name] = v
		}
	}
}

func TestWithholdingTax_SubPesoDipAboveThreshold(t *testing.T) {
	calc := calculator(t)

	// The table is applied verbatim, so 33332.01 is taxed by the second
	// bracket from an anchor of 33333.
	assertDecimal(t, "1874.85", calc.WithholdingTax(dec("33332")))
	assertDecimal(t, "1874.80", calc.WithholdingTax(dec("33332.01")))
}

func TestRound2_HalfAwayFromZero(t *testing.T) {
	assertDecimal(t, "522.53", statutory.Round2(dec("522.525")))
	assertDecimal(t, "-522.53", statutory.Round2(dec("-522.525")))
	assertDecimal(t, "0.01", statutory.Round2(dec("0.005")))
	assertDecimal(t, "0", statutory.Round2(dec("0.004")))
}

// =============================================================================
// TABLE VALIDATION
// =============================================================================

func TestTablesValidate_Rejects(t *testing.T) {
	base := factory.MustDefault().Tables
	max := func(s string) *decimal.Decimal { d := dec(s); return &d }

	tests := []struct {
		name   string
		mutate func(t *statutory.Tables)
		table  string
	}{
		{"sss gap", func(t *statutory.Tables) {
			t.SSS = []statutory.ContributionBracket{
				{Min: dec("0"), Max: max("100"), Contribution: dec("10")},
				{Min: dec("100.02"), Contribution: dec("20")},
			}
		}, "sss"},
		{"sss not starting at zero", func(t *statutory.Tables) {
			t.SSS = []statutory.ContributionBracket{{Min: dec("1"), Contribution: dec("10")}}
		}, "sss"},
		{"sss bounded top", func(t *statutory.Tables) {
			t.SSS = []statutory.ContributionBracket{{Min: dec("0"), Max: max("100"), Contribution: dec("10")}}
		}, "sss"},
		{"sss decreasing", func(t *statutory.Tables) {
			t.SSS = []statutory.ContributionBracket{
				{Min: dec("0"), Max: max("100"), Contribution: dec("20")},
				{Min: dec("100.01"), Contribution: dec("10")},
			}
		}, "sss"},
		{"philhealth ceiling below floor", func(t *statutory.Tables) {
			t.PhilHealth.Ceiling = dec("100")
		}, "philhealth"},
		{"tax not ascending", func(t *statutory.Tables) {
			t.Withholding = []statutory.TaxBracket{{Over: dec("10")}, {Over: dec("10")}}
		}, "withholding_tax"},
		{"zero work days", func(t *statutory.Tables) {
			t.Pay.WorkDaysPerMonth = decimal.Zero
		}, "pay"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tables := base
			tables.SSS = append([]statutory.ContributionBracket(nil), base.SSS...)
			tables.Withholding = append([]statutory.TaxBracket(nil), base.Withholding...)
			tt.mutate(&tables)

			err := tables.Validate()
			require.ErrorIs(t, err, statutory.ErrInvalidTables)
			var tableErr *statutory.TableError
			require.ErrorAs(t, err, &tableErr)
			assert.Equal(t, tt.table, tableErr.Table)

			_, err = statutory.NewCalculator(tables)
			assert.Error(t, err)
		})
	}
}

func TestMaxContribution(t *testing.T) {
	assertDecimal(t, "1350", factory.MustDefault().Tables.MaxContribution())
}
