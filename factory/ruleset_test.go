package factory

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/warp/payroll-engine/calendar"
	"github.com/warp/payroll-engine/statutory"
)

const minimalYAML = `
name: test
effective_year: 2025
pay:
  work_days_per_month: 22
  hours_per_day: 8
  overtime_multiplier: 1.25
  regular_holiday_premium: 1.0
  special_holiday_premium: 0.3
  periods_per_month: 2
sss:
  - { min: 0, max: 999.99, contribution: 50 }
  - { min: 1000, contribution: 100 }
philhealth: { rate: 0.025, floor: 250, ceiling: 2500 }
pagibig: { rate: 0.02, cap: 100 }
withholding_tax:
  - { over: 20833, anchor: 20833, base: 0, rate: 0.15 }
holidays:
  2025:
    - { date: "2025-01-01", name: "New Year's Day", category: Regular }
`

func TestDefault_EmbeddedRuleset(t *testing.T) {
	// WHEN: Loading the embedded ruleset
	rs, err := Default()
	require.NoError(t, err)

	// THEN: Tables and the 2025 holiday calendar are present
	assert.Equal(t, "philippines", rs.Tables.Name)
	assert.Equal(t, 2025, rs.Tables.Effective)
	assert.Len(t, rs.Tables.SSS, 53)
	assert.Len(t, rs.Tables.Withholding, 5)
	assert.True(t, rs.Tables.Pay.PeriodsPerMonth.Equal(decimal.NewFromInt(2)))
	assert.Equal(t, []int{2025}, rs.Holidays.Years())

	regular, special, err := rs.Holidays.HolidaysInRange(calendar.NewDate(2025, 1, 1), calendar.NewDate(2025, 12, 31))
	require.NoError(t, err)
	assert.Equal(t, 11, regular)
	assert.Equal(t, 8, special)

	again, err := Default()
	require.NoError(t, err)
	assert.Same(t, rs, again, "parsed once per process")
}

func TestParseYAML_ExactDecimals(t *testing.T) {
	rs, err := ParseYAML([]byte(minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, "0.025", rs.Tables.PhilHealth.Rate.String())
	assert.Equal(t, "999.99", rs.Tables.SSS[0].Max.String())
	assert.Nil(t, rs.Tables.SSS[1].Max)

	h, ok, err := rs.Holidays.Lookup(calendar.NewDate(2025, 1, 1))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, calendar.Regular, h.Category, "category is case-insensitive")
}

func TestParseYAML_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		replace [2]string
		check   func(t *testing.T, err error)
	}{
		{
			name:    "sss gap",
			replace: [2]string{"min: 1000,", "min: 1000.05,"},
			check:   func(t *testing.T, err error) { assert.ErrorIs(t, err, statutory.ErrInvalidTables) },
		},
		{
			name:    "bad holiday date",
			replace: [2]string{`"2025-01-01"`, `"2025-13-01"`},
			check:   func(t *testing.T, err error) { assert.ErrorIs(t, err, calendar.ErrInvalidDate) },
		},
		{
			name:    "holiday filed under wrong year",
			replace: [2]string{"  2025:\n", "  2024:\n"},
			check:   func(t *testing.T, err error) { assert.Error(t, err) },
		},
		{
			name:    "malformed yaml",
			replace: [2]string{"sss:", "sss: ["},
			check:   func(t *testing.T, err error) { assert.Error(t, err) },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := replaceOnce(t, minimalYAML, tt.replace[0], tt.replace[1])
			_, err := ParseYAML([]byte(doc))
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func replaceOnce(t *testing.T, s, old, new string) string {
	t.Helper()
	i := indexOf(s, old)
	require.GreaterOrEqual(t, i, 0, "fixture must contain %q", old)
	return s[:i] + new + s[i+len(old):]
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}

func TestToDocument_RoundTrip(t *testing.T) {
	orig := MustDefault()
	doc := ToDocument(orig)

	t.Run("yaml", func(t *testing.T) {
		data, err := yaml.Marshal(doc)
		require.NoError(t, err)
		back, err := ParseYAML(data)
		require.NoError(t, err)
		assertSameRuleset(t, orig, back)
	})
	t.Run("json", func(t *testing.T) {
		data, err := json.Marshal(doc)
		require.NoError(t, err)
		back, err := ParseJSON(data)
		require.NoError(t, err)
		assertSameRuleset(t, orig, back)
	})
}

func assertSameRuleset(t *testing.T, want, got *Ruleset) {
	t.Helper()
	require.Len(t, got.Tables.SSS, len(want.Tables.SSS))
	for i := range want.Tables.SSS {
		assert.True(t, want.Tables.SSS[i].Min.Equal(got.Tables.SSS[i].Min), "sss[%d].min", i)
		assert.True(t, want.Tables.SSS[i].Contribution.Equal(got.Tables.SSS[i].Contribution), "sss[%d].contribution", i)
	}
	require.Len(t, got.Tables.Withholding, len(want.Tables.Withholding))
	for i := range want.Tables.Withholding {
		assert.True(t, want.Tables.Withholding[i].Base.Equal(got.Tables.Withholding[i].Base), "tax[%d].base", i)
		assert.True(t, want.Tables.Withholding[i].Anchor.Equal(got.Tables.Withholding[i].Anchor), "tax[%d].anchor", i)
	}
	assert.Equal(t, want.Holidays.Years(), got.Holidays.Years())
	wantHs, _ := want.Holidays.Holidays(2025)
	gotHs, _ := got.Holidays.Holidays(2025)
	assert.Equal(t, len(wantHs), len(gotHs))
}

func TestLoadFile_ByExtension(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "ruleset.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(minimalYAML), 0o644))
	rs, err := LoadFile(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, "test", rs.Tables.Name)

	data, err := json.Marshal(ToDocument(rs))
	require.NoError(t, err)
	jsonPath := filepath.Join(dir, "ruleset.JSON")
	require.NoError(t, os.WriteFile(jsonPath, data, 0o644))
	fromJSON, err := LoadFile(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, "test", fromJSON.Tables.Name)

	_, err = LoadFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
