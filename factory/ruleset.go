/*
Package factory converts ruleset documents into statutory tables and holiday
calendars.

PURPOSE:
  Contribution brackets, tax brackets and holiday lists change by law every
  year. Keeping them in data files means a new year's table is a document
  change, not a code change. The factory parses a document (YAML or JSON),
  validates it, and produces the immutable values the engine evaluates.

DOCUMENT SCHEMA (YAML shown; JSON uses the same keys):
  name: philippines
  effective_year: 2025
  pay:
    work_days_per_month: 22
    hours_per_day: 8
    overtime_multiplier: 1.25
    regular_holiday_premium: 1.0
    special_holiday_premium: 0.3
    periods_per_month: 2
  sss:
    - { min: 0, max: 4249.99, contribution: 180 }
    - { min: 29750, contribution: 1350 }      # no max: open-ended
  philhealth: { rate: 0.025, floor: 250, ceiling: 2500 }
  pagibig:    { rate: 0.02, cap: 100 }
  withholding_tax:
    - { over: 20833, anchor: 20833, base: 0, rate: 0.15 }
  holidays:
    2025:
      - { date: "2025-01-01", name: "New Year's Day", category: regular }

Numbers are decoded straight into decimal.Decimal from their source text, so
"8541.80" stays exactly 8541.80.

USAGE:
  rs, err := factory.Default()              // embedded Philippine ruleset
  rs, err := factory.LoadFile("ph-2026.yaml")
  engine := payroll.NewEngine(rs.Calculator, rs.Holidays)

SEE ALSO:
  - rulesets/philippines.yaml: the embedded default
  - statutory/tables.go:       table invariants
  - calendar/holiday.go:       holiday calendar
*/
package factory

import (
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/warp/payroll-engine/calendar"
	"github.com/warp/payroll-engine/statutory"
)

//go:embed rulesets/*.yaml
var embedded embed.FS

// DefaultRuleset is the embedded ruleset used when none is configured.
const DefaultRuleset = "rulesets/philippines.yaml"

// =============================================================================
// DOCUMENT SCHEMA TYPES
// =============================================================================

// RulesetDocument is the serialized form of a ruleset.
type RulesetDocument struct {
	Name           string                    `yaml:"name" json:"name"`
	EffectiveYear  int                       `yaml:"effective_year" json:"effective_year"`
	Pay            PayDocument               `yaml:"pay" json:"pay"`
	SSS            []BracketDocument         `yaml:"sss" json:"sss"`
	PhilHealth     PremiumDocument           `yaml:"philhealth" json:"philhealth"`
	PagIbig        CappedRateDocument        `yaml:"pagibig" json:"pagibig"`
	WithholdingTax []TaxBracketDocument      `yaml:"withholding_tax" json:"withholding_tax"`
	Holidays       map[int][]HolidayDocument `yaml:"holidays" json:"holidays"`
}

// PayDocument holds rate derivation settings.
type PayDocument struct {
	WorkDaysPerMonth      decimal.Decimal `yaml:"work_days_per_month" json:"work_days_per_month"`
	HoursPerDay           decimal.Decimal `yaml:"hours_per_day" json:"hours_per_day"`
	OvertimeMultiplier    decimal.Decimal `yaml:"overtime_multiplier" json:"overtime_multiplier"`
	RegularHolidayPremium decimal.Decimal `yaml:"regular_holiday_premium" json:"regular_holiday_premium"`
	SpecialHolidayPremium decimal.Decimal `yaml:"special_holiday_premium" json:"special_holiday_premium"`
	PeriodsPerMonth       decimal.Decimal `yaml:"periods_per_month" json:"periods_per_month"`
}

// BracketDocument is one contribution bracket. Max is omitted on the top bracket.
type BracketDocument struct {
	Min          decimal.Decimal  `yaml:"min" json:"min"`
	Max          *decimal.Decimal `yaml:"max,omitempty" json:"max,omitempty"`
	Contribution decimal.Decimal  `yaml:"contribution" json:"contribution"`
}

// PremiumDocument is a rate with floor and ceiling.
type PremiumDocument struct {
	Rate    decimal.Decimal `yaml:"rate" json:"rate"`
	Floor   decimal.Decimal `yaml:"floor" json:"floor"`
	Ceiling decimal.Decimal `yaml:"ceiling" json:"ceiling"`
}

// CappedRateDocument is a rate with a cap.
type CappedRateDocument struct {
	Rate decimal.Decimal `yaml:"rate" json:"rate"`
	Cap  decimal.Decimal `yaml:"cap" json:"cap"`
}

// TaxBracketDocument is one withholding bracket.
type TaxBracketDocument struct {
	Over   decimal.Decimal `yaml:"over" json:"over"`
	Anchor decimal.Decimal `yaml:"anchor" json:"anchor"`
	Base   decimal.Decimal `yaml:"base" json:"base"`
	Rate   decimal.Decimal `yaml:"rate" json:"rate"`
}

// HolidayDocument is one dated holiday.
type HolidayDocument struct {
	Date     string `yaml:"date" json:"date"`
	Name     string `yaml:"name" json:"name"`
	Category string `yaml:"category" json:"category"`
}

// =============================================================================
// RULESET - Parsed, validated output
// =============================================================================

// Ruleset is a validated ruleset ready for the engine.
type Ruleset struct {
	Tables     statutory.Tables
	Calculator *statutory.Calculator
	Holidays   *calendar.HolidayCalendar
}

// ParseYAML parses and validates a YAML ruleset document.
func ParseYAML(data []byte) (*Ruleset, error) {
	var doc RulesetDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse ruleset YAML: %w", err)
	}
	return Build(doc)
}

// ParseJSON parses and validates a JSON ruleset document.
func ParseJSON(data []byte) (*Ruleset, error) {
	var doc RulesetDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse ruleset JSON: %w", err)
	}
	return Build(doc)
}

// LoadFile reads a ruleset from disk. Files ending in .json are parsed as
// JSON; everything else as YAML.
func LoadFile(path string) (*Ruleset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read ruleset %s: %w", path, err)
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return ParseJSON(data)
	}
	return ParseYAML(data)
}

var (
	defaultOnce sync.Once
	defaultRS   *Ruleset
	defaultErr  error
)

// Default returns the embedded Philippine ruleset. It is parsed once per
// process; the returned value is shared and must not be modified.
func Default() (*Ruleset, error) {
	defaultOnce.Do(func() {
		data, err := embedded.ReadFile(DefaultRuleset)
		if err != nil {
			defaultErr = err
			return
		}
		defaultRS, defaultErr = ParseYAML(data)
	})
	return defaultRS, defaultErr
}

// MustDefault is Default for program setup and tests.
func MustDefault() *Ruleset {
	rs, err := Default()
	if err != nil {
		panic(fmt.Sprintf("embedded ruleset is invalid: %v", err))
	}
	return rs
}

// Build converts a document into a validated ruleset.
func Build(doc RulesetDocument) (*Ruleset, error) {
	tables := statutory.Tables{
		Name:      doc.Name,
		Effective: doc.EffectiveYear,
		PhilHealth: statutory.PremiumRule{
			Rate:    doc.PhilHealth.Rate,
			Floor:   doc.PhilHealth.Floor,
			Ceiling: doc.PhilHealth.Ceiling,
		},
		PagIbig: statutory.CappedRateRule{
			Rate: doc.PagIbig.Rate,
			Cap:  doc.PagIbig.Cap,
		},
		Pay: statutory.PayRules{
			WorkDaysPerMonth:      doc.Pay.WorkDaysPerMonth,
			HoursPerDay:           doc.Pay.HoursPerDay,
			OvertimeMultiplier:    doc.Pay.OvertimeMultiplier,
			RegularHolidayPremium: doc.Pay.RegularHolidayPremium,
			SpecialHolidayPremium: doc.Pay.SpecialHolidayPremium,
			PeriodsPerMonth:       doc.Pay.PeriodsPerMonth,
		},
	}
	for _, b := range doc.SSS {
		tables.SSS = append(tables.SSS, statutory.ContributionBracket{
			Min:          b.Min,
			Max:          b.Max,
			Contribution: b.Contribution,
		})
	}
	for _, b := range doc.WithholdingTax {
		tables.Withholding = append(tables.Withholding, statutory.TaxBracket{
			Over:   b.Over,
			Anchor: b.Anchor,
			Base:   b.Base,
			Rate:   b.Rate,
		})
	}

	calc, err := statutory.NewCalculator(tables)
	if err != nil {
		return nil, fmt.Errorf("ruleset %q: %w", doc.Name, err)
	}

	byYear := make(map[int][]calendar.Holiday, len(doc.Holidays))
	for year, entries := range doc.Holidays {
		for _, e := range entries {
			d, err := calendar.ParseDate(e.Date)
			if err != nil {
				return nil, fmt.Errorf("ruleset %q: holiday %q: %w", doc.Name, e.Name, err)
			}
			byYear[year] = append(byYear[year], calendar.Holiday{
				Date:     d,
				Name:     e.Name,
				Category: calendar.Category(strings.ToLower(e.Category)),
			})
		}
	}
	holidays, err := calendar.NewHolidayCalendar(byYear)
	if err != nil {
		return nil, fmt.Errorf("ruleset %q: %w", doc.Name, err)
	}

	return &Ruleset{Tables: tables, Calculator: calc, Holidays: holidays}, nil
}

// ToDocument converts a ruleset back to its serialized form.
func ToDocument(rs *Ruleset) RulesetDocument {
	t := rs.Tables
	doc := RulesetDocument{
		Name:          t.Name,
		EffectiveYear: t.Effective,
		Pay: PayDocument{
			WorkDaysPerMonth:      t.Pay.WorkDaysPerMonth,
			HoursPerDay:           t.Pay.HoursPerDay,
			OvertimeMultiplier:    t.Pay.OvertimeMultiplier,
			RegularHolidayPremium: t.Pay.RegularHolidayPremium,
			SpecialHolidayPremium: t.Pay.SpecialHolidayPremium,
			PeriodsPerMonth:       t.Pay.PeriodsPerMonth,
		},
		PhilHealth: PremiumDocument{Rate: t.PhilHealth.Rate, Floor: t.PhilHealth.Floor, Ceiling: t.PhilHealth.Ceiling},
		PagIbig:    CappedRateDocument{Rate: t.PagIbig.Rate, Cap: t.PagIbig.Cap},
		Holidays:   make(map[int][]HolidayDocument),
	}
	for _, b := range t.SSS {
		doc.SSS = append(doc.SSS, BracketDocument{Min: b.Min, Max: b.Max, Contribution: b.Contribution})
	}
	for _, b := range t.Withholding {
		doc.WithholdingTax = append(doc.WithholdingTax, TaxBracketDocument{Over: b.Over, Anchor: b.Anchor, Base: b.Base, Rate: b.Rate})
	}
	for _, y := range rs.Holidays.Years() {
		hs, _ := rs.Holidays.Holidays(y)
		for _, h := range hs {
			doc.Holidays[y] = append(doc.Holidays[y], HolidayDocument{
				Date:     h.Date.String(),
				Name:     h.Name,
				Category: string(h.Category),
			})
		}
	}
	return doc
}
