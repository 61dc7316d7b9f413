package calendar

import (
	"fmt"
	"sort"
)

// =============================================================================
// HOLIDAY CALENDAR - Statutory holidays grouped by year
// =============================================================================

// Category classifies a holiday for premium-pay purposes.
type Category string

const (
	// Regular holidays pay an extra 100% of the daily rate when worked.
	Regular Category = "regular"
	// Special non-working holidays pay an extra 30% when worked.
	Special Category = "special"
)

// Valid reports whether c is a known category.
func (c Category) Valid() bool { return c == Regular || c == Special }

// Holiday is a single dated holiday.
type Holiday struct {
	Date     Date
	Name     string
	Category Category
}

// HolidayCalendar answers holiday questions for the years it was loaded with.
// It is read-only after construction and safe for concurrent use.
type HolidayCalendar struct {
	byYear map[int][]Holiday
}

// NewHolidayCalendar builds a calendar from a year -> holidays mapping.
// Each holiday must fall in the year it is filed under, carry a valid
// category and appear at most once per date.
func NewHolidayCalendar(byYear map[int][]Holiday) (*HolidayCalendar, error) {
	cal := &HolidayCalendar{byYear: make(map[int][]Holiday, len(byYear))}
	for year, holidays := range byYear {
		seen := make(map[string]string, len(holidays))
		entries := make([]Holiday, 0, len(holidays))
		for _, h := range holidays {
			if h.Date.Year() != year {
				return nil, fmt.Errorf("holiday %q on %s filed under year %d", h.Name, h.Date, year)
			}
			if !h.Category.Valid() {
				return nil, fmt.Errorf("holiday %q on %s: unknown category %q", h.Name, h.Date, h.Category)
			}
			if other, dup := seen[h.Date.String()]; dup {
				return nil, fmt.Errorf("holidays %q and %q share date %s", other, h.Name, h.Date)
			}
			seen[h.Date.String()] = h.Name
			entries = append(entries, h)
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i].Date.Before(entries[j].Date) })
		cal.byYear[year] = entries
	}
	return cal, nil
}

// Supports reports whether holiday data exists for the year.
func (c *HolidayCalendar) Supports(year int) bool {
	_, ok := c.byYear[year]
	return ok
}

// Years returns the supported years in ascending order.
func (c *HolidayCalendar) Years() []int {
	years := make([]int, 0, len(c.byYear))
	for y := range c.byYear {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

// Holidays returns a copy of the holidays for a year, sorted by date.
func (c *HolidayCalendar) Holidays(year int) ([]Holiday, error) {
	entries, ok := c.byYear[year]
	if !ok {
		return nil, &UnsupportedYearError{Year: year}
	}
	out := make([]Holiday, len(entries))
	copy(out, entries)
	return out, nil
}

// Lookup returns the holiday on the given day, if any.
func (c *HolidayCalendar) Lookup(d Date) (Holiday, bool, error) {
	entries, ok := c.byYear[d.Year()]
	if !ok {
		return Holiday{}, false, &UnsupportedYearError{Year: d.Year()}
	}
	i := sort.Search(len(entries), func(i int) bool { return entries[i].Date.AfterOrEqual(d) })
	if i < len(entries) && entries[i].Date.Equal(d) {
		return entries[i], true, nil
	}
	return Holiday{}, false, nil
}

// InRange returns the holidays with start <= date <= end.
// Every year the range touches must be supported.
func (c *HolidayCalendar) InRange(start, end Date) ([]Holiday, error) {
	p := Period{Start: start, End: end}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	for _, y := range p.Years() {
		if !c.Supports(y) {
			return nil, &UnsupportedYearError{Year: y}
		}
	}

	var out []Holiday
	for _, y := range p.Years() {
		for _, h := range c.byYear[y] {
			if p.Contains(h.Date) {
				out = append(out, h)
			}
		}
	}
	return out, nil
}

// HolidaysInRange counts regular and special holidays in [start, end].
func (c *HolidayCalendar) HolidaysInRange(start, end Date) (regular, special int, err error) {
	holidays, err := c.InRange(start, end)
	if err != nil {
		return 0, 0, err
	}
	for _, h := range holidays {
		switch h.Category {
		case Regular:
			regular++
		case Special:
			special++
		}
	}
	return regular, special, nil
}
