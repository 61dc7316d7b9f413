package attendance

import (
	"hash/fnv"
	"math/rand"

	"github.com/warp/payroll-engine/calendar"
)

// Shift is a scheduled workday.
type Shift struct {
	Start Clock
	End   Clock
}

// DefaultShift is 09:00-17:00.
var DefaultShift = Shift{Start: NewClock(9, 0), End: NewClock(17, 0)}

// Seeder produces plausible attendance for demo environments. The output
// depends only on Seed, the employee and the day, so reseeding is stable.
//
// Distribution per weekday: 80% present (in 0-10 min early, out 0-15 min
// late), 10% late (in 10-45 min late, out -5..+15 min), 10% absent. Breaks
// are 45-75 minutes. Weekends get no record.
type Seeder struct {
	Seed  int64
	Shift Shift
}

// Records generates one record per weekday of the period.
func (s Seeder) Records(employeeID string, p calendar.Period) []Record {
	shift := s.Shift
	if shift == (Shift{}) {
		shift = DefaultShift
	}
	var out []Record
	for _, d := range p.Days() {
		if d.IsWeekend() {
			continue
		}
		out = append(out, s.day(employeeID, d, shift))
	}
	return out
}

func (s Seeder) day(employeeID string, d calendar.Date, shift Shift) Record {
	h := fnv.New64a()
	h.Write([]byte(employeeID))
	h.Write([]byte(d.String()))
	rng := rand.New(rand.NewSource(s.Seed ^ int64(h.Sum64())))

	r := Record{EmployeeID: employeeID, Date: d}
	roll := rng.Intn(100)
	switch {
	case roll < 10:
		r.Status = Absent
		return r
	case roll < 20:
		r.Status = Late
		in := shift.Start + Clock(10+rng.Intn(36))
		out := shift.End + Clock(rng.Intn(21)-5)
		r.TimeIn, r.TimeOut = &in, &out
	default:
		r.Status = Present
		in := shift.Start - Clock(rng.Intn(11))
		out := shift.End + Clock(rng.Intn(16))
		r.TimeIn, r.TimeOut = &in, &out
	}
	brk := 45 + rng.Intn(31)
	r.BreakMinutes = &brk
	return r
}
