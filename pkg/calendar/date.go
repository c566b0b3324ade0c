package calendar

import (
	"sync"
	"time"
	_ "time/tzdata"
)

// PacificTZ is the institution's timezone. It is fixed, not configurable.
const PacificTZ = "America/Los_Angeles"

var (
	pacificOnce sync.Once
	pacific     *time.Location
)

// Pacific returns the institutional location.
func Pacific() *time.Location {
	pacificOnce.Do(func() {
		loc, err := time.LoadLocation(PacificTZ)
		if err != nil {
			// tzdata is embedded, so this only happens on a broken build.
			panic("calendar: cannot load " + PacificTZ + ": " + err.Error())
		}
		pacific = loc
	})
	return pacific
}

// Correct maps a stored or freshly built date onto the local calendar.
//
// The calendar source stamps local midnights as midnight UTC. A value whose
// UTC hour is exactly 0 is therefore re-stamped: its UTC wall clock is kept
// and the zone replaced by loc. Any other value is a real instant and is
// converted normally. This only holds for this source; it is not a general
// conversion.
func Correct(raw time.Time, loc *time.Location) time.Time {
	u := raw.UTC()
	if u.Hour() == 0 {
		return time.Date(u.Year(), u.Month(), u.Day(), u.Hour(), u.Minute(), u.Second(), u.Nanosecond(), loc)
	}
	return raw.In(loc)
}

// civilDate truncates t to midnight of its calendar day in loc.
func civilDate(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// mondayOnOrBefore returns the Monday of the week containing the civil date d.
func mondayOnOrBefore(d time.Time) time.Time {
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}

// daysBetween counts calendar days from a to b, ignoring DST shifts.
func daysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	ua := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	ub := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua) / (24 * time.Hour))
}
