package calendar

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// MappingSource supplies the mapping of an academic year. *Cache satisfies
// it.
type MappingSource interface {
	GetOrBuild(ctx context.Context, year int) (QuarterMapping, error)
}

// Resolver maps an instant to the academic week it falls in.
type Resolver struct {
	source MappingSource
	loc    *time.Location
	log    Logger
	now    func() time.Time
}

func NewResolver(source MappingSource, log Logger) *Resolver {
	return &Resolver{
		source: source,
		loc:    Pacific(),
		log:    orNop(log),
		now:    time.Now,
	}
}

// WithClock replaces the clock used by ResolveNow.
func (r *Resolver) WithClock(now func() time.Time) *Resolver {
	r.now = now
	return r
}

// ResolveNow resolves the current instant.
func (r *Resolver) ResolveNow(ctx context.Context) (WeekDescriptor, error) {
	return r.Resolve(ctx, r.now())
}

// CandidateYears lists the academic years Resolve consults for now, in
// order: the one starting in now's calendar year, then the one before it.
func CandidateYears(now time.Time) []int {
	year := now.In(Pacific()).Year()
	return []int{year, year - 1}
}

// Resolve checks each of CandidateYears(now). A date neither covers is a
// break, not an error; an academic year whose page is not published yet
// counts as not covering it.
func (r *Resolver) Resolve(ctx context.Context, now time.Time) (WeekDescriptor, error) {
	local := now.In(r.loc)

	for _, y := range CandidateYears(now) {
		m, err := r.source.GetOrBuild(ctx, y)
		if errors.Is(err, ErrNotPublished) {
			r.log.Debugf("No calendar published for %d-%d", y, y+1)
			continue
		}
		if err != nil {
			return WeekDescriptor{}, err
		}
		if wd, ok := r.FindWeek(local, m); ok {
			return wd, nil
		}
	}
	return Break(), nil
}

type weekMatch struct {
	label   string
	begin   time.Time
	week    int
	display string
}

// FindWeek looks date up in one mapping. Weeks start on Monday: a quarter
// whose instruction begins mid-week is aligned back to that week's Monday.
// The week after the last instructional day is finals week.
//
// When several quarters match, an in-session match beats a finals match and
// among equals the quarter that began last wins.
func (r *Resolver) FindWeek(date time.Time, m QuarterMapping) (WeekDescriptor, bool) {
	today := civilDate(date, r.loc)

	var sessions, finals []weekMatch
	for _, label := range m.Labels() {
		dr := m[label]
		begin := mondayOnOrBefore(civilDate(dr.Begin, r.loc))
		end := civilDate(dr.End, r.loc).AddDate(0, 0, 1)

		switch {
		case !today.Before(begin) && today.Before(end):
			week := daysBetween(begin, today) / 7
			if !IsFall(label) {
				week++
			}
			sessions = append(sessions, weekMatch{
				label:   label,
				begin:   begin,
				week:    week,
				display: fmt.Sprintf("Week %d • %s", week, label),
			})
		case !today.Before(end) && today.Before(end.AddDate(0, 0, 7)):
			finals = append(finals, weekMatch{
				label:   label,
				begin:   begin,
				week:    NoWeek,
				display: fmt.Sprintf("Finals Week • %s. Good Luck!🤞", label),
			})
		}
	}

	candidates := sessions
	if len(candidates) == 0 {
		candidates = finals
	}
	if len(candidates) == 0 {
		return WeekDescriptor{}, false
	}

	// Labels() is ordered by begin, so the last candidate began last.
	best := candidates[len(candidates)-1]
	if len(candidates) > 1 {
		names := make([]string, len(candidates))
		for i, c := range candidates {
			names[i] = c.label
		}
		r.log.Warnf("%s matches overlapping quarters %s, using %q", today.Format("2006-01-02"), strings.Join(names, ", "), best.label)
	}
	return WeekDescriptor{Week: best.week, Quarter: best.label, Display: best.display}, true
}

// IsFall reports whether a quarter label names a fall quarter. Fall weeks
// are numbered from 0, every other quarter from 1.
func IsFall(label string) bool {
	return strings.Contains(strings.ToLower(label), "fall")
}
