package calendar

import (
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/gosimple/slug"
)

const icsProductID = "-//peterportal//academic calendar//EN"

// ICS renders a mapping as an iCalendar feed with one all-day event per
// instruction period and one per finals week. stamp becomes every event's
// DTSTAMP.
func ICS(year int, m QuarterMapping, stamp time.Time) string {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(icsProductID)
	cal.SetXWRCalName(fmt.Sprintf("Academic Calendar %d-%d", year, year+1))
	cal.SetXWRTimezone(PacificTZ)

	loc := Pacific()
	for _, label := range m.Labels() {
		r := m[label]
		begin := civilDate(r.Begin, loc)
		endExclusive := civilDate(r.End, loc).AddDate(0, 0, 1)
		id := slug.Make(label)

		ev := cal.AddEvent(id + "@peterportal")
		ev.SetDtStampTime(stamp)
		ev.SetSummary(label + " instruction")
		ev.SetAllDayStartAt(begin)
		ev.SetAllDayEndAt(endExclusive)

		fin := cal.AddEvent(id + "-finals@peterportal")
		fin.SetDtStampTime(stamp)
		fin.SetSummary(label + " finals week")
		fin.SetAllDayStartAt(endExclusive)
		fin.SetAllDayEndAt(endExclusive.AddDate(0, 0, 7))
	}
	return cal.Serialize()
}
