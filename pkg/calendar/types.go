package calendar

import (
	"sort"
	"time"
)

const (
	// NotApplicable is the quarter reported when a date falls outside every
	// known term.
	NotApplicable = "N/A"
	// NoWeek marks a descriptor that is not a numbered instructional week
	// (finals week or break).
	NoWeek = -1

	BreakDisplay = "Enjoy your break!😎"
)

// DateRange holds the first and last instructional day of a quarter. Both
// values are local midnights in the institutional timezone.
type DateRange struct {
	Begin time.Time `json:"begin"`
	End   time.Time `json:"end"`
}

// QuarterMapping maps a quarter label such as "Winter 2024" or
// "Summer Session I" to its instructional date range for one academic year.
type QuarterMapping map[string]DateRange

// Labels returns the quarter labels ordered by begin date, then label.
func (m QuarterMapping) Labels() []string {
	labels := make([]string, 0, len(m))
	for l := range m {
		labels = append(labels, l)
	}
	sort.Slice(labels, func(i, j int) bool {
		bi, bj := m[labels[i]].Begin, m[labels[j]].Begin
		if !bi.Equal(bj) {
			return bi.Before(bj)
		}
		return labels[i] < labels[j]
	})
	return labels
}

func (m QuarterMapping) clone() QuarterMapping {
	out := make(QuarterMapping, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// WeekDescriptor is what the resolver reports for a given instant. Week is
// NoWeek for both finals week and breaks; only Display tells them apart.
type WeekDescriptor struct {
	Week    int    `json:"week"`
	Quarter string `json:"quarter"`
	Display string `json:"display"`
}

// Break is the descriptor returned when no academic term covers a date.
func Break() WeekDescriptor {
	return WeekDescriptor{Week: NoWeek, Quarter: NotApplicable, Display: BreakDisplay}
}

// Logger abstracts logging so callers can use logrus, stdlib log, or any
// other logger that satisfies this interface.
type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Debugf(format string, args ...interface{})
}

// nopLogger silently discards all messages.
type nopLogger struct{}

func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}
func (nopLogger) Debugf(string, ...interface{}) {}

func orNop(log Logger) Logger {
	if log == nil {
		return nopLogger{}
	}
	return log
}
