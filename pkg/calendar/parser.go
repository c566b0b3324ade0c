package calendar

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/PuerkitoBio/goquery"
)

const (
	// CalendarTableSelector picks the quarterly calendar tables on the page.
	CalendarTableSelector = "table.calendartable"

	captionBegins = "Instruction begins"
	captionEnds   = "Instruction ends"

	// Column 0 is the row caption, columns 1-3 are the seasons.
	seasonColumns = 3
)

// ParseTable reads one calendar table into m. The first row names the
// season columns; the "Instruction begins" and "Instruction ends" rows
// supply the dates. Begin and end are paired by column, so a label that is
// spelled differently between rows cannot orphan an end date.
//
// yearHint is the academic year the page was fetched for.
func ParseTable(table *goquery.Selection, yearHint int, m QuarterMapping, loc *time.Location, log Logger) error {
	log = orNop(log)
	rows := table.Find("tr")
	if rows.Length() == 0 {
		log.Warnf("Calendar table for %d has no rows, skipping", yearHint)
		return nil
	}

	labels := cellTexts(rows.First())
	begins := make(map[int]time.Time)
	ends := make(map[int]time.Time)

	var parseErr error
	rows.EachWithBreak(func(i int, row *goquery.Selection) bool {
		if i == 0 {
			return true
		}
		cells := cellTexts(row)
		if len(cells) == 0 {
			return true
		}

		var target map[int]time.Time
		switch {
		case strings.EqualFold(cells[0], captionBegins):
			target = begins
		case strings.EqualFold(cells[0], captionEnds):
			target = ends
		default:
			return true
		}

		for col := 1; col <= seasonColumns; col++ {
			if col >= len(labels) || labels[col] == "" {
				continue
			}
			if col >= len(cells) {
				log.Warnf("Row %q is missing a cell for %q", cells[0], labels[col])
				continue
			}
			d, err := ProcessDate(cells[col], labels[col], yearHint, loc)
			if err != nil {
				parseErr = err
				return false
			}
			target[col] = d
		}
		return true
	})
	if parseErr != nil {
		return parseErr
	}

	for col := 1; col <= seasonColumns; col++ {
		if col >= len(labels) || labels[col] == "" {
			continue
		}
		label := labels[col]
		begin, hasBegin := begins[col]
		end, hasEnd := ends[col]

		switch {
		case hasBegin && hasEnd:
			if end.Before(begin) {
				return fmt.Errorf("%w: %s ends (%s) before it begins (%s)", ErrParse, label, end.Format("2006-01-02"), begin.Format("2006-01-02"))
			}
			if _, dup := m[label]; dup {
				log.Debugf("Quarter %q appears in more than one table, keeping the later one", label)
			}
			m[label] = DateRange{Begin: begin, End: end}
		case hasBegin:
			log.Warnf("Quarter %q has an instruction begin date but no end date, dropping it", label)
		case hasEnd:
			log.Warnf("Quarter %q has an instruction end date but no begin date, dropping it", label)
		}
	}
	return nil
}

// ProcessDate turns a calendar cell such as "Jan 9" into a local date. The
// year comes from the column label when its trailing token is a four digit
// year ("Winter 2024"); session labels ("Summer Session I") fall in the
// second half of the academic year, yearHint+1.
func ProcessDate(text, label string, yearHint int, loc *time.Location) (time.Time, error) {
	fields := strings.Fields(text)
	if len(fields) < 2 {
		return time.Time{}, fmt.Errorf("%w: date cell %q for %q is not \"Month Day\"", ErrParse, text, label)
	}

	month, ok := parseMonth(fields[0])
	if !ok {
		return time.Time{}, fmt.Errorf("%w: unknown month %q in %q", ErrParse, fields[0], text)
	}

	digits := strings.TrimRightFunc(fields[1], func(r rune) bool { return !unicode.IsDigit(r) })
	day, err := strconv.Atoi(digits)
	if err != nil || day < 1 || day > 31 {
		return time.Time{}, fmt.Errorf("%w: bad day %q in %q", ErrParse, fields[1], text)
	}

	year := LabelYear(label, yearHint)
	raw := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if raw.Month() != month {
		return time.Time{}, fmt.Errorf("%w: %q is not a valid date in %d", ErrParse, text, year)
	}
	return Correct(raw, loc), nil
}

// LabelYear resolves the civil year for a column label.
func LabelYear(label string, yearHint int) int {
	fields := strings.Fields(label)
	if len(fields) > 0 {
		last := fields[len(fields)-1]
		if len(last) == 4 {
			if y, err := strconv.Atoi(last); err == nil {
				return y
			}
		}
	}
	return yearHint + 1
}

func parseMonth(s string) (time.Month, bool) {
	s = strings.TrimRight(s, ".,")
	if len(s) < 3 {
		return 0, false
	}
	prefix := strings.ToLower(s[:3])
	for m := time.January; m <= time.December; m++ {
		if strings.ToLower(m.String()[:3]) == prefix {
			return m, true
		}
	}
	return 0, false
}

// cellTexts returns the whitespace-normalized text of each cell in a row.
func cellTexts(row *goquery.Selection) []string {
	return row.Find("td, th").Map(func(_ int, s *goquery.Selection) string {
		return strings.Join(strings.Fields(s.Text()), " ")
	})
}
