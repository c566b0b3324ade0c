package calendar

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/JackyZzZz/Jacky-PeterPortal/pkg/whttp"
)

// DefaultBaseURL is where the registrar publishes quarterly calendars.
const DefaultBaseURL = "https://reg.uci.edu/calendars/quarterly"

// Fetcher sends a request and returns the page. *whttp.Client satisfies it.
type Fetcher interface {
	SendHTTPRequest(ctx context.Context, req *whttp.WHTTPReq) (*whttp.WHTTPRes, error)
}

// pageHeaders asks for the HTML rendition of the calendar.
var pageHeaders = []whttp.WHTTPHeader{
	{Name: "Accept", Value: "text/html,application/xhtml+xml"},
}

// Builder scrapes the calendar page of one academic year into a
// QuarterMapping.
type Builder struct {
	fetcher Fetcher
	baseURL string
	loc     *time.Location
	log     Logger
}

func NewBuilder(fetcher Fetcher, baseURL string, log Logger) *Builder {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Builder{
		fetcher: fetcher,
		baseURL: strings.TrimRight(baseURL, "/"),
		loc:     Pacific(),
		log:     orNop(log),
	}
}

// CalendarURL returns the page for the academic year starting in fall of
// year, e.g. .../2023-2024/quarterly23-24.html.
func CalendarURL(baseURL string, year int) string {
	return fmt.Sprintf("%s/%d-%d/quarterly%02d-%02d.html", strings.TrimRight(baseURL, "/"), year, year+1, year%100, (year+1)%100)
}

// Build fetches and parses the calendar for an academic year.
func (b *Builder) Build(ctx context.Context, year int) (QuarterMapping, error) {
	url := CalendarURL(b.baseURL, year)
	b.log.Debugf("Fetching academic calendar %s", url)

	res, err := b.fetcher.SendHTTPRequest(ctx, &whttp.WHTTPReq{
		URL:     url,
		Method:  http.MethodGet,
		Headers: pageHeaders,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: GET %s: %v", ErrNetwork, url, err)
	}
	switch {
	case res.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: GET %s returned 404", ErrNotPublished, url)
	case res.StatusCode < 200 || res.StatusCode >= 300:
		return nil, fmt.Errorf("%w: GET %s returned %d", ErrNetwork, url, res.StatusCode)
	}
	b.log.Debugf("Fetched %q (%d chars) for %d", res.HTTPTitle, res.ResponseLength, year)

	m, err := ParseCalendarPage(strings.NewReader(res.BodyString), year, b.loc, b.log)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", url, err)
	}
	b.log.Infof("Built quarter mapping for %d-%d with %d quarters", year, year+1, len(m))
	return m, nil
}

// ParseCalendarPage runs ParseTable over every calendar table in the page
// and merges the fragments. A page with no usable table is an ErrParse.
func ParseCalendarPage(r io.Reader, year int, loc *time.Location, log Logger) (QuarterMapping, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	tables := doc.Find(CalendarTableSelector)
	if tables.Length() == 0 {
		return nil, fmt.Errorf("%w: no %q found", ErrParse, CalendarTableSelector)
	}

	m := make(QuarterMapping)
	var tableErr error
	tables.EachWithBreak(func(_ int, table *goquery.Selection) bool {
		tableErr = ParseTable(table, year, m, loc, log)
		return tableErr == nil
	})
	if tableErr != nil {
		return nil, tableErr
	}
	if len(m) == 0 {
		return nil, fmt.Errorf("%w: no instruction dates in %d calendar tables", ErrParse, tables.Length())
	}
	return m, nil
}
