package calendar

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/JackyZzZz/Jacky-PeterPortal/pkg/whttp"
)

const page2023 = `<html><head><title>2023-24 Quarterly Calendar</title></head><body>
<table class="calendartable">
  <tr><td></td><td> Fall 2023 </td><td>Winter 2024</td><td>Spring 2024</td></tr>
  <tr><td>Quarter begins</td><td>Sep 25</td><td>Jan 2</td><td>Mar 27</td></tr>
  <tr><td>Instruction begins</td><td>Sep 28</td><td>Jan 8</td><td>Apr 1</td></tr>
  <tr><td>Instruction ends</td><td>Dec 8</td><td>Mar 15</td><td>Jun 7</td></tr>
  <tr><td>Final examinations</td><td>Dec 9-15</td><td>Mar 16-22</td><td>Jun 8-14</td></tr>
</table>
<table class="calendartable">
  <tr><td></td><td>Summer Session I</td><td>Summer Session 10WK</td><td>Summer Session II</td></tr>
  <tr><td>Instruction begins</td><td>Jun 24</td><td>Jun 24</td><td>Aug 5</td></tr>
  <tr><td>Instruction ends</td><td>Jul 30</td><td>Aug 30</td><td>Sep 7</td></tr>
</table>
<table class="othertable"><tr><td>Instruction begins</td><td>Jan 1</td></tr></table>
</body></html>`

const page2022 = `<html><head><title>2022-23 Quarterly Calendar</title></head><body>
<table class="calendartable">
  <tbody>
  <tr><td></td><td>Fall 2022</td><td>Winter 2023</td><td>Spring 2023</td></tr>
  <tr><td>Instruction begins</td><td>Sep 22</td><td>Jan 9</td><td>Apr 3</td></tr>
  <tr><td>Instruction ends</td><td>Dec 2</td><td>Mar 17</td><td>Jun 9</td></tr>
  </tbody>
</table>
</body></html>`

// fakeFetcher serves canned pages by URL and 404s everything else.
type fakeFetcher struct {
	mu    sync.Mutex
	pages map[string]string
	codes map[string]int
	err   error
	calls map[string]int
	last  *whttp.WHTTPReq
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		pages: map[string]string{
			CalendarURL(DefaultBaseURL, 2023): page2023,
			CalendarURL(DefaultBaseURL, 2022): page2022,
		},
		codes: map[string]int{},
		calls: map[string]int{},
	}
}

func (f *fakeFetcher) SendHTTPRequest(ctx context.Context, req *whttp.WHTTPReq) (*whttp.WHTTPRes, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	url := req.URL
	f.calls[url]++
	f.last = req
	if f.err != nil {
		return nil, f.err
	}
	if code, ok := f.codes[url]; ok {
		return &whttp.WHTTPRes{StatusCode: code, BodyString: "error"}, nil
	}
	body, ok := f.pages[url]
	if !ok {
		return &whttp.WHTTPRes{StatusCode: http.StatusNotFound, BodyString: "not found"}, nil
	}
	return &whttp.WHTTPRes{StatusCode: http.StatusOK, BodyString: body, ResponseLength: len(body)}, nil
}

func (f *fakeFetcher) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

// memStore is an in-memory Store with switchable failures.
type memStore struct {
	mu     sync.Mutex
	data   map[string][]byte
	getErr error
	setErr error
	sets   int
}

func newMemStore() *memStore {
	return &memStore{data: map[string][]byte{}}
}

func (s *memStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, false, s.getErr
	}
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *memStore) Set(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sets++
	if s.setErr != nil {
		return s.setErr
	}
	s.data[key] = append([]byte(nil), value...)
	return nil
}

// recordingLogger keeps warnings for assertions.
type recordingLogger struct {
	mu    sync.Mutex
	warns []string
}

func (l *recordingLogger) Infof(string, ...interface{})  {}
func (l *recordingLogger) Errorf(string, ...interface{}) {}
func (l *recordingLogger) Debugf(string, ...interface{}) {}
func (l *recordingLogger) Warnf(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, fmt.Sprintf(format, args...))
}

func (l *recordingLogger) warned(substr string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, w := range l.warns {
		if strings.Contains(w, substr) {
			return true
		}
	}
	return false
}

func pacificDay(t *testing.T, y int, m time.Month, d int) time.Time {
	t.Helper()
	return time.Date(y, m, d, 0, 0, 0, 0, Pacific())
}

// at returns noon on the given Pacific day.
func at(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, Pacific())
}
