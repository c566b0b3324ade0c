package cmd

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/JackyZzZz/Jacky-PeterPortal/pkg/calendar"
)

func TestCurrentAcademicYear(t *testing.T) {
	loc := calendar.Pacific()
	tests := []struct {
		now  time.Time
		want int
	}{
		{time.Date(2023, time.October, 2, 12, 0, 0, 0, loc), 2023},
		{time.Date(2024, time.January, 10, 12, 0, 0, 0, loc), 2023},
		{time.Date(2024, time.August, 31, 12, 0, 0, 0, loc), 2023},
		{time.Date(2024, time.September, 1, 0, 30, 0, 0, loc), 2024},
		// Still August 31 in Irvine.
		{time.Date(2024, time.September, 1, 3, 0, 0, 0, time.UTC), 2023},
	}
	for _, tt := range tests {
		if got := currentAcademicYear(tt.now); got != tt.want {
			t.Fatalf("currentAcademicYear(%s) = %d, want %d", tt.now, got, tt.want)
		}
	}
}

func TestParseDateFlag(t *testing.T) {
	now := time.Date(2023, time.October, 2, 9, 0, 0, 0, time.UTC)
	got, err := parseDateFlag("", now)
	if err != nil || !got.Equal(now) {
		t.Fatalf("empty flag: got %s, %v", got, err)
	}

	got, err = parseDateFlag("2023-12-11", now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2023, time.December, 11, 12, 0, 0, 0, calendar.Pacific())
	if !got.Equal(want) {
		t.Fatalf("got %s, want %s", got, want)
	}

	if _, err := parseDateFlag("12/11/2023", now); err == nil {
		t.Fatalf("expected an error for a malformed date")
	}
}

func TestCachedLabels(t *testing.T) {
	tests := []struct {
		value string
		want  string
	}{
		{`{"Fall 2023":{"begin":"2023-09-28T00:00:00-07:00"},"Winter 2024":{}}`, "Fall 2023, Winter 2024"},
		{`{}`, "(empty)"},
		{`{"Fall 2023":`, "(corrupt)"},
		{`[1,2]`, "(corrupt)"},
	}
	for _, tt := range tests {
		if got := cachedLabels([]byte(tt.value)); got != tt.want {
			t.Fatalf("cachedLabels(%s) = %q, want %q", tt.value, got, tt.want)
		}
	}
}

type yearRecorder struct{ years []int }

func (y *yearRecorder) GetOrBuild(ctx context.Context, year int) (calendar.QuarterMapping, error) {
	y.years = append(y.years, year)
	return nil, calendar.ErrNotPublished
}

func TestWarmAroundMatchesResolverYears(t *testing.T) {
	tests := []struct {
		now  time.Time
		want []int
	}{
		{time.Date(2024, time.January, 10, 12, 0, 0, 0, calendar.Pacific()), []int{2024, 2023}},
		{time.Date(2023, time.October, 2, 12, 0, 0, 0, calendar.Pacific()), []int{2023, 2022}},
		// Still Dec 31 2023 in Irvine.
		{time.Date(2024, time.January, 1, 3, 0, 0, 0, time.UTC), []int{2023, 2022}},
	}
	for _, tt := range tests {
		resolved := &yearRecorder{}
		if _, err := calendar.NewResolver(resolved, nil).Resolve(context.Background(), tt.now); err != nil {
			t.Fatalf("resolve %s: %v", tt.now, err)
		}
		warmed := &yearRecorder{}
		warmAround(context.Background(), warmed, tt.now)

		if diff := cmp.Diff(tt.want, warmed.years); diff != "" {
			t.Fatalf("warmed years on %s (-want +got):\n%s", tt.now, diff)
		}
		if diff := cmp.Diff(resolved.years, warmed.years); diff != "" {
			t.Fatalf("warmer and resolver disagree on %s (-resolver +warmer):\n%s", tt.now, diff)
		}
	}
}
