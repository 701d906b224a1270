package timeutil

import (
	"testing"
	"time"
)

func TestParseDay(t *testing.T) {
	t.Parallel()

	day, err := ParseDay(" 2026-02-27 ")
	if err != nil {
		t.Fatalf("parse day: %v", err)
	}
	if FormatDay(day) != "2026-02-27" || day.Location() != time.Local {
		t.Fatalf("unexpected day: %v", day)
	}
	if _, err := ParseDay("27.02.2026"); err == nil {
		t.Fatalf("expected error for non ISO day")
	}
}

func TestWindow(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 15, 16, 45, 0, 0, time.Local)
	day := func(d int) *time.Time {
		value := time.Date(2026, 3, d, 13, 5, 0, 0, time.Local)
		return &value
	}

	cases := []struct {
		name     string
		from, to *time.Time
		wantFrom string
		wantTo   string
	}{
		{name: "defaults to last thirty days", wantFrom: "2026-02-13", wantTo: "2026-03-15"},
		{name: "explicit bounds", from: day(1), to: day(10), wantFrom: "2026-03-01", wantTo: "2026-03-10"},
		{name: "only from", from: day(2), wantFrom: "2026-03-02", wantTo: "2026-03-15"},
		{name: "only to", to: day(5), wantFrom: "2026-02-13", wantTo: "2026-03-05"},
		{name: "single day", from: day(7), to: day(7), wantFrom: "2026-03-07", wantTo: "2026-03-07"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			from, to, err := Window(tc.from, tc.to, now)
			if err != nil {
				t.Fatalf("window: %v", err)
			}
			if FormatDay(from) != tc.wantFrom || FormatDay(to) != tc.wantTo {
				t.Fatalf("expected %s..%s, got %s..%s", tc.wantFrom, tc.wantTo, FormatDay(from), FormatDay(to))
			}
			if from.Hour() != 0 || to.Hour() != 0 || to.Minute() != 0 {
				t.Fatalf("expected bounds at midnight, got %v and %v", from, to)
			}
		})
	}
}

func TestWindow_RejectsInvertedRange(t *testing.T) {
	t.Parallel()

	from := time.Date(2026, 3, 10, 0, 0, 0, 0, time.Local)
	to := time.Date(2026, 3, 1, 0, 0, 0, 0, time.Local)
	if _, _, err := Window(&from, &to, time.Now()); err == nil {
		t.Fatalf("expected error for from > to")
	}
}
