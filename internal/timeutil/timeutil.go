package timeutil

import (
	"fmt"
	"strings"
	"time"
)

const DayLayout = "2006-01-02"

// DefaultWindowDays is how far back a sync reaches when no --from day is given.
const DefaultWindowDays = 30

func startOfDay(value time.Time) time.Time {
	return time.Date(value.Year(), value.Month(), value.Day(), 0, 0, 0, 0, value.Location())
}

func FormatDay(day time.Time) string {
	return day.Format(DayLayout)
}

// ParseDay parses a YYYY-MM-DD value as a local calendar day.
func ParseDay(value string) (time.Time, error) {
	parsed, err := time.ParseInLocation(DayLayout, strings.TrimSpace(value), time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse day %q (expected YYYY-MM-DD): %w", value, err)
	}
	return parsed, nil
}

// Window resolves an inclusive day range. Missing bounds default to
// [now - DefaultWindowDays, now].
func Window(from, to *time.Time, now time.Time) (time.Time, time.Time, error) {
	today := startOfDay(now)

	end := today
	if to != nil {
		end = startOfDay(*to)
	}
	start := today.AddDate(0, 0, -DefaultWindowDays)
	if from != nil {
		start = startOfDay(*from)
	}
	if start.After(end) {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid range: from %s is after to %s", FormatDay(start), FormatDay(end))
	}
	return start, end, nil
}
