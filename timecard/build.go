package timecard

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"temposquare/square"
	"temposquare/worklog"
)

const (
	DefaultStartTime = "09:00:00"
	DefaultCurrency  = "USD"

	naiveLayout = "2006-01-02T15:04:05"
	zonedLayout = "2006-01-02T15:04:05-07:00"
)

var ErrMalformedWorklog = errors.New("malformed worklog")

type Options struct {
	LocationID string
	// Location annotates the wall-clock times with its offset. Times are never converted;
	// nil keeps them naive.
	Location   *time.Location
	JobTitle   string
	HourlyRate int64
	Currency   string
}

// Build converts a worklog into a timecard for the given team member.
func Build(w worklog.Worklog, teamMemberID string, options Options) (square.Timecard, error) {
	start, end, err := Interval(w, options.Location)
	if err != nil {
		return square.Timecard{}, err
	}
	return FromInterval(start, end, teamMemberID, options), nil
}

// FromInterval builds the timecard for an interval already returned by Interval.
func FromInterval(start, end time.Time, teamMemberID string, options Options) square.Timecard {
	layout := naiveLayout
	if options.Location != nil {
		layout = zonedLayout
	}

	return square.Timecard{
		LocationID:   options.LocationID,
		TeamMemberID: teamMemberID,
		StartAt:      start.Format(layout),
		EndAt:        end.Format(layout),
		Wage:         wage(options),
	}
}

// Interval returns the worklog's start and end as wall-clock times in loc (UTC when nil).
func Interval(w worklog.Worklog, loc *time.Location) (time.Time, time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}

	startDate := strings.TrimSpace(w.StartDate)
	if startDate == "" {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: worklog %s has no startDate", ErrMalformedWorklog, w.ID)
	}
	if w.TimeSpentSeconds == nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: worklog %s has no timeSpentSeconds", ErrMalformedWorklog, w.ID)
	}
	if *w.TimeSpentSeconds < 0 {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: worklog %s has negative timeSpentSeconds (%d)", ErrMalformedWorklog, w.ID, *w.TimeSpentSeconds)
	}

	startTime := strings.TrimSpace(w.StartTime)
	if startTime == "" {
		startTime = DefaultStartTime
	}
	if len(startTime) == len("15:04") {
		startTime += ":00"
	}

	start, err := time.ParseInLocation(naiveLayout, startDate+"T"+startTime, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: worklog %s has unparseable start %q %q: %v", ErrMalformedWorklog, w.ID, startDate, w.StartTime, err)
	}
	end := start.Add(time.Duration(*w.TimeSpentSeconds) * time.Second)
	return start, end, nil
}

func wage(options Options) *square.Wage {
	title := strings.TrimSpace(options.JobTitle)
	if title == "" && options.HourlyRate <= 0 {
		return nil
	}

	out := &square.Wage{Title: title}
	if options.HourlyRate > 0 {
		currency := strings.ToUpper(strings.TrimSpace(options.Currency))
		if currency == "" {
			currency = DefaultCurrency
		}
		out.HourlyRate = &square.Money{Amount: options.HourlyRate, Currency: currency}
	}
	return out
}
