package timecard

import (
	"errors"
	"testing"
	"time"

	"temposquare/worklog"
)

func seconds(value int) *int {
	return &value
}

func TestBuild_DefaultStartTime(t *testing.T) {
	t.Parallel()

	w := worklog.Worklog{ID: "100", StartDate: "2026-02-27", TimeSpentSeconds: seconds(14400)}
	got, err := Build(w, "tm-1", Options{LocationID: "L1"})
	if err != nil {
		t.Fatalf("build timecard: %v", err)
	}
	if got.StartAt != "2026-02-27T09:00:00" {
		t.Fatalf("unexpected start: %s", got.StartAt)
	}
	if got.EndAt != "2026-02-27T13:00:00" {
		t.Fatalf("unexpected end: %s", got.EndAt)
	}
	if got.LocationID != "L1" || got.TeamMemberID != "tm-1" {
		t.Fatalf("unexpected ids: %+v", got)
	}
	if got.Wage != nil {
		t.Fatalf("expected no wage, got %+v", got.Wage)
	}
}

func TestBuild_ExplicitStartTimeCrossesMidnight(t *testing.T) {
	t.Parallel()

	w := worklog.Worklog{ID: "101", StartDate: "2026-02-27", StartTime: "22:30", TimeSpentSeconds: seconds(7200)}
	got, err := Build(w, "tm-1", Options{})
	if err != nil {
		t.Fatalf("build timecard: %v", err)
	}
	if got.StartAt != "2026-02-27T22:30:00" || got.EndAt != "2026-02-28T00:30:00" {
		t.Fatalf("unexpected interval: %s - %s", got.StartAt, got.EndAt)
	}
}

func TestBuild_LocationAnnotatesWithoutConverting(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("MST", -7*3600)
	w := worklog.Worklog{ID: "102", StartDate: "2026-02-27", StartTime: "08:15:00", TimeSpentSeconds: seconds(1800)}
	got, err := Build(w, "tm-1", Options{Location: loc})
	if err != nil {
		t.Fatalf("build timecard: %v", err)
	}
	if got.StartAt != "2026-02-27T08:15:00-07:00" || got.EndAt != "2026-02-27T08:45:00-07:00" {
		t.Fatalf("unexpected interval: %s - %s", got.StartAt, got.EndAt)
	}
}

func TestBuild_Wage(t *testing.T) {
	t.Parallel()

	w := worklog.Worklog{ID: "103", StartDate: "2026-02-27", TimeSpentSeconds: seconds(0)}
	got, err := Build(w, "tm-1", Options{JobTitle: "Engineer", HourlyRate: 5000})
	if err != nil {
		t.Fatalf("build timecard: %v", err)
	}
	if got.StartAt != got.EndAt {
		t.Fatalf("expected zero-length interval, got %s - %s", got.StartAt, got.EndAt)
	}
	if got.Wage == nil || got.Wage.Title != "Engineer" || got.Wage.HourlyRate == nil {
		t.Fatalf("unexpected wage: %+v", got.Wage)
	}
	if got.Wage.HourlyRate.Amount != 5000 || got.Wage.HourlyRate.Currency != "USD" {
		t.Fatalf("unexpected hourly rate: %+v", got.Wage.HourlyRate)
	}
}

func TestBuild_MalformedWorklogs(t *testing.T) {
	t.Parallel()

	cases := map[string]worklog.Worklog{
		"missing start date": {ID: "1", TimeSpentSeconds: seconds(60)},
		"missing duration":   {ID: "2", StartDate: "2026-02-27"},
		"negative duration":  {ID: "3", StartDate: "2026-02-27", TimeSpentSeconds: seconds(-1)},
		"bad start date":     {ID: "4", StartDate: "27/02/2026", TimeSpentSeconds: seconds(60)},
		"bad start time":     {ID: "5", StartDate: "2026-02-27", StartTime: "9am", TimeSpentSeconds: seconds(60)},
	}
	for name, w := range cases {
		if _, err := Build(w, "tm-1", Options{}); !errors.Is(err, ErrMalformedWorklog) {
			t.Fatalf("%s: expected ErrMalformedWorklog, got %v", name, err)
		}
	}
}

func TestFromInterval_MatchesBuild(t *testing.T) {
	t.Parallel()

	w := worklog.Worklog{ID: "7", StartDate: "2026-02-27", StartTime: "22:30", TimeSpentSeconds: seconds(5400)}
	options := Options{LocationID: "L1", JobTitle: "Engineer"}

	start, end, err := Interval(w, nil)
	if err != nil {
		t.Fatalf("interval: %v", err)
	}
	got := FromInterval(start, end, "tm-1", options)
	want, err := Build(w, "tm-1", options)
	if err != nil {
		t.Fatalf("build timecard: %v", err)
	}
	if got.StartAt != want.StartAt || got.EndAt != want.EndAt || got.EndAt != "2026-02-28T00:00:00" {
		t.Fatalf("expected %s..%s, got %s..%s", want.StartAt, want.EndAt, got.StartAt, got.EndAt)
	}
	if got.Wage == nil || got.Wage.Title != "Engineer" {
		t.Fatalf("expected wage to be carried, got %+v", got.Wage)
	}
}
