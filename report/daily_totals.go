package report

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"temposquare/syncer"
)

// DailyTotal aggregates one author's outcomes on one day.
type DailyTotal struct {
	Date         string
	Author       string
	LoggedHours  float64
	SyncedHours  float64
	WorklogCount int
	Errors       int
}

var dailyHeaders = []string{"Date", "Author", "LoggedHours", "SyncedHours", "WorklogCount", "Errors"}

type dailyKey struct {
	date   string
	author string
}

func BuildDailyTotals(outcomes []syncer.Outcome) []DailyTotal {
	if len(outcomes) == 0 {
		return []DailyTotal{}
	}

	byKey := make(map[dailyKey]*DailyTotal)
	for _, outcome := range outcomes {
		key := dailyKey{date: outcome.StartDate, author: outcome.Author}
		total, ok := byKey[key]
		if !ok {
			total = &DailyTotal{Date: outcome.StartDate, Author: outcome.Author}
			byKey[key] = total
		}
		total.WorklogCount++
		total.LoggedHours += outcome.Hours
		switch outcome.Status {
		case syncer.StatusCreated, syncer.StatusWouldCreate:
			total.SyncedHours += outcome.Hours
		case syncer.StatusError:
			total.Errors++
		}
	}

	out := make([]DailyTotal, 0, len(byKey))
	for _, total := range byKey {
		total.LoggedHours = roundHours(total.LoggedHours)
		total.SyncedHours = roundHours(total.SyncedHours)
		out = append(out, *total)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].Author < out[j].Author
	})
	return out
}

func (t DailyTotal) row() []string {
	return []string{
		t.Date,
		t.Author,
		fmt.Sprintf("%.2f", t.LoggedHours),
		fmt.Sprintf("%.2f", t.SyncedHours),
		strconv.Itoa(t.WorklogCount),
		strconv.Itoa(t.Errors),
	}
}

func roundHours(value float64) float64 {
	return math.Round(value*100) / 100
}
