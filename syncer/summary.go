package syncer

import (
	"time"

	"temposquare/worklog"
)

type Status string

const (
	StatusCreated     Status = "created"
	StatusWouldCreate Status = "would_create"
	StatusSkipped     Status = "skipped"
	StatusError       Status = "error"
)

// Summary reports what one pass did. In a dry run Created counts would-be creations.
type Summary struct {
	Created       int
	Skipped       int
	Errors        int
	Fetched       int
	Duplicates    int
	AlreadySynced int
	DryRun        bool

	// Interrupted is set when the run context ended before every worklog was visited.
	Interrupted bool

	From       time.Time
	To         time.Time
	StartedAt  time.Time
	FinishedAt time.Time

	Outcomes []Outcome
}

func (s *Summary) Failed() bool {
	return s != nil && (s.Errors > 0 || s.Interrupted)
}

// Outcome is the per-worklog result of a pass. Already-synced and duplicate worklogs
// produce no outcome.
type Outcome struct {
	WorklogID    worklog.ID
	AccountID    string
	Author       string
	StartDate    string
	Project      string
	Hours        float64
	Status       Status
	TeamMemberID string
	TimecardID   string
	Err          error
}

// Message returns the failure message, or "" when the outcome did not fail.
func (o Outcome) Message() string {
	if o.Err == nil {
		return ""
	}
	return o.Err.Error()
}

func newOutcome(w worklog.Worklog) Outcome {
	return Outcome{
		WorklogID: w.ID,
		AccountID: w.Author.AccountID,
		Author:    w.Author.Name(),
		StartDate: w.StartDate,
		Project:   w.Project,
		Hours:     w.Hours(),
	}
}
