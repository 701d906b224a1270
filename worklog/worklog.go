package worklog

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Worklog is one Tempo time entry as returned by the worklogs endpoint.
type Worklog struct {
	ID               ID     `json:"tempoWorklogId"`
	Author           Author `json:"author"`
	StartDate        string `json:"startDate"`
	StartTime        string `json:"startTime,omitempty"`
	TimeSpentSeconds *int   `json:"timeSpentSeconds"`
	Description      string `json:"description,omitempty"`

	// Project is the project key the worklog was fetched under. Empty for unfiltered fetches.
	Project string `json:"-"`
}

type Author struct {
	AccountID   string `json:"accountId"`
	DisplayName string `json:"displayName,omitempty"`
}

// Name returns the display name, falling back to "unknown".
func (a Author) Name() string {
	if name := strings.TrimSpace(a.DisplayName); name != "" {
		return name
	}
	return "unknown"
}

// Hours returns the logged duration in hours, or 0 when the duration is missing.
func (w Worklog) Hours() float64 {
	if w.TimeSpentSeconds == nil {
		return 0
	}
	return float64(*w.TimeSpentSeconds) / 3600
}

// ID is a worklog identifier. Tempo sends numeric ids; older state files may hold strings.
type ID string

func (id ID) String() string {
	return string(id)
}

func (id ID) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(id))
}

func (id *ID) UnmarshalJSON(data []byte) error {
	text := strings.TrimSpace(string(data))
	switch text {
	case "", "null", `""`:
		*id = ""
		return nil
	}

	var number json.Number
	if err := json.Unmarshal(data, &number); err == nil {
		if _, err := strconv.ParseInt(number.String(), 10, 64); err != nil {
			return fmt.Errorf("parse worklog id %q: %w", number.String(), err)
		}
		*id = ID(number.String())
		return nil
	}

	var asString string
	if err := json.Unmarshal(data, &asString); err == nil {
		*id = ID(strings.TrimSpace(asString))
		return nil
	}

	return fmt.Errorf("unsupported worklog id value %q", text)
}
