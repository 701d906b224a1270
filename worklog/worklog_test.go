package worklog

import (
	"encoding/json"
	"testing"
)

func TestWorklog_DecodesNumericAndStringIDs(t *testing.T) {
	t.Parallel()

	payload := []byte(`[
  {"tempoWorklogId": 4711, "author": {"accountId": "acc-1", "displayName": "Ada"}, "startDate": "2026-02-27", "timeSpentSeconds": 3600},
  {"tempoWorklogId": "4712", "author": {"accountId": "acc-2"}, "startDate": "2026-02-27", "startTime": "13:30:00", "timeSpentSeconds": 1800}
]`)

	var worklogs []Worklog
	if err := json.Unmarshal(payload, &worklogs); err != nil {
		t.Fatalf("decode worklogs: %v", err)
	}
	if len(worklogs) != 2 {
		t.Fatalf("expected 2 worklogs, got %d", len(worklogs))
	}
	if worklogs[0].ID != "4711" || worklogs[1].ID != "4712" {
		t.Fatalf("unexpected ids: %q, %q", worklogs[0].ID, worklogs[1].ID)
	}
	if worklogs[0].StartTime != "" {
		t.Fatalf("expected empty start time, got %q", worklogs[0].StartTime)
	}
	if got := worklogs[1].Hours(); got != 0.5 {
		t.Fatalf("expected 0.5 hours, got %v", got)
	}
	if got := worklogs[1].Author.Name(); got != "unknown" {
		t.Fatalf("expected fallback author name, got %q", got)
	}
}

func TestID_RejectsFractionalNumbers(t *testing.T) {
	t.Parallel()

	var id ID
	if err := json.Unmarshal([]byte(`12.5`), &id); err == nil {
		t.Fatalf("expected error for fractional id, got %q", id)
	}
}

func TestID_MarshalsAsString(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal([]ID{"1", "22"})
	if err != nil {
		t.Fatalf("marshal ids: %v", err)
	}
	if string(data) != `["1","22"]` {
		t.Fatalf("unexpected json: %s", data)
	}
}
