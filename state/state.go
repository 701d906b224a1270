package state

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"temposquare/worklog"
)

// State is what survives between sync runs.
type State struct {
	// LastSync is the watermark of the last completed non-dry-run pass.
	LastSync         *time.Time
	SyncedWorklogIDs map[string]struct{}
}

// Store persists State. A missing state is not an error: Load returns New().
type Store interface {
	Load(ctx context.Context) (*State, error)
	Save(ctx context.Context, s *State) error
}

func New() *State {
	return &State{SyncedWorklogIDs: make(map[string]struct{})}
}

func (s *State) IsSynced(id worklog.ID) bool {
	_, ok := s.SyncedWorklogIDs[string(id)]
	return ok
}

func (s *State) MarkSynced(id worklog.ID) {
	if s.SyncedWorklogIDs == nil {
		s.SyncedWorklogIDs = make(map[string]struct{})
	}
	s.SyncedWorklogIDs[string(id)] = struct{}{}
}

// IDs returns the synced ids in sorted order.
func (s *State) IDs() []string {
	ids := make([]string, 0, len(s.SyncedWorklogIDs))
	for id := range s.SyncedWorklogIDs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Clone returns a deep copy.
func (s *State) Clone() *State {
	out := New()
	if s.LastSync != nil {
		last := *s.LastSync
		out.LastSync = &last
	}
	for id := range s.SyncedWorklogIDs {
		out.SyncedWorklogIDs[id] = struct{}{}
	}
	return out
}

type document struct {
	LastSync         *string      `json:"last_sync"`
	SyncedWorklogIDs []worklog.ID `json:"synced_worklog_ids"`
}

// Encode renders the persisted JSON form.
func Encode(s *State) ([]byte, error) {
	doc := document{SyncedWorklogIDs: make([]worklog.ID, 0, len(s.SyncedWorklogIDs))}
	if s.LastSync != nil {
		formatted := FormatWatermark(*s.LastSync)
		doc.LastSync = &formatted
	}
	for _, id := range s.IDs() {
		doc.SyncedWorklogIDs = append(doc.SyncedWorklogIDs, worklog.ID(id))
	}

	content, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode sync state: %w", err)
	}
	return append(content, '\n'), nil
}

// Decode parses the persisted JSON form. Empty input yields an empty state.
func Decode(content []byte) (*State, error) {
	out := New()
	if strings.TrimSpace(string(content)) == "" {
		return out, nil
	}

	var doc document
	if err := json.Unmarshal(content, &doc); err != nil {
		return nil, fmt.Errorf("decode sync state: %w", err)
	}
	if doc.LastSync != nil && strings.TrimSpace(*doc.LastSync) != "" {
		parsed, err := ParseWatermark(*doc.LastSync)
		if err != nil {
			return nil, err
		}
		out.LastSync = &parsed
	}
	for _, id := range doc.SyncedWorklogIDs {
		if id == "" {
			continue
		}
		out.MarkSynced(id)
	}
	return out, nil
}

func FormatWatermark(value time.Time) string {
	return value.UTC().Format(time.RFC3339Nano)
}

// ParseWatermark accepts RFC 3339 timestamps, with or without fractional seconds.
func ParseWatermark(value string) (time.Time, error) {
	parsed, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, fmt.Errorf("parse last_sync %q: %w", value, err)
	}
	return parsed.UTC(), nil
}
