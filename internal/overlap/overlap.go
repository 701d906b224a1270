package overlap

import "time"

// Interval is a half-open [Start, End) span tagged with the worklog it came from.
type Interval struct {
	Start time.Time
	End   time.Time
	Ref   string
}

func Overlaps(a, b Interval) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

// Tracker remembers the intervals accepted per team member during one run.
type Tracker struct {
	byMember map[string][]Interval
}

func NewTracker() *Tracker {
	return &Tracker{byMember: make(map[string][]Interval)}
}

// Check returns the first accepted interval of member that overlaps candidate.
func (t *Tracker) Check(member string, candidate Interval) (Interval, bool) {
	for _, existing := range t.byMember[member] {
		if Overlaps(candidate, existing) {
			return existing, true
		}
	}
	return Interval{}, false
}

func (t *Tracker) Add(member string, accepted Interval) {
	t.byMember[member] = append(t.byMember[member], accepted)
}
