package identity

import "strings"

// Roster maps lowercase email addresses to Square team member ids.
type Roster struct {
	byEmail map[string]string
}

func NewRoster() *Roster {
	return &Roster{byEmail: make(map[string]string)}
}

// Add registers a member. Empty emails or ids are ignored; the first id for an email wins.
func (r *Roster) Add(email, memberID string) bool {
	key := NormalizeEmail(email)
	memberID = strings.TrimSpace(memberID)
	if key == "" || memberID == "" {
		return false
	}
	if _, exists := r.byEmail[key]; exists {
		return false
	}
	r.byEmail[key] = memberID
	return true
}

func (r *Roster) Lookup(email string) (string, bool) {
	if r == nil {
		return "", false
	}
	id, ok := r.byEmail[NormalizeEmail(email)]
	return id, ok
}

func (r *Roster) Len() int {
	if r == nil {
		return 0
	}
	return len(r.byEmail)
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
