/*
Package view holds the dashboard's state and the pure transitions over it.

Every transition returns a new State and leaves its input untouched, so a
snapshot handed to a renderer stays valid while the loop moves on.
*/
package view

import (
	"sort"
	"strings"

	"github.com/shanehull/anndash/internal/types"
)

// State is everything the dashboard displays.
type State struct {
	Announcements []types.Announcement
	Stats         types.Stats
	Criteria      types.Criteria
}

// Facets lists the filter choices present in a collection.
type Facets struct {
	Types     []string
	Locations []string
}

func New() State {
	return State{
		Announcements: []types.Announcement{},
		Criteria:      types.DefaultCriteria(),
	}
}

func (s State) WithAnnouncements(anns []types.Announcement) State {
	if anns == nil {
		anns = []types.Announcement{}
	}
	s.Announcements = anns
	return s
}

func (s State) WithStats(stats types.Stats) State {
	s.Stats = stats
	return s
}

func (s State) WithCriteria(c types.Criteria) State {
	s.Criteria = c
	return s
}

// Filtered applies the current criteria.
func (s State) Filtered() []types.Announcement {
	return Filter(s.Announcements, s.Criteria)
}

func (s State) Facets() Facets {
	return DeriveFacets(s.Announcements)
}

// Find returns the announcement with id.
func (s State) Find(id int64) (types.Announcement, bool) {
	for _, a := range s.Announcements {
		if a.ID == id {
			return a, true
		}
	}
	return types.Announcement{}, false
}

// Snapshot deep-copies the collection so the result can leave the loop goroutine.
func (s State) Snapshot() State {
	anns := make([]types.Announcement, len(s.Announcements))
	copy(anns, s.Announcements)
	s.Announcements = anns
	return s
}

// Toggle flips the checked flag of id on a copy of the collection and returns
// the updated record. ok is false when id is not present.
func Toggle(s State, id int64) (next State, updated types.Announcement, ok bool) {
	idx := -1
	for i, a := range s.Announcements {
		if a.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return s, types.Announcement{}, false
	}

	anns := make([]types.Announcement, len(s.Announcements))
	copy(anns, s.Announcements)
	anns[idx].Checked = !anns[idx].Checked

	s.Announcements = anns
	return s, anns[idx], true
}

// Filter returns the announcements matching c, in their original order. The
// search term is matched case-insensitively against title, description,
// location and products; whitespace in the term is significant.
func Filter(anns []types.Announcement, c types.Criteria) []types.Announcement {
	term := strings.ToLower(c.Search)

	out := make([]types.Announcement, 0, len(anns))
	for _, a := range anns {
		if !matchesFacet(a.Type, c.Type) || !matchesFacet(a.Location, c.Location) {
			continue
		}
		if term != "" && !matchesSearch(a, term) {
			continue
		}
		out = append(out, a)
	}
	return out
}

// matchesFacet compares trimmed values, the same form DeriveFacets offers.
func matchesFacet(value, want string) bool {
	return want == "" || want == types.AllValues || strings.TrimSpace(value) == want
}

func matchesSearch(a types.Announcement, term string) bool {
	for _, field := range []string{a.Title, a.Description, a.Location, a.Products} {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}

// DeriveFacets returns the sorted distinct non-empty types and locations.
func DeriveFacets(anns []types.Announcement) Facets {
	typeSet := make(map[string]struct{})
	locSet := make(map[string]struct{})

	for _, a := range anns {
		if t := strings.TrimSpace(a.Type); t != "" {
			typeSet[t] = struct{}{}
		}
		if l := strings.TrimSpace(a.Location); l != "" {
			locSet[l] = struct{}{}
		}
	}

	return Facets{Types: sortedKeys(typeSet), Locations: sortedKeys(locSet)}
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
