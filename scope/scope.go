// Package scope models capability labels granted to users and required by
// protected operations. Authorization is a membership check: the required
// scope must be present in the user's granted set.
package scope

import (
	"sort"
	"strings"
)

// Set is an immutable collection of scope labels. The zero value is an empty
// set that grants nothing.
type Set struct {
	scopes map[string]struct{}
}

// NewSet builds a Set from the given labels. Empty labels are ignored and
// duplicates collapse.
func NewSet(scopes ...string) Set {
	m := make(map[string]struct{}, len(scopes))
	for _, s := range scopes {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		m[s] = struct{}{}
	}
	return Set{scopes: m}
}

// Parse splits a space-separated scope list into a Set.
func Parse(raw string) Set {
	return NewSet(strings.Fields(raw)...)
}

// Has reports whether the set contains the given scope.
func (s Set) Has(scope string) bool {
	_, ok := s.scopes[scope]
	return ok
}

// Len returns the number of distinct scopes in the set.
func (s Set) Len() int {
	return len(s.scopes)
}

// List returns the scopes in sorted order.
func (s Set) List() []string {
	out := make([]string, 0, len(s.scopes))
	for k := range s.scopes {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// String renders the set as a space-separated sorted list.
func (s Set) String() string {
	return strings.Join(s.List(), " ")
}
