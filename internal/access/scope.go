package access

import "sort"

// Scope is the set of entity ids a principal may see. The zero value is an
// empty restricted scope.
type Scope struct {
	all bool
	ids map[string]struct{}
}

// Unrestricted is the admin scope.
func Unrestricted() Scope {
	return Scope{all: true}
}

// Only builds a restricted scope holding ids.
func Only(ids ...string) Scope {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id != "" {
			set[id] = struct{}{}
		}
	}
	return Scope{ids: set}
}

// IsAll reports whether the scope is unrestricted.
func (s Scope) IsAll() bool {
	return s.all
}

// Contains reports whether id is visible.
func (s Scope) Contains(id string) bool {
	if s.all {
		return true
	}
	_, ok := s.ids[id]
	return ok
}

// IDs returns the restricted ids in sorted order, or nil when unrestricted.
func (s Scope) IDs() []string {
	if s.all {
		return nil
	}
	out := make([]string, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Len is the number of restricted ids; -1 when unrestricted.
func (s Scope) Len() int {
	if s.all {
		return -1
	}
	return len(s.ids)
}

// Union merges two scopes.
func (s Scope) Union(other Scope) Scope {
	if s.all || other.all {
		return Unrestricted()
	}
	merged := make(map[string]struct{}, len(s.ids)+len(other.ids))
	for id := range s.ids {
		merged[id] = struct{}{}
	}
	for id := range other.ids {
		merged[id] = struct{}{}
	}
	return Scope{ids: merged}
}
