package translation

import (
	"sync"
)

// Set is an ordered, deduplicated collection of resources. Two resources are
// the same when they share project, key and target locale; adding the second
// replaces the first in place.
//
// Set is safe for concurrent use.
type Set struct {
	mu        sync.RWMutex
	resources []Resource
	index     map[identity]int
	lookup    map[lookupKey]int
}

type lookupKey struct {
	source string
	locale string
}

// NewSet returns a set holding rs.
func NewSet(rs ...Resource) *Set {
	s := &Set{
		index:  make(map[identity]int),
		lookup: make(map[lookupKey]int),
	}
	s.Add(rs...)
	return s
}

// Add inserts or replaces resources. It returns how many were new.
func (s *Set) Add(rs ...Resource) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	added := 0
	for _, r := range rs {
		r = r.withID()
		id := r.identity()
		pos, ok := s.index[id]
		if ok {
			old := s.resources[pos]
			if lk := (lookupKey{source: old.Source, locale: old.TargetLocale}); s.lookup[lk] == pos {
				delete(s.lookup, lk)
			}
			r.ID = old.ID
			s.resources[pos] = r
		} else {
			pos = len(s.resources)
			s.resources = append(s.resources, r)
			s.index[id] = pos
			added++
		}
		if r.Translated() {
			s.lookup[lookupKey{source: r.Source, locale: r.TargetLocale}] = pos
		}
	}
	return added
}

// Get returns the resource with the given identity.
func (s *Set) Get(project, key, targetLocale string) (Resource, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pos, ok := s.index[identity{project: project, key: key, locale: targetLocale}]
	if !ok {
		return Resource{}, false
	}
	return s.resources[pos], true
}

// Translate returns the target text for source in locale. It satisfies the
// serializer's translator interface.
func (s *Set) Translate(source, locale string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pos, ok := s.lookup[lookupKey{source: source, locale: locale}]
	if !ok {
		return "", false
	}
	return s.resources[pos].Target, true
}

// Len returns the number of resources.
func (s *Set) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.resources)
}

// Resources returns a copy of the resources in insertion order.
func (s *Set) Resources() []Resource {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Resource(nil), s.resources...)
}

// ForLocale returns the resources whose target locale is locale. An empty
// locale selects untranslated source resources.
func (s *Set) ForLocale(locale string) []Resource {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Resource
	for _, r := range s.resources {
		if r.TargetLocale == locale {
			out = append(out, r)
		}
	}
	return out
}
