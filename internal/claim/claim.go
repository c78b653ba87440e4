// Package claim hands out download work so that no content item is processed
// by two workers at once.
//
// A Set wraps the catalog query that finds undownloaded content. Finding a
// candidate and recording it as in flight happen under one mutex, so two
// workers can never receive the same item. Items that failed are moved to a
// skipped set and are not offered again for the life of the process.
package claim

import (
	"context"
	"sort"
	"sync"

	"archivist/internal/catalog"
)

// Finder returns one downloadable item not listed in exclude, or nil.
type Finder interface {
	FindUndownloaded(ctx context.Context, exclude []catalog.ContentRef) (*catalog.Content, error)
}

// Set tracks in-flight and skipped content.
type Set struct {
	finder Finder

	mu       sync.Mutex
	inFlight map[catalog.ContentRef]struct{}
	skipped  map[catalog.ContentRef]struct{}
}

// NewSet returns an empty claim set backed by finder.
func NewSet(finder Finder) *Set {
	return &Set{
		finder:   finder,
		inFlight: make(map[catalog.ContentRef]struct{}),
		skipped:  make(map[catalog.ContentRef]struct{}),
	}
}

// Claim finds the next downloadable item and marks it in flight. It returns
// nil when nothing is available.
func (s *Set) Claim(ctx context.Context) (*catalog.Content, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	exclude := make([]catalog.ContentRef, 0, len(s.inFlight)+len(s.skipped))
	for ref := range s.inFlight {
		exclude = append(exclude, ref)
	}
	for ref := range s.skipped {
		exclude = append(exclude, ref)
	}
	content, err := s.finder.FindUndownloaded(ctx, exclude)
	if err != nil || content == nil {
		return nil, err
	}
	s.inFlight[content.Ref()] = struct{}{}
	return content, nil
}

// Release drops ref from the in-flight set after a successful download.
func (s *Set) Release(ref catalog.ContentRef) {
	s.mu.Lock()
	delete(s.inFlight, ref)
	s.mu.Unlock()
}

// Skip moves ref from in flight to skipped.
func (s *Set) Skip(ref catalog.ContentRef) {
	s.mu.Lock()
	delete(s.inFlight, ref)
	s.skipped[ref] = struct{}{}
	s.mu.Unlock()
}

// Snapshot is a point-in-time copy of the set.
type Snapshot struct {
	InFlight []catalog.ContentRef
	Skipped  []catalog.ContentRef
}

// Snapshot returns sorted copies of both sets.
func (s *Set) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		InFlight: sortedRefs(s.inFlight),
		Skipped:  sortedRefs(s.skipped),
	}
}

func sortedRefs(m map[catalog.ContentRef]struct{}) []catalog.ContentRef {
	refs := make([]catalog.ContentRef, 0, len(m))
	for ref := range m {
		refs = append(refs, ref)
	}
	sort.Slice(refs, func(i, j int) bool {
		if refs[i].Service != refs[j].Service {
			return refs[i].Service < refs[j].Service
		}
		return refs[i].ID < refs[j].ID
	})
	return refs
}
