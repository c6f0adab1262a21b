// Package claimstore holds the client-side claim collection of the current
// user for the lifetime of a manage-claims view.
package claimstore

import (
	"sync"

	"github.com/claimsure/claims-client/internal/types"
)

// DueSoon is the cached due-soon count. Known is false until a count has been
// fetched, and again after any mutation that may have changed it.
type DueSoon struct {
	Count int
	Known bool
}

// Store is an ordered collection of claims with unique IDs.
// All methods are safe for concurrent use; readers get copies.
type Store struct {
	mu      sync.RWMutex
	claims  []types.Claim
	index   map[string]int
	dueSoon DueSoon
}

// New returns an empty store.
func New() *Store {
	return &Store{index: map[string]int{}}
}

// Replace swaps the whole collection. Later records repeating an ID are dropped.
// It returns the number of records kept.
func (s *Store) Replace(claims []types.Claim) int {
	kept := make([]types.Claim, 0, len(claims))
	index := make(map[string]int, len(claims))
	for _, c := range claims {
		if _, dup := index[c.ID]; dup {
			continue
		}
		index[c.ID] = len(kept)
		kept = append(kept, c)
	}

	s.mu.Lock()
	s.claims = kept
	s.index = index
	s.mu.Unlock()
	return len(kept)
}

// Snapshot returns a copy of the collection in order.
func (s *Store) Snapshot() []types.Claim {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.Claim, len(s.claims))
	copy(out, s.claims)
	return out
}

// Get returns the claim with id.
func (s *Store) Get(id string) (types.Claim, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[id]
	if !ok {
		return types.Claim{}, false
	}
	return s.claims[i], true
}

// Len returns the number of claims held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.claims)
}

// Append adds c at the end. It reports false, leaving the store unchanged,
// when a claim with the same ID is already present.
func (s *Store) Append(c types.Claim) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.index[c.ID]; dup {
		return false
	}
	s.index[c.ID] = len(s.claims)
	s.claims = append(s.claims, c)
	return true
}

// Remove deletes the claim with id, keeping the order of the rest.
// Unknown IDs are a no-op; the result reports whether anything was removed.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[id]
	if !ok {
		return false
	}
	next := make([]types.Claim, 0, len(s.claims)-1)
	next = append(next, s.claims[:i]...)
	next = append(next, s.claims[i+1:]...)
	s.claims = next
	delete(s.index, id)
	for j := i; j < len(s.claims); j++ {
		s.index[s.claims[j].ID] = j
	}
	return true
}

// Merge overwrites title, type and details of the claim with id. FileURL
// and both dates are untouched. It returns the merged claim.
func (s *Store) Merge(id string, f types.Fields) (types.Claim, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[id]
	if !ok {
		return types.Claim{}, false
	}
	c := s.claims[i]
	c.Title, c.Type, c.Details = f.Title, f.Type, f.Details
	s.claims[i] = c
	return c, true
}

// SetDueSoon records a freshly fetched due-soon count.
func (s *Store) SetDueSoon(n int) {
	s.mu.Lock()
	s.dueSoon = DueSoon{Count: n, Known: true}
	s.mu.Unlock()
}

// InvalidateDueSoon marks the cached count stale.
func (s *Store) InvalidateDueSoon() {
	s.mu.Lock()
	s.dueSoon.Known = false
	s.mu.Unlock()
}

// DueSoon returns the cached count.
func (s *Store) DueSoon() DueSoon {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dueSoon
}
