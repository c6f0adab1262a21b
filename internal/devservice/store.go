package devservice

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/claimsure/claims-client/internal/types"
)

type blob struct {
	name string
	data []byte
}

// memStore keeps claims per user in submission order.
type memStore struct {
	mu     sync.RWMutex
	claims map[string][]types.Claim
	files  map[string]blob // key: claim ID
}

func newMemStore() *memStore {
	return &memStore{claims: map[string][]types.Claim{}, files: map[string]blob{}}
}

func (s *memStore) add(userID string, c types.Claim, file *blob) types.Claim {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	s.claims[userID] = append(s.claims[userID], c)
	if file != nil {
		s.files[c.ID] = *file
	}
	return c
}

func (s *memStore) list(userID string) []types.Claim {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]types.Claim(nil), s.claims[userID]...)
}

func (s *memStore) update(userID, claimID string, f types.Fields) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, c := range s.claims[userID] {
		if c.ID == claimID {
			c.Title, c.Type, c.Details = f.Title, f.Type, f.Details
			s.claims[userID][i] = c
			return true
		}
	}
	return false
}

// remove is idempotent.
func (s *memStore) remove(userID, claimID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cs := s.claims[userID]
	for i, c := range cs {
		if c.ID == claimID {
			s.claims[userID] = append(cs[:i:i], cs[i+1:]...)
			delete(s.files, claimID)
			return
		}
	}
}

func (s *memStore) file(claimID string) (blob, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.files[claimID]
	return b, ok
}

func (s *memStore) countDue(userID string, now time.Time, window time.Duration) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, c := range s.claims[userID] {
		if c.DueWithin(now, window) {
			n++
		}
	}
	return n
}
