package session

import (
	"context"
	"sync"

	"github.com/claimsure/claims-client/internal/types"
)

// MemoryStore keeps the credential in process memory.
type MemoryStore struct {
	mu   sync.RWMutex
	cred *types.Credential
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (m *MemoryStore) Load(context.Context) (types.Credential, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.cred == nil {
		return types.Credential{}, false, nil
	}
	return *m.cred, true, nil
}

func (m *MemoryStore) Save(_ context.Context, cred types.Credential) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cred = &cred
	return nil
}

func (m *MemoryStore) Delete(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cred = nil
	return nil
}
