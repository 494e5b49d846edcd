package credential

import (
	"context"
	"sync"
)

// MemoryStore keeps the credential in process memory.
type MemoryStore struct {
	mu   sync.RWMutex
	cred Credential
}

// NewMemoryStore creates a store seeded with initial.
func NewMemoryStore(initial Credential) *MemoryStore {
	return &MemoryStore{cred: initial}
}

func (s *MemoryStore) Get(_ context.Context) (Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return WithDefaults(s.cred), nil
}

func (s *MemoryStore) Set(_ context.Context, p Patch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cred = p.Apply(s.cred)
	return nil
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cred = Cleared(s.cred)
	return nil
}
