package credentials

import (
	"context"
	"sync"
)

// MemoryStore keeps the credential in process memory only.
type MemoryStore struct {
	mu   sync.RWMutex
	cred Credential
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Set(_ context.Context, access, refresh string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cred.AccessToken = access
	s.cred.RefreshToken = refresh
	return nil
}

func (s *MemoryStore) SetRole(_ context.Context, role Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cred.Role = role
	return nil
}

func (s *MemoryStore) Establish(_ context.Context, c Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cred = c
	return nil
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cred = Credential{}
	return nil
}

func (s *MemoryStore) Read(_ context.Context) (Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cred, nil
}
