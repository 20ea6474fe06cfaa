package store

import (
	"context"
	"sync"
	"time"
)

// MemoryCredentialStore is a process-local credential store used for dry
// runs and tests.
type MemoryCredentialStore struct {
	mu    sync.Mutex
	creds map[string]Credential
}

func NewMemoryCredentialStore() *MemoryCredentialStore {
	return &MemoryCredentialStore{creds: make(map[string]Credential)}
}

func (s *MemoryCredentialStore) GetOrCreate(_ context.Context, name string, interval time.Duration) (Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.creds[name]; ok {
		return c, nil
	}
	if interval <= 0 {
		interval = DefaultTokenInterval
	}
	c := Credential{
		ID:           int64(len(s.creds) + 1),
		Name:         name,
		TimeInterval: interval.Milliseconds(),
	}
	s.creds[name] = c
	return c, nil
}

func (s *MemoryCredentialStore) UpdateToken(_ context.Context, name, token string, requestedAt, prevRequestedAt int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.creds[name]
	if !ok || c.TimeLastRequested != prevRequestedAt {
		return ErrStaleCredential
	}
	c.Token = token
	c.TimeLastRequested = requestedAt
	s.creds[name] = c
	return nil
}
