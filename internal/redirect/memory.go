package redirect

import (
	"context"
	"sync"
)

// MemoryStore is an in-process Store used by tests and single-node setups
// without Redis.
type MemoryStore struct {
	mu      sync.Mutex
	targets map[string]string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{targets: make(map[string]string)}
}

// Put records the redirect target for a login attempt.
func (s *MemoryStore) Put(ctx context.Context, loginID, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.targets[loginID] = path
	return nil
}

// Take returns the stored target and deletes it.
func (s *MemoryStore) Take(ctx context.Context, loginID string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	path, ok := s.targets[loginID]
	if ok {
		delete(s.targets, loginID)
	}
	return path, ok, nil
}

// Delete removes the stored target, if any.
func (s *MemoryStore) Delete(ctx context.Context, loginID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.targets, loginID)
	return nil
}

// Len reports how many targets are currently stored.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.targets)
}
