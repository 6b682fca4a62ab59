package cache

import (
	"context"
	"sync"
	"time"

	"github.com/bookshop/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// entry is a claimed key. resourceID stays uuid.Nil until the request completes.
type entry struct {
	resourceID uuid.UUID
	expiresAt  time.Time
}

// InMemoryIdempotencyStore implements IdempotencyStore using an in-memory map.
// It only deduplicates requests reaching the same process.
type InMemoryIdempotencyStore struct {
	mu        sync.Mutex
	entries   map[string]entry
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
	now       func() time.Time
}

// NewInMemoryIdempotencyStore creates a new in-memory idempotency store
// and starts a goroutine that drops expired keys.
func NewInMemoryIdempotencyStore() *InMemoryIdempotencyStore {
	store := &InMemoryIdempotencyStore{
		entries:  make(map[string]entry),
		stopChan: make(chan struct{}),
		now:      time.Now,
	}

	store.wg.Add(1)
	go store.cleanupLoop()

	return store
}

// Claim reserves key unless a live entry already holds it
func (s *InMemoryIdempotencyStore) Claim(_ context.Context, key string, ttl time.Duration) (bool, uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, exists := s.entries[key]; exists && s.now().Before(e.expiresAt) {
		return false, e.resourceID, nil
	}

	s.entries[key] = entry{expiresAt: s.now().Add(ttl)}
	return true, uuid.Nil, nil
}

// Complete records the resource produced for key
func (s *InMemoryIdempotencyStore) Complete(_ context.Context, key string, resourceID uuid.UUID, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = entry{resourceID: resourceID, expiresAt: s.now().Add(ttl)}
	return nil
}

// Release forgets key so the request may be retried
func (s *InMemoryIdempotencyStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key)
	return nil
}

// Close stops the cleanup goroutine. Safe to call multiple times.
func (s *InMemoryIdempotencyStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopChan)
		s.wg.Wait()
	})
	return nil
}

func (s *InMemoryIdempotencyStore) cleanupLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.cleanup()
		}
	}
}

func (s *InMemoryIdempotencyStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for key, e := range s.entries {
		if now.After(e.expiresAt) {
			delete(s.entries, key)
		}
	}
}

// Size returns the number of entries in the store
func (s *InMemoryIdempotencyStore) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Ensure InMemoryIdempotencyStore implements IdempotencyStore
var _ shared.IdempotencyStore = (*InMemoryIdempotencyStore)(nil)
