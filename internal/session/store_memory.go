package session

import (
	"context"
	"sync"
	"time"
)

type memoryItem struct {
	sess     Session
	deadline time.Time
}

// MemoryStore keeps sessions in process. An entry dies at its ttl or at the
// session's ExpiresAt, whichever comes first.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]memoryItem
	now   func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items: make(map[string]memoryItem),
		now:   time.Now,
	}
}

func (s *MemoryStore) Save(_ context.Context, sess Session, ttl time.Duration) error {
	deadline := sess.ExpiresAt
	if ttl > 0 {
		if byTTL := s.now().Add(ttl); deadline.IsZero() || byTTL.Before(deadline) {
			deadline = byTTL
		}
	}

	s.mu.Lock()
	s.items[sess.ID] = memoryItem{sess: sess, deadline: deadline}
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Load(_ context.Context, id string) (*Session, error) {
	s.mu.RLock()
	item, ok := s.items[id]
	s.mu.RUnlock()
	if !ok || s.expired(item, s.now()) {
		return nil, ErrNotFound
	}
	sess := item.sess
	return &sess, nil
}

// Purge drops expired entries and returns how many went.
func (s *MemoryStore) Purge() int {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, item := range s.items {
		if s.expired(item, now) {
			delete(s.items, id)
			removed++
		}
	}
	return removed
}

func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

func (s *MemoryStore) expired(item memoryItem, now time.Time) bool {
	return !item.deadline.IsZero() && now.After(item.deadline)
}
