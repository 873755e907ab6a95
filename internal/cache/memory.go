package cache

import (
	"container/list"
	"context"
	"sync"
	"time"
)

// MemoryStore is a thread-safe in-process LRU store with per-entry TTL.
// It serves deployments without Redis and doubles as the cache backend in
// tests. Contents do not survive a restart, which matches the startup
// flush the pipeline performs anyway.
type MemoryStore struct {
	capacity int
	mu       sync.Mutex
	entries  map[string]*list.Element
	lruList  *list.List
}

type memoryEntry struct {
	key        string
	value      []byte
	expiration time.Time
}

// NewMemoryStore creates a store bounded to capacity entries; the least
// recently used entry is evicted when full.
func NewMemoryStore(capacity int) *MemoryStore {
	if capacity <= 0 {
		capacity = 256
	}
	return &MemoryStore{
		capacity: capacity,
		entries:  make(map[string]*list.Element),
		lruList:  list.New(),
	}
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	element, found := s.entries[key]
	if !found {
		return nil, ErrMiss
	}

	entry := element.Value.(*memoryEntry)
	if time.Now().After(entry.expiration) {
		s.removeElement(element)
		return nil, ErrMiss
	}

	s.lruList.MoveToBack(element)
	return entry.value, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	expiration := time.Now().Add(ttl)

	if element, found := s.entries[key]; found {
		s.lruList.MoveToBack(element)
		entry := element.Value.(*memoryEntry)
		entry.value = value
		entry.expiration = expiration
		return nil
	}

	if s.lruList.Len() >= s.capacity {
		if oldest := s.lruList.Front(); oldest != nil {
			s.removeElement(oldest)
		}
	}

	element := s.lruList.PushBack(&memoryEntry{
		key:        key,
		value:      value,
		expiration: expiration,
	})
	s.entries[key] = element
	return nil
}

func (s *MemoryStore) FlushAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[string]*list.Element)
	s.lruList.Init()
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}

// Len returns the number of live entries, expired ones included until
// the next cleanup pass.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lruList.Len()
}

// removeElement must be called with the lock held.
func (s *MemoryStore) removeElement(element *list.Element) {
	s.lruList.Remove(element)
	entry := element.Value.(*memoryEntry)
	delete(s.entries, entry.key)
}

// CleanupExpired removes all expired entries and returns how many were
// dropped.
func (s *MemoryStore) CleanupExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	removed := 0

	var next *list.Element
	for element := s.lruList.Front(); element != nil; element = next {
		next = element.Next()
		entry := element.Value.(*memoryEntry)
		if now.After(entry.expiration) {
			s.removeElement(element)
			removed++
		}
	}

	return removed
}

// StartCleanupRoutine evicts expired entries on the given interval until
// the returned ticker is stopped.
func (s *MemoryStore) StartCleanupRoutine(interval time.Duration) *time.Ticker {
	ticker := time.NewTicker(interval)
	go func() {
		for range ticker.C {
			s.CleanupExpired()
		}
	}()
	return ticker
}
