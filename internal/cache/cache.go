// Package cache stores serialized query results grouped by namespace so that a
// whole namespace can be dropped after a write.
package cache

import (
	"context"
	"strconv"
	"sync"
	"time"
)

// Store is a namespaced byte cache.
//
// Generation changes on every InvalidateNamespace. Readers take the generation
// before loading a value and key the entry with VersionedKey, so a value loaded
// before an invalidation is never served after it.
type Store interface {
	Get(ctx context.Context, namespace, key string) ([]byte, bool, error)
	Set(ctx context.Context, namespace, key string, value []byte, ttl time.Duration) error
	Generation(ctx context.Context, namespace string) (uint64, error)
	InvalidateNamespace(ctx context.Context, namespace string) error
}

// VersionedKey prefixes key with a namespace generation.
func VersionedKey(generation uint64, key string) string {
	return "gen=" + strconv.FormatUint(generation, 10) + ":" + key
}

// NoopStore never stores anything.
type NoopStore struct{}

// NewNoopStore returns a Store that always misses.
func NewNoopStore() *NoopStore {
	return &NoopStore{}
}

func (s *NoopStore) Get(context.Context, string, string) ([]byte, bool, error) {
	return nil, false, nil
}

func (s *NoopStore) Set(context.Context, string, string, []byte, time.Duration) error {
	return nil
}

func (s *NoopStore) Generation(context.Context, string) (uint64, error) {
	return 0, nil
}

func (s *NoopStore) InvalidateNamespace(context.Context, string) error {
	return nil
}

type memoryEntry struct {
	payload   []byte
	expiresAt time.Time
}

// MemoryStore keeps entries in process memory. A ttl of zero or less keeps an
// entry until its namespace is invalidated.
type MemoryStore struct {
	mu    sync.RWMutex
	store map[string]map[string]memoryEntry
	gens  map[string]uint64
	now   func() time.Time
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		store: make(map[string]map[string]memoryEntry),
		gens:  make(map[string]uint64),
		now:   time.Now,
	}
}

func (s *MemoryStore) Get(_ context.Context, namespace, key string) ([]byte, bool, error) {
	s.mu.RLock()
	entry, ok := s.store[namespace][key]
	s.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if !entry.expiresAt.IsZero() && s.now().After(entry.expiresAt) {
		s.mu.Lock()
		if ns, ok := s.store[namespace]; ok {
			delete(ns, key)
			if len(ns) == 0 {
				delete(s.store, namespace)
			}
		}
		s.mu.Unlock()
		return nil, false, nil
	}
	return append([]byte(nil), entry.payload...), true, nil
}

func (s *MemoryStore) Set(_ context.Context, namespace, key string, value []byte, ttl time.Duration) error {
	entry := memoryEntry{payload: append([]byte(nil), value...)}
	if ttl > 0 {
		entry.expiresAt = s.now().Add(ttl)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ns, ok := s.store[namespace]
	if !ok {
		ns = make(map[string]memoryEntry)
		s.store[namespace] = ns
	}
	ns[key] = entry
	return nil
}

func (s *MemoryStore) Generation(_ context.Context, namespace string) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gens[namespace], nil
}

// InvalidateNamespace drops every entry of namespace and starts a new generation.
func (s *MemoryStore) InvalidateNamespace(_ context.Context, namespace string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gens[namespace]++
	delete(s.store, namespace)
	return nil
}
