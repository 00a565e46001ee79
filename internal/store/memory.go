package store

import (
	"errors"
	"sort"
	"sync"
	"time"
)

var (
	// ErrNotFound is returned when no entry exists for an id.
	ErrNotFound = errors.New("view not found")
)

type entry[T any] struct {
	value    T
	created  time.Time
	lastSeen time.Time
}

// MemoryStore is a concurrency-safe in-memory store of live views keyed by id.
type MemoryStore[T any] struct {
	mu sync.RWMutex

	data map[string]*entry[T]

	// retention configuration
	maxEntries int           // max number of entries; the least recently seen is evicted
	maxAge     time.Duration // entries not seen for this long are pruned

	now func() time.Time
}

// NewMemoryStore creates a new MemoryStore with optional limits.
// If maxEntries or maxAge is <= 0, it is treated as unlimited.
func NewMemoryStore[T any](maxEntries int, maxAge time.Duration) *MemoryStore[T] {
	return &MemoryStore[T]{
		data:       make(map[string]*entry[T]),
		maxEntries: maxEntries,
		maxAge:     maxAge,
		now:        time.Now,
	}
}

// Save stores v under id and enforces the entry limit. Entries evicted to
// make room are returned so the caller can release them.
func (s *MemoryStore[T]) Save(id string, v T) []T {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.data[id]; ok {
		e.value = v
		e.lastSeen = now
		return nil
	}
	s.data[id] = &entry[T]{value: v, created: now, lastSeen: now}

	if s.maxEntries <= 0 || len(s.data) <= s.maxEntries {
		return nil
	}

	// Enforce retention by count, least recently seen first.
	ids := make([]string, 0, len(s.data))
	for k := range s.data {
		if k != id {
			ids = append(ids, k)
		}
	}
	sort.Slice(ids, func(i, j int) bool {
		return s.data[ids[i]].lastSeen.Before(s.data[ids[j]].lastSeen)
	})

	var evicted []T
	for _, k := range ids[:len(s.data)-s.maxEntries] {
		evicted = append(evicted, s.data[k].value)
		delete(s.data, k)
	}
	return evicted
}

// Get returns the entry for id and marks it as seen.
func (s *MemoryStore[T]) Get(id string) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.data[id]
	if !ok {
		var zero T
		return zero, ErrNotFound
	}
	e.lastSeen = s.now()
	return e.value, nil
}

// Delete removes and returns the entry for id.
func (s *MemoryStore[T]) Delete(id string) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.data[id]
	if !ok {
		var zero T
		return zero, ErrNotFound
	}
	delete(s.data, id)
	return e.value, nil
}

// Prune removes entries not seen within maxAge and returns them.
func (s *MemoryStore[T]) Prune() []T {
	if s.maxAge <= 0 {
		return nil
	}
	cutoff := s.now().Add(-s.maxAge)

	s.mu.Lock()
	defer s.mu.Unlock()

	var pruned []T
	for id, e := range s.data {
		if e.lastSeen.Before(cutoff) {
			pruned = append(pruned, e.value)
			delete(s.data, id)
		}
	}
	return pruned
}

// All returns every entry, oldest first. It does not mark entries as seen.
func (s *MemoryStore[T]) All() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]*entry[T], 0, len(s.data))
	for _, e := range s.data {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].created.Before(entries[j].created)
	})

	out := make([]T, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.value)
	}
	return out
}

func (s *MemoryStore[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}
