package cache

import (
	"context"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultMemoryCapacity bounds a MemoryStore when no capacity is given.
const DefaultMemoryCapacity = 10_000

// MemoryStore is an in-process Store backed by a bounded LRU.
//
// Expired entries are dropped lazily on read. The least recently used entry
// is evicted once capacity is reached.
type MemoryStore struct {
	entries  *lru.Cache[string, Entry]
	capacity int
	clock    Clock

	// writeMu serializes mutations of entries so the tag index and the
	// resident entry for a key change together. Acquired before mu.
	writeMu sync.Mutex

	// mu guards tagIndex. It is never held while calling into entries,
	// because the eviction callback acquires it.
	mu       sync.Mutex
	tagIndex map[string]map[string]struct{}
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*memoryOptions)

type memoryOptions struct {
	capacity int
	clock    Clock
}

// WithCapacity sets the maximum number of resident entries.
func WithCapacity(n int) MemoryOption {
	return func(o *memoryOptions) { o.capacity = n }
}

// WithClock sets the clock used for expiry checks.
func WithClock(c Clock) MemoryOption {
	return func(o *memoryOptions) { o.clock = c }
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	o := memoryOptions{capacity: DefaultMemoryCapacity, clock: SystemClock()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.capacity <= 0 {
		o.capacity = DefaultMemoryCapacity
	}
	if o.clock == nil {
		o.clock = SystemClock()
	}

	s := &MemoryStore{
		capacity: o.capacity,
		clock:    o.clock,
		tagIndex: make(map[string]map[string]struct{}),
	}
	// Only fails for a non-positive size, which is excluded above.
	s.entries, _ = lru.NewWithEvict[string, Entry](o.capacity, s.onEvict)
	return s
}

// Get retrieves an entry. Returns (Entry{}, false, nil) on miss or expiry.
func (s *MemoryStore) Get(_ context.Context, key string) (Entry, bool, error) {
	if err := ValidateKey(key); err != nil {
		return Entry{}, false, err
	}

	entry, ok := s.entries.Get(key)
	if !ok {
		return Entry{}, false, nil
	}

	if entry.Expiry.Expired(s.clock.Now()) {
		s.removeExpired(key)
		return Entry{}, false, nil
	}

	return Entry{
		Payload: append([]byte(nil), entry.Payload...),
		Expiry:  entry.Expiry,
		Tags:    cloneTags(entry.Tags),
	}, true, nil
}

// removeExpired drops key unless a concurrent Set already replaced it with a
// live entry.
func (s *MemoryStore) removeExpired(key string) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if cur, ok := s.entries.Peek(key); ok && cur.Expiry.Expired(s.clock.Now()) {
		s.entries.Remove(key)
	}
}

// Set stores an entry, replacing any previous payload and tags for key.
func (s *MemoryStore) Set(_ context.Context, key string, payload []byte, expiry Expiry, tags []string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}

	entry := Entry{
		Payload: append([]byte(nil), payload...),
		Expiry:  expiry,
		Tags:    cloneTags(tags),
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	// Replacing a key does not fire the eviction callback.
	if old, ok := s.entries.Peek(key); ok {
		s.unindex(key, old.Tags)
	}

	s.mu.Lock()
	for _, tag := range entry.Tags {
		keys, ok := s.tagIndex[tag]
		if !ok {
			keys = make(map[string]struct{})
			s.tagIndex[tag] = keys
		}
		keys[key] = struct{}{}
	}
	s.mu.Unlock()

	s.entries.Add(key, entry)
	return nil
}

// Delete removes an entry. Idempotent - no error on miss.
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.entries.Remove(key)
	return nil
}

// InvalidateTags removes every entry carrying any of tags.
func (s *MemoryStore) InvalidateTags(_ context.Context, tags ...string) error {
	var keys []string
	s.mu.Lock()
	for _, tag := range tags {
		for key := range s.tagIndex[tag] {
			keys = append(keys, key)
		}
	}
	s.mu.Unlock()

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	for _, key := range keys {
		s.entries.Remove(key)
	}
	return nil
}

// Len returns the number of resident entries, including expired ones not yet
// collected.
func (s *MemoryStore) Len() int {
	return s.entries.Len()
}

// Cap returns the maximum number of resident entries.
func (s *MemoryStore) Cap() int {
	return s.capacity
}

func (s *MemoryStore) onEvict(key string, entry Entry) {
	s.unindex(key, entry.Tags)
}

func (s *MemoryStore) unindex(key string, tags []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, tag := range tags {
		keys := s.tagIndex[tag]
		delete(keys, key)
		if len(keys) == 0 {
			delete(s.tagIndex, tag)
		}
	}
}

// Ensure MemoryStore implements Store and Invalidator
var (
	_ Store       = (*MemoryStore)(nil)
	_ Invalidator = (*MemoryStore)(nil)
)
