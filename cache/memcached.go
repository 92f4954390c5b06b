package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
)

const (
	// memcachedMaxKeyLength is the server-side key limit.
	memcachedMaxKeyLength = 250

	// memcachedRelativeLimit is the largest expiration memcached treats as a
	// relative offset; larger values are read as unix timestamps.
	memcachedRelativeLimit = 30 * 24 * time.Hour
)

// MemcachedStore is a Store backed by memcached.
//
// Memcached has no secondary indexes, so tags are recorded in the entry but
// cannot be used for invalidation.
type MemcachedStore struct {
	client *memcache.Client
	prefix string
	clock  Clock
}

// MemcachedOption configures a MemcachedStore.
type MemcachedOption func(*MemcachedStore)

// WithMemcachedPrefix namespaces every key written by the store.
func WithMemcachedPrefix(prefix string) MemcachedOption {
	return func(s *MemcachedStore) { s.prefix = prefix }
}

// WithMemcachedClock sets the clock used to compute expirations.
func WithMemcachedClock(c Clock) MemcachedOption {
	return func(s *MemcachedStore) { s.clock = c }
}

// NewMemcachedStore wraps an existing client.
func NewMemcachedStore(client *memcache.Client, opts ...MemcachedOption) *MemcachedStore {
	s := &MemcachedStore{
		client: client,
		prefix: DefaultBin,
		clock:  SystemClock(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.clock == nil {
		s.clock = SystemClock()
	}
	return s
}

// Get retrieves an entry. Returns (Entry{}, false, nil) on miss or expiry.
func (s *MemcachedStore) Get(_ context.Context, key string) (Entry, bool, error) {
	if err := ValidateKey(key); err != nil {
		return Entry{}, false, err
	}

	item, err := s.client.Get(memcachedKey(s.prefix, key))
	if errors.Is(err, memcache.ErrCacheMiss) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("cache: memcached get: %w", err)
	}

	entry, err := decodeEntry(item.Value)
	if err != nil {
		return Entry{}, false, err
	}
	if entry.Expiry.Expired(s.clock.Now()) {
		return Entry{}, false, nil
	}
	return entry, true, nil
}

// Set stores an entry. Entries already expired at write time are removed
// instead of written.
func (s *MemcachedStore) Set(ctx context.Context, key string, payload []byte, expiry Expiry, tags []string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}

	expiration, live := memcachedExpiration(expiry, s.clock.Now())
	if !live {
		return s.Delete(ctx, key)
	}

	data, err := encodeEntry(payload, expiry, tags)
	if err != nil {
		return err
	}

	err = s.client.Set(&memcache.Item{
		Key:        memcachedKey(s.prefix, key),
		Value:      data,
		Expiration: expiration,
	})
	if err != nil {
		return fmt.Errorf("cache: memcached set: %w", err)
	}
	return nil
}

// Delete removes an entry. Idempotent - no error on miss.
func (s *MemcachedStore) Delete(_ context.Context, key string) error {
	err := s.client.Delete(memcachedKey(s.prefix, key))
	if err != nil && !errors.Is(err, memcache.ErrCacheMiss) {
		return fmt.Errorf("cache: memcached delete: %w", err)
	}
	return nil
}

// Ping checks that every configured server answers.
func (s *MemcachedStore) Ping(_ context.Context) error {
	if err := s.client.Ping(); err != nil {
		return fmt.Errorf("cache: memcached ping: %w", err)
	}
	return nil
}

// memcachedKey maps a cache key to a legal memcached key. Keys that are too
// long or contain whitespace or control characters are replaced by a
// SHA-256 digest.
func memcachedKey(prefix, key string) string {
	full := prefix + "/" + key
	if len(full) <= memcachedMaxKeyLength && !hasIllegalMemcachedByte(full) {
		return full
	}
	hash := sha256.Sum256([]byte(full))
	return "sha256/" + hex.EncodeToString(hash[:])
}

func hasIllegalMemcachedByte(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] <= ' ' || s[i] == 0x7f {
			return true
		}
	}
	return false
}

// memcachedExpiration converts an Expiry to memcached's expiration field.
// live is false when the entry is already expired at now.
func memcachedExpiration(expiry Expiry, now time.Time) (expiration int32, live bool) {
	remaining, ok := expiry.Remaining(now)
	if !ok {
		return 0, true
	}
	if remaining <= 0 {
		return 0, false
	}
	if remaining > memcachedRelativeLimit {
		if at := expiry.Unix(); at <= math.MaxInt32 {
			return int32(at), true
		}
		// The protocol cannot express absolute times past 2038; keep the
		// longest relative lifetime instead.
		return int32(memcachedRelativeLimit / time.Second), true
	}
	// Round up; zero would mean never.
	secs := int32((remaining + time.Second - 1) / time.Second)
	return secs, true
}

// Ensure MemcachedStore implements Store
var _ Store = (*MemcachedStore)(nil)
