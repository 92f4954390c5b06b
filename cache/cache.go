package cache

import (
	"context"
	"errors"
	"strings"
)

// MaxKeyLength is the maximum allowed length for a cache key.
const MaxKeyLength = 512

// DefaultBin is the bin used when a caller does not name one.
const DefaultBin = "default"

// Sentinel errors for cache operations.
var (
	ErrNilStore     = errors.New("cache: store is nil")
	ErrInvalidKey   = errors.New("cache: key is invalid")
	ErrKeyTooLong   = errors.New("cache: key exceeds max length")
	ErrInvalidBin   = errors.New("cache: bin name is invalid")
	ErrUnknownBin   = errors.New("cache: bin not registered")
	ErrDuplicateBin = errors.New("cache: bin already registered")
	ErrCorruptEntry = errors.New("cache: stored entry is corrupt")
)

// Entry is a record held by a Store.
type Entry struct {
	// Payload is the opaque cached data.
	Payload []byte

	// Expiry is the absolute expiration time, or Permanent.
	Expiry Expiry

	// Tags are the invalidation tags recorded when the entry was written.
	Tags []string
}

// Store is a key-value backend for cache entries.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: methods should honor cancellation/deadlines where applicable.
// - Errors: Get returns (Entry{}, false, nil) on miss or expiry; errors are
// reserved for backend failures.
// - Ownership: Set replaces any stored tags for the key; it never merges.
type Store interface {
	// Get retrieves the entry stored under key.
	Get(ctx context.Context, key string) (Entry, bool, error)

	// Set stores payload under key with the given expiry and tags.
	Set(ctx context.Context, key string, payload []byte, expiry Expiry, tags []string) error

	// Delete removes an entry. Idempotent - no error on miss.
	Delete(ctx context.Context, key string) error
}

// Invalidator is implemented by stores that can purge entries by tag.
type Invalidator interface {
	// InvalidateTags removes every entry written with any of the tags.
	InvalidateTags(ctx context.Context, tags ...string) error
}

// ValidateKey checks if a key is valid for caching.
func ValidateKey(key string) error {
	if key == "" || strings.TrimSpace(key) == "" {
		return ErrInvalidKey
	}
	if len(key) > MaxKeyLength {
		return ErrKeyTooLong
	}
	// Reject keys with newlines or carriage returns
	if strings.ContainsAny(key, "\n\r") {
		return ErrInvalidKey
	}
	return nil
}

// cloneTags copies tags, dropping empties and duplicates.
func cloneTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
