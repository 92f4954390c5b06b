package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore is a Store backed by Redis.
//
// Entries live under "cache/<prefix>/<key>" as JSON envelopes. Each tag keeps
// a set of member keys under "cachetag/<prefix>/<tag>" for InvalidateTags.
type RedisStore struct {
	client *redis.Client
	prefix string
	clock  Clock
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithRedisPrefix namespaces every key written by the store, typically with
// the bin name.
func WithRedisPrefix(prefix string) RedisOption {
	return func(s *RedisStore) { s.prefix = prefix }
}

// WithRedisClock sets the clock used to compute TTLs.
func WithRedisClock(c Clock) RedisOption {
	return func(s *RedisStore) { s.clock = c }
}

// NewRedisStore wraps an existing client. The store does not own the client.
func NewRedisStore(client *redis.Client, opts ...RedisOption) *RedisStore {
	s := &RedisStore{
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

// DialRedis parses a redis:// URL and verifies the connection.
func DialRedis(ctx context.Context, redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("cache: invalid redis url: %w", err)
	}
	client := redis.NewClient(opt)
	// check redis connection
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("cache: redis ping failed: %w", err)
	}
	return client, nil
}

func (s *RedisStore) entryKey(key string) string {
	return "cache/" + s.prefix + "/" + key
}

func (s *RedisStore) tagKey(tag string) string {
	return "cachetag/" + s.prefix + "/" + tag
}

// Get retrieves an entry. Returns (Entry{}, false, nil) on miss or expiry.
func (s *RedisStore) Get(ctx context.Context, key string) (Entry, bool, error) {
	if err := ValidateKey(key); err != nil {
		return Entry{}, false, err
	}

	data, err := s.client.Get(ctx, s.entryKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("cache: redis get: %w", err)
	}

	entry, err := decodeEntry(data)
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
func (s *RedisStore) Set(ctx context.Context, key string, payload []byte, expiry Expiry, tags []string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}

	// Zero means no expiration to redis.
	var ttl time.Duration
	if remaining, ok := expiry.Remaining(s.clock.Now()); ok {
		if remaining <= 0 {
			return s.Delete(ctx, key)
		}
		ttl = remaining
	}

	data, err := encodeEntry(payload, expiry, tags)
	if err != nil {
		return err
	}

	ek := s.entryKey(key)
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, ek, data, ttl)
		for _, tag := range cloneTags(tags) {
			pipe.SAdd(ctx, s.tagKey(tag), ek)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("cache: redis set: %w", err)
	}
	return nil
}

// Delete removes an entry. Idempotent - no error on miss.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.entryKey(key)).Err(); err != nil {
		return fmt.Errorf("cache: redis delete: %w", err)
	}
	return nil
}

// InvalidateTags removes every entry carrying any of tags, along with the tag
// sets themselves.
func (s *RedisStore) InvalidateTags(ctx context.Context, tags ...string) error {
	for _, tag := range cloneTags(tags) {
		tk := s.tagKey(tag)
		members, err := s.client.SMembers(ctx, tk).Result()
		if err != nil {
			return fmt.Errorf("cache: redis tag lookup %q: %w", tag, err)
		}
		if err := s.client.Del(ctx, append(members, tk)...).Err(); err != nil {
			return fmt.Errorf("cache: redis invalidate %q: %w", tag, err)
		}
	}
	return nil
}

// Ping checks connectivity with the server.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Ensure RedisStore implements Store and Invalidator
var (
	_ Store       = (*RedisStore)(nil)
	_ Invalidator = (*RedisStore)(nil)
)
