package cache

import (
	"context"
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/redis/go-redis/v9"
)

// Backend names accepted by StoreConfig.
const (
	BackendMemory    = "memory"
	BackendRedis     = "redis"
	BackendMemcached = "memcached"
)

// Configuration errors.
var (
	ErrInvalidBackend  = errors.New("cache: invalid backend")
	ErrMissingRedisURL = errors.New("cache: redis url is required")
	ErrMissingServers  = errors.New("cache: memcached servers are required")
	ErrInvalidCapacity = errors.New("cache: memory capacity must not be negative")
)

// StoreConfig selects and configures the backend shared by all bins.
//
// RedisURL and MemcachedServers may reference environment variables as
// ${VAR}; see ExpandEnvStrict.
type StoreConfig struct {
	Backend          string   // memory|redis|memcached
	MemoryCapacity   int      // per bin; 0 uses DefaultMemoryCapacity
	RedisURL         string   // redis://[:password@]host:port/db
	MemcachedServers []string // host:port
}

// Validate validates the configuration.
func (c *StoreConfig) Validate() error {
	switch c.Backend {
	case BackendMemory, "":
		if c.MemoryCapacity < 0 {
			return ErrInvalidCapacity
		}
	case BackendRedis:
		if strings.TrimSpace(c.RedisURL) == "" {
			return ErrMissingRedisURL
		}
	case BackendMemcached:
		if len(c.MemcachedServers) == 0 {
			return ErrMissingServers
		}
	default:
		return fmt.Errorf("%w: %q", ErrInvalidBackend, c.Backend)
	}
	return nil
}

// Backend owns the connection shared by the stores it builds.
type Backend struct {
	name  string
	clock Clock

	capacity  int
	redis     *redis.Client
	memcached *memcache.Client
}

// OpenBackend validates cfg and connects to the configured backend.
func OpenBackend(ctx context.Context, cfg StoreConfig, clock Clock) (*Backend, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if clock == nil {
		clock = SystemClock()
	}

	b := &Backend{name: cfg.Backend, clock: clock, capacity: cfg.MemoryCapacity}
	if b.name == "" {
		b.name = BackendMemory
	}

	switch b.name {
	case BackendRedis:
		url, err := ExpandEnvStrict(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("cache: redis url: %w", err)
		}
		client, err := DialRedis(ctx, url)
		if err != nil {
			return nil, err
		}
		b.redis = client

	case BackendMemcached:
		servers := make([]string, 0, len(cfg.MemcachedServers))
		for _, s := range cfg.MemcachedServers {
			expanded, err := ExpandEnvStrict(s)
			if err != nil {
				return nil, fmt.Errorf("cache: memcached server: %w", err)
			}
			servers = append(servers, expanded)
		}
		b.memcached = memcache.New(servers...)
	}

	return b, nil
}

// Name returns the backend name.
func (b *Backend) Name() string {
	return b.name
}

// Store builds the store for bin. It satisfies StoreFactory.
func (b *Backend) Store(bin string) (Store, error) {
	switch b.name {
	case BackendRedis:
		return NewRedisStore(b.redis, WithRedisPrefix(bin), WithRedisClock(b.clock)), nil
	case BackendMemcached:
		return NewMemcachedStore(b.memcached, WithMemcachedPrefix(bin), WithMemcachedClock(b.clock)), nil
	default:
		return NewMemoryStore(WithCapacity(b.capacity), WithClock(b.clock)), nil
	}
}

// Close releases the backend connection.
func (b *Backend) Close() error {
	if b.redis != nil {
		return b.redis.Close()
	}
	return nil
}

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// ExpandEnvStrict expands environment variables in s.
//
// Semantics:
//   - `$VAR` and `${VAR}` are expanded via os.ExpandEnv.
//   - If `${VAR}` is present but VAR is missing from the environment, it errors.
//   - `$$` emits a literal `$` (escape hatch).
func ExpandEnvStrict(s string) (string, error) {
	const dollarSentinel = "\x00CACHEMETA_DOLLAR\x00"
	s = strings.ReplaceAll(s, "$$", dollarSentinel)

	missing := make(map[string]struct{})
	for _, match := range envVarPattern.FindAllStringSubmatch(s, -1) {
		if _, ok := os.LookupEnv(match[1]); !ok {
			missing[match[1]] = struct{}{}
		}
	}
	if len(missing) > 0 {
		keys := make([]string, 0, len(missing))
		for k := range missing {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return "", fmt.Errorf("missing required environment variables: %s", strings.Join(keys, ", "))
	}

	s = os.ExpandEnv(s)
	return strings.ReplaceAll(s, dollarSentinel, "$"), nil
}
