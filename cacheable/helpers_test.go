package cacheable

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonwraymond/cachemeta/cache"
)

// testEpoch is a whole-second instant used by fixed clocks in tests.
var testEpoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// manualClock is a settable Clock.
type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func newManualClock() *manualClock { return &manualClock{now: testEpoch} }

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// countingResolver resolves "id" to "[id]=v-<id>" and counts calls.
type countingResolver struct {
	calls int
	err   error
}

func (r *countingResolver) Resolve(_ context.Context, ids []string) ([]string, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)
	out := make([]string, 0, len(sorted))
	for _, id := range sorted {
		out = append(out, "["+id+"]=v-"+strings.ReplaceAll(id, ".", "-"))
	}
	return out, nil
}

// countingStore wraps a Store and counts backend round-trips.
type countingStore struct {
	cache.Store
	gets    int
	sets    int
	lastKey string
}

func (s *countingStore) Get(ctx context.Context, key string) (cache.Entry, bool, error) {
	s.gets++
	s.lastKey = key
	return s.Store.Get(ctx, key)
}

func (s *countingStore) Set(ctx context.Context, key string, payload []byte, expiry cache.Expiry, tags []string) error {
	s.sets++
	s.lastKey = key
	return s.Store.Set(ctx, key, payload, expiry, tags)
}

var errBackendDown = errors.New("backend down")

// failingStore fails every call.
type failingStore struct{}

func (failingStore) Get(context.Context, string) (cache.Entry, bool, error) {
	return cache.Entry{}, false, errBackendDown
}

func (failingStore) Set(context.Context, string, []byte, cache.Expiry, []string) error {
	return errBackendDown
}

func (failingStore) Delete(context.Context, string) error { return errBackendDown }

// fixture wires a factory to a counting memory store in the default bin.
type fixture struct {
	clock    *manualClock
	memory   *cache.MemoryStore
	store    *countingStore
	resolver *countingResolver
	registry *cache.Registry
	factory  *Factory
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	clock := newManualClock()
	memory := cache.NewMemoryStore(cache.WithClock(clock))
	store := &countingStore{Store: memory}
	registry := cache.NewRegistry()
	if err := registry.Register(cache.DefaultBin, store); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	resolver := &countingResolver{}
	opts = append([]Option{WithClock(clock)}, opts...)
	return &fixture{
		clock:    clock,
		memory:   memory,
		store:    store,
		resolver: resolver,
		registry: registry,
		factory:  NewFactory(registry, resolver, opts...),
	}
}

func (f *fixture) create(t *testing.T, keys ...string) *Accessor {
	t.Helper()
	acc, err := f.factory.Create(keys...)
	if err != nil {
		t.Fatalf("Create(%v) failed: %v", keys, err)
	}
	return acc
}

func mustGet(t *testing.T, acc *Accessor) ([]byte, bool) {
	t.Helper()
	data, ok, err := acc.GetData(context.Background())
	if err != nil {
		t.Fatalf("GetData failed: %v", err)
	}
	return data, ok
}

func mustSet(t *testing.T, acc *Accessor, payload string) bool {
	t.Helper()
	stored, err := acc.SetData(context.Background(), []byte(payload))
	if err != nil {
		t.Fatalf("SetData failed: %v", err)
	}
	return stored
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func sortedCopy(in []string) []string {
	out := append([]string(nil), in...)
	sort.Strings(out)
	return out
}
