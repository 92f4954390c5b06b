package health

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/bradfitz/gomemcache/memcache"
	"github.com/redis/go-redis/v9"

	"github.com/jonwraymond/cachemeta/cache"
)

func newRedisStore(t *testing.T) (*cache.RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	return cache.NewRedisStore(client), mr
}

func fill(t *testing.T, s cache.Store, n int) {
	t.Helper()
	for i := range n {
		key := string(rune('a' + i))
		if err := s.Set(context.Background(), key, []byte("v"), cache.Permanent, nil); err != nil {
			t.Fatalf("Set(%q) error = %v", key, err)
		}
	}
}

func TestStoreChecker_Redis(t *testing.T) {
	store, mr := newRedisStore(t)
	checker := StoreChecker("render", store)

	r := checker.Check(context.Background())
	if r.Status != StatusHealthy {
		t.Fatalf("Check() = %+v, want healthy", r)
	}
	if r.Details["bin"] != "render" {
		t.Errorf("Details[bin] = %v, want render", r.Details["bin"])
	}

	mr.Close()
	r = checker.Check(context.Background())
	if r.Status != StatusUnhealthy || r.Error == nil {
		t.Errorf("Check() after close = %+v, want unhealthy with error", r)
	}
}

func TestStoreChecker_MemcachedUnreachable(t *testing.T) {
	store := cache.NewMemcachedStore(memcache.New("127.0.0.1:1"))

	r := StoreChecker("data", store).Check(context.Background())
	if r.Status != StatusUnhealthy {
		t.Errorf("Check() = %+v, want unhealthy", r)
	}
}

func TestStoreChecker_MemoryOccupancy(t *testing.T) {
	tests := []struct {
		name    string
		entries int
		opts    []StoreOption
		want    Status
	}{
		{"empty", 0, nil, StatusHealthy},
		{"headroom", 2, nil, StatusHealthy},
		{"full", 4, nil, StatusDegraded},
		{"custom threshold", 2, []StoreOption{WithDegradedFill(0.5)}, StatusDegraded},
		{"invalid threshold ignored", 2, []StoreOption{WithDegradedFill(1.5)}, StatusHealthy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := cache.NewMemoryStore(cache.WithCapacity(4))
			fill(t, store, tt.entries)

			r := StoreChecker("render", store, tt.opts...).Check(context.Background())
			if r.Status != tt.want {
				t.Errorf("Check() = %v, want %v", r.Status, tt.want)
			}
			if r.Details["capacity"] != 4 {
				t.Errorf("Details[capacity] = %v, want 4", r.Details["capacity"])
			}
			if r.Details["entries"] != tt.entries {
				t.Errorf("Details[entries] = %v, want %d", r.Details["entries"], tt.entries)
			}
		})
	}
}

type opaqueStore struct{ cache.Store }

func TestStoreChecker_NoProbe(t *testing.T) {
	r := StoreChecker("x", opaqueStore{}).Check(context.Background())
	if r.Status != StatusHealthy {
		t.Errorf("Check() = %v, want healthy", r.Status)
	}
}

func TestRegisterBins(t *testing.T) {
	redisStore, mr := newRedisStore(t)
	registry := cache.NewRegistry()
	if err := registry.Register("render", redisStore); err != nil {
		t.Fatal(err)
	}
	if err := registry.Register("data", cache.NewMemoryStore()); err != nil {
		t.Fatal(err)
	}

	agg := NewAggregator()
	if err := RegisterBins(agg, registry); err != nil {
		t.Fatalf("RegisterBins() error = %v", err)
	}

	names := agg.Names()
	if len(names) != 2 || names[0] != "cache.data" || names[1] != "cache.render" {
		t.Fatalf("Names() = %v", names)
	}

	if got := agg.OverallStatus(agg.CheckAll(context.Background())); got != StatusHealthy {
		t.Errorf("OverallStatus() = %v, want healthy", got)
	}

	mr.Close()
	results := agg.CheckAll(context.Background())
	if results["cache.render"].Status != StatusUnhealthy {
		t.Errorf("cache.render = %v, want unhealthy", results["cache.render"].Status)
	}
	if results["cache.data"].Status != StatusHealthy {
		t.Errorf("cache.data = %v, want healthy", results["cache.data"].Status)
	}
}

func TestRegisterBins_SkipsLazyBins(t *testing.T) {
	registry := cache.NewRegistry(cache.WithFactory(func(string) (cache.Store, error) {
		return nil, errors.New("not built")
	}))

	agg := NewAggregator()
	if err := RegisterBins(agg, registry); err != nil {
		t.Fatalf("RegisterBins() error = %v", err)
	}
	if len(agg.Names()) != 0 {
		t.Errorf("Names() = %v, want none", agg.Names())
	}
}
