package cache

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// StoreFactory builds the store for a bin on first use.
type StoreFactory func(bin string) (Store, error)

// Registry maps bin names to stores.
//
// Stores may be registered up front, or built lazily by a StoreFactory and
// memoized per bin.
type Registry struct {
	mu      sync.RWMutex
	stores  map[string]Store
	factory StoreFactory
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithFactory sets the factory used for bins that were not registered.
func WithFactory(f StoreFactory) RegistryOption {
	return func(r *Registry) { r.factory = f }
}

// NewRegistry creates a new bin registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{stores: make(map[string]Store)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register binds a store to a bin name.
func (r *Registry) Register(bin string, store Store) error {
	bin = strings.TrimSpace(bin)
	if bin == "" {
		return ErrInvalidBin
	}
	if store == nil {
		return ErrNilStore
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.stores[bin]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateBin, bin)
	}
	r.stores[bin] = store
	return nil
}

// Get returns the store for bin. The error wraps ErrUnknownBin when no store
// is registered and none could be built.
func (r *Registry) Get(bin string) (Store, error) {
	bin = strings.TrimSpace(bin)
	if bin == "" {
		return nil, ErrInvalidBin
	}

	r.mu.RLock()
	store, ok := r.stores[bin]
	r.mu.RUnlock()
	if ok {
		return store, nil
	}

	if r.factory == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBin, bin)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Another caller may have built it while we waited.
	if store, ok := r.stores[bin]; ok {
		return store, nil
	}
	store, err := r.factory(bin)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrUnknownBin, bin, err)
	}
	if store == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBin, bin)
	}
	r.stores[bin] = store
	return store, nil
}

// Bins returns the names of bins with a resident store.
func (r *Registry) Bins() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.stores))
	for name := range r.stores {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
