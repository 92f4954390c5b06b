package cacheable

import (
	"github.com/jonwraymond/cachemeta/cache"
	"github.com/jonwraymond/cachemeta/contexts"
	"github.com/jonwraymond/cachemeta/observe"
)

// Factory creates accessors bound to a bin of a Registry.
//
// A Factory is safe for concurrent use; the accessors it returns are not.
type Factory struct {
	registry *cache.Registry
	resolver contexts.Resolver
	clock    cache.Clock
	policy   Policy
	mw       *observe.Middleware
	backend  string
}

// Option configures a Factory.
type Option func(*Factory)

// WithClock sets the time source for expiry conversion. Pass a
// cache.RequestClock to give every accessor in a request the same time.
func WithClock(c cache.Clock) Option {
	return func(f *Factory) { f.clock = c }
}

// WithPolicy sets the write policy.
func WithPolicy(p Policy) Option {
	return func(f *Factory) { f.policy = p }
}

// WithMiddleware instruments accessor reads and writes.
func WithMiddleware(mw *observe.Middleware) Option {
	return func(f *Factory) { f.mw = mw }
}

// WithLogger logs accessor reads and writes without tracing or metrics.
func WithLogger(l observe.Logger) Option {
	return func(f *Factory) { f.mw = observe.NewLoggingMiddleware(l) }
}

// WithBackendName labels telemetry with the backend kind, e.g. from
// cache.Backend.Name.
func WithBackendName(name string) Option {
	return func(f *Factory) { f.backend = name }
}

// NewFactory creates a factory. resolver may be nil if no accessor will
// ever add contexts.
func NewFactory(registry *cache.Registry, resolver contexts.Resolver, opts ...Option) *Factory {
	f := &Factory{
		registry: registry,
		resolver: resolver,
		clock:    cache.SystemClock(),
		policy:   DefaultPolicy(),
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.clock == nil {
		f.clock = cache.SystemClock()
	}
	return f
}

// CreateInstance returns a fresh accessor for keys in bin. An empty bin
// means cache.DefaultBin.
//
// It fails with ErrEmptyKeys when keys is empty, and with an error wrapping
// cache.ErrUnknownBin when the bin has no store.
func (f *Factory) CreateInstance(keys []string, bin string) (*Accessor, error) {
	if len(keys) == 0 {
		return nil, ErrEmptyKeys
	}
	if f.registry == nil {
		return nil, ErrNilRegistry
	}
	if bin == "" {
		bin = cache.DefaultBin
	}

	store, err := f.registry.Get(bin)
	if err != nil {
		return nil, err
	}
	return newAccessor(bin, store, f.resolver, keys, f), nil
}

// Create returns an accessor for keys in the default bin.
func (f *Factory) Create(keys ...string) (*Accessor, error) {
	return f.CreateInstance(keys, cache.DefaultBin)
}
