package health

import (
	"context"
	"fmt"

	"github.com/jonwraymond/cachemeta/cache"
)

// DefaultDegradedFill is the fill ratio at which a bounded store reports
// degraded.
const DefaultDegradedFill = 0.95

// Pinger is implemented by stores backed by a remote server.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Bounded is implemented by stores with a fixed entry capacity.
type Bounded interface {
	Len() int
	Cap() int
}

// StoreOption configures a store checker.
type StoreOption func(*storeChecker)

// WithDegradedFill sets the fill ratio, in (0, 1], at which a bounded store
// reports degraded.
func WithDegradedFill(ratio float64) StoreOption {
	return func(c *storeChecker) {
		if ratio > 0 && ratio <= 1 {
			c.degradedFill = ratio
		}
	}
}

type storeChecker struct {
	bin          string
	store        cache.Store
	degradedFill float64
}

// StoreChecker checks one bin's store. Pingers are pinged; bounded stores are
// checked for occupancy; anything else is reported healthy.
func StoreChecker(bin string, store cache.Store, opts ...StoreOption) Checker {
	c := &storeChecker{bin: bin, store: store, degradedFill: DefaultDegradedFill}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *storeChecker) Check(ctx context.Context) Result {
	details := map[string]any{"bin": c.bin, "store": fmt.Sprintf("%T", c.store)}

	if p, ok := c.store.(Pinger); ok {
		if err := p.Ping(ctx); err != nil {
			return Unhealthy("backend unreachable", err).WithDetails(details)
		}
		return Healthy("backend reachable").WithDetails(details)
	}

	if b, ok := c.store.(Bounded); ok && b.Cap() > 0 {
		n, capacity := b.Len(), b.Cap()
		details["entries"] = n
		details["capacity"] = capacity
		if float64(n) >= c.degradedFill*float64(capacity) {
			return Degraded("store near capacity").WithDetails(details)
		}
		return Healthy("store has headroom").WithDetails(details)
	}

	return Healthy("no probe available").WithDetails(details)
}

// RegisterBins registers a StoreChecker named "cache.<bin>" for every bin
// with a resident store. Bins built lazily later are not included.
func RegisterBins(agg *Aggregator, registry *cache.Registry, opts ...StoreOption) error {
	for _, bin := range registry.Bins() {
		store, err := registry.Get(bin)
		if err != nil {
			return err
		}
		agg.Register("cache."+bin, StoreChecker(bin, store, opts...))
	}
	return nil
}
