package cacheable

import (
	"context"
	"time"

	"github.com/jonwraymond/cachemeta/cache"
	"github.com/jonwraymond/cachemeta/contexts"
	"github.com/jonwraymond/cachemeta/observe"
)

// Accessor reads and writes one logical cache entry described by its
// Metadata.
//
// Contract:
//   - Concurrency: not safe for concurrent use; obtain one accessor per
//     logical operation.
//   - Identity: the cache identifier is derived lazily and memoized; adding
//     new contexts drops the memo.
//   - Consistency: all keys and contexts must be in place before GetData,
//     and contexts must not change between a missed GetData and the
//     following SetData, or the write lands under a different identifier
//     than the read.
//   - Errors: uncacheable and not-found are results, not errors. Errors are
//     resolver or backend failures; callers treat them as a miss.
type Accessor struct {
	bin     string
	backend string
	store   cache.Store
	md      *Metadata
	deriver deriver
	clock   cache.Clock
	policy  Policy
	mw      *observe.Middleware

	// Single-entry local cache, keyed by the identifier in effect when it
	// was filled.
	localID   string
	localData []byte
	localSet  bool
}

func newAccessor(bin string, store cache.Store, resolver contexts.Resolver, keys []string, f *Factory) *Accessor {
	return &Accessor{
		bin:     bin,
		backend: f.backend,
		store:   store,
		md:      NewMetadata(keys...),
		deriver: deriver{resolver: resolver},
		clock:   f.clock,
		policy:  f.policy,
		mw:      f.mw,
	}
}

// Bin returns the bin the accessor reads and writes.
func (a *Accessor) Bin() string { return a.bin }

// Keys returns the base key parts.
func (a *Accessor) Keys() []string { return a.md.Keys() }

// Contexts returns the context IDs, sorted.
func (a *Accessor) Contexts() []string { return a.md.Contexts() }

// Tags returns the tags that the next SetData will store, sorted.
func (a *Accessor) Tags() []string { return a.md.Tags() }

// MaxAge returns the max-age and whether it has been set.
func (a *Accessor) MaxAge() (MaxAge, bool) { return a.md.MaxAge() }

// CacheContexts implements Dependency.
func (a *Accessor) CacheContexts() []string { return a.md.CacheContexts() }

// CacheTags implements Dependency.
func (a *Accessor) CacheTags() []string { return a.md.CacheTags() }

// CacheMaxAge implements Dependency.
func (a *Accessor) CacheMaxAge() MaxAge { return a.md.CacheMaxAge() }

// AddContexts adds context IDs. The memoized identifier is dropped only if
// the set actually grew.
func (a *Accessor) AddContexts(ids ...string) *Accessor {
	if a.md.AddContexts(ids...) {
		a.deriver.invalidate()
	}
	return a
}

// AddTags adds invalidation tags for the next SetData.
func (a *Accessor) AddTags(tags ...string) *Accessor {
	a.md.AddTags(tags...)
	return a
}

// SetMaxAge sets the max-age. Zero disables caching for this accessor.
func (a *Accessor) SetMaxAge(age MaxAge) *Accessor {
	a.md.SetMaxAge(age)
	return a
}

// MergeMaxAge lowers the max-age to age if it is more restrictive.
func (a *Accessor) MergeMaxAge(age MaxAge) *Accessor {
	a.md.MergeMaxAge(age)
	return a
}

// AddDependency merges the contexts, tags and max-age of d.
func (a *Accessor) AddDependency(d Dependency) *Accessor {
	if a.md.AddDependency(d) {
		a.deriver.invalidate()
	}
	return a
}

// ID returns the derived cache identifier. ok is false when the accessor is
// uncacheable.
func (a *Accessor) ID(ctx context.Context) (id string, ok bool, err error) {
	return a.deriver.derive(ctx, a.md)
}

// GetData returns the cached payload. ok is false when nothing is cached or
// the accessor is uncacheable.
//
// On a backend hit the entry's tags replace the accessor's tags and its
// expiry becomes the accessor's max-age.
func (a *Accessor) GetData(ctx context.Context) (data []byte, ok bool, err error) {
	outcome, err := a.observe(ctx, observe.OpGet, func(ctx context.Context) (string, error) {
		id, cacheable, err := a.deriver.derive(ctx, a.md)
		if err != nil {
			return OutcomeError, err
		}
		if !cacheable {
			return OutcomeUncacheable, nil
		}
		observe.AnnotateKey(ctx, id)

		if a.localSet && a.localID == id {
			data = append([]byte(nil), a.localData...)
			return OutcomeLocalHit, nil
		}

		entry, found, err := a.store.Get(ctx, id)
		if err != nil {
			return OutcomeError, err
		}
		if !found {
			return OutcomeMiss, nil
		}

		a.setLocal(id, entry.Payload)
		a.md.SetTags(entry.Tags)
		a.md.SetMaxAge(MaxAgeFromExpiry(entry.Expiry, a.now()))
		data = entry.Payload
		return OutcomeHit, nil
	})
	if err != nil {
		return nil, false, err
	}
	if outcome != OutcomeHit && outcome != OutcomeLocalHit {
		return nil, false, nil
	}
	return data, true, nil
}

// SetData writes payload under the derived identifier with the accessor's
// current tags, which replace any tags stored before. It returns false,
// writing nothing, when the accessor is uncacheable.
func (a *Accessor) SetData(ctx context.Context, payload []byte) (stored bool, err error) {
	outcome, err := a.observe(ctx, observe.OpSet, func(ctx context.Context) (string, error) {
		id, cacheable, err := a.deriver.derive(ctx, a.md)
		if err != nil {
			return OutcomeError, err
		}
		if !cacheable {
			return OutcomeRejected, nil
		}
		observe.AnnotateKey(ctx, id)

		age, set := a.md.MaxAge()
		age = a.policy.EffectiveMaxAge(age, set)
		if age == 0 {
			return OutcomeRejected, nil
		}

		if err := a.store.Set(ctx, id, payload, age.Expiry(a.now()), a.md.Tags()); err != nil {
			return OutcomeError, err
		}
		a.setLocal(id, payload)
		return OutcomeStored, nil
	})
	if err != nil {
		return false, err
	}
	return outcome == OutcomeStored, nil
}

// setLocal keeps a private copy of data; callers may reuse their buffer.
func (a *Accessor) setLocal(id string, data []byte) {
	a.localID = id
	a.localData = append([]byte(nil), data...)
	a.localSet = true
}

// now returns the clock reading truncated to whole seconds, the resolution
// of max-ages and stored expiries.
func (a *Accessor) now() time.Time {
	return a.clock.Now().Truncate(time.Second)
}

func (a *Accessor) observe(ctx context.Context, op string, fn observe.OperationFunc) (string, error) {
	if a.mw == nil {
		return fn(ctx)
	}
	return a.mw.Observe(ctx, observe.OpMeta{Bin: a.bin, Op: op, Backend: a.backend}, fn)
}

// Ensure Accessor implements Dependency
var _ Dependency = (*Accessor)(nil)
