package cacheable

import (
	"strconv"
	"time"

	"github.com/jonwraymond/cachemeta/cache"
)

// MaxAge is a time-to-live in whole seconds, or Permanent.
// Zero disables caching.
type MaxAge int

// Permanent means the entry never expires through time alone. It is still
// subject to eviction and tag invalidation.
const Permanent MaxAge = -1

// Seconds returns a MaxAge of n seconds. Negative n yields Permanent.
func Seconds(n int) MaxAge {
	if n < 0 {
		return Permanent
	}
	return MaxAge(n)
}

// FromDuration rounds d down to whole seconds. Negative d yields zero.
func FromDuration(d time.Duration) MaxAge {
	if d <= 0 {
		return 0
	}
	return MaxAge(d / time.Second)
}

// IsPermanent reports whether m is Permanent.
func (m MaxAge) IsPermanent() bool {
	return m < 0
}

// Duration returns m as a duration. ok is false for Permanent.
func (m MaxAge) Duration() (d time.Duration, ok bool) {
	if m.IsPermanent() {
		return 0, false
	}
	return time.Duration(m) * time.Second, true
}

func (m MaxAge) String() string {
	if m.IsPermanent() {
		return "permanent"
	}
	return strconv.Itoa(int(m)) + "s"
}

// Expiry converts m into an absolute expiry relative to now.
func (m MaxAge) Expiry(now time.Time) cache.Expiry {
	if m.IsPermanent() {
		return cache.Permanent
	}
	return cache.ExpireAt(now.Add(time.Duration(m) * time.Second))
}

// MaxAgeFromExpiry converts a stored expiry back into the time left at now,
// floored to whole seconds and never negative.
func MaxAgeFromExpiry(e cache.Expiry, now time.Time) MaxAge {
	remaining, ok := e.Remaining(now)
	if !ok {
		return Permanent
	}
	return FromDuration(remaining)
}

// MergeMaxAges returns the more restrictive of a and b, treating Permanent as
// unbounded.
func MergeMaxAges(a, b MaxAge) MaxAge {
	switch {
	case a.IsPermanent():
		return b
	case b.IsPermanent():
		return a
	case a < b:
		return a
	default:
		return b
	}
}
