package cache

import (
	"sync"
	"time"
)

// Expiry is an absolute expiration time. The zero value is Permanent.
type Expiry struct {
	at time.Time
}

// Permanent marks an entry that never expires through time alone.
var Permanent = Expiry{}

// ExpireAt returns an Expiry at t. A zero t yields Permanent.
func ExpireAt(t time.Time) Expiry {
	return Expiry{at: t}
}

// ExpiryFromUnix converts unix seconds back to an Expiry. Negative values
// are Permanent.
func ExpiryFromUnix(sec int64) Expiry {
	if sec < 0 {
		return Permanent
	}
	return Expiry{at: time.Unix(sec, 0)}
}

// IsPermanent reports whether e never expires.
func (e Expiry) IsPermanent() bool {
	return e.at.IsZero()
}

// Time returns the expiration time. It is the zero time for Permanent.
func (e Expiry) Time() time.Time {
	return e.at
}

// Unix returns the expiration as unix seconds, or -1 for Permanent.
func (e Expiry) Unix() int64 {
	if e.IsPermanent() {
		return -1
	}
	return e.at.Unix()
}

// Expired reports whether the entry is no longer valid at now.
// An entry is still valid at exactly its expiration second.
func (e Expiry) Expired(now time.Time) bool {
	return !e.IsPermanent() && now.After(e.at)
}

// Remaining returns the time left before expiry. ok is false for Permanent.
func (e Expiry) Remaining(now time.Time) (d time.Duration, ok bool) {
	if e.IsPermanent() {
		return 0, false
	}
	d = e.at.Sub(now)
	if d < 0 {
		d = 0
	}
	return d, true
}

func (e Expiry) String() string {
	if e.IsPermanent() {
		return "permanent"
	}
	return e.at.UTC().Format(time.RFC3339)
}

// Clock supplies the current time.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

// Now calls f.
func (f ClockFunc) Now() time.Time { return f() }

// SystemClock returns a Clock backed by time.Now.
func SystemClock() Clock {
	return ClockFunc(time.Now)
}

// FixedClock returns a Clock that always reports t.
func FixedClock(t time.Time) Clock {
	return ClockFunc(func() time.Time { return t })
}

// RequestClock freezes base at its first reading, so every caller within one
// logical request observes the same timestamp.
func RequestClock(base Clock) Clock {
	if base == nil {
		base = SystemClock()
	}
	var (
		once sync.Once
		at   time.Time
	)
	return ClockFunc(func() time.Time {
		once.Do(func() { at = base.Now() })
		return at
	})
}
