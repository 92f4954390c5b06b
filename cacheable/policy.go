package cacheable

import (
	"errors"
	"time"
)

// ErrInvalidPolicy indicates a negative or sub-second MaxTTL.
var ErrInvalidPolicy = errors.New("cacheable: invalid policy")

// Policy configures how max-ages become expiries at write time.
type Policy struct {
	// DefaultMaxAge applies when the accessor's max-age was never set.
	DefaultMaxAge MaxAge

	// MaxTTL is the maximum allowed lifetime. Longer max-ages, including
	// Permanent, are clamped to it. If zero, no maximum is enforced.
	MaxTTL time.Duration
}

// DefaultPolicy returns the default policy.
// DefaultMaxAge: Permanent, MaxTTL: none
func DefaultPolicy() Policy {
	return Policy{
		DefaultMaxAge: Permanent,
		MaxTTL:        0,
	}
}

// Validate checks the policy.
func (p Policy) Validate() error {
	if p.MaxTTL < 0 || (p.MaxTTL > 0 && p.MaxTTL < time.Second) {
		return ErrInvalidPolicy
	}
	return nil
}

// EffectiveMaxAge returns the max-age to write with, applying the default
// and clamping.
func (p Policy) EffectiveMaxAge(age MaxAge, set bool) MaxAge {
	if !set {
		age = p.DefaultMaxAge
	}

	if p.MaxTTL > 0 {
		limit := FromDuration(p.MaxTTL)
		if limit == 0 {
			// A positive limit never disables caching.
			limit = 1
		}
		if age.IsPermanent() || age > limit {
			age = limit
		}
	}

	return age
}
