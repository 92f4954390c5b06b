package cacheable

import "errors"

// Sentinel errors for accessor construction and key derivation.
var (
	ErrEmptyKeys   = errors.New("cacheable: key parts are empty")
	ErrNilRegistry = errors.New("cacheable: registry is nil")
	ErrNoResolver  = errors.New("cacheable: contexts set but no resolver configured")
)

// Operation outcomes reported to observe.Middleware.
const (
	OutcomeHit         = "hit"
	OutcomeLocalHit    = "local_hit"
	OutcomeMiss        = "miss"
	OutcomeUncacheable = "uncacheable"
	OutcomeStored      = "stored"
	OutcomeRejected    = "rejected"
	OutcomeError       = "error"
)
