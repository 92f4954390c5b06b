package contexts

import "errors"

// Sentinel errors for context resolution.
var (
	ErrUnknownContext   = errors.New("contexts: unknown context")
	ErrInvalidContextID = errors.New("contexts: context id is invalid")
	ErrNilProvider      = errors.New("contexts: provider is nil")
	ErrDuplicateContext = errors.New("contexts: context already registered")
	ErrInvalidToken     = errors.New("contexts: token is invalid")
)
