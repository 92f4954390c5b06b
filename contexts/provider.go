package contexts

import "context"

// Provider computes the key fragment for one named context.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Determinism: the same ctx and param must yield the same value.
// - Errors: returned errors abort the whole resolution.
type Provider interface {
	// Key returns the value for the context. param is the part of the
	// context ID after the first colon, or "".
	Key(ctx context.Context, param string) (string, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, param string) (string, error)

// Key calls f.
func (f ProviderFunc) Key(ctx context.Context, param string) (string, error) {
	return f(ctx, param)
}

// Static returns a provider that always yields value.
func Static(value string) Provider {
	return ProviderFunc(func(context.Context, string) (string, error) {
		return value, nil
	})
}

type valueKey struct{ name string }

// WithValue attaches the value of a named context to ctx. It is read back
// by the provider returned from Value(name).
func WithValue(ctx context.Context, name, value string) context.Context {
	return context.WithValue(ctx, valueKey{name: name}, value)
}

// Value returns a provider reading values attached with WithValue. Missing
// values resolve to fallback.
func Value(name, fallback string) Provider {
	return ProviderFunc(func(ctx context.Context, _ string) (string, error) {
		if v, ok := ctx.Value(valueKey{name: name}).(string); ok {
			return v, nil
		}
		return fallback, nil
	})
}
