package contexts

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultClaim is the claim used when a claims context has no parameter.
const DefaultClaim = "sub"

// Anonymous is the value of a claims context when no token is attached.
const Anonymous = "none"

type tokenKey struct{}

// WithToken attaches a raw bearer token to ctx for ClaimsProvider.
func WithToken(ctx context.Context, raw string) context.Context {
	return context.WithValue(ctx, tokenKey{}, strings.TrimSpace(raw))
}

// TokenFromContext returns the token attached with WithToken.
func TokenFromContext(ctx context.Context) (string, bool) {
	raw, ok := ctx.Value(tokenKey{}).(string)
	return raw, ok && raw != ""
}

// StaticKey returns a jwt.Keyfunc that verifies HMAC tokens with key.
func StaticKey(key []byte) jwt.Keyfunc {
	return func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return key, nil
	}
}

// ClaimsProvider varies cache keys by a claim of the caller's verified JWT.
//
// The context parameter names the claim ("user:roles"); the default is
// "sub". List claims are sorted and comma-joined so that role order does not
// split the cache.
type ClaimsProvider struct {
	keyfunc jwt.Keyfunc
	opts    []jwt.ParserOption
}

// NewClaimsProvider creates a provider verifying tokens with keyfunc.
func NewClaimsProvider(keyfunc jwt.Keyfunc, opts ...jwt.ParserOption) *ClaimsProvider {
	return &ClaimsProvider{keyfunc: keyfunc, opts: opts}
}

// Key returns the claim value, or Anonymous when no token is attached.
func (p *ClaimsProvider) Key(ctx context.Context, param string) (string, error) {
	raw, ok := TokenFromContext(ctx)
	if !ok {
		return Anonymous, nil
	}

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, p.keyfunc, p.opts...)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return "", ErrInvalidToken
	}

	claim := param
	if claim == "" {
		claim = DefaultClaim
	}
	return claimString(claims[claim]), nil
}

func claimString(v any) string {
	switch val := v.(type) {
	case nil:
		return Anonymous
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case []any:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			parts = append(parts, claimString(item))
		}
		sort.Strings(parts)
		return strings.Join(parts, ",")
	default:
		return fmt.Sprint(val)
	}
}

// Ensure ClaimsProvider implements Provider
var _ Provider = (*ClaimsProvider)(nil)
