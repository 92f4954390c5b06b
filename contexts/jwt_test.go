package contexts

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var testSigningKey = []byte("test-signing-key-at-least-32-bytes!")

func signToken(t *testing.T, claims jwt.MapClaims, key []byte) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(key)
	if err != nil {
		t.Fatalf("SignedString failed: %v", err)
	}
	return signed
}

func TestClaimsProvider_Key(t *testing.T) {
	p := NewClaimsProvider(StaticKey(testSigningKey))
	raw := signToken(t, jwt.MapClaims{
		"sub":   "user-7",
		"roles": []string{"editor", "admin"},
		"level": 3,
		"staff": true,
		"exp":   time.Now().Add(time.Hour).Unix(),
	}, testSigningKey)
	ctx := WithToken(context.Background(), "  "+raw+" ")

	tests := []struct {
		param string
		want  string
	}{
		{"", "user-7"},
		{"sub", "user-7"},
		{"roles", "admin,editor"},
		{"level", "3"},
		{"staff", "true"},
		{"missing", Anonymous},
	}

	for _, tt := range tests {
		t.Run("claim "+tt.param, func(t *testing.T) {
			got, err := p.Key(ctx, tt.param)
			if err != nil {
				t.Fatalf("Key() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Key(%q) = %q, want %q", tt.param, got, tt.want)
			}
		})
	}
}

func TestClaimsProvider_NoToken(t *testing.T) {
	p := NewClaimsProvider(StaticKey(testSigningKey))

	for _, ctx := range []context.Context{
		context.Background(),
		WithToken(context.Background(), "   "),
	} {
		got, err := p.Key(ctx, "")
		if err != nil || got != Anonymous {
			t.Errorf("Key() = %q, %v; want %q", got, err, Anonymous)
		}
	}
}

func TestClaimsProvider_InvalidTokens(t *testing.T) {
	p := NewClaimsProvider(StaticKey(testSigningKey))

	expired := signToken(t, jwt.MapClaims{
		"sub": "user-7",
		"exp": time.Now().Add(-time.Hour).Unix(),
	}, testSigningKey)
	wrongKey := signToken(t, jwt.MapClaims{"sub": "user-7"}, []byte("another-key-that-is-32-bytes-long!"))

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "user-7"})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("SignedString failed: %v", err)
	}

	tests := []struct {
		name string
		raw  string
	}{
		{"malformed", "not.a.token"},
		{"expired", expired},
		{"wrong key", wrongKey},
		{"alg none", unsigned},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Key(WithToken(context.Background(), tt.raw), "")
			if !errors.Is(err, ErrInvalidToken) {
				t.Errorf("Key() error = %v, want ErrInvalidToken", err)
			}
		})
	}
}

func TestClaimsProvider_WithParserOptions(t *testing.T) {
	p := NewClaimsProvider(StaticKey(testSigningKey), jwt.WithIssuer("cachemeta"))

	good := signToken(t, jwt.MapClaims{"sub": "a", "iss": "cachemeta"}, testSigningKey)
	bad := signToken(t, jwt.MapClaims{"sub": "a", "iss": "other"}, testSigningKey)

	if got, err := p.Key(WithToken(context.Background(), good), ""); err != nil || got != "a" {
		t.Errorf("Key(good) = %q, %v", got, err)
	}
	if _, err := p.Key(WithToken(context.Background(), bad), ""); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Key(bad issuer) = %v, want ErrInvalidToken", err)
	}
}

func TestClaimsProvider_InManager(t *testing.T) {
	m := NewManager()
	if err := m.Register("user", NewClaimsProvider(StaticKey(testSigningKey))); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	raw := signToken(t, jwt.MapClaims{"sub": "42", "roles": []string{"b", "a"}}, testSigningKey)
	ctx := WithToken(context.Background(), raw)

	got, err := m.Resolve(ctx, []string{"user:roles", "user:sub"})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	want := []string{"[user:roles]=a,b", "[user:sub]=42"}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("Resolve() = %v, want %v", got, want)
	}
}

func TestTokenFromContext(t *testing.T) {
	if _, ok := TokenFromContext(context.Background()); ok {
		t.Error("TokenFromContext on empty context should not be ok")
	}
	raw, ok := TokenFromContext(WithToken(context.Background(), " abc "))
	if !ok || raw != "abc" {
		t.Errorf("TokenFromContext() = %q, %v", raw, ok)
	}
}
