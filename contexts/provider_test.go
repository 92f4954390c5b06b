package contexts

import (
	"context"
	"testing"
)

func TestStatic(t *testing.T) {
	got, err := Static("en").Key(context.Background(), "ignored")
	if err != nil || got != "en" {
		t.Errorf("Static.Key() = %q, %v", got, err)
	}
}

func TestValue(t *testing.T) {
	p := Value("theme", "default")

	tests := []struct {
		name string
		ctx  context.Context
		want string
	}{
		{"fallback", context.Background(), "default"},
		{"attached", WithValue(context.Background(), "theme", "olivero"), "olivero"},
		{"other name", WithValue(context.Background(), "language", "fr"), "default"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.Key(tt.ctx, "")
			if err != nil || got != tt.want {
				t.Errorf("Key() = %q, %v; want %q", got, err, tt.want)
			}
		})
	}
}

func TestManager_ResolvesRequestValues(t *testing.T) {
	m := NewManager()
	_ = m.Register("languages", Value("languages", "en"))

	ctx := WithValue(context.Background(), "languages", "de")
	got, err := m.Resolve(ctx, []string{"languages"})
	if err != nil || len(got) != 1 || got[0] != "[languages]=de" {
		t.Errorf("Resolve() = %v, %v", got, err)
	}
}
