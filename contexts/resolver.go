package contexts

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Resolver converts context IDs into key fragments.
//
// Contract:
// - Determinism: a fixed set of IDs yields the same fragments in the same
// order, regardless of input order or duplicates.
// - Side effects: none visible to the caller.
type Resolver interface {
	Resolve(ctx context.Context, ids []string) ([]string, error)
}

// Manager resolves context IDs through registered providers.
type Manager struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

// NewManager creates a manager with no providers.
func NewManager() *Manager {
	return &Manager{providers: make(map[string]Provider)}
}

// Register adds a provider for a context name.
func (m *Manager) Register(name string, p Provider) error {
	name = strings.TrimSpace(name)
	if name == "" || strings.Contains(name, ":") {
		return fmt.Errorf("%w: %q", ErrInvalidContextID, name)
	}
	if p == nil {
		return ErrNilProvider
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.providers[name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateContext, name)
	}
	m.providers[name] = p
	return nil
}

// Names returns registered context names.
func (m *Manager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.providers))
	for name := range m.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve optimizes ids and returns one "[id]=value" fragment per remaining
// ID, in ID order. Providers run concurrently.
func (m *Manager) Resolve(ctx context.Context, ids []string) ([]string, error) {
	ids, err := Optimize(ids)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	providers := make([]Provider, len(ids))
	params := make([]string, len(ids))
	m.mu.RLock()
	for i, id := range ids {
		name, param := split(id)
		p, ok := m.providers[name]
		if !ok {
			m.mu.RUnlock()
			return nil, fmt.Errorf("%w: %q", ErrUnknownContext, id)
		}
		providers[i] = p
		params[i] = param
	}
	m.mu.RUnlock()

	keys := make([]string, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	for i := range ids {
		g.Go(func() error {
			value, err := providers[i].Key(gctx, params[i])
			if err != nil {
				return fmt.Errorf("contexts: resolve %q: %w", ids[i], err)
			}
			keys[i] = "[" + ids[i] + "]=" + value
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return keys, nil
}

// Optimize validates ids and returns them deduplicated and sorted, without
// IDs made redundant by a broader one: "user" covers "user.roles" and
// "user:admin".
func Optimize(ids []string) ([]string, error) {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if err := validate(id); err != nil {
			return nil, err
		}
		set[id] = struct{}{}
	}

	out := make([]string, 0, len(set))
	for id := range set {
		if !covered(id, set) {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out, nil
}

// covered reports whether a parameterless ancestor of id is in set.
func covered(id string, set map[string]struct{}) bool {
	name, param := split(id)
	if param != "" {
		if _, ok := set[name]; ok {
			return true
		}
	}
	for i := len(name) - 1; i > 0; i-- {
		if name[i] != '.' {
			continue
		}
		if _, ok := set[name[:i]]; ok {
			return true
		}
	}
	return false
}

func split(id string) (name, param string) {
	name, param, _ = strings.Cut(id, ":")
	return name, param
}

func validate(id string) error {
	name, _ := split(id)
	if strings.TrimSpace(name) == "" || strings.ContainsAny(id, " \t\r\n") {
		return fmt.Errorf("%w: %q", ErrInvalidContextID, id)
	}
	if strings.HasPrefix(name, ".") || strings.HasSuffix(name, ".") {
		return fmt.Errorf("%w: %q", ErrInvalidContextID, id)
	}
	return nil
}

// Ensure Manager implements Resolver
var _ Resolver = (*Manager)(nil)
