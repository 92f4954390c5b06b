package cacheable

import (
	"context"
	"fmt"
	"strings"

	"github.com/jonwraymond/cachemeta/contexts"
)

// Separator joins key parts and resolved context fragments.
const Separator = ":"

// deriver builds cache identifiers from metadata and memoizes the last one.
//
// The memo stays valid until invalidate is called, which the accessor does
// exactly when the context set grows.
type deriver struct {
	resolver contexts.Resolver
	id       string
	valid    bool
}

// derive returns the identifier for md, or ok=false when md is uncacheable.
func (d *deriver) derive(ctx context.Context, md *Metadata) (id string, ok bool, err error) {
	// Checked ahead of the memo: a zero max-age set after a derivation still
	// disables caching.
	if md.Disabled() {
		return "", false, nil
	}
	if d.valid {
		return d.id, true, nil
	}
	if len(md.keys) == 0 {
		return "", false, nil
	}

	parts := md.keys
	if len(md.contexts) > 0 {
		if d.resolver == nil {
			return "", false, ErrNoResolver
		}
		resolved, err := d.resolver.Resolve(ctx, md.Contexts())
		if err != nil {
			return "", false, fmt.Errorf("cacheable: resolve contexts: %w", err)
		}
		parts = make([]string, 0, len(md.keys)+len(resolved))
		parts = append(parts, md.keys...)
		parts = append(parts, resolved...)
	}

	d.id = strings.Join(parts, Separator)
	d.valid = true
	return d.id, true, nil
}

func (d *deriver) invalidate() {
	d.id = ""
	d.valid = false
}
