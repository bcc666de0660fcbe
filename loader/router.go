package loader

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/albertocavalcante/go-nodetransform/specifier"
)

// Router dispatches loads to a loader chosen by specifier scheme.
type Router struct {
	loaders map[string]Loader
}

// NewRouter creates a router from a scheme to loader table.
// Schemes are matched case-insensitively and without the trailing colon.
func NewRouter(loaders map[string]Loader) *Router {
	r := &Router{loaders: make(map[string]Loader, len(loaders))}
	for scheme, l := range loaders {
		r.loaders[strings.TrimSuffix(strings.ToLower(scheme), ":")] = l
	}
	return r
}

// Load forwards to the loader registered for spec's scheme.
func (r *Router) Load(ctx context.Context, spec specifier.Specifier) (*Response, error) {
	l, ok := r.loaders[spec.Scheme()]
	if !ok {
		return nil, fmt.Errorf("%w %q (registered: %s)", ErrUnsupportedScheme, spec.Scheme(), strings.Join(r.Schemes(), ", "))
	}
	return l.Load(ctx, spec)
}

// Schemes returns the registered schemes, sorted.
func (r *Router) Schemes() []string {
	schemes := make([]string, 0, len(r.loaders))
	for s := range r.loaders {
		schemes = append(schemes, s)
	}
	sort.Strings(schemes)
	return schemes
}

// Default returns a cached loader for file://, http:// and https://.
func Default(opts ...HTTPOption) Loader {
	h := NewHTTP(opts...)
	router := NewRouter(map[string]Loader{
		"file":  NewFile(),
		"http":  h,
		"https": h,
	})
	cached, err := NewCached(router, DefaultCacheSize)
	if err != nil {
		// Unreachable: the router is non-nil and the size is positive.
		return router
	}
	return cached
}
