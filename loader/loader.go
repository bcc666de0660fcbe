// Package loader fetches module source text for the graph builder.
//
// A [Loader] maps a specifier to its content and media type. The package ships
// loaders for the local file system ([File]), HTTP(S) ([HTTP]) and in-memory
// fixtures ([Memory]), plus two combinators: [Router] dispatches by scheme and
// [Cached] keeps recent responses and collapses concurrent identical loads.
//
// [Default] returns the loader the transform uses when none is configured:
// file://, http:// and https:// behind a shared cache.
package loader

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/albertocavalcante/go-nodetransform/specifier"
)

// Sentinel errors.
var (
	// ErrNotFound indicates the module does not exist at the specifier.
	ErrNotFound = errors.New("module not found")

	// ErrUnsupportedScheme indicates no loader is registered for a scheme.
	ErrUnsupportedScheme = errors.New("unsupported scheme")
)

// Loader loads module source.
//
// Implementations must be safe for concurrent use. A Response whose Specifier
// differs from the requested one reports a redirect: the module lives at the
// returned specifier.
type Loader interface {
	Load(ctx context.Context, spec specifier.Specifier) (*Response, error)
}

// Response is a loaded module. Responses are shared between callers and must
// not be modified.
type Response struct {
	// Specifier is the final location of the module after redirects.
	Specifier specifier.Specifier

	// MediaType is detected from the specifier's extension, falling back to
	// the content type reported by the source.
	MediaType specifier.MediaType

	Content []byte
}

// Func adapts an ordinary function to the Loader interface.
type Func func(ctx context.Context, spec specifier.Specifier) (*Response, error)

// Load calls f(ctx, spec).
func (f Func) Load(ctx context.Context, spec specifier.Specifier) (*Response, error) {
	return f(ctx, spec)
}

// StatusError is returned when an HTTP source answers with a non-200 status.
type StatusError struct {
	Specifier  specifier.Specifier
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: HTTP %d %s", e.Specifier, e.StatusCode, http.StatusText(e.StatusCode))
}

// Is reports 404 and 410 responses as ErrNotFound.
func (e *StatusError) Is(target error) bool {
	return target == ErrNotFound &&
		(e.StatusCode == http.StatusNotFound || e.StatusCode == http.StatusGone)
}

// IsNotFound reports whether err means the module does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

var (
	_ Loader = Func(nil)
	_ Loader = (*File)(nil)
	_ Loader = (*HTTP)(nil)
	_ Loader = (*Memory)(nil)
	_ Loader = (*Cached)(nil)
	_ Loader = (*Router)(nil)
)
