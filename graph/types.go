package graph

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/albertocavalcante/go-nodetransform/loader"
	"github.com/albertocavalcante/go-nodetransform/parser"
	"github.com/albertocavalcante/go-nodetransform/specifier"
)

// DefaultConcurrency is the number of loader workers used when
// BuildOptions.Concurrency is zero.
const DefaultConcurrency = 8

// Sentinel errors.
var (
	// ErrNoEntryPoints indicates Build was called without entry points.
	ErrNoEntryPoints = errors.New("no entry points")

	// ErrRedirectCycle indicates a redirect chain that loops.
	ErrRedirectCycle = errors.New("redirect cycle")

	// ErrMappedEntryPoint indicates an entry point that is also mapped to a package.
	ErrMappedEntryPoint = errors.New("entry point is mapped to a package")
)

// BuildOptions configures Build.
type BuildOptions struct {
	// EntryPoints are the ordinary entry points.
	EntryPoints []specifier.Specifier

	// TestEntryPoints are entry points whose closure forms the test environment.
	TestEntryPoints []specifier.Specifier

	// Redirects substitutes one specifier for another before loading.
	Redirects map[specifier.Specifier]specifier.Specifier

	// Mapped lists specifiers that are replaced by a package reference.
	// They are never loaded.
	Mapped map[specifier.Specifier]bool

	// Loader fetches module source. Required.
	Loader loader.Loader

	// Concurrency bounds in-flight loads. Zero means DefaultConcurrency.
	Concurrency int

	// Logger receives debug output. Nil discards it.
	Logger *slog.Logger
}

// Graph is a resolved module graph. It is immutable after Build returns.
type Graph struct {
	modules   map[specifier.Specifier]*Module
	redirects map[specifier.Specifier]specifier.Specifier
	mapped    map[specifier.Specifier]bool
	roots     []specifier.Specifier
	testRoots []specifier.Specifier
}

// Module is one loaded module in the graph.
type Module struct {
	// Specifier is the canonical specifier of the module.
	Specifier specifier.Specifier

	MediaType specifier.MediaType
	Content   []byte

	// Parsed is the parsed view of Content.
	Parsed *parser.Module

	// Imports maps each resolvable source string, as written, to its
	// canonical target. The target is either a module in the graph or a
	// mapped specifier.
	Imports map[string]specifier.Specifier

	// Dependencies are the distinct graph modules this module imports, sorted.
	Dependencies []specifier.Specifier

	// Dependents are the graph modules importing this one, sorted.
	Dependents []specifier.Specifier

	// Main is true when the module is reachable from an ordinary entry point.
	Main bool

	// Test is true when the module is reachable from a test entry point.
	Test bool
}

// TestOnly reports whether the module belongs only to the test environment.
func (m *Module) TestOnly() bool {
	return m.Test && !m.Main
}

// LoadError is returned when a reachable module cannot be loaded or parsed.
type LoadError struct {
	Specifier specifier.Specifier
	// Referrer is the module that imported Specifier; zero for entry points.
	Referrer specifier.Specifier
	Err      error
}

func (e *LoadError) Error() string {
	if e.Referrer.IsZero() {
		return fmt.Sprintf("load %s: %v", e.Specifier, e.Err)
	}
	return fmt.Sprintf("load %s (imported by %s): %v", e.Specifier, e.Referrer, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// ParseError returns the wrapped syntax error, if any.
func (e *LoadError) ParseError() *parser.ParseError {
	var pe *parser.ParseError
	if errors.As(e.Err, &pe) {
		return pe
	}
	return nil
}

// RedirectCycleError reports a redirect chain that returns to a specifier
// already in the chain.
type RedirectCycleError struct {
	Chain []specifier.Specifier
}

func (e *RedirectCycleError) Error() string {
	parts := make([]string, len(e.Chain))
	for i, s := range e.Chain {
		parts[i] = s.String()
	}
	return fmt.Sprintf("%s: %s", ErrRedirectCycle, strings.Join(parts, " -> "))
}

// Is reports whether target is ErrRedirectCycle.
func (e *RedirectCycleError) Is(target error) bool {
	return target == ErrRedirectCycle
}
