package nodetransform

import (
	"errors"

	"github.com/albertocavalcante/go-nodetransform/graph"
	"github.com/albertocavalcante/go-nodetransform/loader"
	"github.com/albertocavalcante/go-nodetransform/mappings"
	"github.com/albertocavalcante/go-nodetransform/rewrite"
)

// Sentinel errors for invalid options.
var (
	// ErrNoEntryPoints indicates Options has neither entry points nor test entry points.
	ErrNoEntryPoints = graph.ErrNoEntryPoints

	// ErrInvalidSpecifier indicates an option value that is not an absolute specifier.
	ErrInvalidSpecifier = errors.New("invalid specifier")

	// ErrInvalidMapping indicates a specifier mapping or shim without a package name.
	ErrInvalidMapping = errors.New("invalid package mapping")
)

// Errors surfaced from a run. Use errors.Is to test for them and errors.As
// with the typed errors of the graph, mappings and rewrite packages for
// details.
var (
	ErrNotFound         = loader.ErrNotFound
	ErrRedirectCycle    = graph.ErrRedirectCycle
	ErrMappedEntryPoint = graph.ErrMappedEntryPoint
	ErrPathCollision    = mappings.ErrPathCollision
	ErrMalformedLiteral = rewrite.ErrMalformedLiteral
)
