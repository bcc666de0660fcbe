package nodetransform

import (
	"github.com/albertocavalcante/go-nodetransform/rewrite"
)

// MappedSpecifier is a package that replaces a module specifier in output.
// The version is only reported as a dependency; it never appears in source.
type MappedSpecifier = rewrite.MappedSpecifier

// GlobalName is a global identifier supplied by a shim package.
type GlobalName = rewrite.GlobalName

// Shim backs a set of globals with imports from a package.
type Shim = rewrite.Shim

// Options describes one transform run.
type Options struct {
	// EntryPoints are absolute specifiers of the ordinary entry points.
	EntryPoints []string

	// TestEntryPoints are absolute specifiers of test entry points.
	TestEntryPoints []string

	// SpecifierMappings replaces the keyed specifiers with package references.
	// Mapped specifiers are never loaded.
	SpecifierMappings map[string]MappedSpecifier

	// Redirects substitutes one specifier for another before loading.
	Redirects map[string]string

	// Shims apply to modules in the main environment.
	Shims []Shim

	// TestShims apply to modules only reachable from test entry points.
	TestShims []Shim
}

// TransformOutput is the result of a transform.
type TransformOutput struct {
	Main OutputEnvironment
	Test OutputEnvironment

	// Warnings lists non-fatal problems, sorted.
	Warnings []string
}

// OutputEnvironment holds the files and package dependencies of one
// environment.
type OutputEnvironment struct {
	// EntryPoints are the output paths of the environment's entry points.
	EntryPoints []string

	// Files are sorted by path.
	Files []OutputFile

	// Dependencies are the packages the environment's files import, sorted by
	// name. The test environment omits packages already in the main one.
	Dependencies []Dependency
}

// OutputFile is one rewritten module.
type OutputFile struct {
	// Path is slash-separated and relative to the output root.
	Path string
	Text string
}

// Dependency is a package required by the output.
type Dependency struct {
	Name    string
	Version string
}
