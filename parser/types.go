// Package parser provides the read-only parsed view of a module that the
// rewrite engine consumes.
//
// It wraps github.com/smacker/go-tree-sitter with the TypeScript, TSX and
// JavaScript grammars and extracts only what a specifier rewrite needs: the
// top-level source-bearing statements, identifier references, top-level
// bindings, and the offset where injected imports go.
package parser

import (
	"fmt"

	"github.com/albertocavalcante/go-nodetransform/specifier"
)

// Position represents a source position for diagnostics.
// Line and Column are 1-based; Column counts bytes.
type Position struct {
	Filename string
	Line     int
	Column   int
}

func (p Position) String() string {
	if p.Line == 0 {
		return p.Filename
	}
	return fmt.Sprintf("%s:%d:%d", p.Filename, p.Line, p.Column)
}

// SourceKind is the closed set of top-level statements that carry a module
// source string.
type SourceKind int

const (
	// ImportDecl is `import ... from "x"` or `import "x"`.
	ImportDecl SourceKind = iota + 1
	// ExportAll is `export * from "x"` or `export * as ns from "x"`.
	ExportAll
	// NamedExport is `export { a } from "x"`.
	NamedExport
)

func (k SourceKind) String() string {
	switch k {
	case ImportDecl:
		return "import"
	case ExportAll:
		return "export-all"
	case NamedExport:
		return "named-export"
	default:
		return fmt.Sprintf("SourceKind(%d)", int(k))
	}
}

// Literal is a string literal holding a module source.
type Literal struct {
	// Value is the decoded string value.
	Value string

	// Start and End delimit the characters between the quotes, as byte offsets
	// into the module text. The quotes themselves are outside [Start, End).
	Start int
	End   int

	// Valid is false when the literal has no usable value: an unterminated
	// string, a template, or an invalid escape sequence.
	Valid bool
}

// Source is one source-bearing statement.
type Source struct {
	Kind     SourceKind
	Literal  Literal
	TypeOnly bool
	Pos      Position
}

// Module is the parsed view of one module's text.
type Module struct {
	Filename  string
	MediaType specifier.MediaType

	// Sources lists source-bearing top-level statements in body order.
	Sources []Source

	// References counts identifier references by name, excluding names inside
	// import statements.
	References map[string]int

	// Bindings holds names declared at the top level (imports, functions,
	// classes, variables, types, enums).
	Bindings map[string]bool

	// InsertOffset is where injected imports go: after a hashbang line and any
	// directive prologue.
	InsertOffset int

	// InsertNeedsNewline is true when the text at InsertOffset does not start
	// a fresh line.
	InsertNeedsNewline bool
}

// ReferencesGlobal reports whether name is referenced and not shadowed by a
// top-level binding.
func (m *Module) ReferencesGlobal(name string) bool {
	if m == nil || m.Bindings[name] {
		return false
	}
	return m.References[name] > 0
}

// ParseError represents a syntax error with position information.
type ParseError struct {
	Pos     Position
	Message string
	Wrapped error
}

func (e *ParseError) Error() string {
	if e.Pos.Line > 0 {
		return fmt.Sprintf("%s: %s", e.Pos, e.Message)
	}
	if e.Pos.Filename != "" {
		return fmt.Sprintf("%s: %s", e.Pos.Filename, e.Message)
	}
	return e.Message
}

func (e *ParseError) Unwrap() error {
	return e.Wrapped
}
