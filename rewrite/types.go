// Package rewrite computes the text edits that retarget a module's import and
// export sources to the output layout, and the imports that back declared
// globals with shim packages.
//
// Edits are expressed as [TextChange] values over the original module text.
// They are computed independently per module from the read-only graph and
// mappings and applied with [Apply].
package rewrite

import (
	"errors"
	"fmt"

	"github.com/albertocavalcante/go-nodetransform/parser"
	"github.com/albertocavalcante/go-nodetransform/specifier"
)

// Sentinel errors.
var (
	// ErrMalformedLiteral indicates a source string without a usable value.
	ErrMalformedLiteral = errors.New("malformed source literal")

	// ErrOverlappingChanges indicates two text changes covering the same bytes.
	ErrOverlappingChanges = errors.New("overlapping text changes")

	// ErrChangeOutOfRange indicates a text change outside the text it applies to.
	ErrChangeOutOfRange = errors.New("text change out of range")
)

// MappedSpecifier is a package that replaces a module specifier in output.
type MappedSpecifier struct {
	// Name is the package name, such as "chalk" or "@deno/shim-deno".
	Name string

	// Version is the version constraint. It is recorded as a dependency and
	// never written into rewritten source.
	Version string

	// SubPath is appended after the name when non-empty.
	SubPath string
}

// ImportText returns the bare specifier written into output source.
func (m MappedSpecifier) ImportText() string {
	if m.SubPath == "" {
		return m.Name
	}
	return m.Name + "/" + m.SubPath
}

func (m MappedSpecifier) String() string {
	if m.Version == "" {
		return m.ImportText()
	}
	return m.ImportText() + "@" + m.Version
}

// GlobalName is a global identifier supplied by a shim package.
type GlobalName struct {
	Name string

	// ExportName is the name the package exports. Empty means Name.
	ExportName string

	// TypeOnly marks a name used only in type positions.
	TypeOnly bool
}

func (g GlobalName) exportName() string {
	if g.ExportName == "" {
		return g.Name
	}
	return g.ExportName
}

// Shim backs a set of globals with imports from a package.
type Shim struct {
	Package     MappedSpecifier
	GlobalNames []GlobalName
}

// TextChange replaces the half-open byte range [Start, End) with NewText.
// Start == End is an insertion.
type TextChange struct {
	Start   int
	End     int
	NewText string
}

// UnresolvedSpecifier is a source string left untouched because it did not
// resolve to a module or a mapped package.
type UnresolvedSpecifier struct {
	Specifier string
	Pos       parser.Position
}

// MalformedLiteralError reports a source string that cannot be rewritten.
type MalformedLiteralError struct {
	Module specifier.Specifier
	Pos    parser.Position
}

func (e *MalformedLiteralError) Error() string {
	return fmt.Sprintf("%s: %s in %s", e.Pos, ErrMalformedLiteral, e.Module)
}

// Is reports whether target is ErrMalformedLiteral.
func (e *MalformedLiteralError) Is(target error) bool {
	return target == ErrMalformedLiteral
}
