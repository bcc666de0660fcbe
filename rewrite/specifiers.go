package rewrite

import (
	"strings"

	"github.com/albertocavalcante/go-nodetransform/graph"
	"github.com/albertocavalcante/go-nodetransform/specifier"
)

// Resolver maps a source string seen in a module to its canonical target.
// *graph.Graph implements it.
type Resolver interface {
	ResolveDependency(raw string, referrer specifier.Specifier) (specifier.Specifier, bool)
}

var _ Resolver = (*graph.Graph)(nil)

// SpecifierTextChanges returns one edit per source string in mod that
// resolves and classifies to a replacement. Each edit spans exactly the
// characters between the literal's quotes. Source strings that do not
// resolve are returned as unresolved and produce no edit.
//
// A source string without a usable value returns a *MalformedLiteralError.
func SpecifierTextChanges(mod *graph.Module, r Resolver, c *Classifier) ([]TextChange, []UnresolvedSpecifier, error) {
	if mod == nil || mod.Parsed == nil {
		return nil, nil, nil
	}

	var changes []TextChange
	var unresolved []UnresolvedSpecifier
	for _, src := range mod.Parsed.Sources {
		lit := src.Literal
		if !lit.Valid {
			return nil, nil, &MalformedLiteralError{Module: mod.Specifier, Pos: src.Pos}
		}

		target, ok := r.ResolveDependency(lit.Value, mod.Specifier)
		if !ok {
			unresolved = append(unresolved, UnresolvedSpecifier{Specifier: lit.Value, Pos: src.Pos})
			continue
		}
		cl := c.Classify(target, mod.Specifier)
		if cl.Kind == Unresolved {
			unresolved = append(unresolved, UnresolvedSpecifier{Specifier: lit.Value, Pos: src.Pos})
			continue
		}
		changes = append(changes, TextChange{
			Start:   lit.Start,
			End:     lit.End,
			NewText: escapeLiteral(cl.Text),
		})
	}
	return changes, unresolved, nil
}

// escapeLiteral escapes text for either quote style.
func escapeLiteral(text string) string {
	if !strings.ContainsAny(text, "\\'\"\n\r") {
		return text
	}
	var sb strings.Builder
	for _, r := range text {
		switch r {
		case '\\', '\'', '"':
			sb.WriteByte('\\')
			sb.WriteRune(r)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
