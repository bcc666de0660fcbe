package parser

import (
	"bytes"
	"context"
	"fmt"
	"regexp"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/albertocavalcante/go-nodetransform/specifier"
)

// Tree-sitter node types used by the extractor.
const (
	nodeHashBang         = "hash_bang_line"
	nodeComment          = "comment"
	nodeExpressionStmt   = "expression_statement"
	nodeImportStatement  = "import_statement"
	nodeExportStatement  = "export_statement"
	nodeString           = "string"
	nodeIdentifier       = "identifier"
	nodeTypeIdentifier   = "type_identifier"
	nodeShorthandProp    = "shorthand_property_identifier"
	nodeShorthandPattern = "shorthand_property_identifier_pattern"
	nodeNamespaceExport  = "namespace_export"
	nodeExportClause     = "export_clause"
	nodeError            = "ERROR"
)

// Parse parses module text of the given media type.
//
// Each call creates its own tree-sitter parser, so Parse is safe for
// concurrent use.
func Parse(ctx context.Context, filename string, content []byte, media specifier.MediaType) (*Module, error) {
	mod := &Module{
		Filename:   filename,
		MediaType:  media,
		References: make(map[string]int),
		Bindings:   make(map[string]bool),
	}
	if !media.IsParsable() {
		return mod, nil
	}

	p := sitter.NewParser()
	defer p.Close()
	p.SetLanguage(languageFor(media))

	tree, err := parseTree(ctx, p, filename, content)
	if err != nil {
		return nil, err
	}
	if tree.RootNode().HasError() {
		if patched, ok := importAttributesAsWith(content); ok {
			tree.Close()
			if tree, err = parseTree(ctx, p, filename, patched); err != nil {
				return nil, err
			}
			content = patched
		}
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		pos := firstErrorPosition(root, filename)
		return nil, &ParseError{Pos: pos, Message: "syntax error"}
	}

	x := &extractor{filename: filename, content: content, mod: mod}
	x.extract(root)
	return mod, nil
}

func parseTree(ctx context.Context, p *sitter.Parser, filename string, content []byte) (*sitter.Tree, error) {
	tree, err := p.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, &ParseError{
			Pos:     Position{Filename: filename},
			Message: fmt.Sprintf("parse failed: %v", err),
			Wrapped: err,
		}
	}
	return tree, nil
}

// assertClause matches the legacy import attribute keyword following a
// module source string: `from "./x.json" assert { type: "json" }`.
var assertClause = regexp.MustCompile(`["']\s*assert\s*\{`)

// importAttributesAsWith returns a copy of content with every legacy
// `assert { ... }` import attribute clause spelled `with { ... }`, padded
// with spaces, which the grammar accepts. The copy has the same length and
// byte offsets as content.
func importAttributesAsWith(content []byte) ([]byte, bool) {
	matches := assertClause.FindAllIndex(content, -1)
	if len(matches) == 0 {
		return nil, false
	}
	patched := append([]byte(nil), content...)
	for _, m := range matches {
		i := m[0] + bytes.Index(content[m[0]:m[1]], []byte("assert"))
		copy(patched[i:], "with  ")
	}
	return patched, true
}

func languageFor(media specifier.MediaType) *sitter.Language {
	switch media {
	case specifier.TypeScript, specifier.Dts:
		return typescript.GetLanguage()
	case specifier.TSX:
		return tsx.GetLanguage()
	default:
		return javascript.GetLanguage()
	}
}

type extractor struct {
	filename string
	content  []byte
	mod      *Module
}

func (x *extractor) extract(root *sitter.Node) {
	x.findInsertOffset(root)

	for i := 0; i < int(root.NamedChildCount()); i++ {
		stmt := root.NamedChild(i)
		if stmt == nil {
			continue
		}
		switch stmt.Type() {
		case nodeImportStatement:
			x.collectBindings(stmt)
			if src := stmt.ChildByFieldName("source"); src != nil {
				x.addSource(ImportDecl, stmt, src)
			}
			// Import statements only bind names.
			continue
		case nodeExportStatement:
			if src := stmt.ChildByFieldName("source"); src != nil {
				x.addSource(exportKind(stmt), stmt, src)
				continue
			}
			x.collectBindings(stmt)
		default:
			x.collectBindings(stmt)
		}
		x.collectReferences(stmt)
	}
}

func exportKind(stmt *sitter.Node) SourceKind {
	for i := 0; i < int(stmt.ChildCount()); i++ {
		child := stmt.Child(i)
		if child == nil {
			continue
		}
		switch child.Type() {
		case "*", nodeNamespaceExport:
			return ExportAll
		case nodeExportClause:
			return NamedExport
		}
	}
	return NamedExport
}

func (x *extractor) addSource(kind SourceKind, stmt, src *sitter.Node) {
	x.mod.Sources = append(x.mod.Sources, Source{
		Kind:     kind,
		Literal:  x.literal(src),
		TypeOnly: hasChildType(stmt, "type"),
		Pos:      x.position(src),
	})
}

func (x *extractor) literal(n *sitter.Node) Literal {
	start, end := int(n.StartByte()), int(n.EndByte())
	if n.Type() != nodeString || n.IsMissing() || end-start < 2 {
		return Literal{Start: start, End: end}
	}
	quote := x.content[start]
	if (quote != '"' && quote != '\'') || x.content[end-1] != quote {
		return Literal{Start: start, End: end}
	}
	lit := Literal{Start: start + 1, End: end - 1}
	lit.Value, lit.Valid = unescape(x.content[lit.Start:lit.End])
	return lit
}

func (x *extractor) position(n *sitter.Node) Position {
	pt := n.StartPoint()
	return Position{
		Filename: x.filename,
		Line:     int(pt.Row) + 1,
		Column:   int(pt.Column) + 1,
	}
}

func (x *extractor) text(n *sitter.Node) string {
	return string(x.content[n.StartByte():n.EndByte()])
}

// findInsertOffset skips a hashbang line and the directive prologue.
func (x *extractor) findInsertOffset(root *sitter.Node) {
	offset := 0
prologue:
	for i := 0; i < int(root.NamedChildCount()); i++ {
		child := root.NamedChild(i)
		if child == nil {
			continue
		}
		switch {
		case child.Type() == nodeHashBang:
			offset = int(child.EndByte())
		case child.Type() == nodeComment:
		case isDirective(child):
			offset = int(child.EndByte())
		default:
			break prologue
		}
	}

	if offset > 0 {
		rest := x.content[offset:]
		switch {
		case len(rest) >= 2 && rest[0] == '\r' && rest[1] == '\n':
			offset += 2
		case len(rest) >= 1 && rest[0] == '\n':
			offset++
		}
	}
	x.mod.InsertOffset = offset
	x.mod.InsertNeedsNewline = offset > 0 && x.content[offset-1] != '\n'
}

func isDirective(n *sitter.Node) bool {
	if n.Type() != nodeExpressionStmt || n.NamedChildCount() != 1 {
		return false
	}
	child := n.NamedChild(0)
	return child != nil && child.Type() == nodeString
}

func (x *extractor) collectReferences(n *sitter.Node) {
	switch n.Type() {
	case nodeIdentifier, nodeTypeIdentifier, nodeShorthandProp:
		x.mod.References[x.text(n)]++
		return
	case nodeImportStatement:
		return
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if child := n.NamedChild(i); child != nil {
			x.collectReferences(child)
		}
	}
}

func (x *extractor) collectBindings(n *sitter.Node) {
	switch n.Type() {
	case nodeImportStatement:
		for i := 0; i < int(n.NamedChildCount()); i++ {
			if clause := n.NamedChild(i); clause != nil && clause.Type() == "import_clause" {
				x.collectImportClause(clause)
			}
		}
	case nodeExportStatement:
		if decl := n.ChildByFieldName("declaration"); decl != nil {
			x.collectBindings(decl)
		}
	case "lexical_declaration", "variable_declaration":
		for i := 0; i < int(n.NamedChildCount()); i++ {
			decl := n.NamedChild(i)
			if decl == nil || decl.Type() != "variable_declarator" {
				continue
			}
			if name := decl.ChildByFieldName("name"); name != nil {
				x.collectPattern(name)
			}
		}
	case "function_declaration", "generator_function_declaration", "function_signature",
		"class_declaration", "abstract_class_declaration", "enum_declaration",
		"interface_declaration", "type_alias_declaration", "module", "internal_module":
		if name := n.ChildByFieldName("name"); name != nil {
			switch name.Type() {
			case nodeIdentifier, nodeTypeIdentifier:
				x.mod.Bindings[x.text(name)] = true
			}
		}
	case "ambient_declaration":
		for i := 0; i < int(n.NamedChildCount()); i++ {
			if child := n.NamedChild(i); child != nil {
				x.collectBindings(child)
			}
		}
	}
}

func (x *extractor) collectImportClause(clause *sitter.Node) {
	for i := 0; i < int(clause.NamedChildCount()); i++ {
		child := clause.NamedChild(i)
		if child == nil {
			continue
		}
		switch child.Type() {
		case nodeIdentifier:
			x.mod.Bindings[x.text(child)] = true
		case "namespace_import":
			for j := 0; j < int(child.NamedChildCount()); j++ {
				if id := child.NamedChild(j); id != nil && id.Type() == nodeIdentifier {
					x.mod.Bindings[x.text(id)] = true
				}
			}
		case "named_imports":
			for j := 0; j < int(child.NamedChildCount()); j++ {
				spec := child.NamedChild(j)
				if spec == nil || spec.Type() != "import_specifier" {
					continue
				}
				local := spec.ChildByFieldName("alias")
				if local == nil {
					local = spec.ChildByFieldName("name")
				}
				if local != nil && local.Type() == nodeIdentifier {
					x.mod.Bindings[x.text(local)] = true
				}
			}
		}
	}
}

func (x *extractor) collectPattern(n *sitter.Node) {
	switch n.Type() {
	case nodeIdentifier, nodeShorthandPattern:
		x.mod.Bindings[x.text(n)] = true
		return
	case "assignment_pattern", "object_assignment_pattern":
		if left := n.ChildByFieldName("left"); left != nil {
			x.collectPattern(left)
		}
		return
	case "pair_pattern":
		if value := n.ChildByFieldName("value"); value != nil {
			x.collectPattern(value)
		}
		return
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if child := n.NamedChild(i); child != nil {
			x.collectPattern(child)
		}
	}
}

func hasChildType(n *sitter.Node, typ string) bool {
	for i := 0; i < int(n.ChildCount()); i++ {
		if child := n.Child(i); child != nil && child.Type() == typ {
			return true
		}
	}
	return false
}

func firstErrorPosition(root *sitter.Node, filename string) Position {
	var found *sitter.Node
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if found != nil || n == nil || !n.HasError() && !n.IsMissing() {
			return
		}
		if n.Type() == nodeError || n.IsMissing() {
			found = n
			return
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(root)
	if found == nil {
		return Position{Filename: filename}
	}
	pt := found.StartPoint()
	return Position{Filename: filename, Line: int(pt.Row) + 1, Column: int(pt.Column) + 1}
}
