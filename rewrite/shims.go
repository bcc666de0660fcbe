package rewrite

import (
	"sort"
	"strings"

	"github.com/albertocavalcante/go-nodetransform/parser"
)

// ShimTextChanges returns the imports mod needs for the globals it
// references. Shims for the same package are merged so each package is
// imported at most once. All imports are inserted together at the module's
// insertion point, after any hashbang line and directive prologue.
//
// Type-only names are imported only into modules whose media type has type
// syntax; JavaScript and JSX modules never receive them.
//
// It returns no change when no shim global is referenced. The second result
// lists the packages that were imported, sorted by import text.
func ShimTextChanges(mod *parser.Module, shims []Shim) ([]TextChange, []MappedSpecifier) {
	if mod == nil || len(shims) == 0 {
		return nil, nil
	}
	types := mod.MediaType.HasTypeSyntax()

	type group struct {
		pkg   MappedSpecifier
		names []GlobalName
		seen  map[string]bool
	}
	groups := make(map[string]*group)
	for _, shim := range shims {
		key := shim.Package.ImportText()
		for _, g := range shim.GlobalNames {
			if (g.TypeOnly && !types) || !mod.ReferencesGlobal(g.Name) {
				continue
			}
			grp := groups[key]
			if grp == nil {
				grp = &group{pkg: shim.Package, seen: make(map[string]bool)}
				groups[key] = grp
			}
			if grp.seen[g.Name] {
				continue
			}
			grp.seen[g.Name] = true
			grp.names = append(grp.names, g)
		}
	}
	if len(groups) == 0 {
		return nil, nil
	}

	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	if mod.InsertNeedsNewline {
		sb.WriteByte('\n')
	}
	used := make([]MappedSpecifier, 0, len(keys))
	for _, k := range keys {
		grp := groups[k]
		sb.WriteString(importStatement(k, grp.names))
		sb.WriteByte('\n')
		used = append(used, grp.pkg)
	}

	change := TextChange{Start: mod.InsertOffset, End: mod.InsertOffset, NewText: sb.String()}
	return []TextChange{change}, used
}

// importStatement renders an import of names from pkg, such as
//
//	import { Deno, type Foo, setTimeout as shimSetTimeout } from "pkg";
//
// or "import type { ... }" when every name is type-only.
func importStatement(pkg string, names []GlobalName) string {
	sorted := append([]GlobalName(nil), names...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	allTypes := true
	for _, n := range sorted {
		if !n.TypeOnly {
			allTypes = false
			break
		}
	}

	specs := make([]string, len(sorted))
	for i, n := range sorted {
		var s string
		if n.exportName() == n.Name {
			s = n.Name
		} else {
			s = n.exportName() + " as " + n.Name
		}
		if n.TypeOnly && !allTypes {
			s = "type " + s
		}
		specs[i] = s
	}

	var sb strings.Builder
	sb.WriteString("import ")
	if allTypes {
		sb.WriteString("type ")
	}
	sb.WriteString("{ ")
	sb.WriteString(strings.Join(specs, ", "))
	sb.WriteString(" } from \"")
	sb.WriteString(escapeLiteral(pkg))
	sb.WriteString("\";")
	return sb.String()
}
