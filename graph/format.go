package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/albertocavalcante/go-nodetransform/specifier"
)

const separatorWidth = 60 // Width of separator lines in text output

// JSONGraph is the JSON form of a graph.
type JSONGraph struct {
	EntryPoints     []string     `json:"entryPoints"`
	TestEntryPoints []string     `json:"testEntryPoints,omitempty"`
	Modules         []JSONModule `json:"modules"`
	Redirects       []JSONEdge   `json:"redirects,omitempty"`
}

// JSONModule is one module in the JSON form.
type JSONModule struct {
	Specifier    string   `json:"specifier"`
	MediaType    string   `json:"mediaType"`
	Size         int      `json:"size"`
	Dependencies []string `json:"dependencies,omitempty"`
	Mapped       []string `json:"mapped,omitempty"`
	Test         bool     `json:"test,omitempty"`
}

// JSONEdge is a redirect from one specifier to another.
type JSONEdge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// ToJSON outputs the graph as indented JSON.
func (g *Graph) ToJSON() ([]byte, error) {
	out := JSONGraph{
		EntryPoints:     strs(g.roots),
		TestEntryPoints: strs(g.testRoots),
		Modules:         make([]JSONModule, 0, len(g.modules)),
	}
	for _, s := range g.Modules() {
		m := g.modules[s]
		out.Modules = append(out.Modules, JSONModule{
			Specifier:    s.String(),
			MediaType:    m.MediaType.String(),
			Size:         len(m.Content),
			Dependencies: strs(m.Dependencies),
			Mapped:       strs(g.MappedImports(s)),
			Test:         m.TestOnly(),
		})
	}
	redirects := g.Redirects()
	for _, from := range sortedKeys(keysOf(redirects)) {
		out.Redirects = append(out.Redirects, JSONEdge{From: from.String(), To: redirects[from].String()})
	}
	return json.MarshalIndent(out, "", "  ")
}

// ToDOT outputs the graph in Graphviz DOT format.
func (g *Graph) ToDOT() string {
	var buf bytes.Buffer

	buf.WriteString("digraph modules {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  node [shape=box];\n\n")

	roots := make(map[string]bool)
	for _, r := range g.roots {
		roots[r.String()] = true
	}
	for _, r := range g.testRoots {
		roots[r.String()] = true
	}

	mapped := make(map[string]bool)
	for _, s := range g.Modules() {
		m := g.modules[s]
		attrs := fmt.Sprintf("label=%q", s.String())
		if roots[s.String()] {
			attrs += ", style=bold"
		} else if m.TestOnly() {
			attrs += ", style=dashed"
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", s.String(), attrs)
		for _, t := range g.MappedImports(s) {
			mapped[t.String()] = true
		}
	}
	for _, t := range sortedStrings(mapped) {
		fmt.Fprintf(&buf, "  %q [label=%q, shape=ellipse];\n", t, t)
	}

	buf.WriteString("\n")

	for _, s := range g.Modules() {
		for _, dep := range g.modules[s].Dependencies {
			fmt.Fprintf(&buf, "  %q -> %q;\n", s.String(), dep.String())
		}
		for _, t := range g.MappedImports(s) {
			fmt.Fprintf(&buf, "  %q -> %q [style=dotted];\n", s.String(), t.String())
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

// ToText outputs a human-readable tree of the graph from each entry point.
func (g *Graph) ToText() string {
	var buf bytes.Buffer

	buf.WriteString("Module Graph\n")
	buf.WriteString(strings.Repeat("=", separatorWidth) + "\n\n")

	fmt.Fprintf(&buf, "Total modules: %d\n", len(g.modules))
	fmt.Fprintf(&buf, "Main modules: %d\n", len(g.MainModules()))
	if n := len(g.TestOnlyModules()); n > 0 {
		fmt.Fprintf(&buf, "Test-only modules: %d\n", n)
	}
	if n := len(g.redirects); n > 0 {
		fmt.Fprintf(&buf, "Redirects: %d\n", n)
	}
	buf.WriteString("\n")

	expanded := make(map[specifier.Specifier]bool)
	for _, r := range append(g.EntryPoints(), g.TestEntryPoints()...) {
		g.printTree(&buf, treeNode{spec: r}, "", true, true, expanded)
	}

	return buf.String()
}

type treeNode struct {
	spec   specifier.Specifier
	mapped bool
}

// printTree writes n and its imports. A module already expanded elsewhere in
// the output is marked with (*) and not repeated.
func (g *Graph) printTree(buf *bytes.Buffer, n treeNode, prefix string, root, isLast bool, expanded map[specifier.Specifier]bool) {
	connector := "├── "
	if isLast {
		connector = "└── "
	}
	if root {
		buf.WriteString(n.spec.String())
	} else {
		buf.WriteString(prefix + connector + n.spec.String())
	}

	if n.mapped {
		buf.WriteString(" (mapped)\n")
		return
	}
	m := g.modules[n.spec]
	if m != nil && m.TestOnly() {
		buf.WriteString(" (test)")
	}
	if m == nil || expanded[n.spec] {
		if m != nil && len(m.Dependencies) > 0 {
			buf.WriteString(" (*)")
		}
		buf.WriteString("\n")
		return
	}
	buf.WriteString("\n")
	expanded[n.spec] = true

	children := make([]treeNode, 0, len(m.Dependencies))
	for _, dep := range m.Dependencies {
		children = append(children, treeNode{spec: dep})
	}
	for _, t := range g.MappedImports(n.spec) {
		children = append(children, treeNode{spec: t, mapped: true})
	}

	childPrefix := prefix
	if !root {
		if isLast {
			childPrefix += "    "
		} else {
			childPrefix += "│   "
		}
	}
	for i, child := range children {
		g.printTree(buf, child, childPrefix, false, i == len(children)-1, expanded)
	}
}

func strs[T fmt.Stringer](list []T) []string {
	if len(list) == 0 {
		return nil
	}
	out := make([]string, len(list))
	for i, s := range list {
		out[i] = s.String()
	}
	return out
}

func keysOf[K comparable, V any](m map[K]V) map[K]bool {
	out := make(map[K]bool, len(m))
	for k := range m {
		out[k] = true
	}
	return out
}

func sortedStrings(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
