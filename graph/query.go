package graph

import (
	"sort"

	"github.com/albertocavalcante/go-nodetransform/specifier"
)

// ResolveDependency returns the canonical target of raw as written in
// referrer. It reports false when raw cannot be resolved: a bare specifier,
// an unsupported scheme, a target outside the closure, or a referrer that is
// not in the graph.
func (g *Graph) ResolveDependency(raw string, referrer specifier.Specifier) (specifier.Specifier, bool) {
	mod := g.modules[g.Canonical(referrer)]
	if mod == nil {
		return specifier.Specifier{}, false
	}
	target, ok := mod.Imports[raw]
	return target, ok
}

// Canonical follows redirects from s. Specifiers without redirects, and
// specifiers caught in a cycle, are returned unchanged.
func (g *Graph) Canonical(s specifier.Specifier) specifier.Specifier {
	canon, err := followRedirects(s, g.redirects, g.mapped)
	if err != nil {
		return s
	}
	return canon
}

// Get returns the module for a canonical specifier, or nil if not found.
func (g *Graph) Get(s specifier.Specifier) *Module {
	return g.modules[s]
}

// Contains returns true if the graph holds a module for s.
func (g *Graph) Contains(s specifier.Specifier) bool {
	_, ok := g.modules[s]
	return ok
}

// IsMapped reports whether s is replaced by a package reference.
func (g *Graph) IsMapped(s specifier.Specifier) bool {
	return g.mapped[s]
}

// Len returns the number of modules.
func (g *Graph) Len() int {
	return len(g.modules)
}

// Modules returns every module specifier, sorted.
func (g *Graph) Modules() []specifier.Specifier {
	return g.filter(func(*Module) bool { return true })
}

// MainModules returns the modules reachable from an ordinary entry point.
func (g *Graph) MainModules() []specifier.Specifier {
	return g.filter(func(m *Module) bool { return m.Main })
}

// TestOnlyModules returns the modules reachable only from test entry points.
func (g *Graph) TestOnlyModules() []specifier.Specifier {
	return g.filter((*Module).TestOnly)
}

func (g *Graph) filter(keep func(*Module) bool) []specifier.Specifier {
	out := make([]specifier.Specifier, 0, len(g.modules))
	for s, m := range g.modules {
		if keep(m) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// EntryPoints returns the canonical ordinary entry points in the order given.
func (g *Graph) EntryPoints() []specifier.Specifier {
	return append([]specifier.Specifier(nil), g.roots...)
}

// TestEntryPoints returns the canonical test entry points in the order given.
func (g *Graph) TestEntryPoints() []specifier.Specifier {
	return append([]specifier.Specifier(nil), g.testRoots...)
}

// Redirects returns the collapsed redirect table: every redirected specifier
// mapped to its final target.
func (g *Graph) Redirects() map[specifier.Specifier]specifier.Specifier {
	out := make(map[specifier.Specifier]specifier.Specifier, len(g.redirects))
	for from := range g.redirects {
		out[from] = g.Canonical(from)
	}
	return out
}

// Dependencies returns the direct dependencies of a module.
func (g *Graph) Dependencies(s specifier.Specifier) []specifier.Specifier {
	if m := g.modules[s]; m != nil {
		return m.Dependencies
	}
	return nil
}

// Dependents returns modules that directly import the given module.
func (g *Graph) Dependents(s specifier.Specifier) []specifier.Specifier {
	if m := g.modules[s]; m != nil {
		return m.Dependents
	}
	return nil
}

// MappedImports returns the mapped specifiers a module imports, sorted.
func (g *Graph) MappedImports(s specifier.Specifier) []specifier.Specifier {
	m := g.modules[s]
	if m == nil {
		return nil
	}
	set := make(map[specifier.Specifier]bool)
	for _, target := range m.Imports {
		if g.mapped[target] {
			set[target] = true
		}
	}
	return sortedKeys(set)
}

// TransitiveDeps returns all transitive dependencies of a module in
// breadth-first order.
func (g *Graph) TransitiveDeps(s specifier.Specifier) []specifier.Specifier {
	result := make([]specifier.Specifier, 0)
	visited := map[specifier.Specifier]bool{s: true}

	queue := []specifier.Specifier{s}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, dep := range g.Dependencies(current) {
			if !visited[dep] {
				visited[dep] = true
				result = append(result, dep)
				queue = append(queue, dep)
			}
		}
	}

	return result
}

// Path finds the shortest import path from one module to another.
// Returns nil if no path exists.
func (g *Graph) Path(from, to specifier.Specifier) []specifier.Specifier {
	if !g.Contains(from) {
		return nil
	}
	if from == to {
		return []specifier.Specifier{from}
	}

	type queueItem struct {
		spec specifier.Specifier
		path []specifier.Specifier
	}

	visited := map[specifier.Specifier]bool{from: true}
	queue := []queueItem{{spec: from, path: []specifier.Specifier{from}}}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, dep := range g.Dependencies(current.spec) {
			if dep == to {
				return append(current.path, dep)
			}
			if !visited[dep] {
				visited[dep] = true
				newPath := make([]specifier.Specifier, len(current.path)+1)
				copy(newPath, current.path)
				newPath[len(current.path)] = dep
				queue = append(queue, queueItem{spec: dep, path: newPath})
			}
		}
	}

	return nil
}
