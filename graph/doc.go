// Package graph builds the redirect-collapsed module graph a transform runs
// over, and answers the queries the rewrite phase and the CLI need.
//
// # Building a Graph
//
// Build walks the closure of the ordinary and test entry points, loading each
// module exactly once through a [loader.Loader]:
//
//	g, err := graph.Build(ctx, graph.BuildOptions{
//		EntryPoints: []specifier.Specifier{specifier.MustParse("file:///src/mod.ts")},
//		Loader:      loader.Default(),
//	})
//
// Redirects, whether declared in BuildOptions or reported by the loader, are
// collapsed before a module is created, so every import resolves to one
// canonical specifier. Specifiers listed in BuildOptions.Mapped are terminal:
// they are never loaded and resolve to themselves.
//
// # Querying the Graph
//
// Once built, the graph is read-only and safe for concurrent use:
//
//	target, ok := g.ResolveDependency("./util.ts", referrer)
//	deps := g.Dependencies(spec)
//	path := g.Path(from, to)
//
// # Output Formats
//
//	dot := g.ToDOT()
//	text := g.ToText()
//	data, _ := g.ToJSON()
package graph
