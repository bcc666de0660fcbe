// Package nodetransform converts a graph of URL-addressed modules into a tree
// of Node-compatible source files.
//
// Every import and export source string is retargeted to the new layout:
// modules in the graph become relative references between output files,
// specifiers declared in Options.SpecifierMappings become bare package
// references, and anything that cannot be resolved is left as written.
// Globals such as Deno can be backed by shim packages, injected only into
// the modules that reference them.
//
// # Quick Start
//
//	out, err := nodetransform.Transform(ctx, nodetransform.Options{
//	    EntryPoints: []string{"file:///project/mod.ts"},
//	    SpecifierMappings: map[string]nodetransform.MappedSpecifier{
//	        "https://esm.sh/chalk@5": {Name: "chalk", Version: "^5.0.0"},
//	    },
//	    Shims: []nodetransform.Shim{{
//	        Package:     nodetransform.MappedSpecifier{Name: "@deno/shim-deno", Version: "~0.19.0"},
//	        GlobalNames: []nodetransform.GlobalName{{Name: "Deno"}},
//	    }},
//	})
//	if err != nil {
//	    return err
//	}
//	return out.WriteDir("npm/src")
//
// # Environments
//
// Modules reachable from an ordinary entry point form the main environment
// and receive Options.Shims. Modules reachable only from a test entry point
// form the test environment and receive Options.TestShims. A module reachable
// from both is emitted once, in the main environment.
//
// # Loading
//
// Source is fetched through a loader.Loader. The default handles file:,
// http: and https: specifiers and caches responses. Use WithLoader to supply
// another, for example an in-memory loader in tests.
//
// # Thread Safety
//
// Transform and BuildGraph are safe to call concurrently. The returned
// values are not modified after they are returned.
package nodetransform

import (
	"context"
	"fmt"

	"github.com/albertocavalcante/go-nodetransform/graph"
)

// Transform builds the module graph for opts and rewrites every module in it.
func Transform(ctx context.Context, opts Options, options ...Option) (*TransformOutput, error) {
	cfg, err := newTransformConfig(options...)
	if err != nil {
		return nil, err
	}
	p, err := opts.compile()
	if err != nil {
		return nil, err
	}
	return newTransformer(cfg, p).run(ctx)
}

// BuildGraph builds and returns the module graph for opts without rewriting
// anything.
func BuildGraph(ctx context.Context, opts Options, options ...Option) (*graph.Graph, error) {
	cfg, err := newTransformConfig(options...)
	if err != nil {
		return nil, err
	}
	p, err := opts.compile()
	if err != nil {
		return nil, err
	}
	g, err := graph.Build(ctx, p.buildOptions(cfg))
	if err != nil {
		return nil, fmt.Errorf("build graph: %w", err)
	}
	return g, nil
}
