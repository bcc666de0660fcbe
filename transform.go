package nodetransform

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/albertocavalcante/go-nodetransform/graph"
	"github.com/albertocavalcante/go-nodetransform/mappings"
	"github.com/albertocavalcante/go-nodetransform/rewrite"
	"github.com/albertocavalcante/go-nodetransform/specifier"
)

// plan is Options with every specifier parsed.
type plan struct {
	entries     []specifier.Specifier
	testEntries []specifier.Specifier
	redirects   map[specifier.Specifier]specifier.Specifier
	mapped      map[specifier.Specifier]MappedSpecifier
	shims       []Shim
	testShims   []Shim

	// versions holds the version chosen for each package name.
	versions map[string]string
	warnings []string
}

func (o Options) compile() (*plan, error) {
	if len(o.EntryPoints) == 0 && len(o.TestEntryPoints) == 0 {
		return nil, ErrNoEntryPoints
	}

	p := &plan{
		redirects: make(map[specifier.Specifier]specifier.Specifier, len(o.Redirects)),
		mapped:    make(map[specifier.Specifier]MappedSpecifier, len(o.SpecifierMappings)),
		shims:     o.Shims,
		testShims: o.TestShims,
		versions:  make(map[string]string),
	}

	var err error
	if p.entries, err = parseAll("entry point", o.EntryPoints); err != nil {
		return nil, err
	}
	if p.testEntries, err = parseAll("test entry point", o.TestEntryPoints); err != nil {
		return nil, err
	}
	for from, to := range o.Redirects {
		f, err := parseSpecifier("redirect source", from)
		if err != nil {
			return nil, err
		}
		t, err := parseSpecifier("redirect target", to)
		if err != nil {
			return nil, err
		}
		p.redirects[f] = t
	}

	// Mappings are visited in specifier order so the first declaration of a
	// package version is deterministic.
	keys := make([]string, 0, len(o.SpecifierMappings))
	for k := range o.SpecifierMappings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		s, err := parseSpecifier("specifier mapping", k)
		if err != nil {
			return nil, err
		}
		pkg := o.SpecifierMappings[k]
		if pkg.Name == "" {
			return nil, fmt.Errorf("%w: %s has no package name", ErrInvalidMapping, k)
		}
		p.mapped[s] = pkg
		p.declare(pkg)
	}
	for _, shims := range [][]Shim{o.Shims, o.TestShims} {
		for _, shim := range shims {
			if shim.Package.Name == "" {
				return nil, fmt.Errorf("%w: shim has no package name", ErrInvalidMapping)
			}
			p.declare(shim.Package)
		}
	}
	return p, nil
}

// declare records the version of pkg. The first declared version wins; a
// different later version is reported as a warning.
func (p *plan) declare(pkg MappedSpecifier) {
	prev, ok := p.versions[pkg.Name]
	if !ok {
		p.versions[pkg.Name] = pkg.Version
		return
	}
	if pkg.Version != "" && prev != pkg.Version {
		if prev == "" {
			p.versions[pkg.Name] = pkg.Version
			return
		}
		p.warnings = append(p.warnings, fmt.Sprintf("package %s declared with versions %q and %q; using %q", pkg.Name, prev, pkg.Version, prev))
	}
}

func (p *plan) buildOptions(cfg *transformConfig) graph.BuildOptions {
	mapped := make(map[specifier.Specifier]bool, len(p.mapped))
	for s := range p.mapped {
		mapped[s] = true
	}
	return graph.BuildOptions{
		EntryPoints:     p.entries,
		TestEntryPoints: p.testEntries,
		Redirects:       p.redirects,
		Mapped:          mapped,
		Loader:          cfg.loader,
		Concurrency:     cfg.concurrency,
		Logger:          cfg.log(),
	}
}

func parseAll(what string, list []string) ([]specifier.Specifier, error) {
	out := make([]specifier.Specifier, 0, len(list))
	for _, s := range list {
		spec, err := parseSpecifier(what, s)
		if err != nil {
			return nil, err
		}
		out = append(out, spec)
	}
	return out, nil
}

func parseSpecifier(what, s string) (specifier.Specifier, error) {
	spec, err := specifier.Parse(s)
	if err != nil {
		return specifier.Specifier{}, fmt.Errorf("%w: %s %q: %v", ErrInvalidSpecifier, what, s, err)
	}
	return spec, nil
}

type transformer struct {
	cfg  *transformConfig
	plan *plan
}

func newTransformer(cfg *transformConfig, p *plan) *transformer {
	return &transformer{cfg: cfg, plan: p}
}

// moduleResult is the rewrite of one module. Each rewrite goroutine owns
// exactly one slot.
type moduleResult struct {
	path       string
	text       string
	main       bool
	packages   []MappedSpecifier
	unresolved []rewrite.UnresolvedSpecifier
}

func (t *transformer) run(ctx context.Context) (*TransformOutput, error) {
	log := t.cfg.log()

	g, err := graph.Build(ctx, t.plan.buildOptions(t.cfg))
	if err != nil {
		return nil, fmt.Errorf("build graph: %w", err)
	}
	log.Debug("graph built", "modules", g.Len(), "redirects", len(g.Redirects()))

	specs := g.Modules()
	entries := make([]mappings.Entry, len(specs))
	for i, s := range specs {
		entries[i] = mappings.Entry{Specifier: s, MediaType: g.Get(s).MediaType}
	}
	m, err := mappings.New(entries)
	if err != nil {
		return nil, fmt.Errorf("compute output paths: %w", err)
	}

	classifier := &rewrite.Classifier{Mappings: m, SpecifierMappings: t.plan.mapped}
	results := make([]moduleResult, len(specs))

	eg, ctx := errgroup.WithContext(ctx)
	limit := t.cfg.concurrency
	if limit <= 0 {
		limit = graph.DefaultConcurrency
	}
	eg.SetLimit(limit)
	for i, s := range specs {
		i, s := i, s
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := t.rewriteModule(g, m, classifier, g.Get(s))
			if err != nil {
				return fmt.Errorf("rewrite %s: %w", s, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	out := t.assemble(g, m, results)
	log.Info("transform complete",
		"main_files", len(out.Main.Files),
		"test_files", len(out.Test.Files),
		"warnings", len(out.Warnings))
	return out, nil
}

func (t *transformer) rewriteModule(g *graph.Graph, m *mappings.Mappings, c *rewrite.Classifier, mod *graph.Module) (moduleResult, error) {
	res := moduleResult{path: m.MustFilePath(mod.Specifier), main: mod.Main}

	changes, unresolved, err := rewrite.SpecifierTextChanges(mod, g, c)
	if err != nil {
		return res, err
	}
	for _, u := range unresolved {
		t.cfg.log().Debug("leaving specifier unresolved", "specifier", u.Specifier, "position", u.Pos.String())
	}
	res.unresolved = unresolved

	shims := t.plan.shims
	if !mod.Main {
		shims = t.plan.testShims
	}
	shimChanges, used := rewrite.ShimTextChanges(mod.Parsed, shims)
	changes = append(changes, shimChanges...)

	res.text, err = rewrite.Apply(string(mod.Content), changes)
	if err != nil {
		return res, err
	}

	for _, target := range g.MappedImports(mod.Specifier) {
		res.packages = append(res.packages, t.plan.mapped[target])
	}
	res.packages = append(res.packages, used...)
	return res, nil
}

func (t *transformer) assemble(g *graph.Graph, m *mappings.Mappings, results []moduleResult) *TransformOutput {
	out := &TransformOutput{}
	warnings := append([]string(nil), t.plan.warnings...)

	mainDeps := make(map[string]bool)
	testDeps := make(map[string]bool)
	for _, r := range results {
		env, deps := &out.Main, mainDeps
		if !r.main {
			env, deps = &out.Test, testDeps
		}
		env.Files = append(env.Files, OutputFile{Path: r.path, Text: r.text})
		for _, pkg := range r.packages {
			deps[pkg.Name] = true
		}
		for _, u := range r.unresolved {
			warnings = append(warnings, fmt.Sprintf("unresolved specifier %q in %s", u.Specifier, u.Pos))
		}
	}
	for name := range mainDeps {
		delete(testDeps, name)
	}

	out.Main.Dependencies = t.dependencies(mainDeps)
	out.Test.Dependencies = t.dependencies(testDeps)
	out.Main.EntryPoints = outputPaths(m, g.EntryPoints())
	out.Test.EntryPoints = outputPaths(m, g.TestEntryPoints())

	sort.Slice(out.Main.Files, func(i, j int) bool { return out.Main.Files[i].Path < out.Main.Files[j].Path })
	sort.Slice(out.Test.Files, func(i, j int) bool { return out.Test.Files[i].Path < out.Test.Files[j].Path })
	sort.Strings(warnings)
	out.Warnings = warnings
	return out
}

func (t *transformer) dependencies(names map[string]bool) []Dependency {
	if len(names) == 0 {
		return nil
	}
	deps := make([]Dependency, 0, len(names))
	for name := range names {
		deps = append(deps, Dependency{Name: name, Version: t.plan.versions[name]})
	}
	sort.Slice(deps, func(i, j int) bool { return deps[i].Name < deps[j].Name })
	return deps
}

func outputPaths(m *mappings.Mappings, specs []specifier.Specifier) []string {
	if len(specs) == 0 {
		return nil
	}
	out := make([]string, 0, len(specs))
	for _, s := range specs {
		if p, ok := m.FilePath(s); ok {
			out = append(out, p)
		}
	}
	return out
}
