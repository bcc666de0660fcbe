package graph

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/albertocavalcante/go-nodetransform/loader"
	"github.com/albertocavalcante/go-nodetransform/parser"
	"github.com/albertocavalcante/go-nodetransform/specifier"
)

// Build loads and parses the closure of the entry points.
//
// Modules are fetched by a fixed pool of workers; each canonical specifier is
// loaded at most once. The first load, parse or redirect error cancels the
// remaining work and is returned.
func Build(ctx context.Context, opts BuildOptions) (*Graph, error) {
	if len(opts.EntryPoints) == 0 && len(opts.TestEntryPoints) == 0 {
		return nil, ErrNoEntryPoints
	}
	if opts.Loader == nil {
		return nil, errors.New("graph: loader is required")
	}

	b := newBuilder(opts)
	if err := b.run(ctx, opts.EntryPoints, opts.TestEntryPoints); err != nil {
		return nil, err
	}
	return b.finish()
}

type builder struct {
	loader      loader.Loader
	logger      *slog.Logger
	concurrency int
	mapped      map[specifier.Specifier]bool

	mu        sync.RWMutex
	redirects map[specifier.Specifier]specifier.Specifier
	modules   map[specifier.Specifier]*Module

	// visited holds every specifier handed to a worker, keyed canonically.
	visited sync.Map

	roots     []specifier.Specifier
	testRoots []specifier.Specifier
}

func newBuilder(opts BuildOptions) *builder {
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(discardHandler{})
	}

	redirects := make(map[specifier.Specifier]specifier.Specifier, len(opts.Redirects))
	for from, to := range opts.Redirects {
		redirects[from] = to
	}
	mapped := make(map[specifier.Specifier]bool, len(opts.Mapped))
	for s, ok := range opts.Mapped {
		if ok {
			mapped[s] = true
		}
	}

	return &builder{
		loader:      opts.Loader,
		logger:      logger,
		concurrency: concurrency,
		mapped:      mapped,
		redirects:   redirects,
		modules:     make(map[specifier.Specifier]*Module),
	}
}

type loadTask struct {
	spec     specifier.Specifier
	referrer specifier.Specifier
}

func (b *builder) run(ctx context.Context, entries, testEntries []specifier.Specifier) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var errOnce sync.Once
	var firstErr error

	setErr := func(err error) {
		if err == nil {
			return
		}
		errOnce.Do(func() {
			firstErr = err
			cancel()
		})
	}

	tasks := make(chan loadTask, b.concurrency)
	var tasksWG sync.WaitGroup
	var workersWG sync.WaitGroup

	enqueue := func(spec, referrer specifier.Specifier) {
		if ctx.Err() != nil {
			return
		}
		if _, visited := b.visited.LoadOrStore(spec, struct{}{}); visited {
			return
		}
		tasksWG.Add(1)
		t := loadTask{spec: spec, referrer: referrer}
		select {
		case tasks <- t:
		default:
			// Workers enqueue too; hand off instead of blocking a worker
			// on a full channel.
			go func() {
				select {
				case tasks <- t:
				case <-ctx.Done():
					tasksWG.Done()
				}
			}()
		}
	}

	worker := func() {
		defer workersWG.Done()
		for task := range tasks {
			if ctx.Err() != nil {
				tasksWG.Done()
				continue
			}
			if err := b.process(ctx, task, enqueue); err != nil {
				setErr(err)
			}
			tasksWG.Done()
		}
	}

	for i := 0; i < b.concurrency; i++ {
		workersWG.Add(1)
		go worker()
	}

	seed := func(list []specifier.Specifier) []specifier.Specifier {
		out := make([]specifier.Specifier, 0, len(list))
		for _, entry := range list {
			canon, err := b.canonical(entry)
			if err != nil {
				setErr(err)
				return nil
			}
			if b.mapped[canon] {
				setErr(fmt.Errorf("%w: %s", ErrMappedEntryPoint, entry))
				return nil
			}
			out = append(out, canon)
			enqueue(canon, specifier.Specifier{})
		}
		return out
	}
	b.roots = seed(entries)
	b.testRoots = seed(testEntries)

	go func() {
		tasksWG.Wait()
		close(tasks)
	}()

	workersWG.Wait()

	if firstErr != nil {
		return firstErr
	}
	return ctx.Err()
}

func (b *builder) process(ctx context.Context, task loadTask, enqueue func(spec, referrer specifier.Specifier)) error {
	b.logger.Debug("loading module", "specifier", task.spec.String())

	resp, err := b.loader.Load(ctx, task.spec)
	if err != nil {
		return &LoadError{Specifier: task.spec, Referrer: task.referrer, Err: err}
	}

	spec := task.spec
	if !resp.Specifier.IsZero() && resp.Specifier != task.spec {
		b.logger.Debug("loader redirect", "from", task.spec.String(), "to", resp.Specifier.String())
		b.addRedirect(task.spec, resp.Specifier)
		if spec, err = b.canonical(resp.Specifier); err != nil {
			return err
		}
		if b.mapped[spec] {
			return nil
		}
		if _, visited := b.visited.LoadOrStore(spec, struct{}{}); visited {
			return nil
		}
	}

	media := resp.MediaType
	if media == specifier.Unknown {
		media = specifier.DetectMediaType(spec, "")
	}
	parsed, err := parser.Parse(ctx, spec.String(), resp.Content, media)
	if err != nil {
		return &LoadError{Specifier: spec, Referrer: task.referrer, Err: err}
	}

	mod := &Module{
		Specifier: spec,
		MediaType: media,
		Content:   resp.Content,
		Parsed:    parsed,
		Imports:   make(map[string]specifier.Specifier, len(parsed.Sources)),
	}

	for _, src := range parsed.Sources {
		if !src.Literal.Valid {
			continue
		}
		raw := src.Literal.Value
		if _, seen := mod.Imports[raw]; seen {
			continue
		}
		target, err := specifier.Resolve(raw, spec)
		if err != nil {
			b.logger.Debug("unresolved specifier", "specifier", raw, "referrer", spec.String(), "reason", err)
			continue
		}
		canon, err := b.canonical(target)
		if err != nil {
			return err
		}
		mod.Imports[raw] = canon
		if !b.mapped[canon] {
			enqueue(canon, spec)
		}
	}

	b.mu.Lock()
	b.modules[spec] = mod
	b.mu.Unlock()
	return nil
}

func (b *builder) addRedirect(from, to specifier.Specifier) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.redirects[from]; !exists {
		b.redirects[from] = to
	}
}

// canonical follows redirects from s until a terminal specifier.
func (b *builder) canonical(s specifier.Specifier) (specifier.Specifier, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return followRedirects(s, b.redirects, b.mapped)
}

func followRedirects(s specifier.Specifier, redirects map[specifier.Specifier]specifier.Specifier, mapped map[specifier.Specifier]bool) (specifier.Specifier, error) {
	chain := []specifier.Specifier{s}
	seen := map[specifier.Specifier]bool{s: true}
	for {
		if mapped[s] {
			return s, nil
		}
		next, ok := redirects[s]
		if !ok || next == s {
			return s, nil
		}
		chain = append(chain, next)
		if seen[next] {
			return specifier.Specifier{}, &RedirectCycleError{Chain: chain}
		}
		seen[next] = true
		s = next
	}
}

// finish re-resolves imports against the complete redirect table and fills
// in reverse edges and partitions.
func (b *builder) finish() (*Graph, error) {
	g := &Graph{
		modules:   b.modules,
		redirects: b.redirects,
		mapped:    b.mapped,
	}

	for _, mod := range g.modules {
		deps := make(map[specifier.Specifier]bool)
		for raw, target := range mod.Imports {
			canon, err := followRedirects(target, g.redirects, g.mapped)
			if err != nil {
				return nil, err
			}
			switch {
			case g.mapped[canon]:
			case g.modules[canon] != nil:
				deps[canon] = true
			default:
				b.logger.Debug("dropping import outside closure", "specifier", raw, "referrer", mod.Specifier.String())
				delete(mod.Imports, raw)
				continue
			}
			mod.Imports[raw] = canon
		}
		mod.Dependencies = sortedKeys(deps)
	}

	for _, spec := range g.Modules() {
		for _, dep := range g.modules[spec].Dependencies {
			d := g.modules[dep]
			d.Dependents = append(d.Dependents, spec)
		}
	}

	var err error
	if g.roots, err = g.canonicalAll(b.roots); err != nil {
		return nil, err
	}
	if g.testRoots, err = g.canonicalAll(b.testRoots); err != nil {
		return nil, err
	}
	g.mark(g.roots, func(m *Module) { m.Main = true })
	g.mark(g.testRoots, func(m *Module) { m.Test = true })

	b.logger.Debug("module graph built", "modules", len(g.modules), "redirects", len(g.redirects))
	return g, nil
}

func (g *Graph) canonicalAll(list []specifier.Specifier) ([]specifier.Specifier, error) {
	out := make([]specifier.Specifier, 0, len(list))
	seen := make(map[specifier.Specifier]bool, len(list))
	for _, s := range list {
		canon, err := followRedirects(s, g.redirects, g.mapped)
		if err != nil {
			return nil, err
		}
		if !seen[canon] {
			seen[canon] = true
			out = append(out, canon)
		}
	}
	return out, nil
}

// mark applies fn to every module reachable from roots.
func (g *Graph) mark(roots []specifier.Specifier, fn func(*Module)) {
	visited := make(map[specifier.Specifier]bool)
	queue := append([]specifier.Specifier(nil), roots...)
	for _, r := range roots {
		visited[r] = true
	}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		mod := g.modules[current]
		if mod == nil {
			continue
		}
		fn(mod)
		for _, dep := range mod.Dependencies {
			if !visited[dep] {
				visited[dep] = true
				queue = append(queue, dep)
			}
		}
	}
}

func sortedKeys(set map[specifier.Specifier]bool) []specifier.Specifier {
	out := make([]specifier.Specifier, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }
