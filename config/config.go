// Package config loads transform settings from Starlark or YAML files.
//
// A Starlark file is a list of call statements:
//
//	entry_point("mod.ts")
//	test_entry_point("mod_test.ts")
//	specifier_mapping("https://esm.sh/chalk@5", name = "chalk", version = "^5.0.0")
//	redirect("https://deno.land/x/lib/mod.ts", "./vendor/lib.ts")
//	shim(package = "@deno/shim-deno", version = "~0.19.0", globals = ["Deno"])
//	test_shim(package = "@deno/shim-deno-test", globals = ["Deno"])
//	output(dir = "npm")
//
// The YAML form carries the same fields (see the yaml tags on yamlFile).
// Entry points, redirects and mapping keys that are not absolute URLs are
// file paths relative to the directory of the config file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/albertocavalcante/go-nodetransform"
	"github.com/albertocavalcante/go-nodetransform/specifier"
)

// ErrUnknownFormat indicates a config file whose format cannot be inferred
// from its name.
var ErrUnknownFormat = errors.New("unknown config format")

// ErrInvalid indicates a config file with invalid content.
var ErrInvalid = errors.New("invalid config")

// Error reports a problem at a line of a config file.
type Error struct {
	File string
	Line int
	Msg  string
}

func (e *Error) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.File, e.Msg)
}

// Is reports whether target is ErrInvalid.
func (e *Error) Is(target error) bool {
	return target == ErrInvalid
}

// Config is the content of a config file.
type Config struct {
	EntryPoints       []string
	TestEntryPoints   []string
	SpecifierMappings map[string]nodetransform.MappedSpecifier
	Redirects         map[string]string
	Shims             []nodetransform.Shim
	TestShims         []nodetransform.Shim

	// OutDir is the output directory. Empty when not set.
	OutDir string
}

// Options returns the transform options described by c.
func (c *Config) Options() nodetransform.Options {
	return nodetransform.Options{
		EntryPoints:       c.EntryPoints,
		TestEntryPoints:   c.TestEntryPoints,
		SpecifierMappings: c.SpecifierMappings,
		Redirects:         c.Redirects,
		Shims:             c.Shims,
		TestShims:         c.TestShims,
	}
}

// LoadFile reads and parses a config file. Files ending in .yaml or .yml are
// YAML; files ending in .star or .bzl, or named transform.bazel, are
// Starlark. Relative paths inside the file are resolved against its
// directory.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var c *Config
	switch ext := strings.ToLower(filepath.Ext(path)); {
	case ext == ".yaml" || ext == ".yml":
		c, err = ParseYAML(path, data)
	case ext == ".star" || ext == ".bzl" || filepath.Base(path) == "transform.bazel":
		c, err = ParseStarlark(path, data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}
	if err != nil {
		return nil, err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}
	if err := c.resolve(filepath.Dir(abs)); err != nil {
		return nil, &Error{File: path, Msg: err.Error()}
	}
	return c, nil
}

// resolve turns relative file references into file: specifiers and makes
// OutDir absolute, both relative to baseDir.
func (c *Config) resolve(baseDir string) error {
	var err error
	if c.EntryPoints, err = resolveAll(baseDir, c.EntryPoints); err != nil {
		return err
	}
	if c.TestEntryPoints, err = resolveAll(baseDir, c.TestEntryPoints); err != nil {
		return err
	}
	if len(c.Redirects) > 0 {
		redirects := make(map[string]string, len(c.Redirects))
		for from, to := range c.Redirects {
			f, err := ResolveReference(baseDir, from)
			if err != nil {
				return err
			}
			t, err := ResolveReference(baseDir, to)
			if err != nil {
				return err
			}
			redirects[f] = t
		}
		c.Redirects = redirects
	}
	if len(c.SpecifierMappings) > 0 {
		mappings := make(map[string]nodetransform.MappedSpecifier, len(c.SpecifierMappings))
		for from, to := range c.SpecifierMappings {
			f, err := ResolveReference(baseDir, from)
			if err != nil {
				return err
			}
			mappings[f] = to
		}
		c.SpecifierMappings = mappings
	}
	if c.OutDir != "" && !filepath.IsAbs(c.OutDir) {
		c.OutDir = filepath.Join(baseDir, filepath.FromSlash(c.OutDir))
	}
	return nil
}

func resolveAll(baseDir string, refs []string) ([]string, error) {
	if len(refs) == 0 {
		return refs, nil
	}
	out := make([]string, len(refs))
	for i, r := range refs {
		s, err := ResolveReference(baseDir, r)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

// ResolveReference returns ref as an absolute specifier string. URLs are
// normalized; anything else is a file path, made absolute against baseDir.
func ResolveReference(baseDir, ref string) (string, error) {
	if strings.Contains(ref, "://") {
		s, err := specifier.Parse(ref)
		if err != nil {
			return "", err
		}
		return s.String(), nil
	}
	p := filepath.FromSlash(ref)
	if !filepath.IsAbs(p) {
		p = filepath.Join(baseDir, p)
	}
	s, err := specifier.FromFilePath(p)
	if err != nil {
		return "", err
	}
	return s.String(), nil
}

// shimFromGlobals builds a shim from plain, type-only and renamed globals.
func shimFromGlobals(pkg nodetransform.MappedSpecifier, globals, typeGlobals []string, exportNames map[string]string) nodetransform.Shim {
	shim := nodetransform.Shim{Package: pkg}
	add := func(names []string, typeOnly bool) {
		for _, n := range names {
			shim.GlobalNames = append(shim.GlobalNames, nodetransform.GlobalName{
				Name:       n,
				ExportName: exportNames[n],
				TypeOnly:   typeOnly,
			})
		}
	}
	add(globals, false)
	add(typeGlobals, true)
	return shim
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
