package mappings

import (
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/albertocavalcante/go-nodetransform/specifier"
)

func entry(s string, media specifier.MediaType) Entry {
	return Entry{Specifier: specifier.MustParse(s), MediaType: media}
}

func TestNew_LocalAndRemote(t *testing.T) {
	m, err := New([]Entry{
		entry("file:///project/src/mod.ts", specifier.TypeScript),
		entry("file:///project/src/lib/util.ts", specifier.TypeScript),
		entry("file:///project/src/data.json", specifier.JSON),
		entry("https://deno.land/std@0.1.0/path/mod.ts", specifier.TypeScript),
		entry("http://localhost:4545/mod.ts", specifier.TypeScript),
		entry("https://esm.sh/", specifier.JavaScript),
		entry("https://cdn.example.com/types.d.ts", specifier.Dts),
	})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	tests := []struct {
		spec string
		want string
	}{
		{"file:///project/src/mod.ts", "mod.ts"},
		{"file:///project/src/lib/util.ts", "lib/util.ts"},
		{"file:///project/src/data.json", "data.json"},
		{"https://deno.land/std@0.1.0/path/mod.ts", "deps/deno.land/std@0.1.0/path/mod.ts"},
		{"http://localhost:4545/mod.ts", "deps/http_localhost_4545/mod.ts"},
		{"https://esm.sh/", "deps/esm.sh/index.js"},
		{"https://cdn.example.com/types.d.ts", "deps/cdn.example.com/types.d.ts"},
	}
	for _, tt := range tests {
		got, ok := m.FilePath(specifier.MustParse(tt.spec))
		if !ok {
			t.Errorf("FilePath(%s) missing", tt.spec)
			continue
		}
		if got != tt.want {
			t.Errorf("FilePath(%s) = %q, want %q", tt.spec, got, tt.want)
		}
	}
	if m.Len() != len(tests) {
		t.Errorf("Len() = %d, want %d", m.Len(), len(tests))
	}
}

func TestNew_ExtensionFromMediaType(t *testing.T) {
	m, err := New([]Entry{
		entry("https://esm.sh/react@18.2.0", specifier.JavaScript),
		entry("https://example.com/lib.min", specifier.JavaScript),
		entry("https://example.com/typed", specifier.TypeScript),
		entry("https://example.com/mislabeled.js", specifier.TypeScript),
	})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	want := map[string]string{
		"https://esm.sh/react@18.2.0":       "deps/esm.sh/react@18.2.0.js",
		"https://example.com/lib.min":       "deps/example.com/lib.min.js",
		"https://example.com/typed":         "deps/example.com/typed.ts",
		"https://example.com/mislabeled.js": "deps/example.com/mislabeled.ts",
	}
	for s, w := range want {
		if got := m.MustFilePath(specifier.MustParse(s)); got != w {
			t.Errorf("FilePath(%s) = %q, want %q", s, got, w)
		}
	}
}

func TestNew_QueryHashed(t *testing.T) {
	m, err := New([]Entry{
		entry("https://esm.sh/react?target=es2020", specifier.JavaScript),
		entry("https://esm.sh/react?target=es2022", specifier.JavaScript),
		entry("https://esm.sh/react", specifier.JavaScript),
	})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	a := m.MustFilePath(specifier.MustParse("https://esm.sh/react?target=es2020"))
	b := m.MustFilePath(specifier.MustParse("https://esm.sh/react?target=es2022"))
	plain := m.MustFilePath(specifier.MustParse("https://esm.sh/react"))

	pattern := regexp.MustCompile(`^deps/esm\.sh/react_[0-9a-f]{8}\.js$`)
	for _, p := range []string{a, b} {
		if !pattern.MatchString(p) {
			t.Errorf("path %q does not match %s", p, pattern)
		}
	}
	if a == b {
		t.Error("distinct queries should give distinct paths")
	}
	if plain != "deps/esm.sh/react.js" {
		t.Errorf("plain path = %q", plain)
	}
}

func TestNew_Sanitized(t *testing.T) {
	m, err := New([]Entry{
		entry(`https://example.com/a:b/c*d.ts`, specifier.TypeScript),
	})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	got := m.MustFilePath(specifier.MustParse(`https://example.com/a:b/c*d.ts`))
	if got != "deps/example.com/a_b/c_d.ts" {
		t.Errorf("FilePath = %q", got)
	}
}

func TestNew_OrderIndependent(t *testing.T) {
	entries := []Entry{
		entry("file:///p/mod.ts", specifier.TypeScript),
		entry("file:///p/a/b.ts", specifier.TypeScript),
		entry("https://deno.land/x/y.ts", specifier.TypeScript),
	}
	m1, err := New(entries)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	reversed := []Entry{entries[2], entries[1], entries[0]}
	m2, err := New(reversed)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	for _, e := range entries {
		if m1.MustFilePath(e.Specifier) != m2.MustFilePath(e.Specifier) {
			t.Errorf("path for %s depends on input order", e.Specifier)
		}
	}
}

func TestNew_Collision(t *testing.T) {
	tests := []struct {
		name    string
		entries []Entry
	}{
		{
			name: "same output path",
			entries: []Entry{
				entry("https://example.com/mod.ts", specifier.TypeScript),
				entry("https://example.com/mod", specifier.TypeScript),
			},
		},
		{
			name: "same emitted path",
			entries: []Entry{
				entry("file:///p/util.ts", specifier.TypeScript),
				entry("file:///p/util.js", specifier.JavaScript),
			},
		},
		{
			name: "sanitized names meet",
			entries: []Entry{
				entry("https://example.com/a:b.ts", specifier.TypeScript),
				entry("https://example.com/a*b.ts", specifier.TypeScript),
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.entries)
			if !errors.Is(err, ErrPathCollision) {
				t.Fatalf("error = %v, want ErrPathCollision", err)
			}
			var pce *PathCollisionError
			if !errors.As(err, &pce) || pce.First == pce.Second {
				t.Errorf("PathCollisionError should name two specifiers: %v", err)
			}
		})
	}
}

func TestNew_LocalDepsDirEscaped(t *testing.T) {
	m, err := New([]Entry{
		entry("file:///proj/mod.ts", specifier.TypeScript),
		entry("file:///proj/deps/deno.land/x.ts", specifier.TypeScript),
		entry("file:///proj/_deps/y.ts", specifier.TypeScript),
		entry("file:///proj/deps.ts", specifier.TypeScript),
		entry("https://deno.land/x.ts", specifier.TypeScript),
	})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	want := map[string]string{
		"file:///proj/mod.ts":              "mod.ts",
		"file:///proj/deps/deno.land/x.ts": "_deps/deno.land/x.ts",
		"file:///proj/_deps/y.ts":          "__deps/y.ts",
		"file:///proj/deps.ts":             "deps.ts",
		"https://deno.land/x.ts":           "deps/deno.land/x.ts",
	}
	for s, w := range want {
		if got := m.MustFilePath(specifier.MustParse(s)); got != w {
			t.Errorf("FilePath(%s) = %q, want %q", s, got, w)
		}
	}

	from := m.MustFilePath(specifier.MustParse("file:///proj/mod.ts"))
	got, ok := m.ResolveEmitted(from, "./_deps/deno.land/x.js")
	if !ok || got != specifier.MustParse("file:///proj/deps/deno.land/x.ts") {
		t.Errorf("ResolveEmitted(_deps) = %v, %v", got, ok)
	}
}

func TestMustFilePath_Panics(t *testing.T) {
	m, _ := New(nil)
	defer func() {
		if r := recover(); r == nil {
			t.Error("MustFilePath should panic for an unknown specifier")
		}
	}()
	m.MustFilePath(specifier.MustParse("file:///nope.ts"))
}

func TestRelativeSpecifier(t *testing.T) {
	tests := []struct {
		from, to string
		want     string
	}{
		{"mod.ts", "util.ts", "./util.js"},
		{"mod.ts", "lib/util.tsx", "./lib/util.js"},
		{"lib/a.ts", "lib/b.ts", "./b.js"},
		{"lib/a.ts", "mod.ts", "../mod.js"},
		{"a/b/mod.ts", "a/c/x.ts", "../c/x.js"},
		{"mod.ts", "deps/deno.land/std/mod.ts", "./deps/deno.land/std/mod.js"},
		{"deps/deno.land/x/mod.ts", "mod.ts", "../../../mod.js"},
		{"mod.ts", "data.json", "./data.json"},
		{"mod.ts", "types.d.ts", "./types.js"},
		{"mod.ts", "esm.mts", "./esm.mjs"},
		{"mod.ts", "lib.js", "./lib.js"},
	}
	for _, tt := range tests {
		got := RelativeSpecifier(tt.from, tt.to)
		if got != tt.want {
			t.Errorf("RelativeSpecifier(%q, %q) = %q, want %q", tt.from, tt.to, got, tt.want)
		}
		if !strings.HasPrefix(got, "./") && !strings.HasPrefix(got, "../") {
			t.Errorf("RelativeSpecifier(%q, %q) = %q is not relative", tt.from, tt.to, got)
		}
	}
}

func TestResolveEmitted(t *testing.T) {
	m, err := New([]Entry{
		entry("file:///p/mod.ts", specifier.TypeScript),
		entry("file:///p/lib/util.ts", specifier.TypeScript),
		entry("https://deno.land/std/path/mod.ts", specifier.TypeScript),
	})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	// Every relative specifier maps back to the module it was computed for.
	for _, from := range m.Specifiers() {
		for _, to := range m.Specifiers() {
			fromPath, toPath := m.MustFilePath(from), m.MustFilePath(to)
			text := RelativeSpecifier(fromPath, toPath)
			got, ok := m.ResolveEmitted(fromPath, text)
			if !ok || got != to {
				t.Errorf("ResolveEmitted(%q, %q) = %v, %v; want %v", fromPath, text, got, ok, to)
			}
		}
	}

	if _, ok := m.ResolveEmitted("mod.ts", "my-lib"); ok {
		t.Error("bare text should not resolve")
	}
}
