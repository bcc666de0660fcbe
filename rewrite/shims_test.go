package rewrite

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var denoShim = Shim{
	Package:     MappedSpecifier{Name: "@deno/shim-deno", Version: "~0.19.0"},
	GlobalNames: []GlobalName{{Name: "Deno"}},
}

func applyShims(t *testing.T, src string, shims ...Shim) (string, []MappedSpecifier) {
	t.Helper()
	mod := parseModule(t, "file:///p/mod.ts", src)
	changes, used := ShimTextChanges(mod.Parsed, shims)
	out, err := Apply(src, changes)
	require.NoError(t, err)
	return out, used
}

func TestShimTextChanges_OneImportPerPackage(t *testing.T) {
	src := `console.log(Deno.args);
Deno.exit(Deno.pid);
`
	got, used := applyShims(t, src, denoShim)

	want := `import { Deno } from "@deno/shim-deno";
console.log(Deno.args);
Deno.exit(Deno.pid);
`
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 1, strings.Count(got, `from "@deno/shim-deno"`))
	assert.Equal(t, []MappedSpecifier{denoShim.Package}, used)
}

func TestShimTextChanges_Unreferenced(t *testing.T) {
	mod := parseModule(t, "file:///p/mod.ts", "export const x = 1;\n")
	changes, used := ShimTextChanges(mod.Parsed, []Shim{denoShim})
	assert.Empty(t, changes)
	assert.Empty(t, used)
}

func TestShimTextChanges_Shadowed(t *testing.T) {
	src := `const Deno = { exit() {} };
Deno.exit();
`
	mod := parseModule(t, "file:///p/mod.ts", src)
	changes, _ := ShimTextChanges(mod.Parsed, []Shim{denoShim})
	assert.Empty(t, changes)
}

func TestShimTextChanges_Merged(t *testing.T) {
	timers := MappedSpecifier{Name: "@deno/shim-timers", Version: "~0.1.0"}
	src := `setTimeout(() => {}, 1);
setInterval(() => {}, 1);
`
	got, used := applyShims(t, src,
		Shim{Package: timers, GlobalNames: []GlobalName{{Name: "setTimeout"}}},
		Shim{Package: timers, GlobalNames: []GlobalName{{Name: "setInterval"}, {Name: "setTimeout"}}},
	)

	assert.True(t, strings.HasPrefix(got, "import { setInterval, setTimeout } from \"@deno/shim-timers\";\n"), got)
	assert.Equal(t, 1, strings.Count(got, "import "))
	assert.Equal(t, []MappedSpecifier{timers}, used)
}

func TestShimTextChanges_Forms(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		shim  Shim
		first string
	}{
		{
			name: "renamed export",
			src:  "fetch(url);\n",
			shim: Shim{
				Package:     MappedSpecifier{Name: "undici"},
				GlobalNames: []GlobalName{{Name: "fetch", ExportName: "undiciFetch"}},
			},
			first: `import { undiciFetch as fetch } from "undici";`,
		},
		{
			name: "type only",
			src:  "let b: Blob;\n",
			shim: Shim{
				Package:     MappedSpecifier{Name: "buffer"},
				GlobalNames: []GlobalName{{Name: "Blob", TypeOnly: true}},
			},
			first: `import type { Blob } from "buffer";`,
		},
		{
			name: "mixed",
			src:  "let b: Blob = new Foo();\n",
			shim: Shim{
				Package:     MappedSpecifier{Name: "x"},
				GlobalNames: []GlobalName{{Name: "Foo"}, {Name: "Blob", TypeOnly: true}},
			},
			first: `import { type Blob, Foo } from "x";`,
		},
		{
			name: "subpath",
			src:  "crypto.randomUUID();\n",
			shim: Shim{
				Package:     MappedSpecifier{Name: "@deno/shim-crypto", SubPath: "web"},
				GlobalNames: []GlobalName{{Name: "crypto"}},
			},
			first: `import { crypto } from "@deno/shim-crypto/web";`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := applyShims(t, tt.src, tt.shim)
			lines := strings.SplitN(got, "\n", 2)
			assert.Equal(t, tt.first, lines[0])
			assert.Equal(t, tt.src, lines[1])
		})
	}
}

func TestShimTextChanges_JavaScriptSkipsTypeNames(t *testing.T) {
	pkg := MappedSpecifier{Name: "x"}
	shim := Shim{
		Package:     pkg,
		GlobalNames: []GlobalName{{Name: "Foo"}, {Name: "Blob", TypeOnly: true}},
	}

	for _, spec := range []string{"file:///p/mod.js", "file:///p/view.jsx"} {
		t.Run(spec, func(t *testing.T) {
			mixed := "const b = new Blob();\nnew Foo();\n"
			mod := parseModule(t, spec, mixed)
			changes, used := ShimTextChanges(mod.Parsed, []Shim{shim})
			got, err := Apply(mixed, changes)
			require.NoError(t, err)
			assert.Equal(t, "import { Foo } from \"x\";\n"+mixed, got)
			assert.Equal(t, []MappedSpecifier{pkg}, used)

			typesOnly := "const b = new Blob();\n"
			mod = parseModule(t, spec, typesOnly)
			changes, used = ShimTextChanges(mod.Parsed, []Shim{shim})
			assert.Empty(t, changes)
			assert.Empty(t, used)
		})
	}
}

func TestShimTextChanges_AfterPrologue(t *testing.T) {
	src := `#!/usr/bin/env node
"use strict";
Deno.exit();
`
	got, _ := applyShims(t, src, denoShim)
	want := `#!/usr/bin/env node
"use strict";
import { Deno } from "@deno/shim-deno";
Deno.exit();
`
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestShimTextChanges_WithSpecifierChanges(t *testing.T) {
	src := `import { a } from "./a.ts";
Deno.exit(a);
`
	mod := parseModule(t, "file:///p/mod.ts", src)
	classifier := &Classifier{Mappings: newMappings(t, "file:///p/mod.ts", "file:///p/a.ts")}

	changes, _, err := SpecifierTextChanges(mod, knownResolver("file:///p/a.ts"), classifier)
	require.NoError(t, err)
	shimChanges, _ := ShimTextChanges(mod.Parsed, []Shim{denoShim})

	got, err := Apply(src, append(shimChanges, changes...))
	require.NoError(t, err)
	want := `import { Deno } from "@deno/shim-deno";
import { a } from "./a.js";
Deno.exit(a);
`
	assert.Equal(t, want, got)
}

func TestApply(t *testing.T) {
	text := "0123456789"
	tests := []struct {
		name    string
		changes []TextChange
		want    string
		wantErr error
	}{
		{name: "none", want: text},
		{
			name:    "unsorted",
			changes: []TextChange{{Start: 7, End: 9, NewText: "x"}, {Start: 1, End: 3, NewText: "yy"}},
			want:    "0yy3456x9",
		},
		{
			name:    "insertions keep order",
			changes: []TextChange{{Start: 0, End: 0, NewText: "a"}, {Start: 0, End: 0, NewText: "b"}, {Start: 0, End: 2, NewText: "c"}},
			want:    "abc23456789",
		},
		{
			name:    "adjacent",
			changes: []TextChange{{Start: 2, End: 4, NewText: "-"}, {Start: 4, End: 6, NewText: "+"}},
			want:    "01-+6789",
		},
		{
			name:    "overlap",
			changes: []TextChange{{Start: 2, End: 5}, {Start: 4, End: 6}},
			wantErr: ErrOverlappingChanges,
		},
		{
			name:    "past end",
			changes: []TextChange{{Start: 8, End: 11}},
			wantErr: ErrChangeOutOfRange,
		},
		{
			name:    "inverted",
			changes: []TextChange{{Start: 5, End: 4}},
			wantErr: ErrChangeOutOfRange,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Apply(text, tt.changes)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestApply_OrderIndependent(t *testing.T) {
	text := `import "a"; import "b"; import "c";`
	changes := []TextChange{
		{Start: 8, End: 9, NewText: "./a.js"},
		{Start: 20, End: 21, NewText: "./b.js"},
		{Start: 32, End: 33, NewText: "./c.js"},
	}
	want, err := Apply(text, changes)
	require.NoError(t, err)

	reversed := []TextChange{changes[2], changes[0], changes[1]}
	got, err := Apply(text, reversed)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, `import "./a.js"; import "./b.js"; import "./c.js";`, got)
}
