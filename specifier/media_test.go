package specifier

import "testing"

func TestMediaTypeFromPath(t *testing.T) {
	tests := []struct {
		path string
		want MediaType
	}{
		{"/mod.ts", TypeScript},
		{"/mod.mts", TypeScript},
		{"/types.d.ts", Dts},
		{"/types.d.mts", Dts},
		{"/App.tsx", TSX},
		{"/App.jsx", JSX},
		{"/mod.js", JavaScript},
		{"/mod.mjs", JavaScript},
		{"/data.json", JSON},
		{"/MOD.TS", TypeScript},
		{"/react", Unknown},
		{"/", Unknown},
		{"/.ts", Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := MediaTypeFromPath(tt.path); got != tt.want {
				t.Errorf("MediaTypeFromPath(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestMediaTypeFromContentType(t *testing.T) {
	tests := []struct {
		contentType string
		want        MediaType
	}{
		{"application/typescript", TypeScript},
		{"application/typescript; charset=utf-8", TypeScript},
		{"text/javascript", JavaScript},
		{"application/javascript;charset=UTF-8", JavaScript},
		{"text/tsx", TSX},
		{"text/jsx", JSX},
		{"application/json", JSON},
		{"text/html", Unknown},
		{"", Unknown},
	}

	for _, tt := range tests {
		if got := MediaTypeFromContentType(tt.contentType); got != tt.want {
			t.Errorf("MediaTypeFromContentType(%q) = %v, want %v", tt.contentType, got, tt.want)
		}
	}
}

func TestDetectMediaType(t *testing.T) {
	// Extension wins over the header.
	s := MustParse("https://deno.land/x/mod.ts")
	if got := DetectMediaType(s, "application/javascript"); got != TypeScript {
		t.Errorf("DetectMediaType() = %v, want TypeScript", got)
	}

	// Extensionless CDN URL falls back to the header.
	s = MustParse("https://esm.sh/react?target=es2020")
	if got := DetectMediaType(s, "application/javascript"); got != JavaScript {
		t.Errorf("DetectMediaType() = %v, want JavaScript", got)
	}
	if got := DetectMediaType(s, ""); got != Unknown {
		t.Errorf("DetectMediaType() = %v, want Unknown", got)
	}
}

func TestSplitExtension(t *testing.T) {
	tests := []struct {
		in, stem, ext string
	}{
		{"mod.ts", "mod", ".ts"},
		{"types.d.ts", "types", ".d.ts"},
		{"a/b/App.tsx", "a/b/App", ".tsx"},
		{"README", "README", ""},
		{"archive.tar.gz", "archive.tar.gz", ""},
	}
	for _, tt := range tests {
		stem, ext := SplitExtension(tt.in)
		if stem != tt.stem || ext != tt.ext {
			t.Errorf("SplitExtension(%q) = (%q, %q), want (%q, %q)", tt.in, stem, ext, tt.stem, tt.ext)
		}
	}
}

func TestMediaTypeExtension(t *testing.T) {
	tests := map[MediaType]string{
		TypeScript: ".ts",
		TSX:        ".tsx",
		JSX:        ".jsx",
		Dts:        ".d.ts",
		JSON:       ".json",
		JavaScript: ".js",
		Unknown:    ".js",
	}
	for m, want := range tests {
		if got := m.Extension(); got != want {
			t.Errorf("%v.Extension() = %q, want %q", m, got, want)
		}
	}
	if JSON.IsParsable() {
		t.Error("JSON should not be parsable")
	}
	if !TypeScript.IsParsable() {
		t.Error("TypeScript should be parsable")
	}
}

func TestMediaTypeHasTypeSyntax(t *testing.T) {
	want := map[MediaType]bool{
		Unknown:    false,
		JavaScript: false,
		JSX:        false,
		TypeScript: true,
		TSX:        true,
		Dts:        true,
		JSON:       false,
	}
	for m, w := range want {
		if got := m.HasTypeSyntax(); got != w {
			t.Errorf("%v.HasTypeSyntax() = %v, want %v", m, got, w)
		}
	}
}
