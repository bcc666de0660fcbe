package specifier

import (
	"mime"
	"path"
	"strings"
)

// MediaType classifies module source by the syntax it is written in.
type MediaType int

const (
	// Unknown means neither the path nor the content type identified the module.
	Unknown MediaType = iota
	JavaScript
	JSX
	TypeScript
	TSX
	Dts
	JSON
)

var mediaTypeNames = map[MediaType]string{
	Unknown:    "Unknown",
	JavaScript: "JavaScript",
	JSX:        "JSX",
	TypeScript: "TypeScript",
	TSX:        "TSX",
	Dts:        "Dts",
	JSON:       "Json",
}

func (m MediaType) String() string {
	if name, ok := mediaTypeNames[m]; ok {
		return name
	}
	return "Unknown"
}

// Extension returns the file extension used for a module of this media type
// in the output tree.
func (m MediaType) Extension() string {
	switch m {
	case TypeScript:
		return ".ts"
	case TSX:
		return ".tsx"
	case JSX:
		return ".jsx"
	case Dts:
		return ".d.ts"
	case JSON:
		return ".json"
	default:
		return ".js"
	}
}

// IsParsable reports whether modules of this media type can contain imports.
func (m MediaType) IsParsable() bool {
	return m != JSON
}

// HasTypeSyntax reports whether modules of this media type may contain
// TypeScript type syntax such as `import type`.
func (m MediaType) HasTypeSyntax() bool {
	switch m {
	case TypeScript, TSX, Dts:
		return true
	default:
		return false
	}
}

// sourceExtensions lists the recognized module extensions, longest first so
// that ".d.ts" wins over ".ts".
var sourceExtensions = []struct {
	ext   string
	media MediaType
}{
	{".d.mts", Dts},
	{".d.cts", Dts},
	{".d.ts", Dts},
	{".tsx", TSX},
	{".mts", TypeScript},
	{".cts", TypeScript},
	{".ts", TypeScript},
	{".jsx", JSX},
	{".mjs", JavaScript},
	{".cjs", JavaScript},
	{".js", JavaScript},
	{".json", JSON},
}

// SplitExtension splits a path into its stem and a recognized module extension.
// The extension is empty when the path does not end in one.
func SplitExtension(p string) (stem, ext string) {
	lower := strings.ToLower(p)
	for _, e := range sourceExtensions {
		if strings.HasSuffix(lower, e.ext) && len(p) > len(e.ext) {
			return p[:len(p)-len(e.ext)], p[len(p)-len(e.ext):]
		}
	}
	return p, ""
}

// MediaTypeFromPath detects the media type from a path extension.
func MediaTypeFromPath(p string) MediaType {
	_, ext := SplitExtension(path.Base(p))
	if ext == "" {
		return Unknown
	}
	lower := strings.ToLower(ext)
	for _, e := range sourceExtensions {
		if e.ext == lower {
			return e.media
		}
	}
	return Unknown
}

// MediaTypeFromContentType detects the media type from an HTTP Content-Type
// header value.
func MediaTypeFromContentType(contentType string) MediaType {
	if contentType == "" {
		return Unknown
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mt = strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	}
	switch mt {
	case "application/typescript", "text/typescript", "video/vnd.dlna.mpeg-tts",
		"video/mp2t", "application/x-typescript":
		return TypeScript
	case "text/tsx":
		return TSX
	case "text/jsx":
		return JSX
	case "application/javascript", "text/javascript", "application/ecmascript",
		"text/ecmascript", "application/x-javascript", "application/node":
		return JavaScript
	case "application/json", "text/json":
		return JSON
	default:
		return Unknown
	}
}

// DetectMediaType determines the media type of a loaded module. A recognized
// path extension wins; the content type is consulted only when the path has
// none, which is common for CDN URLs.
func DetectMediaType(spec Specifier, contentType string) MediaType {
	if m := MediaTypeFromPath(spec.URL().Path); m != Unknown {
		return m
	}
	return MediaTypeFromContentType(contentType)
}
