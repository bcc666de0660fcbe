package mappings

import (
	"path"
	"strings"

	"github.com/albertocavalcante/go-nodetransform/specifier"
)

// emitExtensions maps source extensions to the extension a relative import
// must use in emitted code.
var emitExtensions = map[string]string{
	".ts":    ".js",
	".tsx":   ".js",
	".jsx":   ".js",
	".d.ts":  ".js",
	".mts":   ".mjs",
	".d.mts": ".mjs",
	".cts":   ".cjs",
	".d.cts": ".cjs",
}

// EmitPath returns p with its extension replaced by the one used in emitted
// import specifiers: TypeScript and JSX sources become .js, JSON is kept.
func EmitPath(p string) string {
	stem, ext := specifier.SplitExtension(p)
	if emit, ok := emitExtensions[strings.ToLower(ext)]; ok {
		return stem + emit
	}
	return p
}

// RelativeSpecifier returns the import text that reaches toPath from the file
// at fromPath. Both are slash-separated output paths. The result always
// starts with "./" or "../" and carries the emitted extension.
func RelativeSpecifier(fromPath, toPath string) string {
	from := splitPath(path.Dir(path.Clean(fromPath)))
	to := splitPath(path.Clean(toPath))

	common := 0
	for common < len(from) && common < len(to)-1 && from[common] == to[common] {
		common++
	}

	var sb strings.Builder
	ups := len(from) - common
	if ups == 0 {
		sb.WriteString("./")
	}
	for i := 0; i < ups; i++ {
		sb.WriteString("../")
	}
	sb.WriteString(strings.Join(to[common:], "/"))
	return EmitPath(sb.String())
}

func splitPath(p string) []string {
	if p == "." || p == "" || p == "/" {
		return nil
	}
	return strings.Split(strings.Trim(p, "/"), "/")
}
