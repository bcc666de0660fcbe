package nodetransform

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Files returns every output file of both environments keyed by path.
func (o *TransformOutput) Files() map[string]string {
	files := make(map[string]string, len(o.Main.Files)+len(o.Test.Files))
	for _, f := range o.Main.Files {
		files[f.Path] = f.Text
	}
	for _, f := range o.Test.Files {
		files[f.Path] = f.Text
	}
	return files
}

// Dependencies returns the packages of both environments, main first.
func (o *TransformOutput) Dependencies() []Dependency {
	deps := make([]Dependency, 0, len(o.Main.Dependencies)+len(o.Test.Dependencies))
	deps = append(deps, o.Main.Dependencies...)
	return append(deps, o.Test.Dependencies...)
}

// WriteDir writes every output file below dir, creating directories as
// needed. Existing files are overwritten.
func (o *TransformOutput) WriteDir(dir string) error {
	files := o.Files()
	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, p := range paths {
		dst := filepath.Join(dir, filepath.FromSlash(p))
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return fmt.Errorf("create directory for %s: %w", p, err)
		}
		if err := os.WriteFile(dst, []byte(files[p]), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", p, err)
		}
	}
	return nil
}
