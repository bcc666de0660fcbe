// Package e2e runs the transform against real files and an HTTP server,
// through the default loader and a config file.
package e2e

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albertocavalcante/go-nodetransform"
	"github.com/albertocavalcante/go-nodetransform/config"
	"github.com/albertocavalcante/go-nodetransform/graph"
	"github.com/albertocavalcante/go-nodetransform/loader"
)

// moduleServer serves TypeScript modules by path. /lib/mod.ts redirects to
// the versioned copy.
type moduleServer struct {
	*httptest.Server
	redirects atomic.Int32
}

func newModuleServer(t *testing.T) *moduleServer {
	t.Helper()
	files := map[string]string{
		"/lib@1.0.0/mod.ts":  "import { pad } from \"./util.ts\";\nexport function greet(n: string) {\n  return pad(\"hi \" + n);\n}\n",
		"/lib@1.0.0/util.ts": "export const pad = (s: string) => s.padStart(10);\n",
	}
	s := &moduleServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/lib/mod.ts" {
			s.redirects.Add(1)
			http.Redirect(w, r, "/lib@1.0.0/mod.ts", http.StatusFound)
			return
		}
		text, ok := files[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/typescript")
		_, _ = w.Write([]byte(text))
	}))
	t.Cleanup(s.Close)
	return s
}

// depsDir returns the output directory of modules served by s.
func (s *moduleServer) depsDir(t *testing.T) string {
	t.Helper()
	u, err := url.Parse(s.URL)
	require.NoError(t, err)
	return "deps/http_" + strings.ReplaceAll(u.Host, ":", "_")
}

func writeFile(t *testing.T, path, text string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(text), 0o644))
}

func TestTransformProject(t *testing.T) {
	srv := newModuleServer(t)
	dir := t.TempDir()

	writeFile(t, filepath.Join(dir, "src", "mod.ts"), `import { greet } from "`+srv.URL+`/lib/mod.ts";
import chalk from "https://esm.sh/chalk@5";
console.log(chalk.green(greet("node")));
`)
	writeFile(t, filepath.Join(dir, "src", "mod_test.ts"), `import "./mod.ts";
Deno.test("greet", () => {});
`)
	writeFile(t, filepath.Join(dir, "transform.yaml"), `entryPoints: [src/mod.ts]
testEntryPoints: [src/mod_test.ts]
specifierMappings:
  https://esm.sh/chalk@5:
    name: chalk
    version: ^5.0.0
testShims:
  - package: "@deno/shim-deno-test"
    version: ~0.5.0
    globals: [Deno]
outDir: npm
`)

	cfg, err := config.LoadFile(filepath.Join(dir, "transform.yaml"))
	require.NoError(t, err)

	out, err := nodetransform.Transform(context.Background(), cfg.Options(),
		nodetransform.WithLoader(loader.Default()))
	require.NoError(t, err)
	require.NoError(t, out.WriteDir(cfg.OutDir))

	deps := srv.depsDir(t)
	want := map[string]string{
		"mod.ts": `import { greet } from "./` + deps + `/lib@1.0.0/mod.js";
import chalk from "chalk";
console.log(chalk.green(greet("node")));
`,
		"mod_test.ts": `import { Deno } from "@deno/shim-deno-test";
import "./mod.js";
Deno.test("greet", () => {});
`,
		deps + "/lib@1.0.0/mod.ts":  "import { pad } from \"./util.js\";\nexport function greet(n: string) {\n  return pad(\"hi \" + n);\n}\n",
		deps + "/lib@1.0.0/util.ts": "export const pad = (s: string) => s.padStart(10);\n",
	}

	got := make(map[string]string)
	err = filepath.WalkDir(cfg.OutDir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(cfg.OutDir, path)
		if err != nil {
			return err
		}
		got[filepath.ToSlash(rel)] = string(data)
		return nil
	})
	require.NoError(t, err)

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("output tree mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []nodetransform.Dependency{{Name: "chalk", Version: "^5.0.0"}}, out.Main.Dependencies)
	assert.Equal(t, []nodetransform.Dependency{{Name: "@deno/shim-deno-test", Version: "~0.5.0"}}, out.Test.Dependencies)
	assert.Equal(t, []string{"mod.ts"}, out.Main.EntryPoints)
	assert.Equal(t, []string{"mod_test.ts"}, out.Test.EntryPoints)
	assert.Empty(t, out.Warnings)
	assert.EqualValues(t, 1, srv.redirects.Load(), "redirected module fetched once")
}

func TestTransformProject_MissingRemote(t *testing.T) {
	srv := newModuleServer(t)
	dir := t.TempDir()
	mod := filepath.Join(dir, "mod.ts")
	writeFile(t, mod, `import "`+srv.URL+`/missing.ts";`+"\n")

	entry, err := config.ResolveReference(dir, "mod.ts")
	require.NoError(t, err)

	_, err = nodetransform.Transform(context.Background(), nodetransform.Options{EntryPoints: []string{entry}})
	require.Error(t, err)

	var loadErr *graph.LoadError
	require.True(t, errors.As(err, &loadErr), "error = %v", err)
	assert.Equal(t, srv.URL+"/missing.ts", loadErr.Specifier.String())
	assert.Equal(t, entry, loadErr.Referrer.String())

	var status *loader.StatusError
	require.True(t, errors.As(err, &status), "error = %v", err)
	assert.Equal(t, http.StatusNotFound, status.StatusCode)
	assert.ErrorIs(t, err, nodetransform.ErrNotFound)
}
