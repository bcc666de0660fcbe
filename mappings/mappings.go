// Package mappings assigns every module in a graph a path in the output tree.
//
// Local (file:) modules keep their layout relative to the longest common
// directory of all local modules; a top-level local deps directory is
// written as _deps. Remote modules are placed under deps/, one directory
// per host:
//
//	https://deno.land/std/path/mod.ts     -> deps/deno.land/std/path/mod.ts
//	http://localhost:4545/mod.ts          -> deps/http_localhost_4545/mod.ts
//	https://esm.sh/react?target=es2020    -> deps/esm.sh/react_1a2b3c4d.js
//
// The file extension always reflects the module's media type. Assignment is
// deterministic and independent of the order modules are supplied in. Two
// modules that would share a path, or whose emitted specifiers would be
// indistinguishable, are rejected with a *PathCollisionError.
package mappings

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/albertocavalcante/go-nodetransform/specifier"
)

// DepsDir is the output directory for remote modules.
const DepsDir = "deps"

// ErrPathCollision indicates two modules were assigned the same output path.
var ErrPathCollision = errors.New("output path collision")

// PathCollisionError reports two specifiers competing for one output path.
type PathCollisionError struct {
	Path   string
	First  specifier.Specifier
	Second specifier.Specifier
}

func (e *PathCollisionError) Error() string {
	return fmt.Sprintf("%s: %s and %s both map to %q", ErrPathCollision, e.First, e.Second, e.Path)
}

// Is reports whether target is ErrPathCollision.
func (e *PathCollisionError) Is(target error) bool {
	return target == ErrPathCollision
}

// Entry is one module to place.
type Entry struct {
	Specifier specifier.Specifier
	MediaType specifier.MediaType
}

// Mappings is an immutable specifier to output path table.
type Mappings struct {
	paths   map[specifier.Specifier]string
	emitted map[string]specifier.Specifier
}

// New computes output paths for entries.
func New(entries []Entry) (*Mappings, error) {
	sorted := append([]Entry(nil), entries...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Specifier.Less(sorted[j].Specifier) })

	root := commonLocalDir(sorted)

	m := &Mappings{
		paths:   make(map[specifier.Specifier]string, len(sorted)),
		emitted: make(map[string]specifier.Specifier, len(sorted)),
	}
	owners := make(map[string]specifier.Specifier, len(sorted))

	for _, e := range sorted {
		if _, done := m.paths[e.Specifier]; done {
			continue
		}
		var p string
		if e.Specifier.IsLocal() {
			p = localPath(e.Specifier, root)
		} else {
			p = remotePath(e.Specifier)
		}
		p = withExtension(p, e.MediaType)

		if prev, ok := owners[p]; ok {
			return nil, &PathCollisionError{Path: p, First: prev, Second: e.Specifier}
		}
		owners[p] = e.Specifier

		emit := EmitPath(p)
		if prev, ok := m.emitted[emit]; ok {
			return nil, &PathCollisionError{Path: emit, First: prev, Second: e.Specifier}
		}
		m.emitted[emit] = e.Specifier
		m.paths[e.Specifier] = p
	}
	return m, nil
}

// FilePath returns the output path of s.
func (m *Mappings) FilePath(s specifier.Specifier) (string, bool) {
	p, ok := m.paths[s]
	return p, ok
}

// MustFilePath is like FilePath but panics if s has no mapping.
func (m *Mappings) MustFilePath(s specifier.Specifier) string {
	p, ok := m.paths[s]
	if !ok {
		panic(fmt.Sprintf("mappings: no output path for %s", s))
	}
	return p
}

// Len returns the number of mapped modules.
func (m *Mappings) Len() int {
	return len(m.paths)
}

// Specifiers returns every mapped specifier, sorted.
func (m *Mappings) Specifiers() []specifier.Specifier {
	out := make([]specifier.Specifier, 0, len(m.paths))
	for s := range m.paths {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// ResolveEmitted maps a relative specifier written in the output file at
// fromPath back to the module it refers to.
func (m *Mappings) ResolveEmitted(fromPath, text string) (specifier.Specifier, bool) {
	if !strings.HasPrefix(text, "./") && !strings.HasPrefix(text, "../") {
		return specifier.Specifier{}, false
	}
	target := path.Join(path.Dir(fromPath), text)
	s, ok := m.emitted[target]
	return s, ok
}

func commonLocalDir(entries []Entry) string {
	var dir string
	found := false
	for _, e := range entries {
		if !e.Specifier.IsLocal() {
			continue
		}
		d := path.Dir(e.Specifier.URL().Path)
		if !found {
			dir, found = d, true
			continue
		}
		for !isWithin(d, dir) {
			dir = path.Dir(dir)
		}
	}
	if !found {
		return "/"
	}
	return dir
}

func isWithin(p, dir string) bool {
	if dir == "/" {
		return true
	}
	return p == dir || strings.HasPrefix(p, dir+"/")
}

func localPath(s specifier.Specifier, root string) string {
	p := s.URL().Path
	rel := strings.TrimPrefix(p, root)
	rel = strings.TrimPrefix(rel, "/")
	segments := strings.Split(rel, "/")
	if isDepsDir(segments[0]) {
		segments[0] = "_" + segments[0]
	}
	return joinSanitized(segments, s.URL().RawQuery)
}

// isDepsDir reports whether a leading local directory would shadow DepsDir
// or an already escaped one. Such directories gain one more leading
// underscore: deps becomes _deps, _deps becomes __deps.
func isDepsDir(seg string) bool {
	return strings.TrimLeft(seg, "_") == DepsDir
}

func remotePath(s specifier.Specifier) string {
	u := s.URL()
	host := strings.ReplaceAll(u.Host, ":", "_")
	if u.Scheme != "https" {
		host = u.Scheme + "_" + host
	}
	segments := append([]string{DepsDir, host}, strings.Split(strings.TrimPrefix(u.Path, "/"), "/")...)
	return joinSanitized(segments, u.RawQuery)
}

// joinSanitized joins path segments, naming an empty final segment "index"
// and folding a query string into the file name.
func joinSanitized(segments []string, query string) string {
	if last := len(segments) - 1; last < 0 || segments[last] == "" {
		segments = append(segments[:max(last, 0)], "index")
	}
	for i, seg := range segments {
		segments[i] = sanitize(seg)
	}
	if query != "" {
		last := len(segments) - 1
		stem, ext := specifier.SplitExtension(segments[last])
		segments[last] = stem + "_" + shortHash(query) + ext
	}
	return strings.Join(segments, "/")
}

func sanitize(seg string) string {
	var sb strings.Builder
	sb.Grow(len(seg))
	for _, r := range seg {
		switch {
		case r < 0x20 || r == 0x7f:
			sb.WriteByte('_')
		case strings.ContainsRune(`<>:"|?*\`, r):
			sb.WriteByte('_')
		default:
			sb.WriteRune(r)
		}
	}
	if sb.Len() == 0 {
		return "_"
	}
	return sb.String()
}

func shortHash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:4])
}

func withExtension(p string, media specifier.MediaType) string {
	want := media.Extension()
	stem, ext := specifier.SplitExtension(p)
	switch {
	case ext == "":
		return p + want
	case specifier.MediaTypeFromPath(p) == media:
		return p
	case media == specifier.Unknown:
		return p
	default:
		return stem + want
	}
}
