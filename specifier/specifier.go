// Package specifier provides the immutable module specifier type used as the
// universal key throughout a transform run.
//
// A [Specifier] is an absolute, scheme-qualified module identifier such as
// "file:///src/mod.ts" or "https://deno.land/std/path/mod.ts". Specifiers are
// normalized at construction time so that two spellings of the same module
// compare equal:
//
//   - scheme and host are lower-cased
//   - default ports (http:80, https:443) are removed
//   - fragments are dropped
//   - dot segments in the path are resolved
//
// Zero values are invalid. Use [Parse], [MustParse], [FromFilePath] or
// [Resolve] to create specifiers.
package specifier

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"runtime"
	"strings"
)

// Sentinel errors returned by Parse and Resolve.
var (
	// ErrBareSpecifier indicates a specifier with no scheme and no relative prefix,
	// such as "lodash" or "std/path".
	ErrBareSpecifier = errors.New("bare specifier")

	// ErrUnsupportedScheme indicates a scheme the engine does not load, such as
	// "node:", "npm:" or "data:".
	ErrUnsupportedScheme = errors.New("unsupported scheme")

	// ErrInvalid indicates a string that is not a valid absolute URL.
	ErrInvalid = errors.New("invalid specifier")
)

// Specifier is a normalized absolute module specifier.
// It is comparable and safe to use as a map key.
type Specifier struct {
	s string
}

// Parse parses and normalizes an absolute specifier.
func Parse(s string) (Specifier, error) {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return Specifier{}, fmt.Errorf("%w %q: %v", ErrInvalid, s, err)
	}
	if u.Scheme == "" {
		return Specifier{}, fmt.Errorf("%w %q: missing scheme", ErrInvalid, s)
	}
	return fromURL(u)
}

// MustParse is like Parse but panics on error. Use only for constants and tests.
func MustParse(s string) Specifier {
	spec, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return spec
}

// FromFilePath converts a native file path to a file:// specifier.
// Relative paths are made absolute against the working directory.
func FromFilePath(p string) (Specifier, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return Specifier{}, fmt.Errorf("%w %q: %v", ErrInvalid, p, err)
	}
	slashed := filepath.ToSlash(abs)
	// C:/path -> /C:/path
	if len(slashed) >= 2 && slashed[1] == ':' {
		slashed = "/" + slashed
	}
	return fromURL(&url.URL{Scheme: "file", Path: slashed})
}

// Resolve resolves raw import text as written in referrer.
//
// Relative text ("./", "../", "/") is resolved against the referrer. Absolute
// URLs are accepted when their scheme is supported. Anything else returns
// ErrBareSpecifier or ErrUnsupportedScheme.
func Resolve(raw string, referrer Specifier) (Specifier, error) {
	if raw == "" {
		return Specifier{}, fmt.Errorf("%w: empty", ErrInvalid)
	}
	if isRelative(raw) {
		if referrer.IsZero() {
			return Specifier{}, fmt.Errorf("%w %q: relative without referrer", ErrInvalid, raw)
		}
		ref, err := url.Parse(raw)
		if err != nil {
			return Specifier{}, fmt.Errorf("%w %q: %v", ErrInvalid, raw, err)
		}
		return fromURL(referrer.URL().ResolveReference(ref))
	}

	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || isWindowsDrive(raw) {
		return Specifier{}, fmt.Errorf("%w %q", ErrBareSpecifier, raw)
	}
	return fromURL(u)
}

// String returns the normalized specifier text.
func (s Specifier) String() string {
	return s.s
}

// IsZero reports whether s is the zero value.
func (s Specifier) IsZero() bool {
	return s.s == ""
}

// URL returns a fresh copy of the parsed specifier.
func (s Specifier) URL() *url.URL {
	u, err := url.Parse(s.s)
	if err != nil {
		// Unreachable for specifiers built by this package.
		return &url.URL{}
	}
	return u
}

// Scheme returns the lower-case scheme without the trailing colon.
func (s Specifier) Scheme() string {
	if i := strings.IndexByte(s.s, ':'); i > 0 {
		return s.s[:i]
	}
	return ""
}

// IsLocal reports whether s refers to the local file system.
func (s Specifier) IsLocal() bool {
	return s.Scheme() == "file"
}

// FilePath returns the native file path of a file:// specifier.
func (s Specifier) FilePath() (string, error) {
	if !s.IsLocal() {
		return "", fmt.Errorf("not a file specifier: %s", s.s)
	}
	p := s.URL().Path
	if runtime.GOOS == "windows" && len(p) >= 3 && p[0] == '/' && p[2] == ':' {
		p = p[1:]
	}
	return filepath.FromSlash(p), nil
}

// Less orders specifiers by their normalized text.
func (s Specifier) Less(other Specifier) bool {
	return s.s < other.s
}

var supportedSchemes = map[string]bool{
	"file":  true,
	"http":  true,
	"https": true,
}

// IsSupportedScheme reports whether modules with the given scheme can be loaded.
func IsSupportedScheme(scheme string) bool {
	return supportedSchemes[strings.ToLower(scheme)]
}

func fromURL(u *url.URL) (Specifier, error) {
	u.Scheme = strings.ToLower(u.Scheme)
	if !supportedSchemes[u.Scheme] {
		return Specifier{}, fmt.Errorf("%w %q", ErrUnsupportedScheme, u.Scheme+":")
	}
	u.Fragment = ""
	u.RawFragment = ""
	u.User = nil
	u.OmitHost = false
	u.Host = strings.ToLower(u.Host)
	switch {
	case u.Scheme == "http" && strings.HasSuffix(u.Host, ":80"):
		u.Host = strings.TrimSuffix(u.Host, ":80")
	case u.Scheme == "https" && strings.HasSuffix(u.Host, ":443"):
		u.Host = strings.TrimSuffix(u.Host, ":443")
	}
	if u.Scheme != "file" && u.Host == "" {
		return Specifier{}, fmt.Errorf("%w %q: missing host", ErrInvalid, u.String())
	}
	u.Path = cleanPath(u.Path)
	u.RawPath = ""
	return Specifier{s: u.String()}, nil
}

func cleanPath(p string) string {
	if p == "" {
		return "/"
	}
	cleaned := path.Clean(p)
	if !strings.HasPrefix(cleaned, "/") {
		cleaned = "/" + cleaned
	}
	if strings.HasSuffix(p, "/") && cleaned != "/" {
		cleaned += "/"
	}
	return cleaned
}

func isRelative(raw string) bool {
	return strings.HasPrefix(raw, "./") ||
		strings.HasPrefix(raw, "../") ||
		strings.HasPrefix(raw, "/") ||
		raw == "." || raw == ".."
}

func isWindowsDrive(raw string) bool {
	return len(raw) >= 3 && raw[1] == ':' && (raw[2] == '/' || raw[2] == '\\') &&
		((raw[0] >= 'A' && raw[0] <= 'Z') || (raw[0] >= 'a' && raw[0] <= 'z'))
}
