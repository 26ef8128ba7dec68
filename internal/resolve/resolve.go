// Package resolve implements §4.2's URI validation and §4.4's path
// resolver: turning a raw request URI into a safe, resolved target within
// the configured root. Grounded on Caddy's
// caddyhttp/staticfiles.FileServer.serveFile jailed-open pattern,
// generalized to the explicit component-wise symlink walk fsys.OS
// performs and to the four-case Target union of §3.
package resolve

import (
	"errors"
	"io/fs"
	"net/url"
	"path"
	"strings"

	"github.com/caddyserver/staticweb/internal/fsys"
)

// ErrBadURI is returned when the request URI cannot be safely decoded.
var ErrBadURI = errors.New("resolve: malformed request URI")

// NormalizeURI percent-decodes rawPath and removes dot segments, per
// §4.2. The result always begins with "/".
func NormalizeURI(rawPath string) (string, error) {
	decoded, err := url.PathUnescape(rawPath)
	if err != nil {
		return "", ErrBadURI
	}
	if strings.ContainsRune(decoded, 0) {
		return "", ErrBadURI
	}
	if strings.ContainsRune(decoded, '\\') {
		return "", ErrBadURI
	}
	if !strings.HasPrefix(decoded, "/") {
		decoded = "/" + decoded
	}
	return path.Clean(decoded), nil
}

// Kind tags the four cases of a resolved target (§3).
type Kind int

const (
	KindAbsent Kind = iota
	KindFile
	KindDirectory
	KindFallback
)

// Target is the outcome of Resolve.
type Target struct {
	Kind Kind
	Path string      // the filesystem path returned by fsys.Filesystem.Resolve
	Info fs.FileInfo // nil for KindAbsent
}

// Resolve implements §4.4. normalizedPath must already have passed
// through NormalizeURI. fallbackPath, when non-empty and allowFallback is
// true, is served (as KindFallback) for an otherwise-absent path; the
// pipeline sets allowFallback for GET requests only.
func Resolve(filesystem fsys.Filesystem, normalizedPath string, ignoreHidden bool, allowFallback bool, fallbackPath string) (Target, error) {
	if hasHiddenComponent(normalizedPath) && ignoreHidden {
		return Target{Kind: KindAbsent}, nil
	}

	resolved, err := filesystem.Resolve(normalizedPath)
	if err != nil {
		if errors.Is(err, fsys.ErrEscapesRoot) || errors.Is(err, fs.ErrNotExist) {
			if allowFallback && fallbackPath != "" {
				return resolveFallback(filesystem, fallbackPath)
			}
			return Target{Kind: KindAbsent}, nil
		}
		return Target{}, err
	}

	info, err := filesystem.Stat(resolved)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			if allowFallback && fallbackPath != "" {
				return resolveFallback(filesystem, fallbackPath)
			}
			return Target{Kind: KindAbsent}, nil
		}
		return Target{}, err
	}

	if info.IsDir() {
		return Target{Kind: KindDirectory, Path: resolved, Info: info}, nil
	}
	return Target{Kind: KindFile, Path: resolved, Info: info}, nil
}

func resolveFallback(filesystem fsys.Filesystem, fallbackPath string) (Target, error) {
	resolved, err := filesystem.Resolve(fallbackPath)
	if err != nil {
		return Target{Kind: KindAbsent}, nil
	}
	info, err := filesystem.Stat(resolved)
	if err != nil || info.IsDir() {
		return Target{Kind: KindAbsent}, nil
	}
	return Target{Kind: KindFallback, Path: resolved, Info: info}, nil
}

// hasHiddenComponent reports whether any path component's leaf name begins
// with "." (invariant 2). The leading "/" does not count as a
// component.
func hasHiddenComponent(normalizedPath string) bool {
	for _, part := range strings.Split(strings.Trim(normalizedPath, "/"), "/") {
		if strings.HasPrefix(part, ".") && part != "" {
			return true
		}
	}
	return false
}
