package negotiate

import (
	"io/fs"
	"strings"

	"github.com/caddyserver/staticweb/internal/fsys"
)

// compressibleSubtypes lists the application/* subtypes and image/svg+xml
// that §4.6 treats as compressible, in addition to all of text/* and font/*.
var compressibleSubtypes = map[string]bool{
	"application/json":              true,
	"application/javascript":        true,
	"application/xml":               true,
	"application/wasm":              true,
	"application/xhtml+xml":         true,
	"application/rss+xml":           true,
	"application/atom+xml":          true,
	"application/vnd.ms-fontobject": true,
	"application/x-font-ttf":        true,
	"image/svg+xml":                 true,
}

// Compressible reports whether contentType (as returned by
// headers.ContentType; any "; charset=" suffix is ignored) is eligible for
// on-the-fly compression under §4.6.
func Compressible(contentType string) bool {
	base, _, _ := strings.Cut(contentType, ";")
	base = strings.TrimSpace(base)
	if strings.HasPrefix(base, "text/") {
		return true
	}
	if strings.HasPrefix(base, "font/") {
		return true
	}
	return compressibleSubtypes[base]
}

// StaticVariant is a precompressed sibling file chosen for a request.
type StaticVariant struct {
	Encoding string
	Path     string // resolved filesystem path of the sibling file
	Info     fs.FileInfo
}

// ChooseStatic looks for a precompressed sibling of basePath (e.g.
// "foo.json.br") in client-preferred order among {br, zstd, gzip}, per
// §4.6. It returns ok=false if no variant exists or none is
// acceptable to the client; whether static lookup is enabled at all is
// the caller's decision.
func ChooseStatic(filesystem fsys.Filesystem, basePath string, acceptPrefs []string) (StaticVariant, bool) {
	for _, enc := range orderByClientPreference(staticTiebreak, acceptPrefs) {
		if !accepts(acceptPrefs, enc) {
			continue
		}
		candidate := basePath + staticExtension[enc]
		resolved, err := filesystem.Resolve(candidate)
		if err != nil {
			continue
		}
		info, err := filesystem.Stat(resolved)
		if err != nil || info.IsDir() {
			continue
		}
		return StaticVariant{Encoding: enc, Path: resolved, Info: info}, true
	}
	return StaticVariant{}, false
}

// ChooseOnTheFly picks an encoding for on-the-fly compression among
// {br, zstd, gzip, deflate}, by client preference with the fixed
// tiebreak order, restricted to encodings the client accepts. Returns
// ok=false if nothing acceptable overlaps the offered set.
func ChooseOnTheFly(acceptPrefs []string) (string, bool) {
	for _, enc := range orderByClientPreference(tiebreak, acceptPrefs) {
		if accepts(acceptPrefs, enc) {
			return enc, true
		}
	}
	return "", false
}

// AnyStaticVariant reports whether a precompressed sibling of basePath
// exists at all, independent of what the client's Accept-Encoding allows.
// Used to decide whether Vary: accept-encoding must be emitted even when
// the client's own preferences happened to rule out every variant
// (invariant 4).
func AnyStaticVariant(filesystem fsys.Filesystem, basePath string) bool {
	for _, ext := range staticExtension {
		resolved, err := filesystem.Resolve(basePath + ext)
		if err != nil {
			continue
		}
		if info, err := filesystem.Stat(resolved); err == nil && !info.IsDir() {
			return true
		}
	}
	return false
}

// orderByClientPreference returns offered reordered by the positions of its
// members within acceptPrefs (client order). Members absent from
// acceptPrefs (for example under a bare "*") follow in the fixed server
// tiebreak order. acceptPrefs carries no q-factors, so encodings the client
// gave equal q are ordered by their position in the list, not by the
// server tiebreak.
func orderByClientPreference(offered []string, acceptPrefs []string) []string {
	rank := make(map[string]int, len(acceptPrefs))
	for i, enc := range acceptPrefs {
		if _, ok := rank[enc]; !ok {
			rank[enc] = i
		}
	}
	out := make([]string, len(offered))
	copy(out, offered)
	ranked := func(enc string) int {
		if r, ok := rank[enc]; ok {
			return r
		}
		return len(acceptPrefs) + 1
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && ranked(out[j]) < ranked(out[j-1]); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}
