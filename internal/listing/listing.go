// Package listing implements §4.8's directory listing: entry
// collection, the seven order codes, and HTML/JSON rendering. Grounded on
// Caddy's caddyhttp/browse (Listing, FileInfo, applySort, JSON/HTML
// formatting), generalized from browse's 4 named sort keys
// (name/namedirfirst/size/time) to the 7 numeric order codes of
// §4.8, and using github.com/dustin/go-humanize for listing sizes exactly
// as Caddy does.
package listing

import (
	"sort"
	"strings"
	"time"

	"github.com/caddyserver/staticweb/internal/fsys"
)

// Entry is one row of a directory listing.
type Entry struct {
	Name    string
	IsDir   bool
	Size    int64
	ModTime time.Time
}

// Type returns "directory" or "file", as used by the JSON listing format.
func (e Entry) Type() string {
	if e.IsDir {
		return "directory"
	}
	return "file"
}

// Collect reads the immediate children of dirResolvedPath, excluding
// hidden entries when ignoreHidden is set, and returns them unsorted.
func Collect(filesystem fsys.Filesystem, dirResolvedPath string, ignoreHidden bool) ([]Entry, error) {
	children, err := filesystem.ReadDir(dirResolvedPath)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(children))
	for _, c := range children {
		name := c.Name()
		if ignoreHidden && strings.HasPrefix(name, ".") {
			continue
		}
		info, err := c.Info()
		if err != nil {
			continue
		}
		size := info.Size()
		if info.IsDir() {
			size = 0
		}
		entries = append(entries, Entry{
			Name:    name,
			IsDir:   info.IsDir(),
			Size:    size,
			ModTime: info.ModTime(),
		})
	}
	return entries, nil
}

// Order applies one of the seven order codes of §4.8 in place.
// For order codes 0 and 1 (name asc/desc), directories sort before files;
// for every other ordering the chosen key applies uniformly across files
// and directories alike. Order code 6 ("unordered") leaves entries in
// filesystem order.
func Order(entries []Entry, code int) {
	switch code {
	case 0:
		sort.SliceStable(entries, func(i, j int) bool { return nameLess(entries[i], entries[j], false) })
	case 1:
		sort.SliceStable(entries, func(i, j int) bool { return nameLess(entries[i], entries[j], true) })
	case 2:
		sort.SliceStable(entries, func(i, j int) bool { return entries[i].ModTime.Before(entries[j].ModTime) })
	case 3:
		sort.SliceStable(entries, func(i, j int) bool { return entries[j].ModTime.Before(entries[i].ModTime) })
	case 4:
		sort.SliceStable(entries, func(i, j int) bool { return entries[i].Size < entries[j].Size })
	case 5:
		sort.SliceStable(entries, func(i, j int) bool { return entries[j].Size < entries[i].Size })
	case 6:
		// unordered: leave as returned by the filesystem
	}
}

func nameLess(a, b Entry, desc bool) bool {
	if a.IsDir != b.IsDir {
		return a.IsDir
	}
	if desc {
		return strings.ToLower(a.Name) > strings.ToLower(b.Name)
	}
	return strings.ToLower(a.Name) < strings.ToLower(b.Name)
}

// ParentLink returns the "../"-relative link for urlPath, or "" if urlPath
// is already root.
func ParentLink(urlPath string) string {
	if strings.TrimSuffix(urlPath, "/") == "" {
		return ""
	}
	return "../"
}
