// Package respond implements §4.10 (error/fallback body
// selection) and §7's error-kind taxonomy. Grounded on Caddy's
// status-driven error responders (httpserver's DefaultErrorFunc-style
// mapping) generalized to custom-page lookup through the Filesystem
// capability instead of direct disk access.
package respond

import (
	"fmt"
	"io"
	"net/http"

	"github.com/caddyserver/staticweb/internal/fsys"
)

// Kind is the error taxonomy of §7. Only Internal is a true error
// in the exception sense; the others are planned, non-2xx outcomes.
type Kind int

const (
	KindNone Kind = iota
	BadRequest
	Unauthorized
	MethodNotAllowed
	PreconditionFailed
	NotFound
	RangeNotSatisfiable
	PermanentRedirect
	NotModified
	Internal
	ServiceUnavailable
)

// Status maps a Kind to its HTTP status code.
func (k Kind) Status() int {
	switch k {
	case BadRequest:
		return http.StatusBadRequest
	case Unauthorized:
		return http.StatusUnauthorized
	case MethodNotAllowed:
		return http.StatusMethodNotAllowed
	case PreconditionFailed:
		return http.StatusPreconditionFailed
	case NotFound:
		return http.StatusNotFound
	case RangeNotSatisfiable:
		return http.StatusRequestedRangeNotSatisfiable
	case PermanentRedirect:
		return http.StatusPermanentRedirect
	case NotModified:
		return http.StatusNotModified
	case Internal:
		return http.StatusInternalServerError
	case ServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusOK
	}
}

// Page resolves the body and content type for a status code, preferring a
// configured custom page (404 or 50x) when it exists and is readable, and
// falling back to a minimal built-in HTML body otherwise, per
// §4.10.
func Page(filesystem fsys.Filesystem, customPath string, status int) (contentType string, body []byte) {
	if customPath != "" {
		if resolved, err := filesystem.Resolve(customPath); err == nil {
			if f, err := filesystem.Open(resolved); err == nil {
				defer f.Close()
				if b, err := io.ReadAll(f); err == nil {
					return "text/html; charset=utf-8", b
				}
			}
		}
	}
	reason := http.StatusText(status)
	return "text/html; charset=utf-8", []byte(fmt.Sprintf("<html><body><h1>%d %s</h1></body></html>", status, reason))
}

// FallbackPage reads the configured SPA fallback page's bytes. It is
// served with status 200, not 404, per §4.10.
func FallbackPage(filesystem fsys.Filesystem, resolvedPath string) ([]byte, error) {
	f, err := filesystem.Open(resolvedPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
