// Package pipeline implements §4.1's orchestrator: the fixed
// stage order method check → HTTPS-redirect gate → Basic-Auth gate → URI
// normalization/path resolution → directory-or-file disposition →
// encoding negotiation → conditional evaluation → range application →
// body construction → header finalization. Grounded on Caddy's
// httpserver.Handler chain style (each stage either lets the request fall
// through to the next handler or writes a terminal response), generalized
// to an explicit non-exception stage composition: every stage here returns
// either a continuation or a fully-built result, never both.
package pipeline

import (
	"bytes"
	"errors"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/caddyserver/staticweb/internal/auth"
	"github.com/caddyserver/staticweb/internal/fsys"
	"github.com/caddyserver/staticweb/internal/headers"
	"github.com/caddyserver/staticweb/internal/listing"
	"github.com/caddyserver/staticweb/internal/requestlog"
	"github.com/caddyserver/staticweb/internal/resolve"
	"github.com/caddyserver/staticweb/internal/respond"
	"github.com/caddyserver/staticweb/internal/settings"
)

// Server is the pipeline's entry point: an http.Handler bound to one
// Settings value, one Filesystem, and the supporting ambient services.
// Settings and FS are read-only for the server's lifetime and safely
// shared across concurrently-handled requests, mirroring Caddy's
// immutable SiteConfig sharing pattern.
type Server struct {
	Settings *settings.Settings
	FS       fsys.Filesystem
	Log      *requestlog.Logger

	// Draining is flipped to true once graceful shutdown begins (
	// §5); new requests then receive 503 instead of being served.
	Draining *atomic.Bool

	// IOLimiter bounds concurrent blocking filesystem operations,
	// approximating §5's separate blocking-I/O thread pool.
	IOLimiter *semaphore.Weighted
}

// result is the outcome threaded through the stage functions: either a
// fully-built response (status/header/body) or, for the zero value,
// "continue to the next stage". Exactly one of body-bearing fields is
// populated by the stage that produces a terminal result.
type result struct {
	done        bool
	status      int
	header      http.Header
	body        io.ReadCloser
	length      int64 // -1 when unknown
	contentType string
	isErrorPage bool
	vary        bool // whether Vary: accept-encoding must be added
}

func continue_() result { return result{} }

func terminal(status int, contentType string, body []byte, isErrorPage bool) result {
	return result{
		done:        true,
		status:      status,
		header:      http.Header{},
		body:        io.NopCloser(bytes.NewReader(body)),
		length:      int64(len(body)),
		contentType: contentType,
		isErrorPage: isErrorPage,
	}
}

func redirect(status int, location string) result {
	h := http.Header{}
	h.Set("Location", location)
	return result{done: true, status: status, header: h, length: 0}
}

// ServeHTTP implements http.Handler, running the fixed stage order of
// §4.1 and writing whichever stage first produces a terminal
// result.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	requestID := requestlog.NewRequestID()
	r = r.WithContext(withRequestID(r.Context(), requestID))

	res := s.stageDraining()
	if !res.done {
		res = s.stageMethod(r)
	}
	if !res.done {
		res = s.stageHTTPSRedirect(r)
	}
	if !res.done {
		res = s.stageAuth(r)
	}

	var servePath string
	if !res.done {
		res, servePath = s.stageResolveAndDispose(r)
	}
	if !res.done && servePath != "" {
		res = s.stageFile(r, servePath)
	}

	s.finalize(w, r, res, requestID, start)
}

// stageDraining answers 503 once shutdown has begun, per §5.
func (s *Server) stageDraining() result {
	if s.Draining != nil && s.Draining.Load() {
		return terminal(respond.ServiceUnavailable.Status(), "text/html; charset=utf-8",
			[]byte("<html><body><h1>503 Service Unavailable</h1></body></html>"), true)
	}
	return continue_()
}

// stageMethod implements §4.2's method whitelist and the OPTIONS
// preflight carve-out.
func (s *Server) stageMethod(r *http.Request) result {
	switch r.Method {
	case http.MethodGet, http.MethodHead:
		return continue_()
	case http.MethodOptions:
		if s.Settings.CORS != nil {
			h := http.Header{}
			origin := r.Header.Get("Origin")
			headers.ApplyCORS(h, s.Settings.CORS, origin, true)
			return result{done: true, status: http.StatusNoContent, header: h, length: 0}
		}
		return s.methodNotAllowed()
	default:
		return s.methodNotAllowed()
	}
}

func (s *Server) methodNotAllowed() result {
	res := terminal(respond.MethodNotAllowed.Status(), "text/html; charset=utf-8",
		[]byte("<html><body><h1>405 Method Not Allowed</h1></body></html>"), true)
	res.header.Set("Allow", "GET, HEAD")
	return res
}

// stageHTTPSRedirect implements §4.11.
func (s *Server) stageHTTPSRedirect(r *http.Request) result {
	cfg := s.Settings.HTTPS
	if !cfg.Enabled || r.TLS != nil {
		return continue_()
	}

	host := r.Host
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	hostMatches := false
	for _, allowed := range cfg.FromHosts {
		if strings.EqualFold(allowed, host) {
			hostMatches = true
			break
		}
	}
	if !hostMatches {
		return continue_()
	}

	portMatches := len(cfg.FromPorts) == 0
	if port, ok := localPortFrom(r.Context()); ok {
		for _, p := range cfg.FromPorts {
			if p == port {
				portMatches = true
				break
			}
		}
	}
	if !portMatches {
		return continue_()
	}

	location := "https://" + cfg.Host + r.URL.RequestURI()
	return redirect(http.StatusMovedPermanently, location)
}

// stageAuth implements §4.3.
func (s *Server) stageAuth(r *http.Request) result {
	if s.Settings.Auth == nil {
		return continue_()
	}
	if auth.Check(r, s.Settings.Auth) {
		return continue_()
	}
	res := terminal(respond.Unauthorized.Status(), "text/html; charset=utf-8",
		[]byte("<html><body><h1>401 Unauthorized</h1></body></html>"), true)
	auth.SetChallenge(res.header)
	return res
}

// stageResolveAndDispose implements §4.4 and §4.5: it normalizes
// the URI, resolves it against the filesystem, and handles the
// directory/fallback/absent dispositions. On KindFile (including a
// directory's index-file substitution) it returns a continuation result
// together with the logical path to serve; stageFile then performs
// negotiation, conditional evaluation, and range/body construction for
// that path.
func (s *Server) stageResolveAndDispose(r *http.Request) (result, string) {
	normalized, err := resolve.NormalizeURI(r.URL.EscapedPath())
	if err != nil {
		return terminal(respond.BadRequest.Status(), "text/html; charset=utf-8",
			[]byte("<html><body><h1>400 Bad Request</h1></body></html>"), true), ""
	}

	allowFallback := r.Method == http.MethodGet
	target, err := resolve.Resolve(s.FS, normalized, s.Settings.IgnoreHiddenFiles, allowFallback, s.Settings.Fallback)
	if err != nil {
		return s.internalError(r, err), ""
	}

	switch target.Kind {
	case resolve.KindAbsent:
		ct, body := respond.Page(s.FS, s.Settings.Page404, respond.NotFound.Status())
		return terminal(respond.NotFound.Status(), ct, body, true), ""

	case resolve.KindFallback:
		body, err := respond.FallbackPage(s.FS, target.Path)
		if err != nil {
			return s.internalError(r, err), ""
		}
		res := terminal(http.StatusOK, "text/html; charset=utf-8", body, true)
		return res, ""

	case resolve.KindDirectory:
		return s.disposeDirectory(r, normalized, target)

	case resolve.KindFile:
		return continue_(), normalized

	default:
		return s.internalError(r, errors.New("pipeline: unknown resolve target kind")), ""
	}
}

func (s *Server) disposeDirectory(r *http.Request, normalized string, target resolve.Target) (result, string) {
	if s.Settings.RedirectTrailingSlash && !strings.HasSuffix(r.URL.Path, "/") {
		loc := normalized + "/"
		if q := r.URL.RawQuery; q != "" {
			loc += "?" + q
		}
		return redirect(http.StatusPermanentRedirect, loc), ""
	}

	dirPath := normalized
	if !strings.HasSuffix(dirPath, "/") {
		dirPath += "/"
	}
	for _, indexName := range []string{"index.html", "index.htm"} {
		candidate := dirPath + indexName
		resolved, err := s.FS.Resolve(candidate)
		if err != nil {
			continue
		}
		info, err := s.FS.Stat(resolved)
		if err != nil || info.IsDir() {
			continue
		}
		return continue_(), candidate
	}

	if !s.Settings.Listing.Enabled {
		ct, body := respond.Page(s.FS, s.Settings.Page404, respond.NotFound.Status())
		return terminal(respond.NotFound.Status(), ct, body, true), ""
	}

	return s.renderListing(r, dirPath, target), ""
}

func (s *Server) renderListing(r *http.Request, dirPath string, target resolve.Target) result {
	entries, err := listing.Collect(s.FS, target.Path, s.Settings.IgnoreHiddenFiles)
	if err != nil {
		return s.internalError(r, err)
	}

	order := s.Settings.Listing.DefaultOrder
	if raw := r.URL.Query().Get("sort"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n >= 0 && n <= 6 {
			order = n
		}
	}
	listing.Order(entries, order)

	format := s.Settings.Listing.Format
	if raw := r.URL.Query().Get("format"); raw == "json" || raw == "html" {
		format = raw
	}

	if format == "json" {
		body, err := listing.RenderJSON(entries)
		if err != nil {
			return s.internalError(r, err)
		}
		return terminal(http.StatusOK, "application/json", body, false)
	}

	nextOrder := map[string]int{"name": 1, "mtime": 2, "size": 4}
	switch order {
	case 0:
		nextOrder["name"] = 1
	case 1:
		nextOrder["name"] = 0
	case 2:
		nextOrder["mtime"] = 3
	case 3:
		nextOrder["mtime"] = 2
	case 4:
		nextOrder["size"] = 5
	case 5:
		nextOrder["size"] = 4
	}
	body, err := listing.RenderHTML(r.URL.Path, entries, nextOrder)
	if err != nil {
		return s.internalError(r, err)
	}
	return terminal(http.StatusOK, "text/html; charset=utf-8", body, false)
}

func (s *Server) internalError(r *http.Request, err error) result {
	if s.Log != nil {
		s.Log.Internal(requestIDFrom(r.Context()), r, err)
	}
	ct, body := respond.Page(s.FS, s.Settings.Page50x, respond.Internal.Status())
	return terminal(respond.Internal.Status(), ct, body, true)
}
