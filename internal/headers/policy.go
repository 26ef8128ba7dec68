// Package headers implements §4.9: the response-wide header
// policy finalization stage, plus the MIME-type table §4.6 depends on.
// Grounded on Caddy's caddyhttp/header (deferred, rule-based header
// application) and the CORS/security-header conventions of
// modules/caddyhttp/headers.
package headers

import (
	"net/http"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/caddyserver/staticweb/internal/settings"
)

const serverIdentity = "Static Web Server"

// ApplyServerIdentity sets the Server header, per §4.9 and
// invariant 6's sibling requirement that every response carries it.
func ApplyServerIdentity(h http.Header) {
	h.Set("Server", serverIdentity)
}

// ApplyCORS validates origin against cors and, if allowed, sets the
// Access-Control-* response headers. isPreflight additionally adds the
// Allow-Methods and Max-Age headers for an OPTIONS preflight.
func ApplyCORS(h http.Header, cors *settings.CORS, origin string, isPreflight bool) {
	if cors == nil || origin == "" {
		return
	}

	allowed := cors.Wildcard()
	if !allowed {
		for _, o := range cors.AllowOrigins {
			if o == origin {
				allowed = true
				break
			}
		}
	}
	if !allowed {
		return
	}

	if cors.Wildcard() {
		h.Set("Access-Control-Allow-Origin", "*")
	} else {
		h.Set("Access-Control-Allow-Origin", origin)
		AddVary(h, "origin")
	}
	if len(cors.AllowHeaders) > 0 {
		h.Set("Access-Control-Allow-Headers", strings.Join(cors.AllowHeaders, ", "))
	}
	if len(cors.ExposeHeaders) > 0 {
		h.Set("Access-Control-Expose-Headers", strings.Join(cors.ExposeHeaders, ", "))
	}
	if isPreflight {
		h.Set("Access-Control-Allow-Methods", "GET, HEAD, OPTIONS")
		h.Set("Access-Control-Max-Age", "86400")
	}
}

// ApplySecurity sets the fixed HSTS/frame/CSP header trio of §4.9.
func ApplySecurity(h http.Header) {
	h.Set("Strict-Transport-Security", "max-age=63072000; includeSubDomains; preload")
	h.Set("X-Frame-Options", "DENY")
	h.Set("Content-Security-Policy", "frame-ancestors 'self'")
}

// cacheClass classifies a content type into one of the three
// Cache-Control buckets of §4.9.
type cacheClass int

const (
	cacheClassLongLived cacheClass = iota // fonts, images, fixed media: one year, immutable
	cacheClassStandard                    // text/html and other standard web assets: one day
	cacheClassNone                        // dynamic error pages: no-cache
)

func classify(contentType string) cacheClass {
	base, _, _ := strings.Cut(contentType, ";")
	base = strings.TrimSpace(base)
	switch {
	case strings.HasPrefix(base, "font/"),
		base == "application/vnd.ms-fontobject",
		base == "application/x-font-ttf",
		strings.HasPrefix(base, "image/"),
		strings.HasPrefix(base, "video/"),
		strings.HasPrefix(base, "audio/"):
		return cacheClassLongLived
	default:
		return cacheClassStandard
	}
}

// ApplyCacheControl sets Cache-Control according to contentType's class,
// per §4.9. isErrorPage forces the no-cache class regardless of
// content type, since error/fallback bodies are dynamic.
func ApplyCacheControl(h http.Header, contentType string, isErrorPage bool) {
	if isErrorPage {
		h.Set("Cache-Control", "no-cache")
		return
	}
	switch classify(contentType) {
	case cacheClassLongLived:
		h.Set("Cache-Control", "public, max-age=31536000, immutable")
	default:
		h.Set("Cache-Control", "public, max-age=86400")
	}
}

// AddVary adds value (lowercased) to the Vary header if not already
// present, maintaining §4.9's deduplicated, lowercased
// accumulator. value may itself be a comma-separated list.
func AddVary(h http.Header, value string) {
	existing := map[string]bool{}
	for _, v := range h.Values("Vary") {
		for _, part := range strings.Split(v, ",") {
			existing[strings.TrimSpace(strings.ToLower(part))] = true
		}
	}
	added := false
	for _, part := range strings.Split(value, ",") {
		p := strings.TrimSpace(strings.ToLower(part))
		if p == "" || existing[p] {
			continue
		}
		existing[p] = true
		added = true
	}
	if !added {
		return
	}
	h.Del("Vary")
	keys := make([]string, 0, len(existing))
	for k := range existing {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	h.Set("Vary", strings.Join(keys, ", "))
}

// ApplyPathRules applies per-path header rules from the `[[advanced.headers]]`
// TOML table, matching urlPath (without its leading "/") against each
// rule's glob Source.
// Rules are applied after built-in headers and may overwrite them, per
// §6.
func ApplyPathRules(h http.Header, rules []settings.HeaderRule, urlPath string) {
	for _, rule := range rules {
		matched, err := path.Match(rule.Source, strings.TrimPrefix(urlPath, "/"))
		if err != nil || !matched {
			continue
		}
		for k, v := range rule.Headers {
			h.Set(k, v)
		}
	}
}

// SetContentLength sets Content-Length iff length is known (>= 0) and no
// chunked/encoded body applies, per invariant 3 and §4.9.
func SetContentLength(h http.Header, length int64, chunked bool) {
	if chunked || length < 0 {
		h.Del("Content-Length")
		return
	}
	h.Set("Content-Length", strconv.FormatInt(length, 10))
}
