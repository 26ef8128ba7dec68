// Package fileresp implements §4.7 (conditional and range
// semantics) and the streaming body construction of §4.5/§4.6's final
// step. ETag formula grounded on Caddy's
// caddyhttp/staticfiles.calculateEtag; the explicit 5-step RFC 7232
// evaluation order and the "compression disables Range" rule are this
// package's own generalization, since Caddy delegates conditional
// handling to the standard library's http.ServeContent and so never
// needed to express that interaction.
package fileresp

import (
	"fmt"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/caddyserver/staticweb/internal/respond"
)

// Validator identifies a chosen representation for conditional requests,
// per §4.7 and invariant 5.
type Validator struct {
	ETag         string
	LastModified time.Time
}

// ComputeValidator derives a strong ETag from (size, mtime_ns), hex-encoded
// and quoted, and a Last-Modified value truncated to seconds, matching
// §4.7's formula.
func ComputeValidator(info fs.FileInfo) Validator {
	tag := fmt.Sprintf("%x-%x", info.Size(), info.ModTime().UnixNano())
	return Validator{
		ETag:         `"` + tag + `"`,
		LastModified: info.ModTime().Truncate(time.Second),
	}
}

// Conditional carries the request's validator-bearing headers.
type Conditional struct {
	IfMatch           string
	IfUnmodifiedSince string
	IfNoneMatch       string
	IfModifiedSince   string
	IfRange           string
}

// Evaluate runs the 5-step RFC 7232 evaluation order of §4.7 and
// reports the outcome. kind is respond.KindNone if the request should
// proceed to range handling and body construction. ignoreRange is true
// when If-Range failed to match and any Range header must be ignored.
func Evaluate(c Conditional, v Validator) (kind respond.Kind, ignoreRange bool) {
	if c.IfMatch != "" && !etagListMatches(c.IfMatch, v.ETag, false) {
		return respond.PreconditionFailed, false
	}

	if c.IfUnmodifiedSince != "" {
		if t, err := http.ParseTime(c.IfUnmodifiedSince); err == nil {
			if v.LastModified.After(t) {
				return respond.PreconditionFailed, false
			}
		}
	}

	noneMatchEvaluated := false
	if c.IfNoneMatch != "" {
		noneMatchEvaluated = true
		if etagListMatches(c.IfNoneMatch, v.ETag, true) {
			return respond.NotModified, false
		}
	}

	if !noneMatchEvaluated && c.IfModifiedSince != "" {
		if t, err := http.ParseTime(c.IfModifiedSince); err == nil {
			if !v.LastModified.After(t) {
				return respond.NotModified, false
			}
		}
	}

	if c.IfRange != "" && !ifRangeMatches(c.IfRange, v) {
		ignoreRange = true
	}

	return respond.KindNone, ignoreRange
}

// etagListMatches reports whether etag appears in a comma-separated
// If-Match/If-None-Match header value. "*" matches any existing resource.
// weak, when true, permits weak ("W/") comparison as If-None-Match allows;
// If-Match always requires strong comparison.
func etagListMatches(header, etag string, weak bool) bool {
	if strings.TrimSpace(header) == "*" {
		return true
	}
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if weak {
			candidate = strings.TrimPrefix(candidate, "W/")
		}
		if candidate == etag {
			return true
		}
	}
	return false
}

func ifRangeMatches(header string, v Validator) bool {
	if t, err := http.ParseTime(header); err == nil {
		return v.LastModified.Equal(t)
	}
	return strings.TrimSpace(header) == v.ETag
}

// SetValidators writes ETag and Last-Modified onto h.
func SetValidators(h http.Header, v Validator) {
	h.Set("ETag", v.ETag)
	h.Set("Last-Modified", v.LastModified.UTC().Format(http.TimeFormat))
}
