package pipeline

import (
	"io"
	"net/http"
	"time"

	"github.com/caddyserver/staticweb/internal/headers"
)

// finalize implements §4.9: applies the response-wide header
// policy to res and writes it to w, then emits the access-log line.
func (s *Server) finalize(w http.ResponseWriter, r *http.Request, res result, requestID string, start time.Time) {
	h := res.header
	if h == nil {
		h = http.Header{}
	}

	headers.ApplyServerIdentity(h)

	if res.contentType != "" && h.Get("Content-Type") == "" {
		h.Set("Content-Type", res.contentType)
	}

	origin := r.Header.Get("Origin")
	if s.Settings.CORS != nil && origin != "" {
		headers.ApplyCORS(h, s.Settings.CORS, origin, false)
	}

	if s.Settings.SecurityHeaders {
		headers.ApplySecurity(h)
	}

	if s.Settings.CacheControl {
		headers.ApplyCacheControl(h, res.contentType, res.isErrorPage)
	}

	if res.vary {
		headers.AddVary(h, "accept-encoding")
	}

	headers.ApplyPathRules(h, s.Settings.HeaderRules, r.URL.Path)

	chunked := res.length < 0
	headers.SetContentLength(h, res.length, chunked)

	for k, v := range h {
		w.Header()[k] = v
	}
	w.WriteHeader(res.status)

	var written int64
	if res.body != nil {
		if r.Method != http.MethodHead {
			written, _ = io.Copy(w, res.body)
		}
		res.body.Close()
	}

	if s.Log != nil {
		s.Log.Access(requestID, r, res.status, written, time.Since(start))
	}
}
