package pipeline

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/caddyserver/staticweb/internal/requestlog"
	"github.com/caddyserver/staticweb/internal/settings"
)

func TestFinalizeSetsContentTypeFromTerminalResult(t *testing.T) {
	s := &Server{
		Settings: &settings.Settings{SecurityHeaders: true, CacheControl: true},
		Log:      requestlog.New(zap.NewNop(), false),
	}
	res := terminal(http.StatusNotFound, "text/html; charset=utf-8", []byte("<html></html>"), true)

	r := httptest.NewRequest(http.MethodGet, "/missing", nil)
	w := httptest.NewRecorder()
	s.finalize(w, r, res, "req-1", time.Now())

	if w.Header().Get("Content-Type") != "text/html; charset=utf-8" {
		t.Fatalf("Content-Type = %q", w.Header().Get("Content-Type"))
	}
	if w.Header().Get("Cache-Control") != "no-cache" {
		t.Fatalf("Cache-Control = %q, want no-cache for an error page", w.Header().Get("Cache-Control"))
	}
	if w.Header().Get("Strict-Transport-Security") == "" {
		t.Fatal("expected security headers to be applied")
	}
}

func TestFinalizeOmitsContentLengthWhenChunked(t *testing.T) {
	s := &Server{
		Settings: &settings.Settings{},
		Log:      requestlog.New(zap.NewNop(), false),
	}
	res := result{done: true, status: http.StatusOK, header: http.Header{}, length: -1}

	r := httptest.NewRequest(http.MethodGet, "/stream", nil)
	w := httptest.NewRecorder()
	s.finalize(w, r, res, "req-2", time.Now())

	if w.Header().Get("Content-Length") != "" {
		t.Fatalf("Content-Length = %q, want empty for a chunked/unknown-length body", w.Header().Get("Content-Length"))
	}
}
