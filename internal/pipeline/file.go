package pipeline

import (
	"context"
	"io"
	"net/http"

	"github.com/caddyserver/staticweb/internal/fileresp"
	"github.com/caddyserver/staticweb/internal/headers"
	"github.com/caddyserver/staticweb/internal/negotiate"
	"github.com/caddyserver/staticweb/internal/respond"
)

// stageFile implements §4.6–§4.7 for a resolved file target at
// servePath: encoding negotiation, conditional evaluation, range
// application, and body construction.
func (s *Server) stageFile(r *http.Request, servePath string) result {
	resolvedPath, err := s.FS.Resolve(servePath)
	if err != nil {
		ct, body := respond.Page(s.FS, s.Settings.Page404, respond.NotFound.Status())
		return terminal(respond.NotFound.Status(), ct, body, true)
	}

	contentType := headers.ContentType(servePath)
	compressible := negotiate.Compressible(contentType)
	acceptPrefs := negotiate.ParseAcceptEncoding(r.Header.Get("Accept-Encoding"))

	vary := s.Settings.CompressionEnabled && compressible
	if s.Settings.CompressionStatic && negotiate.AnyStaticVariant(s.FS, servePath) {
		vary = true
	}

	var chosenEncoding string
	onTheFly := false

	if s.Settings.CompressionStatic {
		if variant, ok := negotiate.ChooseStatic(s.FS, servePath, acceptPrefs); ok {
			resolvedPath = variant.Path
			chosenEncoding = variant.Encoding
		}
	}
	if chosenEncoding == "" && s.Settings.CompressionEnabled && compressible {
		if enc, ok := negotiate.ChooseOnTheFly(acceptPrefs); ok {
			chosenEncoding = enc
			onTheFly = true
		}
	}

	if err := s.acquireIO(r.Context()); err != nil {
		return s.internalError(r, err)
	}
	defer s.releaseIO()

	fr, err := fileresp.Serve(s.FS, resolvedPath, contentType, fileresp.Request{
		Method: r.Method,
		Conditional: fileresp.Conditional{
			IfMatch:           r.Header.Get("If-Match"),
			IfUnmodifiedSince: r.Header.Get("If-Unmodified-Since"),
			IfNoneMatch:       r.Header.Get("If-None-Match"),
			IfModifiedSince:   r.Header.Get("If-Modified-Since"),
			IfRange:           r.Header.Get("If-Range"),
		},
		RangeHeader:        r.Header.Get("Range"),
		CompressionApplied: onTheFly,
	})
	if err != nil {
		return s.internalError(r, err)
	}

	body := fr.Body
	length := fr.Length
	if onTheFly && fr.Status == http.StatusOK && body != nil {
		body, length = wrapEncoded(body, chosenEncoding)
		fr.Header.Del("Content-Length")
	} else if chosenEncoding != "" && (fr.Status == http.StatusOK || fr.Status == http.StatusPartialContent) {
		fr.Header.Set("Content-Encoding", chosenEncoding)
	}

	return result{
		done:        true,
		status:      fr.Status,
		header:      fr.Header,
		body:        body,
		length:      length,
		contentType: contentType,
		vary:        vary,
	}
}

func (s *Server) acquireIO(ctx context.Context) error {
	if s.IOLimiter == nil {
		return nil
	}
	return s.IOLimiter.Acquire(ctx, 1)
}

func (s *Server) releaseIO() {
	if s.IOLimiter == nil {
		return
	}
	s.IOLimiter.Release(1)
}

// wrapEncoded streams body through a fresh Encoder on an io.Pipe, so the
// compressed bytes are produced incrementally rather than buffered whole,
// matching Caddy's own buffered-encode-on-write style in
// modules/caddyhttp/encode while keeping this package decoupled from
// http.ResponseWriter.
func wrapEncoded(body io.ReadCloser, encoding string) (io.ReadCloser, int64) {
	pr, pw := io.Pipe()
	go func() {
		defer body.Close()
		enc, err := negotiate.NewEncoder(encoding, pw)
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		_, err = io.Copy(enc, body)
		if closeErr := enc.Close(); err == nil {
			err = closeErr
		}
		pw.CloseWithError(err)
	}()
	return pr, -1
}
