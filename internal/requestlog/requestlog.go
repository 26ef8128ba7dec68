// Package requestlog provides the structured access/error logging the
// pipeline emits around every request. Grounded on Caddy's own
// zap.Logger usage throughout modules/caddyhttp (srv.logger.Info/Error
// with zap.String/zap.Duration fields) and the top-level logging.go's
// zap.New(core) construction; generalized here to a single access-log
// line per request plus error-level logging for the Internal error kind
// of §7.
package requestlog

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Logger wraps a *zap.Logger with the two logging operations the pipeline
// needs: one access-log line per completed request, and error-level
// logging for the Internal error kind.
type Logger struct {
	core           *zap.Logger
	logRemoteAddr  bool
}

// New builds a Logger around an existing *zap.Logger, typically
// constructed by cmd/staticserver from zap.NewProductionConfig() with its
// level set from --log-level.
func New(core *zap.Logger, logRemoteAddr bool) *Logger {
	return &Logger{core: core, logRemoteAddr: logRemoteAddr}
}

// NewRequestID generates a request-scoped correlation ID using google/uuid,
// the same library Caddy uses for entity identifiers.
func NewRequestID() string {
	return uuid.NewString()
}

// Access emits one structured line per completed request.
func (l *Logger) Access(requestID string, r *http.Request, status int, bytesWritten int64, elapsed time.Duration) {
	fields := []zap.Field{
		zap.String("request_id", requestID),
		zap.String("method", r.Method),
		zap.String("uri", r.URL.RequestURI()),
		zap.Int("status", status),
		zap.Int64("bytes", bytesWritten),
		zap.Duration("duration", elapsed),
	}
	if l.logRemoteAddr {
		fields = append(fields, zap.String("remote_addr", r.RemoteAddr))
	}
	l.core.Info("handled request", fields...)
}

// Internal logs an Internal-kind failure (§7: unexpected I/O,
// encoder failure, system limits) at error level.
func (l *Logger) Internal(requestID string, r *http.Request, err error) {
	l.core.Error("internal error handling request",
		zap.String("request_id", requestID),
		zap.String("method", r.Method),
		zap.String("uri", r.URL.RequestURI()),
		zap.Error(err),
	)
}

// Sync flushes any buffered log entries, matching Caddy's shutdown
// convention of calling logger.Sync() before exit.
func (l *Logger) Sync() error {
	return l.core.Sync()
}
