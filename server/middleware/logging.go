package middleware

import (
	"net/http"
	"time"

	"github.com/kbukum/streamkit/logger"
)

// RequestLogger logs every request with method, path, status and duration.
// Probe endpoints are skipped. Streaming requests are logged when the stream
// closes, so their duration is the connection lifetime.
func RequestLogger(log *logger.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isProbe(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			sw := newStatusWriter(w)
			next.ServeHTTP(sw, r)

			fields := logger.DurationFields("http.request", time.Since(start))
			fields["method"] = r.Method
			fields["path"] = r.URL.Path
			fields["status"] = sw.Status()
			fields["bytes"] = sw.written
			if id := r.Header.Get(HeaderRequestID); id != "" {
				fields[logger.FieldRequestID] = id
			}
			if sw.streaming() {
				fields["stream"] = true
				fields["flushes"] = sw.flushes
			}
			logByStatus(log, fields, sw.Status())
		})
	}
}

func isProbe(path string) bool {
	switch path {
	case "/health", "/ready", "/metrics":
		return true
	}
	return false
}

func logByStatus(log *logger.Logger, fields map[string]interface{}, status int) {
	switch {
	case status >= 500:
		log.Error("Request completed", fields)
	case status >= 400:
		log.Warn("Request completed", fields)
	default:
		log.Debug("Request completed", fields)
	}
}
