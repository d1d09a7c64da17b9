package middleware

import (
	"net/http"
	"strings"
)

// statusWriter records what a handler wrote. It forwards Flush so SSE
// frames still reach the client, and Unwrap so http.ResponseController can
// clear deadlines on the underlying connection.
type statusWriter struct {
	http.ResponseWriter
	status  int
	written int64
	flushes int
}

func newStatusWriter(w http.ResponseWriter) *statusWriter {
	return &statusWriter{ResponseWriter: w}
}

func (sw *statusWriter) WriteHeader(code int) {
	if sw.status == 0 {
		sw.status = code
	}
	sw.ResponseWriter.WriteHeader(code)
}

func (sw *statusWriter) Write(b []byte) (int, error) {
	if sw.status == 0 {
		sw.status = http.StatusOK
	}
	n, err := sw.ResponseWriter.Write(b)
	sw.written += int64(n)
	return n, err
}

func (sw *statusWriter) Flush() {
	if f, ok := sw.ResponseWriter.(http.Flusher); ok {
		sw.flushes++
		f.Flush()
	}
}

func (sw *statusWriter) Unwrap() http.ResponseWriter {
	return sw.ResponseWriter
}

// Status returns the written status, 200 if the handler wrote nothing.
func (sw *statusWriter) Status() int {
	if sw.status == 0 {
		return http.StatusOK
	}
	return sw.status
}

// streaming reports whether the response is an event stream.
func (sw *statusWriter) streaming() bool {
	return strings.HasPrefix(sw.Header().Get("Content-Type"), "text/event-stream")
}
