package gateway

import (
	"net/http"
	"time"

	"github.com/antigravity/gateway/internal/monitoring"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// Flush lets streaming handlers keep using http.Flusher through the
// recorder wrapper.
func (s *statusRecorder) Flush() {
	if flusher, ok := s.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

// AccessLogMiddleware wraps next with a one-line access log entry per
// request (§4.8: method/path/status/latency only, no body logging).
func AccessLogMiddleware(accessLog *monitoring.AccessLog, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		accessLog.Record(monitoring.AccessLogEntry{
			Timestamp: start,
			Method:    r.Method,
			Path:      r.URL.Path,
			Status:    rec.status,
			LatencyMs: time.Since(start).Milliseconds(),
		})
	})
}
