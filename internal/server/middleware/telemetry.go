// Package middleware holds HTTP middleware shared by all routes.
package middleware

import (
	"context"
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"digital-forms-platform/runner/internal/telemetry/domain"
	"digital-forms-platform/runner/internal/telemetry/producer"
)

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// RequestTelemetry returns middleware that emits a telemetry event after each
// request. Best-effort: failures are logged and do not fail the request.
// If p is nil the middleware no-ops. skipPaths is the set of paths to not
// emit (e.g. /health).
func RequestTelemetry(p producer.Producer, skipPaths map[string]bool) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			if p == nil || skipPaths[r.URL.Path] {
				return
			}
			event := &domain.Event{
				EventType: "http_request",
				Source:    "http_middleware",
				Metadata: map[string]interface{}{
					"method":      r.Method,
					"path":        r.URL.Path,
					"status":      rec.status,
					"duration_ms": time.Since(start).Milliseconds(),
					"client_ip":   ClientIP(r),
				},
				CreatedAt: time.Now().UTC(),
			}
			go func() {
				emitCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := p.Emit(emitCtx, event); err != nil {
					log.Printf("telemetry: middleware emit failed: %v", err)
				}
			}()
		})
	}
}

// RequestLogging returns middleware that writes one log line per request.
func RequestLogging() mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			log.Printf("http: %s %s %d %s", r.Method, r.URL.Path, rec.status, time.Since(start))
		})
	}
}

// ClientIP returns the caller address, preferring the first X-Forwarded-For
// entry when the request came through a proxy.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		parts := strings.Split(fwd, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
