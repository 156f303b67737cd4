package http

import (
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"
)

// RequestObserver records handled requests
type RequestObserver interface {
	ObserveRequest(method, path string, status int, duration time.Duration)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// LoggingMiddleware logs every request with its status and latency.
// When observer is non-nil the request is also recorded under its route pattern.
func LoggingMiddleware(logger *slog.Logger, observer RequestObserver) func(http.Handler) http.Handler {
	logger = logger.With("component", "http")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			duration := time.Since(start)
			logger.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"duration_ms", duration.Milliseconds(),
			)

			if observer != nil {
				pattern := r.Pattern
				if pattern == "" {
					pattern = "unmatched"
				}
				observer.ObserveRequest(r.Method, pattern, rec.status, duration)
			}
		})
	}
}

// RecoveryMiddleware turns panics into 500 responses
func RecoveryMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if v := recover(); v != nil {
					logger.Error("panic in handler",
						"panic", v,
						"path", r.URL.Path,
						"stack", string(debug.Stack()),
					)
					respondErrorWithCode(w, http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// ContentTypeMiddleware defaults responses to JSON
func ContentTypeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}
