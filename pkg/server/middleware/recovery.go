package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"mercator-hq/callisto/pkg/telemetry/logging"
)

// Recovery recovers from panics in downstream handlers, logs the panic
// with its stack trace, and responds 500 without exposing internals.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logging.FromContext(r.Context(), logger).Error("panic in handler",
						"error", err,
						"method", r.Method,
						"path", r.URL.Path,
						"stack", string(debug.Stack()),
					)
					http.Error(w, "internal server error", http.StatusInternalServerError)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
