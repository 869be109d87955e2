package middleware

import (
	"net/http"

	"github.com/google/uuid"
	"mercator-hq/callisto/pkg/telemetry/logging"
)

// RequestIDHeader is the HTTP header carrying the request ID.
const RequestIDHeader = "X-Request-ID"

// RequestID assigns each request a unique ID, honoring a client-supplied
// X-Request-ID. The ID is placed in the request context and echoed in the
// response headers for log correlation.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		ctx := logging.WithRequestID(r.Context(), requestID)
		w.Header().Set(RequestIDHeader, requestID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
