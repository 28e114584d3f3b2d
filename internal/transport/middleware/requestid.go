package middleware

import (
	"net/http"

	"github.com/hanifmaulana/orgops/pkg/logger"

	"github.com/google/uuid"
)

// RequestID threads a trace id through the request context and echoes it
// back on the response. Incoming X-Trace-ID headers win over generated
// ids so callers can correlate across services.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := r.Header.Get("X-Trace-ID")
		if traceID == "" {
			traceID = uuid.NewString()
		}

		ctx := logger.With(r.Context(), "traceID", traceID)

		w.Header().Set("X-Trace-ID", traceID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
