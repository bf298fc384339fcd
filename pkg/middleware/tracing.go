package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	TraceHeader = "X-Trace-Id"

	traceIDContextKey contextKey = "trace_id"
	maxTraceIDLength             = 64
)

// TraceMiddleware propagates the caller's X-Trace-Id, or mints one, and
// stores a request logger carrying it in the context.
func TraceMiddleware(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			traceID := r.Header.Get(TraceHeader)
			if !validTraceID(traceID) {
				traceID = uuid.NewString()
			}
			w.Header().Set(TraceHeader, traceID)

			ctx := context.WithValue(r.Context(), traceIDContextKey, traceID)
			ctx = log.With().Str("trace_id", traceID).Logger().WithContext(ctx)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// validTraceID accepts short printable ASCII ids only; anything else is
// replaced so it never reaches the logs verbatim.
func validTraceID(id string) bool {
	if id == "" || len(id) > maxTraceIDLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] < 0x21 || id[i] > 0x7e {
			return false
		}
	}
	return true
}

func GetTraceID(r *http.Request) string {
	return TraceIDFromContext(r.Context())
}

func TraceIDFromContext(ctx context.Context) string {
	if traceID, ok := ctx.Value(traceIDContextKey).(string); ok {
		return traceID
	}
	return ""
}

// LoggerFromContext returns the request logger, or a disabled one outside a request.
func LoggerFromContext(ctx context.Context) *zerolog.Logger {
	return zerolog.Ctx(ctx)
}
