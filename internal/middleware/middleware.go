package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type contextKey string

const RequestIDKey contextKey = "request_id"

func RequestID(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := r.Header.Get("X-Request-ID")
			if requestID == "" {
				requestID = uuid.New().String()
			}

			w.Header().Set("X-Request-ID", requestID)

			ctx := context.WithValue(r.Context(), RequestIDKey, requestID)

			loggerWithID := logger.With().Str("request_id", requestID).Logger()
			ctx = loggerWithID.WithContext(ctx)

			loggerWithID.Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("remote_addr", r.RemoteAddr).
				Msg("request started")

			next.ServeHTTP(w, r.WithContext(ctx))

			duration := time.Since(start)
			loggerWithID.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int64("duration_ms", duration.Milliseconds()).
				Msg("request completed")
		})
	}
}

func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}

// InternalKey guards non-public endpoints with a shared-secret header. The
// health check, stored-data reads, the sync test and the import endpoint
// stay public: external relays push data through import with their own
// auth upstream of this service.
func InternalKey(key string, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if key == "" || isPublicPath(r) {
				next.ServeHTTP(w, r)
				return
			}

			if r.Header.Get("X-Internal-Key") != key {
				logger.Warn().Str("path", r.URL.Path).Str("remote_addr", r.RemoteAddr).Msg("rejected request with missing or invalid internal key")
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				w.Write([]byte(`{"error":"Forbidden","message":"Missing or invalid X-Internal-Key"}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func isPublicPath(r *http.Request) bool {
	switch {
	case r.URL.Path == "/health":
		return true
	case strings.HasPrefix(r.URL.Path, "/api/lottery/db/"):
		return true
	case r.URL.Path == "/api/lottery/sync-test":
		return true
	case r.URL.Path == "/api/lottery/import" && r.Method == http.MethodPost:
		return true
	}
	return false
}
