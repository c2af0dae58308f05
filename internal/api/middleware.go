package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/finmax/ledger/internal/auth"
)

// actorHeader names the authenticated acting user. Authentication itself
// happens upstream (the app's Clerk-verifying proxy); this service trusts
// the header.
const actorHeader = "X-Actor-Id"

// responseWriter captures the HTTP status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// requestLogger logs every request with a generated request id.
func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			requestID := uuid.NewString()
			w.Header().Set("X-Request-Id", requestID)

			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(rw, r)

			logger.Info("http request",
				zap.String("requestId", requestID),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rw.statusCode),
				zap.Duration("duration", time.Since(start)),
				zap.String("remote", r.RemoteAddr),
			)
		})
	}
}

// actorExtractor moves the actor header into the request context. Handlers
// that mutate state require it; read-only and registration handlers do not.
func actorExtractor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := r.Header.Get(actorHeader); id != "" {
			r = r.WithContext(auth.ContextWithActorID(r.Context(), id))
		}
		next.ServeHTTP(w, r)
	})
}
