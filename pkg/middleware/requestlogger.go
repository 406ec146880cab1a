package middleware

import (
	"log/slog"
	"net/http"

	"github.com/DavidAnato/AgriConnect/pkg/logger"
)

// RequestLogger returns middleware that builds a request-scoped logger enriched
// with correlation_id, session_id, user_id, trace_id, and span_id, then stores
// it in context via logger.NewContext. Downstream code retrieves it with
// logger.FromContext(ctx).
//
// Mount it after RequestLogging, Tracing and the middleware that binds the
// browser session.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if userID := UserIDFromContext(ctx); userID != "" {
				ctx = logger.WithUserID(ctx, userID)
			}

			enriched := logger.WithContext(ctx, base)
			if role := RoleFromContext(ctx); role != "" {
				enriched = enriched.With(slog.String("role", role))
			}
			ctx = logger.NewContext(ctx, enriched)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
