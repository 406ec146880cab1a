package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel/trace"

	"github.com/DavidAnato/AgriConnect/pkg/httputil"
)

type contextKeyType string

const (
	userIDKey contextKeyType = "user_id"
	roleKey   contextKeyType = "role"
)

// Gate decides whether the caller bound to ctx may use a route restricted to
// roles. On refusal it returns the path the browser should be sent to along
// with the error.
type Gate func(ctx context.Context, roles ...string) (redirect string, err error)

// RequireRole rejects requests the gate refuses. The JSON error carries the
// gate's redirect hint (for instance /login for anonymous visitors).
func RequireRole(gate Gate, l *slog.Logger, roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if redirect, err := gate(r.Context(), roles...); err != nil {
				httputil.WriteErrorRedirect(w, r, err, redirect, l)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithIdentity stores the signed-in user's ID and role in ctx for logging
// and role checks, and tags the request span with them.
func WithIdentity(ctx context.Context, userID, role string) context.Context {
	annotateIdentity(trace.SpanFromContext(ctx), userID, role)
	ctx = context.WithValue(ctx, userIDKey, userID)
	return context.WithValue(ctx, roleKey, role)
}

// UserIDFromContext extracts the user ID from the request context.
func UserIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(userIDKey).(string); ok {
		return id
	}
	return ""
}

// RoleFromContext extracts the user role from the request context.
func RoleFromContext(ctx context.Context) string {
	if role, ok := ctx.Value(roleKey).(string); ok {
		return role
	}
	return ""
}
