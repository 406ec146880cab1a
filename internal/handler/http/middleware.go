package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/DavidAnato/AgriConnect/internal/gateway"
	"github.com/DavidAnato/AgriConnect/internal/workspace"
	"github.com/DavidAnato/AgriConnect/pkg/logger"
	"github.com/DavidAnato/AgriConnect/pkg/middleware"
)

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey string

const (
	workspaceKey  contextKey = "workspace"
	navigationKey contextKey = "navigation"
)

// CookieConfig describes the browser session cookie.
type CookieConfig struct {
	Name   string
	TTL    time.Duration
	Secure bool
}

// navigation records where the core asked to send the browser during a
// request. The last call wins.
type navigation struct {
	mu   sync.Mutex
	path string
}

func (n *navigation) navigate(path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.path = path
}

func (n *navigation) target() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.path
}

// SessionBinding resolves the browser's workspace from its session cookie,
// issuing a new cookie when it is missing or malformed. The workspace, the
// session ID and the signed-in identity are stored in the request context,
// and navigation requests of the core are captured for the error response.
func SessionBinding(reg *workspace.Registry, cookie CookieConfig, l *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := ""
			if c, err := r.Cookie(cookie.Name); err == nil && workspace.ValidID(c.Value) {
				id = c.Value
			}
			if id == "" {
				id = workspace.NewID()
				l.DebugContext(r.Context(), "issuing browser session")
			}
			// Sliding expiry.
			http.SetCookie(w, &http.Cookie{
				Name:     cookie.Name,
				Value:    id,
				Path:     "/",
				MaxAge:   int(cookie.TTL.Seconds()),
				HttpOnly: true,
				Secure:   cookie.Secure,
				SameSite: http.SameSiteLaxMode,
			})

			ctx := logger.WithSessionID(r.Context(), id)
			ws := reg.Get(ctx, id)
			ws.Mount(ctx)

			nav := &navigation{}
			ctx = context.WithValue(ctx, workspaceKey, ws)
			ctx = context.WithValue(ctx, navigationKey, nav)
			ctx = gateway.WithNavigator(ctx, nav.navigate)
			if u := ws.Session.User(); u != nil {
				ctx = middleware.WithIdentity(ctx, strconv.FormatInt(u.ID, 10), string(u.Role))
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// workspaceFrom returns the workspace bound by SessionBinding.
func workspaceFrom(ctx context.Context) *workspace.Workspace {
	ws, _ := ctx.Value(workspaceKey).(*workspace.Workspace)
	return ws
}

func navigationFrom(ctx context.Context) *navigation {
	nav, _ := ctx.Value(navigationKey).(*navigation)
	return nav
}

// gate resolves the workspace session of the request for RequireRole.
func gate(ctx context.Context, roles ...string) (string, error) {
	return workspaceFrom(ctx).Session.Gate(ctx, roles...)
}
