// Package workspace keeps one client core per browser session: its token
// store namespace, gateway, session, cart, catalog browser and services.
package workspace

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/DavidAnato/AgriConnect/internal/cart"
	"github.com/DavidAnato/AgriConnect/internal/catalog"
	"github.com/DavidAnato/AgriConnect/internal/gateway"
	"github.com/DavidAnato/AgriConnect/internal/orders"
	"github.com/DavidAnato/AgriConnect/internal/session"
	"github.com/DavidAnato/AgriConnect/internal/tokenstore"
	"github.com/DavidAnato/AgriConnect/pkg/httpclient"
	"github.com/DavidAnato/AgriConnect/pkg/logger"
)

// Workspace is the client core of one browser session.
type Workspace struct {
	ID      string
	Gateway *gateway.Gateway
	Session *session.Session
	Cart    *cart.Cart
	Browser *catalog.Browser
	Catalog *catalog.Service
	Orders  *orders.Service

	lastSeen time.Time
	mount    sync.Once
}

// Mount loads the server cart of a rehydrated session, once per workspace.
// Failures are logged by the cart and leave it empty.
func (ws *Workspace) Mount(ctx context.Context) {
	ws.mount.Do(func() {
		if ws.Session.IsAuthenticated() {
			ws.Cart.Mount(gateway.WithoutNavigator(ctx))
		}
	})
}

// Config configures a Registry.
type Config struct {
	BaseURL        string
	Client         httpclient.Doer
	Backends       tokenstore.Factory
	IdleTTL        time.Duration
	SearchDebounce time.Duration
	PageSize       int
}

// Registry creates workspaces on first use and evicts those left idle for
// longer than the configured TTL. Tokens outlive eviction when the backend
// is persistent: the next request with the same ID rehydrates the session.
type Registry struct {
	cfg    Config
	logger *slog.Logger

	mu         sync.Mutex
	workspaces map[string]*Workspace
	nowFunc    func() time.Time
}

// NewRegistry creates an empty Registry.
func NewRegistry(cfg Config, l *slog.Logger) *Registry {
	if l == nil {
		l = logger.Discard()
	}
	if cfg.Backends == nil {
		cfg.Backends = tokenstore.MemoryFactory()
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 30 * time.Minute
	}
	if cfg.SearchDebounce <= 0 {
		cfg.SearchDebounce = catalog.DefaultDebounce
	}
	return &Registry{
		cfg:        cfg,
		logger:     l,
		workspaces: make(map[string]*Workspace),
		nowFunc:    time.Now,
	}
}

// NewID returns a fresh workspace ID.
func NewID() string {
	return uuid.NewString()
}

// ValidID reports whether id has the shape NewID produces.
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// Get returns the workspace for id, creating and rehydrating it if needed,
// and marks it as seen. Creation only reads the token store; the cart is
// loaded by Mount.
func (r *Registry) Get(ctx context.Context, id string) *Workspace {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.nowFunc()
	if ws, ok := r.workspaces[id]; ok {
		ws.lastSeen = now
		return ws
	}

	ws := r.build(ctx, id)
	ws.lastSeen = now
	r.workspaces[id] = ws
	return ws
}

func (r *Registry) build(ctx context.Context, id string) *Workspace {
	l := r.logger.With(slog.String("session_id", id))
	store := tokenstore.New(r.cfg.Backends(id), l)
	gw := gateway.New(r.cfg.BaseURL, r.cfg.Client, store, l)

	sess := session.New(ctx, gw, l)
	c := cart.New(gw, l)
	gw.OnTeardown(func(context.Context) { c.Reset() })

	svc := catalog.NewService(gw)
	ws := &Workspace{
		ID:      id,
		Gateway: gw,
		Session: sess,
		Cart:    c,
		Catalog: svc,
		Orders:  orders.NewService(gw),
		Browser: catalog.NewBrowser(svc, l,
			catalog.WithDebounce(r.cfg.SearchDebounce),
			catalog.WithPageSize(r.cfg.PageSize),
		),
	}

	l.DebugContext(ctx, "workspace created", slog.String("state", sess.State().String()))
	return ws
}

// Remove drops the workspace for id. Its stored tokens are untouched.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	ws, ok := r.workspaces[id]
	delete(r.workspaces, id)
	r.mu.Unlock()

	if ok {
		ws.Browser.Close()
	}
}

// Len returns the number of live workspaces.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.workspaces)
}

// Run evicts idle workspaces every TTL until ctx is done.
func (r *Registry) Run(ctx context.Context) {
	ticker := time.NewTicker(r.cfg.IdleTTL)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.evictIdle()
		}
	}
}

// evictIdle drops every workspace not seen within the TTL.
func (r *Registry) evictIdle() int {
	r.mu.Lock()
	now := r.nowFunc()
	var idle []*Workspace
	for id, ws := range r.workspaces {
		if now.Sub(ws.lastSeen) > r.cfg.IdleTTL {
			idle = append(idle, ws)
			delete(r.workspaces, id)
		}
	}
	r.mu.Unlock()

	for _, ws := range idle {
		ws.Browser.Close()
	}
	if len(idle) > 0 {
		r.logger.Debug("evicted idle workspaces", slog.Int("count", len(idle)))
	}
	return len(idle)
}

// Close stops every workspace's pending work.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, ws := range r.workspaces {
		ws.Browser.Close()
		delete(r.workspaces, id)
	}
}
