package workspace

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DavidAnato/AgriConnect/internal/domain"
	"github.com/DavidAnato/AgriConnect/internal/tokenstore"
	"github.com/DavidAnato/AgriConnect/pkg/httpclient"
)

const cartWithTomatoes = `{"id":1,"items":[{"id":11,"product":42,"product_name":"Tomates","quantity":"3","unit_price":"500.00","subtotal":"1500.00"}],"total":"1500.00"}`

type backend struct {
	cartLoads atomic.Int32
	// expired makes every call and every refresh answer 401.
	expired atomic.Bool
}

func (b *backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if b.expired.Load() {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"detail":"Token is invalid or expired"}`)
		return
	}
	switch r.URL.Path {
	case "/commerce/cart/":
		b.cartLoads.Add(1)
		_, _ = io.WriteString(w, cartWithTomatoes)
	default:
		http.NotFound(w, r)
	}
}

func newTestRegistry(t *testing.T, h http.Handler, factory tokenstore.Factory) *Registry {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	cfg := httpclient.DefaultConfig()
	cfg.MaxRetries = 0
	r := NewRegistry(Config{
		BaseURL:  srv.URL,
		Client:   httpclient.NewWithHTTPClient(srv.Client(), cfg),
		Backends: factory,
		IdleTTL:  time.Minute,
		PageSize: 12,
	}, nil)
	t.Cleanup(r.Close)
	return r
}

func seed(t *testing.T, backend tokenstore.Backend) {
	t.Helper()
	store := tokenstore.New(backend, nil)
	ctx := context.Background()
	store.SetCredentials(ctx, domain.Credentials{Access: "acc", Refresh: "ref"})
	store.SetUser(ctx, &domain.User{ID: 7, Email: "ama@example.com", Role: domain.RoleConsumer})
}

func TestNewID(t *testing.T) {
	id := NewID()
	assert.True(t, ValidID(id))
	assert.NotEqual(t, id, NewID())
	assert.False(t, ValidID("../../etc/passwd"))
	assert.False(t, ValidID(""))
}

func TestGet_ReturnsSameWorkspacePerID(t *testing.T) {
	r := newTestRegistry(t, &backend{}, nil)
	ctx := context.Background()

	a := r.Get(ctx, "a")
	assert.Same(t, a, r.Get(ctx, "a"))
	assert.NotSame(t, a, r.Get(ctx, "b"))
	assert.Equal(t, 2, r.Len())

	assert.False(t, a.Session.IsAuthenticated())
	assert.Equal(t, 12, a.Browser.Query().PageSize)
}

func TestGet_RehydratesFromPersistentBackend(t *testing.T) {
	dir := t.TempDir()
	seed(t, tokenstore.NewFile(dir, "visitor"))

	be := &backend{}
	r := newTestRegistry(t, be, tokenstore.FileFactory(dir))
	ctx := context.Background()

	ws := r.Get(ctx, "visitor")
	require.True(t, ws.Session.IsAuthenticated())
	assert.Equal(t, int64(7), ws.Session.User().ID)
	assert.Zero(t, be.cartLoads.Load(), "creation does not call the backend")

	ws.Mount(ctx)
	ws.Mount(ctx)
	assert.Equal(t, int32(1), be.cartLoads.Load())
	assert.Equal(t, domain.Decimal(3), ws.Cart.Count())
}

func TestMount_AnonymousSkipsCart(t *testing.T) {
	be := &backend{}
	r := newTestRegistry(t, be, nil)

	ws := r.Get(context.Background(), "anon")
	ws.Mount(context.Background())
	assert.Zero(t, be.cartLoads.Load())
}

func TestTeardown_ResetsCartAndSession(t *testing.T) {
	mem := tokenstore.NewMemory()
	seed(t, mem)

	be := &backend{}
	r := newTestRegistry(t, be, func(string) tokenstore.Backend { return mem })
	ctx := context.Background()

	ws := r.Get(ctx, "visitor")
	ws.Mount(ctx)
	require.Equal(t, domain.Decimal(3), ws.Cart.Count())

	be.expired.Store(true)
	err := ws.Cart.Load(ctx)
	require.Error(t, err)

	assert.False(t, ws.Session.IsAuthenticated())
	assert.Zero(t, ws.Cart.Count())
	assert.Zero(t, mem.Len(), "tokens and profile are cleared")
}

func TestEvictIdle(t *testing.T) {
	r := newTestRegistry(t, &backend{}, nil)
	now := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	r.nowFunc = func() time.Time { return now }
	ctx := context.Background()

	old := r.Get(ctx, "old")
	now = now.Add(45 * time.Second)
	r.Get(ctx, "fresh")

	now = now.Add(30 * time.Second)
	assert.Equal(t, 1, r.evictIdle())
	assert.Equal(t, 1, r.Len())

	assert.NotSame(t, old, r.Get(ctx, "old"), "an evicted workspace is rebuilt")
}

func TestRemove(t *testing.T) {
	r := newTestRegistry(t, &backend{}, nil)
	r.Get(context.Background(), "a")

	r.Remove("a")
	r.Remove("missing")
	assert.Zero(t, r.Len())
}

func TestRun_StopsWithContext(t *testing.T) {
	r := newTestRegistry(t, &backend{}, nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
