package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DavidAnato/AgriConnect/internal/config"
	"github.com/DavidAnato/AgriConnect/pkg/httpclient"
	"github.com/DavidAnato/AgriConnect/pkg/logger"
)

func newMarketplace(t *testing.T, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"count":0,"next":null,"previous":null,"results":[]}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func loadConfig(t *testing.T, env map[string]string) *config.Config {
	t.Helper()
	cfg, err := config.LoadFrom(env)
	require.NoError(t, err)
	return cfg
}

func readiness(t *testing.T, a *App) (int, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	a.httpServer.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func TestNewApp_MemoryStore(t *testing.T) {
	srv := newMarketplace(t, http.StatusOK)
	a, err := NewApp(loadConfig(t, map[string]string{"AGRICONNECT_API_URL": srv.URL}), logger.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Shutdown() })

	assert.Nil(t, a.rdb)
	code, body := readiness(t, a)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "up", body["status"])
}

func TestNewApp_RedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	srv := newMarketplace(t, http.StatusOK)

	a, err := NewApp(loadConfig(t, map[string]string{
		"AGRICONNECT_API_URL": srv.URL,
		"TOKEN_STORE":         "redis",
		"REDIS_ADDR":          mr.Addr(),
	}), logger.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Shutdown() })

	require.NotNil(t, a.rdb)
	code, _ := readiness(t, a)
	assert.Equal(t, http.StatusOK, code)

	mr.Close()
	code, body := readiness(t, a)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "down", body["status"])
}

func TestNewApp_RedisUnavailable(t *testing.T) {
	_, err := NewApp(loadConfig(t, map[string]string{
		"TOKEN_STORE": "redis",
		"REDIS_ADDR":  "127.0.0.1:1",
	}), logger.Discard())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connect to redis")
}

func TestMarketplaceChecker(t *testing.T) {
	cfg := httpclient.DefaultConfig()
	cfg.MaxRetries = 0

	up := newMarketplace(t, http.StatusOK)
	check := marketplaceChecker(httpclient.NewWithHTTPClient(up.Client(), cfg), up.URL)
	assert.NoError(t, check(context.Background()))

	failing := newMarketplace(t, http.StatusInternalServerError)
	check = marketplaceChecker(httpclient.NewWithHTTPClient(failing.Client(), cfg), failing.URL)
	assert.Error(t, check(context.Background()))
}

func TestIdleTTL(t *testing.T) {
	assert.Equal(t, 10*time.Minute, idleTTL(10*time.Minute))
	assert.Equal(t, time.Hour, idleTTL(720*time.Hour))
}
