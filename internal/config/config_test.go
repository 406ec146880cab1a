package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{})

	require.NoError(t, err)
	assert.Equal(t, 8090, cfg.HTTPPort)
	assert.Equal(t, "http://127.0.0.1:8000", cfg.APIURL)
	assert.Equal(t, 15*time.Second, cfg.APITimeout)
	assert.Equal(t, TokenStoreMemory, cfg.TokenStore)
	assert.Equal(t, 300*time.Millisecond, cfg.SearchDebounce)
	assert.Equal(t, 10, cfg.CatalogPageSize)
	assert.Equal(t, []string{"127.0.0.1/32", "::1/128"}, cfg.MetricsAllowedCIDRs)
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.OTELEnabled)
}

func TestLoadFrom_TrimsTrailingSlashes(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{"AGRICONNECT_API_URL": "https://api.agriconnect.bj/api//"})

	require.NoError(t, err)
	assert.Equal(t, "https://api.agriconnect.bj/api", cfg.APIURL)
}

func TestLoadFrom_Overrides(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{
		"TOKEN_STORE":             "redis",
		"REDIS_ADDR":              "redis.prod:6380",
		"SESSION_TTL":             "24h",
		"CATALOG_SEARCH_DEBOUNCE": "150ms",
		"CORS_ALLOWED_ORIGINS":    "https://agriconnect.bj,https://www.agriconnect.bj",
		"RATE_LIMIT_RPS":          "2.5",
	})

	require.NoError(t, err)
	assert.Equal(t, TokenStoreRedis, cfg.TokenStore)
	assert.Equal(t, "redis.prod:6380", cfg.RedisAddr)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 150*time.Millisecond, cfg.SearchDebounce)
	assert.Equal(t, []string{"https://agriconnect.bj", "https://www.agriconnect.bj"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, 2.5, cfg.RateLimitRPS)
}

func TestLoadFrom_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{"port", map[string]string{"STOREFRONT_HTTP_PORT": "0"}, "invalid HTTP port"},
		{"relative api url", map[string]string{"AGRICONNECT_API_URL": "/api"}, "AGRICONNECT_API_URL"},
		{"unknown token store", map[string]string{"TOKEN_STORE": "sqlite"}, "TOKEN_STORE must be one of"},
		{"page size", map[string]string{"CATALOG_PAGE_SIZE": "500"}, "CATALOG_PAGE_SIZE"},
		{"cidr", map[string]string{"METRICS_ALLOWED_CIDRS": "10.0.0.0/33"}, "METRICS_ALLOWED_CIDRS"},
		{"wildcard cors in production", map[string]string{"ENVIRONMENT": "production", "CORS_ALLOWED_ORIGINS": "*"}, "must not contain *"},
		{"sample rate", map[string]string{"OTEL_SAMPLE_RATE": "2.0"}, "OTEL_SAMPLE_RATE must be between 0.0 and 1.0"},
		{"duration syntax", map[string]string{"SESSION_TTL": "forever"}, "parse config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadFrom(tt.env)

			assert.Nil(t, cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_ReadsEnvironment(t *testing.T) {
	t.Setenv("STOREFRONT_HTTP_PORT", "9191")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 9191, cfg.HTTPPort)
}
