package config

import (
	"fmt"
	"net/netip"
	"net/url"
	"strings"
	"time"

	pkgconfig "github.com/DavidAnato/AgriConnect/pkg/config"
)

// Token store backends.
const (
	TokenStoreMemory = "memory"
	TokenStoreFile   = "file"
	TokenStoreRedis  = "redis"
)

// Config holds all configuration for the storefront.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"STOREFRONT_HTTP_PORT" envDefault:"8090"`

	// Marketplace backend
	APIURL        string        `env:"AGRICONNECT_API_URL" envDefault:"http://127.0.0.1:8000"`
	APITimeout    time.Duration `env:"API_REQUEST_TIMEOUT" envDefault:"15s"`
	APIMaxRetries int           `env:"API_MAX_RETRIES" envDefault:"2"`

	// Token store
	TokenStore    string `env:"TOKEN_STORE" envDefault:"memory"`
	TokenStoreDir string `env:"TOKEN_STORE_DIR" envDefault:"./data/sessions"`

	// Redis
	RedisAddr string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPass string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`

	// Browser sessions
	SessionTTL    time.Duration `env:"SESSION_TTL" envDefault:"720h"`
	SessionCookie string        `env:"SESSION_COOKIE" envDefault:"agriconnect_sid"`

	// Catalog
	SearchDebounce  time.Duration `env:"CATALOG_SEARCH_DEBOUNCE" envDefault:"300ms"`
	CatalogPageSize int           `env:"CATALOG_PAGE_SIZE" envDefault:"10"`

	// Rate limiting
	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS" envDefault:"20"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST" envDefault:"40"`

	CORSAllowedOrigins  []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"http://localhost:5173" envSeparator:","`
	MetricsAllowedCIDRs []string `env:"METRICS_ALLOWED_CIDRS" envDefault:"127.0.0.1/32,::1/128" envSeparator:","`

	// Tracing
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load storefront config: %w", err)
	}
	return finish(cfg)
}

// LoadFrom reads configuration from the given variables.
func LoadFrom(environ map[string]string) (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.LoadFrom(cfg, environ); err != nil {
		return nil, fmt.Errorf("load storefront config: %w", err)
	}
	return finish(cfg)
}

func finish(cfg *Config) (*Config, error) {
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	u, err := url.Parse(c.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("AGRICONNECT_API_URL must be an absolute http(s) URL, got %q", c.APIURL)
	}
	if c.APITimeout <= 0 {
		return fmt.Errorf("API_REQUEST_TIMEOUT must be positive")
	}
	if c.APIMaxRetries < 0 {
		return fmt.Errorf("API_MAX_RETRIES must not be negative")
	}

	switch c.TokenStore {
	case TokenStoreMemory, TokenStoreRedis:
	case TokenStoreFile:
		if c.TokenStoreDir == "" {
			return fmt.Errorf("TOKEN_STORE_DIR is required for the file token store")
		}
	default:
		return fmt.Errorf("TOKEN_STORE must be one of memory, file, redis; got %q", c.TokenStore)
	}

	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	if c.SessionCookie == "" {
		return fmt.Errorf("SESSION_COOKIE is required")
	}
	if c.SearchDebounce < 0 {
		return fmt.Errorf("CATALOG_SEARCH_DEBOUNCE must not be negative")
	}
	if c.CatalogPageSize < 1 || c.CatalogPageSize > 100 {
		return fmt.Errorf("CATALOG_PAGE_SIZE must be between 1 and 100")
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst < 1 {
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}

	for _, cidr := range c.MetricsAllowedCIDRs {
		if _, err := netip.ParsePrefix(strings.TrimSpace(cidr)); err != nil {
			return fmt.Errorf("METRICS_ALLOWED_CIDRS: %w", err)
		}
	}
	if c.Environment != "development" {
		for _, o := range c.CORSAllowedOrigins {
			if o == "*" {
				return fmt.Errorf("CORS_ALLOWED_ORIGINS must not contain * in %s environment", c.Environment)
			}
		}
	}

	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0")
	}
	return nil
}

// IsDevelopment reports whether the storefront runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}
