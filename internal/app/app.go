package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/DavidAnato/AgriConnect/internal/catalog"
	"github.com/DavidAnato/AgriConnect/internal/config"
	handler "github.com/DavidAnato/AgriConnect/internal/handler/http"
	"github.com/DavidAnato/AgriConnect/internal/tokenstore"
	"github.com/DavidAnato/AgriConnect/internal/workspace"
	"github.com/DavidAnato/AgriConnect/pkg/database"
	"github.com/DavidAnato/AgriConnect/pkg/health"
	"github.com/DavidAnato/AgriConnect/pkg/httpclient"
	"github.com/DavidAnato/AgriConnect/pkg/middleware"
	"github.com/DavidAnato/AgriConnect/pkg/tracing"
)

// App wires together all dependencies and runs the storefront.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	rdb            *redis.Client
	registry       *workspace.Registry
	httpServer     *http.Server
	shutdownTracer func(context.Context) error
	stop           context.CancelFunc
	background     context.Context
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Tracing.
	tracingCfg := tracing.DefaultConfig("storefront")
	tracingCfg.Environment = cfg.Environment
	tracingCfg.Enabled = cfg.OTELEnabled
	tracingCfg.OTLPEndpoint = cfg.OTELEndpoint
	tracingCfg.SampleRate = cfg.OTELSampleRate
	shutdownTracer, err := tracing.InitTracer(ctx, tracingCfg)
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	// Marketplace API client behind a circuit breaker.
	clientCfg := httpclient.DefaultConfig()
	clientCfg.Timeout = cfg.APITimeout
	clientCfg.MaxRetries = cfg.APIMaxRetries
	apiClient := httpclient.New(clientCfg)
	breaker := httpclient.NewCircuitBreakerClient(apiClient,
		httpclient.DefaultCircuitBreakerConfig("agriconnect-api"), logger)

	healthHandler := health.NewHandler()
	healthHandler.RegisterNonCritical("marketplace", marketplaceChecker(apiClient, cfg.APIURL))

	// Token store backend.
	var (
		rdb      *redis.Client
		backends tokenstore.Factory
	)
	switch cfg.TokenStore {
	case config.TokenStoreRedis:
		redisCfg := database.DefaultRedisConfig()
		redisCfg.Addr = cfg.RedisAddr
		redisCfg.Password = cfg.RedisPass
		redisCfg.DB = cfg.RedisDB
		rdb, err = database.NewRedisClient(ctx, redisCfg)
		if err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		logger.Info("connected to Redis",
			slog.String("addr", cfg.RedisAddr),
			slog.Int("db", cfg.RedisDB),
		)
		backends = tokenstore.RedisFactory(rdb, cfg.SessionTTL)
		healthHandler.Register("redis", database.PingChecker(rdb))
	case config.TokenStoreFile:
		backends = tokenstore.FileFactory(cfg.TokenStoreDir)
		logger.Info("storing sessions on disk", slog.String("dir", cfg.TokenStoreDir))
	default:
		backends = tokenstore.MemoryFactory()
	}

	registry := workspace.NewRegistry(workspace.Config{
		BaseURL:        cfg.APIURL,
		Client:         breaker,
		Backends:       backends,
		IdleTTL:        idleTTL(cfg.SessionTTL),
		SearchDebounce: cfg.SearchDebounce,
		PageSize:       cfg.CatalogPageSize,
	}, logger)

	catalogDefaults := catalog.Default()
	catalogDefaults.PageSize = cfg.CatalogPageSize

	cors := middleware.DefaultCORSConfig()
	cors.AllowedOrigins = cfg.CORSAllowedOrigins
	cors.Environment = cfg.Environment

	background, stop := context.WithCancel(context.Background())
	router := handler.NewRouter(background, registry, healthHandler, handler.RouterConfig{
		Cookie: handler.CookieConfig{
			Name:   cfg.SessionCookie,
			TTL:    cfg.SessionTTL,
			Secure: !cfg.IsDevelopment(),
		},
		CORS:            cors,
		MetricsCIDRs:    cfg.MetricsAllowedCIDRs,
		RateLimitRPS:    cfg.RateLimitRPS,
		RateLimitBurst:  cfg.RateLimitBurst,
		CatalogDefaults: catalogDefaults,
		CatalogMaxAge:   60,
	}, logger)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 35 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		rdb:            rdb,
		registry:       registry,
		httpServer:     httpServer,
		shutdownTracer: shutdownTracer,
		stop:           stop,
		background:     background,
	}, nil
}

// idleTTL keeps workspaces in memory for at most an hour. Persistent token
// backends let an evicted session come back on its next request.
func idleTTL(sessionTTL time.Duration) time.Duration {
	return min(sessionTTL, time.Hour)
}

// marketplaceChecker reports the backend as down when it cannot be reached
// or answers with a server error.
func marketplaceChecker(client *httpclient.Client, baseURL string) health.Checker {
	return func(ctx context.Context) error {
		resp, err := client.Get(ctx, baseURL+"/products/products/?page_size=1")
		if err != nil {
			return fmt.Errorf("reach marketplace: %w", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode >= http.StatusInternalServerError {
			return fmt.Errorf("marketplace answered %d", resp.StatusCode)
		}
		return nil
	}
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go a.registry.Run(a.background)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
			slog.String("api_url", a.cfg.APIURL),
			slog.String("token_store", a.cfg.TokenStore),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		_ = a.Shutdown()
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	// Graceful HTTP server shutdown with a 10-second deadline.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}

	a.stop()
	a.registry.Close()

	if err := a.shutdownTracer(shutdownCtx); err != nil {
		a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
	}

	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
		}
	}

	a.logger.Info("application shutdown complete")
	return nil
}
