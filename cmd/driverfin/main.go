package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/boddenberg/driver-finance-go/internal/config"
	"github.com/boddenberg/driver-finance-go/internal/domain"
	"github.com/boddenberg/driver-finance-go/internal/handler"
	"github.com/boddenberg/driver-finance-go/internal/infra/cache"
	"github.com/boddenberg/driver-finance-go/internal/infra/memory"
	"github.com/boddenberg/driver-finance-go/internal/infra/observability"
	"github.com/boddenberg/driver-finance-go/internal/infra/postgres"
	"github.com/boddenberg/driver-finance-go/internal/infra/resilience"
	"github.com/boddenberg/driver-finance-go/internal/infra/supabase"
	"github.com/boddenberg/driver-finance-go/internal/port"
	"github.com/boddenberg/driver-finance-go/internal/service"

	"go.uber.org/zap"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel, "driver-finance")
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}
	loc, err := cfg.Location()
	if err != nil {
		logger.Fatal("invalid timezone", zap.String("timezone", cfg.Timezone), zap.Error(err))
	}

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.String("timezone", cfg.Timezone),
		zap.Bool("use_supabase", cfg.UseSupabase),
		zap.Bool("postgres", cfg.DatabaseURL != ""),
		zap.Bool("dev_auth", cfg.DevAuth),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
		zap.Int("baseline_window_days", cfg.BaselineWindowDays),
	)

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "driver-finance")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Cache ---
	configCache := cache.New[*domain.ConfigVersion](cfg.CacheTTL)
	defer configCache.Close()

	// --- Store ---
	store, backend, closeStore := openStore(cfg, logger)
	defer closeStore()

	// --- Services ---
	clock := service.NewClock(loc, time.Now)
	configSvc := service.NewConfigService(store, configCache, clock, metrics, logger)
	recordSvc := service.NewRecordService(store, configSvc, metrics, logger)
	analysisSvc := service.NewAnalysisService(store, configSvc, clock, cfg.BaselineWindowDays, metrics, logger)

	var authSvc *service.AuthService
	if cfg.JWTSecret != "" {
		authSvc = service.NewAuthService(cfg.JWTSecret, cfg.JWTAudience, logger)
		logger.Info("auth service enabled", zap.String("audience", cfg.JWTAudience))
	}
	if cfg.DevAuth {
		logger.Warn("DEV_AUTH enabled: X-User-ID header is trusted without a token")
	}

	// --- Router ---
	router := handler.NewRouter(handler.Services{
		Records:  recordSvc,
		Configs:  configSvc,
		Analysis: analysisSvc,
		Auth:     authSvc,
		Store:    store,
		Backend:  backend,
		DevAuth:  cfg.DevAuth,
	}, metrics, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port), zap.String("backend", backend))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}

// openStore picks the persistence backend: a direct Postgres connection
// when DATABASE_URL is set, then the Supabase REST API, then memory.
func openStore(cfg *config.Config, logger *zap.Logger) (port.Store, string, func()) {
	if cfg.DatabaseURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, postgres.PoolConfig{
			MaxConns:        int32(cfg.DBMaxConns),
			MinConns:        int32(cfg.DBMinConns),
			MaxConnLifetime: cfg.DBConnLifetime,
		})
		if err != nil {
			logger.Fatal("failed to connect to postgres", zap.Error(err))
		}
		store := postgres.NewStore(pool, logger)
		if cfg.DBMigrate {
			if err := store.Migrate(ctx); err != nil {
				logger.Fatal("failed to create schema", zap.Error(err))
			}
		}
		logger.Info("using Postgres as data backend")
		return store, "postgres", pool.Close
	}

	if cfg.SupabaseEnabled() {
		logger.Info("using Supabase as data backend",
			zap.String("supabase_url", cfg.SupabaseURL),
		)
		resilienceCfg := resilience.Config{
			MaxRetries:     cfg.MaxRetries,
			InitialBackoff: cfg.InitialBackoff,
			MaxConcurrency: cfg.MaxConcurrency,
		}
		client := supabase.NewClient(
			&http.Client{Timeout: cfg.HTTPTimeout},
			cfg.SupabaseURL,
			cfg.SupabaseAnonKey,
			cfg.SupabaseServiceKey,
			resilience.NewCircuitBreaker("supabase"),
			resilienceCfg,
			logger,
		)
		return client, "supabase", func() {}
	}

	logger.Warn("no database configured, records are kept in memory and lost on restart")
	return memory.New(), "memory", func() {}
}
