package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/faysalsarker-dev/piercing-cms/internal/api/router"
	"github.com/faysalsarker-dev/piercing-cms/internal/apiclient"
	"github.com/faysalsarker-dev/piercing-cms/internal/app/bootstrap"
	"github.com/faysalsarker-dev/piercing-cms/internal/appstate"
	appconfig "github.com/faysalsarker-dev/piercing-cms/internal/config"
	httpmiddleware "github.com/faysalsarker-dev/piercing-cms/internal/http/middleware"
	"github.com/faysalsarker-dev/piercing-cms/internal/labels"
	"github.com/faysalsarker-dev/piercing-cms/internal/observability/metrics"
	"github.com/faysalsarker-dev/piercing-cms/internal/resources"
	"github.com/faysalsarker-dev/piercing-cms/pkg/logging"
)

const sweepInterval = time.Minute

func main() {
	// .env is optional outside local development
	_ = godotenv.Load()

	cfg := appconfig.Load()

	logger := logging.NewWithWriter(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	logger.Info("starting piercing-cms console API",
		"env", cfg.Env,
		"port", cfg.Port,
		"upstream", cfg.APIBaseURL,
		"auth_provider", cfg.AuthProvider,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	fmt.Println("Server exited gracefully")
}

func run(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) error {
	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if redisClient == nil {
		return fmt.Errorf("redis is required at %q", cfg.RedisAddr)
	}
	defer redisClient.Close()

	metricsHandler, consoleMetrics, gatherer := setupMetrics()

	svc, verifier, err := bootstrap.BuildIdentity(ctx, cfg, redisClient, consoleMetrics, logger)
	if err != nil {
		return err
	}

	renderer, err := labels.NewRenderer()
	if err != nil {
		return fmt.Errorf("label templates: %w", err)
	}

	workspaces := appstate.NewRegistry(appstate.Deps{
		Client: apiclient.New(apiclient.Config{
			BaseURL: cfg.APIBaseURL,
			Timeout: cfg.APITimeout,
			Logger:  logger,
			Metrics: consoleMetrics,
		}),
		CacheTTL:      cfg.QueryCacheTTL,
		IdleTTL:       cfg.WorkspaceIdleTTL,
		DayOffMessage: cfg.DefaultDayOffMessage,
		Metrics:       consoleMetrics,
		Logger:        logger,
	})
	go workspaces.Run(ctx, sweepInterval)

	limiter := httpmiddleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	go limiter.Janitor(ctx.Done())

	handler := router.New(&router.Config{
		Logger:             logger,
		Identity:           svc,
		Verifier:           verifier,
		Workspaces:         workspaces,
		Preferences:        bootstrap.BuildPreferenceStore(redisClient),
		Catalog:            resources.DefaultCatalog(),
		Labels:             renderer,
		AdminRole:          cfg.AdminRole,
		MetricsHandler:     metricsHandler,
		Gatherer:           gatherer,
		HealthCheck:        bootstrap.RedisHealthCheck(redisClient),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimiter:        limiter,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	logger.Info("server stopped", "workspaces", workspaces.Len())
	return nil
}

// setupMetrics uses a dedicated registry so /metrics only carries console
// series plus the Go runtime collectors.
func setupMetrics() (http.Handler, *metrics.ConsoleMetrics, prometheus.Gatherer) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	consoleMetrics := metrics.NewConsoleMetrics(reg)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), consoleMetrics, reg
}
