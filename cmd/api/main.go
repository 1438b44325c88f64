// Package main is the entry point for the ranking API server.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/onnwee/irisrank/internal/api"
	"github.com/onnwee/irisrank/internal/auth"
	"github.com/onnwee/irisrank/internal/cache"
	"github.com/onnwee/irisrank/internal/config"
	"github.com/onnwee/irisrank/internal/health"
	"github.com/onnwee/irisrank/internal/middleware"
	"github.com/onnwee/irisrank/internal/nextsteps"
	"github.com/onnwee/irisrank/internal/rank"
	"github.com/onnwee/irisrank/internal/tracing"
)

const serviceName = "irisrank-api"

func main() {
	help := flag.Bool("help", false, "display help message")
	configFile := flag.String("config", "", "path to YAML config file (optional)")
	flag.Parse()

	if *help {
		fmt.Println("Irisrank API Server")
		fmt.Println()
		fmt.Println("Usage: api [options]")
		fmt.Println()
		fmt.Println("Options:")
		flag.PrintDefaults()
		os.Exit(0)
	}

	cfg, errs := config.Load(*configFile)
	if len(errs) > 0 {
		for _, err := range errs {
			fmt.Fprintln(os.Stderr, "config error:", err)
		}
		os.Exit(1)
	}

	logger := middleware.NewLogger(cfg.Env)
	slog.SetDefault(logger)
	logger.Info("configuration loaded", "config", cfg.LogSummary())

	// Tracing provider. A disabled provider is a no-op.
	tracerProvider, err := tracing.NewProvider(tracing.Config{
		ServiceName:  serviceName,
		Enabled:      cfg.TracingEnabled,
		Environment:  cfg.Env,
		OTLPEndpoint: cfg.TracingEndpoint,
		SamplingRate: 1.0,
		InsecureMode: cfg.Env != "production",
	})
	if err != nil {
		logger.Error("failed to initialize tracing", "error", err)
		os.Exit(1)
	}

	// Prometheus registry with process and Go runtime collectors.
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	rankMetrics := rank.NewMetrics()
	if err := rankMetrics.Register(registry); err != nil {
		logger.Error("failed to register ranking metrics", "error", err)
		os.Exit(1)
	}
	httpMetrics := middleware.NewMetrics()
	if err := httpMetrics.Register(registry); err != nil {
		logger.Error("failed to register http metrics", "error", err)
		os.Exit(1)
	}

	// Starting weights: defaults, optionally overridden by a calibration file.
	weights := rank.DefaultWeights()
	if cfg.CalibrationPath != "" {
		weights, err = rank.LoadCalibration(cfg.CalibrationPath)
		if err != nil {
			logger.Error("failed to load calibration", "path", cfg.CalibrationPath, "error", err)
			os.Exit(1)
		}
		logger.Info("calibration loaded", "path", cfg.CalibrationPath)
	}

	resultCache := cache.New[[]rank.Result](cfg.CacheSize, cfg.CacheTTL())

	svc, err := rank.NewService(weights,
		rank.WithCache(resultCache),
		rank.WithMetrics(rankMetrics),
	)
	if err != nil {
		logger.Error("failed to create ranking service", "error", err)
		os.Exit(1)
	}

	// Rate limit store: Redis when configured, in-memory otherwise.
	var limitStore middleware.RateLimitStore
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Error("invalid REDIS_URL", "error", err)
			os.Exit(1)
		}
		redisClient = redis.NewClient(opts)
		limitStore = middleware.NewRedisRateLimitStore(redisClient).WithMetrics(httpMetrics)
		logger.Info("rate limiting backed by redis")
	} else {
		memStore := middleware.NewInMemoryRateLimitStore()
		limitStore = memStore
		go func() {
			ticker := time.NewTicker(time.Minute)
			defer ticker.Stop()
			for range ticker.C {
				memStore.Cleanup()
			}
		}()
		logger.Info("rate limiting backed by process memory")
	}

	globalLimit := middleware.RateLimitConfig{
		RequestsPerWindow: cfg.RateLimitPerMinute,
		WindowDuration:    time.Minute,
	}
	// Burst control: a one-second window on top of the per-minute budget.
	burstLimit := middleware.RateLimitConfig{
		RequestsPerWindow: cfg.RateLimitBurst,
		WindowDuration:    time.Second,
	}
	if err := globalLimit.Validate(); err != nil {
		logger.Error("invalid rate limit configuration", "error", err)
		os.Exit(1)
	}
	if err := burstLimit.Validate(); err != nil {
		logger.Error("invalid burst limit configuration", "error", err)
		os.Exit(1)
	}
	scoreLimit := middleware.DefaultScoreLimit()
	adminLimit := middleware.DefaultAdminLimit()

	jwtService := auth.NewJWTService(cfg.JWTSecret)
	requireRead := auth.RequireAuth(jwtService, auth.ScopeRead)
	requireAdmin := auth.RequireAuth(jwtService, auth.ScopeAdmin)

	// Each limiter tier gets its own key prefix so tiers with different
	// windows never share a store bucket.
	prefixed := func(prefix string, kf middleware.KeyFunc) middleware.KeyFunc {
		return func(r *http.Request) string { return prefix + kf(r) }
	}
	limitScore := middleware.RateLimiter(limitStore, scoreLimit, prefixed("score:", middleware.CallerKeyFunc()))
	limitAdmin := middleware.RateLimiter(limitStore, adminLimit, prefixed("admin:", middleware.CallerKeyFunc()))

	rankHandlers := api.NewRankHandlers(svc, nextsteps.NewRuleBased())

	var redisChecker api.HealthChecker
	if redisClient != nil {
		redisChecker = health.NewRedisChecker(redisClient)
	}
	healthHandlers := api.NewHealthHandlers(api.HealthHandlersConfig{
		RedisChecker:   redisChecker,
		MetricsEnabled: true,
	})

	mux := http.NewServeMux()

	// Scoring endpoints: authenticated, per-caller rate limit.
	mux.Handle("/rank/score", requireRead(limitScore(http.HandlerFunc(rankHandlers.Score))))
	mux.Handle("/rank/batch", requireRead(limitScore(http.HandlerFunc(rankHandlers.Batch))))
	mux.Handle("/rank/at-risk", requireRead(limitScore(http.HandlerFunc(rankHandlers.AtRisk))))
	mux.Handle("/rank/momentum", requireRead(limitScore(http.HandlerFunc(rankHandlers.Momentum))))
	mux.Handle("/rank/insights", requireRead(limitScore(http.HandlerFunc(rankHandlers.Insights))))
	mux.Handle("/rank/next-steps", requireRead(limitScore(http.HandlerFunc(rankHandlers.NextSteps))))

	// Read-only views.
	mux.Handle("/rank/config", requireRead(http.HandlerFunc(rankHandlers.GetConfig)))
	mux.Handle("/rank/stats", requireRead(http.HandlerFunc(rankHandlers.GetStats)))

	// Weight updates require the admin scope.
	mux.Handle("/rank/weights", requireAdmin(limitAdmin(http.HandlerFunc(rankHandlers.UpdateWeights))))

	// Operational endpoints are unauthenticated.
	mux.HandleFunc("/health", healthHandlers.Health)
	mux.HandleFunc("/ready", healthHandlers.Ready)
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	// Outermost first: RequestID -> Tracing -> Logging -> HTTPMetrics ->
	// global RateLimiter -> Profiling -> routes.
	var handler http.Handler = mux
	handler = middleware.Profiling(middleware.ProfilingConfig{
		Enabled:     os.Getenv("ENABLE_PPROF") == "true",
		Environment: cfg.Env,
	})(handler)
	handler = middleware.RateLimiter(limitStore, burstLimit, prefixed("burst:", middleware.IPKeyFunc()))(handler)
	handler = middleware.RateLimiter(limitStore, globalLimit, prefixed("global:", middleware.IPKeyFunc()))(handler)
	handler = middleware.HTTPMetrics(httpMetrics)(handler)
	handler = middleware.Logging(logger)(handler)
	handler = middleware.Tracing(serviceName)(handler)
	handler = middleware.RequestID(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting server", "port", cfg.Port, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	if err := tracerProvider.Shutdown(ctx); err != nil {
		logger.Error("tracer shutdown error", "error", err)
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Error("redis close error", "error", err)
		}
	}

	logger.Info("server stopped")
}
