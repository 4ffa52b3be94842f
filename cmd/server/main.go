package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/storefront/backend/internal/infrastructure/cache"
	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"github.com/storefront/backend/internal/infrastructure/persistence"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
	"github.com/storefront/backend/internal/interfaces/http/router"
)

const shutdownTimeout = 30 * time.Second

//	@title			Storefront API
//	@version		1.0
//	@description	Storefront and admin API for a small online shop with card and cash on delivery checkout.

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Admin access token. Format: "Bearer {token}"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Output:  cfg.Log.Output,
		Service: cfg.Telemetry.ServiceName,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("Server stopped with error", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	obs, err := setupTelemetry(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer obs.shutdown(log)
	log = obs.log

	log.Info("Starting storefront backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("base_currency", cfg.Currency.Base),
		zap.Bool("card_payments", cfg.Stripe.Enabled()),
	)

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh))
	db, err := persistence.NewDatabase(&cfg.Database, persistence.WithLogger(gormLog))
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	if err := obs.instrumentDB(ctx, db, cfg, log); err != nil {
		return err
	}

	var rdb *redis.Client
	if cfg.Redis.Enabled {
		rdb, err = cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			// degrade to in-memory caches rather than refusing to start
			log.Warn("Redis unavailable, continuing without it", zap.Error(err))
			rdb = nil
		} else {
			defer func() { _ = rdb.Close() }()
		}
	}

	app, err := buildApp(ctx, cfg, log, db, rdb, obs.meters)
	if err != nil {
		return err
	}
	defer app.close(log)

	if err := app.bus.Start(ctx); err != nil {
		return err
	}
	if err := app.scheduler.Start(ctx); err != nil {
		return err
	}

	httpCfg := cfg.HTTP
	storefrontLimiter, loginLimiter := rateLimiters(httpCfg)
	if storefrontLimiter != nil {
		defer storefrontLimiter.Stop()
		defer loginLimiter.Stop()
	}

	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = httpCfg.CORSAllowOrigins
	if len(httpCfg.CORSAllowMethods) > 0 {
		cors.AllowMethods = httpCfg.CORSAllowMethods
	}
	if len(httpCfg.CORSAllowHeaders) > 0 {
		cors.AllowHeaders = httpCfg.CORSAllowHeaders
	}

	var metrics gin.HandlerFunc
	if obs.meters.IsEnabled() {
		metrics = middleware.HTTPMetrics(obs.meters)
	}

	engine, err := router.New(app.handlers, router.Options{
		Logger: log,
		Tracing: middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     cfg.Telemetry.Enabled,
		},
		Profiling: middleware.ProfilingConfig{
			Enabled:   cfg.Telemetry.ProfilingEnabled,
			SkipPaths: []string{"/health", "/api/v1/health"},
		},
		Metrics:           metrics,
		CORS:              cors,
		HSTS:              cfg.App.IsProduction(),
		MaxBodySize:       httpCfg.MaxBodySize,
		TrustedProxies:    httpCfg.TrustedProxies,
		StorefrontLimiter: storefrontLimiter,
		LoginLimiter:      loginLimiter,
		CartCookie: middleware.CartCookieConfig{
			Name:   httpCfg.CartCookieName,
			Secure: httpCfg.CartCookieSecure,
			MaxAge: httpCfg.CartCookieMaxAge,
		},
		CurrencyCookieMaxAge: 365 * 24 * time.Hour,
		Authenticator:        app.auth,
		Swagger: middleware.SwaggerConfig{
			Enabled:     cfg.Swagger.Enabled,
			RequireAuth: cfg.Swagger.RequireAuth,
			AllowedIPs:  cfg.Swagger.AllowedIPs,
		},
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    httpCfg.ReadTimeout,
		WriteTimeout:   httpCfg.WriteTimeout,
		IdleTimeout:    httpCfg.IdleTimeout,
		MaxHeaderBytes: httpCfg.MaxHeaderBytes,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	app.live.Shutdown()
	if err := app.scheduler.Stop(shutdownCtx); err != nil {
		log.Warn("Scheduler did not stop cleanly", zap.Error(err))
	}
	if err := app.bus.Stop(shutdownCtx); err != nil {
		log.Warn("Event bus did not drain", zap.Error(err), zap.Int64("dropped", app.bus.Dropped()))
	}

	log.Info("Server exited gracefully")
	return nil
}

func rateLimiters(cfg config.HTTPConfig) (storefront, login *middleware.RateLimiter) {
	if !cfg.RateLimitEnabled {
		return nil, nil
	}
	return middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow),
		middleware.NewRateLimiter(cfg.AuthRateLimitRequests, cfg.AuthRateLimitWindow)
}

// observability holds the OpenTelemetry providers and the profiler
type observability struct {
	log       *zap.Logger
	tracer    *telemetry.TracerProvider
	meters    *telemetry.MeterProvider
	logs      *telemetry.LoggerProvider
	profiler  *telemetry.Profiler
	dbMetrics *telemetry.DBMetrics
}

func setupTelemetry(ctx context.Context, cfg *config.Config, log *zap.Logger) (*observability, error) {
	tc := cfg.Telemetry
	obs := &observability{log: log}

	var err error
	obs.tracer, err = telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           tc.Enabled,
		CollectorEndpoint: tc.CollectorEndpoint,
		SamplingRatio:     tc.SamplingRatio,
		ServiceName:       tc.ServiceName,
		Insecure:          tc.Insecure,
	}, log)
	if err != nil {
		return nil, err
	}

	obs.meters, err = telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           tc.Enabled && tc.MetricsEnabled,
		CollectorEndpoint: tc.CollectorEndpoint,
		ExportInterval:    tc.MetricsInterval,
		ServiceName:       tc.ServiceName,
		Insecure:          tc.Insecure,
	}, log)
	if err != nil {
		return nil, err
	}

	obs.logs, err = telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           tc.Enabled && tc.LogsEnabled,
		CollectorEndpoint: tc.CollectorEndpoint,
		ServiceName:       tc.ServiceName,
		Insecure:          tc.Insecure,
	}, log)
	if err != nil {
		return nil, err
	}
	if obs.logs.IsEnabled() {
		obs.log = obs.logs.Bridge(log, zapcore.InfoLevel)
	}

	obs.profiler, err = telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:         tc.ProfilingEnabled,
		ServerAddress:   tc.PyroscopeURL,
		ApplicationName: tc.ServiceName,
	}, log)
	if err != nil {
		return nil, err
	}
	if obs.profiler.IsEnabled() && obs.tracer.IsEnabled() {
		obs.tracer.EnableSpanProfiles()
	}
	return obs, nil
}

func (o *observability) instrumentDB(ctx context.Context, db *persistence.Database, cfg *config.Config, log *zap.Logger) error {
	dbCfg := telemetry.DefaultDBConfig()
	dbCfg.TracingEnabled = cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled
	if cfg.Telemetry.DBSlowQueryThresh > 0 {
		dbCfg.SlowQueryThresh = cfg.Telemetry.DBSlowQueryThresh
	}
	if err := telemetry.InstrumentDB(db.DB, dbCfg, log); err != nil {
		return err
	}
	if !o.meters.IsEnabled() {
		return nil
	}
	m, err := telemetry.RegisterDBMetrics(db.DB, o.meters, dbCfg, log)
	if err != nil {
		return err
	}
	m.StartPoolStats(ctx)
	o.dbMetrics = m
	return nil
}

func (o *observability) shutdown(log *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if o.dbMetrics != nil {
		o.dbMetrics.Stop()
	}
	if err := o.profiler.Stop(); err != nil {
		log.Warn("Profiler shutdown failed", zap.Error(err))
	}
	if err := o.meters.Shutdown(ctx); err != nil {
		log.Warn("Meter provider shutdown failed", zap.Error(err))
	}
	if err := o.tracer.Shutdown(ctx); err != nil {
		log.Warn("Tracer provider shutdown failed", zap.Error(err))
	}
	if err := o.logs.Shutdown(ctx); err != nil {
		log.Warn("Logger provider shutdown failed", zap.Error(err))
	}
}
