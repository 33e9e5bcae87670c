package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	_ "github.com/storefront/backend/docs"
	basketapp "github.com/storefront/backend/internal/application/basket"
	catalogapp "github.com/storefront/backend/internal/application/catalog"
	identityapp "github.com/storefront/backend/internal/application/identity"
	"github.com/storefront/backend/internal/infrastructure/auth"
	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/storefront/backend/internal/infrastructure/event"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"github.com/storefront/backend/internal/infrastructure/persistence"
	"github.com/storefront/backend/internal/infrastructure/storage"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
	"github.com/storefront/backend/internal/interfaces/http/handler"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
	"github.com/storefront/backend/internal/interfaces/http/router"
)

//	@title			Storefront API
//	@version		1.0
//	@description	Product catalog, shopping basket and checkout.

//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logCfg := &logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	}
	log, err := logger.New(logCfg)
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}

	// OTLP log export tees into the zap core once the provider is up
	logProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		return fmt.Errorf("initialize log exporter: %w", err)
	}
	if logProvider.IsEnabled() {
		log, err = logger.New(logCfg, logProvider.ZapCore(logger.ParseLevel(cfg.Log.Level)))
		if err != nil {
			return fmt.Errorf("initialize logger: %w", err)
		}
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting storefront backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		return fmt.Errorf("initialize tracing: %w", err)
	}

	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsExportInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		return fmt.Errorf("initialize metrics: %w", err)
	}

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:         cfg.Profiling.Enabled,
		ServerAddress:   cfg.Profiling.ServerAddress,
		ApplicationName: cfg.Profiling.ApplicationName,
	}, log)
	if err != nil {
		return fmt.Errorf("initialize profiler: %w", err)
	}
	if cfg.Profiling.Enabled && cfg.Profiling.SpanProfiles && tracerProvider.IsEnabled() {
		if err := tracerProvider.EnableSpanProfiles(); err != nil {
			log.Warn("Failed to enable span profiles", zap.Error(err))
		}
	}

	defer shutdownTelemetry(log, tracerProvider, meterProvider, logProvider, profiler)

	db, err := openDatabase(cfg, log, meterProvider)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()

	blacklist, closeBlacklist, err := newTokenBlacklist(ctx, cfg.Redis, log)
	if err != nil {
		return err
	}
	defer closeBlacklist()

	images, err := newImageStorage(ctx, cfg, log)
	if err != nil {
		return err
	}

	shopMetrics, err := telemetry.NewShopMetrics(meterProvider.Meter("storefront"), log)
	if err != nil {
		return fmt.Errorf("register shop metrics: %w", err)
	}

	eventBus := event.NewInMemoryEventBus(log)
	activity := basketapp.NewActivityHandler(log, shopMetrics)
	eventBus.Subscribe(activity)
	if err := eventBus.Start(ctx); err != nil {
		return fmt.Errorf("start event bus: %w", err)
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	// Repositories and services
	scope := persistence.NewGormTransactionScope(db)
	userRepo := persistence.NewGormUserRepository(db.DB)
	productRepo := persistence.NewGormProductRepository(db.DB)
	basketRepo := persistence.NewGormBasketRepository(db.DB)

	jwtService := auth.NewJWTService(cfg.JWT)
	authService := identityapp.NewAuthService(userRepo, jwtService, blacklist, log)
	authService.SetEventPublisher(eventBus)

	productService := catalogapp.NewProductService(productRepo, scope.CatalogScope(), images)
	productService.SetConfig(catalogapp.ProductServiceConfig{UploadURLExpiry: cfg.Storage.PresignExpiration})
	productService.SetEventPublisher(eventBus)

	basketService := basketapp.NewBasketService(scope, basketRepo, cfg.Basket)
	basketService.SetEventPublisher(eventBus)
	basketService.SetShopMetrics(shopMetrics)

	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	var globalLimiter *middleware.RateLimiter
	if cfg.HTTP.RateLimitEnabled {
		globalLimiter = middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	engine := router.NewEngine(router.EngineConfig{
		Logger:     log,
		HTTP:       cfg.HTTP,
		Production: cfg.App.IsProduction(),
		Tracing: middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     tracerProvider.IsEnabled(),
		},
		Metrics: middleware.HTTPMetricsConfig{
			MeterProvider: meterProvider,
			Enabled:       meterProvider.IsEnabled(),
		},
		Profiling: middleware.ProfilingConfig{
			Enabled:   profiler.IsEnabled(),
			SkipPaths: middleware.DefaultProfilingConfig().SkipPaths,
		},
		RateLimiter: globalLimiter,
	})

	jwtConfig := middleware.DefaultJWTConfig(jwtService)
	jwtConfig.TokenBlacklist = blacklist
	jwtConfig.CookieName = cfg.Cookie.Name
	jwtConfig.Logger = log

	requireUser := middleware.JWTAuthMiddlewareWithConfig(jwtConfig)
	guards := router.Guards{
		RequireAuth: gin.HandlersChain{
			requireUser,
			middleware.TracingAttributeInjector(),
		},
	}
	if cfg.HTTP.AuthRateLimitEnabled {
		authLimiter := middleware.NewRateLimiter(cfg.HTTP.AuthRateLimitRequests, cfg.HTTP.AuthRateLimitWindow)
		guards.AuthRateLimit = middleware.AuthRateLimit(authLimiter)
	}

	systemHandler := handler.NewSystemHandler(db, cfg.App.Name, version)
	engine.GET("/health", systemHandler.Health)
	router.RegisterSwagger(engine, middleware.SwaggerConfig{
		Enabled:     cfg.Swagger.Enabled,
		RequireAuth: cfg.Swagger.RequireAuth,
		AllowedIPs:  cfg.Swagger.AllowedIPs,
	}, requireUser)

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	router.RegisterStorefrontRoutes(r, router.Handlers{
		Auth:    handler.NewAuthHandler(authService, cfg.Cookie),
		Product: handler.NewProductHandler(productService),
		Basket:  handler.NewBasketHandler(basketService),
		System:  systemHandler,
	}, guards)
	r.Setup()
	log.Info("Routes registered", zap.Int("count", len(engine.Routes())))

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error("Server stopped with error", zap.Error(err))
		return err
	}

	log.Info("Server exited gracefully")
	return nil
}

// openDatabase connects with the zap-backed gorm logger, registers DB
// tracing and pool metrics, and creates the schema for SQLite.
func openDatabase(cfg *config.Config, log *zap.Logger, meterProvider *telemetry.MeterProvider) (*persistence.Database, error) {
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Database.LogLevel),
		logger.WithSlowThreshold(cfg.Database.SlowQueryThresh),
		logger.WithContentionClassifier(persistence.IsContention))

	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	log.Info("Database connected", zap.String("driver", db.Driver()))

	if cfg.Telemetry.DBTraceEnabled {
		plugin := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
			Enabled:         true,
			LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
			SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
			DBSystem:        db.Driver(),
		}, log)
		if err := plugin.Register(db.DB); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("register db tracing: %w", err)
		}
	}

	if meterProvider.IsEnabled() {
		sqlDB, err := db.DB.DB()
		if err == nil {
			_, err = telemetry.RegisterDBMetrics(db.DB, sqlDB, meterProvider.Meter("storefront.db"))
		}
		if err != nil {
			log.Warn("Failed to register database metrics", zap.Error(err))
		}
	}

	// PostgreSQL schemas are managed by cmd/migrate
	if db.Driver() == persistence.DriverSQLite {
		if err := db.AutoMigrate(); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("create sqlite schema: %w", err)
		}
	}

	return db, nil
}

// newTokenBlacklist returns the Redis blacklist when Redis is enabled so
// logouts are shared across instances, otherwise an in-process one.
func newTokenBlacklist(ctx context.Context, cfg config.RedisConfig, log *zap.Logger) (auth.TokenBlacklist, func(), error) {
	if !cfg.Enabled {
		log.Info("Using in-memory token blacklist")
		return auth.NewInMemoryTokenBlacklist(), func() {}, nil
	}

	client, err := auth.NewRedisClient(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to redis: %w", err)
	}
	log.Info("Using Redis token blacklist", zap.String("addr", cfg.Addr()))

	return auth.NewRedisTokenBlacklist(client), func() {
		if err := client.Close(); err != nil {
			log.Error("Error closing redis client", zap.Error(err))
		}
	}, nil
}

func newImageStorage(ctx context.Context, cfg *config.Config, log *zap.Logger) (catalogapp.ImageStorage, error) {
	if !cfg.Storage.Enabled {
		log.Info("Object storage disabled, using stub image storage")
		return storage.NewStubObjectStorage(cfg.Storage.PublicBaseURL), nil
	}

	s3, err := storage.NewS3ObjectStorage(&cfg.Storage, storage.WithLogger(log))
	if err != nil {
		return nil, fmt.Errorf("initialize object storage: %w", err)
	}
	if err := s3.EnsureBucket(ctx); err != nil {
		return nil, fmt.Errorf("ensure bucket %q: %w", s3.Bucket(), err)
	}
	return s3, nil
}

func shutdownTelemetry(
	log *zap.Logger,
	tp *telemetry.TracerProvider,
	mp *telemetry.MeterProvider,
	lp *telemetry.LoggerProvider,
	profiler *telemetry.Profiler,
) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := tp.Shutdown(ctx); err != nil {
		log.Error("Error shutting down tracer provider", zap.Error(err))
	}
	if err := mp.Shutdown(ctx); err != nil {
		log.Error("Error shutting down meter provider", zap.Error(err))
	}
	if err := profiler.Stop(); err != nil {
		log.Error("Error stopping profiler", zap.Error(err))
	}
	// last, so the errors above still reach the collector
	if err := lp.Shutdown(ctx); err != nil {
		log.Error("Error shutting down logger provider", zap.Error(err))
	}
}
