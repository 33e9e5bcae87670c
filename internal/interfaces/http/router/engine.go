package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"github.com/storefront/backend/internal/interfaces/http/dto"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
)

// EngineConfig configures the global middleware stack
type EngineConfig struct {
	Logger     *zap.Logger
	HTTP       config.HTTPConfig
	Production bool
	Tracing    middleware.TracingConfig
	Metrics    middleware.HTTPMetricsConfig
	Profiling  middleware.ProfilingConfig
	// RateLimiter applies a per-IP limit to every request; nil disables it
	RateLimiter *middleware.RateLimiter
}

// NewEngine creates a gin engine with the global middleware stack in order:
// request id, panic recovery, tracing, request logging, security headers,
// CORS, body limit, metrics, profiling labels and rate limiting.
func NewEngine(cfg EngineConfig) *gin.Engine {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	engine := gin.New()
	engine.HandleMethodNotAllowed = true

	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.TracingWithConfig(cfg.Tracing))
	engine.Use(middleware.SpanErrorMarker())
	engine.Use(middleware.TracingAttributeInjector())
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.SecureWithConfig(middleware.SecurityConfig{
		SSLRedirect:           cfg.HTTP.SSLRedirect,
		HSTSSeconds:           hstsSeconds(cfg.Production),
		ContentSecurityPolicy: middleware.DefaultSecurityConfig().ContentSecurityPolicy,
		IsDevelopment:         !cfg.Production,
	}))
	engine.Use(middleware.CORSWithConfig(corsConfig(cfg.HTTP)))
	if cfg.HTTP.MaxBodySize > 0 {
		engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	}
	engine.Use(middleware.HTTPMetrics(cfg.Metrics))
	engine.Use(middleware.ProfilingWithConfig(cfg.Profiling))
	if cfg.RateLimiter != nil {
		engine.Use(middleware.RateLimit(cfg.RateLimiter))
	}

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, dto.NewErrorResponseWithRequestID(dto.ErrCodeNotFound, "Route not found", c.GetString(middleware.RequestIDKey)))
	})
	engine.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, dto.NewErrorResponseWithRequestID(dto.ErrCodeBadRequest, "Method not allowed", c.GetString(middleware.RequestIDKey)))
	})

	return engine
}

func corsConfig(cfg config.HTTPConfig) middleware.CORSConfig {
	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = cfg.CORSAllowOrigins
	if len(cfg.CORSAllowMethods) > 0 {
		cors.AllowMethods = cfg.CORSAllowMethods
	}
	if len(cfg.CORSAllowHeaders) > 0 {
		cors.AllowHeaders = cfg.CORSAllowHeaders
	}
	cors.MaxAge = 12 * time.Hour
	return cors
}

// HSTS is only sent in production, where TLS terminates in front of us
func hstsSeconds(production bool) int64 {
	if production {
		return 31536000
	}
	return 0
}
