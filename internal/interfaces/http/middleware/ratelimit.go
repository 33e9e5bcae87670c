package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-chi/httprate"

	"github.com/storefront/backend/internal/interfaces/http/dto"
)

// RateLimiter counts requests per key over a sliding window. It sets the
// X-RateLimit-* headers on every response and Retry-After once limited.
type RateLimiter struct {
	limiter *httprate.RateLimiter
	limit   int
	window  time.Duration
}

// NewRateLimiter allows limit requests per key within window
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		limiter: httprate.NewRateLimiter(limit, window),
		limit:   limit,
		window:  window,
	}
}

// Limit returns the number of requests allowed per window
func (rl *RateLimiter) Limit() int {
	return rl.limit
}

// Window returns the length of the counting window
func (rl *RateLimiter) Window() time.Duration {
	return rl.window
}

// RateLimit returns a rate limiting middleware keyed by client IP
func RateLimit(limiter *RateLimiter) gin.HandlerFunc {
	return rateLimit(limiter, func(c *gin.Context) string { return c.ClientIP() },
		dto.ErrCodeRateLimited, "Too many requests. Please try again later.")
}

// AuthRateLimit is a stricter per-IP limit for credential endpoints. Give it
// its own limiter so its counts stay apart from the global one.
func AuthRateLimit(limiter *RateLimiter) gin.HandlerFunc {
	return rateLimit(limiter, func(c *gin.Context) string { return "auth:" + c.ClientIP() },
		dto.ErrCodeAuthRateLimited, "Too many authentication attempts. Please try again later.")
}

// RateLimitByKey returns a rate limiting middleware with custom key extractor
func RateLimitByKey(limiter *RateLimiter, keyFunc func(*gin.Context) string) gin.HandlerFunc {
	return rateLimit(limiter, keyFunc, dto.ErrCodeRateLimited, "Too many requests. Please try again later.")
}

func rateLimit(limiter *RateLimiter, keyFunc func(*gin.Context) string, code, message string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter.limiter.OnLimit(c.Writer, c.Request, keyFunc(c)) {
			c.AbortWithStatusJSON(dto.GetHTTPStatus(code),
				dto.NewErrorResponseWithRequestID(code, message, c.GetString(RequestIDKey)))
			return
		}
		c.Next()
	}
}
