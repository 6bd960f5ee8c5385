package middleware

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/damacus/r2-manager/internal/logger"
	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	// RequestsPerSecond is the number of requests allowed per second
	RequestsPerSecond float64

	// Burst is the maximum burst size
	Burst int

	// PerIP enables per-IP rate limiting (default: false = global rate limit)
	PerIP bool

	// IdleTimeout drops per-IP limiters not used for this long (default: 10m).
	IdleTimeout time.Duration
}

const defaultIdleTimeout = 10 * time.Minute

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type rateLimiter struct {
	config    RateLimitConfig
	global    *rate.Limiter
	clients   map[string]*clientLimiter
	lastSweep time.Time
	now       func() time.Time
	mu        sync.Mutex
}

func newRateLimiter(config RateLimitConfig) *rateLimiter {
	if config.Burst < 1 {
		config.Burst = 1
	}
	if config.IdleTimeout <= 0 {
		config.IdleTimeout = defaultIdleTimeout
	}
	rl := &rateLimiter{
		config:  config,
		clients: make(map[string]*clientLimiter),
		now:     time.Now,
	}
	if !config.PerIP {
		rl.global = rate.NewLimiter(rate.Limit(config.RequestsPerSecond), config.Burst)
	}
	return rl
}

func (rl *rateLimiter) getLimiter(clientIP string) *rate.Limiter {
	if !rl.config.PerIP {
		return rl.global
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if cl, exists := rl.clients[clientIP]; exists {
		cl.lastSeen = now
		return cl.limiter
	}

	if now.Sub(rl.lastSweep) >= rl.config.IdleTimeout {
		rl.sweep(now)
	}
	cl := &clientLimiter{
		limiter:  rate.NewLimiter(rate.Limit(rl.config.RequestsPerSecond), rl.config.Burst),
		lastSeen: now,
	}
	rl.clients[clientIP] = cl
	return cl.limiter
}

// sweep drops idle clients. Callers hold rl.mu.
func (rl *rateLimiter) sweep(now time.Time) {
	for ip, cl := range rl.clients {
		if now.Sub(cl.lastSeen) >= rl.config.IdleTimeout {
			delete(rl.clients, ip)
		}
	}
	rl.lastSweep = now
}

// RateLimit answers 429 once the configured rate is exceeded.
func RateLimit(config RateLimitConfig, log *logger.Logger) echo.MiddlewareFunc {
	limiter := newRateLimiter(config)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			clientIP := c.RealIP()
			if limiter.getLimiter(clientIP).Allow() {
				return next(c)
			}

			log.Warn().
				Str("client_ip", clientIP).
				Str("path", c.Request().URL.Path).
				Str("method", c.Request().Method).
				Msg("rate limit exceeded")

			headers := c.Response().Header()
			headers.Set("X-RateLimit-Limit", fmt.Sprintf("%.0f", limiter.config.RequestsPerSecond))
			headers.Set("X-RateLimit-Burst", fmt.Sprintf("%d", limiter.config.Burst))
			headers.Set("Retry-After", "1")

			return c.JSON(http.StatusTooManyRequests, map[string]string{
				"error":   "Rate limit exceeded",
				"message": "Too many requests, please try again later",
			})
		}
	}
}
