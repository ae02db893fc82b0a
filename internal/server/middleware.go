package server

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
	"sync"
	"time"

	"nexus/internal/core"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// MaxBodySize is the maximum allowed request body size (10MB).
const MaxBodySize = core.MaxRequestBodySize

const visitorIdleTimeout = 3 * time.Minute

func (s *Server) maxBodySizeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxBodySize)
		c.Next()
	}
}

// rateLimiter keeps one token bucket per client IP
type rateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitorInfo
	limit    rate.Limit
	burst    int
	cleanup  time.Duration
}

type visitorInfo struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newRateLimiter(ctx context.Context, ratePerMinute int) *rateLimiter {
	if ratePerMinute <= 0 {
		ratePerMinute = core.DefaultRateLimit
	}
	rl := &rateLimiter{
		visitors: make(map[string]*visitorInfo),
		limit:    rate.Every(time.Minute / time.Duration(ratePerMinute)),
		burst:    ratePerMinute,
		cleanup:  time.Minute,
	}
	go rl.cleanupLoop(ctx)
	return rl
}

func (rl *rateLimiter) cleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(rl.cleanup)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.mu.Lock()
			for ip, v := range rl.visitors {
				if time.Since(v.lastSeen) > visitorIdleTimeout {
					delete(rl.visitors, ip)
				}
			}
			rl.mu.Unlock()
		}
	}
}

func (rl *rateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	v, exists := rl.visitors[ip]
	if !exists {
		v = &visitorInfo{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.visitors[ip] = v
	}
	v.lastSeen = time.Now()
	rl.mu.Unlock()
	return v.limiter.Allow()
}

func (s *Server) rateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if !s.rateLimiter.allow(ip) {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded", "code": "RATE_LIMITED"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// requestMetricsMiddleware observes the latency of every API request
func (s *Server) requestMetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer trackPerformanceWithMetrics(s.metrics, time.Now())()
		c.Next()
	}
}

func (s *Server) isValidClientKey(providedKey string) bool {
	providedBytes := []byte(providedKey)
	for validKey := range s.validClientKeys {
		validBytes := []byte(validKey)
		if len(providedBytes) == len(validBytes) && subtle.ConstantTimeCompare(providedBytes, validBytes) == 1 {
			return true
		}
	}
	return false
}

func (s *Server) corsMiddleware() gin.HandlerFunc {
	allowOrigin := s.config.CORSAllowOrigin
	if allowOrigin == "" {
		allowOrigin = "*"
	}

	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", allowOrigin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, x-api-key")
		c.Header("Access-Control-Max-Age", core.CORSMaxAge)

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// authenticateClient guards /api when client keys are configured. With no
// keys the API is open, matching a local single-user install.
func (s *Server) authenticateClient(c *gin.Context) {
	if len(s.validClientKeys) == 0 {
		return
	}

	authHeader := c.GetHeader(core.HeaderAuthorization)
	apiKey := c.GetHeader(core.HeaderXAPIKey)

	if apiKey != "" {
		if s.isValidClientKey(apiKey) {
			return
		}
		c.JSON(http.StatusForbidden, gin.H{"error": "Invalid client API key (x-api-key)", "code": "FORBIDDEN"})
		c.Abort()
		return
	}

	if authHeader != "" {
		token := strings.TrimPrefix(authHeader, core.AuthBearerPrefix)
		if s.isValidClientKey(token) {
			return
		}
		c.JSON(http.StatusForbidden, gin.H{"error": "Invalid client API key (Bearer token)", "code": "FORBIDDEN"})
		c.Abort()
		return
	}

	c.JSON(http.StatusUnauthorized, gin.H{"error": "API key required in Authorization header (Bearer) or x-api-key header", "code": "UNAUTHORIZED"})
	c.Abort()
}
