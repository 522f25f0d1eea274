package middleware

import (
	"crypto/sha256"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/telecrm/helpdesk-sso/internal/http/response"
	"github.com/telecrm/helpdesk-sso/internal/store"
	"github.com/telecrm/helpdesk-sso/pkg/logger"
)

// RateLimitConfig defines fixed-window rate limiting parameters
type RateLimitConfig struct {
	Requests int           // Max requests per window
	Window   time.Duration // Time window duration
}

// RateLimiter counts requests per client IP through the shared store, so the
// limit holds across instances when the store is shared.
type RateLimiter struct {
	store  store.Store
	config RateLimitConfig
}

func NewRateLimiter(s store.Store, config RateLimitConfig) *RateLimiter {
	return &RateLimiter{
		store:  s,
		config: config,
	}
}

// Middleware returns the rate limiting middleware
func (rl *RateLimiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Hash the client key for privacy
			hasher := sha256.New()
			hasher.Write([]byte(clientIP(r)))
			key := fmt.Sprintf("%x", hasher.Sum(nil))

			count, err := rl.store.IncrementCounter(r.Context(), key, rl.config.Window)
			if err != nil {
				// Fail open on store errors
				logger.WarnContext(r.Context(), "Rate limit check failed", "error", err)
				next.ServeHTTP(w, r)
				return
			}
			if count > int64(rl.config.Requests) {
				response.RateLimit(w, "Too many requests. Try again later.")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
