package security

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/redis/go-redis/v9"
)

// RateLimiter throttles checkout traffic with a fixed redis window per
// caller. Redis being down fails open: purchases matter more than limits.
type RateLimiter struct {
	redis  *redis.Client
	limit  int
	window time.Duration
}

func NewRateLimiter(redisClient *redis.Client, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		redis:  redisClient,
		limit:  limit,
		window: window,
	}
}

// allow counts one hit for key and reports whether it stays inside the
// window limit.
func (r *RateLimiter) allow(ctx context.Context, key string) (bool, error) {
	count, err := r.redis.Incr(ctx, key).Result()
	if err != nil {
		return true, err
	}
	if count == 1 {
		r.redis.Expire(ctx, key, r.window)
	}
	return count <= int64(r.limit), nil
}

// CheckoutRateLimit limits checkout attempts per user (or per IP for
// anonymous callers).
func (r *RateLimiter) CheckoutRateLimit() func(e *core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		identifier := e.RealIP()
		if e.Auth != nil {
			identifier = fmt.Sprintf("user:%s", e.Auth.Id)
		}

		ok, err := r.allow(e.Request.Context(), fmt.Sprintf("ratelimit:checkout:%s", identifier))
		if err == nil && !ok {
			return apis.NewApiError(429, "Rate limit exceeded. Please try again later.", nil)
		}

		return e.Next()
	}
}

// AntiBot rejects obvious scraping user agents and throttles per-IP request
// bursts on public checkout endpoints.
func (r *RateLimiter) AntiBot() func(e *core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		userAgent := e.Request.Header.Get("User-Agent")
		if isSuspiciousUserAgent(userAgent) {
			return apis.NewForbiddenError("Access denied", nil)
		}

		key := fmt.Sprintf("antibot:%s", e.RealIP())
		ok, err := r.allow(e.Request.Context(), key)
		if err == nil && !ok {
			return apis.NewApiError(429, "Too many requests", nil)
		}

		return e.Next()
	}
}

func isSuspiciousUserAgent(ua string) bool {
	suspicious := []string{"bot", "crawler", "spider", "scraper"}
	for _, pattern := range suspicious {
		if strings.Contains(strings.ToLower(ua), pattern) {
			return true
		}
	}
	return false
}
