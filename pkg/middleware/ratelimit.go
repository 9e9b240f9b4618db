// Package middleware provides HTTP middleware for the public API: request
// identification and Redis-backed submission rate limiting shared across
// instances.
package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
)

// RateLimitConfig defines a fixed-window rate limit.
type RateLimitConfig struct {
	// RequestsPerWindow is the max requests allowed in the time window
	RequestsPerWindow int
	// WindowDuration is the time window for rate limiting
	WindowDuration time.Duration
}

// PerIPSubmissionConfig limits waitlist submissions per client IP.
func PerIPSubmissionConfig() *RateLimitConfig {
	return &RateLimitConfig{
		RequestsPerWindow: 20,
		WindowDuration:    time.Hour,
	}
}

// PerEmailSubmissionConfig limits waitlist submissions per email address.
func PerEmailSubmissionConfig() *RateLimitConfig {
	return &RateLimitConfig{
		RequestsPerWindow: 6,
		WindowDuration:    time.Hour,
	}
}

// DistributedRateLimiter implements rate limiting using Redis so limits are
// shared across instances. On Redis errors it fails open to avoid turning a
// cache outage into an API outage.
type DistributedRateLimiter struct {
	redis  *redis.Client
	config *RateLimitConfig
	prefix string
}

// NewDistributedRateLimiter creates a new Redis-backed rate limiter
func NewDistributedRateLimiter(redisClient *redis.Client, config *RateLimitConfig, prefix string) *DistributedRateLimiter {
	if prefix == "" {
		prefix = "ratelimit"
	}
	return &DistributedRateLimiter{
		redis:  redisClient,
		config: config,
		prefix: prefix,
	}
}

// Allow checks if a request is allowed using a Redis fixed window
func (rl *DistributedRateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	redisKey := fmt.Sprintf("%s:%s", rl.prefix, key)

	pipe := rl.redis.Pipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, rl.config.WindowDuration)
	_, err := pipe.Exec(ctx)
	if err != nil {
		// Fail open: allow the request rather than amplify a Redis outage.
		return true, fmt.Errorf("redis error: %w", err)
	}

	return incr.Val() <= int64(rl.config.RequestsPerWindow), nil
}

// Remaining returns the number of remaining requests in the window
func (rl *DistributedRateLimiter) Remaining(ctx context.Context, key string) (int, error) {
	redisKey := fmt.Sprintf("%s:%s", rl.prefix, key)

	count, err := rl.redis.Get(ctx, redisKey).Int()
	if err == redis.Nil {
		return rl.config.RequestsPerWindow, nil
	} else if err != nil {
		return 0, err
	}

	remaining := rl.config.RequestsPerWindow - count
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// Reset clears the rate limit for a key (for testing or admin purposes)
func (rl *DistributedRateLimiter) Reset(ctx context.Context, key string) error {
	return rl.redis.Del(ctx, fmt.Sprintf("%s:%s", rl.prefix, key)).Err()
}

// SubmissionLimiter throttles waitlist submissions on two axes: per client
// IP and per target email. Both must pass.
type SubmissionLimiter struct {
	ipLimiter    *DistributedRateLimiter
	emailLimiter *DistributedRateLimiter
}

// NewSubmissionLimiter creates a submission limiter with the default limits.
func NewSubmissionLimiter(redisClient *redis.Client) *SubmissionLimiter {
	return &SubmissionLimiter{
		ipLimiter:    NewDistributedRateLimiter(redisClient, PerIPSubmissionConfig(), "submit:ip"),
		emailLimiter: NewDistributedRateLimiter(redisClient, PerEmailSubmissionConfig(), "submit:email"),
	}
}

// AllowIP checks the per-IP submission budget.
func (l *SubmissionLimiter) AllowIP(ctx context.Context, ip string) bool {
	allowed, _ := l.ipLimiter.Allow(ctx, ip)
	return allowed
}

// AllowEmail checks the per-email submission budget.
func (l *SubmissionLimiter) AllowEmail(ctx context.Context, email string) bool {
	allowed, _ := l.emailLimiter.Allow(ctx, email)
	return allowed
}

// ClientIP extracts the caller's IP, honoring proxy headers.
func ClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return forwarded
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	return r.RemoteAddr
}
