// Package domainlock arbitrates domain exclusivity during registration: of
// two concurrent signups for the same email domain, exactly one may proceed.
// The claim is a Redis key with a short TTL so a crashed holder cannot
// strand a domain past the TTL.
package domainlock

import (
	"context"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
)

// DefaultTTL bounds how long a claim can outlive its holder.
const DefaultTTL = 5 * time.Minute

// Config controls the arbiter.
type Config struct {
	// TTL is the claim lifetime. Zero means DefaultTTL.
	TTL time.Duration

	// FailOpen grants the claim when the Redis backend is unreachable,
	// trading exclusivity for availability. When false, backend errors
	// deny the claim.
	FailOpen bool

	// Prefix namespaces the claim keys. Zero means "domainclaim".
	Prefix string
}

// Arbiter is the distributed domain-claim lock.
type Arbiter struct {
	redis *redis.Client
	cfg   Config
}

// NewArbiter creates a domain claim arbiter.
func NewArbiter(client *redis.Client, cfg Config) *Arbiter {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "domainclaim"
	}
	return &Arbiter{redis: client, cfg: cfg}
}

func (a *Arbiter) key(domain string) string {
	return a.cfg.Prefix + ":" + strings.ToLower(strings.TrimSpace(domain))
}

// Acquire makes a single atomic set-if-absent attempt on the domain's claim
// key. Returns true only if this caller set it. No retry or backoff; the
// caller fails fast and lets the human retry.
func (a *Arbiter) Acquire(ctx context.Context, domain string) (bool, error) {
	ok, err := a.redis.SetNX(ctx, a.key(domain), 1, a.cfg.TTL).Result()
	if err != nil {
		if a.cfg.FailOpen {
			return true, nil
		}
		return false, err
	}
	return ok, nil
}

// Release deletes the claim key. Safe to call when the caller never held
// it. Errors are returned for logging but a failed release is harmless: the
// TTL reclaims the key.
func (a *Arbiter) Release(ctx context.Context, domain string) error {
	return a.redis.Del(ctx, a.key(domain)).Err()
}
