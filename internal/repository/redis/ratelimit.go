package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/clarionhq/daypress/internal/config"
)

const rateLimitPrefix = "ratelimit:"

// RateLimiter throttles authenticated API traffic per user with a fixed
// one-minute window counted in Redis. The allowance is the configured
// per-minute rate plus a burst headroom for short spikes.
type RateLimiter struct {
	client *Client
	cfg    config.RateLimitConfig
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(client *Client, cfg config.RateLimitConfig) *RateLimiter {
	return &RateLimiter{client: client, cfg: cfg}
}

// Decision is the outcome of counting one request.
type Decision struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// Allow counts one request for the user against the current window.
func (r *RateLimiter) Allow(ctx context.Context, userID uuid.UUID) (Decision, error) {
	window := time.Now().Truncate(time.Minute)
	key := windowKey(userID, window)

	pipe := r.client.rdb.Pipeline()
	incr := pipe.Incr(ctx, key)
	// Outlive the window slightly so a clock-skewed reader still sees it.
	pipe.Expire(ctx, key, 2*time.Minute)

	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return Decision{}, fmt.Errorf("failed to count request: %w", err)
	}

	limit := int64(r.cfg.RequestsPerMinute + r.cfg.Burst)
	remaining := limit - incr.Val()
	if remaining < 0 {
		remaining = 0
	}

	return Decision{
		Allowed:   incr.Val() <= limit,
		Remaining: int(remaining),
		ResetAt:   window.Add(time.Minute),
	}, nil
}

// windowKey stamps the window start into the key, so each minute gets a
// fresh counter without needing an atomic expire-on-create.
func windowKey(userID uuid.UUID, window time.Time) string {
	return fmt.Sprintf("%s%s:%d", rateLimitPrefix, userID, window.Unix())
}
