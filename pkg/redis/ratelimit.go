package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// slidingWindow trims, counts and records in one round trip
var slidingWindow = redis.NewScript(`
	local key = KEYS[1]
	local now = tonumber(ARGV[1])
	local window_start = tonumber(ARGV[2])
	local limit = tonumber(ARGV[3])
	local window_ms = tonumber(ARGV[4])
	local member = ARGV[5]

	redis.call('ZREMRANGEBYSCORE', key, '-inf', window_start)

	local count = redis.call('ZCARD', key)
	if count < limit then
		redis.call('ZADD', key, now, member)
		redis.call('PEXPIRE', key, window_ms)
		return {1, limit - count - 1}
	end
	return {0, 0}
`)

// RateLimiter implements sliding window rate limiting shared by every
// API replica
// ⭐ SSOT: distributed rate limiting happens here only
type RateLimiter struct {
	client *Client
	prefix string
	now    func() time.Time
}

// RateLimitConfig defines rate limit parameters
type RateLimitConfig struct {
	Key    string        // bucket, e.g. "api:203.0.113.7"
	Limit  int           // maximum requests per window
	Window time.Duration // window length
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(client *Client, prefix string) *RateLimiter {
	return &RateLimiter{
		client: client,
		prefix: prefix,
		now:    time.Now,
	}
}

// Key returns the Redis key of a bucket
func (r *RateLimiter) Key(bucket string) string {
	return fmt.Sprintf("%s:ratelimit:%s", r.prefix, bucket)
}

// Allow checks if a request is allowed under the rate limit.
// Returns (allowed, remaining, error). A disabled client allows everything.
func (r *RateLimiter) Allow(ctx context.Context, cfg RateLimitConfig) (bool, int, error) {
	if !r.client.Enabled() {
		return true, cfg.Limit, nil
	}

	now := r.now().UnixMilli()
	windowStart := now - cfg.Window.Milliseconds()
	// unique member so two requests in the same millisecond both count
	member := uuid.NewString()

	result, err := slidingWindow.Run(ctx, r.client.Redis(), []string{r.Key(cfg.Key)},
		now,
		windowStart,
		cfg.Limit,
		cfg.Window.Milliseconds(),
		member,
	).Int64Slice()
	if err != nil {
		return false, 0, fmt.Errorf("rate limit script failed: %w", err)
	}
	if len(result) != 2 {
		return false, 0, fmt.Errorf("rate limit script returned %d values", len(result))
	}

	return result[0] == 1, int(result[1]), nil
}

// APIRateLimit builds the per-client bucket for the HTTP API
func APIRateLimit(clientID string, requestsPerSecond float64, burst int) RateLimitConfig {
	limit := burst
	if limit < 1 {
		limit = int(requestsPerSecond)
	}
	return RateLimitConfig{
		Key:    "api:" + clientID,
		Limit:  limit,
		Window: time.Duration(float64(limit) / requestsPerSecond * float64(time.Second)),
	}
}
