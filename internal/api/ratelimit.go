package api

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/wonny/nichegate/pkg/config"
	"github.com/wonny/nichegate/pkg/redis"
)

// Limiter decides whether a client may make another request
type Limiter interface {
	Allow(ctx context.Context, clientID string) (bool, error)
}

// minIdleTTL is the shortest time an unused bucket is kept
const minIdleTTL = time.Minute

// LocalLimiter keeps one token bucket per client in process memory.
// Buckets idle longer than idleTTL are pruned during Allow.
type LocalLimiter struct {
	mu        sync.Mutex
	rps       rate.Limit
	burst     int
	idleTTL   time.Duration
	buckets   map[string]*bucket
	lastPrune time.Time
	now       func() time.Time
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewLocalLimiter creates an in-process limiter
func NewLocalLimiter(rps float64, burst int) *LocalLimiter {
	if burst < 1 {
		burst = 1
	}

	// a bucket idle for burst/rps has refilled, so dropping it changes nothing
	idle := minIdleTTL
	if rps > 0 {
		if refill := time.Duration(float64(burst) / rps * float64(time.Second)); refill > idle {
			idle = refill
		}
	}

	return &LocalLimiter{
		rps:     rate.Limit(rps),
		burst:   burst,
		idleTTL: idle,
		buckets: make(map[string]*bucket),
		now:     time.Now,
	}
}

// Allow takes one token from the client's bucket
func (l *LocalLimiter) Allow(ctx context.Context, clientID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastPrune) >= l.idleTTL {
		l.prune(now)
	}

	b, ok := l.buckets[clientID]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.buckets[clientID] = b
	}
	b.lastSeen = now

	return b.limiter.AllowN(now, 1), nil
}

// Len returns the number of tracked clients
func (l *LocalLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

func (l *LocalLimiter) prune(now time.Time) {
	for id, b := range l.buckets {
		if now.Sub(b.lastSeen) >= l.idleTTL {
			delete(l.buckets, id)
		}
	}
	l.lastPrune = now
}

// RedisLimiter shares a sliding window across API replicas
type RedisLimiter struct {
	limiter *redis.RateLimiter
	rps     float64
	burst   int
}

// NewRedisLimiter wraps the Redis sliding-window limiter
func NewRedisLimiter(limiter *redis.RateLimiter, rps float64, burst int) *RedisLimiter {
	return &RedisLimiter{limiter: limiter, rps: rps, burst: burst}
}

// Allow checks the client's window in Redis
func (l *RedisLimiter) Allow(ctx context.Context, clientID string) (bool, error) {
	allowed, _, err := l.limiter.Allow(ctx, redis.APIRateLimit(clientID, l.rps, l.burst))
	return allowed, err
}

// NewLimiter picks the Redis limiter when Redis is enabled and the
// in-process one otherwise. A non-positive rate disables limiting.
func NewLimiter(cfg *config.Config, client *redis.Client) Limiter {
	if cfg.RateLimit.RequestsPerSecond <= 0 {
		return nil
	}
	if client.Enabled() {
		return NewRedisLimiter(redis.NewRateLimiter(client, "nichegate"), cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	}
	return NewLocalLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
}

// ClientResolver identifies the caller of a request. X-Forwarded-For is
// only honored when the connection comes from a trusted proxy.
type ClientResolver struct {
	trusted []*net.IPNet
}

// NewClientResolver parses trusted proxy entries (IP or CIDR)
func NewClientResolver(proxies []string) (*ClientResolver, error) {
	c := &ClientResolver{}
	for _, p := range proxies {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if !strings.Contains(p, "/") {
			ip := net.ParseIP(p)
			if ip == nil {
				return nil, fmt.Errorf("invalid trusted proxy %q", p)
			}
			bits := 8 * net.IPv4len
			if ip.To4() == nil {
				bits = 8 * net.IPv6len
			}
			c.trusted = append(c.trusted, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
			continue
		}
		_, n, err := net.ParseCIDR(p)
		if err != nil {
			return nil, fmt.Errorf("invalid trusted proxy %q: %w", p, err)
		}
		c.trusted = append(c.trusted, n)
	}
	return c, nil
}

// ClientIP returns the remote address, or for trusted proxies the nearest
// X-Forwarded-For hop that is not itself a trusted proxy
func (c *ClientResolver) ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if c == nil || !c.isTrusted(host) {
		return host
	}

	hops := strings.Split(r.Header.Get("X-Forwarded-For"), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		hop := strings.TrimSpace(hops[i])
		if hop == "" {
			continue
		}
		if !c.isTrusted(hop) {
			return hop
		}
		host = hop
	}
	return host
}

func (c *ClientResolver) isTrusted(addr string) bool {
	ip := net.ParseIP(addr)
	if ip == nil {
		return false
	}
	for _, n := range c.trusted {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}
