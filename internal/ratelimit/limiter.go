// Package ratelimit counts requests per key in fixed windows.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/backoffice/internal/clock"
)

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// Limiter admits at most a fixed number of hits per key and window.
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

// RedisLimiter keeps one counter per key and window in Redis, so the limit
// holds across replicas.
type RedisLimiter struct {
	client *redis.Client
	prefix string
	limit  int
	window time.Duration
}

// NewRedisLimiter builds a limiter allowing limit hits per window.
func NewRedisLimiter(client *redis.Client, prefix string, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{client: client, prefix: prefix, limit: limit, window: window}
}

// Allow increments the key's counter. The expiry is set only when the
// counter is created, which pins the window to the first hit.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	fullKey := l.prefix + ":" + key

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, fullKey)
	pipe.ExpireNX(ctx, fullKey, l.window)
	ttl := pipe.PTTL(ctx, fullKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return Decision{Allowed: true}, err
	}
	return decide(int(incr.Val()), l.limit, ttl.Val(), l.window), nil
}

// MemoryLimiter is a single-process limiter used when Redis is not
// configured.
type MemoryLimiter struct {
	mu      sync.Mutex
	clock   clock.Clock
	limit   int
	window  time.Duration
	buckets map[string]*bucket
}

type bucket struct {
	count   int
	resetAt time.Time
}

// NewMemoryLimiter builds an in-process limiter.
func NewMemoryLimiter(clk clock.Clock, limit int, window time.Duration) *MemoryLimiter {
	if clk == nil {
		clk = clock.Real()
	}
	return &MemoryLimiter{clock: clk, limit: limit, window: window, buckets: map[string]*bucket{}}
}

// Allow counts a hit for key.
func (l *MemoryLimiter) Allow(_ context.Context, key string) (Decision, error) {
	now := l.clock.Now()
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok || !now.Before(b.resetAt) {
		b = &bucket{resetAt: now.Add(l.window)}
		l.buckets[key] = b
		l.sweep(now)
	}
	b.count++
	return decide(b.count, l.limit, b.resetAt.Sub(now), l.window), nil
}

// sweep drops expired buckets so the map does not grow with every client IP.
func (l *MemoryLimiter) sweep(now time.Time) {
	for key, b := range l.buckets {
		if !now.Before(b.resetAt) {
			delete(l.buckets, key)
		}
	}
}

func decide(count, limit int, ttl, window time.Duration) Decision {
	if ttl <= 0 {
		ttl = window
	}
	if count > limit {
		return Decision{Allowed: false, RetryAfter: ttl}
	}
	return Decision{Allowed: true, Remaining: limit - count}
}
