// Package ratelimit provides keyed limiters for the rate limit middleware: a Redis
// fixed window shared across instances and an in-process token bucket used when
// Redis is not configured.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

const fixedWindowScript = `
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
if current > tonumber(ARGV[2]) then
  return 0
end
return 1
`

const keyPrefix = "ratelimit:"

// RedisLimiter allows at most limit calls per key per window.
type RedisLimiter struct {
	client *redis.Client
	script *redis.Script
	limit  int
	window time.Duration
}

// NewRedisLimiter builds a fixed-window limiter on client.
func NewRedisLimiter(client *redis.Client, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		script: redis.NewScript(fixedWindowScript),
		limit:  limit,
		window: window,
	}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	if l.limit <= 0 || l.window <= 0 {
		return true, nil
	}
	ttl := l.window.Milliseconds()
	if ttl <= 0 {
		ttl = 1
	}
	allowed, err := l.script.Run(ctx, l.client, []string{keyPrefix + key}, ttl, l.limit).Int64()
	if err != nil {
		return false, err
	}
	return allowed == 1, nil
}

// LocalLimiter is a per-key token bucket refilling limit tokens per window.
type LocalLimiter struct {
	mu      sync.Mutex
	entries map[string]*localEntry
	rps     rate.Limit
	burst   int
	idleTTL time.Duration
	now     func() time.Time
}

type localEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// NewLocalLimiter builds an in-process limiter equivalent to limit per window.
func NewLocalLimiter(limit int, window time.Duration) *LocalLimiter {
	l := &LocalLimiter{
		entries: make(map[string]*localEntry),
		burst:   limit,
		idleTTL: 15 * time.Minute,
		now:     time.Now,
	}
	if limit > 0 && window > 0 {
		l.rps = rate.Limit(float64(limit) / window.Seconds())
	} else {
		l.rps = rate.Inf
	}
	return l
}

func (l *LocalLimiter) Allow(_ context.Context, key string) (bool, error) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	ent, ok := l.entries[key]
	if !ok {
		ent = &localEntry{lim: rate.NewLimiter(l.rps, l.burst)}
		l.entries[key] = ent
	}
	ent.lastSeen = now
	return ent.lim.AllowN(now, 1), nil
}

// Cleanup drops buckets idle for longer than the idle TTL.
func (l *LocalLimiter) Cleanup() {
	cutoff := l.now().Add(-l.idleTTL)

	l.mu.Lock()
	defer l.mu.Unlock()
	for key, ent := range l.entries {
		if ent.lastSeen.Before(cutoff) {
			delete(l.entries, key)
		}
	}
}

// RunCleanup calls Cleanup every interval until ctx is done. A non-positive
// interval disables cleanup and returns immediately.
func (l *LocalLimiter) RunCleanup(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Cleanup()
		}
	}
}
