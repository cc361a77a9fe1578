package ratelimit

import (
	"context"
	"sync"
	"time"

	errs "github.com/inboxpilot/warmstack/internal/errors"
)

type Config struct {
	Capacity       int           // max tokens held by a bucket
	RefillTokens   int           // tokens added per interval
	RefillInterval time.Duration // fixed refill interval
}

func DefaultConfig() Config {
	return Config{
		Capacity:       60,
		RefillTokens:   60,
		RefillInterval: time.Minute,
	}
}

// Limiter is a token-bucket rate limiter with one global bucket plus one
// bucket per logical key. An acquisition must take a token from both.
// Buckets are process-lifetime only and rebuilt on restart.
type Limiter struct {
	cfg     Config
	mu      sync.Mutex
	global  *bucket
	buckets map[string]*bucket
	nowFn   func() time.Time
}

type bucket struct {
	tokens     float64
	lastRefill time.Time
}

func NewLimiter(cfg Config) *Limiter {
	if cfg.Capacity <= 0 {
		cfg.Capacity = DefaultConfig().Capacity
	}
	if cfg.RefillTokens <= 0 {
		cfg.RefillTokens = DefaultConfig().RefillTokens
	}
	if cfg.RefillInterval <= 0 {
		cfg.RefillInterval = DefaultConfig().RefillInterval
	}
	l := &Limiter{
		cfg:     cfg,
		buckets: make(map[string]*bucket),
		nowFn:   time.Now,
	}
	l.global = l.newBucket()
	return l
}

func (l *Limiter) newBucket() *bucket {
	return &bucket{
		tokens:     float64(l.cfg.Capacity),
		lastRefill: l.nowFn(),
	}
}

// Acquire takes one token from the key bucket and the global bucket. When
// either bucket is empty it computes the exact wait until the next token is
// available, suspends for that duration, then retries the refill+consume
// once. The wait never exceeds one refill interval and is cancellable.
func (l *Limiter) Acquire(ctx context.Context, key string) error {
	wait, ok := l.tryConsume(key)
	if ok {
		return nil
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
	}

	if wait, ok = l.tryConsume(key); ok {
		return nil
	}
	return errs.RateLimitExceeded(wait)
}

// TryAcquire consumes a token without waiting; on failure it reports the
// exact wait until the next token becomes available.
func (l *Limiter) TryAcquire(key string) (time.Duration, bool) {
	return l.tryConsume(key)
}

func (l *Limiter) tryConsume(key string) (time.Duration, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.nowFn()
	kb, exists := l.buckets[key]
	if !exists {
		kb = l.newBucket()
		l.buckets[key] = kb
	}

	l.refill(l.global, now)
	l.refill(kb, now)

	if l.global.tokens >= 1 && kb.tokens >= 1 {
		l.global.tokens--
		kb.tokens--
		return 0, true
	}

	wait := l.waitForToken(l.global)
	if kw := l.waitForToken(kb); kw > wait {
		wait = kw
	}
	return wait, false
}

// refill lazily credits tokens for the wall-clock time elapsed since the
// last refill: tokens = min(C, tokens + elapsed/I * r)
func (l *Limiter) refill(b *bucket, now time.Time) {
	elapsed := now.Sub(b.lastRefill)
	if elapsed <= 0 {
		return
	}
	credit := float64(elapsed) / float64(l.cfg.RefillInterval) * float64(l.cfg.RefillTokens)
	b.tokens += credit
	if b.tokens > float64(l.cfg.Capacity) {
		b.tokens = float64(l.cfg.Capacity)
	}
	b.lastRefill = now
}

func (l *Limiter) waitForToken(b *bucket) time.Duration {
	if b.tokens >= 1 {
		return 0
	}
	perToken := float64(l.cfg.RefillInterval) / float64(l.cfg.RefillTokens)
	wait := time.Duration((1 - b.tokens) * perToken)
	if wait > l.cfg.RefillInterval {
		wait = l.cfg.RefillInterval
	}
	return wait
}
