package middleware

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/490273789/llmops-api/internal/pkg/database"
	apperrors "github.com/490273789/llmops-api/internal/pkg/errors"
)

// Decision is the outcome of one rate limit check
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// Limiter decides whether a request identified by key may proceed
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

// RedisLimiter is a sliding window limiter shared by every instance
type RedisLimiter struct {
	redis  *database.RedisDB
	max    int
	window time.Duration
}

// NewRedisLimiter allows max requests per window
func NewRedisLimiter(redis *database.RedisDB, max int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{redis: redis, max: max, window: window}
}

// Allow implements Limiter
func (l *RedisLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	allowed, remaining, retryAfter, err := l.redis.SlidingWindow(ctx, "ratelimit:"+key, int64(l.max), l.window)
	if err != nil {
		return Decision{}, err
	}
	return Decision{
		Allowed:    allowed,
		Limit:      l.max,
		Remaining:  int(remaining),
		RetryAfter: retryAfter,
	}, nil
}

// LocalLimiter is an in-process token bucket per key
type LocalLimiter struct {
	rps   rate.Limit
	burst int

	mu      sync.Mutex
	buckets map[string]*bucket
	maxKeys int
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewLocalLimiter refills rps tokens per second up to burst
func NewLocalLimiter(rps, burst int) *LocalLimiter {
	return &LocalLimiter{
		rps:     rate.Limit(rps),
		burst:   burst,
		buckets: make(map[string]*bucket),
		maxKeys: 10000,
	}
}

// Allow implements Limiter
func (l *LocalLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	now := time.Now()
	lim := l.get(key, now)

	r := lim.ReserveN(now, 1)
	if !r.OK() {
		return Decision{Allowed: false, Limit: l.burst, RetryAfter: time.Second}, nil
	}
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return Decision{Allowed: false, Limit: l.burst, RetryAfter: delay}, nil
	}

	remaining := int(math.Floor(lim.TokensAt(now)))
	if remaining < 0 {
		remaining = 0
	}
	return Decision{Allowed: true, Limit: l.burst, Remaining: remaining}, nil
}

func (l *LocalLimiter) get(key string, now time.Time) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if b, ok := l.buckets[key]; ok {
		b.lastSeen = now
		return b.limiter
	}

	if len(l.buckets) >= l.maxKeys {
		l.prune(now)
	}

	b := &bucket{limiter: rate.NewLimiter(l.rps, l.burst), lastSeen: now}
	l.buckets[key] = b
	return b.limiter
}

// prune drops buckets that have refilled completely; caller holds mu
func (l *LocalLimiter) prune(now time.Time) {
	idle := time.Minute
	if l.rps > 0 {
		idle = time.Duration(float64(l.burst)/float64(l.rps)*float64(time.Second)) + time.Second
	}
	for k, b := range l.buckets {
		if now.Sub(b.lastSeen) > idle {
			delete(l.buckets, k)
		}
	}
}

// RateLimitConfig configures the rate limit middleware
type RateLimitConfig struct {
	// KeyGenerator identifies the caller
	KeyGenerator func(*fiber.Ctx) string
	// Skip function
	Skip func(*fiber.Ctx) bool
	// Logger receives limiter backend errors
	Logger *zap.Logger
}

// DefaultRateLimitConfig keys on the account when authenticated, else the IP
func DefaultRateLimitConfig(logger *zap.Logger) RateLimitConfig {
	return RateLimitConfig{
		KeyGenerator: func(c *fiber.Ctx) string {
			if accountID, ok := GetAccountID(c); ok {
				return "account:" + accountID.String()
			}
			return "ip:" + c.IP()
		},
		Skip:   HealthSkipper,
		Logger: logger,
	}
}

// RateLimit rejects callers over the limit with a fail envelope. Backend
// errors let the request through.
func RateLimit(limiter Limiter, config RateLimitConfig) fiber.Handler {
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}

	return func(c *fiber.Ctx) error {
		if config.Skip != nil && config.Skip(c) {
			return c.Next()
		}

		key := config.KeyGenerator(c)
		d, err := limiter.Allow(c.UserContext(), key)
		if err != nil {
			config.Logger.Warn("rate limiter unavailable",
				zap.String("key", key),
				zap.Error(err),
			)
			return c.Next()
		}

		c.Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))

		if !d.Allowed {
			seconds := int(math.Ceil(d.RetryAfter.Seconds()))
			if seconds < 1 {
				seconds = 1
			}
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(seconds))
			return apperrors.Fail(fmt.Sprintf("rate limit exceeded, retry in %ds", seconds)).
				WithDetail("retry_after", seconds)
		}

		return c.Next()
	}
}
