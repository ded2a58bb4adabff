package database

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/490273789/llmops-api/internal/config"
	"github.com/490273789/llmops-api/internal/pkg/logger"
)

// RedisDB wraps a Redis client
type RedisDB struct {
	Client *redis.Client
}

// NewRedis creates a new Redis client
func NewRedis(ctx context.Context, cfg config.RedisConfig) (*RedisDB, error) {
	client := redis.NewClient(&redis.Options{
		Addr:            cfg.Addr(),
		Password:        cfg.Password,
		DB:              cfg.DB,
		MaxRetries:      3,
		MinRetryBackoff: 8 * time.Millisecond,
		MaxRetryBackoff: 512 * time.Millisecond,
		DialTimeout:     5 * time.Second,
		ReadTimeout:     3 * time.Second,
		WriteTimeout:    3 * time.Second,
		PoolSize:        20,
		MinIdleConns:    2,
		PoolTimeout:     4 * time.Second,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	logger.Info("connected to Redis",
		zap.String("addr", cfg.Addr()),
		zap.Int("db", cfg.DB),
	)

	return &RedisDB{Client: client}, nil
}

// Ping checks the connection
func (db *RedisDB) Ping(ctx context.Context) error {
	return db.Client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (db *RedisDB) Close() error {
	if db.Client != nil {
		return db.Client.Close()
	}
	return nil
}

// SlidingWindow counts hits for key over the trailing window and reports
// whether this hit fits under limit. A denied hit is not counted. When denied,
// retryAfter is the time until the oldest counted hit leaves the window.
func (db *RedisDB) SlidingWindow(ctx context.Context, key string, limit int64, window time.Duration) (allowed bool, remaining int64, retryAfter time.Duration, err error) {
	now := time.Now()
	member := strconv.FormatInt(now.UnixMicro(), 10) + "-" + uuid.NewString()[:8]
	floor := strconv.FormatInt(now.Add(-window).UnixMicro(), 10)

	pipe := db.Client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, key, "-inf", "("+floor)
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(now.UnixMicro()), Member: member})
	count := pipe.ZCard(ctx, key)
	oldest := pipe.ZRangeWithScores(ctx, key, 0, 0)
	pipe.PExpire(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, 0, fmt.Errorf("failed to evaluate rate limit: %w", err)
	}

	n := count.Val()
	if n <= limit {
		return true, limit - n, 0, nil
	}

	// over the limit: forget this hit so rejected requests do not extend the window
	if err := db.Client.ZRem(ctx, key, member).Err(); err != nil {
		logger.Warn("failed to drop rejected hit", zap.String("key", key), zap.Error(err))
	}

	retryAfter = window
	if first := oldest.Val(); len(first) > 0 {
		expires := time.UnixMicro(int64(first[0].Score)).Add(window)
		if d := expires.Sub(now); d > 0 {
			retryAfter = d
		}
	}
	return false, 0, retryAfter, nil
}
