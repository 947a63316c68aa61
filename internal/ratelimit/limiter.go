// Package ratelimit throttles login attempts with fixed windows kept in Redis.
package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	apperrors "github.com/spec-kit/userauth-service/pkg/util"
)

const keyPrefix = "userauth:login:"

// Limiter counts attempts per key in fixed windows.
type Limiter struct {
	client *redis.Client
	max    int
	window time.Duration
	logger *zap.Logger
	onDeny func()
}

// NewLimiter returns a limiter allowing max attempts per window. A
// non-positive max disables limiting.
func NewLimiter(client *redis.Client, max int, window time.Duration, logger *zap.Logger, onDeny func()) *Limiter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Limiter{client: client, max: max, window: window, logger: logger, onDeny: onDeny}
}

// Allow increments the counter for key and reports whether the attempt is
// within budget, plus the time left in the current window.
func (l *Limiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	if l.max <= 0 || l.client == nil {
		return true, 0, nil
	}

	redisKey := keyPrefix + key
	count, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return true, 0, fmt.Errorf("count attempt: %w", err)
	}
	if count == 1 {
		if err := l.client.Expire(ctx, redisKey, l.window).Err(); err != nil {
			return true, 0, fmt.Errorf("start window: %w", err)
		}
	}

	ttl, err := l.client.PTTL(ctx, redisKey).Result()
	if err != nil {
		return true, 0, fmt.Errorf("read window: %w", err)
	}
	if ttl < 0 {
		// a previous window lost its expiry; restart it
		if err := l.client.Expire(ctx, redisKey, l.window).Err(); err != nil {
			return true, 0, fmt.Errorf("repair window: %w", err)
		}
		ttl = l.window
	}

	return count <= int64(l.max), ttl, nil
}

// Middleware rejects callers over budget with TooManyRequests. Redis errors
// let the request through.
func (l *Limiter) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		allowed, retryAfter, err := l.Allow(c.UserContext(), c.IP())
		if err != nil {
			l.logger.Warn("login limiter unavailable", zap.Error(err))
			return c.Next()
		}
		if !allowed {
			if retryAfter > 0 {
				c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(retryAfter.Round(time.Second).Seconds())))
			}
			if l.onDeny != nil {
				l.onDeny()
			}
			return apperrors.New(apperrors.KindTooManyRequests)
		}
		return c.Next()
	}
}
