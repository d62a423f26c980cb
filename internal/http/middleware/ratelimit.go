package middleware

import (
	"net/http"
	"strconv"
	"time"

	echo "github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

// RateLimitConfig config for Redis-based per-sender limiter.
type RateLimitConfig struct {
	Redis          *redis.Client
	Max            int           // messages per window per sender; <= 0 disables
	KeyPrefix      string        // e.g. "rl:sender:"
	Window         time.Duration // e.g. 10s
	RetryAfterHint bool          // set Retry-After header when limited
}

// RateLimitMiddleware applies a fixed-window limit per SMS sender.
// It expects the inbound message in echo.Context (set by InboundParser).
func RateLimitMiddleware(cfg RateLimitConfig) echo.MiddlewareFunc {
	if cfg.Window <= 0 {
		cfg.Window = time.Second
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "rl:sender:"
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			msg, ok := InboundFromCtx(c)
			if !ok || cfg.Max <= 0 || cfg.Redis == nil {
				return next(c)
			}

			// fixed-window key: rl:sender:{phone}:{window index}
			now := time.Now()
			windowIdx := now.UnixNano() / int64(cfg.Window)
			key := cfg.KeyPrefix + msg.From + ":" + strconv.FormatInt(windowIdx, 10)

			// INCR and set expiry 2*window (safety)
			ctx := c.Request().Context()
			pipe := cfg.Redis.Pipeline()
			cnt := pipe.Incr(ctx, key)
			pipe.Expire(ctx, key, cfg.Window*2)
			if _, err := pipe.Exec(ctx); err != nil {
				// fail open: losing the limiter must not lose messages
				return next(c)
			}

			if cnt.Val() > int64(cfg.Max) {
				if cfg.RetryAfterHint {
					remain := cfg.Window - time.Duration(now.UnixNano()%int64(cfg.Window))
					if secs := int(remain.Round(time.Second) / time.Second); secs > 0 {
						c.Response().Header().Set("Retry-After", strconv.Itoa(secs))
					}
				}
				return c.JSON(http.StatusTooManyRequests, map[string]string{"error": "rate limited"})
			}
			return next(c)
		}
	}
}
