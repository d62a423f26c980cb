package middleware

import (
	"context"
	"net/http"
	"time"

	echo "github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

const dedupePrefix = "dedupe:sms:"

// DedupeMiddleware acknowledges webhook retries for a MessageSid that was
// already accepted, so each inbound SMS is dispatched once.
func DedupeMiddleware(rds *redis.Client, ttl time.Duration) echo.MiddlewareFunc {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			msg, ok := InboundFromCtx(c)
			if !ok || msg.SID == "" || rds == nil {
				return next(c)
			}

			fresh, err := rds.SetNX(c.Request().Context(), dedupePrefix+msg.SID, 1, ttl).Result()
			if err != nil {
				c.Logger().Warnf("dedupe lookup failed: %v", err)
				return next(c)
			}
			if !fresh {
				return c.NoContent(http.StatusOK)
			}

			err = next(c)
			if err != nil || c.Response().Status >= http.StatusBadRequest {
				// not accepted; let the provider's retry through
				_ = rds.Del(context.WithoutCancel(c.Request().Context()), dedupePrefix+msg.SID).Err()
			}
			return err
		}
	}
}
