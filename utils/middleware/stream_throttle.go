package middleware

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/studybuddy-ai/chat-core/utils/cache"
	"github.com/studybuddy-ai/chat-core/utils/response"
)

// StreamThrottle caps how many streaming sends a user may start per
// window, backed by a Redis counter. Sends past the cap get a 429 with
// a Retry-After header; the burst cap smooths rapid-fire sends inside
// the window.
type StreamThrottle struct {
	redisCache *cache.RedisCache
	maxPerMin  int
	burstMax   int
}

// NewStreamThrottle creates a stream throttle. maxPerMin is the
// per-minute send quota; burstMax caps sends inside any 10 second slice.
func NewStreamThrottle(redisCache *cache.RedisCache, maxPerMin, burstMax int) *StreamThrottle {
	return &StreamThrottle{
		redisCache: redisCache,
		maxPerMin:  maxPerMin,
		burstMax:   burstMax,
	}
}

// Limit is the middleware guarding the streaming send endpoint. It keys
// on the authenticated user, falling back to the client IP.
func (t *StreamThrottle) Limit() fiber.Handler {
	return func(c *fiber.Ctx) error {
		key, ok := GetUserID(c)
		if !ok {
			key = c.IP()
		}
		ctx := c.Context()

		minuteKey := fmt.Sprintf("stream_throttle:minute:%s", key)
		burstKey := fmt.Sprintf("stream_throttle:burst:%s", key)

		// Redis being down must not block sends.
		minuteCount, err := t.redisCache.Increment(ctx, minuteKey)
		if err != nil {
			return c.Next()
		}
		if minuteCount == 1 {
			t.redisCache.Expire(ctx, minuteKey, time.Minute)
		}

		burstCount, err := t.redisCache.Increment(ctx, burstKey)
		if err != nil {
			return c.Next()
		}
		if burstCount == 1 {
			t.redisCache.Expire(ctx, burstKey, 10*time.Second)
		}

		if int(minuteCount) > t.maxPerMin {
			return t.reject(c, minuteKey, time.Minute)
		}
		if int(burstCount) > t.burstMax {
			return t.reject(c, burstKey, 10*time.Second)
		}

		return c.Next()
	}
}

func (t *StreamThrottle) reject(c *fiber.Ctx, key string, fallback time.Duration) error {
	retryAfter := int(fallback.Seconds())
	if ttl, err := t.redisCache.TTL(c.Context(), key); err == nil && ttl > 0 {
		retryAfter = int(ttl.Seconds())
	}

	c.Set("Retry-After", fmt.Sprintf("%d", retryAfter))
	return response.TooManyRequests(c, fmt.Sprintf("Sending too fast. Try again in %d seconds", retryAfter))
}
