package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// RateLimit allows maxPerMin requests per minute for each value of the JSON
// body field, falling back to the client IP. Without Redis it is a no-op.
func RateLimit(cache *redis.Client, scope, field string, maxPerMin int) fiber.Handler {
	if maxPerMin <= 0 {
		maxPerMin = 5
	}
	return func(c *fiber.Ctx) error {
		if cache == nil {
			return c.Next()
		}
		var req map[string]any
		_ = c.BodyParser(&req)
		subject, _ := req[field].(string)
		subject = strings.ToLower(strings.TrimSpace(subject))
		if subject == "" {
			subject = c.IP()
		}

		key := "rl:" + scope + ":" + subject
		cnt, err := cache.Incr(c.UserContext(), key).Result()
		if err != nil {
			return c.Next() // fail-open on cache errors
		}
		if cnt == 1 {
			cache.Expire(c.UserContext(), key, time.Minute)
		}
		if cnt > int64(maxPerMin) {
			return fiber.NewError(http.StatusTooManyRequests, "Too many attempts, please try again later.")
		}
		return c.Next()
	}
}
