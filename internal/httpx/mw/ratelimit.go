package mw

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/redis/go-redis/v9"
	"github.com/samber/lo"
)

var incrScript = redis.NewScript(`
local current = redis.call('INCR', KEYS[1])
if current == 1 then redis.call('PEXPIRE', KEYS[1], ARGV[1]) end
return current`)

func rateKey(c *fiber.Ctx) string {
	sub := ""
	if ac := Auth(c); ac != nil {
		sub = ac.Subject
	}
	return fmt.Sprintf("ip:%s|sub:%s", c.IP(), sub)
}

// RateLimit limits requests per ip+subject. With a Redis client the counter is shared
// across replicas; otherwise fiber's in-memory limiter is used. Redis failures let the
// request through.
func RateLimit(rdb redis.Scripter, window time.Duration, limit int) fiber.Handler {
	window = lo.Ternary(window > 0, window, time.Minute)
	if rdb == nil {
		return limiter.New(limiter.Config{
			Max:          limit,
			Expiration:   window,
			KeyGenerator: rateKey,
			LimitReached: func(_ *fiber.Ctx) error {
				return fiber.NewError(fiber.StatusTooManyRequests, "rate limit exceeded")
			},
		})
	}
	retryAfter := fmt.Sprint(int(window.Seconds()))
	return func(c *fiber.Ctx) error {
		key := "rl:" + rateKey(c)
		ctx, cancel := context.WithTimeout(c.Context(), 200*time.Millisecond)
		defer cancel()
		res, err := incrScript.Run(ctx, rdb, []string{key}, window.Milliseconds()).Result()
		if err != nil {
			return c.Next()
		}
		n, _ := res.(int64)
		c.Set("X-RateLimit-Limit", fmt.Sprint(limit))
		c.Set("X-RateLimit-Remaining", fmt.Sprint(lo.Max([]int64{0, int64(limit) - n})))
		if n > int64(limit) {
			c.Set("Retry-After", retryAfter)
			return fiber.NewError(fiber.StatusTooManyRequests, "rate limit exceeded")
		}
		return c.Next()
	}
}
