package security

import (
	"fmt"
	"net/http"

	"github.com/pocketbase/pocketbase/core"
	"github.com/redis/go-redis/v9"

	"jamsync/config"
)

type RateLimiter struct {
	redis *redis.Client
	cfg   *config.Config
}

func NewRateLimiter(redisClient *redis.Client, cfg *config.Config) *RateLimiter {
	return &RateLimiter{redis: redisClient, cfg: cfg}
}

// Middleware enforces a fixed window of cfg.RateLimitRequests requests
// per client IP and bucket. Redis failures fail open: a broken limiter
// must not take the API down with it.
func (r *RateLimiter) Middleware(bucket string) func(e *core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		ip := e.RealIP()
		key := fmt.Sprintf("ratelimit:%s:%s", bucket, ip)
		ctx := e.Request.Context()

		count, err := r.redis.Incr(ctx, key).Result()
		if err == nil {
			if count == 1 {
				r.redis.Expire(ctx, key, r.cfg.RateLimitWindow)
			}
			if count > int64(r.cfg.RateLimitRequests) {
				return e.JSON(http.StatusTooManyRequests, map[string]string{
					"error": "Rate limit exceeded. Please try again later.",
				})
			}
		}

		return e.Next()
	}
}
