package middleware

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/yunhetech/crypto-invest-backend/internal/common/response"
)

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	RedisClient *redis.Client
	KeyPrefix   string
	Limit       int
	Window      time.Duration
	KeyFunc     func(*gin.Context) string
}

// DefaultRateLimitConfig 默认限流配置
func DefaultRateLimitConfig(redisClient *redis.Client) *RateLimitConfig {
	return &RateLimitConfig{
		RedisClient: redisClient,
		KeyPrefix:   "ratelimit:",
		Limit:       100,
		Window:      time.Minute,
	}
}

// RateLimit 固定窗口限流中间件
// Redis 不可用时放行，限流不应成为单点。
func RateLimit(cfg *RateLimitConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		var key string
		if cfg.KeyFunc != nil {
			key = cfg.KeyFunc(c)
		} else {
			key = fmt.Sprintf("%s%s:%s", cfg.KeyPrefix, c.ClientIP(), c.Request.URL.Path)
		}

		ctx := c.Request.Context()

		count, err := cfg.RedisClient.Incr(ctx, key).Result()
		if err != nil {
			c.Next()
			return
		}
		if count == 1 {
			cfg.RedisClient.Expire(ctx, key, cfg.Window)
		}

		if int(count) > cfg.Limit {
			ttl, _ := cfg.RedisClient.TTL(ctx, key).Result()
			c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", cfg.Limit))
			c.Header("X-RateLimit-Remaining", "0")
			c.Header("Retry-After", fmt.Sprintf("%d", int(ttl.Seconds())))

			response.TooManyRequests(c, "请求过于频繁，请稍后再试")
			c.Abort()
			return
		}

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", cfg.Limit))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", cfg.Limit-int(count)))

		c.Next()
	}
}
