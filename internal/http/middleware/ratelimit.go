package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"ludo_arena/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

var rateLimiter *redis.Client

// InitRedisRateLimiter подключает Redis для лимитирования запросов.
// Пустой адрес оставляет лимитер выключенным (локальная разработка).
func InitRedisRateLimiter(addr, password string, db int) {
	if addr == "" {
		logger.Warn("ratelimit: redis не настроен, лимиты выключены")
		return
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Error("ratelimit: redis недоступен, лимиты выключены", "error", err)
		return
	}

	rateLimiter = client
	logger.Info("ratelimit: redis подключен", "addr", addr)
}

// RateLimit ограничивает число запросов с одного IP фиксированным окном
func RateLimit(name string, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rateLimiter == nil {
			c.Next()
			return
		}

		key := fmt.Sprintf("rl:%s:%s", name, c.ClientIP())
		ctx := c.Request.Context()

		count, err := rateLimiter.Incr(ctx, key).Result()
		if err != nil {
			// при сбое Redis пропускаем, а не блокируем
			c.Next()
			return
		}
		if count == 1 {
			rateLimiter.Expire(ctx, key, window)
		}
		if count > int64(limit) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}
