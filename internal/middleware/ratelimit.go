package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"
	"go.uber.org/zap"
)

// RateLimit 认证接口限流。配置了 redis 时用 redis store 做实例间共享计数，
// 否则退化为进程内 memory store。
func RateLimit(rateFormat string, redisClient *redis.Client, logger *zap.Logger) gin.HandlerFunc {
	rate, err := limiter.NewRateFromFormatted(rateFormat)
	if err != nil {
		logger.Fatal("invalid rate limit format", zap.String("rate", rateFormat), zap.Error(err))
	}

	var store limiter.Store
	if redisClient != nil {
		store, err = sredis.NewStoreWithOptions(redisClient, limiter.StoreOptions{
			Prefix: "ratelimit:auth",
		})
		if err != nil {
			logger.Fatal("create redis rate limit store", zap.Error(err))
		}
	} else {
		store = memory.NewStore()
	}

	limiterMiddleware := stdlib.NewMiddleware(limiter.New(store, rate))

	return func(c *gin.Context) {
		limiterMiddleware.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c.Next()
		})).ServeHTTP(c.Writer, c.Request)

		if c.Writer.Status() == http.StatusTooManyRequests {
			c.Abort()
			return
		}
	}
}
