package httpmiddleware

import (
	"Mnemos/backend/go/pkg/ratelimiter"
	"net/http"

	"github.com/gin-gonic/gin"
)

// RateLimit 创建一个 Gin 中间件，对整个服务实例进行限流。
// 超出速率限制的请求会收到 429 Too Many Requests。
func RateLimit(limiter ratelimiter.RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}
