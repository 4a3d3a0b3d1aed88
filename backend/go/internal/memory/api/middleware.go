package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// identityHeader 携带调用方已经认证过的用户 ID。网关在转发请求之前
// 完成认证并注入该标头，本服务只做存在性校验。
const identityHeader = "X-User-ID"

// AuthMiddleware 创建一个 Gin 中间件，从请求标头中提取用户身份。
// 缺少身份标头的请求会收到 401。
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader(identityHeader)
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing " + identityHeader + " header"})
			return
		}
		// 将用户 ID 存储在 Gin 的上下文中，供后续处理函数使用
		c.Set("userID", userID)
		c.Next()
	}
}
