package api

import (
	"Mnemos/backend/go/pkg/httpmiddleware"
	"Mnemos/backend/go/pkg/ratelimiter"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRouter 配置和返回一个 Gin 引擎实例。limiter 为 nil 时不启用限流。
func SetupRouter(h *Handler, limiter ratelimiter.RateLimiter) *gin.Engine {
	// 使用默认中间件 (logger, recovery) 创建一个 Gin 引擎。
	r := gin.Default()

	// Prometheus 指标不走认证和限流
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	apiV1 := r.Group("/api/v1")
	if limiter != nil {
		apiV1.Use(httpmiddleware.RateLimit(limiter))
	}

	memory := apiV1.Group("/memory")
	memory.Use(AuthMiddleware())
	{
		memory.GET("/facts", h.GetAllFacts)
		memory.GET("/facts/:entity", h.GetEntityFacts)
		memory.GET("/history", h.GetHistory)
		memory.POST("/messages", h.PostMessage)
	}

	return r
}
