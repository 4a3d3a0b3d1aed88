package api

import (
	"Mnemos/backend/go/internal/memory/entity"
	"Mnemos/backend/go/internal/memory/retrieval"
	"Mnemos/backend/go/internal/memory/service"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Handler 封装了所有 API endpoint 的处理函数。
type Handler struct {
	retrieval *retrieval.Service
	memory    *service.MemoryService
}

// NewHandler 创建一个新的 Handler 实例。
func NewHandler(r *retrieval.Service, m *service.MemoryService) *Handler {
	return &Handler{retrieval: r, memory: m}
}

// GetAllFacts 返回用户当前所有活跃事实，按类别分组。
func (h *Handler) GetAllFacts(c *gin.Context) {
	userID := c.GetString("userID")
	facts := h.retrieval.AllActiveFacts(c.Request.Context(), userID)
	c.JSON(http.StatusOK, gin.H{"user_id": userID, "facts": facts})
}

// GetEntityFacts 返回用户在单个类别下的活跃事实。
// 类别不在目录中时返回 400。
func (h *Handler) GetEntityFacts(c *gin.Context) {
	userID := c.GetString("userID")
	ent, err := entity.Parse(c.Param("entity"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unrecognized category: " + c.Param("entity")})
		return
	}
	facts := h.retrieval.EntityFacts(c.Request.Context(), userID, ent)
	c.JSON(http.StatusOK, gin.H{"user_id": userID, "entity": string(ent), "facts": facts})
}

// GetHistory 返回用户的历史事实，可用 entity 查询参数过滤单个类别。
func (h *Handler) GetHistory(c *gin.Context) {
	userID := c.GetString("userID")
	var filter entity.Entity
	if raw := c.Query("entity"); raw != "" {
		ent, err := entity.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unrecognized category: " + raw})
			return
		}
		filter = ent
	}
	history := h.retrieval.HistoricalFacts(c.Request.Context(), userID, filter)
	c.JSON(http.StatusOK, gin.H{"user_id": userID, "history": history})
}

// PostMessageRequest 定义了提交对话消息请求的 JSON 结构。
type PostMessageRequest struct {
	Text      string    `json:"text" binding:"required"`
	Timestamp time.Time `json:"timestamp"`
}

// PostMessage 接收一条对话消息并同步执行记忆更新流水线。
// 更新是尽力而为的，因此总是返回 202 和实际处理的类别数量。
func (h *Handler) PostMessage(c *gin.Context) {
	userID := c.GetString("userID")

	var req PostMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	now := req.Timestamp
	if now.IsZero() {
		now = time.Now().UTC()
	}
	result := h.memory.ApplyMessage(c.Request.Context(), userID, req.Text, now)
	c.JSON(http.StatusAccepted, gin.H{"processed": result.Processed, "total": result.Attempted})
}
