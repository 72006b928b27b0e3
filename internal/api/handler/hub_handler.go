package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// WSServer 将 HTTP 连接升级为实时推送连接
type WSServer interface {
	ServeWS(w http.ResponseWriter, r *http.Request) error
}

// HubHandler 实时推送 HTTP 入口
type HubHandler struct {
	hub    WSServer
	logger *zap.Logger
}

// NewHubHandler 创建 HubHandler
func NewHubHandler(hub WSServer, logger *zap.Logger) *HubHandler {
	return &HubHandler{hub: hub, logger: logger}
}

// Connect 升级为 WebSocket；升级失败时 upgrader 已写回错误响应
// GET /attendanceHub
func (h *HubHandler) Connect(c *gin.Context) {
	if err := h.hub.ServeWS(c.Writer, c.Request); err != nil {
		h.logger.Debug("推送连接升级失败", zap.String("ip", c.ClientIP()), zap.Error(err))
	}
}
