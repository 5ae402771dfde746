package handler

import (
	"encoding/json"

	"flash_chat_server/internal/gateway/websocket"
	"flash_chat_server/internal/infrastructure/middleware"
	"flash_chat_server/internal/service"
	"flash_chat_server/internal/service/chat"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// WsHandler 状态变化推送
// 连接只下行推送 {"type": "..."}，前端收到后重新拉取对应接口
type WsHandler struct {
	hub     *websocket.Hub
	userSvc service.UserService
	cancel  func()
}

// NewWsHandler 创建推送处理器并订阅状态变化
func NewWsHandler(events service.EventSource, userSvc service.UserService, hub *websocket.Hub) *WsHandler {
	h := &WsHandler{hub: hub, userSvc: userSvc}
	h.cancel = events.Watch(h.onEvent)
	return h
}

// onEvent 在存储投递协程中执行，只做非阻塞投递
func (h *WsHandler) onEvent(ev chat.Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		zap.L().Error("marshal ws event failed", zap.Error(err))
		return
	}
	// 登出或切换用户后，其他用户的连接不再有效，先断开再推送
	if ev.Type == chat.EventIdentity {
		h.hub.CloseExcept(h.userSvc.CurrentUserID())
	}
	h.hub.Broadcast(payload)
}

// Connect 建立推送连接
// GET /ws?token=
func (h *WsHandler) Connect(c *gin.Context) {
	h.hub.Serve(c, c.GetString(middleware.ContextUserID))
}

// Close 取消订阅并断开所有连接
func (h *WsHandler) Close() {
	h.cancel()
	h.hub.CloseAll()
}

// Connections 当前在线的推送连接数
func (h *WsHandler) Connections() int {
	return h.hub.Count()
}
