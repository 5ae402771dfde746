// Package handler 提供 HTTP 请求处理器
// 本文件定义 Handler 聚合结构和构造函数，通过构造函数注入 Service 依赖
package handler

import (
	"flash_chat_server/internal/gateway/websocket"
	"flash_chat_server/internal/service"
)

// Handlers 聚合所有 Handler 实例，Router 层通过此结构访问各个 Handler
type Handlers struct {
	User    *UserHandler
	Contact *ContactHandler
	Session *SessionHandler
	Message *MessageHandler
	Ws      *WsHandler
}

// NewHandlers 创建并注入所有 Handler 实例
// 返回的 Handlers 持有状态变化订阅，停机时调用 Close
func NewHandlers(svc *service.Services) *Handlers {
	return &Handlers{
		User:    NewUserHandler(svc.User),
		Contact: NewContactHandler(svc.Contact),
		Session: NewSessionHandler(svc.Session),
		Message: NewMessageHandler(svc.Message),
		Ws:      NewWsHandler(svc.Events, svc.User, websocket.NewHub()),
	}
}

// Close 取消事件订阅并断开所有 WebSocket 连接
func (h *Handlers) Close() {
	h.Ws.Close()
}
