// Package service 提供业务逻辑层
// 本文件实现 Service 层的依赖注入和聚合
package service

import (
	"flash_chat_server/internal/service/chat"
	"flash_chat_server/internal/service/contact"
	"flash_chat_server/internal/service/message"
	"flash_chat_server/internal/service/session"
	"flash_chat_server/internal/service/user"
)

// Services 聚合所有 Service 实例
// 作为依赖注入的入口，Handler 层通过它访问各个 Service
type Services struct {
	User    UserService    // 用户 Service
	Contact ContactService // 联系人 Service
	Session SessionService // 会话 Service
	Message MessageService // 消息 Service
	Events  EventSource    // 状态变化通知
}

// NewServices 创建并注入所有 Service 实例
// 所有 Service 共享同一个聊天节点核心
func NewServices(client *chat.Client) *Services {
	return &Services{
		User:    user.NewUserService(client),
		Contact: contact.NewContactService(client),
		Session: session.NewSessionService(client),
		Message: message.NewMessageService(client),
		Events:  client,
	}
}
