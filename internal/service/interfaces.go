// Package service 定义业务层接口
// 本文件定义所有 Service 接口，供 Handler 层调用
// 接口设计遵循依赖倒置原则，便于测试和解耦
package service

import (
	"context"

	"flash_chat_server/internal/dto/request"
	"flash_chat_server/internal/dto/respond"
	"flash_chat_server/internal/service/chat"
)

// UserService 用户业务接口
// 处理注册、登录、登出和用户目录查询
type UserService interface {
	// Register 注册并登录，返回 Access Token
	Register(ctx context.Context, req request.RegisterRequest) (*respond.LoginRespond, error)
	// Login 用户名密码登录
	Login(ctx context.Context, req request.LoginRequest) (*respond.LoginRespond, error)
	// Current 本节点当前登录用户（可能来自本地缓存恢复），未登录返回 ErrNotLoggedIn
	Current(ctx context.Context) (*respond.LoginRespond, error)
	// Logout 登出
	Logout(ctx context.Context, userId string) error
	// GetUserList 用户目录（不含密码）
	GetUserList(ctx context.Context) ([]respond.UserRespond, error)
	// CurrentUserID 当前登录用户 ID，供鉴权中间件比对
	CurrentUserID() string
}

// ContactService 联系人业务接口
type ContactService interface {
	// AddContact 添加联系人（必要时创建机器人）并激活会话
	AddContact(ctx context.Context, req request.AddContactRequest) (*respond.SessionRespond, error)
}

// SessionService 会话业务接口
type SessionService interface {
	// GetSessionList 侧边栏会话列表
	GetSessionList(ctx context.Context, req request.SessionListRequest) ([]respond.SessionRespond, error)
	// SelectSession 切换当前会话
	SelectSession(ctx context.Context, req request.SelectSessionRequest) error
}

// MessageService 消息业务接口
type MessageService interface {
	// SendMessage 发送消息到当前会话
	SendMessage(ctx context.Context, req request.SendMessageRequest) (*respond.MessageRespond, error)
	// GetTranscript 当前会话的完整对话
	GetTranscript(ctx context.Context) (*respond.TranscriptRespond, error)
}

// EventSource 状态变化通知，WebSocket 推送使用
type EventSource interface {
	Watch(fn func(chat.Event)) (cancel func())
}
