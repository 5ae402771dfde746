package message

import (
	"context"

	"flash_chat_server/internal/dto/request"
	"flash_chat_server/internal/dto/respond"
	"flash_chat_server/internal/service/chat"
)

// messageService 消息业务逻辑实现
type messageService struct {
	client *chat.Client
}

// NewMessageService 构造函数
func NewMessageService(client *chat.Client) *messageService {
	return &messageService{client: client}
}

// SendMessage 发送消息；机器人回复异步到达，通过 WebSocket 事件通知
func (s *messageService) SendMessage(ctx context.Context, req request.SendMessageRequest) (*respond.MessageRespond, error) {
	msg, err := s.client.SendMessage(ctx, req.Text)
	if err != nil {
		return nil, err
	}
	rsp := respond.FromMessage(msg)
	return &rsp, nil
}

// GetTranscript 当前会话的对话记录
func (s *messageService) GetTranscript(_ context.Context) (*respond.TranscriptRespond, error) {
	conv, err := s.client.ActiveConversation()
	if err != nil {
		return nil, err
	}
	return &respond.TranscriptRespond{
		SessionId:   conv.Session.ID,
		Participant: respond.FromUser(conv.Participant),
		Messages:    respond.FromMessages(conv.Messages),
	}, nil
}
