package session

import (
	"context"

	"flash_chat_server/internal/dto/request"
	"flash_chat_server/internal/dto/respond"
	"flash_chat_server/internal/service/chat"
)

// sessionService 会话业务逻辑实现
type sessionService struct {
	client *chat.Client
}

// NewSessionService 构造函数
func NewSessionService(client *chat.Client) *sessionService {
	return &sessionService{client: client}
}

// GetSessionList 会话列表
func (s *sessionService) GetSessionList(_ context.Context, req request.SessionListRequest) ([]respond.SessionRespond, error) {
	items := s.client.SessionList(req.Search)
	rsp := make([]respond.SessionRespond, 0, len(items))
	for _, it := range items {
		rsp = append(rsp, respond.SessionRespond{
			SessionId:     it.Session.ID,
			Participant:   respond.FromUser(it.Participant),
			LastMessage:   it.Session.LastMessage,
			LastTimestamp: it.Session.LastTimestamp,
			IsSupport:     it.Session.IsSupport,
			Active:        it.Active,
		})
	}
	return rsp, nil
}

// SelectSession 切换当前会话
func (s *sessionService) SelectSession(_ context.Context, req request.SelectSessionRequest) error {
	_, err := s.client.SelectSession(req.SessionId)
	return err
}
